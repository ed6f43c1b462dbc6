package domain

// ChangeType represents the kind of change seen in a watched folder.
type ChangeType int

const (
	// ChangeCreated indicates a new file.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified file.
	ChangeUpdated

	// ChangeDeleted indicates a removed or renamed file.
	ChangeDeleted
)

// String returns a lowercase name for the change.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// FileChange is one settled change to a file in a watched folder.
type FileChange struct {
	Type ChangeType
	Path string
}

// WatchStats counts what a watch run did.
type WatchStats struct {
	Ingested int `json:"ingested"`
	Deleted  int `json:"deleted"`
	Failed   int `json:"failed"`
}
