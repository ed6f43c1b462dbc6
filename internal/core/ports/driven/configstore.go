package driven

// ConfigStore is the persisted settings file. Keys are dotted paths into
// nested tables, e.g. "chunking.size" or "llm.provider". Environment
// overrides are applied by the settings service, not by the store.
type ConfigStore interface {
	// Load reads the file. A missing file is an empty configuration.
	Load() error

	// Save writes the current values back to Path.
	Save() error

	// Path returns the file location. Its extension selects TOML or YAML.
	Path() string

	// Get returns the raw value at key and whether it was present.
	Get(key string) (any, bool)

	// GetString returns "" when key is absent or not a string.
	GetString(key string) string

	// GetInt accepts any integer or float encoding and numeric strings.
	// Absent or unparseable values return 0.
	GetInt(key string) int

	// GetBool accepts booleans and boolean strings.
	GetBool(key string) bool

	// GetStringSlice returns nil when key is absent or not a list.
	GetStringSlice(key string) []string

	// Set stores value at key and saves. The previous value is restored
	// if the save fails.
	Set(key string, value any) error
}
