// Package qdrant provides a Qdrant-backed implementation of driven.ChunkIndex.
//
// Chunks are stored as points keyed by chunk ID, with the chunk fields as
// payload and the embedding as the point vector. Chunks without an
// embedding get a zero vector and an embedded=false payload flag, so they
// stay retrievable by key. Key-filtered queries use keyword payload indexes
// on partner_key and session_key.
package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	qd "github.com/qdrant/go-client/qdrant"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driven"
	"github.com/custodia-labs/partnerdocs/internal/logger"
)

const (
	// DefaultCollection is used when no collection name is configured.
	DefaultCollection = "partner_chunks"

	// DefaultPort is the Qdrant gRPC port.
	DefaultPort = 6334

	// scrollPage is the number of points fetched per scroll request.
	scrollPage = 256
)

// Payload field names.
const (
	fieldContent        = "content"
	fieldSourceDocID    = "source_doc_id"
	fieldDocType        = "doc_type"
	fieldPartnerKey     = "partner_key"
	fieldSessionKey     = "session_key"
	fieldStartOffset    = "start_offset"
	fieldEndOffset      = "end_offset"
	fieldOrdinal        = "ordinal"
	fieldEmbeddingModel = "embedding_model"
	fieldFileName       = "file_name"
	fieldCreatedAt      = "created_at"
	fieldEmbedded       = "embedded"
)

// Ensure Index implements the interface.
var _ driven.ChunkIndex = (*Index)(nil)

// Config holds Qdrant connection settings.
type Config struct {
	// URL is the gRPC endpoint, e.g. http://localhost:6334.
	URL string

	// APIKey is optional.
	APIKey string

	// Collection defaults to DefaultCollection.
	Collection string

	// Dimensions is the vector size used when creating the collection.
	Dimensions int
}

// Index stores chunks as Qdrant points.
type Index struct {
	client     *qd.Client
	collection string
	dimensions int
}

// New connects to Qdrant and ensures the collection exists.
func New(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: qdrant needs vector dimensions", domain.ErrInvalidInput)
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	host, port, useTLS, err := parseEndpoint(cfg.URL)
	if err != nil {
		return nil, err
	}

	client, err := qd.NewClient(&qd.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
	}

	idx := &Index{client: client, collection: cfg.Collection, dimensions: cfg.Dimensions}
	if err := idx.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
	}
	return idx, nil
}

// parseEndpoint splits a Qdrant URL into host, port and TLS flag.
func parseEndpoint(raw string) (string, int, bool, error) {
	if raw == "" {
		raw = "http://localhost:" + strconv.Itoa(DefaultPort)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "", 0, false, fmt.Errorf("%w: invalid qdrant URL %q", domain.ErrInvalidInput, raw)
	}

	port := DefaultPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, false, fmt.Errorf("%w: invalid qdrant port %q", domain.ErrInvalidInput, p)
		}
	}
	return u.Hostname(), port, u.Scheme == "https", nil
}

func (i *Index) ensureCollection(ctx context.Context) error {
	exists, err := i.client.CollectionExists(ctx, i.collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		return nil
	}

	logger.Info("Creating qdrant collection %s (%d dimensions)", i.collection, i.dimensions)
	err = i.client.CreateCollection(ctx, &qd.CreateCollection{
		CollectionName: i.collection,
		VectorsConfig: qd.NewVectorsConfig(&qd.VectorParams{
			Size:     uint64(i.dimensions),
			Distance: qd.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	for _, field := range []string{fieldPartnerKey, fieldSessionKey, fieldSourceDocID} {
		_, err := i.client.CreateFieldIndex(ctx, &qd.CreateFieldIndexCollection{
			CollectionName: i.collection,
			FieldName:      field,
			FieldType:      qd.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("index field %s: %w", field, err)
		}
	}
	return nil
}

// Upsert stores or replaces a chunk by ID.
func (i *Index) Upsert(ctx context.Context, chunk domain.Chunk) error {
	point, err := i.point(chunk)
	if err != nil {
		return err
	}

	_, err = i.client.Upsert(ctx, &qd.UpsertPoints{
		CollectionName: i.collection,
		Wait:           qd.PtrOf(true),
		Points:         []*qd.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("upsert point %s: %w", chunk.ID, err)
	}
	return nil
}

// point converts a chunk, substituting a zero vector when it has no
// embedding.
func (i *Index) point(chunk domain.Chunk) (*qd.PointStruct, error) {
	if chunk.ID == "" {
		return nil, fmt.Errorf("%w: chunk ID is required", domain.ErrInvalidInput)
	}

	vector := chunk.Embedding
	if !chunk.HasEmbedding() {
		vector = make([]float32, i.dimensions)
	} else if len(vector) != i.dimensions {
		return nil, fmt.Errorf("%w: chunk %s has %d dimensions, collection expects %d",
			domain.ErrInvalidInput, chunk.ID, len(vector), i.dimensions)
	}

	return &qd.PointStruct{
		Id:      qd.NewIDUUID(chunk.ID),
		Vectors: qd.NewVectors(vector...),
		Payload: buildPayload(chunk),
	}, nil
}

// Query scrolls every point matching the filter key, then orders by source
// and ordinal and applies the limit.
func (i *Index) Query(ctx context.Context, filter domain.ChunkFilter) ([]domain.Chunk, error) {
	chunks := make([]domain.Chunk, 0)
	err := i.scroll(ctx, keyFilter(filter.Key), true, func(p *qd.RetrievedPoint) {
		chunks = append(chunks, pointToChunk(p))
	})
	if err != nil {
		return nil, err
	}

	domain.SortChunks(chunks)
	if filter.Limit > 0 && len(chunks) > filter.Limit {
		chunks = chunks[:filter.Limit]
	}
	return chunks, nil
}

// Stats returns aggregate counts across the collection.
func (i *Index) Stats(ctx context.Context) (*domain.IndexStats, error) {
	b := domain.NewStatsBuilder()
	err := i.scroll(ctx, nil, false, func(p *qd.RetrievedPoint) {
		payload := p.GetPayload()
		b.Add(str(payload, fieldSourceDocID), domain.DocType(str(payload, fieldDocType)), str(payload, fieldPartnerKey))
	})
	if err != nil {
		return nil, err
	}
	return b.Stats(), nil
}

// DeleteSource removes all points of a source document.
func (i *Index) DeleteSource(ctx context.Context, sourceDocID string) (int, error) {
	f := &qd.Filter{Must: []*qd.Condition{qd.NewMatch(fieldSourceDocID, sourceDocID)}}

	n, err := i.client.Count(ctx, &qd.CountPoints{
		CollectionName: i.collection,
		Filter:         f,
		Exact:          qd.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("count points of %s: %w", sourceDocID, err)
	}
	if n == 0 {
		return 0, nil
	}

	_, err = i.client.Delete(ctx, &qd.DeletePoints{
		CollectionName: i.collection,
		Wait:           qd.PtrOf(true),
		Points:         qd.NewPointsSelectorFilter(f),
	})
	if err != nil {
		return 0, fmt.Errorf("delete points of %s: %w", sourceDocID, err)
	}
	return int(n), nil
}

// Close releases the gRPC connection.
func (i *Index) Close() error {
	return i.client.Close()
}

// scroll pages through matching points. Each request asks for one extra
// point whose ID becomes the next page's inclusive offset.
func (i *Index) scroll(ctx context.Context, f *qd.Filter, withVectors bool, visit func(*qd.RetrievedPoint)) error {
	var offset *qd.PointId
	for {
		points, err := i.client.Scroll(ctx, &qd.ScrollPoints{
			CollectionName: i.collection,
			Filter:         f,
			Offset:         offset,
			Limit:          qd.PtrOf(uint32(scrollPage + 1)),
			WithPayload:    qd.NewWithPayload(true),
			WithVectors:    qd.NewWithVectors(withVectors),
		})
		if err != nil {
			return fmt.Errorf("scroll %s: %w", i.collection, err)
		}

		page := points
		if len(points) > scrollPage {
			page = points[:scrollPage]
		}
		for _, p := range page {
			visit(p)
		}
		if len(points) <= scrollPage {
			return nil
		}
		offset = points[scrollPage].GetId()
	}
}

// keyFilter matches the partner or session key; nil matches everything.
func keyFilter(key string) *qd.Filter {
	if key == "" {
		return nil
	}
	return &qd.Filter{
		Should: []*qd.Condition{
			qd.NewMatch(fieldPartnerKey, key),
			qd.NewMatch(fieldSessionKey, key),
		},
	}
}

func buildPayload(c domain.Chunk) map[string]*qd.Value {
	created := c.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return map[string]*qd.Value{
		fieldContent:        qd.NewValueString(c.Content),
		fieldSourceDocID:    qd.NewValueString(c.SourceDocID),
		fieldDocType:        qd.NewValueString(string(c.DocType)),
		fieldPartnerKey:     qd.NewValueString(c.PartnerKey),
		fieldSessionKey:     qd.NewValueString(c.SessionKey),
		fieldStartOffset:    qd.NewValueInt(int64(c.StartOffset)),
		fieldEndOffset:      qd.NewValueInt(int64(c.EndOffset)),
		fieldOrdinal:        qd.NewValueInt(int64(c.Ordinal)),
		fieldEmbeddingModel: qd.NewValueString(c.EmbeddingModel),
		fieldFileName:       qd.NewValueString(c.FileName),
		fieldCreatedAt:      qd.NewValueString(created.UTC().Format(time.RFC3339Nano)),
		fieldEmbedded:       qd.NewValueBool(c.HasEmbedding()),
	}
}

func pointToChunk(p *qd.RetrievedPoint) domain.Chunk {
	payload := p.GetPayload()
	c := domain.Chunk{
		ID:             p.GetId().GetUuid(),
		Content:        str(payload, fieldContent),
		SourceDocID:    str(payload, fieldSourceDocID),
		DocType:        domain.DocType(str(payload, fieldDocType)),
		PartnerKey:     str(payload, fieldPartnerKey),
		SessionKey:     str(payload, fieldSessionKey),
		StartOffset:    integer(payload, fieldStartOffset),
		EndOffset:      integer(payload, fieldEndOffset),
		Ordinal:        integer(payload, fieldOrdinal),
		EmbeddingModel: str(payload, fieldEmbeddingModel),
		FileName:       str(payload, fieldFileName),
	}
	if t, err := time.Parse(time.RFC3339Nano, str(payload, fieldCreatedAt)); err == nil {
		c.CreatedAt = t
	}
	// Points written before the flag existed always carried a real vector.
	embedded, flagged := payload[fieldEmbedded]
	if v := p.GetVectors().GetVector(); v != nil && (!flagged || embedded.GetBoolValue()) {
		c.Embedding = vectorData(v)
	}
	return c
}

// vectorData reads a dense vector from either the oneof field or the
// deprecated flat field older servers still fill.
func vectorData(v *qd.VectorOutput) []float32 {
	if dense := v.GetDense(); dense != nil {
		return dense.GetData()
	}
	return v.GetData() //nolint:staticcheck // older servers only fill Data
}

func str(payload map[string]*qd.Value, key string) string {
	return payload[key].GetStringValue()
}

func integer(payload map[string]*qd.Value, key string) int {
	return int(payload[key].GetIntegerValue())
}
