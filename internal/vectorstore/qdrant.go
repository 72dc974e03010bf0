// Package vectorstore implements the document and chunk collections on top
// of Qdrant. Chunk embeddings are computed from chunk text at upsert time,
// so the ingestion pipeline never talks to the embedding API itself.
package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"doculens/internal/contextutil"
	"doculens/internal/ingest"
)

// Embedder turns chunk text into vectors. Implemented by llm.EmbeddingsClient.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ScoredChunk is a chunk returned from similarity search.
type ScoredChunk struct {
	Chunk ingest.IngestedChunk
	Score float32
}

// scrollPageSize bounds one scroll request when listing document records.
const scrollPageSize = 256

// Store holds the two Qdrant collections backing ingestion: document
// records (payload-only, carried on dummy vectors) and chunks (embedded).
// It implements ingest.DocumentStore and ingest.ChunkStore.
type Store struct {
	client           *qdrant.Client
	embedder         Embedder
	docsCollection   string
	chunksCollection string
	vectorSize       int
}

// New creates a store client. urlStr should be in the format
// "http://host:port" (e.g. "http://localhost:6333"); the gRPC port is
// derived from the HTTP port.
func New(urlStr string, embedder Embedder, docsCollection, chunksCollection string, vectorSize int) (*Store, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	// gRPC port is conventionally the HTTP port + 1.
	port := 6334
	if parsedURL.Port() != "" {
		if httpPort, err := strconv.Atoi(parsedURL.Port()); err == nil {
			port = httpPort + 1
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &Store{
		client:           client,
		embedder:         embedder,
		docsCollection:   docsCollection,
		chunksCollection: chunksCollection,
		vectorSize:       vectorSize,
	}, nil
}

// EnsureCollections creates the two collections if they do not exist and
// validates the chunk collection's vector size when it does.
func (s *Store) EnsureCollections(ctx context.Context) error {
	if err := s.ensureCollection(ctx, s.chunksCollection, s.vectorSize); err != nil {
		return err
	}
	// Document records carry no meaningful vector; Qdrant requires a vector
	// config, so they ride on a dimension-1 zero vector.
	return s.ensureCollection(ctx, s.docsCollection, 1)
}

func (s *Store) ensureCollection(ctx context.Context, collection string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !exists {
		logger.InfoContext(ctx, "creating collection", "collection", collection, "vector_size", vectorSize)
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(vectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection %s: %w", collection, err)
		}
		return nil
	}

	info, err := s.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}
	actual := collectionVectorSize(info)
	if actual != 0 && actual != vectorSize {
		return fmt.Errorf("collection %s vector size mismatch: expected %d, got %d", collection, vectorSize, actual)
	}
	logger.InfoContext(ctx, "collection validated", "collection", collection, "vector_size", vectorSize)
	return nil
}

// CollectionExists reports whether a collection exists. Used by health
// checks.
func (s *Store) CollectionExists(ctx context.Context, collection string) (bool, error) {
	return s.client.CollectionExists(ctx, collection)
}

// ListBySource returns every document record owned by the given source.
func (s *Store) ListBySource(ctx context.Context, sourceID string) ([]ingest.IngestedDocument, error) {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch("source_id", sourceID)},
	}
	return s.scrollDocuments(ctx, filter)
}

// ListDocuments returns every document record in the store, across sources.
func (s *Store) ListDocuments(ctx context.Context) ([]ingest.IngestedDocument, error) {
	return s.scrollDocuments(ctx, nil)
}

func (s *Store) scrollDocuments(ctx context.Context, filter *qdrant.Filter) ([]ingest.IngestedDocument, error) {
	var docs []ingest.IngestedDocument
	seen := make(map[string]struct{})

	limit := uint32(scrollPageSize)
	var offset *qdrant.PointId
	for {
		points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.docsCollection,
			Filter:         filter,
			Limit:          &limit,
			WithPayload:    qdrant.NewWithPayload(true),
			Offset:         offset,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scroll documents: %w", err)
		}
		if len(points) == 0 {
			break
		}

		for _, point := range points {
			meta := convertPayloadToMap(point.Payload)
			doc := ingest.IngestedDocument{
				Key:             stringValue(meta, "key"),
				SourceID:        stringValue(meta, "source_id"),
				DocumentID:      stringValue(meta, "document_id"),
				DocumentVersion: stringValue(meta, "document_version"),
			}
			if doc.Key == "" {
				continue
			}
			if _, dup := seen[doc.Key]; dup {
				continue
			}
			seen[doc.Key] = struct{}{}
			docs = append(docs, doc)
		}

		if len(points) < scrollPageSize {
			break
		}
		offset = points[len(points)-1].Id
	}
	return docs, nil
}

// UpsertDocuments writes document records into the documents collection.
func (s *Store) UpsertDocuments(ctx context.Context, docs []ingest.IngestedDocument) error {
	logger := contextutil.LoggerFromContext(ctx)
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(docs))
	for _, doc := range docs {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointIDForKey(doc.Key)),
			Vectors: qdrant.NewVectors(0),
			Payload: qdrant.NewValueMap(map[string]any{
				"key":              doc.Key,
				"source_id":        doc.SourceID,
				"document_id":      doc.DocumentID,
				"document_version": doc.DocumentVersion,
			}),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.docsCollection,
		Points:         points,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert document records", "count", len(docs), "error", err)
		return fmt.Errorf("failed to upsert document records: %w", err)
	}
	return nil
}

// DeleteDocumentsByKeys removes document records by their logical keys.
func (s *Store) DeleteDocumentsByKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	ids := make([]*qdrant.PointId, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, qdrant.NewIDUUID(pointIDForKey(key)))
	}
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.docsCollection,
		Points:         qdrant.NewPointsSelector(ids...),
	})
	if err != nil {
		return fmt.Errorf("failed to delete document records: %w", err)
	}
	return nil
}

// UpsertChunks embeds the chunk texts and writes the resulting points into
// the chunks collection.
func (s *Store) UpsertChunks(ctx context.Context, chunks []ingest.IngestedChunk) error {
	logger := contextutil.LoggerFromContext(ctx)
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(vectors))
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for i, chunk := range chunks {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointIDForKey(chunk.Key)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"key":         chunk.Key,
				"document_id": chunk.DocumentID,
				"page_number": chunk.PageNumber,
				"text":        chunk.Text,
				"file_name":   chunk.FileName,
				"file_path":   chunk.FilePath,
			}),
		})
	}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.chunksCollection,
		Points:         points,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert chunks", "count", len(chunks), "error", err)
		return fmt.Errorf("failed to upsert chunks: %w", err)
	}
	logger.DebugContext(ctx, "upserted chunks", "count", len(chunks))
	return nil
}

// DeleteChunksByDocument removes every chunk belonging to one document.
func (s *Store) DeleteChunksByDocument(ctx context.Context, documentID string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.chunksCollection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{qdrant.NewMatch("document_id", documentID)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete chunks for document %s: %w", documentID, err)
	}
	return nil
}

// SearchChunks performs a similarity search over the chunks collection.
func (s *Store) SearchChunks(ctx context.Context, query []float32, k int) ([]ScoredChunk, error) {
	logger := contextutil.LoggerFromContext(ctx)
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	limit := uint64(k)
	scored, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.chunksCollection,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to search chunks", "k", k, "error", err)
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	results := make([]ScoredChunk, 0, len(scored))
	for _, point := range scored {
		meta := convertPayloadToMap(point.Payload)
		results = append(results, ScoredChunk{
			Chunk: ingest.IngestedChunk{
				Key:        stringValue(meta, "key"),
				DocumentID: stringValue(meta, "document_id"),
				PageNumber: intValue(meta, "page_number"),
				Text:       stringValue(meta, "text"),
				FileName:   stringValue(meta, "file_name"),
				FilePath:   stringValue(meta, "file_path"),
			},
			Score: point.Score,
		})
	}
	logger.DebugContext(ctx, "chunk search completed", "k", k, "results", len(results))
	return results, nil
}

// pointIDForKey maps a logical record key to a Qdrant point ID. Qdrant only
// accepts UUIDs or unsigned integers as point IDs, so keys like
// "docx_report_chunk_0" are hashed into a name-based UUID. The mapping is
// deterministic: re-upserting the same key overwrites the same point.
func pointIDForKey(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

func collectionVectorSize(info *qdrant.CollectionInfo) int {
	config := info.GetConfig()
	if config == nil || config.Params == nil {
		return 0
	}
	vectorsConfig := config.Params.GetVectorsConfig()
	if vectorsConfig == nil {
		return 0
	}
	params := vectorsConfig.GetParams()
	if params == nil {
		return 0
	}
	return int(params.Size)
}

func stringValue(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

func intValue(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// convertPayloadToMap converts a Qdrant payload to map[string]any.
func convertPayloadToMap(payload map[string]*qdrant.Value) map[string]any {
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		result[k] = convertValue(v)
	}
	return result
}

// convertValue converts a Qdrant Value to a plain Go value.
func convertValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			list[i] = convertValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return convertPayloadToMap(val.StructValue.Fields)
	default:
		return nil
	}
}
