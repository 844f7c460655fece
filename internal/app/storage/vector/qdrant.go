package vector

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/proto"

	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/logging"
)

// QdrantConfig configures the Qdrant gRPC sink.
type QdrantConfig struct {
	Addr       string
	Collection string
	APIKey     string
}

// DefaultQdrantAddr is the Qdrant gRPC port on localhost.
const DefaultQdrantAddr = "localhost:6334"

// Payload fields written with every point.
const (
	payloadModelKey        = "model_key"
	payloadNativeDimension = "native_dimension"
	payloadSourceID        = "source_id"
	payloadChunkIndex      = "chunk_index"
	payloadText            = "text"
	payloadCreatedAt       = "created_at"
)

// QdrantSink stores standardized vectors as points in one collection whose
// vector size is the target dimension.
type QdrantSink struct {
	conn        *grpc.ClientConn
	points      qdrant.PointsClient
	collections qdrant.CollectionsClient
	collection  string
	apiKey      string
	dimension   int
	logger      logging.Logger
}

// DialQdrant connects over gRPC and ensures the collection exists
func DialQdrant(ctx context.Context, cfg QdrantConfig, dimension int, logger logging.Logger) (*QdrantSink, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = DefaultQdrantAddr
	}
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, apperrors.Wrap(err, "could not connect to Qdrant")
	}

	s, err := NewQdrantSink(qdrant.NewPointsClient(conn), qdrant.NewCollectionsClient(conn), cfg, dimension, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	s.conn = conn

	if err := s.EnsureCollection(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// NewQdrantSink builds a sink over existing clients
func NewQdrantSink(points qdrant.PointsClient, collections qdrant.CollectionsClient, cfg QdrantConfig, dimension int, logger logging.Logger) (*QdrantSink, error) {
	if cfg.Collection == "" {
		return nil, apperrors.RequiredField("sink.qdrant.collection")
	}
	if dimension <= 0 {
		return nil, apperrors.OutOfRange("sink dimension", 1, "any")
	}
	return &QdrantSink{
		points:      points,
		collections: collections,
		collection:  cfg.Collection,
		apiKey:      cfg.APIKey,
		dimension:   dimension,
		logger:      logging.OrNop(logger),
	}, nil
}

func (s *QdrantSink) withAuth(ctx context.Context) context.Context {
	if s.apiKey == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "api-key", s.apiKey)
}

// EnsureCollection creates the collection with cosine distance if missing
func (s *QdrantSink) EnsureCollection(ctx context.Context) error {
	ctx = s.withAuth(ctx)
	if _, err := s.collections.Get(ctx, &qdrant.GetCollectionInfoRequest{CollectionName: s.collection}); err == nil {
		return nil
	}

	s.logger.Infow("Creating Qdrant collection", "collection", s.collection, "dimension", s.dimension)
	_, err := s.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to create collection")
	}
	return nil
}

// Dimension returns the collection vector size
func (s *QdrantSink) Dimension() int { return s.dimension }

// Store upserts rec as one point
func (s *QdrantSink) Store(ctx context.Context, rec Record) (string, error) {
	if err := validateRecord(rec, s.dimension); err != nil {
		return "", err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	} else if _, err := uuid.Parse(rec.ID); err != nil {
		return "", apperrors.InvalidField("record id", "qdrant point ids must be UUIDs")
	}

	point := &qdrant.PointStruct{
		Id:      &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: rec.ID}},
		Vectors: &qdrant.Vectors{VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: rec.Vector}}},
		Payload: recordPayload(rec),
	}

	_, err := s.points.Upsert(s.withAuth(ctx), &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         []*qdrant.PointStruct{point},
		Wait:           proto.Bool(true),
	})
	if err != nil {
		return "", apperrors.Wrap(err, "failed to upsert point to Qdrant")
	}
	return rec.ID, nil
}

func recordPayload(rec Record) map[string]*qdrant.Value {
	str := func(v string) *qdrant.Value {
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
	}
	integer := func(v int) *qdrant.Value {
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(v)}}
	}

	payload := map[string]*qdrant.Value{
		payloadModelKey:        str(rec.ModelKey),
		payloadNativeDimension: integer(rec.NativeDimension),
		payloadSourceID:        str(rec.Chunk.SourceID),
		payloadChunkIndex:      integer(rec.Chunk.ChunkIndex),
	}
	if rec.Chunk.Text != "" {
		payload[payloadText] = str(rec.Chunk.Text)
	}
	if !rec.CreatedAt.IsZero() {
		payload[payloadCreatedAt] = str(rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	}
	for k, v := range rec.Chunk.Attributes {
		if _, reserved := payload[k]; !reserved {
			payload[k] = str(v)
		}
	}
	return payload
}

// Nearest runs a cosine search over the collection
func (s *QdrantSink) Nearest(ctx context.Context, query []float32, limit int) ([]Match, error) {
	if err := validateQuery(query, s.dimension); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	resp, err := s.points.Search(s.withAuth(ctx), &qdrant.SearchPoints{
		CollectionName: s.collection,
		Vector:         query,
		Limit:          uint64(limit),
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to search points in Qdrant")
	}

	matches := make([]Match, 0, len(resp.GetResult()))
	for _, hit := range resp.GetResult() {
		payload := hit.GetPayload()
		m := Match{
			ID:       pointID(hit.GetId()),
			ModelKey: payload[payloadModelKey].GetStringValue(),
			Score:    hit.GetScore(),
			Chunk: ChunkMetadata{
				SourceID:   payload[payloadSourceID].GetStringValue(),
				ChunkIndex: int(payload[payloadChunkIndex].GetIntegerValue()),
				Text:       payload[payloadText].GetStringValue(),
			},
		}
		for k, v := range payload {
			switch k {
			case payloadModelKey, payloadNativeDimension, payloadSourceID, payloadChunkIndex, payloadText, payloadCreatedAt:
				continue
			}
			if m.Chunk.Attributes == nil {
				m.Chunk.Attributes = make(map[string]string)
			}
			m.Chunk.Attributes[k] = v.GetStringValue()
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func pointID(id *qdrant.PointId) string {
	switch v := id.GetPointIdOptions().(type) {
	case *qdrant.PointId_Uuid:
		return v.Uuid
	case *qdrant.PointId_Num:
		return strconv.FormatUint(v.Num, 10)
	}
	return ""
}

// Close closes the gRPC connection
func (s *QdrantSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
