package pinecone

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mediabridge/mediabridge-backend/internal/logger"
	"github.com/mediabridge/mediabridge-backend/internal/utils"
)

// VectorStore is the media-vector surface the services use. Vector IDs are
// media item UUIDs; metadata carries enough fields to rebuild a catalog row
// without touching Postgres.
type VectorStore interface {
	Upsert(ctx context.Context, vectors []Vector) error
	QueryMatches(ctx context.Context, vector []float32, topK int, filter map[string]any) ([]QueryMatch, error)
}

type vectorStore struct {
	log       *logger.Logger
	client    Client
	host      string
	namespace string
}

// NewVectorStore resolves the index host, from PINECONE_INDEX_HOST when set,
// otherwise via a control-plane describe of PINECONE_INDEX_NAME.
func NewVectorStore(log *logger.Logger, c Client) (VectorStore, error) {
	storeLog := log.With("client", "PineconeVectorStore")

	host := strings.TrimSpace(os.Getenv("PINECONE_INDEX_HOST"))
	if host == "" {
		indexName := utils.GetEnv("PINECONE_INDEX_NAME", "media-items", log)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		desc, err := c.DescribeIndex(ctx, indexName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve index host: %w", err)
		}
		host = desc.Host
		storeLog.Info("Resolved Pinecone index host", "index", indexName, "host", host)
	}

	namespace := utils.GetEnv("PINECONE_NAMESPACE", "media", log)

	return &vectorStore{
		log:       storeLog,
		client:    c,
		host:      host,
		namespace: namespace,
	}, nil
}

func (vs *vectorStore) Upsert(ctx context.Context, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	_, err := vs.client.UpsertVectors(ctx, vs.host, UpsertRequest{
		Vectors:   vectors,
		Namespace: vs.namespace,
	})
	if err != nil {
		return fmt.Errorf("vector upsert failed: %w", err)
	}
	return nil
}

func (vs *vectorStore) QueryMatches(ctx context.Context, vector []float32, topK int, filter map[string]any) ([]QueryMatch, error) {
	resp, err := vs.client.Query(ctx, vs.host, QueryRequest{
		Namespace:       vs.namespace,
		Vector:          vector,
		TopK:            topK,
		Filter:          filter,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}
	return resp.Matches, nil
}
