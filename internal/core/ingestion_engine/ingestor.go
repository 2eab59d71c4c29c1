package ingestion_engine

import "context"

type Ingestor interface {
	IngestAndGenerate(ctx context.Context, req IngestRequest) (*IngestResult, error)
	IngestFile(ctx context.Context, req FileIngestRequest) (*IngestResult, error)
}

var _ Ingestor = (*DocumentIngestor)(nil)
