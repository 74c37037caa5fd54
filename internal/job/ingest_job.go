package job

import (
	"context"

	"github.com/xxxsen/newsdigest/internal/service"
)

// IngestJob binds the ingestion pipeline to the scheduler. Overlap
// suppression lives in the scheduler wrapper, so a slow cycle is skipped
// rather than stacked.
type IngestJob struct {
	ingest *service.IngestService
}

func NewIngestJob(ingest *service.IngestService) *IngestJob {
	return &IngestJob{ingest: ingest}
}

func (j *IngestJob) Name() string {
	return "article_ingest"
}

func (j *IngestJob) Run(ctx context.Context) error {
	return j.ingest.RunCycle(ctx)
}
