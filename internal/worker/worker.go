package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/campusmeet/backend/internal/models"
	"github.com/campusmeet/backend/internal/recordings"
	"github.com/campusmeet/backend/pkg/queue"
	"github.com/campusmeet/backend/pkg/storage"
)

// ArchiveProcessor processes recording archive jobs: download the playback
// from the meeting server, stream it into S3, update the imported row.
type ArchiveProcessor struct {
	recRepo *recordings.Repository
	s3      *storage.S3
	queue   *queue.Queue
	logger  *zap.Logger
}

// NewArchiveProcessor creates a recording archive processor.
func NewArchiveProcessor(recRepo *recordings.Repository, s3 *storage.S3, q *queue.Queue, logger *zap.Logger) *ArchiveProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveProcessor{recRepo: recRepo, s3: s3, queue: q, logger: logger}
}

// Process executes one archive job.
func (p *ArchiveProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeRecordingArchive {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.RecordingArchivePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	rec, err := p.recRepo.GetByRecordID(ctx, payload.RecordID)
	if err != nil || rec == nil {
		return fmt.Errorf("recording not found: %s", payload.RecordID)
	}
	if rec.ArchiveStatus == models.ArchiveStatusCompleted {
		p.logger.Info("recording already archived", zap.String("record_id", rec.RecordID))
		return nil
	}
	if payload.SourceURL == "" {
		if err := p.recRepo.UpdateArchiveStatus(ctx, payload.RecordID, models.ArchiveStatusFailed); err != nil {
			p.logger.Error("update archive status failed", zap.Error(err), zap.String("record_id", payload.RecordID))
		}
		return fmt.Errorf("no playback URL for recording %s", payload.RecordID)
	}

	// Download from the meeting server (streaming)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, payload.SourceURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download status: %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}
	key := storage.RecordingKey(payload.RoomID.String(), payload.RecordID)

	// Stream upload to S3 (no full buffer)
	s3URL, err := p.s3.Upload(ctx, p.s3.RecordingsBucket(), key, contentType, resp.Body, resp.ContentLength)
	if err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}

	if err := p.recRepo.UpdateArchiveResult(ctx, payload.RecordID, s3URL, key); err != nil {
		p.logger.Error("update archive result failed", zap.Error(err), zap.String("record_id", payload.RecordID))
		return fmt.Errorf("update db: %w", err)
	}

	p.logger.Info("recording archive completed", zap.String("record_id", payload.RecordID), zap.String("s3_key", key))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ArchiveProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("archive worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if job.Attempt+1 >= queue.MaxRetries {
				if sErr := p.markFailed(ctx, job); sErr != nil {
					p.logger.Error("mark failed error", zap.Error(sErr))
				}
			}
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}

func (p *ArchiveProcessor) markFailed(ctx context.Context, job *queue.Job) error {
	var payload queue.RecordingArchivePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return err
	}
	return p.recRepo.UpdateArchiveStatus(ctx, payload.RecordID, models.ArchiveStatusFailed)
}
