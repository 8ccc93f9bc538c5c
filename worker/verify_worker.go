package worker

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"lookingup/models"
	"lookingup/utils"
	"lookingup/verifier"
)

// BulkJob is one queued bulk-verification request. Emails are carried
// in memory; only results are persisted.
type BulkJob struct {
	JobID    uint
	UserID   uint
	APIKeyID uint
	Emails   []string
	Options  verifier.Options
}

// Progress is one update pushed to websocket subscribers.
type Progress struct {
	JobID     uint   `json:"job_id"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
	Status    string `json:"status"`
}

// ProgressHub fans bulk-job progress out to websocket subscribers.
type ProgressHub struct {
	mu   sync.Mutex
	subs map[uint][]chan Progress
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{subs: make(map[uint][]chan Progress)}
}

// Subscribe registers for a job's updates; the returned cancel func
// must be called when the subscriber goes away.
func (h *ProgressHub) Subscribe(jobID uint) (<-chan Progress, func()) {
	ch := make(chan Progress, 16)

	h.mu.Lock()
	h.subs[jobID] = append(h.subs[jobID], ch)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		channels := h.subs[jobID]
		for i, c := range channels {
			if c == ch {
				h.subs[jobID] = append(channels[:i], channels[i+1:]...)
				break
			}
		}
	}
	return ch, cancel
}

// Publish sends an update without blocking on slow subscribers.
func (h *ProgressHub) Publish(p Progress) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[p.JobID] {
		select {
		case ch <- p:
		default:
		}
	}
}

// BulkProcessor runs bulk verification jobs in the background. Each
// job's addresses are verified strictly one at a time with the caller's
// inter-probe delay; opening parallel conversations against one mail
// exchanger is the signature of abuse, so latency is traded for
// sustainability here.
type BulkProcessor struct {
	DB       *gorm.DB
	Verifier *verifier.Verifier
	Usage    *utils.UsageReporter
	Hub      *ProgressHub
	Logger   *logrus.Entry

	jobs chan BulkJob
}

func NewBulkProcessor(db *gorm.DB, v *verifier.Verifier, usage *utils.UsageReporter, hub *ProgressHub, logger *logrus.Entry) *BulkProcessor {
	return &BulkProcessor{
		DB:       db,
		Verifier: v,
		Usage:    usage,
		Hub:      hub,
		Logger:   logger,
		jobs:     make(chan BulkJob, 64),
	}
}

// Submit queues a job. It reports whether the queue accepted it.
func (bp *BulkProcessor) Submit(job BulkJob) bool {
	select {
	case bp.jobs <- job:
		return true
	default:
		return false
	}
}

// Start consumes jobs until ctx is cancelled. An in-flight address runs
// to completion or timeout before the job can stop; addresses already
// verified are always persisted.
func (bp *BulkProcessor) Start(ctx context.Context) {
	bp.Logger.Info("bulk verification worker started")
	for {
		select {
		case <-ctx.Done():
			bp.Logger.Info("bulk verification worker shutting down")
			return
		case job := <-bp.jobs:
			bp.process(ctx, job)
		}
	}
}

func (bp *BulkProcessor) process(ctx context.Context, job BulkJob) {
	log := bp.Logger.WithFields(logrus.Fields{"job_id": job.JobID, "emails": len(job.Emails)})
	log.Info("processing bulk verification")

	startedAt := time.Now()
	if err := bp.DB.Model(&models.EmailVerification{}).Where("id = ?", job.JobID).
		Updates(map[string]interface{}{"status": "processing", "started_at": &startedAt}).Error; err != nil {
		log.WithError(err).Error("failed to mark job processing")
	}

	var valid, invalid, risky, unknown, processed int
	interrupted := false

	for i, email := range job.Emails {
		if i > 0 && job.Options.Delay > 0 {
			select {
			case <-ctx.Done():
				interrupted = true
			case <-time.After(job.Options.Delay):
			}
		} else if ctx.Err() != nil {
			interrupted = true
		}
		if interrupted {
			break
		}

		result := bp.Verifier.Verify(ctx, email, job.Options)

		switch result.Status {
		case verifier.StatusValid:
			valid++
		case verifier.StatusInvalid:
			invalid++
		case verifier.StatusRisky:
			risky++
		default:
			unknown++
		}
		processed++

		row := models.NewVerificationResult(job.JobID, result)
		if err := bp.DB.Create(&row).Error; err != nil {
			log.WithError(err).WithField("email", result.Email).Error("failed to persist result")
		}

		bp.Hub.Publish(Progress{
			JobID:     job.JobID,
			Processed: processed,
			Total:     len(job.Emails),
			Status:    "processing",
		})
	}

	status := "completed"
	if interrupted {
		status = "interrupted"
	}
	completedAt := time.Now()

	err := bp.DB.Model(&models.EmailVerification{}).Where("id = ?", job.JobID).
		Updates(map[string]interface{}{
			"status":          status,
			"processed_count": processed,
			"valid_count":     valid,
			"invalid_count":   invalid,
			"risky_count":     risky,
			"unknown_count":   unknown,
			"completed_at":    &completedAt,
		}).Error
	if err != nil {
		log.WithError(err).Error("failed to finalize job")
	}

	bp.Hub.Publish(Progress{
		JobID:     job.JobID,
		Processed: processed,
		Total:     len(job.Emails),
		Status:    status,
	})

	if processed > 0 {
		bp.Usage.Report(job.UserID, job.APIKeyID, "bulk_verify", processed)
	}
	log.WithField("status", status).Info("bulk verification finished")
}
