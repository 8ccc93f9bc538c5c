package utils

import (
	"encoding/json"
	"time"

	"github.com/nsqio/go-nsq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lookingup/models"
)

const usageTopic = "usage-events"

// UsageEvent is the message published for the quota/billing
// collaborator: one event per completed operation.
type UsageEvent struct {
	UserID     uint      `json:"user_id"`
	APIKeyID   uint      `json:"api_key_id"`
	Operation  string    `json:"operation"`
	EmailCount int       `json:"email_count"`
	OccurredAt time.Time `json:"occurred_at"`
}

// UsageReporter records completed work: a usage_logs row plus the
// daily aggregate, and optionally a message on NSQ when a producer is
// configured. The engine itself never meters; this is the reporting
// boundary around it.
type UsageReporter struct {
	db       *gorm.DB
	producer *nsq.Producer
	log      *logrus.Entry
}

// NewUsageReporter wires the reporter. nsqdAddr may be empty, in which
// case events are only persisted.
func NewUsageReporter(db *gorm.DB, nsqdAddr string, log *logrus.Entry) (*UsageReporter, error) {
	reporter := &UsageReporter{db: db, log: log}

	if nsqdAddr != "" {
		producer, err := nsq.NewProducer(nsqdAddr, nsq.NewConfig())
		if err != nil {
			return nil, err
		}
		reporter.producer = producer
	}

	return reporter, nil
}

// Report records exactly one usage event for a completed operation.
// Reporting failures are logged, never surfaced: metering must not
// break a verification that already happened.
func (ur *UsageReporter) Report(userID, apiKeyID uint, operation string, emailCount int) {
	err := ur.db.Transaction(func(tx *gorm.DB) error {
		entry := models.UsageLog{
			UserID:        userID,
			APIKeyID:      apiKeyID,
			OperationType: operation,
			EmailCount:    emailCount,
			Success:       true,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return ur.incrementDaily(tx, userID, operation, emailCount)
	})
	if err != nil {
		ur.log.WithError(err).WithFields(logrus.Fields{
			"user_id":   userID,
			"operation": operation,
		}).Error("failed to record usage")
		return
	}

	ur.publish(userID, apiKeyID, operation, emailCount)
}

func (ur *UsageReporter) incrementDaily(tx *gorm.DB, userID uint, operation string, emailCount int) error {
	today := time.Now().UTC().Truncate(24 * time.Hour)

	verifyDelta, findDelta := emailCount, 0
	if operation == "find" {
		verifyDelta, findDelta = 0, emailCount
	}

	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"verify_count": gorm.Expr("daily_usages.verify_count + ?", verifyDelta),
			"find_count":   gorm.Expr("daily_usages.find_count + ?", findDelta),
			"total_count":  gorm.Expr("daily_usages.total_count + ?", emailCount),
		}),
	}).Create(&models.DailyUsage{
		UserID:      userID,
		Date:        today,
		VerifyCount: verifyDelta,
		FindCount:   findDelta,
		TotalCount:  emailCount,
	}).Error
}

func (ur *UsageReporter) publish(userID, apiKeyID uint, operation string, emailCount int) {
	if ur.producer == nil {
		return
	}

	event := UsageEvent{
		UserID:     userID,
		APIKeyID:   apiKeyID,
		Operation:  operation,
		EmailCount: emailCount,
		OccurredAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		ur.log.WithError(err).Error("failed to encode usage event")
		return
	}
	if err := ur.producer.Publish(usageTopic, payload); err != nil {
		ur.log.WithError(err).Error("failed to publish usage event")
	}
}

// Stop flushes and closes the NSQ producer, if any.
func (ur *UsageReporter) Stop() {
	if ur.producer != nil {
		ur.producer.Stop()
	}
}
