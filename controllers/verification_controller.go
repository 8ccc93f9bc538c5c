package controllers

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/likexian/whois"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"lookingup/config"
	"lookingup/models"
	"lookingup/utils"
	"lookingup/verifier"
	"lookingup/worker"
)

const maxBulkEmails = 1000

// Engine is the verification core the handlers drive.
type Engine interface {
	Verify(ctx context.Context, email string, opts verifier.Options) *verifier.Result
	Find(ctx context.Context, firstName, lastName, domain string, opts verifier.Options) *verifier.FindResult
}

// UsageRecorder records one completed operation for quota accounting.
type UsageRecorder interface {
	Report(userID, apiKeyID uint, operation string, emailCount int)
}

type VerificationController struct {
	DB        *gorm.DB
	Verifier  Engine
	Usage     UsageRecorder
	Processor *worker.BulkProcessor
	Hub       *worker.ProgressHub
	Logger    *logrus.Entry
}

func NewVerificationController(db *gorm.DB, v Engine, usage UsageRecorder, processor *worker.BulkProcessor, hub *worker.ProgressHub, logger *logrus.Entry) *VerificationController {
	return &VerificationController{
		DB:        db,
		Verifier:  v,
		Usage:     usage,
		Processor: processor,
		Hub:       hub,
		Logger:    logger,
	}
}

type VerifyRequest struct {
	Email         string `json:"email" validate:"required,email"`
	CheckSMTP     *bool  `json:"check_smtp"`
	CheckCatchAll *bool  `json:"check_catch_all"`
	IncludeWhois  bool   `json:"include_whois"`
}

type BulkVerifyRequest struct {
	Name          string   `json:"name"`
	Emails        []string `json:"emails" validate:"required,min=1,dive,required"`
	CheckSMTP     *bool    `json:"check_smtp"`
	CheckCatchAll *bool    `json:"check_catch_all"`
}

// requestOptions builds the engine options for one call: probe pacing
// from the caller's plan tier, with per-request overrides for the SMTP
// and catch-all stages.
func requestOptions(plan string, checkSMTP, checkCatchAll *bool) verifier.Options {
	opts := verifier.DefaultOptions()
	opts.Delay = config.AppConfig.ProbeDelayForPlan(plan)
	if checkSMTP != nil {
		opts.CheckSMTP = *checkSMTP
	}
	if checkCatchAll != nil {
		opts.CheckCatchAll = *checkCatchAll
	}
	return opts
}

// VerifyEmail verifies a single address synchronously.
func (vc *VerificationController) VerifyEmail(c *fiber.Ctx) error {
	var req VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	user := c.Locals("user").(*models.User)
	apiKey := c.Locals("apiKey").(*models.APIKey)

	opts := requestOptions(user.Subscription.PlanType, req.CheckSMTP, req.CheckCatchAll)

	ctx, cancel := context.WithTimeout(c.Context(), 60*time.Second)
	defer cancel()

	result := vc.Verifier.Verify(ctx, req.Email, opts)
	vc.Usage.Report(user.ID, apiKey.ID, "verify", 1)

	payload := fiber.Map{"result": result}
	if req.IncludeWhois && result.DomainExists {
		if at := strings.LastIndex(result.Email, "@"); at >= 0 {
			payload["whois"] = vc.domainWhois(result.Email[at+1:])
		}
	}
	return c.JSON(utils.SuccessResponse(payload))
}

// domainWhois returns a trimmed registration summary. WHOIS is best
// effort; registries rate limit aggressively and failures are not an
// error worth surfacing.
func (vc *VerificationController) domainWhois(domain string) fiber.Map {
	raw, err := whois.Whois(domain)
	if err != nil {
		vc.Logger.WithError(err).WithField("domain", domain).Debug("whois lookup failed")
		return fiber.Map{"available": false}
	}
	summary := fiber.Map{"available": true}
	for _, line := range strings.Split(raw, "\n") {
		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "creation date:"):
			summary["created"] = strings.TrimSpace(line[strings.Index(line, ":")+1:])
		case strings.Contains(lower, "registrar:") && summary["registrar"] == nil:
			summary["registrar"] = strings.TrimSpace(line[strings.Index(line, ":")+1:])
		case strings.Contains(lower, "registry expiry date:"):
			summary["expires"] = strings.TrimSpace(line[strings.Index(line, ":")+1:])
		}
	}
	return summary
}

// BulkVerify queues a list of addresses for background verification.
func (vc *VerificationController) BulkVerify(c *fiber.Ctx) error {
	var req BulkVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	if len(req.Emails) > maxBulkEmails {
		return utils.ErrorResponse(c, fiber.StatusBadRequest,
			fmt.Sprintf("Too many emails, limit is %d per request", maxBulkEmails), nil)
	}

	user := c.Locals("user").(*models.User)
	apiKey := c.Locals("apiKey").(*models.APIKey)

	name := req.Name
	if name == "" {
		name = fmt.Sprintf("Bulk verification %s", time.Now().Format("2006-01-02 15:04"))
	}

	job := models.EmailVerification{
		UserID:     user.ID,
		Name:       name,
		Status:     "pending",
		TotalCount: len(req.Emails),
	}
	if err := vc.DB.Create(&job).Error; err != nil {
		vc.Logger.WithError(err).Error("failed to create verification job")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create verification job", err)
	}

	opts := requestOptions(user.Subscription.PlanType, req.CheckSMTP, req.CheckCatchAll)

	accepted := vc.Processor.Submit(worker.BulkJob{
		JobID:    job.ID,
		UserID:   user.ID,
		APIKeyID: apiKey.ID,
		Emails:   req.Emails,
		Options:  opts,
	})
	if !accepted {
		vc.DB.Model(&job).Update("status", "interrupted")
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Verification queue is full, try again later", nil)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"verification_id": job.ID,
			"status":          job.Status,
			"total":           job.TotalCount,
		},
	})
}

// GetVerificationResults returns a job's status, counters and rows.
func (vc *VerificationController) GetVerificationResults(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid verification ID", nil)
	}
	user := c.Locals("user").(*models.User)

	var job models.EmailVerification
	if err := vc.DB.Preload("VerificationResults").
		Where("id = ? AND user_id = ?", id, user.ID).First(&job).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Verification not found", nil)
		}
		vc.Logger.WithError(err).Error("failed to load verification")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load verification", err)
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{"verification": job}))
}

// ExportVerificationResults streams a job's results as CSV.
func (vc *VerificationController) ExportVerificationResults(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid verification ID", nil)
	}
	user := c.Locals("user").(*models.User)

	var job models.EmailVerification
	if err := vc.DB.Preload("VerificationResults").
		Where("id = ? AND user_id = ?", id, user.ID).First(&job).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Verification not found", nil)
		}
		vc.Logger.WithError(err).Error("failed to load verification")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load verification", err)
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(verifier.RowHeader()); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to build export", err)
	}
	for i := range job.VerificationResults {
		if err := w.Write(job.VerificationResults[i].Row()); err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to build export", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to build export", err)
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="verification-%d.csv"`, job.ID))
	return c.SendString(sb.String())
}

// VerifyProgressWS streams progress updates for a bulk job over a
// websocket. The client sends the numeric job ID as its first text
// message, then receives JSON Progress frames until the job finishes.
func (vc *VerificationController) VerifyProgressWS() func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var jobID uint
		if _, err := fmt.Sscanf(strings.TrimSpace(string(msg)), "%d", &jobID); err != nil || jobID == 0 {
			conn.WriteJSON(fiber.Map{"error": "expected a verification ID"})
			return
		}

		var job models.EmailVerification
		if err := vc.DB.First(&job, jobID).Error; err != nil {
			conn.WriteJSON(fiber.Map{"error": "verification not found"})
			return
		}

		updates, cancel := vc.Hub.Subscribe(jobID)
		defer cancel()

		// Snapshot first so late subscribers see current state.
		if err := conn.WriteJSON(worker.Progress{
			JobID:     job.ID,
			Processed: job.ProcessedCount,
			Total:     job.TotalCount,
			Status:    job.Status,
		}); err != nil {
			return
		}
		if job.Status == "completed" || job.Status == "interrupted" {
			return
		}

		for p := range updates {
			if err := conn.WriteJSON(p); err != nil {
				return
			}
			if p.Status == "completed" || p.Status == "interrupted" {
				return
			}
		}
	}
}
