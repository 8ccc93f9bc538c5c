package models

import (
	"strconv"
	"time"

	"gorm.io/gorm"

	"lookingup/verifier"
)

// EmailVerification represents one bulk verification job.
type EmailVerification struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	Name        string     `json:"name"`
	Status      string     `gorm:"default:'pending'" json:"status"` // pending, processing, completed, interrupted
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`

	TotalCount     int `gorm:"default:0" json:"total_count"`
	ProcessedCount int `gorm:"default:0" json:"processed_count"`
	ValidCount     int `gorm:"default:0" json:"valid_count"`
	InvalidCount   int `gorm:"default:0" json:"invalid_count"`
	RiskyCount     int `gorm:"default:0" json:"risky_count"`
	UnknownCount   int `gorm:"default:0" json:"unknown_count"`

	VerificationResults []VerificationResult `gorm:"foreignKey:VerificationID" json:"results,omitempty"`
}

// VerificationResult stores one address's verification outcome. The
// columns mirror the engine's flat row shape so rows export directly
// to CSV.
type VerificationResult struct {
	gorm.Model
	VerificationID uint `gorm:"not null;index" json:"verification_id"`

	Email           string `gorm:"not null" json:"email"`
	Status          string `gorm:"not null" json:"status"`
	ConfidenceScore int    `gorm:"default:0" json:"confidence_score"`
	Deliverable     bool   `gorm:"default:false" json:"deliverable"`

	SyntaxValid    bool   `json:"syntax_valid"`
	DomainExists   bool   `json:"domain_exists"`
	MXRecordsExist bool   `json:"mx_records_exist"`
	SMTPVerified   string `gorm:"size:8" json:"smtp_verified"` // true, false, unknown
	IsCatchAll     string `gorm:"size:8" json:"is_catch_all"`  // true, false, unknown
	IsDisposable   bool   `json:"is_disposable"`
	IsRoleBased    bool   `json:"is_role_based"`
	IsFreeProvider bool   `json:"is_free_provider"`

	// JSON-encoded string lists, kept flat for tabular export.
	MXRecords string `gorm:"type:text" json:"mx_records"`
	Details   string `gorm:"type:text" json:"details"`
}

// NewVerificationResult flattens an engine result into a storable row.
func NewVerificationResult(verificationID uint, r *verifier.Result) VerificationResult {
	row := r.Row()
	return VerificationResult{
		VerificationID:  verificationID,
		Email:           r.Email,
		Status:          string(r.Status),
		ConfidenceScore: r.ConfidenceScore,
		Deliverable:     r.Deliverable,
		SyntaxValid:     r.SyntaxValid,
		DomainExists:    r.DomainExists,
		MXRecordsExist:  r.MXRecordsExist,
		SMTPVerified:    r.SMTPVerified.String(),
		IsCatchAll:      r.IsCatchAll.String(),
		IsDisposable:    r.IsDisposable,
		IsRoleBased:     r.IsRoleBased,
		IsFreeProvider:  r.IsFreeProvider,
		MXRecords:       row[12],
		Details:         row[13],
	}
}

// Row rebuilds the engine's flat export row from the stored columns.
func (vr *VerificationResult) Row() []string {
	return []string{
		vr.Email,
		vr.Status,
		strconv.Itoa(vr.ConfidenceScore),
		strconv.FormatBool(vr.Deliverable),
		strconv.FormatBool(vr.SyntaxValid),
		strconv.FormatBool(vr.DomainExists),
		strconv.FormatBool(vr.MXRecordsExist),
		vr.SMTPVerified,
		vr.IsCatchAll,
		strconv.FormatBool(vr.IsDisposable),
		strconv.FormatBool(vr.IsRoleBased),
		strconv.FormatBool(vr.IsFreeProvider),
		vr.MXRecords,
		vr.Details,
	}
}

// UsageLog records one completed operation: exactly one row per
// verify/bulk/find call, for the quota collaborator to consume.
type UsageLog struct {
	gorm.Model
	UserID        uint   `gorm:"not null;index" json:"user_id"`
	APIKeyID      uint   `gorm:"index" json:"api_key_id"`
	OperationType string `gorm:"not null" json:"operation_type"` // verify, bulk_verify, find
	EmailCount    int    `gorm:"default:1" json:"email_count"`
	Success       bool   `gorm:"default:true" json:"success"`
}

// DailyUsage aggregates per-user counts for the current day.
type DailyUsage struct {
	gorm.Model
	UserID uint      `gorm:"not null;index:idx_daily_usage_user_date,unique" json:"user_id"`
	Date   time.Time `gorm:"type:date;index:idx_daily_usage_user_date,unique" json:"date"`

	VerifyCount int `gorm:"default:0" json:"verify_count"`
	FindCount   int `gorm:"default:0" json:"find_count"`
	TotalCount  int `gorm:"default:0" json:"total_count"`
}
