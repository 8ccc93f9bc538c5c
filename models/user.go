package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an account holder. Account management itself lives outside
// this service; users exist here so API keys, subscriptions and usage
// rows have an owner.
type User struct {
	gorm.Model
	Email string `gorm:"uniqueIndex;not null" json:"email"`
	Name  string `json:"name"`

	APIKeys      []APIKey      `json:"-"`
	Subscription *Subscription `json:"subscription,omitempty"`
}

// APIKey authenticates programmatic access. Only the SHA-256 hash of
// the key is stored; the plaintext is shown once at issuance time by
// the account service.
type APIKey struct {
	gorm.Model
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	Name       string     `json:"name"`
	Prefix     string     `gorm:"size:12" json:"prefix"`
	KeyHash    string     `gorm:"size:64;uniqueIndex;not null" json:"-"`
	IsActive   bool       `gorm:"default:true" json:"is_active"`
	LastUsedAt *time.Time `json:"last_used_at"`

	User User `json:"-"`
}

// Subscription mirrors the billing collaborator's state. This service
// only reads it to gate API access and pick the probe pacing tier.
type Subscription struct {
	gorm.Model
	UserID   uint   `gorm:"not null;uniqueIndex" json:"user_id"`
	PlanType string `gorm:"default:'free'" json:"plan_type"` // free, standard, pro
	Status   string `gorm:"default:'active'" json:"status"`  // active, trial, past_due, cancelled
}

// Active reports whether the subscription currently grants access.
func (s *Subscription) Active() bool {
	return s.Status == "active" || s.Status == "trial"
}
