package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"lookingup/models"
)

// APIKeyProtected authenticates requests by the X-API-Key header. Only
// the SHA-256 hash of a key is stored, so the lookup hashes the
// presented key and matches on the digest. The authenticated user and
// key are stored in request locals for downstream handlers.
func APIKeyProtected(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rawKey := c.Get("X-API-Key")
		if rawKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "API key is required",
			})
		}

		digest := sha256.Sum256([]byte(rawKey))
		keyHash := hex.EncodeToString(digest[:])

		var apiKey models.APIKey
		err := db.Preload("User").Preload("User.Subscription").
			Where("key_hash = ? AND is_active = ?", keyHash, true).
			First(&apiKey).Error
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid API key",
			})
		}

		sub := apiKey.User.Subscription
		if sub == nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "No active subscription",
			})
		}
		if sub.PlanType != "standard" && sub.PlanType != "pro" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "API access requires a paid plan",
			})
		}
		if !sub.Active() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Subscription not active",
			})
		}

		now := time.Now()
		if err := db.Model(&apiKey).Update("last_used_at", &now).Error; err != nil {
			logrus.WithError(err).Warn("failed to update API key last_used_at")
		}

		c.Locals("user", &apiKey.User)
		c.Locals("apiKey", &apiKey)
		return c.Next()
	}
}
