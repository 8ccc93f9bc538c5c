package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"lookingup/models"
	"lookingup/utils"
)

// Daily operation allowances per subscription tier.
var planDailyLimits = map[string]int{
	"free":     100,
	"standard": 2000,
	"pro":      20000,
}

type UsageController struct {
	DB     *gorm.DB
	Logger *logrus.Entry
}

func NewUsageController(db *gorm.DB, logger *logrus.Entry) *UsageController {
	return &UsageController{DB: db, Logger: logger}
}

// GetUsage reports today's consumption against the caller's plan limit.
func (uc *UsageController) GetUsage(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	var usage models.DailyUsage
	err := uc.DB.Where("user_id = ? AND date = ?", user.ID, today).First(&usage).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		uc.Logger.WithError(err).Error("failed to load daily usage")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load usage", err)
	}

	plan := "free"
	if user.Subscription != nil {
		plan = user.Subscription.PlanType
	}
	limit := planDailyLimits[plan]

	remaining := limit - usage.TotalCount
	if remaining < 0 {
		remaining = 0
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"plan":         plan,
		"date":         today.Format("2006-01-02"),
		"verify_count": usage.VerifyCount,
		"find_count":   usage.FindCount,
		"total_count":  usage.TotalCount,
		"daily_limit":  limit,
		"remaining":    remaining,
	}))
}
