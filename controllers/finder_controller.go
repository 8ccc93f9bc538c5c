package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"lookingup/models"
	"lookingup/utils"
)

type FinderController struct {
	DB       *gorm.DB
	Verifier Engine
	Usage    UsageRecorder
	Logger   *logrus.Entry
}

func NewFinderController(db *gorm.DB, v Engine, usage UsageRecorder, logger *logrus.Entry) *FinderController {
	return &FinderController{DB: db, Verifier: v, Usage: usage, Logger: logger}
}

type FindRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Domain    string `json:"domain" validate:"required,fqdn"`
	CheckSMTP *bool  `json:"check_smtp"`
}

// FindEmail guesses and verifies candidate addresses for a person at a
// domain. Up to 26 candidates are probed, so this call can take a while
// on slow mail exchangers.
func (fc *FinderController) FindEmail(c *fiber.Ctx) error {
	var req FindRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	user := c.Locals("user").(*models.User)
	apiKey := c.Locals("apiKey").(*models.APIKey)

	opts := requestOptions(user.Subscription.PlanType, req.CheckSMTP, nil)

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Minute)
	defer cancel()

	found := fc.Verifier.Find(ctx, req.FirstName, req.LastName, req.Domain, opts)

	// One find call is one billable operation, however many candidates
	// it took to settle.
	fc.Usage.Report(user.ID, apiKey.ID, "find", 1)

	if found.Email == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "No likely address found",
			"data":    fiber.Map{"candidates": found.Candidates},
		})
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{
		"email":      found.Email,
		"pattern":    found.Pattern,
		"best":       found.Best,
		"candidates": found.Candidates,
	}))
}
