package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"

	"lookingup/controllers"
	"lookingup/middleware"
)

// Setup wires the public health check and the authenticated v1 API.
func Setup(app *fiber.App, db *gorm.DB, vc *controllers.VerificationController, fc *controllers.FinderController, uc *controllers.UsageController) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1",
		logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		}),
		middleware.APIKeyProtected(db),
		middleware.APIRateLimiter(),
	)

	api.Post("/verify", vc.VerifyEmail)
	api.Post("/verify/bulk", vc.BulkVerify)
	api.Get("/verify/results/:id", vc.GetVerificationResults)
	api.Get("/verify/results/:id/export", vc.ExportVerificationResults)

	api.Post("/find", fc.FindEmail)
	api.Get("/usage", uc.GetUsage)

	// Websocket upgrade has to be vetted before the handler runs.
	api.Use("/verify/progress", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/verify/progress", websocket.New(vc.VerifyProgressWS()))
}
