package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/StefanBrandt/FotoFix/app/controllers"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// Webhooks bypass the rate limiter; the provider controls the retry
	// cadence and dropped deliveries delay reconciliation.
	app.Post("/api/webhooks/stripe", controllers.HandleStripeWebhook)

	api := app.Group("/api", limiter.New())
	api.Get("/ping", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "pong",
		})
	})

	api.Post("/images", controllers.HandleUploadPhotos)
	api.Get("/images/:id/status", controllers.HandleJobStatus)
	api.Post("/images/:id/redo", controllers.HandleRedo)
	api.Get("/images/:id/preview", controllers.HandlePreview)
	api.Get("/images/:id/download", controllers.HandleDownload)

	api.Get("/enhancement-options", controllers.HandleEnhancementOptions)

	api.Post("/checkout", controllers.HandleCreateCheckout)
	api.Post("/checkout/verify", controllers.HandleVerifyCheckout)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
