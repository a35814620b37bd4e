package purchaseRoutes

import (
	purchaseControllers "lse/controllers/purchase"
	"lse/middleware"
	purchaseValidators "lse/validators/purchase"

	"github.com/gofiber/fiber/v2"
)

func SetupPurchaseRoutes(app *fiber.App) {
	// Provider callback, authenticated by signature rather than JWT.
	app.Post("/webhooks/stripe", purchaseControllers.StripeWebhook)

	purchaseGroup := app.Group("/purchases", middleware.JWTMiddleware)

	purchaseGroup.Get("/", purchaseControllers.ListPurchases)
	purchaseGroup.Get("/mine", purchaseControllers.ListOwnPurchases)
	purchaseGroup.Post("/", purchaseValidators.CreatePurchase(), purchaseControllers.InitiatePurchase)
	purchaseGroup.Get("/:id", purchaseValidators.PurchaseID(), purchaseControllers.GetPurchase)
	purchaseGroup.Put("/:id", purchaseValidators.PurchaseID(), purchaseValidators.AdminUpdatePurchase(), purchaseControllers.AdminUpdatePurchase)
	purchaseGroup.Delete("/:id", purchaseValidators.PurchaseID(), purchaseControllers.DeletePurchase)
}
