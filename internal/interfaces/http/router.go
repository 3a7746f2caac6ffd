package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/swaggo/swag"

	appcount "github.com/jhoicas/lotes-remision/internal/application/count"
	"github.com/jhoicas/lotes-remision/internal/application/remision"
	"github.com/jhoicas/lotes-remision/internal/application/scan"
	"github.com/jhoicas/lotes-remision/internal/application/spreadsheet"
	"github.com/jhoicas/lotes-remision/internal/application/usecase"
	"github.com/jhoicas/lotes-remision/internal/domain/entity"
	"github.com/jhoicas/lotes-remision/internal/infrastructure/metrics"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC     *usecase.ProductUseCase
	LotUC         *usecase.LotUseCase
	SpreadsheetUC *spreadsheet.UseCase
	CartUC        *remision.CartUseCase
	ShipmentUC    *remision.ShipmentUseCase
	ScanUC        *scan.UseCase
	CountUC       *appcount.UseCase
	Metrics       *metrics.Recorder // opcional
	AppName       string
	JWTSecret     string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		app.Use(deps.Metrics.Middleware())
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})
	app.Get("/openapi.json", func(c *fiber.Ctx) error {
		doc, err := swag.ReadDoc()
		if err != nil {
			return fail(c, fiber.StatusNotFound, "NOT_FOUND", "documentación no registrada")
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(doc)
	})

	// Todas las rutas de /api requieren Bearer Token
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	adminOnly := RequireRole(entity.RoleAdmin)

	productHandler := NewProductHandler(deps.ProductUC)
	lotHandler := NewLotHandler(deps.LotUC)
	sheetHandler := NewSpreadsheetHandler(deps.SpreadsheetUC)
	cartHandler := NewCartHandler(deps.CartUC)

	products := api.Group("/products")
	products.Get("/", productHandler.List)
	products.Post("/", productHandler.Create)
	products.Get("/low-stock", productHandler.ListLowStock)
	products.Get("/export", sheetHandler.ExportProducts)
	products.Post("/import", sheetHandler.ImportProducts)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", adminOnly, productHandler.Delete)
	products.Put("/:id/image", productHandler.UploadImage)
	products.Get("/:id/image", productHandler.GetImage)
	products.Get("/:id/lots", lotHandler.ListByProduct)
	products.Get("/:id/allocation", cartHandler.Allocation)

	lots := api.Group("/lots")
	lots.Post("/", lotHandler.Add)
	lots.Post("/import", sheetHandler.ImportLots)
	lots.Put("/:id", lotHandler.SetQuantity)
	lots.Delete("/:id", adminOnly, lotHandler.Delete)

	cart := api.Group("/cart")
	cart.Get("/", cartHandler.List)
	cart.Post("/", cartHandler.Reserve)
	cart.Post("/confirm", cartHandler.Confirm)
	cart.Delete("/:id", cartHandler.Release)

	shipmentHandler := NewShipmentHandler(deps.ShipmentUC)
	shipments := api.Group("/shipments")
	shipments.Get("/", shipmentHandler.List)
	shipments.Get("/:id", shipmentHandler.Get)
	shipments.Get("/:id/pdf", shipmentHandler.PDF)
	shipments.Post("/:id/delivery-signature", shipmentHandler.SignDelivery)
	shipments.Post("/:id/receipt-signature", shipmentHandler.SignReceipt)

	scanHandler := NewScanHandler(deps.ScanUC)
	scanGroup := api.Group("/scan")
	scanGroup.Post("/decode", scanHandler.Decode)
	scanGroup.Post("/increment", scanHandler.Increment)

	countHandler := NewCountHandler(deps.CountUC)
	counts := api.Group("/counts")
	counts.Post("/", countHandler.Start)
	counts.Post("/apply", countHandler.Apply)
	counts.Get("/:session", countHandler.Status)
	counts.Delete("/:session", countHandler.Discard)
	counts.Post("/:session/codes", countHandler.Tally)
	counts.Post("/:session/finalize", countHandler.Finalize)
}
