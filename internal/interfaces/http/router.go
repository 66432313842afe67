package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/materiales-api/internal/application/auth"
	"github.com/jhoicas/materiales-api/internal/application/catalog"
	"github.com/jhoicas/materiales-api/internal/application/inventory"
	"github.com/jhoicas/materiales-api/internal/application/project"
	"github.com/jhoicas/materiales-api/internal/application/report"
	"github.com/jhoicas/materiales-api/internal/application/request"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/infrastructure/metrics"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC           *auth.AuthUseCase
	CategoryUC       *catalog.CategoryUseCase
	SupplierUC       *catalog.SupplierUseCase
	Ledger           *catalog.ProductLedger
	RegisterMovement *inventory.RegisterMovementUseCase
	MovementQuery    *inventory.MovementQueryUseCase
	Replenishment    *inventory.ReplenishmentUseCase
	ProjectUC        *project.UseCase
	RequestUC        *request.UseCase
	ReportUC         *report.DailyReportUseCase
	JWTSecret        string
	Log              *logger.Logger
	Metrics          *metrics.Metrics // opcional: expone /metrics
	FilesPrefix      string           // opcional: sirve archivos del driver local
	FilesDir         string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	errs := errorMapper{log: log}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", deps.Metrics.Handler())
	}
	if deps.FilesPrefix != "" && deps.FilesDir != "" {
		app.Static(deps.FilesPrefix, deps.FilesDir)
	}

	api := app.Group("/api")
	authMW := AuthMiddleware(deps.JWTSecret)
	admin := RequireRole(entity.RoleAdmin)
	warehouse := RequireRole(entity.RoleAdmin, entity.RoleBodeguero)
	site := RequireRole(entity.RoleAdmin, entity.RoleResidente)

	// Auth: login público; el alta de usuarios la hace un admin
	authHandler := NewAuthHandler(deps.AuthUC, errs)
	api.Post("/auth/login", authHandler.Login)
	api.Post("/auth/register", authMW, admin, authHandler.Register)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("", authMW)

	// Catálogo
	catalogHandler := NewCatalogHandler(deps.CategoryUC, deps.SupplierUC, errs)
	protected.Get("/categories", catalogHandler.ListCategories)
	protected.Post("/categories", admin, catalogHandler.CreateCategory)
	protected.Get("/suppliers", catalogHandler.ListSuppliers)
	protected.Post("/suppliers", admin, catalogHandler.CreateSupplier)

	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.Ledger, errs)
	products.Get("/", productHandler.List)
	products.Post("/", admin, productHandler.Create)
	products.Post("/bulk", admin, productHandler.BulkCreate)
	products.Get("/:id/price-history", productHandler.PriceHistory)
	products.Get("/:code", productHandler.GetByCode)
	products.Patch("/:id", admin, productHandler.Update)

	// Inventario
	inv := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.RegisterMovement, deps.MovementQuery, deps.Replenishment, errs)
	inv.Post("/movements", warehouse, inventoryHandler.RegisterMovement)
	inv.Get("/movements", inventoryHandler.ListMovements)
	inv.Get("/movements/:id", inventoryHandler.GetMovement)
	inv.Get("/low-stock", warehouse, inventoryHandler.GetLowStock)

	// Obras
	projects := protected.Group("/projects")
	projectHandler := NewProjectHandler(deps.ProjectUC, errs)
	projects.Get("/", projectHandler.List)
	projects.Post("/", site, projectHandler.Create)
	projects.Get("/:id", projectHandler.Get)
	projects.Patch("/:id/status", site, projectHandler.ChangeStatus)
	projects.Post("/:id/files", site, projectHandler.AddFiles)
	projects.Post("/:id/logs", site, projectHandler.AddLog)

	// Solicitudes de material
	requests := protected.Group("/material-requests")
	requestHandler := NewMaterialRequestHandler(deps.RequestUC, errs)
	requests.Get("/", requestHandler.List)
	requests.Post("/", site, requestHandler.Create)
	requests.Get("/:id", requestHandler.Get)
	requests.Post("/:id/approve", admin, requestHandler.Approve)
	requests.Post("/:id/reject", admin, requestHandler.Reject)
	requests.Post("/:id/fulfil", warehouse, requestHandler.Fulfil)

	// Reportes
	reports := protected.Group("/reports", warehouse)
	reportHandler := NewReportHandler(deps.ReportUC, errs)
	reports.Get("/daily", reportHandler.Daily)
	reports.Get("/daily.pdf", reportHandler.DailyPDF)
}
