package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	_ "github.com/jhoicas/materiales-api/docs"
	"github.com/jhoicas/materiales-api/internal/application/auth"
	"github.com/jhoicas/materiales-api/internal/application/catalog"
	"github.com/jhoicas/materiales-api/internal/application/inventory"
	"github.com/jhoicas/materiales-api/internal/application/project"
	"github.com/jhoicas/materiales-api/internal/application/report"
	"github.com/jhoicas/materiales-api/internal/application/request"
	"github.com/jhoicas/materiales-api/internal/infrastructure/cache"
	"github.com/jhoicas/materiales-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/materiales-api/internal/infrastructure/pdf"
	"github.com/jhoicas/materiales-api/internal/infrastructure/postgres"
	"github.com/jhoicas/materiales-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/materiales-api/internal/interfaces/http"
	"github.com/jhoicas/materiales-api/pkg/config"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

// @title        Materiales API
// @version      1.0
// @description  Catálogo, movimientos de inventario, obras, solicitudes de material y reportes.
// @BasePath     /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	applied, err := postgres.Migrate(ctx, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}
	if len(applied) > 0 {
		log.Info().Strs("migraciones", applied).Msg("esquema actualizado")
	}

	userRepo := postgres.NewUserRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	supplierRepo := postgres.NewSupplierRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	historyRepo := postgres.NewPriceHistoryRepository(pool)
	movementRepo := postgres.NewInventoryMovementRepository(pool)
	projectRepo := postgres.NewProjectRepository(pool)
	requestRepo := postgres.NewMaterialRequestRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	objects, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento de archivos")
	}

	appMetrics := metrics.New(cfg.App.Name)

	movementOpts := []inventory.Option{
		inventory.WithStorage(objects),
		inventory.WithMetrics(appMetrics),
		inventory.WithLogger(log),
	}
	// Redis es opcional: sin REDIS_ADDR los reintentos no se deduplican.
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		movementOpts = append(movementOpts, inventory.WithIdempotency(cache.NewIdempotencyGuard(rdb, 0)))
	} else {
		log.Warn().Msg("REDIS_ADDR vacío: Idempotency-Key deshabilitado")
	}

	registerMovementUC := inventory.NewRegisterMovementUseCase(txRunner, movementRepo, movementOpts...)
	ledger := catalog.NewProductLedger(txRunner, productRepo, historyRepo, categoryRepo, supplierRepo,
		catalog.NewPriceHistoryRecorder(appMetrics))
	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	// PDF: reporte diario de operaciones
	pdfGenerator := infrapdf.NewMarotoPDFGenerator(cfg.App.Name)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    cfg.HTTP.BodyLimit(),
		ErrorHandler: httpRouter.ErrorHandler(log),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(appMetrics.Middleware())
	if cfg.HTTP.RateLimitPerMinute > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.HTTP.RateLimitPerMinute,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return !strings.HasPrefix(c.Path(), "/api/")
			},
		}))
	}

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Materiales API",
		}))
	}

	deps := httpRouter.RouterDeps{
		AuthUC:           authUC,
		CategoryUC:       catalog.NewCategoryUseCase(categoryRepo),
		SupplierUC:       catalog.NewSupplierUseCase(supplierRepo),
		Ledger:           ledger,
		RegisterMovement: registerMovementUC,
		MovementQuery:    inventory.NewMovementQueryUseCase(movementRepo, productRepo),
		Replenishment:    inventory.NewReplenishmentUseCase(productRepo, movementRepo),
		ProjectUC:        project.New(projectRepo, objects, log),
		RequestUC:        request.New(txRunner, requestRepo, projectRepo, productRepo, registerMovementUC, log),
		ReportUC:         report.NewDailyReportUseCase(movementRepo, historyRepo, projectRepo, pdfGenerator),
		JWTSecret:        cfg.JWT.Secret,
		Log:              log,
		Metrics:          appMetrics,
	}
	if cfg.Storage.Driver == "local" {
		deps.FilesPrefix = cfg.Storage.PublicURL
		deps.FilesDir = cfg.Storage.LocalDir
	}
	httpRouter.Router(app, deps)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
