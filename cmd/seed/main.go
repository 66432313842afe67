// seed carga el catálogo inicial desde un CSV y, opcionalmente, crea el primer usuario admin.
//
// Uso:
//
//	go run ./cmd/seed -csv catalogo.csv -charset iso-8859-1
//	go run ./cmd/seed -admin-email admin@empresa.co -admin-password <clave>
//
// Las categorías que no existan se crean. Los productos cuyo código ya existe se omiten;
// el resto se inserta en una sola transacción (todo o nada) con su foto de precios inicial.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jhoicas/materiales-api/internal/application/auth"
	"github.com/jhoicas/materiales-api/internal/application/catalog"
	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/infrastructure/postgres"
	"github.com/jhoicas/materiales-api/pkg/config"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

func main() {
	csvPath := flag.String("csv", "", "ruta del CSV del catálogo")
	charset := flag.String("charset", "utf-8", "codificación del CSV: utf-8 | iso-8859-1 | windows-1252")
	sep := flag.String("sep", ";", "separador de columnas")
	adminEmail := flag.String("admin-email", "", "email del usuario admin a crear")
	adminPassword := flag.String("admin-password", "", "contraseña del usuario admin")
	adminName := flag.String("admin-name", "Administrador", "nombre del usuario admin")
	flag.Parse()

	if *csvPath == "" && *adminEmail == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if _, err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	if *adminEmail != "" {
		authUC := auth.NewAuthUseCase(postgres.NewUserRepository(pool), auth.JWTConfig{
			Secret: cfg.JWT.Secret, ExpMinutes: cfg.JWT.Expiration, Issuer: cfg.JWT.Issuer,
		})
		user, err := authUC.RegisterUser(ctx, dto.RegisterRequest{
			Email: *adminEmail, Password: *adminPassword, Name: *adminName, Role: entity.RoleAdmin,
		})
		switch {
		case errors.Is(err, domain.ErrEmailAlreadyExists):
			log.Warn().Str("email", *adminEmail).Msg("el admin ya existe, se omite")
		case err != nil:
			log.Fatal().Err(err).Msg("crear admin")
		default:
			log.Info().Str("user_id", user.ID).Msg("admin creado")
		}
	}

	if *csvPath == "" {
		return
	}
	comma := []rune(*sep)
	if len(comma) != 1 {
		log.Fatal().Str("sep", *sep).Msg("el separador debe ser un solo carácter")
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir CSV")
	}
	defer f.Close()
	r, err := decodeReader(f, *charset)
	if err != nil {
		log.Fatal().Err(err).Msg("charset")
	}
	rows, err := parseCatalogCSV(r, comma[0])
	if err != nil {
		log.Fatal().Err(err).Msg("leer CSV")
	}

	categoryRepo := postgres.NewCategoryRepository(pool)
	categories := catalog.NewCategoryUseCase(categoryRepo)
	ledger := catalog.NewProductLedger(
		postgres.NewTxRunner(pool),
		postgres.NewProductRepository(pool),
		postgres.NewPriceHistoryRepository(pool),
		categoryRepo,
		postgres.NewSupplierRepository(pool),
		catalog.NewPriceHistoryRecorder(nil),
	)

	s := &seeder{categories: categories, ledger: ledger}
	created, skipped, err := s.load(ctx, rows)
	if err != nil {
		log.Fatal().Err(err).Msg("cargar catálogo")
	}
	log.Info().Int("creados", created).Int("omitidos", skipped).Msg("catálogo cargado")
}

// seeder resuelve categorías por nombre y delega el alta en el ledger.
type seeder struct {
	categories *catalog.CategoryUseCase
	ledger     *catalog.ProductLedger
}

func (s *seeder) load(ctx context.Context, rows []catalogRow) (created, skipped int, err error) {
	existing, err := s.categories.List(ctx)
	if err != nil {
		return 0, 0, err
	}
	byName := make(map[string]string, len(existing))
	for _, c := range existing {
		byName[strings.ToLower(c.Name)] = c.ID
	}

	batch := make([]dto.CreateProductRequest, 0, len(rows))
	for _, row := range rows {
		if _, err := s.ledger.FindByCode(ctx, row.Code); err == nil {
			skipped++
			continue
		} else if !errors.Is(err, domain.ErrProductNotFound) {
			return 0, 0, err
		}
		key := strings.ToLower(row.Category)
		catID, ok := byName[key]
		if !ok {
			c, err := s.categories.Create(ctx, dto.CreateCategoryRequest{Name: row.Category})
			if err != nil {
				return 0, 0, fmt.Errorf("línea %d: categoría %q: %w", row.Line, row.Category, err)
			}
			catID = c.ID
			byName[key] = catID
		}
		batch = append(batch, dto.CreateProductRequest{
			Code:        row.Code,
			Name:        row.Name,
			Stock:       row.Stock,
			ListPrice:   row.ListPrice,
			PublicPrice: row.PublicPrice,
			CategoryID:  catID,
			SupplierID:  row.SupplierID,
		})
	}
	if len(batch) == 0 {
		return 0, skipped, nil
	}
	out, err := s.ledger.BulkCreate(ctx, batch)
	if err != nil {
		return 0, 0, err
	}
	return len(out), skipped, nil
}
