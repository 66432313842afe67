package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/materiales-api/internal/application/dto"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

// ProductLedger casos de uso del catálogo: alta, edición, alta masiva y consultas.
// Cada ruta de escritura corre en una transacción e invoca al PriceChangeListener
// antes del commit; no existe un camino de escritura de precios que lo omita.
type ProductLedger struct {
	txRunner   TxRunner
	products   repository.ProductRepository
	history    repository.PriceHistoryRepository
	categories repository.CategoryRepository
	suppliers  repository.SupplierRepository
	listener   PriceChangeListener
	now        func() time.Time
}

// NewProductLedger construye el caso de uso.
func NewProductLedger(
	txRunner TxRunner,
	products repository.ProductRepository,
	history repository.PriceHistoryRepository,
	categories repository.CategoryRepository,
	suppliers repository.SupplierRepository,
	listener PriceChangeListener,
) *ProductLedger {
	return &ProductLedger{
		txRunner:   txRunner,
		products:   products,
		history:    history,
		categories: categories,
		suppliers:  suppliers,
		listener:   listener,
		now:        time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (l *ProductLedger) WithClock(now func() time.Time) *ProductLedger {
	l.now = now
	return l
}

// Create valida y crea un producto; registra la foto de precios "creation" en la misma tx.
func (l *ProductLedger) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	in = normalizeCreate(in)
	verr := domain.NewValidationError()
	validateCreate(verr, "", in)
	if err := l.validateReferences(ctx, verr, "", in); err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	now := l.now()
	product := newProduct(in, now)
	err := l.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		return l.insert(ctx, repos, product, now)
	})
	if err != nil {
		return nil, err
	}
	return l.withHistory(ctx, product)
}

// BulkCreate crea varios productos en una sola transacción (todo o nada).
// Pasa por el mismo listener que Create: el alta masiva no está exenta del historial.
func (l *ProductLedger) BulkCreate(ctx context.Context, in []dto.CreateProductRequest) ([]dto.ProductResponse, error) {
	if len(in) == 0 {
		verr := domain.NewValidationError()
		verr.Add("products", "debe incluir al menos un producto")
		return nil, verr
	}
	verr := domain.NewValidationError()
	seen := make(map[string]int, len(in))
	for i := range in {
		in[i] = normalizeCreate(in[i])
		prefix := fmt.Sprintf("products[%d].", i)
		validateCreate(verr, prefix, in[i])
		if err := l.validateReferences(ctx, verr, prefix, in[i]); err != nil {
			return nil, err
		}
		if j, dup := seen[in[i].Code]; dup && in[i].Code != "" {
			verr.Add(prefix+"code", fmt.Sprintf("código repetido en la posición %d", j))
		}
		seen[in[i].Code] = i
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	now := l.now()
	created := make([]*entity.Product, 0, len(in))
	err := l.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		for _, item := range in {
			p := newProduct(item, now)
			if err := l.insert(ctx, repos, p, now); err != nil {
				if errors.Is(err, domain.ErrDuplicate) {
					return fmt.Errorf("código %s: %w", p.Code, err)
				}
				return err
			}
			created = append(created, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductResponse, 0, len(created))
	for _, p := range created {
		out = append(out, *toProductResponse(p))
	}
	return out, nil
}

// Update aplica una edición parcial. El código es inmutable; si cambia algún precio
// el listener deja un registro "update" con los valores nuevos de ambos precios.
func (l *ProductLedger) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	in = normalizeUpdate(in)
	verr := domain.NewValidationError()
	validateUpdate(verr, in)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	var updated *entity.Product
	err := l.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		before, err := repos.Products.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if before == nil {
			return domain.ErrProductNotFound
		}
		if in.Code != nil && strings.TrimSpace(*in.Code) != before.Code {
			ve := domain.NewValidationError()
			ve.Add("code", "el código de producto es inmutable")
			return ve
		}

		after := *before
		if in.Name != nil {
			after.Name = strings.TrimSpace(*in.Name)
		}
		if in.Stock != nil {
			after.Stock = *in.Stock
		}
		if in.ListPrice != nil {
			after.ListPrice = *in.ListPrice
		}
		if in.PublicPrice != nil {
			after.PublicPrice = *in.PublicPrice
		}
		now := l.now()
		after.UpdatedAt = now

		if err := repos.Products.Update(ctx, &after); err != nil {
			return err
		}
		if err := l.listener.ProductUpdated(ctx, repos.PriceHistory, before, &after, now); err != nil {
			return err
		}
		updated = &after
		return nil
	})
	if err != nil {
		return nil, err
	}
	return l.withHistory(ctx, updated)
}

// FindByCode busca un producto por su código.
func (l *ProductLedger) FindByCode(ctx context.Context, code string) (*dto.ProductResponse, error) {
	p, err := l.products.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrProductNotFound
	}
	return toProductResponse(p), nil
}

// GetByID obtiene un producto con su historial de precios embebido.
func (l *ProductLedger) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	p, err := l.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrProductNotFound
	}
	return l.withHistory(ctx, p)
}

// List lista productos con búsqueda por código/nombre y paginación.
func (l *ProductLedger) List(ctx context.Context, search, categoryID string, page dto.PageRequest) (*dto.ProductListResponse, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID != "" && !isUUID(categoryID) {
		verr := domain.NewValidationError()
		verr.Add("category_id", "identificador inválido")
		return nil, verr
	}
	page.DefaultPage()
	list, err := l.products.List(ctx, repository.ProductFilter{
		Search:     strings.TrimSpace(search),
		CategoryID: categoryID,
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// PriceHistory devuelve el historial de un producto, más reciente primero.
func (l *ProductLedger) PriceHistory(ctx context.Context, productID string) ([]dto.PriceHistoryResponse, error) {
	p, err := l.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrProductNotFound
	}
	records, err := l.history.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return toPriceHistoryResponses(records), nil
}

func (l *ProductLedger) insert(ctx context.Context, repos repository.TxRepos, p *entity.Product, now time.Time) error {
	existing, err := repos.Products.GetByCode(ctx, p.Code)
	if err != nil {
		return err
	}
	if existing != nil {
		return domain.ErrDuplicate
	}
	if err := repos.Products.Create(ctx, p); err != nil {
		return err
	}
	return l.listener.ProductCreated(ctx, repos.PriceHistory, p, now)
}

func (l *ProductLedger) withHistory(ctx context.Context, p *entity.Product) (*dto.ProductResponse, error) {
	out := toProductResponse(p)
	records, err := l.history.ListByProduct(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	out.PriceHistory = toPriceHistoryResponses(records)
	return out, nil
}

// validateReferences verifica que la categoría (obligatoria) y el proveedor (opcional) existan.
// Solo devuelve error ante fallos de infraestructura; lo demás va a verr.
func (l *ProductLedger) validateReferences(ctx context.Context, verr *domain.ValidationError, prefix string, in dto.CreateProductRequest) error {
	if in.CategoryID != "" && !isUUID(in.CategoryID) {
		verr.Add(prefix+"category_id", "la categoría no existe")
	} else if in.CategoryID != "" {
		cat, err := l.categories.GetByID(ctx, in.CategoryID)
		if err != nil {
			return err
		}
		if cat == nil {
			verr.Add(prefix+"category_id", "la categoría no existe")
		}
	}
	if in.SupplierID != "" && !isUUID(in.SupplierID) {
		verr.Add(prefix+"supplier_id", "el proveedor no existe")
	} else if in.SupplierID != "" {
		sup, err := l.suppliers.GetByID(ctx, in.SupplierID)
		if err != nil {
			return err
		}
		if sup == nil {
			verr.Add(prefix+"supplier_id", "el proveedor no existe")
		}
	}
	return nil
}

func normalizeCreate(in dto.CreateProductRequest) dto.CreateProductRequest {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	in.CategoryID = strings.TrimSpace(in.CategoryID)
	in.SupplierID = strings.TrimSpace(in.SupplierID)
	in.ListPrice = entity.NormalizePrice(in.ListPrice)
	in.PublicPrice = entity.NormalizePrice(in.PublicPrice)
	return in
}

func normalizeUpdate(in dto.UpdateProductRequest) dto.UpdateProductRequest {
	if in.ListPrice != nil {
		v := entity.NormalizePrice(*in.ListPrice)
		in.ListPrice = &v
	}
	if in.PublicPrice != nil {
		v := entity.NormalizePrice(*in.PublicPrice)
		in.PublicPrice = &v
	}
	return in
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func validatePrice(verr *domain.ValidationError, field, label string, d decimal.Decimal) {
	switch {
	case d.IsNegative():
		verr.Add(field, label+" no puede ser negativo")
	case d.GreaterThanOrEqual(entity.PriceMax):
		verr.Add(field, label+" excede el máximo permitido")
	}
}

func validateStock(verr *domain.ValidationError, field string, stock int) {
	switch {
	case stock < 0:
		verr.Add(field, "el stock no puede ser negativo")
	case stock > entity.StockMax:
		verr.Add(field, fmt.Sprintf("máximo %d", entity.StockMax))
	}
}

func validateCreate(verr *domain.ValidationError, prefix string, in dto.CreateProductRequest) {
	switch {
	case in.Name == "":
		verr.Add(prefix+"name", "el nombre es requerido")
	case utf8.RuneCountInString(in.Name) > entity.ProductNameMaxLen:
		verr.Add(prefix+"name", fmt.Sprintf("máximo %d caracteres", entity.ProductNameMaxLen))
	}
	switch {
	case in.Code == "":
		verr.Add(prefix+"code", "el código es requerido")
	case utf8.RuneCountInString(in.Code) > entity.ProductCodeMaxLen:
		verr.Add(prefix+"code", fmt.Sprintf("máximo %d caracteres", entity.ProductCodeMaxLen))
	}
	validateStock(verr, prefix+"stock", in.Stock)
	validatePrice(verr, prefix+"list_price", "el precio de lista", in.ListPrice)
	validatePrice(verr, prefix+"public_price", "el precio al público", in.PublicPrice)
	if in.CategoryID == "" {
		verr.Add(prefix+"category_id", "la categoría es requerida")
	}
}

func validateUpdate(verr *domain.ValidationError, in dto.UpdateProductRequest) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		switch {
		case name == "":
			verr.Add("name", "el nombre no puede quedar vacío")
		case utf8.RuneCountInString(name) > entity.ProductNameMaxLen:
			verr.Add("name", fmt.Sprintf("máximo %d caracteres", entity.ProductNameMaxLen))
		}
	}
	if in.Stock != nil {
		validateStock(verr, "stock", *in.Stock)
	}
	if in.ListPrice != nil {
		validatePrice(verr, "list_price", "el precio de lista", *in.ListPrice)
	}
	if in.PublicPrice != nil {
		validatePrice(verr, "public_price", "el precio al público", *in.PublicPrice)
	}
}

func newProduct(in dto.CreateProductRequest, now time.Time) *entity.Product {
	return &entity.Product{
		ID:          uuid.New().String(),
		Code:        in.Code,
		Name:        in.Name,
		Stock:       in.Stock,
		ListPrice:   in.ListPrice,
		PublicPrice: in.PublicPrice,
		CategoryID:  in.CategoryID,
		SupplierID:  in.SupplierID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:          p.ID,
		Code:        p.Code,
		Name:        p.Name,
		Stock:       p.Stock,
		ListPrice:   p.ListPrice,
		PublicPrice: p.PublicPrice,
		CategoryID:  p.CategoryID,
		SupplierID:  p.SupplierID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toPriceHistoryResponses(records []*entity.PriceHistoryRecord) []dto.PriceHistoryResponse {
	out := make([]dto.PriceHistoryResponse, 0, len(records))
	for _, r := range records {
		out = append(out, dto.PriceHistoryResponse{
			ID:          r.ID,
			ProductID:   r.ProductID,
			SupplierID:  r.SupplierID,
			ListPrice:   r.ListPrice,
			PublicPrice: r.PublicPrice,
			ChangeDate:  r.ChangeDate.Format(time.DateOnly),
			ChangeKind:  r.ChangeKind,
			CreatedAt:   r.CreatedAt,
		})
	}
	return out
}
