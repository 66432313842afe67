// Package memory implementa los puertos de repositorio en memoria (tests y desarrollo local).
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/materiales-api/internal/domain/entity"
	"github.com/jhoicas/materiales-api/internal/domain/repository"
)

// Store estado en memoria. mu protege los datos; txMu serializa transacciones,
// lo que equivale al bloqueo de fila de PostgreSQL para un único proceso.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	products    map[string]entity.Product
	history     []entity.PriceHistoryRecord
	categories  map[string]entity.Category
	suppliers   map[string]entity.Supplier
	movements   map[string]entity.InventoryMovement
	movementSeq []string // orden de inserción
	users       map[string]entity.User
	projects    map[string]entity.Project
	requests    map[string]entity.MaterialRequest
	requestSeq  []string
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		products:   make(map[string]entity.Product),
		categories: make(map[string]entity.Category),
		suppliers:  make(map[string]entity.Supplier),
		movements:  make(map[string]entity.InventoryMovement),
		users:      make(map[string]entity.User),
		projects:   make(map[string]entity.Project),
		requests:   make(map[string]entity.MaterialRequest),
	}
}

// Products repositorio de productos sobre el store.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// PriceHistory repositorio del historial de precios.
func (s *Store) PriceHistory() *PriceHistoryRepo { return &PriceHistoryRepo{s: s} }

// Categories repositorio de categorías.
func (s *Store) Categories() *CategoryRepo { return &CategoryRepo{s: s} }

// Suppliers repositorio de proveedores.
func (s *Store) Suppliers() *SupplierRepo { return &SupplierRepo{s: s} }

// Movements repositorio de movimientos.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{s: s} }

// Users repositorio de usuarios.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Projects repositorio de obras.
func (s *Store) Projects() *ProjectRepo { return &ProjectRepo{s: s} }

// MaterialRequests repositorio de solicitudes de material.
func (s *Store) MaterialRequests() *MaterialRequestRepo { return &MaterialRequestRepo{s: s} }

// Run ejecuta fn como una transacción: serializada respecto de otras y con
// restauración del estado previo si fn devuelve error.
func (s *Store) Run(ctx context.Context, fn func(repos repository.TxRepos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	snap := s.snapshot()
	err := fn(repository.TxRepos{
		Products:         s.Products(),
		PriceHistory:     s.PriceHistory(),
		Movements:        s.Movements(),
		MaterialRequests: s.MaterialRequests(),
	})
	if err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	products    map[string]entity.Product
	history     []entity.PriceHistoryRecord
	movements   map[string]entity.InventoryMovement
	movementSeq []string
	requests    map[string]entity.MaterialRequest
	requestSeq  []string
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := snapshot{
		products:    make(map[string]entity.Product, len(s.products)),
		history:     append([]entity.PriceHistoryRecord(nil), s.history...),
		movements:   make(map[string]entity.InventoryMovement, len(s.movements)),
		movementSeq: append([]string(nil), s.movementSeq...),
		requests:    make(map[string]entity.MaterialRequest, len(s.requests)),
		requestSeq:  append([]string(nil), s.requestSeq...),
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	for k, v := range s.movements {
		v.Items = append([]entity.MovementLineItem(nil), v.Items...)
		snap.movements[k] = v
	}
	for k, v := range s.requests {
		v.Items = append([]entity.MaterialRequestItem(nil), v.Items...)
		snap.requests[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = snap.products
	s.history = snap.history
	s.movements = snap.movements
	s.movementSeq = snap.movementSeq
	s.requests = snap.requests
	s.requestSeq = snap.requestSeq
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
