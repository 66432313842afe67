package repository

// TxRepos agrupa los repositorios atados a una misma transacción de BD.
// Lo construye el TxRunner de infraestructura; los casos de uso solo lo consumen.
type TxRepos struct {
	Products         ProductRepository
	PriceHistory     PriceHistoryRepository
	Movements        InventoryMovementRepository
	MaterialRequests MaterialRequestRepository
}
