package dto

// DailyReportDTO respuesta de GET /api/reports/daily.
// Resume la operación de un día: movimientos, unidades por tipo y cambios de precio.
type DailyReportDTO struct {
	Date         string             `json:"date"` // YYYY-MM-DD
	EntryCount   int                `json:"entry_count"`
	ExitCount    int                `json:"exit_count"`
	UnitsIn      int                `json:"units_in"`
	UnitsOut     int                `json:"units_out"`
	PriceChanges int                `json:"price_changes"`
	NewProjects  int                `json:"new_projects"`
	TopProducts  []ProductUnitsDTO  `json:"top_products"`
	Movements    []MovementResponse `json:"movements"`
}

// ProductUnitsDTO unidades movidas por producto en el día.
type ProductUnitsDTO struct {
	ProductCode string `json:"product_code"`
	ProductName string `json:"product_name"`
	UnitsIn     int    `json:"units_in"`
	UnitsOut    int    `json:"units_out"`
}
