package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// catalogRow una línea del CSV: codigo;nombre;categoria;stock;precio_lista;precio_publico[;proveedor_id]
type catalogRow struct {
	Line        int
	Code        string
	Name        string
	Category    string
	Stock       int
	ListPrice   decimal.Decimal
	PublicPrice decimal.Decimal
	SupplierID  string
}

// decodeReader envuelve r según charset. Las exportaciones de Excel en Windows llegan en ISO-8859-1.
func decodeReader(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(strings.ReplaceAll(charset, "_", "-")) {
	case "", "utf-8", "utf8":
		return r, nil
	case "iso-8859-1", "iso8859-1", "latin1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("charset no soportado: %s", charset)
	}
}

// parseCatalogCSV lee el catálogo. Ignora la cabecera si la primera celda es "codigo" o "code".
// Precios con coma decimal ("1500,50") se aceptan.
func parseCatalogCSV(r io.Reader, comma rune) ([]catalogRow, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		rows []catalogRow
		errs []error
	)
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		if line == 1 && isHeader(rec) {
			continue
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		row, err := parseRow(line, rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rows = append(rows, row)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return rows, nil
}

func isHeader(rec []string) bool {
	first := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(rec[0], "\ufeff")))
	return first == "codigo" || first == "código" || first == "code"
}

func parseRow(line int, rec []string) (catalogRow, error) {
	if len(rec) < 6 {
		return catalogRow{}, fmt.Errorf("línea %d: se esperaban al menos 6 columnas, hay %d", line, len(rec))
	}
	row := catalogRow{
		Line:     line,
		Code:     strings.TrimSpace(rec[0]),
		Name:     strings.TrimSpace(rec[1]),
		Category: strings.TrimSpace(rec[2]),
	}
	stock, err := strconv.Atoi(strings.TrimSpace(rec[3]))
	if err != nil {
		return catalogRow{}, fmt.Errorf("línea %d: stock inválido %q", line, rec[3])
	}
	row.Stock = stock
	if row.ListPrice, err = parsePrice(rec[4]); err != nil {
		return catalogRow{}, fmt.Errorf("línea %d: precio de lista inválido %q", line, rec[4])
	}
	if row.PublicPrice, err = parsePrice(rec[5]); err != nil {
		return catalogRow{}, fmt.Errorf("línea %d: precio al público inválido %q", line, rec[5])
	}
	if len(rec) > 6 {
		row.SupplierID = strings.TrimSpace(rec[6])
	}
	if row.Category == "" {
		return catalogRow{}, fmt.Errorf("línea %d: categoría vacía", line)
	}
	return row, nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}
