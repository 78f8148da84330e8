package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnitDefault unidad de medida por defecto.
const UnitDefault = "Units"

// Product representa un producto del catálogo. No guarda stock: la existencia se deriva
// de las filas de Stock por ubicación.
type Product struct {
	ID          string
	SKU         string // único
	Name        string
	Description string
	CategoryID  string // vacío si no tiene categoría
	UnitMeasure string
	Cost        decimal.Decimal // costo promedio ponderado (se recalcula al validar recepciones)
	Price       decimal.Decimal // precio de venta
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
