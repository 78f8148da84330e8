package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationType tipo de operación de inventario.
type OperationType string

// Tipos de operación.
const (
	OperationReceipt    OperationType = "RECEIPT"
	OperationDelivery   OperationType = "DELIVERY"
	OperationTransfer   OperationType = "TRANSFER"
	OperationAdjustment OperationType = "ADJUSTMENT"
)

// OperationTypes todos los tipos, en el orden en que se muestran.
var OperationTypes = []OperationType{OperationReceipt, OperationDelivery, OperationTransfer, OperationAdjustment}

// Valid indica si el tipo es conocido.
func (t OperationType) Valid() bool {
	switch t {
	case OperationReceipt, OperationDelivery, OperationTransfer, OperationAdjustment:
		return true
	}
	return false
}

// RequiresAvailability indica si el tipo consume stock de una ubicación de origen.
func (t OperationType) RequiresAvailability() bool {
	return t == OperationDelivery || t == OperationTransfer
}

// ReferencePrefix prefijo de la referencia legible (WH/IN/00001).
func (t OperationType) ReferencePrefix() string {
	switch t {
	case OperationReceipt:
		return "WH/IN/"
	case OperationDelivery:
		return "WH/OUT/"
	case OperationTransfer:
		return "WH/INT/"
	default:
		return "WH/ADJ/"
	}
}

// OperationStatus estado del ciclo de vida.
type OperationStatus string

// Estados. DONE y CANCELLED son terminales.
const (
	StatusDraft     OperationStatus = "DRAFT"
	StatusWaiting   OperationStatus = "WAITING"
	StatusReady     OperationStatus = "READY"
	StatusDone      OperationStatus = "DONE"
	StatusCancelled OperationStatus = "CANCELLED"
)

// IsFinal indica si el estado no admite más cambios.
func (s OperationStatus) IsFinal() bool {
	return s == StatusDone || s == StatusCancelled
}

// Operation cabecera de una recepción, entrega, traslado o ajuste.
type Operation struct {
	ID               string
	Type             OperationType
	Reference        string
	Contact          string // proveedor o cliente
	SourceLocationID string
	DestLocationID   string
	ScheduledDate    *time.Time
	Responsible      string
	Status           OperationStatus
	Note             string
	CreatedBy        string
	ValidatedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Lines            []OperationLine
}

// OperationLine línea de producto. Quantity es la demanda (o lo contado en un ajuste);
// Done la cantidad hecha en recepciones/entregas (0 = usar la demanda);
// Theoretical se fija al validar un ajuste.
type OperationLine struct {
	ID          string
	OperationID string
	ProductID   string
	LocationID  string // override de la ubicación de cabecera (no aplica a traslados)
	Quantity    int64
	Done        int64
	Theoretical *int64
	UnitCost    *decimal.Decimal
}

// EffectiveQuantity cantidad a mover: Done si se informó, si no la demanda.
func (l OperationLine) EffectiveQuantity(t OperationType) int64 {
	if (t == OperationReceipt || t == OperationDelivery) && l.Done > 0 {
		return l.Done
	}
	return l.Quantity
}

// SourceFor ubicación de la que sale el stock de la línea ("" si el tipo no descuenta).
func (o *Operation) SourceFor(l OperationLine) string {
	switch o.Type {
	case OperationDelivery:
		if l.LocationID != "" {
			return l.LocationID
		}
		return o.SourceLocationID
	case OperationTransfer:
		return o.SourceLocationID
	}
	return ""
}

// DestFor ubicación a la que entra (o que se cuenta en un ajuste) ("" si no aplica).
func (o *Operation) DestFor(l OperationLine) string {
	switch o.Type {
	case OperationReceipt, OperationAdjustment:
		if l.LocationID != "" {
			return l.LocationID
		}
		return o.DestLocationID
	case OperationTransfer:
		return o.DestLocationID
	}
	return ""
}

// OperationFilter filtros de listado.
type OperationFilter struct {
	Type   OperationType
	Status OperationStatus
	Search string // referencia o contacto
	Limit  int
	Offset int
}
