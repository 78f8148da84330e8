package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationItemRequest línea de una operación.
type OperationItemRequest struct {
	ProductID  string           `json:"productId" validate:"required"`
	Quantity   int64            `json:"quantity" validate:"min=0"`
	Done       int64            `json:"done" validate:"min=0"`
	LocationID string           `json:"locationId"`
	UnitCost   *decimal.Decimal `json:"unitCost"`
}

// OperationRequest alta o edición de una recepción, entrega, traslado o ajuste.
// Supplier/Customer son alias de Contact. LocationID es el destino en recepciones y ajustes
// y el origen en entregas.
type OperationRequest struct {
	ReferenceNo    string                 `json:"referenceNo" validate:"omitempty,max=64"`
	Supplier       string                 `json:"supplier" validate:"max=200"`
	Customer       string                 `json:"customer" validate:"max=200"`
	Contact        string                 `json:"contact" validate:"max=200"`
	FromLocationID string                 `json:"fromLocationId"`
	ToLocationID   string                 `json:"toLocationId"`
	LocationID     string                 `json:"locationId"`
	ScheduledDate  *time.Time             `json:"scheduledDate"`
	Responsible    string                 `json:"responsible"`
	Note           string                 `json:"note" validate:"max=1000"`
	Items          []OperationItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ContactName contacto efectivo según los alias recibidos.
func (r OperationRequest) ContactName() string {
	switch {
	case r.Contact != "":
		return r.Contact
	case r.Supplier != "":
		return r.Supplier
	default:
		return r.Customer
	}
}

// QuickAdjustRequest ajuste inmediato de una sola línea.
type QuickAdjustRequest struct {
	ProductID   string `json:"productId" validate:"required"`
	LocationID  string `json:"locationId" validate:"required"`
	NewQuantity *int64 `json:"newQuantity" validate:"required,min=0"`
	Reason      string `json:"reason" validate:"max=500"`
}

// OperationLineResponse línea en la salida.
type OperationLineResponse struct {
	ID          string           `json:"id"`
	ProductID   string           `json:"productId"`
	LocationID  string           `json:"locationId,omitempty"`
	Quantity    int64            `json:"quantity"`
	Done        int64            `json:"done"`
	Theoretical *int64           `json:"theoretical,omitempty"`
	UnitCost    *decimal.Decimal `json:"unitCost,omitempty"`
}

// OperationResponse salida de una operación.
type OperationResponse struct {
	ID               string                  `json:"id"`
	Type             string                  `json:"type"`
	Reference        string                  `json:"reference"`
	Contact          string                  `json:"contact,omitempty"`
	SourceLocationID string                  `json:"fromLocationId,omitempty"`
	DestLocationID   string                  `json:"toLocationId,omitempty"`
	ScheduledDate    *time.Time              `json:"scheduledDate,omitempty"`
	Responsible      string                  `json:"responsible,omitempty"`
	Status           string                  `json:"status"`
	Note             string                  `json:"note,omitempty"`
	CreatedBy        string                  `json:"createdBy"`
	ValidatedAt      *time.Time              `json:"validatedAt,omitempty"`
	CreatedAt        time.Time               `json:"createdAt"`
	UpdatedAt        time.Time               `json:"updatedAt"`
	Lines            []OperationLineResponse `json:"items"`
}

// OperationListResponse lista paginada.
type OperationListResponse struct {
	Items []OperationResponse `json:"items"`
	Page  PageResponse        `json:"page"`
}

// ShortageResponse faltante por producto y ubicación.
type ShortageResponse struct {
	ProductID  string `json:"productId"`
	LocationID string `json:"locationId"`
	Required   int64  `json:"required"`
	Available  int64  `json:"available"`
}

// OperationActionResponse resultado de una transición (todo, check, validate, cancel).
type OperationActionResponse struct {
	Message   string             `json:"message"`
	Operation *OperationResponse `json:"operation"`
	Shortages []ShortageResponse `json:"shortages,omitempty"`
}

// AdjustResponse resultado de un ajuste inmediato.
type AdjustResponse struct {
	Message    string             `json:"message"`
	Difference int64              `json:"difference"`
	Adjustment *OperationResponse `json:"adjustment"`
}
