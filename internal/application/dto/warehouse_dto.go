package dto

import "time"

// CreateWarehouseRequest entrada para crear una bodega.
type CreateWarehouseRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=200"`
	Code    string `json:"code" validate:"omitempty,max=20"`
	Address string `json:"address"`
}

// UpdateWarehouseRequest entrada para actualizar una bodega.
type UpdateWarehouseRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=200"`
	Code    *string `json:"code" validate:"omitempty,max=20"`
	Address *string `json:"address"`
}

// WarehouseResponse salida de una bodega con sus ubicaciones.
type WarehouseResponse struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Code      string             `json:"code,omitempty"`
	Address   string             `json:"address"`
	Locations []LocationResponse `json:"locations,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// WarehouseListResponse lista paginada de bodegas.
type WarehouseListResponse struct {
	Items []WarehouseResponse `json:"items"`
	Page  PageResponse        `json:"page"`
}

// CreateLocationRequest entrada para crear una ubicación.
type CreateLocationRequest struct {
	WarehouseID string `json:"warehouseId" validate:"required"`
	Name        string `json:"name" validate:"required,min=1,max=120"`
	Code        string `json:"code" validate:"omitempty,max=30"`
}

// LocationResponse salida de una ubicación.
type LocationResponse struct {
	ID          string    `json:"id"`
	WarehouseID string    `json:"warehouseId"`
	Name        string    `json:"name"`
	Code        string    `json:"code,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LocationListResponse listado de ubicaciones.
type LocationListResponse struct {
	Items []LocationResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// LocationStockItem fila del stock de una ubicación.
type LocationStockItem struct {
	ProductID     string    `json:"productId"`
	SKU           string    `json:"sku"`
	ProductName   string    `json:"productName"`
	UnitOfMeasure string    `json:"unitOfMeasure"`
	Quantity      int64     `json:"quantity"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// LocationStockResponse stock paginado de una ubicación.
type LocationStockResponse struct {
	Location LocationResponse    `json:"location"`
	Items    []LocationStockItem `json:"items"`
	Page     PageResponse        `json:"page"`
}
