package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	SKU           string          `json:"sku" validate:"required,min=1,max=100"`
	Name          string          `json:"name" validate:"required,min=1,max=200"`
	Description   string          `json:"description"`
	CategoryID    string          `json:"categoryId" validate:"omitempty,uuid"`
	UnitOfMeasure string          `json:"unitOfMeasure" validate:"omitempty,max=30"`
	Cost          decimal.Decimal `json:"cost" validate:"min=0"`
	Price         decimal.Decimal `json:"price" validate:"min=0"`
}

// UpdateProductRequest entrada para actualizar un producto (el costo lo recalculan las recepciones).
type UpdateProductRequest struct {
	Name          *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description   *string          `json:"description"`
	CategoryID    *string          `json:"categoryId" validate:"omitempty"`
	UnitOfMeasure *string          `json:"unitOfMeasure" validate:"omitempty,max=30"`
	Price         *decimal.Decimal `json:"price"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	CategoryID    string          `json:"categoryId,omitempty"`
	UnitOfMeasure string          `json:"unitOfMeasure"`
	Cost          decimal.Decimal `json:"cost"`
	Price         decimal.Decimal `json:"price"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// LocationQuantity existencia en una ubicación.
type LocationQuantity struct {
	LocationID string    `json:"locationId"`
	Quantity   int64     `json:"quantity"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ProductStockResponse existencia por ubicación y total de un producto.
type ProductStockResponse struct {
	ProductID string             `json:"productId"`
	Total     int64              `json:"total"`
	Locations []LocationQuantity `json:"locations"`
}

// CreateCategoryRequest entrada para crear o actualizar una categoría.
type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=120"`
	Description string `json:"description" validate:"max=500"`
}

// CategoryResponse salida de una categoría.
type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CategoryListResponse listado de categorías.
type CategoryListResponse struct {
	Items []CategoryResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
