package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Bodega-api/internal/application/dto"
	"github.com/jhoicas/Bodega-api/internal/domain"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/repository"
)

// WarehouseUseCase casos de uso para bodegas y sus ubicaciones.
type WarehouseUseCase struct {
	repo      repository.WarehouseRepository
	locations repository.LocationRepository
	stock     repository.StockRepository
}

// NewWarehouseUseCase construye el caso de uso.
func NewWarehouseUseCase(repo repository.WarehouseRepository, locations repository.LocationRepository, stock repository.StockRepository) *WarehouseUseCase {
	return &WarehouseUseCase{repo: repo, locations: locations, stock: stock}
}

// Create crea una nueva bodega.
func (uc *WarehouseUseCase) Create(ctx context.Context, in dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	now := time.Now()
	warehouse := &entity.Warehouse{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(in.Name),
		Code:      strings.ToUpper(strings.TrimSpace(in.Code)),
		Address:   in.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, warehouse); err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse, nil), nil
}

// GetByID obtiene una bodega con sus ubicaciones.
func (uc *WarehouseUseCase) GetByID(ctx context.Context, id string) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	locs, err := uc.locations.ListByWarehouse(ctx, id)
	if err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse, locs), nil
}

// Update actualiza una bodega.
func (uc *WarehouseUseCase) Update(ctx context.Context, id string, in dto.UpdateWarehouseRequest) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		warehouse.Name = strings.TrimSpace(*in.Name)
	}
	if in.Code != nil {
		warehouse.Code = strings.ToUpper(strings.TrimSpace(*in.Code))
	}
	if in.Address != nil {
		warehouse.Address = *in.Address
	}
	warehouse.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, warehouse); err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse, nil), nil
}

// List lista bodegas con paginación.
func (uc *WarehouseUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.WarehouseListResponse, error) {
	page.DefaultPage()
	list, total, err := uc.repo.List(ctx, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	items := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		items = append(items, *toWarehouseResponse(w, nil))
	}
	return &dto.WarehouseListResponse{Items: items, Page: dto.NewPageResponse(page, total)}, nil
}

// CreateLocation crea una ubicación dentro de una bodega existente.
func (uc *WarehouseUseCase) CreateLocation(ctx context.Context, in dto.CreateLocationRequest) (*dto.LocationResponse, error) {
	if _, err := uc.get(ctx, in.WarehouseID); err != nil {
		return nil, err
	}
	now := time.Now()
	loc := &entity.Location{
		ID:          uuid.New().String(),
		WarehouseID: in.WarehouseID,
		Name:        strings.TrimSpace(in.Name),
		Code:        strings.ToUpper(strings.TrimSpace(in.Code)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.locations.Create(ctx, loc); err != nil {
		return nil, err
	}
	out := toLocationResponse(loc)
	return &out, nil
}

// GetLocation obtiene una ubicación.
func (uc *WarehouseUseCase) GetLocation(ctx context.Context, id string) (*dto.LocationResponse, error) {
	loc, err := uc.getLocation(ctx, id)
	if err != nil {
		return nil, err
	}
	out := toLocationResponse(loc)
	return &out, nil
}

// ListLocations lista todas las ubicaciones.
func (uc *WarehouseUseCase) ListLocations(ctx context.Context, page dto.PageRequest) (*dto.LocationListResponse, error) {
	page.DefaultPage()
	list, total, err := uc.locations.List(ctx, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	items := make([]dto.LocationResponse, 0, len(list))
	for _, l := range list {
		items = append(items, toLocationResponse(l))
	}
	return &dto.LocationListResponse{Items: items, Page: dto.NewPageResponse(page, total)}, nil
}

// LocationStock cantidades por producto en una ubicación, con búsqueda por SKU o nombre.
func (uc *WarehouseUseCase) LocationStock(ctx context.Context, locationID, search string, page dto.PageRequest) (*dto.LocationStockResponse, error) {
	loc, err := uc.getLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	page.DefaultPage()
	rows, total, err := uc.stock.ListByLocation(ctx, locationID, strings.TrimSpace(search), page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}
	items := make([]dto.LocationStockItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, dto.LocationStockItem{
			ProductID:     r.ProductID,
			SKU:           r.SKU,
			ProductName:   r.ProductName,
			UnitOfMeasure: r.UnitMeasure,
			Quantity:      r.Quantity,
			UpdatedAt:     r.UpdatedAt,
		})
	}
	return &dto.LocationStockResponse{
		Location: toLocationResponse(loc),
		Items:    items,
		Page:     dto.NewPageResponse(page, total),
	}, nil
}

func (uc *WarehouseUseCase) get(ctx context.Context, id string) (*entity.Warehouse, error) {
	warehouse, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, id)
	}
	return warehouse, nil
}

func (uc *WarehouseUseCase) getLocation(ctx context.Context, id string) (*entity.Location, error) {
	loc, err := uc.locations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, id)
	}
	return loc, nil
}

func toWarehouseResponse(w *entity.Warehouse, locs []*entity.Location) *dto.WarehouseResponse {
	out := &dto.WarehouseResponse{
		ID:        w.ID,
		Name:      w.Name,
		Code:      w.Code,
		Address:   w.Address,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
	for _, l := range locs {
		out.Locations = append(out.Locations, toLocationResponse(l))
	}
	return out
}

func toLocationResponse(l *entity.Location) dto.LocationResponse {
	return dto.LocationResponse{
		ID:          l.ID,
		WarehouseID: l.WarehouseID,
		Name:        l.Name,
		Code:        l.Code,
		CreatedAt:   l.CreatedAt,
	}
}
