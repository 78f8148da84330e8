package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/Bodega-api/internal/application/dto"
	"github.com/jhoicas/Bodega-api/internal/domain"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/repository"
)

const dateLayout = "2006-01-02"

// LedgerUseCase consulta y conciliación del kardex.
type LedgerUseCase struct {
	repo repository.LedgerRepository
	now  func() time.Time
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(repo repository.LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{repo: repo, now: time.Now}
}

// List kardex filtrado, más reciente primero.
// dateFrom/dateTo aceptan RFC3339 o YYYY-MM-DD; una fecha sin hora en dateTo incluye el día completo.
func (uc *LedgerUseCase) List(ctx context.Context, q dto.LedgerQuery) (*dto.LedgerListResponse, error) {
	page := q.Page
	page.DefaultPage()
	filter := entity.LedgerFilter{
		ProductID:  strings.TrimSpace(q.ProductID),
		LocationID: strings.TrimSpace(q.LocationID),
		Type:       entity.OperationType(strings.ToUpper(q.Type)),
		Reference:  strings.TrimSpace(q.Reference),
		Limit:      page.Limit(),
		Offset:     page.Offset(),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, fmt.Errorf("%w: tipo %q", domain.ErrInvalidInput, q.Type)
	}
	var err error
	if filter.DateFrom, err = parseDate(q.DateFrom, false); err != nil {
		return nil, err
	}
	if filter.DateTo, err = parseDate(q.DateTo, true); err != nil {
		return nil, err
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateTo.Before(*filter.DateFrom) {
		return nil, fmt.Errorf("%w: dateTo anterior a dateFrom", domain.ErrInvalidInput)
	}

	list, total, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.LedgerEntryResponse, 0, len(list))
	for _, e := range list {
		items = append(items, dto.LedgerEntryResponse{
			ID:         e.ID,
			ProductID:  e.ProductID,
			LocationID: e.LocationID,
			Change:     e.Change,
			Type:       string(e.Type),
			Reference:  e.Reference,
			Note:       e.Note,
			CreatedBy:  e.CreatedBy,
			CreatedAt:  e.CreatedAt,
		})
	}
	return &dto.LedgerListResponse{Items: items, Page: dto.NewPageResponse(page, total)}, nil
}

// Reconcile compara cada fila de stock con la suma de su kardex.
func (uc *LedgerUseCase) Reconcile(ctx context.Context, productID string) (*dto.ReconcileResponse, error) {
	drifts, err := uc.repo.Reconcile(ctx, strings.TrimSpace(productID))
	if err != nil {
		return nil, err
	}
	out := &dto.ReconcileResponse{
		Consistent: len(drifts) == 0,
		Drifts:     make([]dto.LedgerDriftResponse, 0, len(drifts)),
		CheckedAt:  uc.now(),
	}
	for _, d := range drifts {
		out.Drifts = append(out.Drifts, dto.LedgerDriftResponse{
			ProductID:   d.ProductID,
			LocationID:  d.LocationID,
			StockQty:    d.StockQty,
			LedgerTotal: d.LedgerTotal,
			Difference:  d.StockQty - d.LedgerTotal,
		})
	}
	return out, nil
}

func parseDate(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: fecha %q (use YYYY-MM-DD o RFC3339)", domain.ErrInvalidInput, s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
