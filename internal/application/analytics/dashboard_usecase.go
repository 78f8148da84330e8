// Package analytics contiene los casos de uso del tablero de operaciones de bodega.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Bodega-api/internal/application/dto"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/repository"
)

const dashboardTopMovers = 5 // productos en el widget de más movimiento

// DashboardUseCase genera el resumen de operaciones abiertas e inventario.
//
// Fuente de datos: DashboardRepository (consultas read-only).
type DashboardUseCase struct {
	repo repository.DashboardRepository
	now  func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(repo repository.DashboardRepository) *DashboardUseCase {
	return &DashboardUseCase{repo: repo, now: time.Now}
}

// GetSummary construye el DashboardSummaryDTO.
//
// Tres llamadas en paralelo:
//  1. GetOperationCounts(ahora)   → tarjetas por tipo (por procesar, en espera, atrasadas)
//  2. GetInventoryTotals()        → productos, ubicaciones, unidades y valorización
//  3. GetTopMovers(mes, top 5)    → TopMovers
func (uc *DashboardUseCase) GetSummary(ctx context.Context) (*dto.DashboardSummaryDTO, error) {
	now := uc.now()

	// ── Mes en curso: día 1 a las 00:00 – ahora ───────────────────────────────
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	type countsResult struct {
		counts []repository.OperationCountResult
		err    error
	}
	type totalsResult struct {
		totals *repository.InventoryTotals
		err    error
	}
	type moversResult struct {
		movers []repository.TopMoverResult
		err    error
	}

	countsCh := make(chan countsResult, 1)
	totalsCh := make(chan totalsResult, 1)
	moversCh := make(chan moversResult, 1)

	go func() {
		c, err := uc.repo.GetOperationCounts(ctx, now)
		countsCh <- countsResult{c, err}
	}()
	go func() {
		t, err := uc.repo.GetInventoryTotals(ctx)
		totalsCh <- totalsResult{t, err}
	}()
	go func() {
		m, err := uc.repo.GetTopMovers(ctx, monthStart, now, dashboardTopMovers)
		moversCh <- moversResult{m, err}
	}()

	counts := <-countsCh
	totals := <-totalsCh
	movers := <-moversCh

	if counts.err != nil {
		return nil, fmt.Errorf("dashboard: conteo de operaciones: %w", counts.err)
	}
	if totals.err != nil {
		return nil, fmt.Errorf("dashboard: totales de inventario: %w", totals.err)
	}
	if movers.err != nil {
		return nil, fmt.Errorf("dashboard: productos con más movimiento: %w", movers.err)
	}

	// ── Una tarjeta por tipo, aunque no tenga operaciones ─────────────────────
	byType := make(map[entity.OperationType]repository.OperationCountResult, len(counts.counts))
	for _, c := range counts.counts {
		byType[c.Type] = c
	}
	out := &dto.DashboardSummaryDTO{
		Operations: make([]dto.OperationCountDTO, 0, len(entity.OperationTypes)),
		TopMovers:  make([]dto.TopMoverDTO, 0, len(movers.movers)),
		DateLabel:  monthLabel(now),
	}
	for _, t := range entity.OperationTypes {
		c := byType[t]
		out.Operations = append(out.Operations, dto.OperationCountDTO{
			Type:      string(t),
			ToProcess: c.Ready,
			Waiting:   c.Waiting,
			Late:      c.Late,
			Draft:     c.Draft,
		})
	}
	if totals.totals != nil {
		out.Products = totals.totals.Products
		out.Locations = totals.totals.Locations
		out.OnHand = totals.totals.OnHand
		out.Valuation = totals.totals.Valuation.Round(2)
	}
	for _, m := range movers.movers {
		out.TopMovers = append(out.TopMovers, dto.TopMoverDTO{
			ProductID:   m.ProductID,
			SKU:         m.SKU,
			ProductName: m.ProductName,
			UnitsIn:     m.UnitsIn,
			UnitsOut:    m.UnitsOut,
		})
	}
	return out, nil
}

// monthLabel devuelve una etiqueta legible del mes, ej: "Febrero 2026".
func monthLabel(t time.Time) string {
	months := [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}
