package movement

import (
	"fmt"
	"strings"

	"github.com/jhoicas/Bodega-api/internal/domain"
)

// Shortage par (producto, ubicación) sin existencia suficiente.
type Shortage struct {
	ProductID  string `json:"productId"`
	LocationID string `json:"locationId"`
	Required   int64  `json:"required"`
	Available  int64  `json:"available"`
}

// InsufficientStockError rechazo de negocio con las líneas faltantes.
// errors.Is(err, domain.ErrInsufficientStock) es verdadero.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	if len(e.Shortages) == 0 {
		return "Insufficient stock"
	}
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("Insufficient stock for product %s at location %s", s.ProductID, s.LocationID))
	}
	return strings.Join(parts, "; ")
}

// Is permite comparar contra domain.ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == domain.ErrInsufficientStock
}
