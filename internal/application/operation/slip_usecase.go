package operation

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/repository"
)

// SlipLine línea del comprobante con nombres legibles.
type SlipLine struct {
	SKU          string
	ProductName  string
	UnitMeasure  string
	LocationName string
	Quantity     int64
	Done         int64
	Theoretical  *int64
}

// SlipDetails datos resueltos para imprimir una operación.
type SlipDetails struct {
	SourceName string
	DestName   string
	Lines      []SlipLine
}

// SlipGenerator genera el documento imprimible de una operación.
type SlipGenerator interface {
	GenerateOperationSlip(ctx context.Context, op *entity.Operation, details SlipDetails) ([]byte, error)
}

// SlipUseCase arma el comprobante (PDF) de recepciones, entregas, traslados y ajustes.
type SlipUseCase struct {
	ops       repository.OperationRepository
	products  repository.ProductRepository
	locations repository.LocationRepository
	generator SlipGenerator
}

// NewSlipUseCase construye el caso de uso.
func NewSlipUseCase(
	ops repository.OperationRepository,
	products repository.ProductRepository,
	locations repository.LocationRepository,
	generator SlipGenerator,
) *SlipUseCase {
	return &SlipUseCase{ops: ops, products: products, locations: locations, generator: generator}
}

// DownloadSlip devuelve los bytes del documento y el nombre de archivo sugerido.
func (uc *SlipUseCase) DownloadSlip(ctx context.Context, t entity.OperationType, id string) ([]byte, string, error) {
	op, err := loadTyped(ctx, uc.ops, t, id, false)
	if err != nil {
		return nil, "", err
	}

	locNames := map[string]string{}
	locationName := func(id string) (string, error) {
		if id == "" {
			return "", nil
		}
		if n, ok := locNames[id]; ok {
			return n, nil
		}
		loc, err := uc.locations.GetByID(ctx, id)
		if err != nil {
			return "", fmt.Errorf("comprobante: obtener ubicación: %w", err)
		}
		n := id
		if loc != nil {
			n = loc.Name
			if loc.Code != "" {
				n = loc.Code + " " + loc.Name
			}
		}
		locNames[id] = n
		return n, nil
	}

	details := SlipDetails{Lines: make([]SlipLine, 0, len(op.Lines))}
	if details.SourceName, err = locationName(op.SourceLocationID); err != nil {
		return nil, "", err
	}
	if details.DestName, err = locationName(op.DestLocationID); err != nil {
		return nil, "", err
	}
	for _, l := range op.Lines {
		line := SlipLine{
			ProductName: "Producto " + l.ProductID,
			Quantity:    l.Quantity,
			Done:        l.Done,
			Theoretical: l.Theoretical,
		}
		p, err := uc.products.GetByID(ctx, l.ProductID)
		if err != nil {
			return nil, "", fmt.Errorf("comprobante: obtener producto: %w", err)
		}
		if p != nil {
			line.SKU, line.ProductName, line.UnitMeasure = p.SKU, p.Name, p.UnitMeasure
		}
		if line.LocationName, err = locationName(l.LocationID); err != nil {
			return nil, "", err
		}
		details.Lines = append(details.Lines, line)
	}

	doc, err := uc.generator.GenerateOperationSlip(ctx, op, details)
	if err != nil {
		return nil, "", fmt.Errorf("comprobante: generación fallida: %w", err)
	}
	return doc, slipFilename(op.Reference), nil
}

func slipFilename(reference string) string {
	return strings.ReplaceAll(strings.ToLower(reference), "/", "_") + ".pdf"
}
