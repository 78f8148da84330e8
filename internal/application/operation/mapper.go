package operation

import (
	"github.com/google/uuid"

	"github.com/jhoicas/Bodega-api/internal/application/dto"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/movement"
)

// buildOperation traduce la petición a la cabecera según el tipo:
// recepción y ajuste usan locationId como destino, entrega como origen.
func buildOperation(t entity.OperationType, in dto.OperationRequest) *entity.Operation {
	op := &entity.Operation{
		Type:          t,
		Reference:     in.ReferenceNo,
		Contact:       in.ContactName(),
		ScheduledDate: in.ScheduledDate,
		Responsible:   in.Responsible,
		Note:          in.Note,
	}
	switch t {
	case entity.OperationReceipt, entity.OperationAdjustment:
		op.SourceLocationID = in.FromLocationID
		op.DestLocationID = firstNonEmpty(in.ToLocationID, in.LocationID)
	case entity.OperationDelivery:
		op.SourceLocationID = firstNonEmpty(in.FromLocationID, in.LocationID)
		op.DestLocationID = in.ToLocationID
	case entity.OperationTransfer:
		op.SourceLocationID = in.FromLocationID
		op.DestLocationID = in.ToLocationID
	}
	for _, it := range in.Items {
		line := entity.OperationLine{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Done:      it.Done,
			UnitCost:  it.UnitCost,
		}
		if t != entity.OperationTransfer {
			line.LocationID = it.LocationID
		}
		op.Lines = append(op.Lines, line)
	}
	return op
}

func assignLineIDs(op *entity.Operation) {
	for i := range op.Lines {
		if op.Lines[i].ID == "" {
			op.Lines[i].ID = uuid.New().String()
		}
		op.Lines[i].OperationID = op.ID
	}
}

func toOperationResponse(op *entity.Operation) *dto.OperationResponse {
	if op == nil {
		return nil
	}
	out := &dto.OperationResponse{
		ID:               op.ID,
		Type:             string(op.Type),
		Reference:        op.Reference,
		Contact:          op.Contact,
		SourceLocationID: op.SourceLocationID,
		DestLocationID:   op.DestLocationID,
		ScheduledDate:    op.ScheduledDate,
		Responsible:      op.Responsible,
		Status:           string(op.Status),
		Note:             op.Note,
		CreatedBy:        op.CreatedBy,
		ValidatedAt:      op.ValidatedAt,
		CreatedAt:        op.CreatedAt,
		UpdatedAt:        op.UpdatedAt,
		Lines:            make([]dto.OperationLineResponse, 0, len(op.Lines)),
	}
	for _, l := range op.Lines {
		out.Lines = append(out.Lines, dto.OperationLineResponse{
			ID:          l.ID,
			ProductID:   l.ProductID,
			LocationID:  l.LocationID,
			Quantity:    l.Quantity,
			Done:        l.Done,
			Theoretical: l.Theoretical,
			UnitCost:    l.UnitCost,
		})
	}
	return out
}

func toShortages(short []movement.Shortage) []dto.ShortageResponse {
	if len(short) == 0 {
		return nil
	}
	out := make([]dto.ShortageResponse, 0, len(short))
	for _, s := range short {
		out = append(out, dto.ShortageResponse(s))
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
