package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Bodega-api/internal/application/operation"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
)

func TestGenerateOperationSlip_DevuelvePDF(t *testing.T) {
	validated := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
	theoretical := int64(9)
	op := &entity.Operation{
		ID:          "op-1",
		Type:        entity.OperationAdjustment,
		Reference:   "WH/ADJ/00001",
		Status:      entity.StatusDone,
		Note:        "Conteo cíclico",
		CreatedAt:   validated.Add(-time.Hour),
		ValidatedAt: &validated,
	}
	details := operation.SlipDetails{
		DestName: "A-01 Estante",
		Lines: []operation.SlipLine{
			{SKU: "SKU-1", ProductName: "Tornillo", LocationName: "A-01 Estante", Quantity: 5, Theoretical: &theoretical},
		},
	}

	doc, err := NewMarotoPDFGenerator("Bodega Central").GenerateOperationSlip(context.Background(), op, details)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "0", formatUnits(0))
	assert.Equal(t, "999", formatUnits(999))
	assert.Equal(t, "25.000", formatUnits(25000))
	assert.Equal(t, "1.000.000", formatUnits(1000000))
	assert.Equal(t, "-4.500", formatUnits(-4500))
}
