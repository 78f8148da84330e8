// Package pdf genera el comprobante imprimible de una operación de bodega.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Tipo de operación   │  Referencia + Estado         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ORIGEN / DESTINO / CONTACTO / FECHA PROGRAMADA             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: SKU | Producto | Ubicación | Cant. | Hecho          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  NOTA + firmas                                              │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/Bodega-api/internal/application/operation"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorHeader  = &props.Color{Red: 230, Green: 236, Blue: 243}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ operation.SlipGenerator = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator implementa operation.SlipGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	company string
	now     func() time.Time
}

// NewMarotoPDFGenerator construye el generador. company aparece como autor del documento.
func NewMarotoPDFGenerator(company string) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{company: company, now: time.Now}
}

// GenerateOperationSlip genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateOperationSlip(
	_ context.Context,
	op *entity.Operation,
	details operation.SlipDetails,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(typeTitle(op.Type)+" "+op.Reference, true).
		WithAuthor(g.company, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(op, g.company))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(partiesRow(op, details))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	adjustment := op.Type == entity.OperationAdjustment
	m.AddRows(tableHeaderRow(adjustment))
	for _, r := range tableDetailRows(details.Lines, adjustment) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(details.Lines))

	m.AddRows(line.NewRow(3))
	for _, r := range footerRows(op, g.now()) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: tipo de operación (izq) y referencia + estado (der).
func headerRow(op *entity.Operation, company string) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(typeTitle(op.Type), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(company, "Bodega"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(op.Reference, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 1,
			}),
			text.New("Estado: "+string(op.Status), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
			text.New("Creada: "+op.CreatedAt.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

// partiesRow: ubicaciones, contacto y fechas.
func partiesRow(op *entity.Operation, d operation.SlipDetails) core.Row {
	scheduled := "—"
	if op.ScheduledDate != nil {
		scheduled = op.ScheduledDate.Format("02/01/2006")
	}
	return row.New(16).Add(
		col.New(6).Add(
			text.New("ORIGEN", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(nonEmpty(d.SourceName, "—"), props.Text{Size: 9, Top: 5}),
			text.New("DESTINO", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 9}),
			text.New(nonEmpty(d.DestName, "—"), props.Text{Size: 9, Top: 13}),
		),
		col.New(6).Add(
			text.New(fmt.Sprintf("Contacto: %s", nonEmpty(op.Contact, "—")), props.Text{
				Size: 8, Align: align.Right, Top: 1, Color: colorGray,
			}),
			text.New(fmt.Sprintf("Responsable: %s", nonEmpty(op.Responsible, "—")), props.Text{
				Size: 8, Align: align.Right, Top: 6, Color: colorGray,
			}),
			text.New("Programada: "+scheduled, props.Text{
				Size: 8, Align: align.Right, Top: 11, Color: colorGray,
			}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla; en ajustes muestra teórico y contado.
func tableHeaderRow(adjustment bool) core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	qty, done := "Cant.", "Hecho"
	if adjustment {
		qty, done = "Teórico", "Contado"
	}
	return row.New(8).WithStyle(&props.Cell{BackgroundColor: colorHeader}).Add(
		h("SKU", 2, align.Left),
		h("Producto", 4, align.Left),
		h("Ubicación", 3, align.Left),
		h(qty, 1, align.Right),
		h(done, 2, align.Right),
	)
}

// tableDetailRows: una fila por línea.
func tableDetailRows(lines []operation.SlipLine, adjustment bool) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		first, second := qtyText(l.Quantity, l.UnitMeasure), qtyText(l.Done, l.UnitMeasure)
		if adjustment {
			first = "—"
			if l.Theoretical != nil {
				first = strconv.FormatInt(*l.Theoretical, 10)
			}
			second = strconv.FormatInt(l.Quantity, 10)
		}
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(nonEmpty(l.SKU, "—"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(4).Add(text.New(l.ProductName, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(3).Add(text.New(nonEmpty(l.LocationName, "—"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(first, props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(second, props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

// totalsRow: unidades totales de la operación.
func totalsRow(lines []operation.SlipLine) core.Row {
	var total int64
	for _, l := range lines {
		total += l.Quantity
	}
	return row.New(8).Add(
		col.New(6),
		col.New(3).Add(text.New("Total unidades:", props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 1,
		})),
		col.New(3).Add(text.New(formatUnits(total), props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 1,
		})),
	)
}

// footerRows: nota, código de barras de la referencia y firmas.
func footerRows(op *entity.Operation, printedAt time.Time) []core.Row {
	var rows []core.Row
	if op.Note != "" {
		rows = append(rows,
			row.New(5).Add(col.New(12).Add(text.New("NOTA", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}))),
			row.New(10).Add(col.New(12).Add(text.New(op.Note, props.Text{Size: 8, Top: 1, Color: colorGray}))),
		)
	}

	rows = append(rows, row.New(18).Add(
		col.New(5).Add(code.NewBar(op.Reference, props.Barcode{Percent: 90})),
		col.New(7).Add(
			text.New("Entregado por: ______________________", props.Text{Size: 8, Top: 3, Left: 3}),
			text.New("Recibido por:  ______________________", props.Text{Size: 8, Top: 11, Left: 3}),
		),
	))

	validated := "pendiente de validación"
	if op.ValidatedAt != nil {
		validated = "validada el " + op.ValidatedAt.Format("02/01/2006 15:04")
	}
	rows = append(rows, row.New(8).Add(col.New(12).Add(
		text.New(
			fmt.Sprintf("Operación %s. Impreso el %s.", validated, printedAt.Format("02/01/2006 15:04")),
			props.Text{Size: 6.5, Color: colorGray, Top: 2},
		),
	)))
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func typeTitle(t entity.OperationType) string {
	switch t {
	case entity.OperationReceipt:
		return "RECEPCIÓN"
	case entity.OperationDelivery:
		return "ENTREGA"
	case entity.OperationTransfer:
		return "TRASLADO INTERNO"
	default:
		return "AJUSTE DE INVENTARIO"
	}
}

func qtyText(n int64, unit string) string {
	if unit == "" || unit == entity.UnitDefault {
		return formatUnits(n)
	}
	return formatUnits(n) + " " + unit
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatUnits inserta puntos de miles. Ej: 25000 → "25.000".
func formatUnits(v int64) string {
	s := strconv.FormatInt(v, 10)
	neg := v < 0
	if neg {
		s = s[1:]
	}
	n := len(s)
	buf := make([]byte, 0, n+n/3+1)
	if neg {
		buf = append(buf, '-')
	}
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
