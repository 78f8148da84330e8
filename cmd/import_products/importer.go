package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Bodega-api/internal/application/dto"
	"github.com/jhoicas/Bodega-api/internal/domain"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
)

var expectedHeader = []string{"sku", "name", "category", "unit", "cost", "price"}

// productRow una fila del catálogo a importar.
type productRow struct {
	Line     int
	SKU      string
	Name     string
	Category string
	Unit     string
	Cost     decimal.Decimal
	Price    decimal.Decimal
}

// decodeReader envuelve r según el charset del archivo. Las hojas de cálculo exportadas
// en Windows suelen venir en Latin-1 o Windows-1252.
func decodeReader(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf8", "utf-8":
		return r, nil
	case "latin1", "iso-8859-1", "iso8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("charset no soportado: %q", charset)
	}
}

// parseRows lee el CSV completo. Acepta ',' o ';' como separador; la cabecera es obligatoria.
func parseRows(r io.Reader, sep rune) ([]productRow, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("leer cabecera: %w", err)
	}
	if len(header) < len(expectedHeader) {
		return nil, fmt.Errorf("cabecera inválida: se esperaban %s", strings.Join(expectedHeader, ","))
	}
	for i, col := range expectedHeader {
		got := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")))
		if got != col {
			return nil, fmt.Errorf("cabecera inválida: columna %d es %q, se esperaba %q", i+1, got, col)
		}
	}

	var rows []productRow
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		row, err := toRow(line, rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func toRow(line int, rec []string) (productRow, error) {
	row := productRow{
		Line:     line,
		SKU:      strings.TrimSpace(rec[0]),
		Name:     strings.TrimSpace(rec[1]),
		Category: strings.TrimSpace(rec[2]),
		Unit:     strings.TrimSpace(rec[3]),
	}
	if row.SKU == "" || row.Name == "" {
		return row, fmt.Errorf("línea %d: sku y name son obligatorios", line)
	}
	if row.Unit == "" {
		row.Unit = entity.UnitDefault
	}
	var err error
	if row.Cost, err = parseAmount(rec[4]); err != nil {
		return row, fmt.Errorf("línea %d: cost: %w", line, err)
	}
	if row.Price, err = parseAmount(rec[5]); err != nil {
		return row, fmt.Errorf("línea %d: price: %w", line, err)
	}
	return row, nil
}

// parseAmount acepta coma decimal ("1234,50") además de punto. Vacío es cero.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("valor negativo %s", s)
	}
	return d, nil
}

type categoryService interface {
	Create(ctx context.Context, in dto.CreateCategoryRequest) (*dto.CategoryResponse, error)
}

type categoryFinder interface {
	GetByName(ctx context.Context, name string) (*entity.Category, error)
}

type productService interface {
	Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error)
}

// importer crea categorías faltantes y productos nuevos. Un SKU existente se omite.
type importer struct {
	categories categoryService
	finder     categoryFinder
	products   productService
	cache      map[string]string // nombre en minúsculas -> id
}

type importResult struct {
	Created           int
	Skipped           int
	CategoriesCreated int
}

func newImporter(categories categoryService, finder categoryFinder, products productService) *importer {
	return &importer{categories: categories, finder: finder, products: products, cache: map[string]string{}}
}

func (im *importer) run(ctx context.Context, rows []productRow) (importResult, error) {
	var res importResult
	for _, row := range rows {
		categoryID, created, err := im.categoryID(ctx, row.Category)
		if err != nil {
			return res, fmt.Errorf("línea %d: categoría %q: %w", row.Line, row.Category, err)
		}
		if created {
			res.CategoriesCreated++
		}
		_, err = im.products.Create(ctx, dto.CreateProductRequest{
			SKU:           row.SKU,
			Name:          row.Name,
			CategoryID:    categoryID,
			UnitOfMeasure: row.Unit,
			Cost:          row.Cost,
			Price:         row.Price,
		})
		switch {
		case errors.Is(err, domain.ErrConflict):
			res.Skipped++
		case err != nil:
			return res, fmt.Errorf("línea %d: sku %s: %w", row.Line, row.SKU, err)
		default:
			res.Created++
		}
	}
	return res, nil
}

func (im *importer) categoryID(ctx context.Context, name string) (string, bool, error) {
	if name == "" {
		return "", false, nil
	}
	key := strings.ToLower(name)
	if id, ok := im.cache[key]; ok {
		return id, false, nil
	}
	existing, err := im.finder.GetByName(ctx, name)
	if err != nil {
		return "", false, err
	}
	if existing != nil {
		im.cache[key] = existing.ID
		return existing.ID, false, nil
	}
	created, err := im.categories.Create(ctx, dto.CreateCategoryRequest{Name: name})
	if err != nil {
		return "", false, err
	}
	im.cache[key] = created.ID
	return created.ID, true, nil
}
