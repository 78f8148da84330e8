// import_products carga el catálogo inicial desde un CSV con cabecera
// sku,name,category,unit,cost,price. Las categorías que no existen se crean y los SKU
// ya registrados se omiten, así que el comando se puede repetir sin duplicar.
//
// Uso: go run ./cmd/import_products -file catalogo.csv [-charset latin1] [-sep ';'] [-dry-run]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/jhoicas/Bodega-api/internal/application/usecase"
	"github.com/jhoicas/Bodega-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Bodega-api/pkg/config"
	"github.com/jhoicas/Bodega-api/pkg/logger"
)

func main() {
	file := flag.String("file", "", "ruta del CSV (obligatorio)")
	charset := flag.String("charset", "utf8", "utf8, latin1 o windows-1252")
	sep := flag.String("sep", ",", "separador de columnas")
	dryRun := flag.Bool("dry-run", false, "solo valida el archivo")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}
	comma, size := utf8.DecodeRuneInString(*sep)
	if size == 0 || size != len(*sep) {
		fmt.Fprintf(os.Stderr, "Separador inválido: %q\n", *sep)
		os.Exit(2)
	}

	f, err := os.Open(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	r, err := decodeReader(f, *charset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}
	rows, err := parseRows(r, comma)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}
	if *dryRun {
		fmt.Printf("%d productos válidos en %s\n", len(rows), *file)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "import_products"})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	categoryRepo := postgres.NewCategoryRepository(pool)
	im := newImporter(
		usecase.NewCategoryUseCase(categoryRepo),
		categoryRepo,
		usecase.NewProductUseCase(postgres.NewProductRepository(pool), categoryRepo, postgres.NewStockRepository(pool)),
	)
	res, err := im.run(ctx, rows)
	if err != nil {
		log.Error().Err(err).Int("created", res.Created).Msg("importación interrumpida")
		os.Exit(1)
	}
	log.Info().
		Int("created", res.Created).
		Int("skipped", res.Skipped).
		Int("categories_created", res.CategoriesCreated).
		Msg("importación completa")
}
