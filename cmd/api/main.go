package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Bodega-api/docs"
	"github.com/jhoicas/Bodega-api/internal/application/analytics"
	"github.com/jhoicas/Bodega-api/internal/application/auth"
	"github.com/jhoicas/Bodega-api/internal/application/operation"
	"github.com/jhoicas/Bodega-api/internal/application/usecase"
	"github.com/jhoicas/Bodega-api/internal/infrastructure/cache"
	"github.com/jhoicas/Bodega-api/internal/infrastructure/events"
	"github.com/jhoicas/Bodega-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/Bodega-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Bodega-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Bodega-api/internal/interfaces/http"
	"github.com/jhoicas/Bodega-api/pkg/config"
	"github.com/jhoicas/Bodega-api/pkg/logger"
	"github.com/jhoicas/Bodega-api/pkg/tracing"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("version", version).
		Msg("iniciando aplicación")

	tp, err := tracing.Init(cfg.App.Name, version, cfg.Tracing.JaegerEndpoint, cfg.Tracing.Enabled)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar tracing")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(ctx, tp); err != nil {
			log.Error().Err(err).Msg("cerrar tracing")
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB, postgres.WithQueryLog(log, cfg.DB.QueryLog))
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migración del esquema")
		}
	}

	userRepo := postgres.NewUserRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	warehouseRepo := postgres.NewWarehouseRepository(pool)
	locationRepo := postgres.NewLocationRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	operationRepo := postgres.NewOperationRepository(pool)
	dashboardRepo := postgres.NewDashboardRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log)
	categoryUC := usecase.NewCategoryUseCase(categoryRepo)
	productUC := usecase.NewProductUseCase(productRepo, categoryRepo, stockRepo)
	warehouseUC := usecase.NewWarehouseUseCase(warehouseRepo, locationRepo, stockRepo)
	ledgerUC := usecase.NewLedgerUseCase(ledgerRepo)
	dashboardUC := analytics.NewDashboardUseCase(dashboardRepo)

	opMetrics := metrics.NewOperationMetrics(prometheus.DefaultRegisterer)
	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	managerOpts := []operation.Option{operation.WithMetrics(opMetrics)}
	if cfg.Kafka.Enabled() {
		publisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			// sin Kafka la API sigue operando; solo se pierden los eventos
			log.Error().Err(err).Strs("brokers", cfg.Kafka.Brokers).Msg("productor Kafka no disponible")
		} else {
			defer publisher.Close()
			managerOpts = append(managerOpts, operation.WithPublisher(publisher))
		}
	}
	manager := operation.NewManager(txRunner, operationRepo, productRepo, locationRepo, log, managerOpts...)

	// PDF: hoja de operación para firmar en bodega
	slipUC := operation.NewSlipUseCase(operationRepo, productRepo, locationRepo,
		infrapdf.NewMarotoPDFGenerator(cfg.App.Name))

	health := map[string]httpRouter.Pinger{"postgres": pool}
	var loginLimiter httpRouter.LoginLimiter
	if cfg.Redis.URL != "" {
		rdb, err := cache.NewRedis(ctx, cfg.Redis.URL)
		if err != nil {
			log.Error().Err(err).Msg("Redis no disponible, login sin límite de intentos")
		} else {
			defer rdb.Close()
			health["redis"] = cache.NewHealthCheck(rdb)
			if cfg.Auth.LoginRateLimit > 0 {
				window := time.Duration(cfg.Auth.LoginWindowSeconds) * time.Second
				loginLimiter = cache.NewSlidingWindowLimiter(rdb, "login", cfg.Auth.LoginRateLimit, window)
			}
		}
	}

	timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httpRouter.ErrorHandler,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.HTTP.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(httpRouter.Tracing(cfg.App.Name))
	app.Use(httpRouter.RequestTimeout(timeout))
	app.Use(httpRouter.RequestLogger(log))
	app.Use(httpMetrics.Middleware())

	// Swagger UI en local: http://localhost:<port>/docs
	docs.SwaggerInfo.Version = version
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Bodega API",
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:        authUC,
		ProductUC:     productUC,
		CategoryUC:    categoryUC,
		WarehouseUC:   warehouseUC,
		LedgerUC:      ledgerUC,
		DashboardUC:   dashboardUC,
		Operations:    manager,
		Slips:         slipUC,
		Authenticator: authUC,
		AllowSignup:   cfg.Auth.AllowSignup,
		LoginLimiter:  loginLimiter,
		Health:        health,
		Log:           log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
