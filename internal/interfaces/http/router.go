package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Bodega-api/internal/application/analytics"
	"github.com/jhoicas/Bodega-api/internal/application/usecase"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      authService
	ProductUC   *usecase.ProductUseCase
	CategoryUC  *usecase.CategoryUseCase
	WarehouseUC *usecase.WarehouseUseCase
	LedgerUC    *usecase.LedgerUseCase
	DashboardUC *analytics.DashboardUseCase
	Operations  operationService
	Slips       slipService

	Authenticator Authenticator
	AllowSignup   bool
	LoginLimiter  LoginLimiter // nil = sin límite
	Health        map[string]Pinger
	Log           *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	app.Get("/health", NewHealthHandler(deps.Health).Health)

	api := app.Group("/api")
	manager := RequireRole(entity.RoleManager)
	authMW := AuthMiddleware(deps.Authenticator)

	// Auth
	authHandler := NewAuthHandler(deps.AuthUC, deps.AllowSignup)
	authGroup := api.Group("/auth")
	loginChain := []fiber.Handler{authHandler.Login}
	if deps.LoginLimiter != nil {
		loginChain = append([]fiber.Handler{RateLimit(deps.LoginLimiter, log)}, loginChain...)
	}
	authGroup.Post("/login", loginChain...)
	authGroup.Post("/signup", authHandler.Signup)
	authGroup.Post("/register", authMW, manager, authHandler.Register)
	authGroup.Get("/me", authMW, authHandler.Me)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", authMW)

	// Usuarios (solo gerentes)
	users := protected.Group("/users", manager)
	users.Get("/", authHandler.ListUsers)
	users.Patch("/:id/active", authHandler.SetActive)

	// Categorías
	categoryHandler := NewCategoryHandler(deps.CategoryUC)
	categories := protected.Group("/categories")
	categories.Post("/", categoryHandler.Create)
	categories.Get("/", categoryHandler.List)
	categories.Get("/:id", categoryHandler.GetByID)
	categories.Put("/:id", categoryHandler.Update)
	categories.Delete("/:id", manager, categoryHandler.Delete)

	// Productos
	productHandler := NewProductHandler(deps.ProductUC)
	products := protected.Group("/products")
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Get("/:id/stock", productHandler.Stock)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", manager, productHandler.Delete)

	// Bodegas y ubicaciones
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses := protected.Group("/warehouses")
	warehouses.Post("/", manager, warehouseHandler.Create)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Put("/:id", manager, warehouseHandler.Update)
	warehouses.Post("/:id/locations", manager, warehouseHandler.CreateLocation)

	locations := protected.Group("/locations")
	locations.Post("/", manager, warehouseHandler.CreateLocation)
	locations.Get("/", warehouseHandler.ListLocations)
	locations.Get("/:id", warehouseHandler.GetLocation)
	locations.Get("/:id/stock", warehouseHandler.LocationStock)

	// Operaciones: un handler por tipo sobre el mismo Manager
	for path, t := range map[string]entity.OperationType{
		"/receipts":   entity.OperationReceipt,
		"/deliveries": entity.OperationDelivery,
		"/transfers":  entity.OperationTransfer,
	} {
		h := NewOperationHandler(t, deps.Operations, deps.Slips)
		g := protected.Group(path)
		g.Post("/", h.Create)
		h.register(g)
	}

	adjustmentHandler := NewOperationHandler(entity.OperationAdjustment, deps.Operations, deps.Slips)
	adjustments := protected.Group("/adjustments")
	adjustments.Post("/", adjustmentHandler.QuickAdjust)
	adjustments.Post("/draft", adjustmentHandler.Create)
	adjustmentHandler.register(adjustments)

	// Kardex
	ledgerHandler := NewLedgerHandler(deps.LedgerUC)
	ledger := protected.Group("/ledger")
	ledger.Get("/", ledgerHandler.List)
	ledger.Get("/reconcile", manager, ledgerHandler.Reconcile)

	// Dashboard
	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	protected.Get("/dashboard/summary", dashboardHandler.GetSummary)
}
