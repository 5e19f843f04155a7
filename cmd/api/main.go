package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"go-inventory-pos/internal/config"
	"go-inventory-pos/internal/handler"
	"go-inventory-pos/internal/lock"
	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/pdf"
	"go-inventory-pos/internal/repository"
	"go-inventory-pos/internal/service"
	"go-inventory-pos/internal/storage"
	"go-inventory-pos/internal/ws"
	"go-inventory-pos/pkg/database"
	"go-inventory-pos/pkg/jwt"
	"go-inventory-pos/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Env
	cfg, envFound, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()
	if !envFound {
		log.Warn(".env file not found, relying on system env")
	}
	jwt.Configure(cfg.JWTSecret, cfg.JWTTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg, log)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	// Auto Migrate (use a separate migration tool in production)
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		log.Fatal("auto migrate", zap.Error(err))
	}

	// 3. Setup WebSocket Hub
	wsHub := ws.NewHub(log)
	go wsHub.Run(ctx)

	// 4. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	movementRepo := repository.NewStockMovementRepo(db)
	orderRepo := repository.NewPurchaseOrderRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	counterRepo := repository.NewCounterRepo(db)
	brandRepo := repository.NewBrandRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	supplierRepo := repository.NewSupplierRepo(db)
	settingRepo := repository.NewSettingRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	userService := service.NewUserService(userRepo, privilegeRepo, roleRepo, wsHub, log)
	seed(ctx, log, cfg, privilegeRepo, roleRepo, userService)

	store, err := storage.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("storage", zap.Error(err))
	}
	renderer := pdf.NewChromeRenderer(cfg.ChromeRemoteURL, cfg.PDFTimeout, log)
	defer renderer.Close()

	orderService := service.NewPurchaseOrderService(db, orderRepo, productRepo, supplierRepo, counterRepo, movementRepo,
		service.WithLocker(newLocker(ctx, log, cfg)),
		service.WithHub(wsHub),
		service.WithLogger(log),
	)
	productService := service.NewProductService(db, productRepo, movementRepo, brandRepo, categoryRepo, wsHub, log)
	saleService := service.NewSaleService(db, saleRepo, productRepo, counterRepo, movementRepo, wsHub, log)
	settingService := service.NewSettingService(settingRepo, store, wsHub, log)
	documentService := service.NewDocumentService(orderService, saleService, settingService, renderer, log)

	handlers := handler.Handlers{
		Auth:           handler.NewAuthHandler(service.NewAuthService(userRepo, wsHub, log)),
		Users:          handler.NewUserHandler(userService),
		Roles:          handler.NewRoleHandler(userService),
		Dashboard:      handler.NewDashboardHandler(service.NewDashboardService(movementRepo)),
		Products:       handler.NewProductHandler(productService),
		Brands:         handler.NewCatalogHandler(service.NewBrandService(brandRepo, log), "Brand"),
		Categories:     handler.NewCatalogHandler(service.NewCategoryService(categoryRepo, log), "Category"),
		Suppliers:      handler.NewCatalogHandler(service.NewSupplierService(supplierRepo, log), "Supplier"),
		PurchaseOrders: handler.NewPurchaseOrderHandler(orderService, documentService),
		Sales:          handler.NewSaleHandler(saleService, documentService),
		Settings:       handler.NewSettingHandler(settingService),
	}

	// 5. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		BodyLimit:    cfg.BodyLimitBytes(),
		ErrorHandler: handler.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(logger.FiberMiddleware(log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + logger.RequestIDHeader,
	}))
	app.Use("/api", limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
	}))

	if local, ok := store.(*storage.Local); ok {
		app.Static(strings.TrimSuffix(cfg.StoragePublicURL, "/"), local.Root())
	}

	// 6. Routes
	handler.Register(app, handlers, userRepo, wsHub)

	// 7. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Panic("listen", zap.Error(err))
		}
	}()
	log.Info("server started", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))

	<-ctx.Done()

	log.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server exited")
}

// seed creates default privileges, roles, and the bootstrap admin if they don't exist.
func seed(ctx context.Context, log *zap.Logger, cfg *config.Config, privileges repository.PrivilegeRepository, roles repository.RoleRepository, users service.UserService) {
	// Roles link to privileges by code, so privileges go first.
	if err := privileges.SeedDefaults(ctx); err != nil {
		log.Warn("seed privileges", zap.Error(err))
	}
	if err := roles.SeedDefaults(ctx); err != nil {
		log.Warn("seed roles", zap.Error(err))
	}

	created, err := users.EnsureMasterAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
	switch {
	case err != nil:
		log.Warn("seed admin user", zap.Error(err))
	case created:
		log.Info("admin user created", zap.String("email", cfg.AdminEmail), zap.String("role", model.RoleMasterAdmin))
		if !cfg.IsProduction() && cfg.AdminPassword == "admin123" {
			log.Warn("admin is using the default password, change it after first login")
		}
	}
}

// newLocker returns a Redis-backed order lock, or a no-op lock when Redis is not configured or unreachable.
func newLocker(ctx context.Context, log *zap.Logger, cfg *config.Config) lock.Locker {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set, purchase order locking disabled")
		return lock.Noop{}
	}
	client, err := lock.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Warn("redis unavailable, purchase order locking disabled", zap.Error(err))
		return lock.Noop{}
	}
	return lock.NewRedisLocker(client, cfg.LockTTL)
}
