package handler

import (
	"go-inventory-pos/internal/middleware"
	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/repository"
	"go-inventory-pos/internal/ws"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth           *AuthHandler
	Users          *UserHandler
	Roles          *RoleHandler
	Dashboard      *DashboardHandler
	Products       *ProductHandler
	Brands         *CatalogHandler[model.Brand]
	Categories     *CatalogHandler[model.Category]
	Suppliers      *CatalogHandler[model.Supplier]
	PurchaseOrders *PurchaseOrderHandler
	Sales          *SaleHandler
	Settings       *SettingHandler
}

// Register mounts every route under /api/v1 plus the /ws stream.
func Register(app *fiber.App, h Handlers, userRepo repository.UserRepository, hub *ws.Hub) {
	requireAuth := middleware.RequireAuth(userRepo)
	can := middleware.RequirePrivilege

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", h.Auth.Login)
	auth.Post("/reset-password", h.Auth.ResetPassword)
	auth.Post("/validate-token", h.Auth.ValidateToken)
	auth.Post("/heartbeat", requireAuth, h.Auth.Heartbeat)
	auth.Post("/logout", requireAuth, h.Auth.Logout)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	protected.Get("/dashboard/stats", can(model.PrivDashboardView), h.Dashboard.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", can(model.PrivDashboardView), h.Dashboard.GetStockMovement)

	protected.Get("/products", can(model.PrivProductView), h.Products.GetProducts)
	protected.Get("/products/:id", can(model.PrivProductView), h.Products.GetProduct)
	protected.Post("/products", can(model.PrivProductCreate), h.Products.CreateProduct)
	protected.Put("/products/:id", can(model.PrivProductUpdate), h.Products.UpdateProduct)
	protected.Delete("/products/:id", can(model.PrivProductDelete), h.Products.DeleteProduct)

	protected.Get("/stock-movements", can(model.PrivStockView), h.Products.GetMovements)
	protected.Post("/stock-movements", can(model.PrivProductUpdate), h.Products.AdjustStock)

	h.Brands.Mount(protected.Group("/brands"), can(model.PrivCatalogView), can(model.PrivCatalogManage))
	h.Categories.Mount(protected.Group("/categories"), can(model.PrivCatalogView), can(model.PrivCatalogManage))
	h.Suppliers.Mount(protected.Group("/suppliers"), can(model.PrivSupplierView), can(model.PrivSupplierManage))

	po := protected.Group("/purchase-orders")
	po.Get("/", can(model.PrivPOView), h.PurchaseOrders.ListOrders)
	po.Get("/:id", can(model.PrivPOView), h.PurchaseOrders.GetOrder)
	po.Get("/:id/pdf", can(model.PrivPOView), h.PurchaseOrders.DownloadPDF)
	po.Post("/", can(model.PrivPOCreate), h.PurchaseOrders.CreateOrder)
	po.Put("/:id", can(model.PrivPOUpdate), h.PurchaseOrders.UpdateOrder)
	po.Post("/:id/status", can(model.PrivPOTransition), h.PurchaseOrders.UpdateStatus)
	po.Delete("/:id", can(model.PrivPODelete), h.PurchaseOrders.DeleteOrder)

	protected.Get("/sales", can(model.PrivSaleView), h.Sales.ListSales)
	protected.Get("/sales/:id", can(model.PrivSaleView), h.Sales.GetSale)
	protected.Get("/sales/:id/invoice", can(model.PrivSaleView), h.Sales.DownloadInvoice)
	protected.Post("/sales", can(model.PrivSaleCreate), h.Sales.RecordSale)

	protected.Get("/settings", can(model.PrivSettingView), h.Settings.GetSettings)
	protected.Put("/settings", can(model.PrivSettingUpdate), h.Settings.UpdateSettings)
	protected.Get("/settings/logo", h.Settings.GetLogo)
	protected.Post("/settings/logo", can(model.PrivSettingUpdate), h.Settings.UploadLogo)
	protected.Delete("/settings/logo", can(model.PrivSettingUpdate), h.Settings.RemoveLogo)

	protected.Get("/users", can(model.PrivUserView), h.Users.GetUsers)
	protected.Get("/users/:id", can(model.PrivUserView), h.Users.GetUser)
	protected.Post("/users", can(model.PrivUserCreate), h.Users.CreateUser)
	protected.Put("/users/:id", can(model.PrivUserUpdate), h.Users.UpdateUser)
	protected.Delete("/users/:id", can(model.PrivUserDelete), h.Users.DeleteUser)
	protected.Put("/users/:id/privileges", can(model.PrivUserUpdatePrivilege), h.Users.UpdateUserPrivileges)

	// Role and privilege lists feed the user management forms.
	manageUsers := middleware.RequireAnyPrivilege(model.PrivUserView, model.PrivUserCreate, model.PrivUserUpdate, model.PrivUserUpdatePrivilege)
	protected.Get("/roles", manageUsers, h.Roles.GetRoles)
	protected.Get("/privileges", manageUsers, h.Roles.GetPrivileges)

	// Browsers cannot set headers on upgrade, so the token rides in ?token=.
	app.Use("/ws", UpgradeOnly, requireAuth)
	app.Get("/ws", Stream(hub))
}
