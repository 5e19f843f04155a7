package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g. "purchase_order:receive"
	Name string `gorm:"type:varchar(100)" json:"name"`
}

const (
	PrivUserView            = "user:view"
	PrivUserCreate          = "user:create"
	PrivUserUpdate          = "user:update"
	PrivUserDelete          = "user:delete"
	PrivUserUpdatePrivilege = "user:update_privilege"

	PrivProductView   = "product:view"
	PrivProductCreate = "product:create"
	PrivProductUpdate = "product:update"
	PrivProductDelete = "product:delete"

	PrivCatalogView   = "catalog:view"
	PrivCatalogManage = "catalog:manage"

	PrivSupplierView   = "supplier:view"
	PrivSupplierManage = "supplier:manage"

	PrivPOView       = "purchase_order:view"
	PrivPOCreate     = "purchase_order:create"
	PrivPOUpdate     = "purchase_order:update"
	PrivPODelete     = "purchase_order:delete"
	PrivPOTransition = "purchase_order:transition"
	PrivPOReceive    = "purchase_order:receive"

	PrivSaleView   = "sale:view"
	PrivSaleCreate = "sale:create"

	PrivStockView     = "stock:view"
	PrivDashboardView = "dashboard:view"

	PrivSettingView   = "setting:view"
	PrivSettingUpdate = "setting:update"
)

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	{Code: PrivUserView, Name: "View User"},
	{Code: PrivUserCreate, Name: "Create User"},
	{Code: PrivUserUpdate, Name: "Update User"},
	{Code: PrivUserDelete, Name: "Delete User"},
	{Code: PrivUserUpdatePrivilege, Name: "Update User Privileges"},
	{Code: PrivProductView, Name: "View Product"},
	{Code: PrivProductCreate, Name: "Create Product"},
	{Code: PrivProductUpdate, Name: "Update Product"},
	{Code: PrivProductDelete, Name: "Delete Product"},
	{Code: PrivCatalogView, Name: "View Brands & Categories"},
	{Code: PrivCatalogManage, Name: "Manage Brands & Categories"},
	{Code: PrivSupplierView, Name: "View Supplier"},
	{Code: PrivSupplierManage, Name: "Manage Supplier"},
	{Code: PrivPOView, Name: "View Purchase Order"},
	{Code: PrivPOCreate, Name: "Create Purchase Order"},
	{Code: PrivPOUpdate, Name: "Update Purchase Order"},
	{Code: PrivPODelete, Name: "Delete Purchase Order"},
	{Code: PrivPOTransition, Name: "Change Purchase Order Status"},
	{Code: PrivPOReceive, Name: "Receive Purchase Order"},
	{Code: PrivSaleView, Name: "View Sale"},
	{Code: PrivSaleCreate, Name: "Create Sale"},
	{Code: PrivStockView, Name: "View Stock Movement"},
	{Code: PrivDashboardView, Name: "View Dashboard"},
	{Code: PrivSettingView, Name: "View Settings"},
	{Code: PrivSettingUpdate, Name: "Update Settings"},
}

// CashierPrivileges is the default set granted to new CASHIER users.
var CashierPrivileges = []string{
	PrivProductView,
	PrivCatalogView,
	PrivSaleView,
	PrivSaleCreate,
	PrivSettingView,
}

// AdminPrivileges is the default set granted to new ADMIN users.
var AdminPrivileges = []string{
	PrivProductView, PrivProductCreate, PrivProductUpdate, PrivProductDelete,
	PrivCatalogView, PrivCatalogManage,
	PrivSupplierView, PrivSupplierManage,
	PrivPOView, PrivPOCreate, PrivPOUpdate, PrivPODelete, PrivPOTransition, PrivPOReceive,
	PrivSaleView, PrivSaleCreate,
	PrivStockView, PrivDashboardView,
	PrivSettingView,
}
