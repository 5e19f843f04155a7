package model

// Role represents user roles in the system
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

const (
	RoleMasterAdmin = "MASTER_ADMIN"
	RoleAdmin       = "ADMIN"
	RoleCashier     = "CASHIER"
)

var DefaultRoles = []Role{
	{
		Code:        RoleMasterAdmin,
		Name:        "Master Administrator",
		Description: "Full system access with all privileges",
	},
	{
		Code:        RoleAdmin,
		Name:        "Administrator",
		Description: "Back-office access: catalog, suppliers, purchasing and sales",
	},
	{
		Code:        RoleCashier,
		Name:        "Cashier",
		Description: "Point-of-sale access",
	},
}

// DefaultPrivilegesFor returns the privilege codes a new user of the given role starts with.
func DefaultPrivilegesFor(roleCode string) []string {
	switch roleCode {
	case RoleMasterAdmin:
		codes := make([]string, len(DefaultPrivileges))
		for i, p := range DefaultPrivileges {
			codes[i] = p.Code
		}
		return codes
	case RoleAdmin:
		return AdminPrivileges
	case RoleCashier:
		return CashierPrivileges
	}
	return nil
}
