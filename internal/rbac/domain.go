package rbac

import "strings"

// Role is one of the fixed staff roles.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleManager     Role = "MANAGER"
	RoleSeller      Role = "SELLER"
	RoleStorekeeper Role = "STOREKEEPER"
)

// Permission names follow the module.action convention.
const (
	PermCatalogView = "catalog.view"
	PermCatalogEdit = "catalog.edit"
	PermStockView   = "stock.view"
	PermStockEdit   = "stock.edit"
	PermSalesView   = "sales.view"
	PermSalesEdit   = "sales.edit"
	PermAlertsView  = "alerts.view"
	PermReportsView = "reports.view"
	PermUsersManage = "users.manage"
)

// AllRoles lists roles in display order.
var AllRoles = []Role{RoleAdmin, RoleManager, RoleSeller, RoleStorekeeper}

var allPermissions = []string{
	PermCatalogView, PermCatalogEdit,
	PermStockView, PermStockEdit,
	PermSalesView, PermSalesEdit,
	PermAlertsView, PermReportsView,
	PermUsersManage,
}

// rolePermissions is the static capability set per role. Roles are not
// editable at runtime, new capabilities are added here.
var rolePermissions = map[Role][]string{
	RoleAdmin:   allPermissions,
	RoleManager: allPermissions,
	RoleSeller: {
		PermCatalogView,
		PermStockView,
		PermSalesView, PermSalesEdit,
		PermAlertsView,
	},
	RoleStorekeeper: {
		PermCatalogView, PermCatalogEdit,
		PermStockView, PermStockEdit,
		PermAlertsView,
		PermReportsView,
	},
}

// ParseRole validates a raw role value.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	_, ok := rolePermissions[role]
	return role, ok
}

// Permissions returns the capability set granted to a role.
func Permissions(role Role) []string {
	perms, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}
