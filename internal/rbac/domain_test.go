package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type staticLookup struct {
	role Role
	err  error
}

func (l staticLookup) RoleOf(context.Context, int64) (Role, error) {
	return l.role, l.err
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole(" seller ")
	require.True(t, ok)
	require.Equal(t, RoleSeller, role)

	_, ok = ParseRole("ROOT")
	require.False(t, ok)
}

func TestPermissionsPerRole(t *testing.T) {
	require.ElementsMatch(t, allPermissions, Permissions(RoleAdmin))
	require.ElementsMatch(t, allPermissions, Permissions(RoleManager))

	seller := Permissions(RoleSeller)
	require.Contains(t, seller, PermSalesEdit)
	require.NotContains(t, seller, PermStockEdit)
	require.NotContains(t, seller, PermUsersManage)

	storekeeper := Permissions(RoleStorekeeper)
	require.Contains(t, storekeeper, PermStockEdit)
	require.Contains(t, storekeeper, PermCatalogEdit)
	require.NotContains(t, storekeeper, PermSalesEdit)

	require.Nil(t, Permissions(Role("ROOT")))
}

func TestEffectivePermissions(t *testing.T) {
	svc := NewService(staticLookup{role: RoleSeller})
	perms, err := svc.EffectivePermissions(context.Background(), 1)
	require.NoError(t, err)
	require.ElementsMatch(t, Permissions(RoleSeller), perms)
}
