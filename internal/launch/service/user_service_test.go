package service

import (
	"context"
	"testing"

	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/repository"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roleByCode(t *testing.T, env *testEnv, code string) string {
	t.Helper()
	role, err := env.repos.Role.FindByCode(context.Background(), code)
	require.NoError(t, err)
	return role.ID
}

func TestUserService_SystemRolesAreProtected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.users.EnsureSystemRoles(ctx))
	require.NoError(t, env.users.EnsureSystemRoles(ctx))

	roles, err := env.users.ListRoles(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, len(SystemRoles))

	err = env.users.DeleteRole(ctx, roleByCode(t, env, AdminRoleCode))
	assert.ErrorIs(t, err, ErrProtectedRole)

	custom, err := env.users.CreateRole(ctx, &RoleRequest{Code: " Category ", Name: "Category manager"})
	require.NoError(t, err)
	assert.Equal(t, "category", custom.Code)
	renamed, err := env.users.UpdateRole(ctx, custom.ID, &RoleRequest{Name: "Kategori"})
	require.NoError(t, err)
	assert.Equal(t, "category", renamed.Code)
	require.NoError(t, env.users.DeleteRole(ctx, custom.ID))

	_, err = env.users.CreateRole(ctx, &RoleRequest{Name: "No code"})
	assert.ErrorIs(t, err, ErrInvalidUserInput)
}

func TestUserService_GroupRolesFeedRoster(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.users.EnsureSystemRoles(ctx))

	anna, err := env.users.CreateUser(ctx, &CreateUserRequest{Username: "anna", Name: "Anna", Password: "pw"})
	require.NoError(t, err)
	bo, err := env.users.CreateUser(ctx, &CreateUserRequest{Username: "bo", Name: "Bo", Password: "pw", RoleCodes: []string{schedule.RoleKAM}})
	require.NoError(t, err)
	assert.Equal(t, []string{schedule.RoleKAM}, bo.RoleCodes)

	group, err := env.users.CreateGroup(ctx, &GroupRequest{Name: "Logistik"})
	require.NoError(t, err)
	require.NoError(t, env.users.AddGroupRole(ctx, group.ID, roleByCode(t, env, schedule.RoleLogistics)))
	require.NoError(t, env.users.AddMember(ctx, group.ID, anna.ID))

	roster, err := env.users.Roster(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "Anna", roster[0].Name)
	assert.True(t, roster[0].HasRole(schedule.RoleLogistics))
	assert.True(t, roster[1].HasRole(schedule.RoleKAM))

	require.NoError(t, env.users.RemoveMember(ctx, group.ID, anna.ID))
	got, err := env.users.GetUser(ctx, anna.ID)
	require.NoError(t, err)
	assert.Empty(t, got.RoleCodes)

	require.NoError(t, env.users.AssignRole(ctx, anna.ID, roleByCode(t, env, schedule.RoleMasterData)))
	got, err = env.users.GetUser(ctx, anna.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{schedule.RoleMasterData}, got.RoleCodes)

	require.NoError(t, env.users.DeleteGroup(ctx, group.ID))
	groups, err := env.users.ListGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestUserService_CreateUserValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.CreateUser(ctx, &CreateUserRequest{Username: " ", Name: "X", Password: "pw"})
	assert.ErrorIs(t, err, ErrInvalidUserInput)

	_, err = env.users.CreateUser(ctx, &CreateUserRequest{Username: "x", Name: "X", Password: "pw", RoleCodes: []string{"ghost"}})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	users, err := env.users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users, "failed role lookup rolls the user back")
}

func TestUserService_DeleteUserUnassignsActivities(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.users.EnsureSystemRoles(ctx))
	kam, err := env.users.CreateUser(ctx, &CreateUserRequest{Username: "kam", Name: "Kim", Password: "pw", RoleCodes: []string{schedule.RoleKAM}})
	require.NoError(t, err)

	_, err = env.products.Create(ctx, kam.ID, launchRequest())
	require.NoError(t, err)
	mine, err := env.activity.ListMine(ctx, kam.ID)
	require.NoError(t, err)
	require.NotEmpty(t, mine)

	require.NoError(t, env.users.DeleteUser(ctx, kam.ID))
	mine, err = env.activity.ListMine(ctx, kam.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
	assert.ErrorIs(t, env.users.DeleteUser(ctx, kam.ID), repository.ErrNotFound)
}
