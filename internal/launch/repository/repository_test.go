package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/entity"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/repository"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/schedule"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(t *testing.T, repos *repository.Repositories, id, name string) *entity.Product {
	t.Helper()
	launch := schedule.WeekStart(2024, 15)
	product := &entity.Product{
		ID:          id,
		GTIN:        "7310865004703",
		Name:        name,
		ProductType: schedule.ProductTypeLaunch,
		Status:      schedule.ProductDraft,
		LaunchWeek:  15,
		LaunchYear:  2024,
		LaunchDate:  launch,
		Retailers: []entity.ProductRetailer{
			{ID: id + "-r2", Retailer: "Coop", LaunchWeeks: []int{17}, LaunchYear: 2024, Position: 1},
			{ID: id + "-r1", Retailer: "ICA", LaunchWeeks: []int{15, 16}, LaunchYear: 2024, Position: 0},
		},
		Activities: []entity.Activity{
			{ID: id + "-a2", Name: "Prissättning", SortOrder: 2, Position: 1, WeeksBeforeLaunch: 2, Deadline: launch.AddDate(0, 0, -14), Status: schedule.ActivityNotStarted},
			{ID: id + "-a1", Name: "Kundpresentation", SortOrder: 1, Position: 0, WeeksBeforeLaunch: -4, Deadline: launch.AddDate(0, 0, -28), Status: schedule.ActivityNotStarted},
			{ID: id + "-a3", Name: "Uppföljning", SortOrder: 3, Position: 2, WeeksBeforeLaunch: 6, Deadline: launch.AddDate(0, 0, -42), Status: schedule.ActivityNotStarted},
		},
	}
	require.NoError(t, repos.Product.Create(context.Background(), product))
	return product
}

func TestProductRepository_FindByIDOrdersAssociations(t *testing.T) {
	repos := repository.NewRepositories(testutil.SetupTestDB(t))
	seedProduct(t, repos, "p1", "Havredryck")

	got, err := repos.Product.FindByID(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, got.Retailers, 2)
	assert.Equal(t, "ICA", got.Retailers[0].Retailer)
	assert.Equal(t, []int{15, 16}, got.Retailers[0].LaunchWeeks)
	require.Len(t, got.Activities, 3)
	// generation order, not deadline order: a3 has the earliest deadline
	ids := []string{got.Activities[0].ID, got.Activities[1].ID, got.Activities[2].ID}
	assert.Equal(t, []string{"p1-a1", "p1-a2", "p1-a3"}, ids)

	listed, err := repos.Activity.ListByProduct(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "p1-a3", listed[2].ID)
}

func TestProductRepository_FindByIDNotFound(t *testing.T) {
	repos := repository.NewRepositories(testutil.SetupTestDB(t))
	_, err := repos.Product.FindByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestProductRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewRepositories(testutil.SetupTestDB(t))
	seedProduct(t, repos, "p1", "Havredryck Barista")
	seedProduct(t, repos, "p2", "Knäckebröd")
	require.NoError(t, repos.Product.UpdateStatus(ctx, "p2", schedule.ProductActive))

	all, total, err := repos.Product.List(ctx, 1, 20, repository.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	byName, total, err := repos.Product.List(ctx, 1, 20, repository.ProductFilter{Keyword: "BARISTA"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "p1", byName[0].ID)

	active, _, err := repos.Product.List(ctx, 1, 20, repository.ProductFilter{Status: "active"})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "p2", active[0].ID)

	page2, total, err := repos.Product.List(ctx, 2, 1, repository.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, page2, 1)
}

func TestProductRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	seedProduct(t, repos, "p1", "Havredryck")
	require.NoError(t, repos.Activity.AddComment(ctx, &entity.ActivityComment{
		ID: "c1", ActivityID: "p1-a1", UserID: "u1", Text: "Klart med ICA",
	}))

	err := repos.Transaction(ctx, func(tx *repository.Repositories) error {
		return tx.Product.Delete(ctx, "p1")
	})
	require.NoError(t, err)

	for _, model := range []interface{}{&entity.Product{}, &entity.ProductRetailer{}, &entity.Activity{}, &entity.ActivityComment{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n)
	}

	err = repos.Product.Delete(ctx, "p1")
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestProductRepository_ReplaceRetailers(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewRepositories(testutil.SetupTestDB(t))
	seedProduct(t, repos, "p1", "Havredryck")

	err := repos.Product.ReplaceRetailers(ctx, "p1", []entity.ProductRetailer{
		{ID: "r9", ProductID: "p1", Retailer: "Axfood", LaunchWeeks: []int{20}, LaunchYear: 2024},
	})
	require.NoError(t, err)

	got, err := repos.Product.FindByID(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got.Retailers, 1)
	assert.Equal(t, "Axfood", got.Retailers[0].Retailer)
}

func TestTransaction_RollsBack(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewRepositories(testutil.SetupTestDB(t))
	boom := errors.New("boom")

	err := repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Product.Create(ctx, &entity.Product{ID: "p1", GTIN: "7310865004703", Name: "X", LaunchWeek: 1, LaunchYear: 2025}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repos.Product.FindByID(ctx, "p1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestActivityRepository_ScheduleAndAssignee(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewRepositories(testutil.SetupTestDB(t))
	seedProduct(t, repos, "p1", "Havredryck")

	userID := "u1"
	a, err := repos.Activity.FindByID(ctx, "p1-a1")
	require.NoError(t, err)
	a.AssigneeID = &userID
	a.AssigneeName = "Anna"
	require.NoError(t, repos.Activity.Update(ctx, a))

	mine, err := repos.Activity.ListByAssignee(ctx, userID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Product)
	assert.Equal(t, "Havredryck", mine[0].Product.Name)

	moved := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repos.Activity.SaveSchedule(ctx, []entity.Activity{{ID: "p1-a1", Deadline: moved, DeadlineWeek: 14}}))
	a, err = repos.Activity.FindByID(ctx, "p1-a1")
	require.NoError(t, err)
	assert.Equal(t, 14, a.DeadlineWeek)
	assert.True(t, a.Deadline.Equal(moved))

	require.NoError(t, repos.Activity.ClearAssignee(ctx, userID))
	mine, err = repos.Activity.ListByAssignee(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, mine)

	statuses, err := repos.Activity.StatusesByProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, statuses, 3)
}

func TestTemplateRepository_DefaultSelection(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewRepositories(testutil.SetupTestDB(t))

	older := &entity.ActivityTemplate{ID: "t1", Code: "basic", Name: "Basic", ProductType: schedule.ProductTypeLaunch,
		CreatedAt: time.Now().Add(-time.Hour)}
	newer := &entity.ActivityTemplate{ID: "t2", Code: "ecr", Name: "ECR", ProductType: schedule.ProductTypeLaunch,
		Entries: []entity.TemplateEntry{
			{ID: "e2", Code: "b", Name: "B", SortOrder: 2},
			{ID: "e1", Code: "a", Name: "A", SortOrder: 1},
		}}
	require.NoError(t, repos.Template.Create(ctx, older))
	require.NoError(t, repos.Template.Create(ctx, newer))

	got, err := repos.Template.FindDefault(ctx, schedule.ProductTypeLaunch)
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID, "oldest wins without a flag")

	require.NoError(t, repos.Template.SetDefault(ctx, "t2", schedule.ProductTypeLaunch))
	got, err = repos.Template.FindDefault(ctx, schedule.ProductTypeLaunch)
	require.NoError(t, err)
	assert.Equal(t, "t2", got.ID)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "a", got.Entries[0].Code)

	_, err = repos.Template.FindDefault(ctx, schedule.ProductTypeDelisting)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repos.Template.Delete(ctx, "t2"))
	n, err := repos.Template.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUserRepository_RolesAndGroups(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	anna := testutil.SeedTestUser(t, db, "u1", "Anna", "anna")
	testutil.SeedTestUser(t, db, "u2", "Bo", "bo")
	kam := testutil.SeedTestRole(t, db, "r1", "kam", anna)
	logistics := testutil.SeedTestRole(t, db, "r2", "logistics")

	require.NoError(t, repos.Group.Create(ctx, &entity.Group{ID: "g1", Name: "Logistik"}))
	require.NoError(t, repos.Group.AddRole(ctx, "g1", logistics))
	require.NoError(t, repos.Group.AddMember(ctx, "g1", &entity.User{ID: "u1"}))

	got, err := repos.User.FindByUsername(ctx, "anna")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"kam", "logistics"}, got.RoleCodes)

	require.NoError(t, repos.User.RemoveRole(ctx, "u1", kam))
	got, err = repos.User.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"logistics"}, got.RoleCodes)

	roster, err := repos.User.ListRoster(ctx)
	require.NoError(t, err)
	assert.Len(t, roster, 2)

	require.NoError(t, repos.Role.Delete(ctx, "r2"))
	got, err = repos.User.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got.RoleCodes)
}

func TestRoleRepository_EnsureCodesIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewRepositories(testutil.SetupTestDB(t))
	roles := []entity.Role{{ID: "r1", Code: "admin", Name: "Admin", IsSystem: true}}

	require.NoError(t, repos.Role.EnsureCodes(ctx, roles))
	require.NoError(t, repos.Role.EnsureCodes(ctx, []entity.Role{{ID: "r-other", Code: "admin", Name: "Admin"}}))

	all, err := repos.Role.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "r1", all[0].ID)
}
