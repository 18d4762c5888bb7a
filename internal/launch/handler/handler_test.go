package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/config"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/repository"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/service"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/sse"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/launch/testutil"
	"github.com/kmhbg/launch-planner-nordic-fmcg/internal/shared/directory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryTokens struct {
	tokens map[string]string
}

func (m *memoryTokens) Save(_ context.Context, jti, userID string, _ time.Duration) error {
	m.tokens[jti] = userID
	return nil
}

func (m *memoryTokens) Take(_ context.Context, jti string) (string, error) {
	id, ok := m.tokens[jti]
	if !ok {
		return "", service.ErrInvalidToken
	}
	delete(m.tokens, jti)
	return id, nil
}

func setupAPI(t *testing.T) (*testutil.TestEnv, *service.Services) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()
	logger := zap.NewNop()

	repos := repository.NewRepositories(db)
	hub := sse.NewHub(logger)
	users := service.NewUserService(repos, logger)
	jwtCfg := config.JWTConfig{
		Secret:             testutil.JWTSecret,
		AccessTokenExpire:  time.Hour,
		RefreshTokenExpire: time.Hour,
		Issuer:             "launch-planner",
	}
	svc := &service.Services{
		Auth:     service.NewAuthService(repos, &memoryTokens{tokens: map[string]string{}}, jwtCfg, logger),
		User:     users,
		Product:  service.NewProductService(repos, users, nil, hub, logger),
		Activity: service.NewActivityService(repos, hub, logger),
		Template: service.NewTemplateService(repos.Template, logger),
		GS1:      service.NewGS1Service(nil, logger),
		Export:   service.NewExportService(repos.Product, nil, logger),
	}
	require.NoError(t, users.EnsureSystemRoles(context.Background()))

	health := NewHealthHandler("1.2.3", "today", map[string]HealthCheck{"database": repos.Ping})
	RegisterRoutes(router, NewHandlers(svc, hub, health, logger), testutil.JWTSecret)
	return &testutil.TestEnv{DB: db, Router: router, T: t}, svc
}

func userToken() string {
	return testutil.GenerateTestToken("u-planner", "Pia Planner", "pia", []string{"kam"})
}

func createProduct(t *testing.T, env *testutil.TestEnv) map[string]interface{} {
	t.Helper()
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/products", map[string]interface{}{
		"gtin": "7310865004703",
		"name": "Havredryck Barista 1L",
		"retailers": []map[string]interface{}{
			{"retailer": "ICA", "launch_weeks": []int{20, 22}, "launch_year": 2025},
			{"retailer": "Coop", "launch_weeks": []int{18}, "launch_year": 2025},
		},
	}, userToken())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return testutil.ParseResponse(w)["data"].(map[string]interface{})
}

func TestProductAPI_Lifecycle(t *testing.T) {
	env, _ := setupAPI(t)
	product := createProduct(t, env)
	id := product["id"].(string)

	assert.Equal(t, float64(18), product["launch_week"])
	assert.Equal(t, float64(2025), product["launch_year"])
	assert.Equal(t, "draft", product["status"])
	assert.Len(t, product["activities"], 11)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/products?keyword=barista", nil, userToken())
	require.Equal(t, http.StatusOK, w.Code)
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	assert.Len(t, data["items"], 1)
	assert.Equal(t, float64(1), data["pagination"].(map[string]interface{})["total"])

	w = testutil.DoRequest(env.Router, "PUT", "/api/v1/products/"+id, map[string]interface{}{"launch_week": 30}, userToken())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data = testutil.ParseResponse(w)["data"].(map[string]interface{})
	assert.Equal(t, float64(18), data["launch_week"], "retailer weeks still decide a launch product")

	w = testutil.DoRequest(env.Router, "PUT", "/api/v1/products/"+id+"/status", map[string]interface{}{"status": "cancelled"}, userToken())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", testutil.ParseResponse(w)["data"].(map[string]interface{})["status"])

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/products/"+id+"/activities", nil, userToken())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, testutil.ParseResponse(w)["data"].(map[string]interface{})["items"], 11)

	w = testutil.DoRequest(env.Router, "DELETE", "/api/v1/products/"+id, nil, userToken())
	require.Equal(t, http.StatusOK, w.Code)
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/products/"+id, nil, userToken())
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, float64(40400), testutil.ParseResponse(w)["code"])
}

func TestProductAPI_Validation(t *testing.T) {
	env, _ := setupAPI(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing name", map[string]interface{}{"gtin": "7310865004703"}},
		{"bad gtin", map[string]interface{}{"gtin": "7310865004700", "name": "X", "retailers": []map[string]interface{}{{"retailer": "ICA", "launch_weeks": []int{10}}}}},
		{"no retailers", map[string]interface{}{"gtin": "7310865004703", "name": "X"}},
		{"week 54", map[string]interface{}{"gtin": "7310865004703", "name": "X", "retailers": []map[string]interface{}{{"retailer": "ICA", "launch_weeks": []int{54}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.DoRequest(env.Router, "POST", "/api/v1/products", tt.body, userToken())
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, float64(40000), testutil.ParseResponse(w)["code"])
		})
	}
}

func TestActivityAPI_UpdateCommentAndICS(t *testing.T) {
	env, _ := setupAPI(t)
	product := createProduct(t, env)
	activity := product["activities"].([]interface{})[0].(map[string]interface{})
	id := activity["id"].(string)

	w := testutil.DoRequest(env.Router, "PUT", "/api/v1/activities/"+id, map[string]interface{}{"status": "completed"}, userToken())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "completed", testutil.ParseResponse(w)["data"].(map[string]interface{})["status"])

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/products/"+product["id"].(string), nil, userToken())
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	assert.Equal(t, "active", data["status"])
	assert.Equal(t, float64(9), data["progress"])

	w = testutil.DoRequest(env.Router, "PUT", "/api/v1/activities/"+id, map[string]interface{}{"status": "done"}, userToken())
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/activities/"+id+"/comments", map[string]interface{}{"text": "Skickat till Validoo"}, userToken())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	comment := testutil.ParseResponse(w)["data"].(map[string]interface{})
	assert.Equal(t, "Pia Planner", comment["user_name"])
	assert.Equal(t, "u-planner", comment["user_id"])

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/activities/"+id+"/ics", nil, userToken())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/calendar")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".ics")
	assert.Contains(t, w.Body.String(), "BEGIN:VEVENT")

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/activities/missing/ics", nil, userToken())
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthAPI_LoginFlow(t *testing.T) {
	env, svc := setupAPI(t)
	_, err := svc.User.CreateUser(context.Background(), &service.CreateUserRequest{
		Username: "anna", Name: "Anna", Password: "hemligt", RoleCodes: []string{"admin"},
	})
	require.NoError(t, err)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/auth/login", map[string]interface{}{"username": "anna", "password": "fel"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/auth/login", map[string]interface{}{"username": "anna", "password": "hemligt"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	access := data["access_token"].(string)
	refresh := data["refresh_token"].(string)

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/auth/me", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anna", testutil.ParseResponse(w)["data"].(map[string]interface{})["username"])

	// refresh tokens are refused as bearer tokens
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/auth/me", nil, refresh)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// the freshly issued admin token reaches admin routes
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/users", nil, access)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/auth/refresh", map[string]interface{}{"refresh_token": refresh}, "")
	require.Equal(t, http.StatusOK, w.Code)
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/auth/refresh", map[string]interface{}{"refresh_token": refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/auth/methods", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"local"}, testutil.ParseResponse(w)["data"].(map[string]interface{})["methods"])
}

// stubDirectory knows one account and one group
type stubDirectory struct{}

func (stubDirectory) Method() string { return directory.MethodAD }

func (stubDirectory) Authenticate(_ context.Context, cred directory.Credentials) (*directory.User, error) {
	if cred.Username != "aberg" || cred.Password != "hemligt" {
		return nil, directory.ErrInvalidCredentials
	}
	return &directory.User{
		Username: "aberg",
		Name:     "Anna Berg",
		Groups:   []directory.Group{{ExternalID: "CN=Buyers,DC=example,DC=se", Name: "Buyers"}},
	}, nil
}

func (stubDirectory) Groups(context.Context) ([]directory.Group, error) {
	return []directory.Group{
		{ExternalID: "CN=Buyers,DC=example,DC=se", Name: "Buyers"},
		{ExternalID: "CN=KAM,DC=example,DC=se", Name: "KAM"},
	}, nil
}

func TestAuthAPI_DirectoryLogin(t *testing.T) {
	env, svc := setupAPI(t)
	svc.Auth.RegisterDirectory(stubDirectory{})

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/auth/methods", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"local", "ad"}, testutil.ParseResponse(w)["data"].(map[string]interface{})["methods"])

	login := func(body map[string]interface{}) *httptest.ResponseRecorder {
		return testutil.DoRequest(env.Router, "POST", "/api/v1/auth/login", body, "")
	}
	assert.Equal(t, http.StatusUnauthorized, login(map[string]interface{}{"auth_method": "ad", "username": "aberg", "password": "fel"}).Code)
	assert.Equal(t, http.StatusBadRequest, login(map[string]interface{}{"auth_method": "ad", "username": "aberg"}).Code)
	assert.Equal(t, http.StatusBadRequest, login(map[string]interface{}{"auth_method": "ldap", "username": "a", "password": "b"}).Code)
	assert.Equal(t, http.StatusBadRequest, login(map[string]interface{}{"auth_method": "azure", "code": "c"}).Code)

	w = login(map[string]interface{}{"auth_method": "ad", "username": "aberg", "password": "hemligt"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	user := data["user"].(map[string]interface{})
	assert.Equal(t, "ad", user["auth_method"])

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/auth/me", nil, data["access_token"].(string))
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/auth/authorize?method=ad&redirect_uri=https://x", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code, "AD has no sign-in redirect")
}

func TestAdminAPI_SyncGroups(t *testing.T) {
	env, svc := setupAPI(t)
	svc.Auth.RegisterDirectory(stubDirectory{})
	admin := testutil.DefaultTestToken()

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/auth/sync-groups", map[string]interface{}{"method": "ad"}, userToken())
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/auth/sync-groups", map[string]interface{}{"method": "ad"}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(2), testutil.ParseResponse(w)["data"].(map[string]interface{})["count"])

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/auth/sync-groups", map[string]interface{}{"method": "azure"}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/auth/sync-groups", map[string]interface{}{}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/groups", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	groups := testutil.ParseResponse(w)["data"].(map[string]interface{})["items"].([]interface{})
	require.Len(t, groups, 2)
	assert.Equal(t, "ad", groups[0].(map[string]interface{})["source"])
}

func TestAdminAPI_RequiresAdmin(t *testing.T) {
	env, _ := setupAPI(t)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/users", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/users", nil, userToken())
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/templates", map[string]interface{}{"code": "x", "name": "X"}, userToken())
	assert.Equal(t, http.StatusForbidden, w.Code)

	// reading templates is open to every signed-in user
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/templates", nil, userToken())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminAPI_UsersRolesGroups(t *testing.T) {
	env, _ := setupAPI(t)
	admin := testutil.DefaultTestToken()

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/users", map[string]interface{}{
		"username": "bo", "name": "Bo", "password": "pw", "role_codes": []string{"logistics"},
	}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	bo := testutil.ParseResponse(w)["data"].(map[string]interface{})
	boID := bo["id"].(string)
	assert.Equal(t, []interface{}{"logistics"}, bo["role_codes"])

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/roles", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	roles := testutil.ParseResponse(w)["data"].(map[string]interface{})["items"].([]interface{})
	assert.Len(t, roles, len(service.SystemRoles))
	adminRoleID := ""
	for _, r := range roles {
		role := r.(map[string]interface{})
		if role["code"] == "admin" {
			adminRoleID = role["id"].(string)
		}
	}
	w = testutil.DoRequest(env.Router, "DELETE", "/api/v1/roles/"+adminRoleID, nil, admin)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/groups", map[string]interface{}{"name": "Logistik"}, admin)
	require.Equal(t, http.StatusCreated, w.Code)
	groupID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/groups/"+groupID+"/members", map[string]interface{}{"user_id": boID}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = testutil.DoRequest(env.Router, "DELETE", "/api/v1/groups/"+groupID+"/members/"+boID, nil, admin)
	require.Equal(t, http.StatusOK, w.Code)

	w = testutil.DoRequest(env.Router, "DELETE", "/api/v1/users/test-user-001", nil, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code, "admins cannot delete themselves")
	w = testutil.DoRequest(env.Router, "DELETE", "/api/v1/users/"+boID, nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGS1AndExportAPI_Disabled(t *testing.T) {
	env, _ := setupAPI(t)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/gs1/items/7310865004703", nil, userToken())
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/gs1/validate", map[string]interface{}{"gtin": "123"}, userToken())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/gs1/search", map[string]interface{}{"brandName": "Oatly"}, userToken())
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/gs1/subscriptions", nil, userToken())
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/gs1/subscriptions", map[string]interface{}{}, userToken())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = testutil.DoRequest(env.Router, "DELETE", "/api/v1/gs1/subscriptions/sub-1", nil, userToken())
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/exports/products", nil, userToken())
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	createProduct(t, env)
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/exports/products.xlsx", nil, userToken())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, "PK", w.Body.String()[:2])
}

func TestHealthAndVersion(t *testing.T) {
	env, _ := setupAPI(t)

	w := testutil.DoRequest(env.Router, "GET", "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = testutil.DoRequest(env.Router, "GET", "/health/ready", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = testutil.DoRequest(env.Router, "GET", "/version", nil, "")
	assert.Equal(t, "1.2.3", testutil.ParseResponse(w)["version"])

	failing := NewHealthHandler("", "", map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	router := testutil.SetupRouter()
	router.GET("/ready", failing.Ready)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/nothing", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSSEStream(t *testing.T) {
	hub := sse.NewHub(zap.NewNop())
	h := NewSSEHandler(hub, zap.NewNop())
	router := testutil.SetupRouter()
	testutil.AuthGroup(router, "/api/v1").GET("/events", h.Stream)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/v1/events?token="+userToken(), nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		router.ServeHTTP(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	hub.PublishUserActivityUpdate("u-planner", "p1", "a1", "assigned")
	hub.PublishUserActivityUpdate("someone-else", "p1", "a2", "assigned")
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	assert.Contains(t, body, "event: connected")
	assert.Contains(t, body, "event: my_activity_update")
	assert.Contains(t, body, `"activity_id":"a1"`)
	assert.NotContains(t, body, `"activity_id":"a2"`)
	assert.Equal(t, 0, hub.Clients())
}
