package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	apphazard "github.com/safework/backend/internal/application/hazard"
	appidentity "github.com/safework/backend/internal/application/identity"
	"github.com/safework/backend/internal/infrastructure/auth"
	"github.com/safework/backend/internal/infrastructure/config"
	"github.com/safework/backend/internal/infrastructure/event"
	"github.com/safework/backend/internal/infrastructure/persistence"
	"github.com/safework/backend/internal/infrastructure/persistence/models"
	"github.com/safework/backend/internal/interfaces/http/middleware"
	"github.com/safework/backend/internal/interfaces/http/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testEnv struct {
	server      *httptest.Server
	authService *appidentity.AuthService
	broadcaster *event.Broadcaster
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AccountModel{}, &models.HazardReportModel{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	log := zap.NewNop()
	accountRepo := persistence.NewGormAccountRepository(db)
	reportRepo := persistence.NewGormReportRepository(db)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:     "test-secret-for-handler-tests",
		Expiration: time.Hour,
		Issuer:     "safework-test",
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	broadcaster := event.NewBroadcaster(event.WithLogger(log))
	t.Cleanup(broadcaster.Close)

	authService := appidentity.NewAuthService(accountRepo, jwtService, blacklist, log)
	reportService := apphazard.NewReportService(reportRepo, broadcaster, log)

	cookieCfg := config.CookieConfig{Name: "safework_session", Path: "/", SameSite: "lax"}
	sessionMW := middleware.SessionAuth(middleware.SessionMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		CookieName:     cookieCfg.Name,
	})
	adminMW := middleware.RequireAdministrator()

	middleware.SetupValidator()
	engine := gin.New()
	engine.Use(middleware.RequestID())

	r := router.NewRouter(engine)
	r.Register(NewAuthHandler(authService, jwtService, cookieCfg, sessionMW))
	r.Register(NewHazardHandler(reportService, sessionMW, adminMW))
	r.Register(NewStreamHandler(broadcaster, sessionMW, nil, log))
	r.RegisterSystem(NewSystemHandler(nil, broadcaster, "test"))
	r.Setup()

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)

	require.NoError(t, authService.EnsureDefaultAdmin(context.Background(), "admin", "admin123"))

	return &testEnv{server: server, authService: authService, broadcaster: broadcaster}
}

// apiClient wraps an http.Client with a cookie jar and JSON helpers
type apiClient struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newAPIClient(t *testing.T, env *testEnv) *apiClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &apiClient{
		t:      t,
		base:   env.server.URL,
		client: &http.Client{Jar: jar},
	}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *apiClient) do(method, path string, body any) (int, apiResponse) {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var parsed apiResponse
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&parsed))
	return resp.StatusCode, parsed
}

func (c *apiClient) register(username, password string) (int, apiResponse) {
	return c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username": username,
		"password": password,
	})
}

func (c *apiClient) login(username, password string) (int, apiResponse) {
	return c.do(http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
}

func (c *apiClient) sessionCookie() *http.Cookie {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.base, nil)
	require.NoError(c.t, err)
	for _, cookie := range c.client.Jar.Cookies(req.URL) {
		if cookie.Name == "safework_session" {
			return cookie
		}
	}
	return nil
}

func TestAuthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	t.Run("register then login then me", func(t *testing.T) {
		client := newAPIClient(t, env)

		status, resp := client.register("alice", "password123")
		require.Equal(t, http.StatusCreated, status)
		assert.True(t, resp.Success)
		assert.Contains(t, string(resp.Data), `"username":"alice"`)
		assert.Contains(t, string(resp.Data), `"role":"employee"`)

		status, resp = client.login("alice", "password123")
		require.Equal(t, http.StatusOK, status)
		assert.Contains(t, string(resp.Data), `"username":"alice"`)
		require.NotNil(t, client.sessionCookie())

		status, resp = client.do(http.MethodGet, "/api/auth/me", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Contains(t, string(resp.Data), `"username":"alice"`)
	})

	t.Run("duplicate username is a 400", func(t *testing.T) {
		client := newAPIClient(t, env)

		status, _ := client.register("bob", "password123")
		require.Equal(t, http.StatusCreated, status)

		status, resp := client.register("bob", "password456")
		assert.Equal(t, http.StatusBadRequest, status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ERR_VALIDATION", resp.Error.Code)
	})

	t.Run("wrong credentials are a 401", func(t *testing.T) {
		client := newAPIClient(t, env)

		status, resp := client.login("admin", "wrong-password")
		assert.Equal(t, http.StatusUnauthorized, status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ERR_UNAUTHORIZED", resp.Error.Code)
	})

	t.Run("missing fields are a 400 with details", func(t *testing.T) {
		client := newAPIClient(t, env)

		status, resp := client.do(http.MethodPost, "/api/auth/register", map[string]string{"username": "carol"})
		assert.Equal(t, http.StatusBadRequest, status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ERR_VALIDATION", resp.Error.Code)
	})

	t.Run("logout revokes the session", func(t *testing.T) {
		client := newAPIClient(t, env)

		_, _ = client.register("dave", "password123")
		status, _ := client.login("dave", "password123")
		require.Equal(t, http.StatusOK, status)

		// Keep the token around to prove revocation beats a replay
		token := client.sessionCookie().Value

		status, _ = client.do(http.MethodPost, "/api/auth/logout", nil)
		require.Equal(t, http.StatusOK, status)

		req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/auth/me", nil)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "safework_session", Value: token})
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("me without a session is a 401", func(t *testing.T) {
		client := newAPIClient(t, env)

		status, resp := client.do(http.MethodGet, "/api/auth/me", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		require.NotNil(t, resp.Error)
	})
}

func TestHazardEndpoints(t *testing.T) {
	env := newTestEnv(t)

	employee := newAPIClient(t, env)
	_, _ = employee.register("erin", "password123")
	status, _ := employee.login("erin", "password123")
	require.Equal(t, http.StatusOK, status)

	other := newAPIClient(t, env)
	_, _ = other.register("frank", "password123")
	status, _ = other.login("frank", "password123")
	require.Equal(t, http.StatusOK, status)

	admin := newAPIClient(t, env)
	status, _ = admin.login("admin", "admin123")
	require.Equal(t, http.StatusOK, status)

	newReport := func(c *apiClient, description string) map[string]any {
		c.t.Helper()
		status, resp := c.do(http.MethodPost, "/api/hazards", map[string]string{
			"type":        "chemical",
			"location":    "Warehouse B",
			"riskLevel":   "high",
			"description": description,
		})
		require.Equal(c.t, http.StatusCreated, status)
		var report map[string]any
		require.NoError(c.t, json.Unmarshal(resp.Data, &report))
		return report
	}

	t.Run("create returns the stored report", func(t *testing.T) {
		report := newReport(employee, "Leaking drum near dock 4")
		assert.Equal(t, "open", report["status"])
		assert.Equal(t, "high", report["riskLevel"])
		assert.NotEmpty(t, report["id"])
	})

	t.Run("create keeps an opaque image reference", func(t *testing.T) {
		status, resp := employee.do(http.MethodPost, "/api/hazards", map[string]string{
			"type":        "chemical",
			"location":    "Warehouse B",
			"riskLevel":   "high",
			"description": "Leaking drum near dock 4",
			"imageUrl":    "warehouse-cam-2.jpg",
		})
		require.Equal(t, http.StatusCreated, status)

		var report map[string]any
		require.NoError(t, json.Unmarshal(resp.Data, &report))
		assert.Equal(t, "warehouse-cam-2.jpg", report["imageUrl"])
	})

	t.Run("create without a session is a 401", func(t *testing.T) {
		anon := newAPIClient(t, env)
		status, _ := anon.do(http.MethodPost, "/api/hazards", map[string]string{
			"type": "chemical", "location": "x", "riskLevel": "low", "description": "y",
		})
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("create with a bogus risk level is a 400", func(t *testing.T) {
		status, resp := employee.do(http.MethodPost, "/api/hazards", map[string]string{
			"type":        "chemical",
			"location":    "Warehouse B",
			"riskLevel":   "catastrophic",
			"description": "Leaking drum",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ERR_VALIDATION", resp.Error.Code)
	})

	t.Run("employees see only their own reports", func(t *testing.T) {
		mine := newReport(employee, "Erin's spill")
		_ = newReport(other, "Frank's wire")

		status, resp := employee.do(http.MethodGet, "/api/hazards", nil)
		require.Equal(t, http.StatusOK, status)

		var reports []map[string]any
		require.NoError(t, json.Unmarshal(resp.Data, &reports))
		require.NotEmpty(t, reports)
		found := false
		for _, r := range reports {
			assert.NotEqual(t, "Frank's wire", r["description"])
			// Own listings carry no reporter annotation
			_, annotated := r["reporterUsername"]
			assert.False(t, annotated)
			if r["id"] == mine["id"] {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("administrators see all reports with usernames, newest first", func(t *testing.T) {
		_ = newReport(employee, "Admin-visible spill")

		status, resp := admin.do(http.MethodGet, "/api/hazards", nil)
		require.Equal(t, http.StatusOK, status)

		var reports []map[string]any
		require.NoError(t, json.Unmarshal(resp.Data, &reports))
		require.NotEmpty(t, reports)
		for _, r := range reports {
			assert.NotEmpty(t, r["reporterUsername"])
		}
		for i := 1; i < len(reports); i++ {
			prev, err1 := time.Parse(time.RFC3339Nano, reports[i-1]["createdAt"].(string))
			curr, err2 := time.Parse(time.RFC3339Nano, reports[i]["createdAt"].(string))
			if err1 == nil && err2 == nil {
				assert.False(t, prev.Before(curr), "reports must be newest first")
			}
		}
	})

	t.Run("employee cannot change status", func(t *testing.T) {
		report := newReport(employee, "No touching")

		status, resp := employee.do(http.MethodPatch, "/api/hazards/"+report["id"].(string), map[string]string{
			"status": "closed",
		})
		assert.Equal(t, http.StatusForbidden, status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ERR_FORBIDDEN", resp.Error.Code)
	})

	t.Run("administrator triages a report", func(t *testing.T) {
		report := newReport(employee, "Needs triage")

		status, resp := admin.do(http.MethodPatch, "/api/hazards/"+report["id"].(string), map[string]string{
			"status":  "in progress",
			"remarks": "Crew dispatched",
		})
		require.Equal(t, http.StatusOK, status)

		var updated map[string]any
		require.NoError(t, json.Unmarshal(resp.Data, &updated))
		assert.Equal(t, "in progress", updated["status"])
		assert.Equal(t, "Crew dispatched", updated["remarks"])

		// Transitions are unordered: closed back to open is fine
		status, _ = admin.do(http.MethodPatch, "/api/hazards/"+report["id"].(string), map[string]string{
			"status": "open",
		})
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("unknown report is a 404", func(t *testing.T) {
		status, resp := admin.do(http.MethodPatch, "/api/hazards/"+uuid.New().String(), map[string]string{
			"status": "closed",
		})
		assert.Equal(t, http.StatusNotFound, status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ERR_NOT_FOUND", resp.Error.Code)
	})

	t.Run("malformed report ID is a 404", func(t *testing.T) {
		status, _ := admin.do(http.MethodPatch, "/api/hazards/not-a-uuid", map[string]string{
			"status": "closed",
		})
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("bogus status is a 400", func(t *testing.T) {
		report := newReport(employee, "Bad status target")

		status, resp := admin.do(http.MethodPatch, "/api/hazards/"+report["id"].(string), map[string]string{
			"status": "archived",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ERR_VALIDATION", resp.Error.Code)
	})
}

func TestStreamEndpoint(t *testing.T) {
	env := newTestEnv(t)

	employee := newAPIClient(t, env)
	_, _ = employee.register("gina", "password123")
	status, _ := employee.login("gina", "password123")
	require.Equal(t, http.StatusOK, status)

	admin := newAPIClient(t, env)
	status, _ = admin.login("admin", "admin123")
	require.Equal(t, http.StatusOK, status)

	dialStream := func(c *apiClient) *websocket.Conn {
		t.Helper()
		wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/stream"
		header := http.Header{}
		header.Set("Cookie", "safework_session="+c.sessionCookie().Value)
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
		require.NoError(t, err)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	}

	readEvent := func(conn *websocket.Conn) map[string]any {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	t.Run("rejects unauthenticated upgrades", func(t *testing.T) {
		wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/stream"
		_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("pushes lifecycle events to every viewer", func(t *testing.T) {
		employeeConn := dialStream(employee)
		adminConn := dialStream(admin)

		// Give the hub a moment to register both clients
		require.Eventually(t, func() bool {
			return env.broadcaster.ClientCount() >= 2
		}, 2*time.Second, 10*time.Millisecond)

		status, resp := employee.do(http.MethodPost, "/api/hazards", map[string]string{
			"type":        "electrical",
			"location":    "Plant floor",
			"riskLevel":   "medium",
			"description": "Exposed wiring by press 2",
		})
		require.Equal(t, http.StatusCreated, status)
		var created map[string]any
		require.NoError(t, json.Unmarshal(resp.Data, &created))

		for _, conn := range []*websocket.Conn{employeeConn, adminConn} {
			msg := readEvent(conn)
			assert.Equal(t, "report-created", msg["type"])
			payload := msg["payload"].(map[string]any)
			assert.Equal(t, created["id"], payload["id"])
			assert.Equal(t, "Exposed wiring by press 2", payload["description"])
		}

		status, _ = admin.do(http.MethodPatch, "/api/hazards/"+created["id"].(string), map[string]string{
			"status":  "closed",
			"remarks": "Isolated and repaired",
		})
		require.Equal(t, http.StatusOK, status)

		for _, conn := range []*websocket.Conn{employeeConn, adminConn} {
			msg := readEvent(conn)
			assert.Equal(t, "status-changed", msg["type"])
			payload := msg["payload"].(map[string]any)
			assert.Equal(t, created["id"], payload["id"])
			assert.Equal(t, "closed", payload["status"])
			assert.Equal(t, "Isolated and repaired", payload["remarks"])
		}
	})
}

func TestSystemEndpoints(t *testing.T) {
	env := newTestEnv(t)
	client := newAPIClient(t, env)

	status, resp := client.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(resp.Data), `"status":"ok"`)

	status, resp = client.do(http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(resp.Data), `"status":"ready"`)
}
