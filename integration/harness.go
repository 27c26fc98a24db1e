package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/kasuganosora/raidprofile/api/rest"
	"github.com/kasuganosora/raidprofile/audit"
	"github.com/kasuganosora/raidprofile/cache"
	"github.com/kasuganosora/raidprofile/game/creator"
	"github.com/kasuganosora/raidprofile/game/customization"
	"github.com/kasuganosora/raidprofile/game/item"
	"github.com/kasuganosora/raidprofile/game/prestige"
	gskill "github.com/kasuganosora/raidprofile/game/skill"
	mw "github.com/kasuganosora/raidprofile/middleware"
	"github.com/kasuganosora/raidprofile/plugin/hook"
	"github.com/kasuganosora/raidprofile/resource"
	"github.com/kasuganosora/raidprofile/scheduler"
	"github.com/kasuganosora/raidprofile/store"
	"github.com/kasuganosora/raidprofile/testutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const AdminKey = "integration-admin-key"

// TestServer wraps a real HTTP server with every subsystem wired together.
type TestServer struct {
	DB       *gorm.DB
	Cache    cache.Cache
	Catalog  *resource.Catalog
	Profiles *store.GormProfileStore
	Backups  *store.BackupStore
	Hooks    *hook.HookCenter
	Registry *prometheus.Registry
	Server   *httptest.Server
	URL      string // http://127.0.0.1:<port>
}

// NewTestServer creates a fully wired server for integration testing using
// the shipped catalog. It mirrors the dependency wiring in main.go.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// ---- Infrastructure ----
	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	logger := zap.NewNop()

	catalog, err := resource.Load(filepath.Join("..", "data", "catalog.yaml"))
	require.NoError(t, err, "load shipped catalog")

	registry := prometheus.NewRegistry()
	auditSvc := audit.New(db, logger)
	sched := scheduler.New(logger)

	// ---- Services ----
	profiles := store.NewProfileStore(db, c, time.Minute, logger)
	backups, err := store.NewBackupStore(db, logger)
	require.NoError(t, err)
	hooks := hook.NewHookCenter()
	unlocks := customization.NewUnlockService(catalog, logger)
	creatorSvc := creator.NewService(profiles, catalog, logger)
	engine := prestige.NewEngine(prestige.DefaultConfig(), prestige.Deps{
		Store:     profiles,
		Creator:   creatorSvc,
		Inventory: item.NewInventoryService(logger),
		Skills:    gskill.NewSkillService(logger),
		Unlocks:   unlocks,
		Catalog:   catalog,
		Cache:     c,
		Hooks:     hooks,
		Backups:   backups,
		Metrics:   prestige.NewMetrics(registry),
	}, logger)

	// ---- Gin HTTP Server ----
	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger, "/health"), mw.Recovery(logger))
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	limiter := mw.RateLimit(rate.Limit(1000), 2000)
	profileH := apirest.NewProfileHandler(creatorSvc, profiles, engine, hooks, auditSvc, logger)
	prestigeH := apirest.NewPrestigeHandler(engine, auditSvc, logger)
	customH := apirest.NewCustomizationHandler(profiles, unlocks, engine, logger)
	rankH := apirest.NewRankingHandler(db, c, logger)
	adminH := apirest.NewAdminHandler(db, backups, profiles, engine, c, sched, auditSvc, logger)

	client := r.Group("/client", mw.Session(), limiter)
	{
		client.POST("/game/profile/create", profileH.Create)
		client.POST("/prestige/list", prestigeH.List)
		client.POST("/prestige/obtain", prestigeH.Obtain)
		client.GET("/customization/storage", customH.Storage)
		client.GET("/trading/customization/storage", customH.Storage)
		client.GET("/hideout/customization/offer/list", customH.Offers)
		client.POST("/hideout/customization/set", customH.Set)
	}
	api := r.Group("/api", limiter)
	{
		api.GET("/ranking/prestige", rankH.TopPrestige)

		adminG := api.Group("/admin")
		adminG.Use(mw.IPWhitelist([]string{"127.0.0.0/8", "::1"}, logger), apirest.AdminAuth(AdminKey))
		adminG.GET("/stats", adminH.Stats)
		adminG.GET("/scheduler", adminH.ListSchedulerTasks)
		adminG.GET("/backups", adminH.ListBackups)
		adminG.POST("/backups/:id/restore", adminH.RestoreBackup)
		adminG.POST("/ranking/refresh", rankH.RefreshRanking)
	}

	// ---- Start server ----
	server := httptest.NewServer(r)
	ts := &TestServer{
		DB:       db,
		Cache:    c,
		Catalog:  catalog,
		Profiles: profiles,
		Backups:  backups,
		Hooks:    hooks,
		Registry: registry,
		Server:   server,
		URL:      server.URL,
	}
	t.Cleanup(func() {
		server.Close()
		sched.Stop()
		auditSvc.Stop(context.Background())
		backups.Close()
	})
	return ts
}

// ---- HTTP helpers ----

// Client sends a client request carrying sid in the PHPSESSID cookie.
func (ts *TestServer) Client(t *testing.T, method, path, sid string, body interface{}) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: mw.SessionCookie, Value: sid})
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// Admin sends an admin request with the admin key.
func (ts *TestServer) Admin(t *testing.T, method, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("X-Admin-Key", AdminKey)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (ts *TestServer) Get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	return resp
}

func ReadJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target), "body: %s", string(data))
}

// Envelope is the client response body.
type Envelope struct {
	Err    int             `json:"err"`
	ErrMsg *string         `json:"errmsg"`
	Data   json.RawMessage `json:"data"`
}

// CreateProfile registers a profile for sid and fails the test otherwise.
func (ts *TestServer) CreateProfile(t *testing.T, sid, side, nickname string) {
	t.Helper()
	resp := ts.Client(t, http.MethodPost, "/client/game/profile/create", sid,
		map[string]string{"side": side, "nickname": nickname})
	var env Envelope
	ReadJSON(t, resp, &env)
	require.Equal(t, http.StatusOK, resp.StatusCode, "create profile: %v", env.ErrMsg)
	require.Zero(t, env.Err)
}

// Obtain requests a prestige for sid and returns the status and envelope.
func (ts *TestServer) Obtain(t *testing.T, sid string, transfers ...string) (int, Envelope) {
	t.Helper()
	body := make([]prestige.TransferRequest, len(transfers))
	for i, id := range transfers {
		body[i] = prestige.TransferRequest{ID: id}
	}
	resp := ts.Client(t, http.MethodPost, "/client/prestige/obtain", sid, body)
	var env Envelope
	ReadJSON(t, resp, &env)
	return resp.StatusCode, env
}

var testCounter uint64

func UniqueID(prefix string) string {
	n := atomic.AddUint64(&testCounter, 1)
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano()%100000, n)
}
