package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/raidprofile/api/rest"
	"github.com/kasuganosora/raidprofile/audit"
	"github.com/kasuganosora/raidprofile/cache"
	"github.com/kasuganosora/raidprofile/game/creator"
	"github.com/kasuganosora/raidprofile/game/customization"
	"github.com/kasuganosora/raidprofile/game/item"
	"github.com/kasuganosora/raidprofile/game/prestige"
	"github.com/kasuganosora/raidprofile/game/skill"
	mw "github.com/kasuganosora/raidprofile/middleware"
	"github.com/kasuganosora/raidprofile/plugin/hook"
	"github.com/kasuganosora/raidprofile/scheduler"
	"github.com/kasuganosora/raidprofile/store"
	"github.com/kasuganosora/raidprofile/testutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func nopLogger() *zap.Logger { l, _ := zap.NewDevelopment(); return l }

const adminKey = "secret"

type app struct {
	r        *gin.Engine
	db       *gorm.DB
	cache    cache.Cache
	profiles *store.GormProfileStore
	backups  *store.BackupStore
	audit    *audit.Service
	hooks    *hook.HookCenter
	sched    *scheduler.Scheduler
}

// newApp wires the full client, ranking and admin surface against an
// in-memory database and the local cache.
func newApp(t *testing.T) *app {
	t.Helper()
	logger := nopLogger()
	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	catalog := testutil.TestCatalog(t)

	profiles := store.NewProfileStore(db, c, 0, logger)
	backups, err := store.NewBackupStore(db, logger)
	require.NoError(t, err)
	t.Cleanup(backups.Close)
	auditSvc := audit.New(db, logger)
	t.Cleanup(func() { auditSvc.Stop(context.Background()) })
	sched := scheduler.New(logger)
	t.Cleanup(sched.Stop)
	hooks := hook.NewHookCenter()

	unlocks := customization.NewUnlockService(catalog, logger)
	create := creator.NewService(profiles, catalog, logger)
	engine := prestige.NewEngine(prestige.DefaultConfig(), prestige.Deps{
		Store:     profiles,
		Creator:   create,
		Inventory: item.NewInventoryService(logger),
		Skills:    skill.NewSkillService(logger),
		Unlocks:   unlocks,
		Catalog:   catalog,
		Cache:     c,
		Hooks:     hooks,
		Backups:   backups,
		Metrics:   prestige.NewMetrics(prometheus.NewRegistry()),
	}, logger)

	profH := rest.NewProfileHandler(create, profiles, engine, hooks, auditSvc, logger)
	presH := rest.NewPrestigeHandler(engine, auditSvc, logger)
	custH := rest.NewCustomizationHandler(profiles, unlocks, engine, logger)
	rankH := rest.NewRankingHandler(db, c, logger)
	adminH := rest.NewAdminHandler(db, backups, profiles, engine, c, sched, auditSvc, logger)

	r := gin.New()
	r.Use(mw.TraceID())
	client := r.Group("/client", mw.Session())
	client.POST("/game/profile/create", profH.Create)
	client.POST("/prestige/list", presH.List)
	client.POST("/prestige/obtain", presH.Obtain)
	client.GET("/customization/storage", custH.Storage)
	client.GET("/trading/customization/storage", custH.Storage)
	client.GET("/hideout/customization/offer/list", custH.Offers)
	client.POST("/hideout/customization/set", custH.Set)
	r.GET("/api/ranking/prestige", rankH.TopPrestige)
	admin := r.Group("/api/admin", rest.AdminAuth(adminKey))
	admin.GET("/stats", adminH.Stats)
	admin.GET("/backups", adminH.ListBackups)
	admin.POST("/backups/:id/restore", adminH.RestoreBackup)
	admin.GET("/scheduler", adminH.ListSchedulerTasks)
	admin.POST("/ranking/refresh", rankH.RefreshRanking)

	return &app{r: r, db: db, cache: c, profiles: profiles, backups: backups, audit: auditSvc, hooks: hooks, sched: sched}
}

// clientCall sends a client request for sid with an optional JSON body.
func (a *app) clientCall(method, path, sid string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: mw.SessionCookie, Value: sid})
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

func (a *app) adminCall(method, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if key != "" {
		req.Header.Set("X-Admin-Key", key)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

// createProfile registers a Usec profile for sid through the client route.
func (a *app) createProfile(t *testing.T, sid, nickname string) {
	t.Helper()
	w := a.clientCall(http.MethodPost, "/client/game/profile/create", sid,
		map[string]interface{}{"side": "Usec", "nickname": nickname})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

type clientEnvelope struct {
	Err    int             `json:"err"`
	ErrMsg *string         `json:"errmsg"`
	Data   json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) clientEnvelope {
	t.Helper()
	var env clientEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}
