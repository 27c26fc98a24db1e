package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/kasuganosora/raidprofile/api/rest"
	"github.com/kasuganosora/raidprofile/audit"
	"github.com/kasuganosora/raidprofile/cache"
	"github.com/kasuganosora/raidprofile/config"
	dbadapter "github.com/kasuganosora/raidprofile/db"
	"github.com/kasuganosora/raidprofile/game/creator"
	"github.com/kasuganosora/raidprofile/game/customization"
	"github.com/kasuganosora/raidprofile/game/item"
	"github.com/kasuganosora/raidprofile/game/prestige"
	gskill "github.com/kasuganosora/raidprofile/game/skill"
	"github.com/kasuganosora/raidprofile/logging"
	mw "github.com/kasuganosora/raidprofile/middleware"
	"github.com/kasuganosora/raidprofile/model"
	"github.com/kasuganosora/raidprofile/plugin/hook"
	"github.com/kasuganosora/raidprofile/resource"
	"github.com/kasuganosora/raidprofile/scheduler"
	"github.com/kasuganosora/raidprofile/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	logger, err := logging.New(cfg.Log, cfg.Server.Debug)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	// Warn loudly if admin endpoints will be disabled.
	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(context.Background())

	// ---- Cache ----
	c, err := cache.NewCache(cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		RedisPrefix:     cfg.Cache.RedisPrefix,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
	})
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	defer cache.Close(c)
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Catalog ----
	catalog, err := resource.Load(cfg.Catalog.Path)
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}
	logger.Info("catalog loaded",
		zap.String("path", cfg.Catalog.Path),
		zap.Int("tiers", len(catalog.Tiers())))

	// ---- Metrics ----
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	profileCount := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "raidprofile",
		Name:      "profiles",
		Help:      "Number of stored profiles.",
	})
	registry.MustRegister(profileCount)

	// ---- Services ----
	profiles := store.NewProfileStore(db, c, cfg.Cache.ProfileTTL, logger)
	var backups *store.BackupStore
	if cfg.Backup.Enabled {
		backups, err = store.NewBackupStore(db, logger)
		if err != nil {
			log.Fatalf("backups: %v", err)
		}
		defer backups.Close()
	}
	hooks := hook.NewHookCenter(hook.WithLogger(logger))
	unlocks := customization.NewUnlockService(catalog, logger)
	creatorSvc := creator.NewService(profiles, catalog, logger)

	deps := prestige.Deps{
		Store:     profiles,
		Creator:   creatorSvc,
		Inventory: item.NewInventoryService(logger),
		Skills:    gskill.NewSkillService(logger),
		Unlocks:   unlocks,
		Catalog:   catalog,
		Cache:     c,
		Hooks:     hooks,
		Metrics:   prestige.NewMetrics(registry),
	}
	if backups != nil {
		deps.Backups = backups
	}
	engine := prestige.NewEngine(prestige.Config{
		MaxCarriedSkillProgress: cfg.Prestige.MaxCarriedSkillProgress,
		MaxTierIndex:            cfg.Prestige.MaxTierIndex,
		AchievementID:           cfg.Prestige.AchievementID,
		LockTTL:                 cfg.Prestige.LockTTL,
	}, deps, logger)

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	if backups != nil && cfg.Backup.Retention > 0 {
		err := sched.AddCron("backup_prune", cfg.Backup.PruneSpec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			n, err := backups.Prune(ctx, time.Now().Add(-cfg.Backup.Retention))
			if err != nil {
				logger.Error("backup prune failed", zap.Error(err))
				return
			}
			logger.Info("backups pruned", zap.Int64("removed", n))
		})
		if err != nil {
			log.Fatalf("scheduler: %v", err)
		}
	}
	sched.AddTicker("profile_count", time.Minute, func() {
		var n int64
		if err := db.Model(&model.ProfileRecord{}).Count(&n).Error; err != nil {
			logger.Warn("profile count failed", zap.Error(err))
			return
		}
		profileCount.Set(float64(n))
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger, "/health", cfg.Metrics.Path), mw.Recovery(logger))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	limiter := mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst)

	profileH := apirest.NewProfileHandler(creatorSvc, profiles, engine, hooks, auditSvc, logger)
	prestigeH := apirest.NewPrestigeHandler(engine, auditSvc, logger)
	customH := apirest.NewCustomizationHandler(profiles, unlocks, engine, logger)
	rankH := apirest.NewRankingHandler(db, c, logger)

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
		adminG.Use(mw.IPWhitelist(cfg.Security.AdminIPs, logger), apirest.AdminAuth(cfg.Server.AdminKey))
		adminH := apirest.NewAdminHandler(db, backups, profiles, engine, c, sched, auditSvc, logger)
		adminG.GET("/stats", adminH.Stats)
		adminG.GET("/scheduler", adminH.ListSchedulerTasks)
		adminG.POST("/ranking/refresh", rankH.RefreshRanking)
		// backup routes exist only when backups are enabled
		if backups != nil {
			adminG.GET("/backups", adminH.ListBackups)
			adminG.POST("/backups/:id/restore", adminH.RestoreBackup)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		logger.Info("Server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
}
