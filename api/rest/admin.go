package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/raidprofile/audit"
	"github.com/kasuganosora/raidprofile/cache"
	"github.com/kasuganosora/raidprofile/game/prestige"
	mw "github.com/kasuganosora/raidprofile/middleware"
	"github.com/kasuganosora/raidprofile/model"
	"github.com/kasuganosora/raidprofile/scheduler"
	"github.com/kasuganosora/raidprofile/store"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by AdminAuth middleware.
type AdminHandler struct {
	db       *gorm.DB
	backups  *store.BackupStore
	profiles store.ProfileStore
	locks    SessionLocker
	cache    cache.Cache
	sched    *scheduler.Scheduler
	audit    Auditor
	logger   *zap.Logger
}

// NewAdminHandler creates an AdminHandler. auditor may be nil.
func NewAdminHandler(
	db *gorm.DB,
	backups *store.BackupStore,
	profiles store.ProfileStore,
	locks SessionLocker,
	rankings cache.Cache,
	sched *scheduler.Scheduler,
	auditor Auditor,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		db: db, backups: backups, profiles: profiles, locks: locks, cache: rankings,
		sched: sched, audit: auditor, logger: logger,
	}
}

// Stats returns profile and backup counts.
// GET /api/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	var profiles, backups int64
	if err := h.db.Model(&model.ProfileRecord{}).Count(&profiles).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if err := h.db.Model(&model.ProfileBackup{}).Count(&backups).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profiles":        profiles,
		"backups":         backups,
		"scheduler_tasks": h.sched.ListTickers(),
	})
}

// ListBackups returns backup metadata, newest first.
// GET /api/admin/backups?session_id=&limit=
func (h *AdminHandler) ListBackups(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.backups.List(c.Request.Context(), c.Query("session_id"), limit)
	if err != nil {
		h.logger.Error("list backups", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"backups": list, "count": len(list)})
}

// RestoreBackup replaces the session's live profile with a backup. It holds
// the session lock so it never interleaves with a prestige or a re-create.
// POST /api/admin/backups/:id/restore
func (h *AdminHandler) RestoreBackup(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	ctx := c.Request.Context()
	start := time.Now()

	meta, _, err := h.backups.Get(ctx, id)
	if errors.Is(err, store.ErrBackupNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "backup not found"})
		return
	}
	if err != nil {
		h.logger.Error("read backup", zap.Int64("backup_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "restore failed"})
		return
	}
	unlock, err := h.locks.LockSession(ctx, meta.SessionID)
	if errors.Is(err, prestige.ErrTransitionInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "profile is being updated"})
		return
	}
	if err != nil {
		h.logger.Error("lock session for restore", zap.String("session_id", meta.SessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "restore failed"})
		return
	}
	rec, err := h.backups.Restore(ctx, id, h.profiles)
	unlock()

	if h.audit != nil {
		entry := audit.AuditEntry{
			TraceID:    mw.GetTraceID(c),
			SessionID:  meta.SessionID,
			Action:     audit.ActionBackupRestore,
			Outcome:    "restored",
			Request:    gin.H{"backup_id": id},
			IP:         c.ClientIP(),
			DurationMs: int(time.Since(start).Milliseconds()),
		}
		if err != nil {
			entry.Outcome = "failed"
			entry.Error = err.Error()
		}
		h.audit.Log(entry)
	}
	if errors.Is(err, store.ErrBackupNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "backup not found"})
		return
	}
	if err != nil {
		h.logger.Error("restore backup", zap.Int64("backup_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "restore failed"})
		return
	}
	h.syncRanking(ctx, rec.SessionID, rec.PrestigeLevel)
	h.logger.Info("admin restored backup", zap.Int64("backup_id", id), zap.String("session_id", rec.SessionID))
	c.JSON(http.StatusOK, gin.H{"ok": true, "session_id": rec.SessionID, "prestige_level": rec.PrestigeLevel})
}

// syncRanking makes the ranking score follow a restored prestige level.
// Level 0 sessions are not ranked.
func (h *AdminHandler) syncRanking(ctx context.Context, sessionID string, level int) {
	if h.cache == nil {
		return
	}
	var err error
	if level > 0 {
		err = h.cache.ZAdd(ctx, prestige.RankingKey, float64(level), sessionID)
	} else {
		err = h.cache.ZRem(ctx, prestige.RankingKey, sessionID)
	}
	if err != nil {
		h.logger.Warn("ranking update after restore failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// ListSchedulerTasks returns all registered tasks with their next run.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.Tasks()})
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// WARNING: if adminKey is empty all admin endpoints are disabled (503) so the
// server cannot be accidentally deployed without protection. Set a non-empty
// server.admin_key in config to enable admin routes.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if key != adminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
