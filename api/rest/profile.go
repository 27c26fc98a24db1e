package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/raidprofile/audit"
	"github.com/kasuganosora/raidprofile/game/creator"
	"github.com/kasuganosora/raidprofile/game/prestige"
	mw "github.com/kasuganosora/raidprofile/middleware"
	"github.com/kasuganosora/raidprofile/plugin/hook"
	"github.com/kasuganosora/raidprofile/store"
	"go.uber.org/zap"
)

// ProfileCreator builds a new profile for a session.
type ProfileCreator interface {
	CreateProfile(ctx context.Context, sessionID string, req creator.CreateRequest) error
}

// SessionLocker serializes every writer of one session's profile.
type SessionLocker interface {
	LockSession(ctx context.Context, sessionID string) (unlock func(), err error)
}

// createProfileBody is what a client may send. The prestige level is not
// part of it: only a prestige transition moves the level.
type createProfileBody struct {
	Side     string `json:"side" binding:"required"`
	Nickname string `json:"nickname" binding:"required"`
	HeadID   string `json:"headId"`
	VoiceID  string `json:"voiceId"`
}

// ProfileHandler handles profile REST endpoints.
type ProfileHandler struct {
	creator  ProfileCreator
	profiles store.ProfileStore
	locks    SessionLocker
	hooks    *hook.HookCenter
	audit    Auditor
	logger   *zap.Logger
}

// NewProfileHandler creates a ProfileHandler. hooks and auditor may be nil.
func NewProfileHandler(c ProfileCreator, profiles store.ProfileStore, locks SessionLocker, hooks *hook.HookCenter, auditor Auditor, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{creator: c, profiles: profiles, locks: locks, hooks: hooks, audit: auditor, logger: logger}
}

// Create handles POST /client/game/profile/create.
func (h *ProfileHandler) Create(c *gin.Context) {
	sid := mw.GetSessionID(c)

	var body createProfileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	req := creator.CreateRequest{Side: body.Side, Nickname: body.Nickname, HeadID: body.HeadID, VoiceID: body.VoiceID}

	unlock, err := h.locks.LockSession(c.Request.Context(), sid)
	if errors.Is(err, prestige.ErrTransitionInProgress) {
		fail(c, http.StatusConflict, "profile is being updated")
		return
	}
	if err != nil {
		h.logger.Error("lock session for profile create", zap.String("session_id", sid), zap.Error(err))
		fail(c, http.StatusInternalServerError, "internal error")
		return
	}
	start := time.Now()
	err = h.creator.CreateProfile(c.Request.Context(), sid, req)
	unlock()
	if h.audit != nil {
		entry := audit.AuditEntry{
			TraceID:    mw.GetTraceID(c),
			SessionID:  sid,
			Action:     audit.ActionProfileCreate,
			Outcome:    "created",
			Request:    req,
			IP:         c.ClientIP(),
			DurationMs: int(time.Since(start).Milliseconds()),
		}
		if err != nil {
			entry.Outcome = "failed"
			entry.Error = err.Error()
		}
		h.audit.Log(entry)
	}
	switch {
	case errors.Is(err, creator.ErrUnknownSide), errors.Is(err, creator.ErrNicknameRequired):
		fail(c, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.logger.Error("create profile", zap.String("session_id", sid), zap.Error(err))
		fail(c, http.StatusInternalServerError, "internal error")
		return
	}

	if h.hooks != nil {
		if _, err := h.hooks.Trigger(c.Request.Context(), hook.AfterProfileCreate, sid); err != nil {
			h.logger.Debug("after profile create hook interrupted", zap.String("session_id", sid), zap.Error(err))
		}
	}

	uid := ""
	if p, err := h.profiles.Load(c.Request.Context(), sid); err == nil && p.PMC() != nil {
		uid = p.PMC().ID
	}
	ok(c, gin.H{"uid": uid})
}
