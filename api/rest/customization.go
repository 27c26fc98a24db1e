package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/raidprofile/game/customization"
	"github.com/kasuganosora/raidprofile/game/prestige"
	mw "github.com/kasuganosora/raidprofile/middleware"
	"github.com/kasuganosora/raidprofile/store"
	"go.uber.org/zap"
)

// CustomizationHandler serves the profile's cosmetic unlocks.
type CustomizationHandler struct {
	profiles store.ProfileStore
	unlocks  *customization.UnlockService
	locks    SessionLocker
	logger   *zap.Logger
}

// NewCustomizationHandler creates a CustomizationHandler.
func NewCustomizationHandler(profiles store.ProfileStore, unlocks *customization.UnlockService, locks SessionLocker, logger *zap.Logger) *CustomizationHandler {
	return &CustomizationHandler{profiles: profiles, unlocks: unlocks, locks: locks, logger: logger}
}

// Storage handles GET /client/customization/storage and
// GET /client/trading/customization/storage.
func (h *CustomizationHandler) Storage(c *gin.Context) {
	sid := mw.GetSessionID(c)
	p, err := h.profiles.Load(c.Request.Context(), sid)
	if errors.Is(err, store.ErrProfileNotFound) {
		fail(c, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		h.logger.Error("load profile for customisation storage", zap.String("session_id", sid), zap.Error(err))
		fail(c, http.StatusInternalServerError, "internal error")
		return
	}
	ok(c, h.unlocks.Storage(p))
}

// Offers handles GET /client/hideout/customization/offer/list.
func (h *CustomizationHandler) Offers(c *gin.Context) {
	ok(c, h.unlocks.Offers())
}

type setCustomisationBody struct {
	ID string `json:"id" binding:"required"`
}

// Set handles POST /client/hideout/customization/set. The cosmetic must
// already be unlocked on the profile.
func (h *CustomizationHandler) Set(c *gin.Context) {
	sid := mw.GetSessionID(c)
	var body setCustomisationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	ctx := c.Request.Context()

	unlock, err := h.locks.LockSession(ctx, sid)
	if errors.Is(err, prestige.ErrTransitionInProgress) {
		fail(c, http.StatusConflict, "profile is being updated")
		return
	}
	if err != nil {
		h.logger.Error("lock session for customisation", zap.String("session_id", sid), zap.Error(err))
		fail(c, http.StatusInternalServerError, "internal error")
		return
	}
	defer unlock()

	p, err := h.profiles.Load(ctx, sid)
	if errors.Is(err, store.ErrProfileNotFound) {
		fail(c, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		h.logger.Error("load profile for customisation", zap.String("session_id", sid), zap.Error(err))
		fail(c, http.StatusInternalServerError, "internal error")
		return
	}
	err = h.unlocks.SetCustomisation(p, body.ID)
	switch {
	case errors.Is(err, customization.ErrNotUnlocked):
		fail(c, http.StatusForbidden, err.Error())
		return
	case errors.Is(err, customization.ErrNotHideout), errors.Is(err, customization.ErrNoCharacter):
		fail(c, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.profiles.Save(ctx, sid, p); err != nil {
		h.logger.Error("save profile after customisation", zap.String("session_id", sid), zap.Error(err))
		fail(c, http.StatusInternalServerError, "internal error")
		return
	}
	ok(c, p.PMC().Hideout.Customization)
}
