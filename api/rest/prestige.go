package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/raidprofile/audit"
	"github.com/kasuganosora/raidprofile/game/prestige"
	mw "github.com/kasuganosora/raidprofile/middleware"
	"github.com/kasuganosora/raidprofile/resource"
	"go.uber.org/zap"
)

// PrestigeEngine is what the prestige endpoints drive.
type PrestigeEngine interface {
	GetPrestigeCatalog() resource.Prestige
	ObtainPrestige(ctx context.Context, sessionID string, transfers []prestige.TransferRequest) (*prestige.Result, error)
}

// Auditor records audit entries.
type Auditor interface {
	Log(entry audit.AuditEntry)
}

// PrestigeHandler handles the client prestige endpoints.
type PrestigeHandler struct {
	engine PrestigeEngine
	audit  Auditor
	logger *zap.Logger
}

// NewPrestigeHandler creates a PrestigeHandler. auditor may be nil.
func NewPrestigeHandler(engine PrestigeEngine, auditor Auditor, logger *zap.Logger) *PrestigeHandler {
	return &PrestigeHandler{engine: engine, audit: auditor, logger: logger}
}

// List handles POST /client/prestige/list.
func (h *PrestigeHandler) List(c *gin.Context) {
	ok(c, h.engine.GetPrestigeCatalog())
}

// Obtain handles POST /client/prestige/obtain. The body is the list of items
// to carry into the new profile; an empty body carries nothing.
func (h *PrestigeHandler) Obtain(c *gin.Context) {
	sid := mw.GetSessionID(c)
	var transfers []prestige.TransferRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&transfers); err != nil {
			fail(c, http.StatusBadRequest, "invalid transfer list")
			return
		}
	}

	start := time.Now()
	res, err := h.engine.ObtainPrestige(c.Request.Context(), sid, transfers)
	h.record(c, sid, transfers, res, err, time.Since(start))
	if err != nil {
		status, msg := obtainError(err)
		fail(c, status, msg)
		return
	}
	ok(c, res)
}

func (h *PrestigeHandler) record(c *gin.Context, sid string, transfers []prestige.TransferRequest, res *prestige.Result, err error, elapsed time.Duration) {
	if h.audit == nil {
		return
	}
	entry := audit.AuditEntry{
		TraceID:    mw.GetTraceID(c),
		SessionID:  sid,
		Action:     audit.ActionPrestigeObtain,
		Request:    transfers,
		Response:   res,
		IP:         c.ClientIP(),
		DurationMs: int(elapsed.Milliseconds()),
	}
	if res != nil {
		entry.Outcome = res.State.String()
	}
	if err != nil {
		entry.Error = err.Error()
		if errors.Is(err, prestige.ErrPersistence) {
			entry.Outcome = "persistence_failed"
		}
	}
	h.audit.Log(entry)
}

// obtainError maps a transition failure to a status and a client message.
func obtainError(err error) (int, string) {
	switch {
	case errors.Is(err, prestige.ErrTransitionInProgress):
		return http.StatusConflict, "prestige already in progress"
	case errors.Is(err, prestige.ErrProfileMissing):
		return http.StatusNotFound, "profile not found"
	case errors.Is(err, prestige.ErrInterrupted):
		return http.StatusForbidden, "prestige refused"
	case errors.Is(err, prestige.ErrTierUnavailable):
		return http.StatusUnprocessableEntity, "no prestige tier available"
	case errors.Is(err, prestige.ErrPersistence):
		return http.StatusInternalServerError, "prestige could not be saved"
	default:
		return http.StatusInternalServerError, "prestige failed"
	}
}
