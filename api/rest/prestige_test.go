package rest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	crdb "github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/raidprofile/api/rest"
	"github.com/kasuganosora/raidprofile/audit"
	"github.com/kasuganosora/raidprofile/game/prestige"
	mw "github.com/kasuganosora/raidprofile/middleware"
	"github.com/kasuganosora/raidprofile/model"
	"github.com/kasuganosora/raidprofile/plugin/hook"
	"github.com/kasuganosora/raidprofile/resource"
	"github.com/kasuganosora/raidprofile/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrestigeList(t *testing.T) {
	a := newApp(t)
	w := a.clientCall(http.MethodPost, "/client/prestige/list", "sess-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	assert.Equal(t, 0, env.Err)
	assert.Nil(t, env.ErrMsg)
	var p resource.Prestige
	require.NoError(t, json.Unmarshal(env.Data, &p))
	require.Len(t, p.Elements, 3)
	assert.Equal(t, testutil.TierOneID, p.Elements[0].ID)
}

func TestPrestigeObtain_NoSession(t *testing.T) {
	a := newApp(t)
	w := a.clientCall(http.MethodPost, "/client/prestige/obtain", "", []prestige.TransferRequest{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPrestigeObtain_Success(t *testing.T) {
	a := newApp(t)
	a.createProfile(t, "sess-1", "Rook")

	w := a.clientCall(http.MethodPost, "/client/prestige/obtain", "sess-1", []prestige.TransferRequest{})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decodeEnvelope(t, w)
	assert.Equal(t, 0, env.Err)
	var res prestige.Result
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 1, res.PrestigeLevel)
	assert.Equal(t, testutil.TierOneID, res.TierID)
	assert.NotZero(t, res.BackupID)

	p, err := a.profiles.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.PMC().Info.PrestigeLevel)
	assert.True(t, p.HasUnlock(testutil.RewardWallID))

	// Audit is flushed on stop.
	a.audit.Stop(context.Background())
	var logs []model.AuditLog
	a.db.Where("action = ?", audit.ActionPrestigeObtain).Find(&logs)
	require.Len(t, logs, 1)
	assert.Equal(t, "sess-1", logs[0].SessionID)
	assert.Equal(t, prestige.StatePersisted.String(), logs[0].Outcome)
	assert.NotEmpty(t, logs[0].TraceID)
}

func TestPrestigeObtain_EmptyBody(t *testing.T) {
	a := newApp(t)
	a.createProfile(t, "sess-1", "Rook")

	w := a.clientCall(http.MethodPost, "/client/prestige/obtain", "sess-1", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestPrestigeObtain_BadBody(t *testing.T) {
	a := newApp(t)
	req := httptest.NewRequest(http.MethodPost, "/client/prestige/obtain", strings.NewReader(`{"id":`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(mw.SessionIDHeader, "sess-1")
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, http.StatusBadRequest, env.Err)
	require.NotNil(t, env.ErrMsg)
}

func TestPrestigeObtain_MissingProfile(t *testing.T) {
	a := newApp(t)
	w := a.clientCall(http.MethodPost, "/client/prestige/obtain", "nobody", []prestige.TransferRequest{})
	assert.Equal(t, http.StatusNotFound, w.Code)

	a.audit.Stop(context.Background())
	var logs []model.AuditLog
	a.db.Where("session_id = ?", "nobody").Find(&logs)
	require.Len(t, logs, 1)
	assert.Equal(t, prestige.StateAborted.String(), logs[0].Outcome)
	assert.NotEmpty(t, logs[0].Error)
}

func TestPrestigeObtain_HookVeto(t *testing.T) {
	a := newApp(t)
	a.createProfile(t, "sess-1", "Rook")
	a.hooks.Register(hook.BeforePrestigeObtain, 0, "deny", func(_ context.Context, _ string, data interface{}) (interface{}, error) {
		return data, hook.ErrInterrupt
	})

	w := a.clientCall(http.MethodPost, "/client/prestige/obtain", "sess-1", []prestige.TransferRequest{})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPrestigeObtain_InProgress(t *testing.T) {
	a := newApp(t)
	a.createProfile(t, "sess-1", "Rook")
	ok, err := a.cache.SetNX(context.Background(), "lock:prestige:sess-1", "other", 0)
	require.NoError(t, err)
	require.True(t, ok)

	w := a.clientCall(http.MethodPost, "/client/prestige/obtain", "sess-1", []prestige.TransferRequest{})
	assert.Equal(t, http.StatusConflict, w.Code)
}

// stubEngine returns a canned result and error.
type stubEngine struct {
	res *prestige.Result
	err error
}

func (s stubEngine) GetPrestigeCatalog() resource.Prestige { return resource.Prestige{} }

func (s stubEngine) ObtainPrestige(context.Context, string, []prestige.TransferRequest) (*prestige.Result, error) {
	return s.res, s.err
}

func TestPrestigeObtain_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"in progress", prestige.ErrTransitionInProgress, http.StatusConflict},
		{"missing", crdb.Mark(crdb.New("x"), prestige.ErrProfileMissing), http.StatusNotFound},
		{"tier", crdb.Mark(crdb.New("x"), prestige.ErrTierUnavailable), http.StatusUnprocessableEntity},
		{"veto", crdb.Mark(crdb.New("x"), prestige.ErrInterrupted), http.StatusForbidden},
		{"persistence", crdb.Mark(crdb.New("disk full"), prestige.ErrPersistence), http.StatusInternalServerError},
		{"reset", crdb.Mark(crdb.New("x"), prestige.ErrResetFailed), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := rest.NewPrestigeHandler(stubEngine{res: &prestige.Result{State: prestige.StateAborted}, err: tc.err}, nil, nopLogger())
			r := gin.New()
			r.POST("/obtain", mw.Session(), h.Obtain)
			req := httptest.NewRequest(http.MethodPost, "/obtain", nil)
			req.Header.Set(mw.SessionIDHeader, "s")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.want, w.Code)
			env := decodeEnvelope(t, w)
			assert.Equal(t, tc.want, env.Err)
			assert.Equal(t, "null", string(env.Data))
		})
	}
}
