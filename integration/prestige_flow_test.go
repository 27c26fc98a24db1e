package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/kasuganosora/raidprofile/game/prestige"
	"github.com/kasuganosora/raidprofile/game/profile"
	"github.com/kasuganosora/raidprofile/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tplBandage     = "544fb25a4bdc2dfb738b4567"
	tplDogtag      = "675dc9d37ae1a8792107ca96"
	prestigeWallID = "675ff48ce8d2356707079617"
	prestigeFloor  = "6746fafabafff85bfb05d5b4"
)

func countTpl(p *profile.Profile, tpl string) int {
	n := 0
	for _, it := range p.PMC().Inventory.Items {
		if it.Tpl == tpl {
			n++
		}
	}
	return n
}

func TestHealth(t *testing.T) {
	ts := NewTestServer(t)
	resp := ts.Get(t, "/health")
	var body map[string]string
	ReadJSON(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestPrestigeLifecycle(t *testing.T) {
	ts := NewTestServer(t)
	ctx := context.Background()
	sid := UniqueID("sess")

	// 1. Create a Usec profile.
	ts.CreateProfile(t, sid, profile.SideUsec, "Rook")
	before, err := ts.Profiles.Load(ctx, sid)
	require.NoError(t, err)
	require.Equal(t, 1, countTpl(before, tplBandage))

	// 2. Level a skill past the carry-over cap.
	before.PMC().Skills.Common[0].Progress = 4200 // Endurance
	require.NoError(t, ts.Profiles.Save(ctx, sid, before))

	var bandageID string
	for _, it := range before.PMC().Inventory.Items {
		if it.Tpl == tplBandage {
			bandageID = it.ID
		}
	}
	require.NotEmpty(t, bandageID)

	// 3. The catalog endpoint lists both tiers.
	resp := ts.Client(t, http.MethodPost, "/client/prestige/list", sid, nil)
	var env Envelope
	ReadJSON(t, resp, &env)
	var catalog struct {
		Elements []struct {
			ID string `json:"id"`
		} `json:"elements"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &catalog))
	require.Len(t, catalog.Elements, 2)

	// 4. Prestige, carrying the bandage.
	status, env := ts.Obtain(t, sid, bandageID)
	require.Equal(t, http.StatusOK, status, "%v", env.ErrMsg)
	var res prestige.Result
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 1, res.PrestigeLevel)
	assert.Equal(t, catalog.Elements[0].ID, res.TierID)
	assert.Empty(t, res.SkippedItems)

	after, err := ts.Profiles.Load(ctx, sid)
	require.NoError(t, err)
	pmc := after.PMC()
	assert.NotEqual(t, before.PMC().ID, pmc.ID, "fresh character")
	assert.Equal(t, 1, pmc.Info.PrestigeLevel)
	assert.Equal(t, "Rook", pmc.Info.Nickname)
	assert.Equal(t, "Usec_1", pmc.Info.Voice)
	// 2000 carried + 500 reward.
	assert.Equal(t, 2500.0, pmc.Skills.Common[profile.FindSkill(pmc.Skills.Common, "Endurance")].Progress)
	assert.Equal(t, 2, countTpl(after, tplBandage), "template bandage plus the carried one")
	assert.Equal(t, 1, countTpl(after, tplDogtag))
	assert.Contains(t, pmc.Prestige, res.TierID)
	assert.True(t, after.HasUnlock(prestigeWallID))
	assert.Len(t, after.Achievements, 1)

	// 5. Cosmetic storage reflects the unlock.
	resp = ts.Client(t, http.MethodGet, "/client/trading/customization/storage", sid, nil)
	ReadJSON(t, resp, &env)
	var storage []profile.CustomisationStorage
	require.NoError(t, json.Unmarshal(env.Data, &storage))
	require.Len(t, storage, 1)
	assert.Equal(t, "wall", storage[0].Type)

	// 6. Second prestige grants both tiers' rewards; the wall is not duplicated.
	status, env = ts.Obtain(t, sid)
	require.Equal(t, http.StatusOK, status, "%v", env.ErrMsg)
	after, err = ts.Profiles.Load(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, 2, after.PMC().Info.PrestigeLevel)
	assert.True(t, after.HasUnlock(prestigeFloor))
	assert.Len(t, after.CustomisationUnlocks, 2)
	assert.Len(t, after.PMC().Prestige, 2)

	// 7. A third prestige stays on the last reachable tier.
	status, env = ts.Obtain(t, sid)
	require.Equal(t, http.StatusOK, status, "%v", env.ErrMsg)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 3, res.PrestigeLevel)
	assert.Equal(t, catalog.Elements[1].ID, res.TierID)
}

func TestPrestige_SkipsUnknownAndContainerTransfers(t *testing.T) {
	ts := NewTestServer(t)
	sid := UniqueID("sess")
	ts.CreateProfile(t, sid, profile.SideBear, "Bishop")
	p, err := ts.Profiles.Load(context.Background(), sid)
	require.NoError(t, err)

	status, env := ts.Obtain(t, sid, "does-not-exist", p.PMC().Inventory.Stash)
	require.Equal(t, http.StatusOK, status, "%v", env.ErrMsg)
	var res prestige.Result
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.ElementsMatch(t, []string{"does-not-exist", p.PMC().Inventory.Stash}, res.SkippedItems)
}

func TestPrestige_ConcurrentRequests(t *testing.T) {
	ts := NewTestServer(t)
	sid := UniqueID("sess")
	ts.CreateProfile(t, sid, profile.SideUsec, "Rook")

	const n = 8
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodPost, ts.URL+"/client/prestige/obtain", strings.NewReader("[]"))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Session-ID", sid)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			codes[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	ok, conflict := 0, 0
	for _, c := range codes {
		switch c {
		case http.StatusOK:
			ok++
		case http.StatusConflict:
			conflict++
		}
	}
	require.Equal(t, n, ok+conflict, "codes: %v", codes)
	require.GreaterOrEqual(t, ok, 1)

	// Every successful request advanced exactly one level.
	p, err := ts.Profiles.Load(context.Background(), sid)
	require.NoError(t, err)
	assert.Equal(t, ok, p.PMC().Info.PrestigeLevel)

	var backups int64
	ts.DB.Model(&model.ProfileBackup{}).Where("session_id = ?", sid).Count(&backups)
	assert.Equal(t, int64(ok), backups)
}

func TestPrestige_RankingAndMetrics(t *testing.T) {
	ts := NewTestServer(t)
	a, b := UniqueID("sess"), UniqueID("sess")
	ts.CreateProfile(t, a, profile.SideUsec, "Rook")
	ts.CreateProfile(t, b, profile.SideBear, "Bishop")
	for _, sid := range []string{b, b, a} {
		status, env := ts.Obtain(t, sid)
		require.Equal(t, http.StatusOK, status, "%v", env.ErrMsg)
	}
	status, _ := ts.Obtain(t, UniqueID("ghost"))
	require.Equal(t, http.StatusNotFound, status)

	resp := ts.Get(t, "/api/ranking/prestige")
	var ranking struct {
		Ranking []struct {
			SessionID     string `json:"session_id"`
			Nickname      string `json:"nickname"`
			PrestigeLevel int    `json:"prestige_level"`
		} `json:"ranking"`
	}
	ReadJSON(t, resp, &ranking)
	require.Len(t, ranking.Ranking, 2)
	assert.Equal(t, b, ranking.Ranking[0].SessionID)
	assert.Equal(t, "Bishop", ranking.Ranking[0].Nickname)
	assert.Equal(t, 2, ranking.Ranking[0].PrestigeLevel)

	resp = ts.Get(t, "/metrics")
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `raidprofile_prestige_transitions_total{outcome="persisted"} 3`)
	assert.Contains(t, text, `raidprofile_prestige_transitions_total{outcome="aborted"} 1`)
	// Only the second prestige of b reaches the tier with the daily quest reward.
	assert.Contains(t, text, fmt.Sprintf(`raidprofile_prestige_unhandled_rewards_total{type=%q} 1`, "ExtraDailyQuest"))
}

func TestAdmin_RestoreAfterPrestige(t *testing.T) {
	ts := NewTestServer(t)
	sid := UniqueID("sess")
	ts.CreateProfile(t, sid, profile.SideUsec, "Rook")
	status, _ := ts.Obtain(t, sid)
	require.Equal(t, http.StatusOK, status)

	resp := ts.Admin(t, http.MethodGet, "/api/admin/backups?session_id="+sid)
	var list struct {
		Backups []model.ProfileBackup `json:"backups"`
	}
	ReadJSON(t, resp, &list)
	require.Len(t, list.Backups, 1)

	resp = ts.Admin(t, http.MethodPost, fmt.Sprintf("/api/admin/backups/%d/restore", list.Backups[0].ID))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	p, err := ts.Profiles.Load(context.Background(), sid)
	require.NoError(t, err)
	assert.Equal(t, 0, p.PMC().Info.PrestigeLevel)
}
