package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/raidprofile/cache"
	"github.com/kasuganosora/raidprofile/game/prestige"
	"github.com/kasuganosora/raidprofile/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RankingHandler handles leaderboard REST endpoints.
type RankingHandler struct {
	db     *gorm.DB
	cache  cache.Cache
	logger *zap.Logger
}

// NewRankingHandler creates a RankingHandler.
func NewRankingHandler(db *gorm.DB, c cache.Cache, logger *zap.Logger) *RankingHandler {
	return &RankingHandler{db: db, cache: c, logger: logger}
}

const rankingTop = 100

// RankEntry is one row in the leaderboard.
type RankEntry struct {
	Rank          int    `json:"rank"`
	SessionID     string `json:"session_id"`
	Nickname      string `json:"nickname"`
	Side          string `json:"side"`
	PrestigeLevel int    `json:"prestige_level"`
}

// TopPrestige returns the sessions with the highest prestige level.
// GET /api/ranking/prestige?limit=20
func (h *RankingHandler) TopPrestige(c *gin.Context) {
	limit := 20
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= rankingTop {
		limit = l
	}

	ctx := c.Request.Context()
	members, err := h.cache.ZRevRange(ctx, prestige.RankingKey, 0, int64(limit-1))
	if err == nil && len(members) > 0 {
		entries := make([]RankEntry, 0, len(members))
		for i, m := range members {
			score, _ := h.cache.ZScore(ctx, prestige.RankingKey, m)
			entries = append(entries, RankEntry{
				Rank:          i + 1,
				SessionID:     m,
				PrestigeLevel: int(score),
			})
		}
		h.enrichNames(entries)
		c.JSON(http.StatusOK, gin.H{"ranking": entries})
		return
	}

	// Fall back to DB query.
	var recs []model.ProfileRecord
	if err := h.db.Select("session_id, nickname, side, prestige_level").
		Where("prestige_level > 0").
		Order("prestige_level DESC, updated_at ASC").
		Limit(limit).
		Find(&recs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	entries := make([]RankEntry, len(recs))
	for i, r := range recs {
		entries[i] = RankEntry{
			Rank:          i + 1,
			SessionID:     r.SessionID,
			Nickname:      r.Nickname,
			Side:          r.Side,
			PrestigeLevel: r.PrestigeLevel,
		}
		_ = h.cache.ZAdd(ctx, prestige.RankingKey, float64(r.PrestigeLevel), r.SessionID)
	}
	c.JSON(http.StatusOK, gin.H{"ranking": entries})
}

// RefreshRanking rebuilds the ranking sorted set from the DB.
// POST /api/admin/ranking/refresh
func (h *RankingHandler) RefreshRanking(c *gin.Context) {
	var recs []model.ProfileRecord
	if err := h.db.Select("session_id, prestige_level").
		Where("prestige_level > 0").
		Order("prestige_level DESC").
		Limit(rankingTop).
		Find(&recs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	ctx := c.Request.Context()
	for _, r := range recs {
		if err := h.cache.ZAdd(ctx, prestige.RankingKey, float64(r.PrestigeLevel), r.SessionID); err != nil {
			h.logger.Warn("ranking refresh failed", zap.String("session_id", r.SessionID), zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, gin.H{"refreshed": len(recs)})
}

func (h *RankingHandler) enrichNames(entries []RankEntry) {
	if len(entries) == 0 {
		return
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.SessionID
	}
	var recs []model.ProfileRecord
	h.db.Select("session_id, nickname, side").Where("session_id IN ?", ids).Find(&recs)
	byID := make(map[string]model.ProfileRecord, len(recs))
	for _, r := range recs {
		byID[r.SessionID] = r
	}
	for i := range entries {
		if r, ok := byID[entries[i].SessionID]; ok {
			entries[i].Nickname = r.Nickname
			entries[i].Side = r.Side
		}
	}
}
