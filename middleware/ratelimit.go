package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterIdle  = 10 * time.Minute
	limiterSweep = 5 * time.Minute
)

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterSet struct {
	mu        sync.Mutex
	r         rate.Limit
	b         int
	byKey     map[string]*keyedLimiter
	lastSweep time.Time
}

// get returns the bucket for key, dropping buckets idle for limiterIdle at
// most once per limiterSweep.
func (s *limiterSet) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.lastSweep) > limiterSweep {
		for k, kl := range s.byKey {
			if now.Sub(kl.lastSeen) > limiterIdle {
				delete(s.byKey, k)
			}
		}
		s.lastSweep = now
	}
	kl, ok := s.byKey[key]
	if !ok {
		kl = &keyedLimiter{limiter: rate.NewLimiter(s.r, s.b)}
		s.byKey[key] = kl
	}
	kl.lastSeen = now
	return kl.limiter
}

// RateLimit is a token bucket of r requests per second with burst b, keyed
// by session id when Session ran first and by client IP otherwise. Rejected
// requests get 429 with a Retry-After hint.
func RateLimit(r rate.Limit, b int) gin.HandlerFunc {
	set := &limiterSet{r: r, b: b, byKey: make(map[string]*keyedLimiter), lastSweep: time.Now()}
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if sid := GetSessionID(c); sid != "" {
			key = "sid:" + sid
		}
		if !set.get(key, time.Now()).Allow() {
			c.Header("Retry-After", strconv.Itoa(retryAfter(r)))
			abort(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		c.Next()
	}
}

// retryAfter is the whole seconds until one token refills.
func retryAfter(r rate.Limit) int {
	if r <= 0 || r == rate.Inf {
		return 1
	}
	return max(1, int(math.Ceil(1/float64(r))))
}
