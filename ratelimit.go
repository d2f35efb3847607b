package main

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// userLimiter keeps one token bucket per authenticated user.
type userLimiter struct {
	mu       sync.Mutex
	limiters map[int]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// newUserLimiter allows perMinute requests per user with the given burst.
// perMinute <= 0 disables limiting.
func newUserLimiter(perMinute, burst int) *userLimiter {
	if perMinute <= 0 {
		return &userLimiter{limit: rate.Inf}
	}
	if burst < 1 {
		burst = 1
	}
	return &userLimiter{
		limiters: map[int]*rate.Limiter{},
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
	}
}

func (l *userLimiter) get(userID int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.limiters[userID]; ok {
		return lim
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.limiters[userID] = lim
	return lim
}

// middleware rejects requests over the user's budget with 429. Must run
// after authMiddleware.
func (l *userLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.limit == rate.Inf {
			c.Next()
			return
		}
		if !l.get(c.GetInt("user_id")).Allow() {
			retry := int(1/float64(l.limit)) + 1
			c.Header("Retry-After", strconv.Itoa(retry))
			apiError(c, http.StatusTooManyRequests, "too many requests, try again shortly")
			c.Abort()
			return
		}
		c.Next()
	}
}
