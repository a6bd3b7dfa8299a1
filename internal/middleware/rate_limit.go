package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	clients  map[string]*clientLimiter
	mu       sync.Mutex
	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter allows ratePerSecond requests per client with the given burst.
// A rate of zero or less disables limiting.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	rl := &RateLimiter{
		limit:   limit,
		burst:   burst,
		clients: make(map[string]*clientLimiter),
		stop:    make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = time.Now()
	return c.limiter.Allow()
}

// Handler is the gin middleware. Rejected requests get a JSON 429.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if rl.allow(ip) {
			c.Next()
			return
		}

		logrus.WithFields(logrus.Fields{
			"client_ip": ip,
			"path":      c.FullPath(),
		}).Warn("Rate limit exceeded")
		c.Header("Retry-After", strconv.Itoa(rl.retryAfterSeconds()))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"status":  "error",
			"message": "Rate limit exceeded",
		})
	}
}

func (rl *RateLimiter) retryAfterSeconds() int {
	if rl.limit == rate.Inf || rl.limit >= 1 {
		return 1
	}
	return int(1/float64(rl.limit)) + 1
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for key, c := range rl.clients {
				if now.Sub(c.lastSeen) > limiterIdleTTL {
					delete(rl.clients, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Stop ends the background cleanup.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}
