package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/meghashyamc/folio/logger"
	"golang.org/x/time/rate"
)

const HeaderRequestID = "X-Request-ID"

const contextKeyRequestID = "request_id"

const maxRequestIDLength = 128

func loggingMiddleware(logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"request_id", c.GetString(contextKeyRequestID),
		)
	}
}

// requestIDMiddleware tags every request with an ID, reusing the caller's
// X-Request-ID when it sends a usable one.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if len(requestID) == 0 || len(requestID) > maxRequestIDLength {
			requestID = uuid.New().String()
		}
		c.Set(contextKeyRequestID, requestID)
		c.Writer.Header().Set(HeaderRequestID, requestID)
		c.Next()
	}
}

// maxTrackedClients bounds the number of token buckets kept in memory. The
// least recently seen client is forgotten first and starts with a full bucket
// if it returns.
const maxTrackedClients = 10000

// clientLimiter keeps one token bucket per client IP.
type clientLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	rps      float64
	burst    int
}

func newClientLimiter(rps float64, burst int, maxClients int) *clientLimiter {
	if burst < 1 {
		burst = 1
	}
	if maxClients <= 0 {
		maxClients = maxTrackedClients
	}
	limiters, _ := lru.New[string, *rate.Limiter](maxClients)
	return &clientLimiter{
		limiters: limiters,
		rps:      rps,
		burst:    burst,
	}
}

func (l *clientLimiter) allow(client string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters.Get(client)
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(l.rps), l.burst)
		l.limiters.Add(client, limiter)
	}
	l.mu.Unlock()

	return limiter.Allow()
}

// rateLimitMiddleware rejects requests from clients that exceed their budget.
// A non-positive rps disables limiting.
func rateLimitMiddleware(logger logger.Logger, rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	limiter := newClientLimiter(rps, burst, maxTrackedClients)
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			logger.Warn("rate limit exceeded", "client", c.ClientIP(), "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"data":   nil,
				"errors": []string{"too many requests, please try again later"},
			})
			return
		}
		c.Next()
	}
}

// _CORSMiddleware starts with _ so that it is not imported outside of the server package.
func _CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, If-None-Match, accept, origin, Cache-Control, X-Requested-With, X-Request-ID") // nolint:lll
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "ETag, "+HeaderRequestID)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)

			return
		}

		c.Next()
	}
}
