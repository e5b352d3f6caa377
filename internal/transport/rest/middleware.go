package rest

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"dentalhub/internal/domain"
)

const (
	authorizationHeader = "Authorization"
	userIDCtx           = "user_id"
	userRoleCtx         = "user_role"

	limiterIdleTTL = 10 * time.Minute
)

func (h *Handler) loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger := h.logger.With(
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
			zap.String("user-agent", c.Request.UserAgent()),
		)

		if status >= 500 {
			logger.Error("server error")
		} else if status >= 400 {
			logger.Warn("client error")
		} else {
			logger.Info("request processed")
		}
	}
}

func (h *Handler) errorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, err := range c.Errors {
			h.logger.Error("request error", zap.Error(err))
		}
	}
}

func (h *Handler) corsMiddleware() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	origins := h.config.HTTP.AllowedOrigins
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}

	return cors.New(cfg)
}

// ipLimiters keeps one token bucket per client IP.
type ipLimiters struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*ipLimiter
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiters(rps, burst int) *ipLimiters {
	return &ipLimiters{
		limit:    rate.Limit(rps),
		burst:    burst,
		limiters: make(map[string]*ipLimiter),
	}
}

func (l *ipLimiters) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = entry
		l.evict(now)
	}
	entry.lastSeen = now

	return entry.limiter.AllowN(now, 1)
}

// evict drops buckets of clients that have been quiet for limiterIdleTTL. Called with mu held.
func (l *ipLimiters) evict(now time.Time) {
	for ip, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(l.limiters, ip)
		}
	}
}

func (h *Handler) rateLimitMiddleware() gin.HandlerFunc {
	if h.config.HTTP.RateLimitRPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiters := newIPLimiters(h.config.HTTP.RateLimitRPS, h.config.HTTP.RateLimitBurst)

	return func(c *gin.Context) {
		if !limiters.allow(c.ClientIP(), time.Now()) {
			h.logger.Warn("превышен лимит запросов", zap.String("ip", c.ClientIP()))
			tooManyRequestsResponse(c)
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader(authorizationHeader)
	if header == "" {
		return "", errors.New("пустой заголовок авторизации")
	}

	headerParts := strings.Split(header, " ")
	if len(headerParts) != 2 || headerParts[0] != "Bearer" || headerParts[1] == "" {
		return "", errors.New("неверный формат заголовка авторизации")
	}

	return headerParts[1], nil
}

func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			errorResponse(c, http.StatusUnauthorized, err.Error())
			return
		}

		identity, err := h.services.Auth.ParseToken(c.Request.Context(), token)
		if err != nil {
			h.respondError(c, err)
			return
		}

		c.Set(userIDCtx, identity.UserID)
		c.Set(userRoleCtx, identity.Role)

		c.Next()
	}
}

// optionalAuthMiddleware sets the identity when a valid token is present and lets
// anonymous requests through.
func (h *Handler) optionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			c.Next()
			return
		}

		identity, err := h.services.Auth.ParseToken(c.Request.Context(), token)
		if err == nil {
			c.Set(userIDCtx, identity.UserID)
			c.Set(userRoleCtx, identity.Role)
		}

		c.Next()
	}
}

// requireRole lets through only callers whose role is one of roles. Must run after authMiddleware.
func (h *Handler) requireRole(roles ...domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := getUserRole(c)
		if err != nil {
			unauthorizedResponse(c)
			return
		}

		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		forbiddenResponse(c)
	}
}

func (h *Handler) adminMiddleware() gin.HandlerFunc {
	return h.requireRole(domain.UserRoleAdmin)
}

func getUserID(c *gin.Context) (int64, error) {
	userID, exists := c.Get(userIDCtx)
	if !exists {
		return 0, errors.New("пользователь не авторизован")
	}

	id, ok := userID.(int64)
	if !ok {
		return 0, errors.New("некорректный ID пользователя")
	}

	return id, nil
}

func getUserRole(c *gin.Context) (domain.UserRole, error) {
	userRole, exists := c.Get(userRoleCtx)
	if !exists {
		return "", errors.New("пользователь не авторизован")
	}

	role, ok := userRole.(domain.UserRole)
	if !ok {
		return "", errors.New("некорректная роль пользователя")
	}

	return role, nil
}

// getIdentity returns the zero Identity for anonymous requests.
func getIdentity(c *gin.Context) domain.Identity {
	id, err := getUserID(c)
	if err != nil {
		return domain.Identity{}
	}
	role, _ := getUserRole(c)
	return domain.Identity{UserID: id, Role: role}
}
