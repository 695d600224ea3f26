package server

import (
	"math"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/talentlink/internal/auth/domain"
	obscontext "github.com/smallbiznis/talentlink/internal/observability/context"
	"github.com/smallbiznis/talentlink/internal/observability/logger"
	"github.com/smallbiznis/talentlink/internal/ratelimit"
	"go.uber.org/zap"
)

const (
	contextUserIDKey = "user_id"
	bearerPrefix     = "bearer "
)

// AuthRequired resolves the bearer token into the caller's user id.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			AbortWithError(c, authdomain.ErrMissingToken)
			return
		}

		userID, err := s.authsvc.Authenticate(c.Request.Context(), raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserIDKey, userID)
		c.Request = c.Request.WithContext(obscontext.WithActorID(c.Request.Context(), userID.String()))
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is sent and lets anonymous requests through.
func (s *Server) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.Next()
			return
		}
		if userID, err := s.authsvc.Authenticate(c.Request.Context(), raw); err == nil {
			c.Set(contextUserIDKey, userID)
			c.Request = c.Request.WithContext(obscontext.WithActorID(c.Request.Context(), userID.String()))
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

// currentUserID returns 0 for anonymous requests.
func currentUserID(c *gin.Context) snowflake.ID {
	if v, ok := c.Get(contextUserIDKey); ok {
		if id, ok := v.(snowflake.ID); ok {
			return id
		}
	}
	return 0
}

// RateLimit throttles requests per subject under policy. Limiter failures fail open.
func (s *Server) RateLimit(policy func(*ratelimit.Limiter) ratelimit.Policy, subject func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil || !s.limiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		p := policy(s.limiter)
		res, err := s.limiter.Allow(ctx, p, subject(c))
		if err != nil {
			logger.FromContext(ctx).Warn("rate limit check failed", zap.String("policy", p.Name), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			retry := int(math.Ceil(res.RetryAfter.Seconds()))
			if retry < 1 {
				retry = 1
			}
			logger.FromContext(ctx).Warn("rate limit exceeded", zap.String("policy", p.Name))
			c.Header("Retry-After", strconv.Itoa(retry))
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}

func tokenValidatePolicy(l *ratelimit.Limiter) ratelimit.Policy { return l.TokenValidate }

func emailInvitePolicy(l *ratelimit.Limiter) ratelimit.Policy { return l.EmailInvite }

func clientIPSubject(c *gin.Context) string { return c.ClientIP() }

func userSubject(c *gin.Context) string { return currentUserID(c).String() }
