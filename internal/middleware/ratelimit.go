package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"rwid/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateRule is a fixed-window budget for one action.
type RateRule struct {
	Name   string
	Limit  int
	Window time.Duration
	// FailClosed rejects requests while Redis is unreachable instead of
	// letting them through.
	FailClosed bool
}

var (
	LoginRule    = RateRule{Name: "login", Limit: 10, Window: 5 * time.Minute, FailClosed: true}
	PostRule     = RateRule{Name: "create_post", Limit: 10, Window: time.Minute}
	ReactionRule = RateRule{Name: "reaction", Limit: 120, Window: time.Minute}
)

// RateDecision is the outcome of counting one hit.
type RateDecision struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

var errNoRedis = errors.New("rate limiter has no redis client")

// RateLimiter counts hits per rule and subject in Redis under
// rl:<rule>:<subject>. A disabled limiter allows everything.
type RateLimiter struct {
	rdb     *redis.Client
	enabled bool
}

func NewRateLimiter(rdb *redis.Client, enabled bool) *RateLimiter {
	return &RateLimiter{rdb: rdb, enabled: enabled}
}

// Allow counts one hit for subject against rule.
func (l *RateLimiter) Allow(ctx context.Context, rule RateRule, subject string) (RateDecision, error) {
	if l == nil || !l.enabled {
		return RateDecision{Allowed: true, Remaining: rule.Limit, ResetIn: rule.Window}, nil
	}
	if l.rdb == nil {
		return RateDecision{}, errNoRedis
	}

	key := "rl:" + rule.Name + ":" + subject
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return RateDecision{}, fmt.Errorf("count %s: %w", key, err)
	}

	resetIn := ttl.Val()
	if resetIn <= 0 {
		// First hit in the window, or a key that lost its expiry.
		if err := l.rdb.PExpire(ctx, key, rule.Window).Err(); err != nil {
			return RateDecision{}, fmt.Errorf("expire %s: %w", key, err)
		}
		resetIn = rule.Window
	}

	count := int(incr.Val())
	return RateDecision{
		Allowed:   count <= rule.Limit,
		Remaining: max(rule.Limit-count, 0),
		ResetIn:   resetIn,
	}, nil
}

// Handler enforces rule per signed-in user, or per client IP for anonymous
// requests, and reports the budget in X-RateLimit-* headers.
func (l *RateLimiter) Handler(rule RateRule) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject := "ip:" + c.IP()
		if uid, ok := UserID(c); ok {
			subject = "user:" + uid
		}

		decision, err := l.Allow(c.UserContext(), rule, subject)
		if err != nil {
			Logger.WarnContext(c.UserContext(), "Rate limit check failed",
				slog.String("rule", rule.Name),
				slog.Bool("fail_closed", rule.FailClosed),
				slog.String("error", err.Error()),
			)
			if rule.FailClosed {
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
					Error: "Service is temporarily unavailable. Please try again.",
					Code:  models.CodeRateLimited,
				})
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			retry := int((decision.ResetIn + time.Second - 1) / time.Second)
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retry))
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many attempts. Please wait a moment and try again.",
				Code:  models.CodeRateLimited,
			})
		}
		return c.Next()
	}
}
