package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimiter guards an endpoint with a per-client-IP rate. The trigger
// endpoint uses a short-burst rate so a stuck hardware button cannot spawn
// episodes in a loop, while legitimate repeated presses still get through.
type RateLimiter struct {
	limiter *limiter.Limiter
	allow   prometheus.Counter
	deny    prometheus.Counter
}

// NewRateLimiter parses a rate like "5-M" (five per minute) with an in-memory
// store.
func NewRateLimiter(name, rateSpec string) (*RateLimiter, error) {
	rate, err := limiter.NewRateFromFormatted(rateSpec)
	if err != nil {
		return nil, err
	}
	return &RateLimiter{
		limiter: limiter.New(memory.NewStore(), rate),
		allow: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rate_limit_allow_total",
			Help: "Requests allowed by the rate limiter.",
			ConstLabels: prometheus.Labels{"endpoint": name},
		}),
		deny: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rate_limit_deny_total",
			Help: "Requests denied by the rate limiter.",
			ConstLabels: prometheus.Labels{"endpoint": name},
		}),
	}, nil
}

// Handle is the gin middleware.
func (r *RateLimiter) Handle(c *gin.Context) {
	ctx, err := r.limiter.Get(c.Request.Context(), c.ClientIP())
	if err != nil {
		c.Next()
		return
	}
	if ctx.Reached {
		r.deny.Inc()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"code":    http.StatusTooManyRequests,
			"message": "too many requests",
		})
		return
	}
	r.allow.Inc()
	c.Next()
}
