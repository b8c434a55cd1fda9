package maintenance

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/campuscanteen/canteen-api/internal/identity"
	"github.com/campuscanteen/canteen-api/internal/observability"
	"github.com/campuscanteen/canteen-api/internal/platform/httpx"
)

type gateOptions struct {
	allowAdminAccess bool
}

// GateOption tunes the enforcement point per route group.
type GateOption func(*gateOptions)

// AllowAdminAccess lets administrators through even while the rule would
// block them. Mounted on the settings subtree so an admin can reach the
// switch and turn maintenance off while it is active.
func AllowAdminAccess() GateOption {
	return func(o *gateOptions) {
		o.allowAdminAccess = true
	}
}

// Gate returns the middleware run by every protected route. Each request is
// an independent evaluation of the cached rule against the request
// identity; a rule flip therefore reaches open sessions within the cache
// TTL without any push channel.
//
// If the rule cannot be fetched the gate fails open. Blocking all traffic
// on a transient outage is the one behavior this subsystem must never
// exhibit.
func Gate(svc *Service, logger *slog.Logger, metrics *observability.Metrics, opts ...GateOption) func(http.Handler) http.Handler {
	var options gateOptions
	for _, opt := range opts {
		opt(&options)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := identity.FromContext(r.Context())

			rule, err := svc.Current(r.Context())
			if err != nil {
				if logger != nil {
					logger.Warn("maintenance gate fetch failed, failing open", slog.Any("error", err))
				}
				metrics.GateDecision(observability.GateOutcomeFailOpen)
				next.ServeHTTP(w, r)
				return
			}

			if options.allowAdminAccess && user != nil && user.IsAdmin {
				metrics.GateDecision(observability.GateOutcomeBypass)
				next.ServeHTTP(w, r)
				return
			}

			if !IsBlocked(rule, user) {
				metrics.GateDecision(observability.GateOutcomeOpen)
				next.ServeHTTP(w, r)
				return
			}

			metrics.GateDecision(observability.GateOutcomeBlocked)
			notice := rule.Notice()
			if ttl := svc.cache.TTL(); ttl > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			}
			httpx.JSON(w, http.StatusServiceUnavailable, StatusResponse{
				Blocked:     true,
				Maintenance: &notice,
			})
		})
	}
}
