package maintenance

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuscanteen/canteen-api/internal/identity"
	"github.com/campuscanteen/canteen-api/internal/observability"
)

func gateRequest(user *identity.Identity) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	if user != nil {
		req = req.WithContext(identity.ContextWithIdentity(req.Context(), user))
	}
	return req
}

func runGate(t *testing.T, svc *Service, user *identity.Identity, opts ...GateOption) *httptest.ResponseRecorder {
	t.Helper()
	var reached bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	Gate(svc, testLogger(), observability.NewMetrics(), opts...)(next).ServeHTTP(rec, gateRequest(user))
	if rec.Code == http.StatusOK {
		require.True(t, reached, "a 200 must come from the wrapped handler")
	} else {
		require.False(t, reached, "a blocked request must not reach the handler")
	}
	return rec
}

func TestGatePassesWhenInactive(t *testing.T) {
	repo := newMemoryRuleRepo()
	svc := NewService(repo, NewCache(nil, 0), nil, testLogger())

	rec := runGate(t, svc, student("CSE", intPtr(1), nil, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGateBlocksTargetedUser(t *testing.T) {
	repo := newMemoryRuleRepo()
	repo.rule.IsActive = true
	repo.rule.TargetingType = TargetingAll
	repo.rule.Title = "Upgrading"
	repo.rule.Message = "Back at noon"
	svc := NewService(repo, NewCache(nil, 0), nil, testLogger())

	rec := runGate(t, svc, student("CSE", intPtr(1), nil, nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Blocked)
	require.NotNil(t, body.Maintenance)
	assert.Equal(t, "Upgrading", body.Maintenance.Title)
	assert.Equal(t, "Back at noon", body.Maintenance.Message)
}

func TestGateSetsRetryAfterFromTTL(t *testing.T) {
	repo := newMemoryRuleRepo()
	repo.rule.IsActive = true
	svc, _ := newTestService(t, repo)

	rec := runGate(t, svc, student("CSE", intPtr(1), nil, nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
}

func TestGatePassesUntargetedUser(t *testing.T) {
	repo := newMemoryRuleRepo()
	repo.rule.IsActive = true
	repo.rule.TargetingType = TargetingDepartment
	repo.rule.TargetDepartments = []string{"CSE"}
	svc := NewService(repo, NewCache(nil, 0), nil, testLogger())

	rec := runGate(t, svc, student("ECE", intPtr(1), nil, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGateAdminBypass(t *testing.T) {
	repo := newMemoryRuleRepo()
	repo.rule.IsActive = true
	repo.rule.TargetingType = TargetingAll
	svc := NewService(repo, NewCache(nil, 0), nil, testLogger())

	admin := &identity.Identity{UserID: 1, Role: identity.RoleAdmin, IsAdmin: true}

	rec := runGate(t, svc, admin, AllowAdminAccess())
	assert.Equal(t, http.StatusOK, rec.Code, "admin must reach routes that opt in")

	rec = runGate(t, svc, admin)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "routes without the opt-in block admins too")
}

func TestGateBypassRequiresAdminFlag(t *testing.T) {
	repo := newMemoryRuleRepo()
	repo.rule.IsActive = true
	repo.rule.TargetingType = TargetingAll
	svc := NewService(repo, NewCache(nil, 0), nil, testLogger())

	rec := runGate(t, svc, staff("STF-9"), AllowAdminAccess())
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGateFailsOpenOnFetchError(t *testing.T) {
	repo := newMemoryRuleRepo()
	repo.getErr = errors.New("pool timeout")
	svc := NewService(repo, NewCache(nil, 0), nil, testLogger())

	rec := runGate(t, svc, student("CSE", intPtr(1), nil, nil))
	assert.Equal(t, http.StatusOK, rec.Code, "a store outage must never lock everyone out")
}

func TestGateBlocksAnonymousOnAllTargeting(t *testing.T) {
	repo := newMemoryRuleRepo()
	repo.rule.IsActive = true
	repo.rule.TargetingType = TargetingAll
	svc := NewService(repo, NewCache(nil, 0), nil, testLogger())

	rec := runGate(t, svc, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
