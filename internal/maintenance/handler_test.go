package maintenance

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuscanteen/canteen-api/internal/identity"
)

func newTestHandler(repo Repository) *Handler {
	svc := NewService(repo, NewCache(nil, 0), nil, testLogger())
	return NewHandler(testLogger(), svc)
}

func adminContext(r *http.Request) *http.Request {
	admin := &identity.Identity{UserID: 5, Role: identity.RoleAdmin, IsAdmin: true}
	return r.WithContext(identity.ContextWithIdentity(r.Context(), admin))
}

func handlerRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/status", h.Status)
	r.Get("/", h.Show)
	r.Patch("/", h.Update)
	r.Get("/windows", h.ListWindows)
	r.Post("/windows", h.CreateWindow)
	r.Delete("/windows/{id}", h.DeleteWindow)
	return r
}

func TestStatusAlwaysOK(t *testing.T) {
	repo := newMemoryRuleRepo()
	repo.rule.IsActive = true
	repo.rule.TargetingType = TargetingAll
	repo.rule.Title = "Maintenance"
	h := newTestHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req = req.WithContext(identity.ContextWithIdentity(req.Context(), student("CSE", intPtr(1), nil, nil)))
	rec := httptest.NewRecorder()
	handlerRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, "the poll endpoint reports, it never blocks")
	var body StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Blocked)
	require.NotNil(t, body.Maintenance)
	assert.Equal(t, "Maintenance", body.Maintenance.Title)
}

func TestShowReturnsFullRule(t *testing.T) {
	repo := newMemoryRuleRepo()
	repo.rule.TargetingType = TargetingSpecific
	repo.rule.SpecificUsers = []string{"21CS042"}
	h := newTestHandler(repo)

	req := adminContext(httptest.NewRequest(http.MethodGet, "/", nil))
	rec := httptest.NewRecorder()
	handlerRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var rule Rule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rule))
	assert.Equal(t, TargetingSpecific, rule.TargetingType)
	assert.Equal(t, []string{"21CS042"}, rule.SpecificUsers)
}

func TestUpdateMergesPatch(t *testing.T) {
	repo := newMemoryRuleRepo()
	repo.rule.Title = "Keep me"
	h := newTestHandler(repo)

	body := `{"isActive":true,"targetingType":"department","targetDepartments":["CSE","ECE"]}`
	req := adminContext(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handlerRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rule Rule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rule))
	assert.True(t, rule.IsActive)
	assert.Equal(t, TargetingDepartment, rule.TargetingType)
	assert.Equal(t, []string{"CSE", "ECE"}, rule.TargetDepartments)
	assert.Equal(t, "Keep me", rule.Title)
	require.NotNil(t, rule.UpdatedBy)
	assert.Equal(t, int64(5), *rule.UpdatedBy)
}

func TestUpdateRejectsEmptyPatch(t *testing.T) {
	h := newTestHandler(newMemoryRuleRepo())

	req := adminContext(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handlerRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateRejectsUnknownTargetingType(t *testing.T) {
	h := newTestHandler(newMemoryRuleRepo())

	req := adminContext(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"targetingType":"everyone"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handlerRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateRejectsMalformedJSON(t *testing.T) {
	h := newTestHandler(newMemoryRuleRepo())

	req := adminContext(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"isActive":`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handlerRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateWindowValidation(t *testing.T) {
	h := newTestHandler(newMemoryRuleRepo())

	start := time.Now().UTC().Add(time.Hour).Format(time.RFC3339)
	end := time.Now().UTC().Add(30 * time.Minute).Format(time.RFC3339)
	body := `{"name":"inverted","startsAt":"` + start + `","endsAt":"` + end + `"}`
	req := adminContext(httptest.NewRequest(http.MethodPost, "/windows", strings.NewReader(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handlerRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWindowLifecycleOverHTTP(t *testing.T) {
	h := newTestHandler(newMemoryRuleRepo())
	router := handlerRouter(h)

	start := time.Now().UTC().Add(time.Hour).Format(time.RFC3339)
	end := time.Now().UTC().Add(2 * time.Hour).Format(time.RFC3339)
	body := `{"name":"patch night","startsAt":"` + start + `","endsAt":"` + end + `","patch":{"title":"Patching"}}`
	req := adminContext(httptest.NewRequest(http.MethodPost, "/windows", strings.NewReader(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created Window
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "patch night", created.Name)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, adminContext(httptest.NewRequest(http.MethodGet, "/windows", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []Window
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, adminContext(httptest.NewRequest(http.MethodDelete, "/windows/1", nil)))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, adminContext(httptest.NewRequest(http.MethodDelete, "/windows/1", nil)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListWindowsEmptyIsArray(t *testing.T) {
	h := newTestHandler(newMemoryRuleRepo())

	rec := httptest.NewRecorder()
	handlerRouter(h).ServeHTTP(rec, adminContext(httptest.NewRequest(http.MethodGet, "/windows", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}
