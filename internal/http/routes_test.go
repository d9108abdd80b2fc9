package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/lab-portal/internal/domain/access"
	domainauth "github.com/target/lab-portal/internal/domain/auth"
	"github.com/target/lab-portal/internal/service"
)

func newTestRouter(t *testing.T, result service.AccessResult) http.Handler {
	t.Helper()
	return NewRouter(RouterServices{
		Auth:   &fakeAuthService{},
		Access: &stubEvaluator{result: result},
		Codec:  newTestCodec(t),
		Logger: discardLogger(),
	})
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_PublicAndHealth(t *testing.T) {
	h := newTestRouter(t, service.AccessResult{Decision: access.Continue()})

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodHead, "/healthz", http.StatusOK},
		{http.MethodGet, "/healthz/ready", http.StatusOK},
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/research", http.StatusOK},
		{http.MethodGet, "/research/quantum", http.StatusOK},
		{http.MethodGet, "/does-not-exist", http.StatusNotFound},
		{http.MethodGet, "/auth/error?error=no_roles", http.StatusOK},
		{http.MethodGet, "/api/auth/status", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := serve(h, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRouter_PageIncludesSession(t *testing.T) {
	sess := &domainauth.Session{UserID: "u1", Roles: []domainauth.Role{domainauth.RoleEngineer}}
	h := newTestRouter(t, service.AccessResult{Decision: access.Continue(), Session: sess})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "products", body["page"])
	assert.Contains(t, body, "user")
}

func TestRouter_AccessRedirectRunsBeforeMux(t *testing.T) {
	h := newTestRouter(t, service.AccessResult{Decision: access.RedirectToLogin("/admin")})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login?callbackUrl=%2Fadmin", rec.Header().Get("Location"))
}

func TestRouter_RoleGuards(t *testing.T) {
	engineer := &domainauth.Session{UserID: "u1", Roles: []domainauth.Role{domainauth.RoleEngineer}}

	t.Run("anonymous api call", func(t *testing.T) {
		h := newTestRouter(t, service.AccessResult{Decision: access.Continue()})
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("engineer on admin api", func(t *testing.T) {
		h := newTestRouter(t, service.AccessResult{Decision: access.Continue(), Session: engineer})
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestRouter_CSRFOnStateChanges(t *testing.T) {
	h := newTestRouter(t, service.AccessResult{Decision: access.Continue()})

	rec := serve(h, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
	req.Header.Set(DefaultCSRFHeaderName, "tok")
	rec = serve(h, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}
