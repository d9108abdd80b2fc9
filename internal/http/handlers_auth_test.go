package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/lab-portal/internal/domain/access"
	domainauth "github.com/target/lab-portal/internal/domain/auth"
	"github.com/target/lab-portal/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAuthService struct {
	sso         bool
	begin       *service.BeginLoginResult
	beginErr    error
	complete    *domainauth.Session
	loginSess   *domainauth.Session
	loginErr    error
	switchErr   error
	loggedOut   []string
	gotEmail    string
	gotInput    service.CompleteLoginInput
	gotCallback string
}

func (f *fakeAuthService) SSOEnabled() bool { return f.sso }

func (f *fakeAuthService) BeginLogin(_ context.Context, redirectURL string) (*service.BeginLoginResult, error) {
	f.gotCallback = redirectURL
	return f.begin, f.beginErr
}

func (f *fakeAuthService) CompleteLogin(_ context.Context, in service.CompleteLoginInput) (*domainauth.Session, error) {
	f.gotInput = in
	if f.complete == nil {
		return nil, service.ErrNoRoles
	}
	return f.complete, nil
}

func (f *fakeAuthService) LoginWithPassword(_ context.Context, email, _ string) (*domainauth.Session, error) {
	f.gotEmail = email
	return f.loginSess, f.loginErr
}

func (f *fakeAuthService) Logout(_ context.Context, id string) error {
	f.loggedOut = append(f.loggedOut, id)
	return nil
}

func (f *fakeAuthService) SwitchActiveRole(_ context.Context, sess *domainauth.Session, target string) (domainauth.Role, error) {
	if f.switchErr != nil {
		return "", f.switchErr
	}
	role, ok := domainauth.ParseRole(target)
	if !ok || !sess.HasRole(role) {
		return "", access.ErrRoleNotAssigned
	}
	return role, nil
}

func testSession() *domainauth.Session {
	return &domainauth.Session{
		ID:        "sess-1",
		UserID:    "u1",
		Email:     "ada@example.com",
		FirstName: "Ada",
		Roles:     []domainauth.Role{domainauth.RoleEngineer, domainauth.RoleAdmin},
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func newAuthHandlers(t *testing.T, svc *fakeAuthService) *AuthHandlers {
	t.Helper()
	return &AuthHandlers{Svc: svc, Codec: newTestCodec(t), Logger: discardLogger()}
}

func TestAuthHandlers_PasswordLoginForm(t *testing.T) {
	svc := &fakeAuthService{loginSess: testSession()}
	h := newAuthHandlers(t, svc)

	form := url.Values{"email": {"  ada@example.com "}, "password": {"pw"}, "callbackUrl": {"/engineer/projects"}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: access.CookieName, Value: "stale"})
	rec := httptest.NewRecorder()
	h.PasswordLogin(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/engineer/projects", rec.Header().Get("Location"))
	assert.Equal(t, "ada@example.com", svc.gotEmail)

	sc := findCookie(rec, service.SessionCookieName)
	require.NotNil(t, sc)
	assert.Equal(t, "sess-1", sc.Value)
	assert.True(t, sc.HttpOnly)

	ac := findCookie(rec, access.CookieName)
	require.NotNil(t, ac)
	assert.Equal(t, -1, ac.MaxAge, "a previous user's active role is cleared")
}

func TestAuthHandlers_PasswordLoginFailures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		asJSON     bool
		wantStatus int
		wantCode   string
	}{
		{"bad credentials json", service.ErrInvalidCredentials, true, http.StatusUnauthorized, "invalid_credentials"},
		{"no roles json", service.ErrNoRoles, true, http.StatusUnauthorized, "no_roles"},
		{"internal json", errors.New("db down"), true, http.StatusInternalServerError, "login_failed"},
		{"bad credentials form", service.ErrInvalidCredentials, false, http.StatusSeeOther, "invalid_credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newAuthHandlers(t, &fakeAuthService{loginErr: tt.err})

			var req *http.Request
			if tt.asJSON {
				req = httptest.NewRequest(http.MethodPost, "/api/auth/login",
					strings.NewReader(`{"email":"a@example.com","password":"x"}`))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(http.MethodPost, "/api/auth/login",
					strings.NewReader("email=a%40example.com&password=x"))
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			}
			rec := httptest.NewRecorder()
			h.PasswordLogin(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Nil(t, findCookie(rec, service.SessionCookieName))
			if tt.asJSON {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.wantCode, body["error"])
			} else {
				assert.Equal(t, "/auth/error?error="+tt.wantCode, rec.Header().Get("Location"))
			}
		})
	}
}

func TestAuthHandlers_PasswordLoginRejectsOpenRedirect(t *testing.T) {
	h := newAuthHandlers(t, &fakeAuthService{loginSess: testSession()})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"a@example.com","password":"x","callbackUrl":"//evil.example"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.PasswordLogin(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "/", body["redirect_to"])
}

func TestAuthHandlers_LoginPageSSO(t *testing.T) {
	svc := &fakeAuthService{sso: true, begin: &service.BeginLoginResult{
		AuthURL: "https://idp.example/authorize", State: "st", Nonce: "nn",
	}}
	h := newAuthHandlers(t, svc)

	rec := httptest.NewRecorder()
	h.LoginPage(rec, httptest.NewRequest(http.MethodGet, "/auth/login?callbackUrl=%2Fadmin%2Fusers", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://idp.example/authorize", rec.Header().Get("Location"))
	assert.Equal(t, "/admin/users", svc.gotCallback)
	assert.Equal(t, "st", findCookie(rec, oauthStateCookie).Value)
	assert.Equal(t, "nn", findCookie(rec, oauthNonceCookie).Value)
	assert.Equal(t, "/admin/users", findCookie(rec, postLoginCookie).Value)
}

func TestAuthHandlers_LoginPageCredentials(t *testing.T) {
	h := newAuthHandlers(t, &fakeAuthService{})
	rec := httptest.NewRecorder()
	h.LoginPage(rec, httptest.NewRequest(http.MethodGet, "/auth/login?callbackUrl=%2Fengineer", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "credentials", body["method"])
	assert.Equal(t, "/engineer", body["callbackUrl"])
}

func TestAuthHandlers_Callback(t *testing.T) {
	t.Run("state mismatch", func(t *testing.T) {
		h := newAuthHandlers(t, &fakeAuthService{sso: true})
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=other", nil)
		req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "st"})
		req.AddCookie(&http.Cookie{Name: oauthNonceCookie, Value: "nn"})
		rec := httptest.NewRecorder()
		h.Callback(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/auth/error?error=invalid_state", rec.Header().Get("Location"))
	})

	t.Run("success", func(t *testing.T) {
		svc := &fakeAuthService{sso: true, complete: testSession()}
		h := newAuthHandlers(t, svc)
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=st", nil)
		req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "st"})
		req.AddCookie(&http.Cookie{Name: oauthNonceCookie, Value: "nn"})
		req.AddCookie(&http.Cookie{Name: postLoginCookie, Value: "/engineer/projects"})
		rec := httptest.NewRecorder()
		h.Callback(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/engineer/projects", rec.Header().Get("Location"))
		assert.Equal(t, service.CompleteLoginInput{Code: "c", State: "st", Nonce: "nn"}, svc.gotInput)
		assert.Equal(t, "sess-1", findCookie(rec, service.SessionCookieName).Value)
	})

	t.Run("no roles", func(t *testing.T) {
		h := newAuthHandlers(t, &fakeAuthService{sso: true})
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=st", nil)
		req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "st"})
		req.AddCookie(&http.Cookie{Name: oauthNonceCookie, Value: "nn"})
		rec := httptest.NewRecorder()
		h.Callback(rec, req)

		assert.Equal(t, "/auth/error?error=no_roles", rec.Header().Get("Location"))
		assert.Nil(t, findCookie(rec, service.SessionCookieName))
	})
}

func TestAuthHandlers_Logout(t *testing.T) {
	svc := &fakeAuthService{}
	h := newAuthHandlers(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: service.SessionCookieName, Value: "sess-1"})
	req.AddCookie(&http.Cookie{Name: access.CookieName, Value: "signed"})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, []string{"sess-1"}, svc.loggedOut)
	for _, name := range []string{service.SessionCookieName, access.CookieName} {
		c := findCookie(rec, name)
		require.NotNil(t, c, name)
		assert.Equal(t, -1, c.MaxAge, name)
	}
}

func TestAuthHandlers_Status(t *testing.T) {
	h := newAuthHandlers(t, &fakeAuthService{})

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/auth/status", nil))
	assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())

	sess := testSession()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/status", nil)
	ctx := SetSessionInContext(req.Context(), sess)
	ctx = setActiveRoleInContext(ctx, access.ResolveActiveRole("ADMIN", sess.Roles))
	rec = httptest.NewRecorder()
	h.Status(rec, req.WithContext(ctx))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, "ADMIN", body["active_role"])
}

func TestAuthHandlers_SwitchActiveRole(t *testing.T) {
	withSession := func(r *http.Request) *http.Request {
		return r.WithContext(SetSessionInContext(r.Context(), testSession()))
	}

	t.Run("form redirects to portal", func(t *testing.T) {
		h := newAuthHandlers(t, &fakeAuthService{})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/active-role", strings.NewReader("role=ADMIN"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.SwitchActiveRole(rec, withSession(req))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin", rec.Header().Get("Location"))
		c := findCookie(rec, access.CookieName)
		require.NotNil(t, c)
		role, err := h.Codec.Decode(c.Value, "u1")
		require.NoError(t, err)
		assert.Equal(t, domainauth.RoleAdmin, role)
	})

	t.Run("json", func(t *testing.T) {
		h := newAuthHandlers(t, &fakeAuthService{})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/active-role", strings.NewReader(`{"role":"ENGINEER"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.SwitchActiveRole(rec, withSession(req))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"active_role":"ENGINEER","redirect_to":"/engineer"}`, rec.Body.String())
	})

	t.Run("role not held", func(t *testing.T) {
		h := newAuthHandlers(t, &fakeAuthService{switchErr: access.ErrRoleNotAssigned})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/active-role", strings.NewReader(`{"role":"ADMIN"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.SwitchActiveRole(rec, withSession(req))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Nil(t, findCookie(rec, access.CookieName))
	})

	t.Run("no session", func(t *testing.T) {
		h := newAuthHandlers(t, &fakeAuthService{})
		rec := httptest.NewRecorder()
		h.SwitchActiveRole(rec, httptest.NewRequest(http.MethodPost, "/api/auth/active-role", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthHandlers_ErrorPage(t *testing.T) {
	h := newAuthHandlers(t, &fakeAuthService{})
	rec := httptest.NewRecorder()
	h.ErrorPage(rec, httptest.NewRequest(http.MethodGet, "/auth/error?error=bogus", nil))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "login_failed", body["error"])
}
