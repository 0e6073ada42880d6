package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"sofimed-core/internal/modules/auth/dto"
)

type fakeSessions struct {
	sessions map[string]*dto.SessionData
}

func (f *fakeSessions) ValidateSession(ctx context.Context, token string) (*dto.SessionData, error) {
	if session, ok := f.sessions[token]; ok {
		return session, nil
	}
	return nil, dto.NewAuthError("INVALID_TOKEN", "Session invalide ou expirée", nil)
}

type fakeChecker struct {
	granted map[string][]string
	err     error
}

func (f *fakeChecker) HasPermission(ctx context.Context, userID, code string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, c := range f.granted[userID] {
		if c == code {
			return true, nil
		}
	}
	return false, nil
}

func newTestRouter(checker *fakeChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)

	stack := NewAuthMiddlewareStack(&fakeSessions{sessions: map[string]*dto.SessionData{
		"tok-admin": {UserID: "u-admin", Role: dto.RoleAdmin},
		"tok-super": {UserID: "u-super", Role: dto.RoleSuperAdmin},
		"tok-com":   {UserID: "u-com", Role: dto.RoleCommercial},
	}}, checker)

	r := gin.New()
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"user": c.GetString("user_id")}) }
	r.GET("/devis", append(RequirePermission(stack, "admin.devis"), ok)...)
	r.GET("/users", append(RequireAdmin(stack), ok)...)
	return r
}

func perform(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionMiddlewareRejectsMissingAndInvalidTokens(t *testing.T) {
	r := newTestRouter(&fakeChecker{})

	w := perform(r, "/devis", "")
	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "TOKEN_REQUIRED") {
		t.Fatalf("expected 401 TOKEN_REQUIRED, got %d %s", w.Code, w.Body.String())
	}

	w = perform(r, "/devis", "unknown")
	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "INVALID_TOKEN") {
		t.Fatalf("expected 401 INVALID_TOKEN, got %d %s", w.Code, w.Body.String())
	}
}

func TestRequirePermission(t *testing.T) {
	r := newTestRouter(&fakeChecker{granted: map[string][]string{"u-admin": {"admin.devis"}}})

	if w := perform(r, "/devis", "tok-admin"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for granted admin, got %d", w.Code)
	}
	if w := perform(r, "/devis", "tok-super"); w.Code != http.StatusOK {
		t.Fatalf("super admin must bypass permission checks, got %d", w.Code)
	}
	w := perform(r, "/devis", "tok-com")
	if w.Code != http.StatusForbidden || !strings.Contains(w.Body.String(), "INSUFFICIENT_PERMISSIONS") {
		t.Fatalf("expected 403 INSUFFICIENT_PERMISSIONS, got %d %s", w.Code, w.Body.String())
	}
}

func TestRequirePermissionCheckerFailure(t *testing.T) {
	r := newTestRouter(&fakeChecker{err: errors.New("redis down")})

	w := perform(r, "/devis", "tok-admin")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when checker fails, got %d", w.Code)
	}
}

func TestRequireAdminRole(t *testing.T) {
	r := newTestRouter(&fakeChecker{})

	if w := perform(r, "/users", "tok-admin"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", w.Code)
	}
	if w := perform(r, "/users", "tok-com"); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for commercial, got %d", w.Code)
	}
}

func TestExtractBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc":  "abc",
		"Basic abc":    "",
		"Bearer":       "",
		"":             "",
		"Bearer a b c": "",
	}
	for header, expected := range cases {
		if got := ExtractBearerToken(header); got != expected {
			t.Fatalf("ExtractBearerToken(%q) expected %q, got %q", header, expected, got)
		}
	}
}
