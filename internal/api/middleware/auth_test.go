package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/femmie/marketplace/internal/core/domain"
)

type stubVerifier struct {
	identity domain.Identity
	err      error
	got      string
}

func (s *stubVerifier) VerifyAccess(token string) (domain.Identity, error) {
	s.got = token
	return s.identity, s.err
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	verifier := &stubVerifier{identity: domain.Identity{UserID: "u-1", Email: "ann@x.com", Role: domain.RoleRegular}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(verifier)(func(c echo.Context) error {
		called = true
		id, ok := c.Get(IdentityKey).(domain.Identity)
		if !ok || id.Email != "ann@x.com" {
			t.Fatalf("identity not set: %#v", c.Get(IdentityKey))
		}
		if c.Get(RoleKey) != domain.RoleRegular {
			t.Fatalf("role not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if verifier.got != "abc.def.ghi" {
		t.Fatalf("verifier got %q", verifier.got)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
		err    error
	}{
		{"missing header", "", nil},
		{"wrong scheme", "Basic abc", nil},
		{"empty token", "Bearer ", nil},
		{"verifier rejects", "Bearer abc", errors.New("expired")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())

			handler := Auth(&stubVerifier{err: tt.err})(func(c echo.Context) error {
				t.Fatalf("should not reach next handler")
				return nil
			})

			err := handler(c)
			var he *echo.HTTPError
			if !errors.As(err, &he) {
				t.Fatalf("expected echo.HTTPError, got %v", err)
			}
			if he.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", he.Code)
			}
		})
	}
}
