package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func invokeRBAC(t *testing.T, callerRoles []string, allowed ...string) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/test/mod", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if callerRoles != nil {
		c.Set("roles", callerRoles)
	}

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	return RBAC(allowed...)(next)(c)
}

func TestRBAC_AllowsMatchingRole(t *testing.T) {
	if err := invokeRBAC(t, []string{"ROLE_MODERATOR"}, "ROLE_MODERATOR", "ROLE_ADMIN"); err != nil {
		t.Fatalf("expected moderator to pass, got %v", err)
	}
}

func TestRBAC_AnyRoleSuffices(t *testing.T) {
	err := invokeRBAC(t, []string{"ROLE_USER", "ROLE_ADMIN"}, "ROLE_ADMIN")
	if err != nil {
		t.Fatalf("expected admin among caller roles to pass, got %v", err)
	}
}

func TestRBAC_ForbidsNonMember(t *testing.T) {
	err := invokeRBAC(t, []string{"ROLE_USER"}, "ROLE_ADMIN")
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestRBAC_ForbidsMissingRoles(t *testing.T) {
	err := invokeRBAC(t, nil, "ROLE_ADMIN")
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Fatalf("expected 403 when context carries no roles, got %v", err)
	}
}
