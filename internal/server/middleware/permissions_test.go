package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func permissionContext(t *testing.T, user *AppUser) (*AppContext, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return &AppContext{Context: e.NewContext(req, rec), App: &App{}, User: user}, rec
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name       string
		user       *AppUser
		permission string
		want       bool
	}{
		{"nil user", nil, "intel.search", false},
		{"granted", &AppUser{Role: "user", Permissions: []string{"intel.search"}}, "intel.search", true},
		{"not granted", &AppUser{Role: "user", Permissions: []string{"report.view"}}, "intel.search", false},
		{"admin without explicit grant", &AppUser{Role: "admin"}, "report.delete", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPermission(tt.user, tt.permission); got != tt.want {
				t.Errorf("HasPermission() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name     string
		user     *AppUser
		wantCode int
	}{
		{"no user", nil, http.StatusUnauthorized},
		{"missing permission", &AppUser{Role: "user", Permissions: []string{"report.view"}}, http.StatusForbidden},
		{"granted", &AppUser{Role: "user", Permissions: []string{"intel.search"}}, http.StatusOK},
		{"admin", &AppUser{Role: "admin"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc, rec := permissionContext(t, tt.user)
			if err := RequirePermission("intel.search")(okHandler)(cc); err != nil {
				t.Fatalf("handler error = %v", err)
			}
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestRequireAnyPermission(t *testing.T) {
	guard := RequireAnyPermission("intel.registry:view", "intel.search")

	tests := []struct {
		name     string
		user     *AppUser
		wantCode int
	}{
		{"no user", nil, http.StatusUnauthorized},
		{"neither grant", &AppUser{Role: "user", Permissions: []string{"report.view"}}, http.StatusForbidden},
		{"first grant", &AppUser{Role: "user", Permissions: []string{"intel.registry:view"}}, http.StatusOK},
		{"second grant", &AppUser{Role: "user", Permissions: []string{"intel.search"}}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc, rec := permissionContext(t, tt.user)
			if err := guard(okHandler)(cc); err != nil {
				t.Fatalf("handler error = %v", err)
			}
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}
