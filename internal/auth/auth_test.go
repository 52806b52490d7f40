package auth

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/activity-service/pkg/util/errorutil"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "activity-service", 5)
	token, expiresAt, err := tm.GenerateToken("ingestor", "cust-1", []string{ScopeIngest})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("token already expired")
	}
	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "ingestor" || claims.Customer != "cust-1" || len(claims.Scopes) != 1 {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestTokenManager_Rejects(t *testing.T) {
	tm := NewTokenManager("secret", "activity-service", 5)
	token, _, _ := tm.GenerateToken("ingestor", "cust-1", nil)

	if _, err := NewTokenManager("other", "activity-service", 5).ParseToken(token); err == nil {
		t.Fatalf("expected signature mismatch")
	}
	if _, err := NewTokenManager("secret", "someone-else", 5).ParseToken(token); err == nil {
		t.Fatalf("expected issuer mismatch")
	}

	expired := NewTokenManager("secret", "activity-service", 5)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _, _ := expired.GenerateToken("ingestor", "cust-1", nil)
	if _, err := tm.ParseToken(old); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}

	noCustomer, _, _ := tm.GenerateToken("ingestor", "", nil)
	if _, err := tm.ParseToken(noCustomer); err == nil {
		t.Fatalf("expected token without customer to be rejected")
	}
}

func newTestApp(tm *TokenManager) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	mw := NewAuthMiddleware(tm)
	group := app.Group("/v1/customers/:customerId", mw.Handle)
	group.Get("/activities", RequireCustomer("customerId"), RequireScope(ScopeRead), func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		return c.SendString(principal.Subject)
	})
	return app
}

func TestMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", "activity-service", 5)
	reader, _, _ := tm.GenerateToken("dashboard", "cust-1", []string{ScopeRead})
	ingestOnly, _, _ := tm.GenerateToken("ingestor", "cust-1", []string{ScopeIngest})
	admin, _, _ := tm.GenerateToken("ops", AnyCustomer, []string{ScopeRead})

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{name: "missing header", path: "/v1/customers/cust-1/activities", status: 401},
		{name: "malformed header", path: "/v1/customers/cust-1/activities", header: "Token abc", status: 401},
		{name: "bad token", path: "/v1/customers/cust-1/activities", header: "Bearer nope", status: 401},
		{name: "ok", path: "/v1/customers/cust-1/activities", header: "Bearer " + reader, status: 200},
		{name: "other customer", path: "/v1/customers/cust-2/activities", header: "Bearer " + reader, status: 403},
		{name: "missing scope", path: "/v1/customers/cust-1/activities", header: "Bearer " + ingestOnly, status: 403},
		{name: "wildcard customer", path: "/v1/customers/cust-9/activities", header: "Bearer " + admin, status: 200},
	}
	app := newTestApp(tm)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != tt.status {
				body, _ := io.ReadAll(resp.Body)
				t.Fatalf("status = %d, want %d (%s)", resp.StatusCode, tt.status, body)
			}
		})
	}
}
