package utils

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"content-catalog-server/services"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// buildTestApp mounts an admin-gated and an authenticated-gated route behind
// the real verifier and policy middleware, with stub handlers so no storage
// is touched.
func buildTestApp() *iris.Application {
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")
	app := iris.New()

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} { return new(AccessToken) })

	ok := func(ctx iris.Context) { ctx.JSON(iris.Map{"ok": true}) }

	app.Post("/categories", accessTokenVerifierMiddleware,
		RequireAuthorization(services.ActionCreate, services.ResourceCategory), ok)
	app.Post("/reviews", accessTokenVerifierMiddleware,
		RequireAuthorization(services.ActionCreate, services.ResourceReview), ok)

	if err := app.Build(); err != nil {
		panic(err)
	}
	return app
}

func signTestToken(t *testing.T, claims AccessToken) string {
	t.Helper()
	signer := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), 0)
	token, err := signer.Sign(claims)
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return string(token)
}

func do(app *iris.Application, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func TestRequireAuthorization_CategoryWrites(t *testing.T) {
	app := buildTestApp()

	if resp := do(app, "/categories", ""); resp.Code == http.StatusOK {
		t.Fatalf("expected non-200 without token, got %d", resp.Code)
	}

	userToken := signTestToken(t, AccessToken{ID: 1, Username: "alice", Role: "user"})
	if resp := do(app, "/categories", userToken); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user role, got %d", resp.Code)
	}

	moderatorToken := signTestToken(t, AccessToken{ID: 2, Username: "mod", Role: "moderator"})
	if resp := do(app, "/categories", moderatorToken); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for moderator role, got %d", resp.Code)
	}

	adminToken := signTestToken(t, AccessToken{ID: 3, Username: "root", Role: "admin"})
	if resp := do(app, "/categories", adminToken); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin role, got %d", resp.Code)
	}

	superuserToken := signTestToken(t, AccessToken{ID: 4, Username: "su", Role: "user", Superuser: true})
	if resp := do(app, "/categories", superuserToken); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for superuser, got %d", resp.Code)
	}
}

func TestRequireAuthorization_ReviewCreate(t *testing.T) {
	app := buildTestApp()

	if resp := do(app, "/reviews", ""); resp.Code == http.StatusOK {
		t.Fatalf("expected non-200 without token, got %d", resp.Code)
	}

	userToken := signTestToken(t, AccessToken{ID: 1, Username: "alice", Role: "user"})
	if resp := do(app, "/reviews", userToken); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for any authenticated user, got %d", resp.Code)
	}
}
