package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"content-catalog-server/utils"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
)

// buildTestApp wires the open handlers with the real validator. Requests in
// these tests are rejected at validation time, before any storage access.
func buildTestApp() *iris.Application {
	app := iris.New()

	v := validator.New()
	utils.RegisterCustomValidations(v)
	app.Validator = v

	app.Post("/auth/signup", SignUp)
	app.Post("/titles", CreateTitle)

	if err := app.Build(); err != nil {
		panic(err)
	}
	return app
}

func postJSON(app *iris.Application, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding error body: %v (%s)", err, resp.Body.String())
	}
	return body.Error
}

func TestSignUp_ReservedUsernameRejected(t *testing.T) {
	app := buildTestApp()

	resp := postJSON(app, "/auth/signup", `{"username":"me","email":"a@x.com"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for reserved username, got %d", resp.Code)
	}
	if code := decodeError(t, resp); code != utils.CodeValidationError {
		t.Fatalf("expected %s, got %s", utils.CodeValidationError, code)
	}
}

func TestSignUp_BadUsernamePatternRejected(t *testing.T) {
	app := buildTestApp()

	resp := postJSON(app, "/auth/signup", `{"username":"has space","email":"a@x.com"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid username, got %d", resp.Code)
	}
}

func TestSignUp_MissingEmailRejected(t *testing.T) {
	app := buildTestApp()

	resp := postJSON(app, "/auth/signup", `{"username":"alice"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing email, got %d", resp.Code)
	}
}

func TestCreateTitle_FutureYearRejected(t *testing.T) {
	app := buildTestApp()

	resp := postJSON(app, "/titles", `{"name":"Dune","year":2999}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for future year, got %d", resp.Code)
	}
	if code := decodeError(t, resp); code != utils.CodeValidationError {
		t.Fatalf("expected %s, got %s", utils.CodeValidationError, code)
	}
}

func TestCreateTitle_ZeroYearRejected(t *testing.T) {
	app := buildTestApp()

	resp := postJSON(app, "/titles", `{"name":"Dune","year":0}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing year, got %d", resp.Code)
	}
}
