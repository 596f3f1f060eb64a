package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"content-catalog-server/models"
	"content-catalog-server/services"
	"content-catalog-server/storage"
	"content-catalog-server/utils"

	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"
)

// newTestDB points the package-level storage handle at a throwaway sqlite
// file so handlers run against real queries.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "catalog.db")),
		&gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Genre{},
		&models.Title{},
		&models.Review{},
		&models.Comment{},
		&models.AuditLog{},
	)
	if err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	storage.DB = db
	return db
}

func newStorageTestApp() *iris.Application {
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")
	app := iris.New()

	v := validator.New()
	utils.RegisterCustomValidations(v)
	app.Validator = v

	verifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	verifierMiddleware := verifier.Verify(func() interface{} { return new(utils.AccessToken) })

	api := app.Party("/api/v1")

	categories := api.Party("/categories")
	categories.Delete("/{slug}", verifierMiddleware,
		utils.RequireAuthorization(services.ActionDelete, services.ResourceCategory), DeleteCategory)

	titles := api.Party("/titles")
	titles.Get("/", GetTitles)
	titles.Post("/{id:uint}/reviews", verifierMiddleware,
		utils.RequireAuthorization(services.ActionCreate, services.ResourceReview), CreateTitleReview)
	titles.Delete("/{id:uint}/reviews/{reviewID:uint}", verifierMiddleware, DeleteTitleReview)

	users := api.Party("/users")
	users.Get("/me", verifierMiddleware, GetMe)
	users.Patch("/me", verifierMiddleware, UpdateMe)

	if err := app.Build(); err != nil {
		panic(err)
	}
	return app
}

func signAccessToken(t *testing.T, claims utils.AccessToken) string {
	t.Helper()
	signer := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), 0)
	token, err := signer.Sign(claims)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return string(token)
}

func doRequest(app *iris.Application, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func seedUser(t *testing.T, db *gorm.DB, username, role string) models.User {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.com", Role: role}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seeding user %s: %v", username, err)
	}
	return user
}

func TestCreateTitleReview_SecondReviewRejected(t *testing.T) {
	db := newTestDB(t)
	app := newStorageTestApp()

	user := seedUser(t, db, "alice", models.UserRoleName)
	title := models.Title{Name: "Dune", Year: 1965}
	if err := db.Create(&title).Error; err != nil {
		t.Fatalf("seeding title: %v", err)
	}

	token := signAccessToken(t, utils.AccessToken{ID: user.ID, Username: user.Username, Role: user.Role})
	path := fmt.Sprintf("/api/v1/titles/%d/reviews", title.ID)

	resp := doRequest(app, http.MethodPost, path, token, `{"text":"masterpiece","score":9}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for first review, got %d (%s)", resp.Code, resp.Body.String())
	}

	resp = doRequest(app, http.MethodPost, path, token, `{"text":"changed my mind","score":3}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for second review, got %d", resp.Code)
	}
	if code := decodeError(t, resp); code != utils.CodeDuplicateReview {
		t.Fatalf("expected %s, got %s", utils.CodeDuplicateReview, code)
	}

	var count int64
	db.Model(&models.Review{}).Where("title_id = ? AND author_id = ?", title.ID, user.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one stored review, got %d", count)
	}
}

func TestReviewUniqueIndex_HeldAtStorage(t *testing.T) {
	db := newTestDB(t)

	user := seedUser(t, db, "alice", models.UserRoleName)
	title := models.Title{Name: "Dune", Year: 1965}
	if err := db.Create(&title).Error; err != nil {
		t.Fatalf("seeding title: %v", err)
	}

	first := models.Review{TitleID: title.ID, AuthorID: user.ID, Text: "good", Score: 7}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("creating first review: %v", err)
	}

	second := models.Review{TitleID: title.ID, AuthorID: user.ID, Text: "again", Score: 2}
	err := db.Create(&second).Error
	if err == nil {
		t.Fatal("expected a uniqueness violation for second (title, author) review")
	}
	if !utils.IsUniqueViolation(err) {
		t.Fatalf("expected a unique-violation error, got %v", err)
	}
}

func TestDeleteTitleReview_RemovesComments(t *testing.T) {
	db := newTestDB(t)
	app := newStorageTestApp()

	author := seedUser(t, db, "alice", models.UserRoleName)
	commenter := seedUser(t, db, "bob", models.UserRoleName)
	title := models.Title{Name: "Dune", Year: 1965}
	if err := db.Create(&title).Error; err != nil {
		t.Fatalf("seeding title: %v", err)
	}
	review := models.Review{TitleID: title.ID, AuthorID: author.ID, Text: "good", Score: 8}
	if err := db.Create(&review).Error; err != nil {
		t.Fatalf("seeding review: %v", err)
	}
	for _, text := range []string{"agreed", "not really"} {
		comment := models.Comment{ReviewID: review.ID, AuthorID: commenter.ID, Text: text}
		if err := db.Create(&comment).Error; err != nil {
			t.Fatalf("seeding comment: %v", err)
		}
	}

	path := fmt.Sprintf("/api/v1/titles/%d/reviews/%d", title.ID, review.ID)

	commenterToken := signAccessToken(t, utils.AccessToken{ID: commenter.ID, Username: commenter.Username, Role: commenter.Role})
	if resp := doRequest(app, http.MethodDelete, path, commenterToken, ""); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-author delete, got %d", resp.Code)
	}

	authorToken := signAccessToken(t, utils.AccessToken{ID: author.ID, Username: author.Username, Role: author.Role})
	if resp := doRequest(app, http.MethodDelete, path, authorToken, ""); resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for author delete, got %d", resp.Code)
	}

	var comments int64
	db.Model(&models.Comment{}).Where("review_id = ?", review.ID).Count(&comments)
	if comments != 0 {
		t.Fatalf("expected comments to go with the review, %d left", comments)
	}
	var reviews int64
	db.Model(&models.Review{}).Where("id = ?", review.ID).Count(&reviews)
	if reviews != 0 {
		t.Fatal("expected review row to be gone")
	}
}

func TestDeleteCategory_TitlesSurvive(t *testing.T) {
	db := newTestDB(t)
	app := newStorageTestApp()

	admin := seedUser(t, db, "root", models.AdminRoleName)
	category := models.Category{Name: "Science Fiction", Slug: "scifi"}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seeding category: %v", err)
	}
	title := models.Title{Name: "Dune", Year: 1965, CategoryID: &category.ID}
	if err := db.Create(&title).Error; err != nil {
		t.Fatalf("seeding title: %v", err)
	}

	token := signAccessToken(t, utils.AccessToken{ID: admin.ID, Username: admin.Username, Role: admin.Role})
	resp := doRequest(app, http.MethodDelete, "/api/v1/categories/scifi", token, "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d (%s)", resp.Code, resp.Body.String())
	}

	var reloaded models.Title
	if err := db.First(&reloaded, title.ID).Error; err != nil {
		t.Fatalf("title should survive its category: %v", err)
	}
	if reloaded.CategoryID != nil {
		t.Fatalf("expected category_id to be cleared, got %d", *reloaded.CategoryID)
	}
}

func TestUpdateMe_Username(t *testing.T) {
	db := newTestDB(t)
	app := newStorageTestApp()

	alice := seedUser(t, db, "alice", models.UserRoleName)
	seedUser(t, db, "bob", models.UserRoleName)

	token := signAccessToken(t, utils.AccessToken{ID: alice.ID, Username: alice.Username, Role: alice.Role})

	resp := doRequest(app, http.MethodPatch, "/api/v1/users/me", token, `{"username":"alice2"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for rename, got %d (%s)", resp.Code, resp.Body.String())
	}
	var reloaded models.User
	if err := db.First(&reloaded, alice.ID).Error; err != nil {
		t.Fatalf("reloading user: %v", err)
	}
	if reloaded.Username != "alice2" {
		t.Fatalf("expected username alice2, got %s", reloaded.Username)
	}

	resp = doRequest(app, http.MethodPatch, "/api/v1/users/me", token, `{"username":"me"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for reserved username, got %d", resp.Code)
	}
	if code := decodeError(t, resp); code != utils.CodeValidationError {
		t.Fatalf("expected %s, got %s", utils.CodeValidationError, code)
	}

	resp = doRequest(app, http.MethodPatch, "/api/v1/users/me", token, `{"username":"bob"}`)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 for taken username, got %d", resp.Code)
	}
}

func TestGetMe_ReturnsOwnProfile(t *testing.T) {
	db := newTestDB(t)
	app := newStorageTestApp()

	alice := seedUser(t, db, "alice", models.UserRoleName)

	if resp := doRequest(app, http.MethodGet, "/api/v1/users/me", "", ""); resp.Code == http.StatusOK {
		t.Fatalf("expected non-200 without token, got %d", resp.Code)
	}

	token := signAccessToken(t, utils.AccessToken{ID: alice.ID, Username: alice.Username, Role: alice.Role})
	resp := doRequest(app, http.MethodGet, "/api/v1/users/me", token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", resp.Code, resp.Body.String())
	}
	var body struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding profile: %v", err)
	}
	if body.Username != "alice" {
		t.Fatalf("expected own profile, got %s", body.Username)
	}
}

func TestGetTitles_BadYearFilterRejected(t *testing.T) {
	newTestDB(t)
	app := newStorageTestApp()

	resp := doRequest(app, http.MethodGet, "/api/v1/titles?year=abc", "", "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-integer year, got %d", resp.Code)
	}
	if code := decodeError(t, resp); code != utils.CodeValidationError {
		t.Fatalf("expected %s, got %s", utils.CodeValidationError, code)
	}
}
