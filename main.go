package main

import (
	"os"

	"content-catalog-server/routes"
	"content-catalog-server/services"
	"content-catalog-server/storage"
	"content-catalog-server/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	storage.InitializeDB()
	storage.InitializeRedis()

	app := iris.New()

	v := validator.New()
	utils.RegisterCustomValidations(v)
	app.Validator = v

	// CORS configuration
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	// JWT verifiers
	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	api := app.Party("/api/v1")

	auth := api.Party("/auth")
	{
		auth.Post("/signup", routes.SignUp)
		auth.Post("/token", routes.GetToken)
		auth.Post("/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)
	}

	categories := api.Party("/categories")
	{
		categories.Get("/", routes.GetCategories)
		categories.Post("/", accessTokenVerifierMiddleware,
			utils.RequireAuthorization(services.ActionCreate, services.ResourceCategory), routes.CreateCategory)
		categories.Delete("/{slug}", accessTokenVerifierMiddleware,
			utils.RequireAuthorization(services.ActionDelete, services.ResourceCategory), routes.DeleteCategory)
	}

	genres := api.Party("/genres")
	{
		genres.Get("/", routes.GetGenres)
		genres.Post("/", accessTokenVerifierMiddleware,
			utils.RequireAuthorization(services.ActionCreate, services.ResourceGenre), routes.CreateGenre)
		genres.Delete("/{slug}", accessTokenVerifierMiddleware,
			utils.RequireAuthorization(services.ActionDelete, services.ResourceGenre), routes.DeleteGenre)
	}

	titles := api.Party("/titles")
	{
		titles.Get("/", routes.GetTitles)
		titles.Post("/", accessTokenVerifierMiddleware,
			utils.RequireAuthorization(services.ActionCreate, services.ResourceTitle), routes.CreateTitle)
		titles.Get("/{id:uint}", routes.GetTitle)
		titles.Patch("/{id:uint}", accessTokenVerifierMiddleware,
			utils.RequireAuthorization(services.ActionUpdate, services.ResourceTitle), routes.UpdateTitle)
		titles.Delete("/{id:uint}", accessTokenVerifierMiddleware,
			utils.RequireAuthorization(services.ActionDelete, services.ResourceTitle), routes.DeleteTitle)

		// Reviews: reads are open, creation needs a token, modification is
		// decided per object (author/moderator/admin) inside the handler.
		titles.Get("/{id:uint}/reviews", routes.ListTitleReviews)
		titles.Post("/{id:uint}/reviews", accessTokenVerifierMiddleware,
			utils.RequireAuthorization(services.ActionCreate, services.ResourceReview), routes.CreateTitleReview)
		titles.Get("/{id:uint}/reviews/{reviewID:uint}", routes.GetTitleReview)
		titles.Patch("/{id:uint}/reviews/{reviewID:uint}", accessTokenVerifierMiddleware, routes.UpdateTitleReview)
		titles.Delete("/{id:uint}/reviews/{reviewID:uint}", accessTokenVerifierMiddleware, routes.DeleteTitleReview)

		titles.Get("/{id:uint}/reviews/{reviewID:uint}/comments", routes.ListReviewComments)
		titles.Post("/{id:uint}/reviews/{reviewID:uint}/comments", accessTokenVerifierMiddleware,
			utils.RequireAuthorization(services.ActionCreate, services.ResourceComment), routes.CreateReviewComment)
		titles.Get("/{id:uint}/reviews/{reviewID:uint}/comments/{commentID:uint}", routes.GetReviewComment)
		titles.Patch("/{id:uint}/reviews/{reviewID:uint}/comments/{commentID:uint}", accessTokenVerifierMiddleware, routes.UpdateReviewComment)
		titles.Delete("/{id:uint}/reviews/{reviewID:uint}/comments/{commentID:uint}", accessTokenVerifierMiddleware, routes.DeleteReviewComment)
	}

	users := api.Party("/users")
	{
		// The static /me segment wins over {username}, which is why "me" is
		// a reserved username.
		users.Get("/me", accessTokenVerifierMiddleware, routes.GetMe)
		users.Patch("/me", accessTokenVerifierMiddleware, routes.UpdateMe)

		users.Get("/", accessTokenVerifierMiddleware,
			utils.RequireAuthorization(services.ActionList, services.ResourceUser), routes.AdminListUsers)
		users.Post("/", accessTokenVerifierMiddleware,
			utils.RequireAuthorization(services.ActionCreate, services.ResourceUser), routes.AdminCreateUser)
		users.Get("/{username}", accessTokenVerifierMiddleware,
			utils.RequireAuthorization(services.ActionRetrieve, services.ResourceUser), routes.AdminGetUser)
		users.Patch("/{username}", accessTokenVerifierMiddleware,
			utils.RequireAuthorization(services.ActionUpdate, services.ResourceUser), routes.AdminUpdateUser)
		users.Delete("/{username}", accessTokenVerifierMiddleware,
			utils.RequireAuthorization(services.ActionDelete, services.ResourceUser), routes.AdminDeleteUser)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	app.Listen(":" + port)
}
