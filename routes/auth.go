package routes

import (
	"content-catalog-server/models"
	"content-catalog-server/storage"
	"content-catalog-server/utils"
	"errors"
	"log"
	"strings"

	"github.com/kataras/iris/v12"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type SignUpInput struct {
	Username string `json:"username" validate:"required,max=150,username"`
	Email    string `json:"email" validate:"required,email,max=254"`
}

type GetTokenInput struct {
	Username         string `json:"username" validate:"required,max=150"`
	ConfirmationCode string `json:"confirmationCode" validate:"required"`
}

// SignUp registers an account and emails a confirmation code. Submitting the
// exact same (username, email) pair again is an idempotent resend: the code
// is regenerated, no error. A partial collision is a conflict.
func SignUp(ctx iris.Context) {
	var input SignUpInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	email := strings.ToLower(input.Email)

	var user models.User
	err := storage.DB.Where("username = ? AND email = ?", input.Username, email).First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateInternalServerError(ctx)
			return
		}

		var taken int64
		storage.DB.Model(&models.User{}).
			Where("username = ? OR email = ?", input.Username, email).
			Count(&taken)
		if taken > 0 {
			utils.CreateConflict("Username or email is already in use.", ctx)
			return
		}

		user = models.User{
			Username: input.Username,
			Email:    email,
			Role:     models.UserRoleName,
		}
		if createErr := storage.DB.Create(&user).Error; createErr != nil {
			if utils.IsUniqueViolation(createErr) {
				utils.CreateConflict("Username or email is already in use.", ctx)
				return
			}
			utils.CreateInternalServerError(ctx)
			return
		}
	}

	code := utils.GenerateShortToken(10)
	if code == "" {
		utils.CreateInternalServerError(ctx)
		return
	}

	hashedCode, hashErr := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if hashErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if err := storage.DB.Model(&user).Update("confirmation_code", string(hashedCode)).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	subject := "Your catalog confirmation code"
	html := `
	<p>Hi ` + user.Username + `,</p>
	<p>Your confirmation code is: <b>` + code + `</b></p>
	<p>Exchange it for an access token at /api/v1/auth/token.
	Requesting a new code invalidates this one.</p>`

	// Delivery is best-effort: the account and its code are already
	// committed, so a mail outage must not fail the signup.
	emailSent, emailErr := utils.SendMail(user.Email, subject, html)
	if emailErr != nil {
		log.Printf("confirmation mail to %s failed: %v", user.Email, emailErr)
		emailSent = false
	}

	ctx.JSON(iris.Map{
		"username":  user.Username,
		"email":     user.Email,
		"emailSent": emailSent,
	})
}

// GetToken exchanges a confirmation code for a token pair. Codes are
// single-use: the stored hash is cleared before the tokens are issued.
func GetToken(ctx iris.Context) {
	var input GetTokenInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var user models.User
	if err := storage.DB.Where("username = ?", input.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	if user.ConfirmationCode == "" {
		utils.CreateError(iris.StatusBadRequest, utils.CodeInvalidConfirmationCode,
			"Confirmation code is invalid or has already been used.", ctx)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.ConfirmationCode), []byte(input.ConfirmationCode)) != nil {
		utils.CreateError(iris.StatusBadRequest, utils.CodeInvalidConfirmationCode,
			"Confirmation code is invalid or has already been used.", ctx)
		return
	}

	if err := storage.DB.Model(&user).Update("confirmation_code", "").Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	tokenPair, tokenErr := utils.CreateTokenPair(&user)
	if tokenErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"accessToken":  string(tokenPair.AccessToken),
		"refreshToken": string(tokenPair.RefreshToken),
	})
}
