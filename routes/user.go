package routes

import (
	"content-catalog-server/models"
	"content-catalog-server/services"
	"content-catalog-server/storage"
	"content-catalog-server/utils"
	"errors"
	"strings"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

type CreateUserInput struct {
	Username  string `json:"username" validate:"required,max=150,username"`
	Email     string `json:"email" validate:"required,email,max=254"`
	FirstName string `json:"firstName" validate:"max=150"`
	LastName  string `json:"lastName" validate:"max=150"`
	Bio       string `json:"bio"`
	Role      string `json:"role" validate:"omitempty,oneof=user moderator admin"`
}

type UpdateUserInput struct {
	Username  *string `json:"username" validate:"omitempty,max=150,username"`
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
	FirstName *string `json:"firstName" validate:"omitempty,max=150"`
	LastName  *string `json:"lastName" validate:"omitempty,max=150"`
	Bio       *string `json:"bio"`
	Role      *string `json:"role" validate:"omitempty,oneof=user moderator admin"`
}

// UpdateMeInput deliberately has no role field: the self-profile path can
// never change privileges.
type UpdateMeInput struct {
	Username  *string `json:"username" validate:"omitempty,max=150,username"`
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
	FirstName *string `json:"firstName" validate:"omitempty,max=150"`
	LastName  *string `json:"lastName" validate:"omitempty,max=150"`
	Bio       *string `json:"bio"`
}

// AdminListUsers - GET /users?search=&role=&page=&per_page= (admin)
// search is a prefix match on username.
func AdminListUsers(ctx iris.Context) {
	page, perPage := utils.Pagination(ctx)

	query := storage.DB.Model(&models.User{})
	if search := strings.TrimSpace(ctx.URLParamDefault("search", "")); search != "" {
		query = query.Where("lower(username) LIKE lower(?)", search+"%")
	}
	if role := strings.TrimSpace(ctx.URLParamDefault("role", "")); role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var users []models.User
	if err := query.Order("id ASC").Offset((page - 1) * perPage).Limit(perPage).Find(&users).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, users, page, perPage, total)
}

// AdminCreateUser - POST /users (admin)
func AdminCreateUser(ctx iris.Context) {
	var input CreateUserInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	role := input.Role
	if role == "" {
		role = models.UserRoleName
	}

	user := models.User{
		Username:  input.Username,
		Email:     strings.ToLower(input.Email),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Bio:       input.Bio,
		Role:      role,
	}
	if err := storage.DB.Create(&user).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			utils.CreateConflict("Username or email is already in use.", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(user)
}

// AdminGetUser - GET /users/{username} (admin)
func AdminGetUser(ctx iris.Context) {
	user := loadUserByUsername(ctx)
	if user == nil {
		return
	}
	ctx.JSON(user)
}

// AdminUpdateUser - PATCH /users/{username} (admin); role changes are audited
func AdminUpdateUser(ctx iris.Context) {
	var input UpdateUserInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	user := loadUserByUsername(ctx)
	if user == nil {
		return
	}

	before := *user

	if input.Username != nil {
		user.Username = *input.Username
	}
	if input.Email != nil {
		user.Email = strings.ToLower(*input.Email)
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.Role != nil {
		user.Role = *input.Role
	}

	if err := storage.DB.Save(user).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			utils.CreateConflict("Username or email is already in use.", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	if input.Role != nil && before.Role != user.Role {
		utils.Audit(ctx, "user.role_update", "user", user.ID, before, user)
	}

	ctx.JSON(user)
}

// AdminDeleteUser - DELETE /users/{username} (admin)
// The user's reviews and comments go with the account.
func AdminDeleteUser(ctx iris.Context) {
	user := loadUserByUsername(ctx)
	if user == nil {
		return
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"DELETE FROM comments WHERE review_id IN (SELECT id FROM reviews WHERE author_id = ?)",
			user.ID).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", user.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", user.ID).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "user.delete", "user", user.ID, user, nil)

	ctx.StatusCode(iris.StatusNoContent)
}

// GetMe - GET /users/me (authenticated)
func GetMe(ctx iris.Context) {
	actor := utils.CurrentActor(ctx)
	if !services.Authorize(actor, services.ActionRetrieve, services.ResourceSelf, actor.ID) {
		utils.CreateUnauthenticated(ctx)
		return
	}

	user := currentUser(ctx)
	if user == nil {
		return
	}
	ctx.JSON(user)
}

// UpdateMe - PATCH /users/me (authenticated); every field but role
func UpdateMe(ctx iris.Context) {
	actor := utils.CurrentActor(ctx)
	if !services.Authorize(actor, services.ActionUpdate, services.ResourceSelf, actor.ID) {
		utils.CreateUnauthenticated(ctx)
		return
	}

	var input UpdateMeInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	user := currentUser(ctx)
	if user == nil {
		return
	}

	if input.Username != nil {
		user.Username = *input.Username
	}
	if input.Email != nil {
		user.Email = strings.ToLower(*input.Email)
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}

	if err := storage.DB.Save(user).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			utils.CreateConflict("Username or email is already in use.", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(user)
}

func loadUserByUsername(ctx iris.Context) *models.User {
	username := ctx.Params().Get("username")

	var user models.User
	if err := storage.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx)
			return nil
		}
		utils.CreateInternalServerError(ctx)
		return nil
	}
	return &user
}

func currentUser(ctx iris.Context) *models.User {
	actor := utils.CurrentActor(ctx)

	var user models.User
	if err := storage.DB.First(&user, actor.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx)
			return nil
		}
		utils.CreateInternalServerError(ctx)
		return nil
	}
	return &user
}
