package routes

import (
	"content-catalog-server/models"
	"content-catalog-server/storage"
	"content-catalog-server/utils"
	"errors"
	"strings"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

type CreateCategoryInput struct {
	Name string `json:"name" validate:"required,max=256"`
	Slug string `json:"slug" validate:"required,max=50,slug"`
}

// GetCategories - GET /categories?search=&page=&per_page=
// Open to anyone; search is a prefix match on name.
func GetCategories(ctx iris.Context) {
	page, perPage := utils.Pagination(ctx)

	query := storage.DB.Model(&models.Category{})
	if search := strings.TrimSpace(ctx.URLParamDefault("search", "")); search != "" {
		query = query.Where("lower(name) LIKE lower(?)", search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var categories []models.Category
	if err := query.Order("slug ASC").Offset((page - 1) * perPage).Limit(perPage).Find(&categories).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, categories, page, perPage, total)
}

// CreateCategory - POST /categories (admin)
func CreateCategory(ctx iris.Context) {
	var input CreateCategoryInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	category := models.Category{Name: input.Name, Slug: input.Slug}
	if err := storage.DB.Create(&category).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			utils.CreateConflict("A category with this slug already exists.", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(category)
}

// DeleteCategory - DELETE /categories/{slug} (admin)
// Dependent titles survive with their category reference emptied.
func DeleteCategory(ctx iris.Context) {
	slug := ctx.Params().Get("slug")

	var category models.Category
	if err := storage.DB.Where("slug = ?", slug).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Title{}).
			Where("category_id = ?", category.ID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "category.delete", "category", category.ID, category, nil)

	ctx.StatusCode(iris.StatusNoContent)
}
