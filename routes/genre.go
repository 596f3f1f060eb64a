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

type CreateGenreInput struct {
	Name string `json:"name" validate:"required,max=256"`
	Slug string `json:"slug" validate:"required,max=50,slug"`
}

// GetGenres - GET /genres?search=&page=&per_page=
func GetGenres(ctx iris.Context) {
	page, perPage := utils.Pagination(ctx)

	query := storage.DB.Model(&models.Genre{})
	if search := strings.TrimSpace(ctx.URLParamDefault("search", "")); search != "" {
		query = query.Where("lower(name) LIKE lower(?)", search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var genres []models.Genre
	if err := query.Order("slug ASC").Offset((page - 1) * perPage).Limit(perPage).Find(&genres).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, genres, page, perPage, total)
}

// CreateGenre - POST /genres (admin)
func CreateGenre(ctx iris.Context) {
	var input CreateGenreInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	genre := models.Genre{Name: input.Name, Slug: input.Slug}
	if err := storage.DB.Create(&genre).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			utils.CreateConflict("A genre with this slug already exists.", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(genre)
}

// DeleteGenre - DELETE /genres/{slug} (admin)
// Titles keep existing; only the association rows go.
func DeleteGenre(ctx iris.Context) {
	slug := ctx.Params().Get("slug")

	var genre models.Genre
	if err := storage.DB.Where("slug = ?", slug).First(&genre).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM title_genres WHERE genre_id = ?", genre.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&genre).Error
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "genre.delete", "genre", genre.ID, genre, nil)

	ctx.StatusCode(iris.StatusNoContent)
}
