package routes

import (
	"content-catalog-server/models"
	"content-catalog-server/services"
	"content-catalog-server/storage"
	"content-catalog-server/utils"
	"errors"
	"strconv"
	"strings"

	"github.com/kataras/iris/v12"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

type CreateTitleInput struct {
	Name        string   `json:"name" validate:"required,max=256"`
	Year        int      `json:"year" validate:"required,gt=0"`
	Description string   `json:"description"`
	Category    string   `json:"category" validate:"omitempty,max=50,slug"`
	Genres      []string `json:"genres" validate:"dive,max=50,slug"`
}

type UpdateTitleInput struct {
	Name        *string   `json:"name" validate:"omitempty,max=256"`
	Year        *int      `json:"year" validate:"omitempty,gt=0"`
	Description *string   `json:"description"`
	Category    *string   `json:"category" validate:"omitempty,max=50,slug"`
	Genres      *[]string `json:"genres" validate:"omitempty,dive,max=50,slug"`
}

// TitleResponse is the read model: category and genres expanded, rating
// derived from the current review set and omitted while there are no reviews.
type TitleResponse struct {
	ID          uint             `json:"id"`
	Name        string           `json:"name"`
	Year        int              `json:"year"`
	Rating      *int             `json:"rating,omitempty"`
	Description string           `json:"description"`
	Category    *models.Category `json:"category"`
	Genres      []models.Genre   `json:"genres"`
}

func titleToResponse(title *models.Title, rating *int) TitleResponse {
	genres := title.Genres
	if genres == nil {
		genres = []models.Genre{}
	}
	return TitleResponse{
		ID:          title.ID,
		Name:        title.Name,
		Year:        title.Year,
		Rating:      rating,
		Description: title.Description,
		Category:    title.Category,
		Genres:      genres,
	}
}

// GetTitles - GET /titles?category=&genre=&name=&year=&page=&per_page=
// Filters compose with AND; absent filters impose no constraint.
func GetTitles(ctx iris.Context) {
	page, perPage := utils.Pagination(ctx)

	query := storage.DB.Model(&models.Title{}).Preload("Category").Preload("Genres")

	if category := ctx.URLParamDefault("category", ""); category != "" {
		query = query.Joins("JOIN categories ON categories.id = titles.category_id").
			Where("categories.slug = ?", category)
	}
	if genre := ctx.URLParamDefault("genre", ""); genre != "" {
		query = query.Joins("JOIN title_genres ON title_genres.title_id = titles.id").
			Joins("JOIN genres ON genres.id = title_genres.genre_id").
			Where("genres.slug = ?", genre)
	}
	if name := strings.TrimSpace(ctx.URLParamDefault("name", "")); name != "" {
		query = query.Where("lower(titles.name) LIKE lower(?)", "%"+name+"%")
	}
	if yearParam := strings.TrimSpace(ctx.URLParamDefault("year", "")); yearParam != "" {
		year, err := strconv.Atoi(yearParam)
		if err != nil {
			utils.CreateError(iris.StatusBadRequest, utils.CodeValidationError, "year must be an integer", ctx)
			return
		}
		query = query.Where("titles.year = ?", year)
	}

	// Slugs are unique, so each join matches at most one row per title and
	// no DISTINCT is needed.
	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var titles []models.Title
	if err := query.Order("titles.id ASC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&titles).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	// Small list volumes; recomputing per title keeps ratings impossible
	// to go stale.
	responses := make([]TitleResponse, 0, len(titles))
	for i := range titles {
		rating, err := services.ComputeRating(storage.DB, titles[i].ID)
		if err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		responses = append(responses, titleToResponse(&titles[i], rating))
	}

	utils.JSONPage(ctx, responses, page, perPage, total)
}

// GetTitle - GET /titles/{id}
func GetTitle(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)

	var title models.Title
	if err := storage.DB.Preload("Category").Preload("Genres").First(&title, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	rating, err := services.ComputeRating(storage.DB, title.ID)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(titleToResponse(&title, rating))
}

// CreateTitle - POST /titles (admin)
func CreateTitle(ctx iris.Context) {
	var input CreateTitleInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if err := utils.ValidateYear(input.Year); err != nil {
		utils.CreateError(iris.StatusBadRequest, utils.CodeValidationError, err.Error(), ctx)
		return
	}

	var categoryID *uint
	var category *models.Category
	if input.Category != "" {
		var c models.Category
		if err := storage.DB.Where("slug = ?", input.Category).First(&c).Error; err != nil {
			utils.CreateError(iris.StatusBadRequest, utils.CodeValidationError,
				"Unknown category slug: "+input.Category, ctx)
			return
		}
		categoryID = &c.ID
		category = &c
	}

	genres, genresErr := resolveGenres(input.Genres, ctx)
	if genresErr {
		return
	}

	title := models.Title{
		Name:        input.Name,
		Year:        input.Year,
		Description: input.Description,
		CategoryID:  categoryID,
		Genres:      genres,
	}

	// Row insert and genre associations commit together or not at all.
	if err := storage.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&title).Error
	}); err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	title.Category = category
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(titleToResponse(&title, nil))
}

// UpdateTitle - PATCH /titles/{id} (admin), partial update
func UpdateTitle(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)

	var title models.Title
	if err := storage.DB.Preload("Genres").First(&title, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	var input UpdateTitleInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.Year != nil {
		if err := utils.ValidateYear(*input.Year); err != nil {
			utils.CreateError(iris.StatusBadRequest, utils.CodeValidationError, err.Error(), ctx)
			return
		}
		title.Year = *input.Year
	}
	if input.Name != nil {
		title.Name = *input.Name
	}
	if input.Description != nil {
		title.Description = *input.Description
	}
	if input.Category != nil {
		if *input.Category == "" {
			title.CategoryID = nil
		} else {
			var c models.Category
			if err := storage.DB.Where("slug = ?", *input.Category).First(&c).Error; err != nil {
				utils.CreateError(iris.StatusBadRequest, utils.CodeValidationError,
					"Unknown category slug: "+*input.Category, ctx)
				return
			}
			title.CategoryID = &c.ID
		}
	}

	var newGenres []models.Genre
	if input.Genres != nil {
		genres, genresErr := resolveGenres(*input.Genres, ctx)
		if genresErr {
			return
		}
		newGenres = genres
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if input.Genres != nil {
			if err := tx.Model(&title).Association("Genres").Replace(newGenres); err != nil {
				return err
			}
			title.Genres = newGenres
		}
		return tx.Omit("Genres").Save(&title).Error
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if err := storage.DB.Preload("Category").Preload("Genres").First(&title, id).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	rating, err := services.ComputeRating(storage.DB, title.ID)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(titleToResponse(&title, rating))
}

// DeleteTitle - DELETE /titles/{id} (admin), cascades reviews and comments
func DeleteTitle(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)

	var title models.Title
	if err := storage.DB.First(&title, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"DELETE FROM comments WHERE review_id IN (SELECT id FROM reviews WHERE title_id = ?)",
			title.ID).Error; err != nil {
			return err
		}
		if err := tx.Where("title_id = ?", title.ID).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM title_genres WHERE title_id = ?", title.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&title).Error
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "title.delete", "title", title.ID, title, nil)

	ctx.StatusCode(iris.StatusNoContent)
}

// resolveGenres maps genre slugs to rows. Replies with a validation error and
// returns true when any slug is unknown.
func resolveGenres(slugs []string, ctx iris.Context) ([]models.Genre, bool) {
	if len(slugs) == 0 {
		return []models.Genre{}, false
	}

	var genres []models.Genre
	if err := storage.DB.Where("slug IN ?", slugs).Find(&genres).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return nil, true
	}

	if len(genres) != len(slugs) {
		found := make([]string, 0, len(genres))
		for _, g := range genres {
			found = append(found, g.Slug)
		}
		for _, slug := range slugs {
			if !slices.Contains(found, slug) {
				utils.CreateError(iris.StatusBadRequest, utils.CodeValidationError,
					"Unknown genre slug: "+slug, ctx)
				return nil, true
			}
		}
	}

	return genres, false
}
