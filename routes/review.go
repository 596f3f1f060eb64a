package routes

import (
	"content-catalog-server/models"
	"content-catalog-server/services"
	"content-catalog-server/storage"
	"content-catalog-server/utils"
	"errors"
	"time"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

type CreateReviewInput struct {
	Text  string `json:"text" validate:"required"`
	Score int    `json:"score" validate:"required,min=1,max=10"`
}

type UpdateReviewInput struct {
	Text  *string `json:"text"`
	Score *int    `json:"score" validate:"omitempty,min=1,max=10"`
}

type ReviewResponse struct {
	ID      uint      `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pubDate"`
}

func reviewToResponse(review *models.Review) ReviewResponse {
	return ReviewResponse{
		ID:      review.ID,
		Text:    review.Text,
		Author:  review.Author.Username,
		Score:   review.Score,
		PubDate: review.CreatedAt,
	}
}

// loadTitle resolves the {id} segment of the nested routes. Replies 404 and
// returns nil when the title does not exist.
func loadTitle(ctx iris.Context) *models.Title {
	id := ctx.Params().GetUintDefault("id", 0)

	var title models.Title
	if err := storage.DB.First(&title, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx)
			return nil
		}
		utils.CreateInternalServerError(ctx)
		return nil
	}
	return &title
}

func loadReview(ctx iris.Context, titleID uint) *models.Review {
	reviewID := ctx.Params().GetUintDefault("reviewID", 0)

	var review models.Review
	err := storage.DB.Preload("Author").
		Where("id = ? AND title_id = ?", reviewID, titleID).
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx)
			return nil
		}
		utils.CreateInternalServerError(ctx)
		return nil
	}
	return &review
}

// ListTitleReviews - GET /titles/{id}/reviews
func ListTitleReviews(ctx iris.Context) {
	title := loadTitle(ctx)
	if title == nil {
		return
	}

	page, perPage := utils.Pagination(ctx)

	query := storage.DB.Model(&models.Review{}).Where("title_id = ?", title.ID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var reviews []models.Review
	if err := query.Preload("Author").Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&reviews).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	responses := make([]ReviewResponse, 0, len(reviews))
	for i := range reviews {
		responses = append(responses, reviewToResponse(&reviews[i]))
	}

	utils.JSONPage(ctx, responses, page, perPage, total)
}

// GetTitleReview - GET /titles/{id}/reviews/{reviewID}
func GetTitleReview(ctx iris.Context) {
	title := loadTitle(ctx)
	if title == nil {
		return
	}
	review := loadReview(ctx, title.ID)
	if review == nil {
		return
	}
	ctx.JSON(reviewToResponse(review))
}

// CreateTitleReview - POST /titles/{id}/reviews (authenticated)
// One review per (title, author): the pre-check gives the friendly error,
// the unique index catches whatever races past it.
func CreateTitleReview(ctx iris.Context) {
	title := loadTitle(ctx)
	if title == nil {
		return
	}

	actor := utils.CurrentActor(ctx)

	var input CreateReviewInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var existing models.Review
	err := storage.DB.Where("title_id = ? AND author_id = ?", title.ID, actor.ID).
		First(&existing).Error
	if err == nil {
		utils.CreateError(iris.StatusBadRequest, utils.CodeDuplicateReview,
			"Only one review per title is allowed.", ctx)
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.CreateInternalServerError(ctx)
		return
	}

	review := models.Review{
		TitleID:  title.ID,
		AuthorID: actor.ID,
		Text:     input.Text,
		Score:    input.Score,
	}
	if err := storage.DB.Create(&review).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			utils.CreateError(iris.StatusBadRequest, utils.CodeDuplicateReview,
				"Only one review per title is allowed.", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	if err := storage.DB.Preload("Author").First(&review, review.ID).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	rating, err := services.ComputeRating(storage.DB, title.ID)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{
		"review": reviewToResponse(&review),
		"rating": rating,
	})
}

// UpdateTitleReview - PATCH /titles/{id}/reviews/{reviewID}
// Author, moderator or admin only.
func UpdateTitleReview(ctx iris.Context) {
	title := loadTitle(ctx)
	if title == nil {
		return
	}
	review := loadReview(ctx, title.ID)
	if review == nil {
		return
	}

	actor := utils.CurrentActor(ctx)
	if !services.Authorize(actor, services.ActionUpdate, services.ResourceReview, review.AuthorID) {
		utils.CreateForbidden(ctx)
		return
	}

	var input UpdateReviewInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.Text != nil {
		review.Text = *input.Text
	}
	if input.Score != nil {
		review.Score = *input.Score
	}

	if err := storage.DB.Save(review).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(reviewToResponse(review))
}

// DeleteTitleReview - DELETE /titles/{id}/reviews/{reviewID}
// Cascades to the review's comments.
func DeleteTitleReview(ctx iris.Context) {
	title := loadTitle(ctx)
	if title == nil {
		return
	}
	review := loadReview(ctx, title.ID)
	if review == nil {
		return
	}

	actor := utils.CurrentActor(ctx)
	if !services.Authorize(actor, services.ActionDelete, services.ResourceReview, review.AuthorID) {
		utils.CreateForbidden(ctx)
		return
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", review.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(review).Error
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusNoContent)
}
