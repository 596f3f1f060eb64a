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

type CreateCommentInput struct {
	Text string `json:"text" validate:"required"`
}

type UpdateCommentInput struct {
	Text *string `json:"text"`
}

type CommentResponse struct {
	ID      uint      `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	PubDate time.Time `json:"pubDate"`
}

func commentToResponse(comment *models.Comment) CommentResponse {
	return CommentResponse{
		ID:      comment.ID,
		Text:    comment.Text,
		Author:  comment.Author.Username,
		PubDate: comment.CreatedAt,
	}
}

// loadTitleReview resolves the {id}/{reviewID} segments shared by all comment
// routes; the review must belong to the title in the path.
func loadTitleReview(ctx iris.Context) *models.Review {
	title := loadTitle(ctx)
	if title == nil {
		return nil
	}
	return loadReview(ctx, title.ID)
}

func loadComment(ctx iris.Context, reviewID uint) *models.Comment {
	commentID := ctx.Params().GetUintDefault("commentID", 0)

	var comment models.Comment
	err := storage.DB.Preload("Author").
		Where("id = ? AND review_id = ?", commentID, reviewID).
		First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx)
			return nil
		}
		utils.CreateInternalServerError(ctx)
		return nil
	}
	return &comment
}

// ListReviewComments - GET /titles/{id}/reviews/{reviewID}/comments
func ListReviewComments(ctx iris.Context) {
	review := loadTitleReview(ctx)
	if review == nil {
		return
	}

	page, perPage := utils.Pagination(ctx)

	query := storage.DB.Model(&models.Comment{}).Where("review_id = ?", review.ID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var comments []models.Comment
	if err := query.Preload("Author").Order("created_at ASC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&comments).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	responses := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		responses = append(responses, commentToResponse(&comments[i]))
	}

	utils.JSONPage(ctx, responses, page, perPage, total)
}

// GetReviewComment - GET /titles/{id}/reviews/{reviewID}/comments/{commentID}
func GetReviewComment(ctx iris.Context) {
	review := loadTitleReview(ctx)
	if review == nil {
		return
	}
	comment := loadComment(ctx, review.ID)
	if comment == nil {
		return
	}
	ctx.JSON(commentToResponse(comment))
}

// CreateReviewComment - POST /titles/{id}/reviews/{reviewID}/comments (authenticated)
func CreateReviewComment(ctx iris.Context) {
	review := loadTitleReview(ctx)
	if review == nil {
		return
	}

	actor := utils.CurrentActor(ctx)

	var input CreateCommentInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	comment := models.Comment{
		ReviewID: review.ID,
		AuthorID: actor.ID,
		Text:     input.Text,
	}
	if err := storage.DB.Create(&comment).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if err := storage.DB.Preload("Author").First(&comment, comment.ID).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(commentToResponse(&comment))
}

// UpdateReviewComment - PATCH .../comments/{commentID}
// Author, moderator or admin only.
func UpdateReviewComment(ctx iris.Context) {
	review := loadTitleReview(ctx)
	if review == nil {
		return
	}
	comment := loadComment(ctx, review.ID)
	if comment == nil {
		return
	}

	actor := utils.CurrentActor(ctx)
	if !services.Authorize(actor, services.ActionUpdate, services.ResourceComment, comment.AuthorID) {
		utils.CreateForbidden(ctx)
		return
	}

	var input UpdateCommentInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.Text != nil {
		comment.Text = *input.Text
	}

	if err := storage.DB.Save(comment).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(commentToResponse(comment))
}

// DeleteReviewComment - DELETE .../comments/{commentID}
func DeleteReviewComment(ctx iris.Context) {
	review := loadTitleReview(ctx)
	if review == nil {
		return
	}
	comment := loadComment(ctx, review.ID)
	if comment == nil {
		return
	}

	actor := utils.CurrentActor(ctx)
	if !services.Authorize(actor, services.ActionDelete, services.ResourceComment, comment.AuthorID) {
		utils.CreateForbidden(ctx)
		return
	}

	if err := storage.DB.Delete(comment).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusNoContent)
}
