package utils

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

// Machine-readable error codes carried in every error body.
const (
	CodeValidationError         = "validation_error"
	CodeConflict                = "conflict"
	CodeDuplicateReview         = "duplicate_review"
	CodeNotFound                = "not_found"
	CodeForbidden               = "forbidden"
	CodeUnauthenticated         = "unauthenticated"
	CodeInvalidConfirmationCode = "invalid_confirmation_code"
	CodeServerError             = "server_error"
)

func CreateError(statusCode int, code string, message string, ctx iris.Context) {
	ctx.StopWithJSON(statusCode, iris.Map{"error": code, "message": message})
}

func CreateInternalServerError(ctx iris.Context) {
	CreateError(iris.StatusInternalServerError, CodeServerError, "Internal server error.", ctx)
}

func CreateNotFound(ctx iris.Context) {
	CreateError(iris.StatusNotFound, CodeNotFound, "Resource not found.", ctx)
}

func CreateForbidden(ctx iris.Context) {
	CreateError(iris.StatusForbidden, CodeForbidden, "You do not have permission to perform this action.", ctx)
}

func CreateUnauthenticated(ctx iris.Context) {
	CreateError(iris.StatusUnauthorized, CodeUnauthenticated, "Authentication credentials were not provided or are invalid.", ctx)
}

func CreateConflict(message string, ctx iris.Context) {
	CreateError(iris.StatusConflict, CodeConflict, message, ctx)
}

// HandleValidationErrors turns ReadJSON/validator failures into a
// validation_error body listing the offending fields.
func HandleValidationErrors(err error, ctx iris.Context) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]iris.Map, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			fields = append(fields, iris.Map{
				"field": strings.ToLower(fieldErr.Field()),
				"rule":  fieldErr.Tag(),
				"param": fieldErr.Param(),
			})
		}
		ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{
			"error":   CodeValidationError,
			"message": "Request body failed validation.",
			"fields":  fields,
		})
		return
	}

	CreateError(iris.StatusBadRequest, CodeValidationError, err.Error(), ctx)
}

// IsUniqueViolation reports whether a storage error is a uniqueness-constraint
// breach, so a race that defeats an application-level pre-check can still be
// answered with a conflict rather than a raw storage error.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "duplicate key value") ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}
