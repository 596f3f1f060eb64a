package services

import (
	"content-catalog-server/models"

	"gorm.io/gorm"
)

// AverageScore returns the mean of the given scores truncated toward zero,
// or nil when there are no scores. "No rating yet" is a real state,
// distinct from a zero score.
func AverageScore(scores []int) *int {
	if len(scores) == 0 {
		return nil
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	avg := sum / len(scores)
	return &avg
}

// ComputeRating derives a title's rating from its current review set.
// Always recomputed on read; nothing is cached, so it cannot go stale.
func ComputeRating(db *gorm.DB, titleID uint) (*int, error) {
	var scores []int
	err := db.Model(&models.Review{}).
		Where("title_id = ?", titleID).
		Pluck("score", &scores).Error
	if err != nil {
		return nil, err
	}
	return AverageScore(scores), nil
}
