package models

import "time"

// Comment lives and dies with its parent review.
type Comment struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	ReviewID uint   `json:"reviewID" gorm:"not null;index"`
	AuthorID uint   `json:"authorID" gorm:"not null;index"`
	Review   Review `json:"-" gorm:"foreignKey:ReviewID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Author   User   `json:"-" gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Text     string `json:"text" gorm:"type:text;not null"`

	CreatedAt time.Time `json:"pubDate"`
	UpdatedAt time.Time `json:"-"`
}
