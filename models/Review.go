package models

import "time"

// Review is a single user's take on a title. The composite unique index on
// (title_id, author_id) is the authoritative one-review-per-user guard; the
// handler-level pre-check is only a fast path.
type Review struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	TitleID  uint   `json:"titleID" gorm:"not null;index;uniqueIndex:idx_reviews_title_author"`
	AuthorID uint   `json:"authorID" gorm:"not null;uniqueIndex:idx_reviews_title_author"`
	Title    Title  `json:"-" gorm:"foreignKey:TitleID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Author   User   `json:"-" gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Text     string `json:"text" gorm:"type:text;not null"`
	Score    int    `json:"score" gorm:"not null;check:score >= 1 AND score <= 10"`

	Comments []Comment `json:"-" gorm:"foreignKey:ReviewID"`

	CreatedAt time.Time `json:"pubDate"`
	UpdatedAt time.Time `json:"-"`
}
