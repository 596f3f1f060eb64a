package models

import "time"

// Title is a catalogued creative work. Its rating is never stored;
// it is derived from the current review set on every read.
type Title struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:256;not null;index"`
	Year        int       `json:"year" gorm:"not null;check:year > 0;index"`
	Description string    `json:"description" gorm:"type:text"`
	CategoryID  *uint     `json:"-" gorm:"index"`
	Category    *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Genres      []Genre   `json:"genres" gorm:"many2many:title_genres;"`

	Reviews []Review `json:"-" gorm:"foreignKey:TitleID"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
