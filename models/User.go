package models

import "time"

const (
	UserRoleName      = "user"
	ModeratorRoleName = "moderator"
	AdminRoleName     = "admin"
)

type User struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Username  string `json:"username" gorm:"size:150;uniqueIndex;not null"`
	Email     string `json:"email" gorm:"size:254;uniqueIndex;not null"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Bio       string `json:"bio" gorm:"type:text"`
	Role      string `json:"role" gorm:"type:varchar(20);default:user;index"` // user, moderator, admin
	// Superuser is an elevated-privilege flag orthogonal to Role.
	// Never settable through the API.
	Superuser bool `json:"-" gorm:"default:false"`
	// ConfirmationCode holds a bcrypt hash of the emailed signup code.
	// Cleared once the code is exchanged for a token.
	ConfirmationCode string `json:"-"`

	Reviews  []Review  `json:"-" gorm:"foreignKey:AuthorID"`
	Comments []Comment `json:"-" gorm:"foreignKey:AuthorID"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == AdminRoleName || u.Superuser
}

func (u *User) IsModerator() bool {
	return u.Role == ModeratorRoleName
}
