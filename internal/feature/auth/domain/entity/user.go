// Package entity defines the domain entities for the auth feature.
package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"flowchart_backend/internal/platform/password"
)

// User represents a registered user in the system.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:255"`
	FirstName string    `gorm:"size:255"`
	LastName  string    `gorm:"size:255"`

	DateOfBirth *time.Time

	// Email must be unique across all users.
	Email string `gorm:"uniqueIndex;size:255;not null"`

	// Phone is optional; unique when present.
	Phone *string `gorm:"uniqueIndex;size:64"`

	// Avatar is a profile picture URL, filled by social login.
	Avatar string `gorm:"size:1024"`

	// Password is a bcrypt hash. Empty for social-only accounts.
	Password string `gorm:"size:255" json:"-"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate assigns a new ID when none is set.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// BeforeSave はパスワードが平文の場合のみハッシュ化します。
// 既にハッシュ化された値は変更しないため、無関係な更新で二重ハッシュになりません。
func (u *User) BeforeSave(tx *gorm.DB) error {
	hashed, err := password.HashIfPlain(u.Password)
	if err != nil {
		return err
	}
	u.Password = hashed
	return nil
}

// HasPassword reports whether the user can log in with a password.
func (u *User) HasPassword() bool {
	return u.Password != ""
}
