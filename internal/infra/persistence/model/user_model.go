package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. PostgreSQL generates UUIDs via uuid_generate_v7().
type UserModel struct {
	ID                       uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Email                    string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash             *string    `gorm:"type:varchar(255)"`
	FirstName                string     `gorm:"type:varchar(50);not null"`
	LastName                 string     `gorm:"type:varchar(50);not null"`
	Role                     string     `gorm:"type:varchar(16);not null;default:USER"`
	Provider                 string     `gorm:"type:varchar(16);not null;default:LOCAL"`
	GoogleID                 *string    `gorm:"type:varchar(255);uniqueIndex"`
	AvatarURL                *string    `gorm:"type:text"`
	IsEmailVerified          bool       `gorm:"not null;default:false"`
	EmailVerificationToken   *string    `gorm:"type:varchar(128);uniqueIndex"`
	EmailVerificationExpires *time.Time
	RefreshTokenHash         *string `gorm:"type:varchar(255)"`
	IsActive                 bool    `gorm:"not null;default:true"`
	LastLoginAt              *time.Time
	LastLoginIP              *string `gorm:"column:last_login_ip;type:varchar(64)"`
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
