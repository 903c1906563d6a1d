package model

import (
	"time"

	"github.com/google/uuid"
)

// LoginHistoryModel mirrors the append-only 'login_history' table. UserID carries no foreign key
// so entries survive any change to the user row.
type LoginHistoryModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_login_history_user_created,priority:1"`
	Action    string    `gorm:"type:varchar(32);not null;index"`
	IP        *string   `gorm:"column:ip;type:varchar(64)"`
	UserAgent *string   `gorm:"type:text"`
	Provider  *string   `gorm:"type:varchar(16)"`
	Details   *string   `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null;index:idx_login_history_user_created,priority:2"`
}

// TableName explicitly sets the table name for GORM.
func (LoginHistoryModel) TableName() string {
	return "login_history"
}
