package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID              int64               `gorm:"primaryKey;autoIncrement"`
	Login           string              `gorm:"type:varchar(255);uniqueIndex;not null"`
	Email           string              `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash    string              `gorm:"column:password_hash;type:varchar(255);not null"`
	ClickID         string              `gorm:"type:varchar(255);uniqueIndex;not null"`
	TraderID        *string             `gorm:"type:varchar(255);uniqueIndex"`
	FirstDeposit    decimal.NullDecimal `gorm:"type:numeric(20,2)"`
	TotalDeposit    decimal.Decimal     `gorm:"type:numeric(20,2);not null;default:0"`
	DepositVerified bool                `gorm:"not null;default:false"`
	ResetToken      *string             `gorm:"type:varchar(512)"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (User) TableName() string {
	return "users"
}
