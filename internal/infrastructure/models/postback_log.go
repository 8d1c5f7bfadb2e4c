package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PostbackLog struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	Event       string          `gorm:"type:varchar(50)"`
	ClickID     string          `gorm:"type:varchar(255);index"`
	TraderID    string          `gorm:"type:varchar(255);index"`
	Amount      decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	Currency    string          `gorm:"type:varchar(10)"`
	Raw         string          `gorm:"type:text"`
	Processed   bool            `gorm:"not null;default:false;index"`
	UserID      *int64          `gorm:"index"`
	User        *User           `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
	CreatedAt   time.Time       `gorm:"index"`
	ProcessedAt *time.Time
}

func (PostbackLog) TableName() string {
	return "postbacks_log"
}
