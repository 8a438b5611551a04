package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Username string          `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Hash     string          `gorm:"not null" json:"-"`
	Cash     decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"cash"`
}
