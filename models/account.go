package models

import (
	"time"
)

// Account представляет счет, открытый в этом банке.
// Номер счета начинается с трехсимвольного префикса банка.
type Account struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;not null;size:100;default:'Main'"`
	Number    string    `gorm:"column:number;unique;not null;size:64;index"`
	UserID    uint      `gorm:"column:user_id;not null;index"`
	User      User      `gorm:"foreignKey:UserID;references:ID"`
	Balance   float64   `gorm:"column:balance;type:decimal(20,2);not null;default:0.0"`
	Currency  string    `gorm:"column:currency;not null;size:3;default:'EUR'"`
	CreatedAt time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

func (Account) TableName() string {
	return "accounts"
}
