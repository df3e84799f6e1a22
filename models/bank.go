package models

import (
	"time"
)

// Bank представляет запись реестра о банке-партнере.
// Локальная таблица — одноразовый кеш центрального реестра:
// при каждом обновлении она полностью очищается и заполняется заново.
type Bank struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	Name           string    `gorm:"column:name;size:100" json:"name"`
	BankPrefix     string    `gorm:"column:bank_prefix;unique;not null;size:3;index" json:"bankPrefix"`
	TransactionURL string    `gorm:"column:transaction_url;not null;size:255" json:"transactionUrl"`
	PublicKey      string    `gorm:"column:public_key;type:text" json:"publicKey"`
	CreatedAt      time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt      time.Time `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"-"`
}

func (Bank) TableName() string {
	return "banks"
}
