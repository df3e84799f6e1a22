package models

import (
	"time"
)

// TransactionStatus представляет статус транзакции
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "Pending"     // Ожидает обработки планировщиком
	TransactionStatusInProgress TransactionStatus = "In progress" // Взята в обработку, исходящий запрос еще не подтвержден
	TransactionStatusCompleted  TransactionStatus = "Completed"   // Зачислена банком-получателем
	TransactionStatusFailed     TransactionStatus = "Failed"      // Завершена с ошибкой
)

// Transaction представляет один межбанковский перевод.
// Запись никогда не удаляется: это журнал аудита.
type Transaction struct {
	ID           uint              `gorm:"primaryKey;autoIncrement"`
	UserID       uint              `gorm:"column:user_id;not null;index"`
	AccountFrom  string            `gorm:"column:account_from;not null;size:64"`
	AccountTo    string            `gorm:"column:account_to;not null;size:64"`
	Amount       float64           `gorm:"column:amount;type:decimal(20,2);not null"`
	Currency     string            `gorm:"column:currency;not null;size:3"`
	Explanation  string            `gorm:"column:explanation;size:255"`
	SenderName   string            `gorm:"column:sender_name;size:100"`
	ReceiverName string            `gorm:"column:receiver_name;size:100"`
	Status       TransactionStatus `gorm:"column:status;type:varchar(20);not null;default:'Pending';index"`
	StatusDetail string            `gorm:"column:status_detail;size:512"`
	CreatedAt    time.Time         `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// BankPrefixTo возвращает префикс банка-получателя (первые 3 символа номера счета)
func (t *Transaction) BankPrefixTo() string {
	if len(t.AccountTo) < 3 {
		return ""
	}
	return t.AccountTo[:3]
}
