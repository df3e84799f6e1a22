package services

import (
	"interbank/database"
	"interbank/models"
)

// Интерфейсы хранилища. Сервисы работают с узкими контрактами,
// реализуемыми *database.Database; каждая операция атомарна
// на уровне одной записи.

// TransactionStore — журнал транзакций
type TransactionStore interface {
	FindTransactionsByStatus(status models.TransactionStatus) ([]models.Transaction, error)
	FindTransactionsByUser(userID uint) ([]models.Transaction, error)
	CreateTransaction(transaction *models.Transaction) error
	SaveTransaction(transaction *models.Transaction) error
}

// AccountStore — счета и атомарные операции с балансом
type AccountStore interface {
	FindAccountByNumber(number string) (*models.Account, error)
	FindAccountByNumberAndUser(number string, userID uint) (*models.Account, error)
	FindAccountsByUser(userID uint) ([]models.Account, error)
	CreateAccount(account *models.Account) error
	CreditAccount(number string, amount float64) error
	DebitAccount(number string, amount float64) error
}

// BankStore — локальный кеш центрального реестра банков
type BankStore interface {
	FindBankByPrefix(prefix string) (*models.Bank, error)
	ReplaceBanks(banks []models.Bank) error
}

// UserStore — пользователи
type UserStore interface {
	CreateUser(user *models.User) error
	FindUserByID(id uint) (*models.User, error)
	FindUserByEmail(email string) (*models.User, error)
}

// SettlementStore — зачисление входящего перевода вместе с записью
// журнала в одной транзакции базы данных: либо и баланс, и запись,
// либо ничего
type SettlementStore interface {
	CreditAndRecord(number string, amount float64, record *models.Transaction) error
}

// Проверяем на этапе компиляции, что база данных реализует все контракты
var (
	_ TransactionStore = (*database.Database)(nil)
	_ AccountStore     = (*database.Database)(nil)
	_ BankStore        = (*database.Database)(nil)
	_ UserStore        = (*database.Database)(nil)
	_ SettlementStore  = (*database.Database)(nil)
)
