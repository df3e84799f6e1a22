package database

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"interbank/config"
	"interbank/models"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database представляет подключение к базе данных
type Database struct {
	DB *gorm.DB
}

// NewDatabase создает новое подключение к базе данных
func NewDatabase(cfg *config.Config) (*Database, error) {
	// Формируем строку подключения
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.DBName,
	)

	// Открываем подключение. Без TranslateError нарушение уникального
	// индекса приходит сырой ошибкой драйвера, а не gorm.ErrDuplicatedKey
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %v", err)
	}

	return &Database{DB: db}, nil
}

// GetDB возвращает экземпляр GORM
func (d *Database) GetDB() *gorm.DB {
	return d.DB
}

// Close закрывает подключение к базе данных
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Connect устанавливает соединение с базой данных и выполняет миграции
func Connect(cfg *config.Config) (*Database, error) {
	// Формируем строку подключения
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.DBName,
	)

	// Настраиваем логгер
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	// Устанавливаем соединение. TranslateError приводит ошибки драйвера
	// к gorm.ErrDuplicatedKey и подобным, на которые опирается translate
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         newLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %v", err)
	}

	// Настраиваем пул соединений
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пула соединений: %v", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Выполняем SQL миграции
	if err := runMigrations(cfg); err != nil {
		return nil, fmt.Errorf("ошибка выполнения SQL миграций: %v", err)
	}

	// Выполняем автоматическую миграцию моделей
	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("ошибка автоматической миграции моделей: %v", err)
	}

	return &Database{DB: db}, nil
}

// runMigrations выполняет SQL миграции
func runMigrations(cfg *config.Config) error {
	// Формируем URL для миграций
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.DBName,
	)

	// Создаем экземпляр миграции
	m, err := migrate.New(
		"file://migrations",
		dsn,
	)
	if err != nil {
		return fmt.Errorf("ошибка создания миграции: %v", err)
	}

	// Выполняем миграции
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("ошибка выполнения миграций: %v", err)
	}

	return nil
}

// autoMigrate выполняет автоматическую миграцию моделей
func autoMigrate(db *gorm.DB) error {
	// Автоматическая миграция моделей
	err := db.AutoMigrate(
		&models.User{},
		&models.Account{},
		&models.Transaction{},
		&models.Bank{},
	)
	if err != nil {
		return fmt.Errorf("ошибка автоматической миграции: %v", err)
	}

	return nil
}

// translate приводит ошибки GORM к типизированным ошибкам хранилища
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

// Методы для работы с пользователями

func (d *Database) CreateUser(user *models.User) error {
	return translate(d.DB.Create(user).Error)
}

func (d *Database) FindUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := d.DB.First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (d *Database) FindUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := d.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// Методы для работы со счетами

func (d *Database) CreateAccount(account *models.Account) error {
	return translate(d.DB.Create(account).Error)
}

func (d *Database) FindAccountByNumber(number string) (*models.Account, error) {
	var account models.Account
	if err := d.DB.Where("number = ?", number).First(&account).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (d *Database) FindAccountByNumberAndUser(number string, userID uint) (*models.Account, error) {
	var account models.Account
	if err := d.DB.Where("number = ? AND user_id = ?", number, userID).First(&account).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (d *Database) FindAccountsByUser(userID uint) ([]models.Account, error) {
	var accounts []models.Account
	if err := d.DB.Where("user_id = ?", userID).Find(&accounts).Error; err != nil {
		return nil, translate(err)
	}
	return accounts, nil
}

// CreditAccount атомарно зачисляет сумму на счет
func (d *Database) CreditAccount(number string, amount float64) error {
	res := d.DB.Model(&models.Account{}).
		Where("number = ?", number).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", amount),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DebitAccount атомарно списывает сумму со счета.
// Списание возможно только при достаточном балансе: баланс никогда
// не уходит в минус как следствие логики расчетов.
func (d *Database) DebitAccount(number string, amount float64) error {
	res := d.DB.Model(&models.Account{}).
		Where("number = ? AND balance >= ?", number, amount).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance - ?", amount),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		// Различаем отсутствующий счет и нехватку средств
		if _, err := d.FindAccountByNumber(number); err != nil {
			return err
		}
		return ErrInsufficientFunds
	}
	return nil
}

// Методы для работы с транзакциями

func (d *Database) CreateTransaction(transaction *models.Transaction) error {
	return translate(d.DB.Create(transaction).Error)
}

func (d *Database) SaveTransaction(transaction *models.Transaction) error {
	return translate(d.DB.Save(transaction).Error)
}

func (d *Database) FindTransactionsByStatus(status models.TransactionStatus) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := d.DB.Where("status = ?", status).Find(&transactions).Error; err != nil {
		return nil, translate(err)
	}
	return transactions, nil
}

func (d *Database) FindTransactionsByUser(userID uint) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := d.DB.Where("user_id = ?", userID).Order("created_at desc").Find(&transactions).Error; err != nil {
		return nil, translate(err)
	}
	return transactions, nil
}

// CreditAndRecord зачисляет входящий перевод и создает запись журнала
// в одной транзакции базы данных: сбой на любом шаге не оставляет
// частичного состояния.
func (d *Database) CreditAndRecord(number string, amount float64, record *models.Transaction) error {
	tx := d.DB.Begin()
	if tx.Error != nil {
		return errors.New("ошибка при начале транзакции")
	}

	res := tx.Model(&models.Account{}).
		Where("number = ?", number).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", amount),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		tx.Rollback()
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return ErrNotFound
	}

	if err := tx.Create(record).Error; err != nil {
		tx.Rollback()
		return translate(err)
	}

	if err := tx.Commit().Error; err != nil {
		return errors.New("ошибка при подтверждении транзакции")
	}

	return nil
}

// Методы для работы с реестром банков

func (d *Database) FindBankByPrefix(prefix string) (*models.Bank, error) {
	var bank models.Bank
	if err := d.DB.Where("bank_prefix = ?", prefix).First(&bank).Error; err != nil {
		return nil, translate(err)
	}
	return &bank, nil
}

// ReplaceBanks полностью заменяет локальный кеш реестра банков.
// Удаление и пакетная вставка выполняются в одной транзакции,
// чтобы конкурирующие обновления не оставили частичного состояния.
func (d *Database) ReplaceBanks(banks []models.Bank) error {
	tx := d.DB.Begin()
	if tx.Error != nil {
		return errors.New("ошибка при начале транзакции")
	}

	// Удаляем все записи кеша
	if err := tx.Where("1 = 1").Delete(&models.Bank{}).Error; err != nil {
		tx.Rollback()
		return errors.New("ошибка при очистке реестра банков")
	}

	// Пакетная вставка свежего реестра
	if len(banks) > 0 {
		if err := tx.CreateInBatches(banks, 100).Error; err != nil {
			tx.Rollback()
			return errors.New("ошибка при вставке реестра банков")
		}
	}

	// Подтверждаем транзакцию
	if err := tx.Commit().Error; err != nil {
		return errors.New("ошибка при подтверждении транзакции")
	}

	return nil
}
