package services

import (
	"strings"

	"interbank/config"
	"interbank/models"
	"interbank/utils"

	"github.com/google/uuid"
)

// UserService предоставляет методы для работы с пользователями
type UserService struct {
	users    UserStore
	accounts AccountStore
	prefix   string
}

// NewUserService создает новый экземпляр UserService
func NewUserService(users UserStore, accounts AccountStore, cfg *config.Config) *UserService {
	return &UserService{
		users:    users,
		accounts: accounts,
		prefix:   cfg.Bank.Prefix,
	}
}

// Register создает пользователя и открывает для него счет по умолчанию
func (s *UserService) Register(user *models.User) error {
	if err := s.users.CreateUser(user); err != nil {
		return err
	}

	// Открываем счет по умолчанию со стартовым балансом
	account := &models.Account{
		Name:     "Main",
		Number:   s.GenerateAccountNumber(),
		UserID:   user.ID,
		Balance:  5000,
		Currency: "EUR",
	}
	if err := s.accounts.CreateAccount(account); err != nil {
		return err
	}

	utils.LogInfo("Создан пользователь %d со счетом %s", user.ID, account.Number)
	return nil
}

// GenerateAccountNumber генерирует номер счета с префиксом этого банка.
// Префикс — первые 3 символа — используется банками-партнерами
// для маршрутизации переводов.
func (s *UserService) GenerateAccountNumber() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")
	return s.prefix + suffix
}

// FindByEmail возвращает пользователя по email
func (s *UserService) FindByEmail(email string) (*models.User, error) {
	return s.users.FindUserByEmail(email)
}

// FindByID возвращает пользователя по ID
func (s *UserService) FindByID(id uint) (*models.User, error) {
	return s.users.FindUserByID(id)
}
