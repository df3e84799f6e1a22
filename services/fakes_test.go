package services

import (
	"path/filepath"
	"sync"
	"testing"

	"interbank/config"
	"interbank/database"
	"interbank/models"
	"interbank/utils"
)

// fakeStore — хранилище в памяти, реализующее все контракты сервисов
type fakeStore struct {
	mu           sync.Mutex
	nextID       uint
	transactions map[uint]*models.Transaction
	accounts     map[string]*models.Account
	banks        map[string]*models.Bank
	users        map[uint]*models.User
	// История переходов статуса по транзакциям
	statusLog map[uint][]models.TransactionStatus
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		transactions: make(map[uint]*models.Transaction),
		accounts:     make(map[string]*models.Account),
		banks:        make(map[string]*models.Bank),
		users:        make(map[uint]*models.User),
		statusLog:    make(map[uint][]models.TransactionStatus),
	}
}

func copyTransaction(t *models.Transaction) *models.Transaction {
	c := *t
	return &c
}

func (f *fakeStore) FindTransactionsByStatus(status models.TransactionStatus) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.Transaction
	for _, t := range f.transactions {
		if t.Status == status {
			result = append(result, *copyTransaction(t))
		}
	}
	return result, nil
}

func (f *fakeStore) FindTransactionsByUser(userID uint) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.Transaction
	for _, t := range f.transactions {
		if t.UserID == userID {
			result = append(result, *copyTransaction(t))
		}
	}
	return result, nil
}

func (f *fakeStore) CreateTransaction(t *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t.ID = f.nextID
	f.transactions[t.ID] = copyTransaction(t)
	f.statusLog[t.ID] = append(f.statusLog[t.ID], t.Status)
	return nil
}

func (f *fakeStore) SaveTransaction(t *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactions[t.ID] = copyTransaction(t)
	f.statusLog[t.ID] = append(f.statusLog[t.ID], t.Status)
	return nil
}

func (f *fakeStore) FindAccountByNumber(number string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[number]
	if !ok {
		return nil, database.ErrNotFound
	}
	c := *account
	return &c, nil
}

func (f *fakeStore) FindAccountByNumberAndUser(number string, userID uint) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[number]
	if !ok || account.UserID != userID {
		return nil, database.ErrNotFound
	}
	c := *account
	return &c, nil
}

func (f *fakeStore) FindAccountsByUser(userID uint) ([]models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.Account
	for _, account := range f.accounts {
		if account.UserID == userID {
			result = append(result, *account)
		}
	}
	return result, nil
}

func (f *fakeStore) CreateAccount(account *models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[account.Number]; ok {
		return database.ErrDuplicate
	}
	f.nextID++
	account.ID = f.nextID
	c := *account
	f.accounts[account.Number] = &c
	return nil
}

func (f *fakeStore) CreditAccount(number string, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[number]
	if !ok {
		return database.ErrNotFound
	}
	account.Balance += amount
	return nil
}

func (f *fakeStore) DebitAccount(number string, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[number]
	if !ok {
		return database.ErrNotFound
	}
	if account.Balance < amount {
		return database.ErrInsufficientFunds
	}
	account.Balance -= amount
	return nil
}

func (f *fakeStore) CreditAndRecord(number string, amount float64, record *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[number]
	if !ok {
		return database.ErrNotFound
	}
	account.Balance += amount
	f.nextID++
	record.ID = f.nextID
	f.transactions[record.ID] = copyTransaction(record)
	f.statusLog[record.ID] = append(f.statusLog[record.ID], record.Status)
	return nil
}

func (f *fakeStore) FindBankByPrefix(prefix string) (*models.Bank, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bank, ok := f.banks[prefix]
	if !ok {
		return nil, database.ErrNotFound
	}
	c := *bank
	return &c, nil
}

func (f *fakeStore) ReplaceBanks(banks []models.Bank) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.banks = make(map[string]*models.Bank)
	for i := range banks {
		c := banks[i]
		f.banks[c.BankPrefix] = &c
	}
	return nil
}

func (f *fakeStore) CreateUser(user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return database.ErrDuplicate
		}
	}
	f.nextID++
	user.ID = f.nextID
	c := *user
	f.users[user.ID] = &c
	return nil
}

func (f *fakeStore) FindUserByID(id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	c := *user
	return &c, nil
}

func (f *fakeStore) FindUserByEmail(email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, database.ErrNotFound
}

// balance возвращает текущий баланс счета в фейковом хранилище
func (f *fakeStore) balance(number string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if account, ok := f.accounts[number]; ok {
		return account.Balance
	}
	return 0
}

// transaction возвращает копию транзакции по ID
func (f *fakeStore) transaction(id uint) *models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.transactions[id]; ok {
		return copyTransaction(t)
	}
	return nil
}

// statuses возвращает историю переходов статуса транзакции
func (f *fakeStore) statuses(id uint) []models.TransactionStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.TransactionStatus(nil), f.statusLog[id]...)
}

// Компилятор подтверждает, что фейк реализует все контракты
var (
	_ TransactionStore = (*fakeStore)(nil)
	_ AccountStore     = (*fakeStore)(nil)
	_ BankStore        = (*fakeStore)(nil)
	_ UserStore        = (*fakeStore)(nil)
	_ SettlementStore  = (*fakeStore)(nil)
)

// newTestSigner создает подписанта с временным ключом и возвращает
// его публичный ключ в PEM
func newTestSigner(t *testing.T) (*SignerService, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "private.key")
	key, err := utils.GeneratePrivateKey(path)
	if err != nil {
		t.Fatalf("не удалось сгенерировать ключ: %v", err)
	}

	pem, err := utils.PublicKeyToPEM(&key.PublicKey)
	if err != nil {
		t.Fatalf("не удалось закодировать публичный ключ: %v", err)
	}

	cfg := &config.Config{}
	cfg.Keys.PrivateKeyPath = path
	return NewSignerService(cfg), pem
}

// newTestRegistry создает сервис реестра поверх фейкового хранилища
func newTestRegistry(store BankStore, centralURL string) *RegistryService {
	cfg := &config.Config{}
	cfg.CentralBank.URL = centralURL
	cfg.CentralBank.APIKey = "test-api-key"
	return NewRegistryService(store, cfg)
}
