package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"interbank/config"
	"interbank/database"
	"interbank/models"
	"interbank/utils"
)

// RegistryService предоставляет методы для работы с реестром банков-партнеров.
// Локальная таблица — сквозной кеш центрального реестра: промах вызывает
// полное обновление (удалить все, вставить все), частичных обновлений нет.
type RegistryService struct {
	banks   BankStore
	client  *http.Client
	url     string
	apiKey  string
	metrics *utils.Metrics
}

// NewRegistryService создает новый экземпляр RegistryService
func NewRegistryService(banks BankStore, cfg *config.Config) *RegistryService {
	return &RegistryService{
		banks:   banks,
		client:  &http.Client{Timeout: 10 * time.Second},
		url:     cfg.CentralBank.URL,
		apiKey:  cfg.CentralBank.APIKey,
		metrics: utils.GetMetrics(),
	}
}

// Resolve возвращает банк по префиксу. При промахе кеша выполняется
// обновление из центрального реестра и ровно один повторный поиск.
func (s *RegistryService) Resolve(prefix string) (*models.Bank, error) {
	bank, err := s.banks.FindBankByPrefix(prefix)
	if err == nil {
		return bank, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	// Промах кеша: обновляем реестр и пробуем еще раз
	if err := s.Refresh(); err != nil {
		return nil, &RefreshError{Err: err}
	}

	bank, err = s.banks.FindBankByPrefix(prefix)
	if errors.Is(err, database.ErrNotFound) {
		// Банк подтвержденно отсутствует в актуальном реестре
		return nil, ErrBankNotFound
	}
	if err != nil {
		return nil, err
	}
	return bank, nil
}

// Refresh полностью перестраивает локальный кеш из центрального реестра.
// Конкурентные обновления допустимы: операция идемпотентна,
// побеждает последняя запись.
func (s *RegistryService) Refresh() error {
	utils.LogInfo("Обновляем реестр банков из центрального банка")

	err := s.refresh()
	s.metrics.RecordRegistryRefresh(err)
	if err != nil {
		utils.LogError("Не удалось обновить реестр банков: %v", err)
	}
	return err
}

func (s *RegistryService) refresh() error {
	req, err := http.NewRequest(http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("некорректный адрес центрального банка: %v", err)
	}
	req.Header.Set("Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("центральный банк недоступен: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("центральный банк вернул статус %d", resp.StatusCode)
	}

	var banks []models.Bank
	if err := json.NewDecoder(resp.Body).Decode(&banks); err != nil {
		return fmt.Errorf("некорректный ответ центрального банка: %v", err)
	}

	// Удаляем все записи и вставляем свежий реестр одним пакетом
	if err := s.banks.ReplaceBanks(banks); err != nil {
		return err
	}

	utils.LogInfo("Реестр банков обновлен: %d записей", len(banks))
	return nil
}
