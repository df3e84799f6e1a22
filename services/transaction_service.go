package services

import (
	"errors"
	"strings"

	"interbank/database"
	"interbank/models"
	"interbank/utils"

	"github.com/go-playground/validator/v10"
)

// CreateTransactionDTO представляет данные для создания перевода
type CreateTransactionDTO struct {
	AccountFrom string  `json:"accountFrom" validate:"required,min=4"`
	AccountTo   string  `json:"accountTo" validate:"required,min=4"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Explanation string  `json:"explanation" validate:"max=255"`
}

// IncomingResult — результат зачисления входящего перевода
type IncomingResult struct {
	ReceiverName string `json:"receiverName"`
}

// TransactionService предоставляет методы для создания исходящих
// переводов и зачисления входящих
type TransactionService struct {
	transactions TransactionStore
	accounts     AccountStore
	users        UserStore
	settlements  SettlementStore
	registry     *RegistryService
	signer       *SignerService
	exchange     RateSource
	validator    *validator.Validate
}

// NewTransactionService создает новый экземпляр TransactionService
func NewTransactionService(
	transactions TransactionStore,
	accounts AccountStore,
	users UserStore,
	settlements SettlementStore,
	registry *RegistryService,
	signer *SignerService,
	exchange RateSource,
) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		accounts:     accounts,
		users:        users,
		settlements:  settlements,
		registry:     registry,
		signer:       signer,
		exchange:     exchange,
		validator:    validator.New(),
	}
}

// validateDTO валидирует DTO и переводит ошибки валидации
func (s *TransactionService) validateDTO(dto interface{}) error {
	if err := s.validator.Struct(dto); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMessages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required":
				errorMessages = append(errorMessages, "поле "+e.Field()+" обязательно")
			case "min":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно содержать минимум "+e.Param()+" символов")
			case "max":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно содержать максимум "+e.Param()+" символов")
			case "gt":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно быть больше "+e.Param())
			}
		}
		return errors.New(strings.Join(errorMessages, "; "))
	}
	return nil
}

// Create создает исходящий перевод: проверяет счет и средства,
// записывает транзакцию в статусе Pending и списывает сумму.
// Дальнейшую доставку выполняет планировщик расчетов.
func (s *TransactionService) Create(userID uint, dto CreateTransactionDTO) (*models.Transaction, error) {
	// Валидируем DTO
	if err := s.validateDTO(dto); err != nil {
		return nil, err
	}

	// Счет списания должен существовать и принадлежать пользователю
	accountFrom, err := s.accounts.FindAccountByNumberAndUser(dto.AccountFrom, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	// Проверяем достаточность средств
	if accountFrom.Balance < dto.Amount {
		return nil, database.ErrInsufficientFunds
	}

	// Предварительно разрешаем банк-получатель. Сбой обновления реестра
	// не блокирует создание — планировщик повторит; подтвержденное
	// отсутствие банка отклоняет перевод сразу.
	var statusDetail string
	if _, err := s.registry.Resolve(dto.AccountTo[:3]); err != nil {
		var refreshErr *RefreshError
		switch {
		case errors.Is(err, ErrBankNotFound):
			return nil, ErrInvalidDestination
		case errors.As(err, &refreshErr):
			statusDetail = refreshErr.Error()
		default:
			return nil, err
		}
	}

	// Имя отправителя фиксируется в момент создания
	sender, err := s.users.FindUserByID(userID)
	if err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		UserID:       userID,
		AccountFrom:  dto.AccountFrom,
		AccountTo:    dto.AccountTo,
		Amount:       dto.Amount,
		Currency:     accountFrom.Currency,
		Explanation:  dto.Explanation,
		SenderName:   sender.FullName(),
		Status:       models.TransactionStatusPending,
		StatusDetail: statusDetail,
	}

	if err := s.transactions.CreateTransaction(transaction); err != nil {
		return nil, err
	}

	// Списываем сумму со счета; зачисление получателю выполнит
	// банк-получатель после доставки конверта
	if err := s.accounts.DebitAccount(dto.AccountFrom, dto.Amount); err != nil {
		transaction.Status = models.TransactionStatusFailed
		transaction.StatusDetail = "Списание не удалось: " + err.Error()
		if saveErr := s.transactions.SaveTransaction(transaction); saveErr != nil {
			utils.LogError("Не удалось пометить транзакцию %d: %v", transaction.ID, saveErr)
		}
		return nil, err
	}

	return transaction, nil
}

// History возвращает переводы пользователя
func (s *TransactionService) History(userID uint) ([]models.Transaction, error) {
	return s.transactions.FindTransactionsByUser(userID)
}

// SettleIncoming зачисляет входящий перевод от банка-партнера.
// До проверки подписи и поиска счета баланс не изменяется;
// зачисление и запись журнала атомарны.
func (s *TransactionService) SettleIncoming(token string) (*IncomingResult, error) {
	// Извлекаем полезную нагрузку для маршрутизации
	payload, err := s.signer.DecodePayload(token)
	if err != nil {
		return nil, err
	}
	if len(payload.AccountFrom) < 3 || len(payload.AccountTo) < 3 {
		return nil, ErrBadEnvelope
	}

	// Счет зачисления должен существовать в этом банке
	accountTo, err := s.accounts.FindAccountByNumber(payload.AccountTo)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	// Разрешаем банк-отправитель, при промахе кеша реестр обновляется
	senderBank, err := s.registry.Resolve(payload.AccountFrom[:3])
	if err != nil {
		return nil, err
	}

	// Обязательная криптографическая проверка подписи ключом
	// банка-отправителя — до любого изменения баланса.
	// Дальше используется только проверенная полезная нагрузка.
	verified, err := s.signer.Verify(token, senderBank.PublicKey)
	if err != nil {
		return nil, err
	}

	// Сумма перевода обязана быть положительной: отрицательная сумма
	// в корректно подписанном конверте превратила бы зачисление
	// в списание со счета получателя
	if verified.Amount <= 0 {
		return nil, ErrBadEnvelope
	}

	// Конвертируем сумму в валюту счета зачисления
	credited := verified.Amount
	if accountTo.Currency != verified.Currency {
		rate, err := s.exchange.Rate(verified.Currency, accountTo.Currency)
		if err != nil {
			return nil, err
		}
		credited = ConvertAmount(verified.Amount, rate, accountTo.Currency)
		utils.LogInfo("Конвертация %s -> %s: %.2f -> %.2f",
			verified.Currency, accountTo.Currency, verified.Amount, credited)
	}

	owner, err := s.users.FindUserByID(accountTo.UserID)
	if err != nil {
		return nil, err
	}

	// Журнал хранит перевод в исходной валюте, как он был получен
	record := &models.Transaction{
		UserID:       owner.ID,
		AccountFrom:  verified.AccountFrom,
		AccountTo:    verified.AccountTo,
		Amount:       verified.Amount,
		Currency:     verified.Currency,
		Explanation:  verified.Explanation,
		SenderName:   verified.SenderName,
		ReceiverName: owner.FullName(),
		Status:       models.TransactionStatusCompleted,
		StatusDetail: "Received",
	}

	if err := s.settlements.CreditAndRecord(accountTo.Number, credited, record); err != nil {
		return nil, err
	}

	utils.LogInfo("Входящий перевод зачислен на счет %s: %.2f %s",
		accountTo.Number, credited, accountTo.Currency)

	return &IncomingResult{ReceiverName: owner.FullName()}, nil
}
