package services

import (
	"errors"
	"sync"
	"time"

	"interbank/models"
	"interbank/utils"
)

const (
	// Интервал между проходами планировщика
	sweepInterval = 1 * time.Second

	// Окно действия перевода: по истечении транзакция завершается
	// с возвратом средств
	transactionExpiry = 72 * time.Hour
)

// SettlementSchedulerService — планировщик расчетов. Периодически
// выбирает все Pending-транзакции и проводит каждую через конечный
// автомат: Pending -> In progress -> Completed | Failed, с возвратом
// в Pending при переходных сбоях.
type SettlementSchedulerService struct {
	transactions TransactionStore
	accounts     AccountStore
	users        UserStore
	registry     *RegistryService
	signer       *SignerService
	client       PeerSender
	notifier     SettlementNotifier
	metrics      *utils.Metrics
	stop         chan struct{}
	stopOnce     sync.Once
}

// NewSettlementSchedulerService создает новый экземпляр планировщика
func NewSettlementSchedulerService(
	transactions TransactionStore,
	accounts AccountStore,
	users UserStore,
	registry *RegistryService,
	signer *SignerService,
	client PeerSender,
	notifier SettlementNotifier,
) *SettlementSchedulerService {
	return &SettlementSchedulerService{
		transactions: transactions,
		accounts:     accounts,
		users:        users,
		registry:     registry,
		signer:       signer,
		client:       client,
		notifier:     notifier,
		metrics:      utils.GetMetrics(),
		stop:         make(chan struct{}),
	}
}

// Start запускает планировщик расчетов. Очередной проход начинается
// только после полного завершения предыдущего, поэтому одна транзакция
// не может быть взята в обработку дважды.
func (s *SettlementSchedulerService) Start() {
	ticker := time.NewTicker(sweepInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.ProcessPending()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop останавливает планировщик
func (s *SettlementSchedulerService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// ProcessPending выполняет один проход: берет все Pending-транзакции
// и обрабатывает каждую ровно один раз. Транзакции независимы и
// обрабатываются конкурентно; проход всегда доводит пакет до конца.
func (s *SettlementSchedulerService) ProcessPending() {
	pending, err := s.transactions.FindTransactionsByStatus(models.TransactionStatusPending)
	if err != nil {
		utils.LogError("Ошибка при получении ожидающих транзакций: %v", err)
		return
	}

	var wg sync.WaitGroup
	for i := range pending {
		wg.Add(1)
		go func(transaction *models.Transaction) {
			defer wg.Done()
			// Сбой одной транзакции не должен останавливать ни пакет,
			// ни сам планировщик
			defer func() {
				if r := recover(); r != nil {
					utils.LogError("Паника при обработке транзакции %d: %v", transaction.ID, r)
					s.metrics.RecordError(errors.New("panic in settlement"))
				}
			}()
			s.process(transaction)
		}(&pending[i])
	}
	wg.Wait()

	if len(pending) > 0 {
		utils.LogDebug("Проход планировщика: обработано %d транзакций", len(pending))
	}
	s.metrics.RecordSweep(len(pending))
}

// process проводит одну транзакцию через конечный автомат
func (s *SettlementSchedulerService) process(transaction *models.Transaction) {
	// Фиксируем взятие в обработку до любых побочных эффектов: сбой
	// процесса посреди обработки останется виден как In progress,
	// а не потеряется
	s.setStatus(transaction, models.TransactionStatusInProgress, "")

	// Проверяем срок действия до любых сетевых вызовов
	if time.Since(transaction.CreatedAt) > transactionExpiry {
		s.failWithRefund(transaction, "Expired")
		s.metrics.RecordSettlement("expired")
		return
	}

	// Разрешаем банк-получатель по префиксу счета
	prefix := transaction.BankPrefixTo()
	bank, err := s.registry.Resolve(prefix)
	if err != nil {
		var refreshErr *RefreshError
		switch {
		case errors.As(err, &refreshErr):
			// Реестр недоступен — переходный сбой, повтор на следующем проходе
			s.setStatus(transaction, models.TransactionStatusPending, refreshErr.Error())
			s.metrics.RecordSettlement("retried")
		case errors.Is(err, ErrBankNotFound):
			// Банк подтвержденно отсутствует — терминальный сбой с возвратом
			s.failWithRefund(transaction, "Банк "+prefix+" не существует")
			s.metrics.RecordSettlement("failed")
		default:
			s.setStatus(transaction, models.TransactionStatusPending, err.Error())
			s.metrics.RecordSettlement("retried")
		}
		return
	}

	// Подписываем конверт; неподписанный перевод отправлять нельзя
	token, err := s.signer.Sign(TransactionPayload{
		AccountFrom: transaction.AccountFrom,
		AccountTo:   transaction.AccountTo,
		Amount:      transaction.Amount,
		Currency:    transaction.Currency,
		Explanation: transaction.Explanation,
		SenderName:  transaction.SenderName,
	})
	if err != nil {
		s.setStatus(transaction, models.TransactionStatusPending, "Подпись не удалась: "+err.Error())
		s.metrics.RecordSettlement("retried")
		return
	}

	// Доставляем конверт банку-получателю
	response, err := s.client.Send(bank, token)
	if err != nil {
		// Транспортный сбой — переходный, без возврата средств
		s.setStatus(transaction, models.TransactionStatusPending, err.Error())
		s.metrics.RecordSettlement("retried")
		return
	}

	// Явный отказ получателя
	if response.Error != "" {
		s.failWithRefund(transaction, response.Error)
		s.metrics.RecordSettlement("failed")
		return
	}

	// Ответ без обязательного подтверждения
	if response.ReceiverName == "" {
		s.failWithRefund(transaction, "Ответ банка-получателя не содержит receiverName")
		s.metrics.RecordSettlement("failed")
		return
	}

	// Перевод зачислен получателем
	transaction.ReceiverName = response.ReceiverName
	s.setStatus(transaction, models.TransactionStatusCompleted, "")
	s.metrics.RecordSettlement("completed")
	utils.LogInfo("Транзакция %d выполнена, получатель: %s", transaction.ID, response.ReceiverName)
	s.notify(transaction)
}

// failWithRefund завершает транзакцию с компенсационным возвратом.
// Возврат выполняется ровно один раз — внутри обработчика ребра,
// приводящего к Failed, а не по значению статуса.
func (s *SettlementSchedulerService) failWithRefund(transaction *models.Transaction, detail string) {
	utils.LogInfo("Возврат по транзакции %d на сумму %.2f", transaction.ID, transaction.Amount)

	err := s.accounts.CreditAccount(transaction.AccountFrom, transaction.Amount)
	s.metrics.RecordRefund(err)
	if err != nil {
		// Сбой возврата не должен ронять проход; детализация
		// различает невыполненный и выполненный возврат
		utils.LogError("Ошибка возврата по транзакции %d: %v", transaction.ID, err)
		s.setStatus(transaction, models.TransactionStatusFailed, detail+" (возврат не выполнен)")
	} else {
		s.setStatus(transaction, models.TransactionStatusFailed, detail)
	}
	s.notify(transaction)
}

// setStatus сохраняет переход статуса транзакции
func (s *SettlementSchedulerService) setStatus(transaction *models.Transaction, status models.TransactionStatus, detail string) {
	transaction.Status = status
	transaction.StatusDetail = detail
	if err := s.transactions.SaveTransaction(transaction); err != nil {
		utils.LogError("Не удалось сохранить статус транзакции %d: %v", transaction.ID, err)
	}
}

// notify отправляет отправителю уведомление об итоге перевода
func (s *SettlementSchedulerService) notify(transaction *models.Transaction) {
	if s.notifier == nil {
		return
	}
	user, err := s.users.FindUserByID(transaction.UserID)
	if err != nil {
		utils.LogError("Не удалось найти отправителя транзакции %d: %v", transaction.ID, err)
		return
	}
	if err := s.notifier.SendSettlementNotification(user.Email, transaction); err != nil {
		utils.LogError("Ошибка отправки уведомления: %v", err)
	}
}
