package services

import (
	"fmt"
	"time"

	"interbank/config"
	"interbank/models"

	"gopkg.in/gomail.v2"
)

// SettlementNotifier уведомляет отправителя об итоге перевода
type SettlementNotifier interface {
	SendSettlementNotification(to string, transaction *models.Transaction) error
}

// EmailService предоставляет методы для отправки email
type EmailService struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailService создает новый экземпляр EmailService
func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
	)

	return &EmailService{
		dialer: dialer,
		from:   cfg.SMTP.From,
	}
}

// SendEmail отправляет email
func (s *EmailService) SendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("ошибка отправки email: %v", err)
	}

	return nil
}

// SendSettlementNotification отправляет уведомление об итоге перевода
func (s *EmailService) SendSettlementNotification(to string, transaction *models.Transaction) error {
	var subject, outcome string
	switch transaction.Status {
	case models.TransactionStatusCompleted:
		subject = "Перевод выполнен"
		outcome = "Зачислен получателю " + transaction.ReceiverName
	case models.TransactionStatusFailed:
		subject = "Перевод не выполнен"
		outcome = transaction.StatusDetail
	default:
		return nil
	}

	body := fmt.Sprintf(`
		<h2>%s</h2>
		<p>Счет списания: %s</p>
		<p>Счет зачисления: %s</p>
		<p>Сумма: %.2f %s</p>
		<p>Результат: %s</p>
		<p>Дата: %s</p>
	`, subject, transaction.AccountFrom, transaction.AccountTo,
		transaction.Amount, transaction.Currency, outcome,
		time.Now().Format("02.01.2006 15:04:05"))

	return s.SendEmail(to, subject, body)
}
