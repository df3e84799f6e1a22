package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"interbank/database"
	"interbank/middleware"
	"interbank/models"
	"interbank/services"
	"interbank/utils"
)

// TransactionDTO представляет перевод в ответах API
type TransactionDTO struct {
	ID           uint    `json:"id"`
	AccountFrom  string  `json:"accountFrom"`
	AccountTo    string  `json:"accountTo"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	Explanation  string  `json:"explanation"`
	SenderName   string  `json:"senderName"`
	ReceiverName string  `json:"receiverName,omitempty"`
	Status       string  `json:"status"`
	StatusDetail string  `json:"statusDetail,omitempty"`
	CreatedAt    string  `json:"createdAt"`
}

// B2BRequest — входящий подписанный конверт от банка-партнера
type B2BRequest struct {
	JWT string `json:"jwt"`
}

// TransactionController обрабатывает запросы, связанные с переводами,
// включая B2B-эндпоинты для банков-партнеров
type TransactionController struct {
	transactionService *services.TransactionService
	signer             *services.SignerService
}

// NewTransactionController создает новый экземпляр TransactionController
func NewTransactionController(transactionService *services.TransactionService, signer *services.SignerService) *TransactionController {
	return &TransactionController{
		transactionService: transactionService,
		signer:             signer,
	}
}

func toTransactionDTO(t *models.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:           t.ID,
		AccountFrom:  t.AccountFrom,
		AccountTo:    t.AccountTo,
		Amount:       t.Amount,
		Currency:     t.Currency,
		Explanation:  t.Explanation,
		SenderName:   t.SenderName,
		ReceiverName: t.ReceiverName,
		Status:       string(t.Status),
		StatusDetail: t.StatusDetail,
		CreatedAt:    t.CreatedAt.Format(time.RFC3339),
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Create обрабатывает запрос на создание перевода
func (c *TransactionController) Create(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var dto services.CreateTransactionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	transaction, err := c.transactionService.Create(userID, dto)
	if err != nil {
		// Типизированные ошибки сервиса транслируются в HTTP-статусы
		switch {
		case errors.Is(err, services.ErrAccountNotFound):
			writeError(w, http.StatusNotFound, "Счет списания не найден")
		case errors.Is(err, database.ErrInsufficientFunds):
			writeError(w, http.StatusPaymentRequired, "Недостаточно средств на счете")
		case errors.Is(err, services.ErrInvalidDestination):
			writeError(w, http.StatusBadRequest, "Некорректный банк-получатель")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toTransactionDTO(transaction))
}

// History обрабатывает запрос на получение переводов пользователя
func (c *TransactionController) History(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	transactions, err := c.transactionService.History(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Не удалось получить переводы")
		return
	}

	dtos := make([]TransactionDTO, 0, len(transactions))
	for i := range transactions {
		dtos = append(dtos, toTransactionDTO(&transactions[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(dtos)
}

// JWKS публикует публичный ключ этого банка для банков-партнеров
func (c *TransactionController) JWKS(w http.ResponseWriter, r *http.Request) {
	jwks, err := c.signer.JWKS()
	if err != nil {
		utils.LogError("Не удалось сформировать JWKS: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(jwks)
}

// B2B принимает подписанный конверт от банка-партнера и зачисляет перевод
func (c *TransactionController) B2B(w http.ResponseWriter, r *http.Request) {
	var req B2BRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JWT == "" {
		writeError(w, http.StatusBadRequest, "Тело запроса должно содержать поле jwt")
		return
	}

	result, err := c.transactionService.SettleIncoming(req.JWT)
	if err != nil {
		var refreshErr *services.RefreshError
		var rateErr *services.RateError
		switch {
		case errors.Is(err, services.ErrBadEnvelope), errors.Is(err, services.ErrBadSignature):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrAccountNotFound):
			writeError(w, http.StatusNotFound, "Account not found")
		case errors.Is(err, services.ErrBankNotFound):
			writeError(w, http.StatusNotFound, "Банк-отправитель не найден в центральном реестре")
		case errors.As(err, &refreshErr):
			writeError(w, http.StatusBadGateway, refreshErr.Error())
		case errors.As(err, &rateErr):
			writeError(w, http.StatusBadGateway, rateErr.Error())
		default:
			utils.LogError("Ошибка зачисления входящего перевода: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}
