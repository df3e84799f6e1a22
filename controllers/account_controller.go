package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"interbank/middleware"
	"interbank/models"
	"interbank/services"
)

// AccountDTO представляет счет в ответах API
type AccountDTO struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	Number    string  `json:"number"`
	Balance   float64 `json:"balance"`
	Currency  string  `json:"currency"`
	CreatedAt string  `json:"createdAt"`
}

// CreateAccountRequest представляет данные для открытия счета
type CreateAccountRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// AccountController обрабатывает запросы, связанные со счетами
type AccountController struct {
	accounts    services.AccountStore
	userService *services.UserService
}

// NewAccountController создает новый экземпляр AccountController
func NewAccountController(accounts services.AccountStore, userService *services.UserService) *AccountController {
	return &AccountController{
		accounts:    accounts,
		userService: userService,
	}
}

func toAccountDTO(account *models.Account) AccountDTO {
	return AccountDTO{
		ID:        account.ID,
		Name:      account.Name,
		Number:    account.Number,
		Balance:   account.Balance,
		Currency:  account.Currency,
		CreatedAt: account.CreatedAt.Format(time.RFC3339),
	}
}

// CreateAccount обрабатывает запрос на открытие дополнительного счета
func (c *AccountController) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Значения по умолчанию
	if req.Name == "" {
		req.Name = "Main"
	}
	if req.Currency == "" {
		req.Currency = "EUR"
	}
	if len(req.Currency) != 3 {
		http.Error(w, "Некорректный код валюты", http.StatusBadRequest)
		return
	}

	account := &models.Account{
		Name:     req.Name,
		Number:   c.userService.GenerateAccountNumber(),
		UserID:   userID,
		Balance:  0,
		Currency: req.Currency,
	}

	if err := c.accounts.CreateAccount(account); err != nil {
		http.Error(w, "Не удалось открыть счет", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toAccountDTO(account))
}

// GetAccounts обрабатывает запрос на получение списка счетов пользователя
func (c *AccountController) GetAccounts(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accounts, err := c.accounts.FindAccountsByUser(userID)
	if err != nil {
		http.Error(w, "Не удалось получить список счетов", http.StatusInternalServerError)
		return
	}

	dtos := make([]AccountDTO, 0, len(accounts))
	for i := range accounts {
		dtos = append(dtos, toAccountDTO(&accounts[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(dtos)
}
