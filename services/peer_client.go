package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"interbank/models"
	"interbank/utils"

	"github.com/sony/gobreaker"
)

// PeerResponse — ответ банка-получателя на исходящий перевод
type PeerResponse struct {
	ReceiverName string `json:"receiverName"`
	Error        string `json:"error"`
}

// PeerSender — исходящий вызов к банку-получателю
type PeerSender interface {
	Send(bank *models.Bank, token string) (*PeerResponse, error)
}

// PeerClient доставляет подписанные конверты банкам-получателям.
// Повторов внутри клиента нет — повтор целиком на планировщике;
// каждый адрес получателя защищен собственным circuit breaker'ом,
// чтобы недоступный банк не блокировал переводы в остальные.
type PeerClient struct {
	client *http.Client

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewPeerClient создает новый экземпляр PeerClient
func NewPeerClient() *PeerClient {
	return &PeerClient{
		client:   &http.Client{Timeout: 15 * time.Second},
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// breakerFor возвращает circuit breaker для адреса банка-получателя
func (c *PeerClient) breakerFor(url string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[url]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    url,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			utils.LogInfo("Circuit breaker %s: %s -> %s", name, from.String(), to.String())
		},
	})
	c.breakers[url] = cb
	return cb
}

// Send выполняет POST {"jwt": token} на transactionUrl банка-получателя
// и разбирает JSON-ответ. Тело разбирается независимо от HTTP-статуса:
// отказ получателя приходит как {"error": ...}. Транспортные сбои
// (соединение, таймаут, не-JSON тело, открытый breaker) возвращаются
// как *TransportError.
func (c *PeerClient) Send(bank *models.Bank, token string) (*PeerResponse, error) {
	body, err := json.Marshal(map[string]string{"jwt": token})
	if err != nil {
		return nil, &TransportError{URL: bank.TransactionURL, Err: err}
	}

	result, err := c.breakerFor(bank.TransactionURL).Execute(func() (interface{}, error) {
		resp, err := c.client.Post(bank.TransactionURL, "application/json", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		var peerResp PeerResponse
		if err := json.Unmarshal(data, &peerResp); err != nil {
			return nil, fmt.Errorf("не-JSON ответ: %v | %s", err, string(data))
		}
		return &peerResp, nil
	})
	if err != nil {
		return nil, &TransportError{URL: bank.TransactionURL, Err: err}
	}

	return result.(*PeerResponse), nil
}
