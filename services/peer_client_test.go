package services

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"interbank/models"
)

func peerBank(url string) *models.Bank {
	return &models.Bank{
		Name:           "Partner Bank",
		BankPrefix:     "xyz",
		TransactionURL: url,
	}
}

func TestSendSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("некорректное тело запроса: %v", err)
		}
		if req["jwt"] != "token-123" {
			t.Errorf("ожидался конверт в поле jwt, получено: %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"receiverName": "Боб Иванов"}`))
	}))
	defer server.Close()

	client := NewPeerClient()
	resp, err := client.Send(peerBank(server.URL), "token-123")
	if err != nil {
		t.Fatalf("Send вернул ошибку: %v", err)
	}
	if resp.ReceiverName != "Боб Иванов" || resp.Error != "" {
		t.Errorf("некорректный ответ: %+v", resp)
	}
}

func TestSendPeerRejection(t *testing.T) {
	// Отказ получателя приходит JSON-телом с не-2xx статусом;
	// это ответ, а не транспортный сбой
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "Account not found"}`))
	}))
	defer server.Close()

	client := NewPeerClient()
	resp, err := client.Send(peerBank(server.URL), "token-123")
	if err != nil {
		t.Fatalf("отказ получателя не должен быть транспортной ошибкой: %v", err)
	}
	if resp.Error != "Account not found" {
		t.Errorf("ожидался отказ в поле error, получено: %+v", resp)
	}
}

func TestSendConnectionRefused(t *testing.T) {
	client := NewPeerClient()

	_, err := client.Send(peerBank("http://127.0.0.1:1"), "token-123")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("ожидалась *TransportError при обрыве соединения, получено: %v", err)
	}
}

func TestSendNonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>Bad Gateway</html>`))
	}))
	defer server.Close()

	client := NewPeerClient()
	_, err := client.Send(peerBank(server.URL), "token-123")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("ожидалась *TransportError для не-JSON тела, получено: %v", err)
	}
}

func TestSendBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	client := NewPeerClient()
	bank := peerBank("http://127.0.0.1:1")

	// Пять подряд неудачных вызовов открывают breaker этого адреса
	for i := 0; i < 5; i++ {
		if _, err := client.Send(bank, "token-123"); err == nil {
			t.Fatal("ожидалась ошибка при обрыве соединения")
		}
	}

	_, err := client.Send(bank, "token-123")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("открытый breaker должен возвращаться как *TransportError, получено: %v", err)
	}
}

func TestSendBreakerIsPerURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"receiverName": "Боб Иванов"}`))
	}))
	defer server.Close()

	client := NewPeerClient()
	dead := peerBank("http://127.0.0.1:1")
	alive := peerBank(server.URL)

	for i := 0; i < 6; i++ {
		client.Send(dead, "token-123")
	}

	// Открытый breaker мертвого адреса не блокирует переводы в живой банк
	if _, err := client.Send(alive, "token-123"); err != nil {
		t.Fatalf("живой банк заблокирован чужим breaker'ом: %v", err)
	}
}
