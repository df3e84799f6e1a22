package services

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"interbank/config"
	"interbank/utils"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// RateSource — внешняя зависимость курса валют
type RateSource interface {
	Rate(from, to string) (decimal.Decimal, error)
}

// ExchangeService получает курсы валют из дневного референсного
// XML-фида ЕЦБ и рассчитывает кросс-курсы через EUR.
// Таблица кешируется на час.
type ExchangeService struct {
	feedURL string
	client  *http.Client
	ttl     time.Duration

	mu        sync.Mutex
	rates     map[string]decimal.Decimal // курс валюты к EUR
	fetchedAt time.Time
}

// NewExchangeService создает новый экземпляр ExchangeService
func NewExchangeService(cfg *config.Config) *ExchangeService {
	return &ExchangeService{
		feedURL: cfg.Exchange.FeedURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		ttl:     time.Hour,
	}
}

// Rate возвращает курс конвертации from -> to
func (s *ExchangeService) Rate(from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	rates, err := s.table()
	if err != nil {
		return decimal.Zero, &RateError{From: from, To: to, Err: err}
	}

	rateFrom, ok := rates[from]
	if !ok {
		return decimal.Zero, &RateError{From: from, To: to, Err: fmt.Errorf("неизвестная валюта %s", from)}
	}
	rateTo, ok := rates[to]
	if !ok {
		return decimal.Zero, &RateError{From: from, To: to, Err: fmt.Errorf("неизвестная валюта %s", to)}
	}

	// Кросс-курс через EUR
	return rateTo.Div(rateFrom), nil
}

// table возвращает таблицу курсов к EUR, обновляя кеш по TTL
func (s *ExchangeService) table() (map[string]decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rates != nil && time.Since(s.fetchedAt) < s.ttl {
		return s.rates, nil
	}

	resp, err := s.client.Get(s.feedURL)
	if err != nil {
		return nil, fmt.Errorf("фид курсов недоступен: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("фид курсов вернул статус %d", resp.StatusCode)
	}

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("некорректный XML фида курсов: %v", err)
	}

	rates := map[string]decimal.Decimal{
		"EUR": decimal.NewFromInt(1),
	}

	// Элементы вида <Cube currency="USD" rate="1.0876"/>
	for _, el := range doc.FindElements("//Cube[@currency]") {
		currency := el.SelectAttrValue("currency", "")
		rate, err := decimal.NewFromString(el.SelectAttrValue("rate", ""))
		if err != nil || currency == "" {
			continue
		}
		rates[currency] = rate
	}

	if len(rates) == 1 {
		return nil, fmt.Errorf("фид курсов не содержит ни одной валюты")
	}

	s.rates = rates
	s.fetchedAt = time.Now()
	utils.LogInfo("Таблица курсов обновлена: %d валют", len(rates))
	return rates, nil
}

// minorUnits возвращает число знаков минорной единицы валюты
func minorUnits(currency string) int32 {
	switch currency {
	case "JPY", "KRW", "ISK":
		return 0
	default:
		return 2
	}
}

// ConvertAmount конвертирует сумму по курсу и округляет до минорной
// единицы валюты зачисления
func ConvertAmount(amount float64, rate decimal.Decimal, currency string) float64 {
	converted := decimal.NewFromFloat(amount).Mul(rate).Round(minorUnits(currency))
	result, _ := converted.Float64()
	return result
}
