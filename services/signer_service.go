package services

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"interbank/config"
	"interbank/utils"

	"github.com/golang-jwt/jwt/v5"
)

// TransactionPayload — содержимое подписанного конверта,
// которым обмениваются банки
type TransactionPayload struct {
	AccountFrom string  `json:"accountFrom"`
	AccountTo   string  `json:"accountTo"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Explanation string  `json:"explanation"`
	SenderName  string  `json:"senderName"`
}

// SignerService подписывает исходящие переводы ключом этого банка
// и проверяет подписи входящих конвертов
type SignerService struct {
	privateKeyPath string
}

// NewSignerService создает новый экземпляр SignerService
func NewSignerService(cfg *config.Config) *SignerService {
	return &SignerService{
		privateKeyPath: cfg.Keys.PrivateKeyPath,
	}
}

// Sign сериализует полезную нагрузку и возвращает компактный
// трехсегментный токен RS256. Ошибка загрузки ключа фатальна для
// попытки подписи: неподписанный перевод отправлять нельзя.
func (s *SignerService) Sign(payload TransactionPayload) (string, error) {
	key, err := utils.LoadPrivateKey(s.privateKeyPath)
	if err != nil {
		return "", fmt.Errorf("ошибка загрузки приватного ключа: %w", err)
	}

	claims := jwt.MapClaims{
		"accountFrom": payload.AccountFrom,
		"accountTo":   payload.AccountTo,
		"amount":      payload.Amount,
		"currency":    payload.Currency,
		"explanation": payload.Explanation,
		"senderName":  payload.SenderName,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи конверта: %w", err)
	}
	return signed, nil
}

// DecodePayload извлекает полезную нагрузку из конверта без проверки
// подписи. Используется только для маршрутизации (поиск банка-отправителя
// по префиксу accountFrom); перед зачислением обязателен Verify.
func (s *SignerService) DecodePayload(token string) (*TransactionPayload, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrBadEnvelope
	}

	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrBadEnvelope
	}

	var payload TransactionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ErrBadEnvelope
	}
	return &payload, nil
}

// Verify проверяет подпись конверта публичным ключом банка-отправителя
// и возвращает проверенную полезную нагрузку. Любое несоответствие —
// типизированная ошибка, не паника.
func (s *SignerService) Verify(token string, publicKeyPEM string) (*TransactionPayload, error) {
	pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("%w: некорректный публичный ключ отправителя: %v", ErrBadSignature, err)
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return pub, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if !parsed.Valid {
		return nil, ErrBadSignature
	}

	return s.DecodePayload(token)
}

// JWKS возвращает публичный ключ этого банка в формате JSON Web Key Set
// для банков-партнеров, проверяющих наши подписи
func (s *SignerService) JWKS() (map[string]interface{}, error) {
	key, err := utils.LoadPrivateKey(s.privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки приватного ключа: %w", err)
	}
	return utils.BuildJWKS(&key.PublicKey), nil
}
