package services

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func testPayload() TransactionPayload {
	return TransactionPayload{
		AccountFrom: "abc123456789",
		AccountTo:   "xyz987654321",
		Amount:      150.50,
		Currency:    "EUR",
		Explanation: "Оплата по договору",
		SenderName:  "Иван Петров",
	}
}

func TestSignAndVerify(t *testing.T) {
	signer, publicPEM := newTestSigner(t)
	payload := testPayload()

	token, err := signer.Sign(payload)
	if err != nil {
		t.Fatalf("Sign вернул ошибку: %v", err)
	}
	if len(strings.Split(token, ".")) != 3 {
		t.Fatalf("ожидался компактный трехсегментный токен, получено: %s", token)
	}

	verified, err := signer.Verify(token, publicPEM)
	if err != nil {
		t.Fatalf("Verify вернул ошибку: %v", err)
	}
	if !reflect.DeepEqual(*verified, payload) {
		t.Errorf("полезная нагрузка изменилась: ожидалось %+v, получено %+v", payload, *verified)
	}
}

func TestVerifyTamperedPayload(t *testing.T) {
	signer, publicPEM := newTestSigner(t)

	token, err := signer.Sign(testPayload())
	if err != nil {
		t.Fatalf("Sign вернул ошибку: %v", err)
	}

	// Подменяем сегмент полезной нагрузки, оставляя подпись прежней
	forged := testPayload()
	forged.Amount = 999999
	forgedToken, err := signer.Sign(forged)
	if err != nil {
		t.Fatalf("Sign вернул ошибку: %v", err)
	}
	parts := strings.Split(token, ".")
	forgedParts := strings.Split(forgedToken, ".")
	tampered := parts[0] + "." + forgedParts[1] + "." + parts[2]

	if _, err := signer.Verify(tampered, publicPEM); !errors.Is(err, ErrBadSignature) {
		t.Errorf("ожидалась ErrBadSignature для подмененной нагрузки, получено: %v", err)
	}
}

func TestVerifyWrongKey(t *testing.T) {
	signer, _ := newTestSigner(t)
	_, otherPEM := newTestSigner(t)

	token, err := signer.Sign(testPayload())
	if err != nil {
		t.Fatalf("Sign вернул ошибку: %v", err)
	}

	if _, err := signer.Verify(token, otherPEM); !errors.Is(err, ErrBadSignature) {
		t.Errorf("ожидалась ErrBadSignature для чужого ключа, получено: %v", err)
	}
}

func TestVerifyGarbagePublicKey(t *testing.T) {
	signer, _ := newTestSigner(t)

	token, err := signer.Sign(testPayload())
	if err != nil {
		t.Fatalf("Sign вернул ошибку: %v", err)
	}

	if _, err := signer.Verify(token, "не ключ вовсе"); !errors.Is(err, ErrBadSignature) {
		t.Errorf("ожидалась ErrBadSignature для некорректного PEM, получено: %v", err)
	}
}

func TestDecodePayloadMalformed(t *testing.T) {
	signer, _ := newTestSigner(t)

	cases := []string{
		"",
		"однасекция",
		"две.секции",
		"a.b.c.d",
		"ok.???не base64???.ok",
	}
	for _, token := range cases {
		if _, err := signer.DecodePayload(token); !errors.Is(err, ErrBadEnvelope) {
			t.Errorf("DecodePayload(%q): ожидалась ErrBadEnvelope, получено: %v", token, err)
		}
	}
}

func TestDecodePayloadRoundTrip(t *testing.T) {
	signer, _ := newTestSigner(t)
	payload := testPayload()

	token, err := signer.Sign(payload)
	if err != nil {
		t.Fatalf("Sign вернул ошибку: %v", err)
	}

	decoded, err := signer.DecodePayload(token)
	if err != nil {
		t.Fatalf("DecodePayload вернул ошибку: %v", err)
	}
	if decoded.AccountFrom != payload.AccountFrom || decoded.Amount != payload.Amount {
		t.Errorf("декодированная нагрузка не совпадает: %+v", decoded)
	}
}

func TestSignMissingKey(t *testing.T) {
	signer := &SignerService{privateKeyPath: "/nonexistent/private.key"}

	if _, err := signer.Sign(testPayload()); err == nil {
		t.Error("ожидалась ошибка при отсутствующем ключе подписи")
	}
}

func TestJWKSContainsKeyMaterial(t *testing.T) {
	signer, _ := newTestSigner(t)

	jwks, err := signer.JWKS()
	if err != nil {
		t.Fatalf("JWKS вернул ошибку: %v", err)
	}

	keys, ok := jwks["keys"].([]map[string]interface{})
	if !ok || len(keys) != 1 {
		t.Fatalf("ожидался один ключ в JWKS, получено: %+v", jwks)
	}
	key := keys[0]
	if key["kty"] != "RSA" || key["alg"] != "RS256" {
		t.Errorf("некорректные атрибуты ключа: %+v", key)
	}
	if key["n"] == "" || key["e"] == "" {
		t.Errorf("JWKS не содержит модуль или экспоненту: %+v", key)
	}
}
