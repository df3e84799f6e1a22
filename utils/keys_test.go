package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsurePrivateKeyGeneratesAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "private.key")

	// Первый запуск: ключа нет, генерируется новый
	generated, err := EnsurePrivateKey(path)
	if err != nil {
		t.Fatalf("EnsurePrivateKey вернул ошибку: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("ключ не записан на диск: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("ключ должен иметь права 0600, получено %v", info.Mode().Perm())
	}

	// Повторный запуск: загружается тот же ключ
	loaded, err := EnsurePrivateKey(path)
	if err != nil {
		t.Fatalf("повторный EnsurePrivateKey вернул ошибку: %v", err)
	}
	if generated.N.Cmp(loaded.N) != 0 {
		t.Error("повторный запуск должен загружать существующий ключ, а не генерировать новый")
	}
}

func TestLoadPrivateKeyMissingFile(t *testing.T) {
	if _, err := LoadPrivateKey("/nonexistent/private.key"); err == nil {
		t.Error("ожидалась ошибка для отсутствующего файла")
	}
}

func TestLoadPrivateKeyGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.key")
	if err := os.WriteFile(path, []byte("не PEM вовсе"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPrivateKey(path); err == nil {
		t.Error("ожидалась ошибка для некорректного PEM")
	}
}

func TestPublicKeyToPEMRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey(filepath.Join(t.TempDir(), "private.key"))
	if err != nil {
		t.Fatalf("GeneratePrivateKey вернул ошибку: %v", err)
	}

	pem, err := PublicKeyToPEM(&key.PublicKey)
	if err != nil {
		t.Fatalf("PublicKeyToPEM вернул ошибку: %v", err)
	}
	if pem == "" || pem[:len("-----BEGIN PUBLIC KEY-----")] != "-----BEGIN PUBLIC KEY-----" {
		t.Errorf("ожидался PEM-блок публичного ключа, получено: %q", pem)
	}
}

func TestBuildJWKS(t *testing.T) {
	key, err := GeneratePrivateKey(filepath.Join(t.TempDir(), "private.key"))
	if err != nil {
		t.Fatalf("GeneratePrivateKey вернул ошибку: %v", err)
	}

	jwks := BuildJWKS(&key.PublicKey)
	keys, ok := jwks["keys"].([]map[string]interface{})
	if !ok || len(keys) != 1 {
		t.Fatalf("ожидался один ключ, получено: %+v", jwks)
	}

	jwk := keys[0]
	if jwk["kty"] != "RSA" || jwk["use"] != "sig" || jwk["alg"] != "RS256" {
		t.Errorf("некорректные атрибуты ключа: %+v", jwk)
	}
	if n, _ := jwk["n"].(string); n == "" {
		t.Error("JWKS не содержит модуль n")
	}
	if e, _ := jwk["e"].(string); e == "" {
		t.Error("JWKS не содержит экспоненту e")
	}
}
