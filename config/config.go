package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config представляет конфигурацию приложения
type Config struct {
	Server struct {
		Port int
	}
	DB struct {
		Host     string
		Port     int
		User     string
		Password string
		DBName   string
	}
	JWT struct {
		SecretKey string
		ExpiresIn int // в часах
	}
	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	Bank struct {
		Name   string
		Prefix string // трехсимвольный префикс этого банка
	}
	CentralBank struct {
		URL    string // адрес центрального реестра банков
		APIKey string // общий API-ключ для запросов к реестру
	}
	Keys struct {
		PrivateKeyPath string // приватный ключ RSA для подписи переводов
	}
	Exchange struct {
		FeedURL string // XML-фид курсов валют
	}
}

// NewConfig создает новый экземпляр конфигурации
func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Настройки сервера
	v.SetDefault("server.port", 8080)

	// Настройки базы данных
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "bank_db")

	// Настройки JWT
	v.SetDefault("jwt.secret.key", "your-secret-key-here")
	v.SetDefault("jwt.expires.in", 24)

	// Настройки SMTP
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "your-email@gmail.com")
	v.SetDefault("smtp.password", "your-app-password")
	v.SetDefault("smtp.from", "your-email@gmail.com")

	// Идентификация банка
	v.SetDefault("bank.name", "Go White Bank")
	v.SetDefault("bank.prefix", "")

	// Центральный реестр банков
	v.SetDefault("central.bank.url", "")
	v.SetDefault("central.bank.apikey", "")

	// Ключи подписи
	v.SetDefault("private.key.path", "private.key")

	// Фид курсов валют (дневной референсный курс ЕЦБ)
	v.SetDefault("exchange.feed.url", "https://www.ecb.europa.eu/stats/eurofxref/eurofxref-daily.xml")

	cfg := &Config{}
	cfg.Server.Port = v.GetInt("server.port")

	cfg.DB.Host = v.GetString("db.host")
	cfg.DB.Port = v.GetInt("db.port")
	cfg.DB.User = v.GetString("db.user")
	cfg.DB.Password = v.GetString("db.password")
	cfg.DB.DBName = v.GetString("db.name")

	cfg.JWT.SecretKey = v.GetString("jwt.secret.key")
	cfg.JWT.ExpiresIn = v.GetInt("jwt.expires.in")

	cfg.SMTP.Host = v.GetString("smtp.host")
	cfg.SMTP.Port = v.GetInt("smtp.port")
	cfg.SMTP.Username = v.GetString("smtp.username")
	cfg.SMTP.Password = v.GetString("smtp.password")
	cfg.SMTP.From = v.GetString("smtp.from")

	cfg.Bank.Name = v.GetString("bank.name")
	cfg.Bank.Prefix = v.GetString("bank.prefix")

	cfg.CentralBank.URL = v.GetString("central.bank.url")
	cfg.CentralBank.APIKey = v.GetString("central.bank.apikey")

	cfg.Keys.PrivateKeyPath = v.GetString("private.key.path")

	cfg.Exchange.FeedURL = v.GetString("exchange.feed.url")

	// Без префикса банка невозможно ни сгенерировать номер счета,
	// ни смаршрутизировать перевод
	if len(cfg.Bank.Prefix) != 3 {
		return nil, errors.New("BANK_PREFIX должен состоять ровно из 3 символов")
	}

	return cfg, nil
}
