package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"interbank/config"
	"interbank/controllers"
	"interbank/database"
	"interbank/middleware"
	"interbank/services"
	"interbank/utils"

	"github.com/gorilla/mux"
)

func initSettlementScheduler(db *database.Database, cfg *config.Config, registry *services.RegistryService, signer *services.SignerService, emailService *services.EmailService) {
	// Создаем клиент для доставки конвертов банкам-получателям
	client := services.NewPeerClient()

	// Создаем планировщик расчетов
	scheduler := services.NewSettlementSchedulerService(db, db, db, registry, signer, client, emailService)

	// Запускаем планировщик
	scheduler.Start()
	log.Println("Планировщик расчетов запущен")
}

func main() {
	// Инициализируем конфигурацию
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// Инициализируем подключение к базе данных
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Ошибка подключения к базе данных: %v", err)
	}

	// Проверяем ключ подписи при старте, а не при первом переводе
	if _, err := utils.EnsurePrivateKey(cfg.Keys.PrivateKeyPath); err != nil {
		log.Fatalf("Ошибка подготовки ключа подписи: %v", err)
	}

	// Инициализируем сервисы
	emailService := services.NewEmailService(cfg)
	registry := services.NewRegistryService(db, cfg)
	signer := services.NewSignerService(cfg)
	exchange := services.NewExchangeService(cfg)
	userService := services.NewUserService(db, db, cfg)
	transactionService := services.NewTransactionService(db, db, db, db, registry, signer, exchange)

	// Запускаем планировщик расчетов
	initSettlementScheduler(db, cfg, registry, signer, emailService)

	// Создаем роутер
	router := mux.NewRouter()
	router.Use(middleware.RecoveryMiddleware)

	// Инициализируем контроллеры
	authController := controllers.NewAuthController(userService, cfg)
	accountController := controllers.NewAccountController(db, userService)
	transactionController := controllers.NewTransactionController(transactionService, signer)

	// Публичные маршруты для аутентификации
	router.HandleFunc("/api/auth/signUp", authController.SignUp).Methods("POST")
	router.HandleFunc("/api/auth/signIn", authController.SignIn).Methods("POST")

	// Публичные B2B-маршруты для банков-партнеров
	b2bLimiter := utils.NewRateLimiter(100, time.Minute) // 100 запросов в минуту
	b2b := router.PathPrefix("/transactions").Subrouter()
	b2b.Use(middleware.LoggingMiddleware)
	b2b.Use(middleware.RateLimitMiddleware(b2bLimiter))
	b2b.HandleFunc("/jwks", transactionController.JWKS).Methods("GET")
	b2b.HandleFunc("/b2b", transactionController.B2B).Methods("POST")

	// Защищенные маршруты
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.AuthMiddleware([]byte(authController.GetJWTKey())))
	protected.Use(middleware.LoggingMiddleware)

	// Маршруты для работы со счетами
	protected.HandleFunc("/accounts", accountController.CreateAccount).Methods("POST")
	protected.HandleFunc("/accounts", accountController.GetAccounts).Methods("GET")

	// Маршруты для работы с переводами
	protected.HandleFunc("/transactions", transactionController.Create).Methods("POST")
	protected.HandleFunc("/transactions", transactionController.History).Methods("GET")

	// Запускаем сервер
	port := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Сервер запущен на порту %s", port)
	if err := http.ListenAndServe(port, router); err != nil {
		log.Fatalf("Ошибка запуска сервера: %v", err)
	}
}
