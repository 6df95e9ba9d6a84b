// Точка входа travel-module — сервис заявок на командировки и визы.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// создаёт Keycloak-клиент, сервисный слой и API handlers, запускает
// topologymetrics и HTTP-сервер с JWT middleware и graceful shutdown.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/tayeb-bk/Stage-Ver/internal/api/handlers"
	"github.com/tayeb-bk/Stage-Ver/internal/api/middleware"
	"github.com/tayeb-bk/Stage-Ver/internal/api/openapi"
	"github.com/tayeb-bk/Stage-Ver/internal/config"
	"github.com/tayeb-bk/Stage-Ver/internal/database"
	"github.com/tayeb-bk/Stage-Ver/internal/domain/model"
	"github.com/tayeb-bk/Stage-Ver/internal/keycloak"
	"github.com/tayeb-bk/Stage-Ver/internal/repository"
	"github.com/tayeb-bk/Stage-Ver/internal/server"
	"github.com/tayeb-bk/Stage-Ver/internal/service"
)

func main() {
	// 1. Конфигурация из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Логирование
	logger := config.SetupLogger(cfg)
	logger.Info("travel-module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	if os.Getenv("TM_DEPHEALTH_GROUP") == "" {
		logger.Warn("TM_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Миграции БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. PostgreSQL (pgxpool)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// Адаптер pgxpool → *sql.DB для topologymetrics: проверка идёт через
	// общий пул и обнаруживает его исчерпание.
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. HTTP-клиент с CA Keycloak
	var httpClientCA *http.Client
	if cfg.KeycloakCACertPath != "" {
		httpClientCA, err = buildHTTPClientWithCA(cfg.KeycloakCACertPath)
		if err != nil {
			logger.Error("Ошибка загрузки CA-сертификата",
				slog.String("path", cfg.KeycloakCACertPath),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
		logger.Info("CA-сертификат загружен", slog.String("path", cfg.KeycloakCACertPath))
	}

	// 6. Keycloak Admin API клиент
	kcClient := keycloak.New(
		cfg.KeycloakURL,
		cfg.KeycloakRealm,
		cfg.KeycloakClientID,
		cfg.KeycloakClientSecret,
		httpClientCA,
		logger,
	)
	logger.Info("Keycloak клиент создан",
		slog.String("url", cfg.KeycloakURL),
		slog.String("realm", cfg.KeycloakRealm),
	)

	// 7. Repositories
	userRepo := repository.NewUserRepository(pool)
	travelRepo := repository.NewTravelRequestRepository(pool)
	visaRepo := repository.NewVisaRequestRepository(pool)
	projectRepo := repository.NewProjectRepository(pool)
	missionRepo := repository.NewMissionRepository(pool)
	passportRepo := repository.NewPassportRepository(pool)
	invoiceRepo := repository.NewInvoiceRepository(pool)

	// 8. Services
	syncCache := service.NewSyncCache(cfg.SyncCacheSize, cfg.SyncCacheTTL)
	identity := service.NewIdentitySynchronizer(userRepo, syncCache, logger)

	travelFlow := service.NewRequestWorkflow[*model.TravelRequest]("travel", travelRepo, cfg.WorkflowStrict, logger)
	visaFlow := service.NewRequestWorkflow[*model.VisaRequest]("visa", visaRepo, cfg.WorkflowStrict, logger)

	svc := handlers.Services{
		TravelRequests: service.NewTravelRequestService(travelFlow, travelRepo, projectRepo, missionRepo, cfg.ValidationRoles, logger),
		VisaRequests:   service.NewVisaRequestService(visaFlow, visaRepo, passportRepo, cfg.ValidationRoles, logger),
		TravelFlow:     travelFlow,
		VisaFlow:       visaFlow,
		Projects:       service.NewProjectService(projectRepo, cfg.ProjectWriteRoles, logger),
		Missions:       service.NewMissionService(missionRepo, projectRepo, logger),
		Passports:      service.NewPassportService(passportRepo, logger),
		Invoices: service.NewInvoiceService(
			invoiceRepo, travelRepo, userRepo,
			cfg.InvoiceRoles, cfg.InvoiceCurrency,
			logger,
		),
		Users: service.NewUserService(userRepo, kcClient, identity, cfg.UserAdminRoles, logger),
	}

	// 9. Readiness checkers (PostgreSQL, JWKS, Admin API)
	pgChecker := database.NewReadinessChecker(pool)
	kcChecker, err := middleware.NewKeycloakReadinessChecker(cfg.JWTJWKSURL, cfg.KeycloakCACertPath, cfg.JWKSClientTimeout)
	if err != nil {
		logger.Error("Ошибка создания Keycloak readiness checker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	healthHandler := handlers.NewHealthHandler(pgChecker, kcChecker, kcClient)
	apiHandler := handlers.NewAPIHandler(healthHandler, svc, logger)

	// 10. JWT middleware с синхронизацией пользователей
	jwtAuth, err := middleware.NewJWTAuth(
		cfg.JWTJWKSURL,
		cfg.KeycloakCACertPath,
		cfg.JWTIssuer,
		identity,
		cfg.JWKSClientTimeout,
		cfg.JWKSRefreshInterval,
		cfg.JWTLeeway,
		logger,
	)
	if err != nil {
		logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("JWT middleware инициализирован",
		slog.String("jwks_url", cfg.JWTJWKSURL),
		slog.String("issuer", cfg.JWTIssuer),
	)

	// 11. Проверка запросов по OpenAPI (TM_OPENAPI_VALIDATION)
	opts := server.Options{JWTAuth: jwtAuth}
	if cfg.OpenAPIValidation {
		doc, err := openapi.Load(ctx)
		if err != nil {
			logger.Error("Ошибка загрузки OpenAPI", slog.String("error", err.Error()))
			os.Exit(1)
		}
		opts.Validator, err = middleware.NewRequestValidator(doc, logger)
		if err != nil {
			logger.Error("Ошибка создания OpenAPI-валидатора", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Проверка запросов по OpenAPI включена")
	}

	// 12. topologymetrics — мониторинг зависимостей (PostgreSQL + Keycloak)
	dephealthSvc, dephealthErr := service.NewDephealthService(service.DephealthConfig{
		ServiceID:     config.ServiceName,
		Group:         cfg.DephealthGroup,
		DB:            pgDB,
		PostgresURL:   cfg.DatabaseURL("postgres"),
		JWKSURL:       cfg.JWTJWKSURL,
		CheckInterval: cfg.DephealthCheckInterval,
	}, logger)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics",
			slog.String("error", startErr.Error()),
		)
		dephealthSvc = nil
	} else {
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 13. HTTP-сервер
	srv := server.New(cfg, logger, apiHandler, opts)
	if err := srv.Run(ctx); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 14. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	logger.Info("travel-module остановлен")
}

// buildHTTPClientWithCA создаёт HTTP-клиент с дополнительным CA-сертификатом.
func buildHTTPClientWithCA(caCertPath string) (*http.Client, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, err
	}

	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	pool.AppendCertsFromPEM(caCert)

	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				RootCAs:    pool,
				MinVersion: tls.VersionTLS12,
			},
		},
	}, nil
}
