package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	addStudentHandler "github.com/sparkedu/spark-scheduler/internal/api/handlers/add_student"
	bulkSetAvailabilityHandler "github.com/sparkedu/spark-scheduler/internal/api/handlers/bulk_set_availability"
	cancelBookingHandler "github.com/sparkedu/spark-scheduler/internal/api/handlers/cancel_booking"
	completeBookingHandler "github.com/sparkedu/spark-scheduler/internal/api/handlers/complete_booking"
	confirmBookingHandler "github.com/sparkedu/spark-scheduler/internal/api/handlers/confirm_booking"
	createBookingHandler "github.com/sparkedu/spark-scheduler/internal/api/handlers/create_booking"
	createSlotHandler "github.com/sparkedu/spark-scheduler/internal/api/handlers/create_slot"
	deleteSlotHandler "github.com/sparkedu/spark-scheduler/internal/api/handlers/delete_slot"
	generateAvailabilityHandler "github.com/sparkedu/spark-scheduler/internal/api/handlers/generate_availability"
	getBookingHandler "github.com/sparkedu/spark-scheduler/internal/api/handlers/get_booking"
	getProgramBookingsHandler "github.com/sparkedu/spark-scheduler/internal/api/handlers/get_program_bookings"
	getProgramSlotsHandler "github.com/sparkedu/spark-scheduler/internal/api/handlers/get_program_slots"
	getProgramStatisticsHandler "github.com/sparkedu/spark-scheduler/internal/api/handlers/get_program_statistics"
	getSchoolBookingsHandler "github.com/sparkedu/spark-scheduler/internal/api/handlers/get_school_bookings"
	recordPaymentHandler "github.com/sparkedu/spark-scheduler/internal/api/handlers/record_payment"
	removeStudentHandler "github.com/sparkedu/spark-scheduler/internal/api/handlers/remove_student"
	updateSlotHandler "github.com/sparkedu/spark-scheduler/internal/api/handlers/update_slot"
	"github.com/sparkedu/spark-scheduler/internal/api/middleware"
	"github.com/sparkedu/spark-scheduler/internal/config"
	"github.com/sparkedu/spark-scheduler/internal/infra/cache"
	"github.com/sparkedu/spark-scheduler/internal/infra/migrate"
	bookingRepo "github.com/sparkedu/spark-scheduler/internal/infra/storage/booking"
	slotRepo "github.com/sparkedu/spark-scheduler/internal/infra/storage/slot"
	"github.com/sparkedu/spark-scheduler/internal/integrations/notifier"
	programServiceClient "github.com/sparkedu/spark-scheduler/internal/integrations/programdirectory"
	bookingsService "github.com/sparkedu/spark-scheduler/internal/service/bookings"
	slotsService "github.com/sparkedu/spark-scheduler/internal/service/slots"
	statisticsService "github.com/sparkedu/spark-scheduler/internal/service/statistics"
	cancelBookingUC "github.com/sparkedu/spark-scheduler/internal/usecase/cancel_booking"
	confirmBookingUC "github.com/sparkedu/spark-scheduler/internal/usecase/confirm_booking"
	createBookingUC "github.com/sparkedu/spark-scheduler/internal/usecase/create_booking"
	generateAvailabilityUC "github.com/sparkedu/spark-scheduler/internal/usecase/generate_availability"
	"github.com/sparkedu/spark-scheduler/pkg/dbmetrics"
	"github.com/sparkedu/spark-scheduler/pkg/logger"
	"github.com/sparkedu/spark-scheduler/pkg/metrics"
	"github.com/sparkedu/spark-scheduler/pkg/simpletxmanager"
	"github.com/sparkedu/spark-scheduler/pkg/txmanager"
)

const migrationsDir = "migrations"

func main() {
	// .env переопределяет секреты конфигурации, файл опционален
	_ = godotenv.Load()

	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting spark-scheduler...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Применяем миграции
	if err := migrate.Up(context.Background(), db, migrationsDir); err != nil {
		log.Fatal("Failed to apply migrations: %v", err)
	}
	if version, err := migrate.Version(context.Background(), db); err == nil {
		log.Info("Database migrated to version %d", version)
	}

	// Клиент каталога программ
	programClient := programServiceClient.NewClient(
		cfg.ProgramService.URL,
		time.Duration(cfg.ProgramService.Timeout)*time.Second,
		log,
	)
	log.Info("Program directory client initialized (url=%s, timeout=%ds)",
		cfg.ProgramService.URL, cfg.ProgramService.Timeout)

	// Публикация событий бронирования (если включена)
	var publisher *notifier.Publisher
	if cfg.RabbitMQ.Enabled {
		publisher, err = notifier.New(cfg.RabbitMQ.URL, log)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ: %v", err)
		}
		log.Info("Booking event publisher connected")
	} else {
		publisher = notifier.NewDisabled(log)
		log.Info("Booking event publisher disabled")
	}
	defer publisher.Close()

	// Кэш статистики (если включен)
	var statsCache statisticsService.Cache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedis(
			cfg.Redis.Addr,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.TTL)*time.Second,
		)
		if err != nil {
			log.Fatal("Failed to connect to Redis: %v", err)
		}
		defer redisCache.Close()
		statsCache = redisCache
		log.Info("Statistics cache connected (addr=%s, ttl=%ds)", cfg.Redis.Addr, cfg.Redis.TTL)
	}

	// Инициализируем репозитории и транзакционный менеджер (с метриками или без)
	var (
		slotRepository    *slotRepo.Repository
		bookingRepository *bookingRepo.Repository
	)

	type TxManager interface {
		Do(ctx context.Context, fn func(ctx context.Context) error) error
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		slotRepository = slotRepo.NewRepository(wrappedDB)
		bookingRepository = bookingRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		slotRepository = slotRepo.NewRepository(db)
		bookingRepository = bookingRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Инициализируем сервисы
	slotSvc := slotsService.NewService(slotRepository, programClient, log)
	statisticsSvc := statisticsService.NewService(slotRepository, statsCache, log)
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		programClient,
		publisher,
		txMgr,
		&bookingsService.RealTimeProvider{},
		log,
	)

	// Инициализируем use cases
	generateAvailabilityUseCase := generateAvailabilityUC.NewUseCase(slotRepository, programClient, txMgr, log)
	createBookingUseCase := createBookingUC.NewUseCase(bookingRepository, programClient, publisher, txMgr, log)
	confirmBookingUseCase := confirmBookingUC.NewUseCase(
		bookingRepository,
		slotRepository,
		programClient,
		publisher,
		txMgr,
		cfg.Generation.DefaultSlotCapacity,
		log,
	)
	cancelBookingUseCase := cancelBookingUC.NewUseCase(bookingRepository, slotRepository, programClient, publisher, txMgr, log)

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	confirmBooking := confirmBookingHandler.NewHandler(confirmBookingUseCase, log)
	cancelBooking := cancelBookingHandler.NewHandler(cancelBookingUseCase, log)
	completeBooking := completeBookingHandler.NewHandler(bookingSvc, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	addStudent := addStudentHandler.NewHandler(bookingSvc, log)
	removeStudent := removeStudentHandler.NewHandler(bookingSvc, log)
	recordPayment := recordPaymentHandler.NewHandler(bookingSvc, log)
	getSchoolBookings := getSchoolBookingsHandler.NewHandler(bookingSvc, log)
	getProgramBookings := getProgramBookingsHandler.NewHandler(bookingSvc, log)
	generateAvailability := generateAvailabilityHandler.NewHandler(generateAvailabilityUseCase, log)
	createSlot := createSlotHandler.NewHandler(slotSvc, log)
	updateSlot := updateSlotHandler.NewHandler(slotSvc, log)
	deleteSlot := deleteSlotHandler.NewHandler(slotSvc, log)
	getProgramSlots := getProgramSlotsHandler.NewHandler(slotSvc, log)
	bulkSetAvailability := bulkSetAvailabilityHandler.NewHandler(slotSvc, log)
	getProgramStatistics := getProgramStatisticsHandler.NewHandler(statisticsSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware и endpoint (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Просмотр слотов доступности программы
	api.HandleFunc("/programs/{programId}/slots", getProgramSlots.Handle).Methods(http.MethodGet)

	// Статистика утилизации слотов программы
	api.HandleFunc("/programs/{programId}/statistics", getProgramStatistics.Handle).Methods(http.MethodGet)

	// Отметка об оплате (внутренний эндпоинт платежного сервиса)
	api.HandleFunc("/bookings/{bookingId}/payment-settled", recordPayment.Handle).Methods(http.MethodPost)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/confirm", confirmBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/complete", completeBooking.Handle).Methods(http.MethodPost)

	// --- Состав учеников ---
	protected.HandleFunc("/bookings/{bookingId}/students", addStudent.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}/students/{studentId}", removeStudent.Handle).Methods(http.MethodDelete)

	// --- Списки бронирований ---
	protected.HandleFunc("/schools/{schoolId}/bookings", getSchoolBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/programs/{programId}/bookings", getProgramBookings.Handle).Methods(http.MethodGet)

	// --- Управление слотами (для операторов программ) ---
	protected.HandleFunc("/programs/{programId}/slots/generate", generateAvailability.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/programs/{programId}/slots", createSlot.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/slots/bulk-availability", bulkSetAvailability.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/slots/{slotId}", updateSlot.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/slots/{slotId}", deleteSlot.Handle).Methods(http.MethodDelete)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
