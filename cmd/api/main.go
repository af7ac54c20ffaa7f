package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servicehub/internal/application/command"
	"servicehub/internal/application/query"
	"servicehub/internal/application/services"
	"servicehub/internal/config"
	"servicehub/internal/infrastructure/bus"
	"servicehub/internal/infrastructure/cache"
	"servicehub/internal/infrastructure/cloudinary"
	httpapi "servicehub/internal/infrastructure/http"
	"servicehub/internal/infrastructure/mongo"
	"servicehub/internal/infrastructure/notification"
	"servicehub/internal/infrastructure/paystack"
	"servicehub/internal/logging"
	"servicehub/internal/metrics"
	jwtutil "servicehub/pkg/jwt"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logCloser, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	metrics.Register()

	// Mongo
	mongoClient, err := mongo.NewMongoClient(&mongo.MongoConfig{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer mongoClient.Close()

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), cfg.Mongo.Timeout)
	err = mongoClient.EnsureIndexes(indexCtx)
	cancelIndex()
	if err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	logger.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	database := mongoClient.GetDatabase()
	uowFactory := mongo.NewMongoUnitOfWorkFactory(mongoClient.GetClient(), database)
	notificationRepo := mongo.NewMongoNotificationRepository(database)

	// Gateways and side services
	gateway, err := paystack.NewClient(&paystack.Config{
		SecretKey: cfg.Paystack.SecretKey,
		BaseURL:   cfg.Paystack.BaseURL,
		Timeout:   cfg.Paystack.Timeout,
	}, *logger)
	if err != nil {
		return fmt.Errorf("init paystack client: %w", err)
	}

	redisCache := cache.New(cfg.Redis, *logger)
	defer redisCache.Close()

	uploads, err := cloudinary.NewService(cfg.Cloudinary)
	if err != nil {
		return fmt.Errorf("init cloudinary: %w", err)
	}
	if uploads == nil {
		logger.Warn().Msg("cloudinary not configured, image uploads disabled")
	}

	alerter, err := notification.NewTelegramAlerter(cfg.Telegram, *logger)
	if err != nil {
		return fmt.Errorf("init telegram alerter: %w", err)
	}

	jwtManager, err := jwtutil.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTLifetime)
	if err != nil {
		return fmt.Errorf("init jwt manager: %w", err)
	}

	// Event bus and the notification fan-out behind it
	eventBus := bus.NewAsyncEventBus(*logger)
	dispatcher := notification.NewDispatcher(notificationRepo, alerter, *logger)
	dispatcher.Register(eventBus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := eventBus.Start(ctx); err != nil {
		return fmt.Errorf("start event bus: %w", err)
	}
	defer eventBus.Stop()

	// Command handlers
	registerUserHandler := command.NewRegisterUserHandler(uowFactory, eventBus, jwtManager)
	loginHandler := command.NewLoginHandler(uowFactory, eventBus, jwtManager)
	changePasswordHandler := command.NewChangePasswordHandler(uowFactory)

	createBookingHandler := command.NewCreateBookingHandler(uowFactory, eventBus)
	providerBookingHandler := command.NewProviderBookingHandler(uowFactory, eventBus)
	cancelBookingHandler := command.NewCancelBookingHandler(uowFactory, eventBus)
	confirmCompletionHandler := command.NewConfirmCompletionHandler(uowFactory, eventBus)
	submitReviewHandler := command.NewSubmitReviewHandler(uowFactory, eventBus, redisCache)

	initializePaymentHandler := command.NewInitializePaymentHandler(uowFactory, eventBus, gateway)
	verifyPaymentHandler := command.NewVerifyPaymentHandler(uowFactory, eventBus, gateway, alerter)
	processPayoutHandler := command.NewProcessPayoutHandler(uowFactory, eventBus, gateway)
	markPayoutPaidHandler := command.NewMarkPayoutPaidHandler(uowFactory, eventBus)
	settleTransferHandler := command.NewSettleTransferHandler(uowFactory, eventBus, alerter)

	registerProviderHandler := command.NewRegisterProviderHandler(uowFactory, eventBus)
	updateProviderHandler := command.NewUpdateProviderProfileHandler(uowFactory, eventBus, redisCache)
	setProviderPhotoHandler := command.NewSetProviderPhotoHandler(uowFactory, eventBus, redisCache)
	updateBankAccountHandler := command.NewUpdateBankAccountHandler(uowFactory, eventBus, gateway, redisCache)

	createServiceHandler := command.NewCreateServiceHandler(uowFactory, eventBus, redisCache)
	updateServiceHandler := command.NewUpdateServiceHandler(uowFactory, eventBus, redisCache)
	deactivateServiceHandler := command.NewDeactivateServiceHandler(uowFactory, eventBus, redisCache)

	// Query handlers
	getBookingHandler := query.NewGetBookingHandler(uowFactory)
	listClientBookingsHandler := query.NewListClientBookingsHandler(uowFactory)
	listProviderBookingsHandler := query.NewListProviderBookingsHandler(uowFactory)
	getBookingPaymentHandler := query.NewGetBookingPaymentHandler(uowFactory)

	getProviderHandler := query.NewGetProviderHandler(uowFactory, redisCache)
	listProvidersHandler := query.NewListProvidersHandler(uowFactory, redisCache)
	listProviderReviewsHandler := query.NewListProviderReviewsHandler(uowFactory)
	getServiceHandler := query.NewGetServiceHandler(uowFactory, redisCache)
	listServicesHandler := query.NewListServicesHandler(uowFactory, redisCache)
	listProviderServicesHandler := query.NewListProviderServicesHandler(uowFactory)

	listPayoutsHandler := query.NewListPayoutsHandler(uowFactory)
	listProviderPayoutsHandler := query.NewListProviderPayoutsHandler(uowFactory)
	getPayoutReceiptHandler := query.NewGetPayoutReceiptHandler(uowFactory)
	exportPayoutsHandler := query.NewExportPayoutsHandler(uowFactory)

	listNotificationsHandler := query.NewListNotificationsHandler(notificationRepo)
	countUnreadHandler := query.NewCountUnreadNotificationsHandler(notificationRepo)

	// Controllers
	authController := httpapi.NewHTTPAuthController(registerUserHandler, loginHandler, changePasswordHandler, *logger)
	bookingController := httpapi.NewHTTPBookingController(
		createBookingHandler,
		providerBookingHandler,
		cancelBookingHandler,
		confirmCompletionHandler,
		submitReviewHandler,
		getBookingHandler,
		listClientBookingsHandler,
		listProviderBookingsHandler,
		getBookingPaymentHandler,
		*logger,
	)
	paymentController := httpapi.NewHTTPPaymentController(initializePaymentHandler, verifyPaymentHandler, settleTransferHandler, gateway, *logger)
	providerController := httpapi.NewHTTPProviderController(
		registerProviderHandler,
		updateProviderHandler,
		setProviderPhotoHandler,
		updateBankAccountHandler,
		getProviderHandler,
		listProvidersHandler,
		listProviderServicesHandler,
		listProviderReviewsHandler,
		listProviderPayoutsHandler,
		getPayoutReceiptHandler,
		uploads,
		*logger,
	)
	serviceController := httpapi.NewHTTPServiceController(
		createServiceHandler,
		updateServiceHandler,
		deactivateServiceHandler,
		getServiceHandler,
		listServicesHandler,
		uploads,
		*logger,
	)
	adminController := httpapi.NewHTTPAdminController(processPayoutHandler, markPayoutPaidHandler, listPayoutsHandler, exportPayoutsHandler, *logger)
	notificationController := httpapi.NewHTTPNotificationController(listNotificationsHandler, countUnreadHandler, notificationRepo, *logger)

	router := httpapi.NewRouter(
		cfg,
		jwtManager,
		authController,
		bookingController,
		paymentController,
		providerController,
		serviceController,
		adminController,
		notificationController,
		*logger,
	)

	// Reconciler catches settlements whose webhooks never arrived
	reconciler := services.NewReconciler(uowFactory, eventBus, gateway, verifyPaymentHandler, settleTransferHandler, cfg.Reconciler, *logger)
	go reconciler.Start(ctx)
	defer reconciler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.HTTP.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.HTTP.Port).Str("env", cfg.App.Environment).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	// Let in-flight event handlers finish before the process exits.
	eventBus.Wait()
	logger.Info().Msg("server stopped")
	return nil
}
