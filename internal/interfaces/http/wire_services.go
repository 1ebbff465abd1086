package http

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/orris-inc/usdtpay/internal/application/payment/fingerprint"
	paymentUsecases "github.com/orris-inc/usdtpay/internal/application/payment/usecases"
	settingApp "github.com/orris-inc/usdtpay/internal/application/setting"
	settingUsecases "github.com/orris-inc/usdtpay/internal/application/setting/usecases"
	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
	"github.com/orris-inc/usdtpay/internal/domain/setting"
	"github.com/orris-inc/usdtpay/internal/infrastructure/auth"
	"github.com/orris-inc/usdtpay/internal/infrastructure/blockchain"
	"github.com/orris-inc/usdtpay/internal/infrastructure/cache"
	"github.com/orris-inc/usdtpay/internal/infrastructure/config"
	"github.com/orris-inc/usdtpay/internal/infrastructure/export"
	"github.com/orris-inc/usdtpay/internal/infrastructure/notify"
	"github.com/orris-inc/usdtpay/internal/infrastructure/queue"
	"github.com/orris-inc/usdtpay/internal/infrastructure/ratelimit"
	"github.com/orris-inc/usdtpay/internal/infrastructure/repository"
	"github.com/orris-inc/usdtpay/internal/infrastructure/scheduler"
	"github.com/orris-inc/usdtpay/internal/interfaces/http/middleware"
	"github.com/orris-inc/usdtpay/internal/shared/biztime"
	shareddb "github.com/orris-inc/usdtpay/internal/shared/db"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

const ingestRateLimitScope = "ingest"

type repositories struct {
	orderRepo   *repository.OrderRepository
	planRepo    *repository.PlanRepository
	userRepo    *repository.UserCreditRepository
	settingRepo setting.Repository
	txManager   *shareddb.TransactionManager
}

type allUseCases struct {
	matchTransferUC  *paymentUsecases.MatchTransferUseCase
	createOrderUC    *paymentUsecases.CreateOrderUseCase
	getOrderStatusUC *paymentUsecases.GetOrderStatusUseCase
	ingestPaymentUC  *paymentUsecases.IngestPaymentUseCase
	forceCheckUC     *paymentUsecases.ForceCheckUseCase
	expireOrdersUC   *paymentUsecases.ExpireOrdersUseCase
	adminOrdersUC    *paymentUsecases.AdminOrdersUseCase
	manageSettingsUC *settingUsecases.ManageSettingsUseCase
}

// ============================================================
// Section 1: Infrastructure - Redis, Repositories, Settings, Auth
// ============================================================

func (c *Container) initInfrastructure(ctx context.Context) error {
	cfg := c.cfg
	log := c.log

	if cfg.Redis.Enabled() {
		client, err := initRedis(ctx, cfg)
		if err != nil {
			return err
		}
		c.redis = client
		log.Infow("redis connection established", "address", cfg.Redis.GetAddr())
	} else {
		log.Warnw("redis not configured, allocation reservations and ingest rate limiting are disabled")
	}

	c.repos = newRepositories(c.db, log)

	c.resolver = settingApp.NewResolver(c.repos.settingRepo, settingApp.Defaults{
		PollInterval: time.Duration(cfg.Payment.PollIntervalMs) * time.Millisecond,
		PollFloor:    time.Duration(cfg.Payment.PollFloorMs) * time.Millisecond,
	}, log.Named("settings"))

	adminJWT := auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.Issuer)
	var ingestJWT *auth.JWTService
	if cfg.Auth.IngestSecret != "" {
		ingestJWT = auth.NewJWTService(cfg.Auth.IngestSecret, cfg.Auth.JWT.Issuer)
	} else {
		log.Warnw("auth.ingest_secret is empty, POST /payments/ingest accepts unauthenticated requests")
	}
	c.authMiddleware = middleware.NewAuthMiddleware(adminJWT, ingestJWT, log)

	var limiter ratelimit.RateLimiter = ratelimit.NopRateLimiter{}
	if c.redis != nil {
		limiter = ratelimit.NewRedisRateLimiter(c.redis)
	}
	c.ingestLimiter = middleware.NewRateLimiter(limiter, ingestRateLimitScope,
		ratelimit.Limits{PerMinute: cfg.Auth.IngestRateLimit}, log)

	return nil
}

func initRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.GetAddr(), err)
	}
	return client, nil
}

func newRepositories(db *gorm.DB, log logger.Interface) *repositories {
	return &repositories{
		orderRepo:   repository.NewOrderRepository(db, log),
		planRepo:    repository.NewPlanRepository(db),
		userRepo:    repository.NewUserCreditRepository(db, log),
		settingRepo: repository.NewSystemSettingRepository(db, log),
		txManager:   shareddb.NewTransactionManager(db),
	}
}

// ============================================================
// Section 2: Payment - Use Cases, Pollers, Expiry Sweep, Queue
// ============================================================

func (c *Container) initPayment(ctx context.Context) error {
	cfg := c.cfg
	log := c.log
	repos := c.repos
	ucs := &allUseCases{}
	c.ucs = ucs

	notifier := notify.NewWebhookNotifier(c.resolver, notify.WebhookConfig{
		Timeout: cfg.Payment.RequestTimeout(),
		Retries: cfg.Payment.NotifyRetries,
	}, log.Named("notifier"))

	ucs.matchTransferUC = paymentUsecases.NewMatchTransferUseCase(
		repos.orderRepo, repos.userRepo, repos.txManager, notifier, log.Named("matcher"))

	var reserver fingerprint.Reserver
	if c.redis != nil {
		reserver = cache.NewAmountReservationStore(c.redis, cfg.Payment.ReservationTTL())
	}
	allocator := fingerprint.NewAllocator(c.resolver, repos.orderRepo, reserver, log.Named("allocator"))

	ucs.createOrderUC = paymentUsecases.NewCreateOrderUseCase(
		repos.orderRepo, repos.userRepo, repos.planRepo, allocator,
		paymentUsecases.CreateOrderConfig{
			OrderTTL:          cfg.Payment.OrderTTL(),
			AllocationRetries: cfg.Payment.AllocationRetries,
		}, log)
	ucs.getOrderStatusUC = paymentUsecases.NewGetOrderStatusUseCase(repos.orderRepo, log)
	ucs.ingestPaymentUC = paymentUsecases.NewIngestPaymentUseCase(ucs.matchTransferUC, log)
	ucs.expireOrdersUC = paymentUsecases.NewExpireOrdersUseCase(repos.orderRepo, log)
	ucs.adminOrdersUC = paymentUsecases.NewAdminOrdersUseCase(
		repos.orderRepo, ucs.matchTransferUC, export.NewOrderXLSXExporter(biztime.Location()), log)
	ucs.manageSettingsUC = settingUsecases.NewManageSettingsUseCase(repos.settingRepo, c.resolver, log)

	// Explorer clients and one poller per chain
	explorers := blockchain.NewRouter()
	explorers.Register(vo.ChainTRC20, blockchain.NewTronGridClient(
		cfg.Payment.TronGridBaseURL, cfg.Payment.RequestTimeout(), c.resolver, log.Named("trongrid")))
	explorers.Register(vo.ChainBSC, blockchain.NewBscScanClient(
		cfg.Payment.BscScanBaseURL, cfg.Payment.RequestTimeout(), c.resolver, log.Named("bscscan")))

	pollers := make([]*scheduler.PaymentPoller, 0, len(vo.AllChains()))
	for _, chain := range vo.AllChains() {
		pollers = append(pollers, scheduler.NewPaymentPoller(
			chain, explorers, ucs.matchTransferUC, c.resolver, c.resolver,
			cfg.Payment.PollConcurrency, log.Named("poller")))
	}
	c.pollerManager = scheduler.NewPollerManager(log, pollers...)
	ucs.forceCheckUC = paymentUsecases.NewForceCheckUseCase(repos.orderRepo, c.pollerManager, log)

	schedulerManager, err := scheduler.NewSchedulerManager(log.Named("scheduler"))
	if err != nil {
		return fmt.Errorf("failed to create scheduler manager: %w", err)
	}
	c.schedulerManager = schedulerManager
	if err := schedulerManager.RegisterExpiryJob(ucs.expireOrdersUC, cfg.Payment.ExpirySweepInterval()); err != nil {
		return fmt.Errorf("failed to register expiry job: %w", err)
	}

	if cfg.Queue.Enabled {
		if cfg.Queue.QueueURL == "" {
			return fmt.Errorf("queue.enabled is set but queue.queue_url is empty")
		}
		client, err := queue.NewSQSClient(ctx, &cfg.Queue)
		if err != nil {
			return err
		}
		c.transferConsumer = queue.NewTransferConsumer(client, cfg.Queue.QueueURL, ucs.ingestPaymentUC, log.Named("queue"))
	}

	return nil
}
