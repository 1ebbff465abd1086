package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	settingApp "github.com/orris-inc/usdtpay/internal/application/setting"
	"github.com/orris-inc/usdtpay/internal/infrastructure/config"
	"github.com/orris-inc/usdtpay/internal/infrastructure/queue"
	"github.com/orris-inc/usdtpay/internal/infrastructure/scheduler"
	"github.com/orris-inc/usdtpay/internal/interfaces/http/middleware"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

// Container holds infrastructure, repositories, use cases, handlers and
// background services, wires them together, and tears them down in Shutdown.
type Container struct {
	// Core infrastructure
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	redis  *redis.Client

	repos    *repositories
	resolver *settingApp.Resolver
	ucs      *allUseCases
	hdlrs    *allHandlers

	// Middlewares
	authMiddleware *middleware.AuthMiddleware
	ingestLimiter  *middleware.RateLimiter

	// Background services
	pollerManager    *scheduler.PollerManager
	schedulerManager *scheduler.SchedulerManager
	transferConsumer *queue.TransferConsumer
}

// NewContainer wires every component. Background services are built but not
// started; see StartBackground.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config, log logger.Interface) (*Container, error) {
	c := &Container{
		engine: gin.New(),
		db:     db,
		cfg:    cfg,
		log:    log,
	}

	if err := c.initInfrastructure(ctx); err != nil {
		c.Shutdown()
		return nil, err
	}
	if err := c.initPayment(ctx); err != nil {
		c.Shutdown()
		return nil, err
	}
	c.initHandlers()

	return c, nil
}

// Engine returns the gin engine with routes registered by SetupRoutes.
func (c *Container) Engine() *gin.Engine {
	return c.engine
}

// StartBackground starts pollers, the expiry sweep and, when configured, the
// transfer queue consumer.
func (c *Container) StartBackground(ctx context.Context) {
	c.pollerManager.Start(ctx)
	c.schedulerManager.Start()
	if c.transferConsumer != nil {
		c.transferConsumer.Start(ctx)
	}
}

// Shutdown stops background services and closes owned clients. Safe to call
// on a partially built container.
func (c *Container) Shutdown() {
	if c.transferConsumer != nil {
		c.transferConsumer.Stop()
	}
	if c.pollerManager != nil {
		c.pollerManager.Stop()
	}
	if c.schedulerManager != nil {
		if err := c.schedulerManager.Stop(); err != nil {
			c.log.Errorw("failed to stop scheduler manager", "error", err)
		}
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.log.Warnw("failed to close redis client", "error", err)
		}
	}
}
