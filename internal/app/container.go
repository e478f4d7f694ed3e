package app

import (
	"context"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/you/shopauthsvc/domain"
	"github.com/you/shopauthsvc/internal/config"
	"github.com/you/shopauthsvc/internal/infrastructure/auth"
	"github.com/you/shopauthsvc/internal/infrastructure/database"
	"github.com/you/shopauthsvc/internal/infrastructure/notifications"
	"github.com/you/shopauthsvc/internal/infrastructure/repositories"
	"github.com/you/shopauthsvc/internal/services"
)

// Container holds all dependencies
type Container struct {
	Config *config.Config
	Logger zerolog.Logger

	// Infrastructure
	DB          *gorm.DB
	RedisClient *redis.Client
	Casbin      *auth.CasbinService

	// Repositories and stores
	AccountRepo  domain.AccountRepository
	SessionStore domain.SessionStore
	OrderRepo    domain.OrderRepository
	Catalog      domain.ProductCatalog

	// Services
	PasswordSvc domain.PasswordService
	TokenSvc    domain.TokenService
	Mailer      domain.Mailer
	CartMerger  domain.CartMerger
	CartSvc     domain.CartService
	IdentitySvc domain.IdentityService
	CheckoutSvc domain.CheckoutService
	PolicySvc   domain.PolicyService
}

// NewContainer creates and initializes all dependencies
func NewContainer(cfg *config.Config) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: newLogger(cfg),
	}

	if err := c.initDatabase(); err != nil {
		return nil, err
	}
	if err := c.initRedis(); err != nil {
		return nil, err
	}
	c.initRepositories()
	c.initServices()

	return c, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "shopauthsvc").Logger()
	if cfg.Env != "production" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger
}

func (c *Container) initDatabase() error {
	db, err := database.Open(c.Config.DSN)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	cas, err := auth.NewCasbinService(db, c.Config.CasbinModelPath)
	if err != nil {
		return err
	}

	c.DB = db
	c.Casbin = cas
	return nil
}

func (c *Container) initRedis() error {
	c.RedisClient = database.NewRedis(c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB).Client
	return c.RedisClient.Ping(context.Background()).Err()
}

func (c *Container) initRepositories() {
	c.AccountRepo = repositories.NewAccountRepository(c.DB)
	c.SessionStore = repositories.NewSessionStore(c.RedisClient, c.Config.SessionTTL)
	c.OrderRepo = repositories.NewOrderRepository(c.DB)
	c.Catalog = repositories.NewProductRepository(c.DB)
}

func (c *Container) initServices() {
	c.PasswordSvc = auth.NewPasswordService()

	codec := auth.NewTokenCodec(c.Config.TokenSecret, c.Config.TokenIssuer)
	c.TokenSvc = services.NewTokenService(codec, c.RedisClient, c.Logger)

	c.Mailer = notifications.NewSMTPMailer(
		c.Config.SMTPHost,
		c.Config.SMTPPort,
		c.Config.SMTPUsername,
		c.Config.SMTPPassword,
		c.Config.MailFrom,
		c.Config.BaseURL,
	)

	c.CartMerger = services.NewCartMerger(c.SessionStore, c.AccountRepo, c.Logger)
	c.CartSvc = services.NewCartService(c.SessionStore, c.AccountRepo)

	c.IdentitySvc = services.NewIdentityService(
		c.AccountRepo,
		c.PasswordSvc,
		c.TokenSvc,
		c.CartMerger,
		c.Mailer,
		c.Logger,
		services.IdentityConfig{
			AccessTTL:  c.Config.AccessTTL,
			RefreshTTL: c.Config.RefreshTTL,
			VerifyTTL:  c.Config.VerifyTTL,
			ResetTTL:   c.Config.ResetTTL,
		},
	)

	c.CheckoutSvc = services.NewCheckoutService(
		c.SessionStore,
		c.AccountRepo,
		c.Catalog,
		c.OrderRepo,
		c.Logger,
	)

	c.PolicySvc = services.NewPolicyService(c.Casbin.E, c.Logger)
}
