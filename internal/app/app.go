package app

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/shopauthsvc/internal/config"
	httpx "github.com/you/shopauthsvc/internal/http"
	"github.com/you/shopauthsvc/internal/http/handlers"
	"github.com/you/shopauthsvc/internal/http/middleware"
)

func Run(cfg *config.Config) error {
	c, err := NewContainer(cfg)
	if err != nil {
		return err
	}

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	authH := handlers.NewAuthHandlers(c.IdentitySvc, c.AccountRepo, int(cfg.RefreshTTL.Seconds()), cfg.SessionCookieSecure)
	cartH := handlers.NewCartHandlers(c.CartSvc)
	checkoutH := handlers.NewCheckoutHandlers(c.CheckoutSvc)
	orderH := handlers.NewOrderHandlers(c.OrderRepo)
	policyH := handlers.NewPolicyHandlers(c.PolicySvc)

	authMW := middleware.NewAuthMW(c.TokenSvc, c.AccountRepo)
	sessMW := middleware.NewSessionCookieMW(c.SessionStore, cfg.SessionCookieName, int(cfg.SessionTTL.Seconds()), cfg.SessionCookieSecure)
	casbinMW := middleware.NewCasbinMW(c.Casbin.E)

	r := httpx.BuildRouter(authH, cartH, checkoutH, orderH, policyH, authMW, sessMW, casbinMW)

	seedPolicies(c)

	addr := ":" + cfg.Port
	c.Logger.Info().Str("addr", addr).Msg("listening")
	return http.ListenAndServe(addr, r)
}

// seedPolicies installs defaults on an empty policy store so a fresh
// deployment has a working admin surface.
func seedPolicies(c *Container) {
	policies, _ := c.Casbin.E.GetPolicy()
	if len(policies) > 0 {
		return
	}
	c.Casbin.E.AddPolicy("role_admin", "/admin/*", "(GET|POST|PUT|DELETE)")
	c.Casbin.E.AddPolicy("role_support", "/admin/orders/:id", "GET")
	c.Casbin.E.AddPolicy("role_support", "/admin/orders/:id/status", "POST")
	_ = c.Casbin.E.SavePolicy()
	c.Logger.Info().Msg("casbin: seeded default policies")
}
