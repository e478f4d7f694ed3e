package httpx

import (
	"github.com/gin-gonic/gin"

	"github.com/you/shopauthsvc/internal/http/handlers"
	"github.com/you/shopauthsvc/internal/http/middleware"
)

func BuildRouter(
	ah *handlers.AuthHandlers,
	ch *handlers.CartHandlers,
	kh *handlers.CheckoutHandlers,
	oh *handlers.OrderHandlers,
	ph *handlers.PolicyHandlers,
	authmw *middleware.AuthMW,
	sessmw *middleware.SessionCookieMW,
	cb *middleware.CasbinMW,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	auth := r.Group("/auth").Use(sessmw.EnsureSession())
	auth.POST("/register", ah.Register)
	auth.POST("/login", ah.Login)
	auth.POST("/verify-email", ah.VerifyEmail)
	auth.POST("/resend-verification", ah.ResendVerification)
	auth.POST("/refresh", ah.Refresh)
	auth.POST("/password-reset/request", ah.RequestPasswordReset)
	auth.POST("/password-reset/confirm", ah.ConfirmPasswordReset)
	auth.POST("/logout", ah.Logout)

	// Cart and checkout serve guests and logged-in accounts through the
	// same routes; owner resolution prefers the access token.
	cart := r.Group("/cart").Use(sessmw.EnsureSession(), authmw.OptionalAuth())
	cart.GET("", ch.Get)
	cart.POST("/items", ch.AddItem)
	cart.PUT("/items/:ref", ch.UpdateItem)
	cart.DELETE("/items/:ref", ch.RemoveItem)

	r.POST("/checkout", sessmw.EnsureSession(), authmw.OptionalAuth(), kh.Checkout)

	v := r.Group("/auth").Use(authmw.RequireAuth())
	v.GET("/me", ah.Me)
	v.POST("/logout-all", ah.LogoutAll)

	adm := r.Group("/admin").Use(authmw.RequireAuth(), cb.Enforce())
	adm.GET("/policies", ph.List)
	adm.POST("/policies", ph.Add)
	adm.DELETE("/policies", ph.Remove)
	adm.GET("/orders/:id", oh.Get)
	adm.POST("/orders/:id/status", oh.UpdateStatus)

	return r
}
