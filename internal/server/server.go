// Package server assembles the HTTP API: the gin router, CORS, per-route
// permissions, rate limiting, request logging and tracing.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ukydev/autoserve/internal/config"
	"github.com/ukydev/autoserve/internal/handlers"
	"github.com/ukydev/autoserve/internal/middleware"
	"github.com/ukydev/autoserve/internal/models"
	"github.com/ukydev/autoserve/internal/telemetry"
)

// Handlers groups the endpoint handlers mounted by the router.
type Handlers struct {
	Auth          *handlers.AuthHandler
	JobCards      *handlers.JobCardHandler
	Inventory     *handlers.InventoryHandler
	Notifications *handlers.NotificationHandler
}

// Router builds the API routes.
type Router struct {
	cfg     config.Config
	auth    *middleware.AuthMiddleware
	limiter middleware.Limiter
	h       Handlers
}

// New returns a Router. A nil limiter disables rate limiting of the auth routes.
func New(cfg config.Config, auth *middleware.AuthMiddleware, limiter middleware.Limiter, h Handlers) *Router {
	return &Router{cfg: cfg, auth: auth, limiter: limiter, h: h}
}

// Handler returns the complete HTTP handler, instrumented and request-logged.
func (rt *Router) Handler() http.Handler {
	return telemetry.Handler(middleware.RequestLogger(rt.Engine()), rt.cfg.ServiceName)
}

// Engine returns the bare gin engine with every route registered.
func (rt *Router) Engine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), cors.New(corsConfig(rt.cfg.CORSOrigins)))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := engine.Group("/api/auth")
	{
		authGroup.POST("/register", rt.public(rt.h.Auth.Register))
		authGroup.POST("/login", rt.public(rt.h.Auth.Login))
	}

	users := engine.Group("/api/users")
	{
		users.GET("/profile", rt.authenticated(rt.h.Auth.GetProfile))
		users.PUT("/profile", rt.authenticated(rt.h.Auth.UpdateProfile))
		users.GET("/technicians", rt.allow(models.ActionViewTechnicians, rt.h.Auth.Technicians))
	}

	jobCards := engine.Group("/api/jobcards")
	{
		jobCards.GET("", rt.allow(models.ActionViewJobCards, rt.h.JobCards.List))
		jobCards.POST("", rt.allow(models.ActionCreateJobCard, rt.h.JobCards.Create))
		jobCards.GET("/:id", rt.allow(models.ActionViewJobCards, rt.h.JobCards.Get))
		jobCards.PUT("/:id", rt.allow(models.ActionUpdateJobCard, rt.h.JobCards.Update))
		jobCards.DELETE("/:id", rt.allow(models.ActionDeleteJobCard, rt.h.JobCards.Delete))

		jobCards.POST("/:id/billing/calculate", rt.allow(models.ActionEditBilling, rt.h.JobCards.CalculateBill))
		jobCards.PUT("/:id/billing", rt.allow(models.ActionEditBilling, rt.h.JobCards.UpdateBilling))
		jobCards.GET("/:id/invoice", rt.allow(models.ActionViewInvoice, rt.h.JobCards.Invoice))
		jobCards.PATCH("/:id/payment-status", rt.allow(models.ActionUpdatePayment, rt.h.JobCards.UpdatePaymentStatus))
	}

	notifications := engine.Group("/api/notifications")
	{
		notifications.GET("", rt.allow(models.ActionViewNotification, rt.h.Notifications.List))
		notifications.PATCH("/read-all", rt.allow(models.ActionViewNotification, rt.h.Notifications.MarkAllRead))
		notifications.PATCH("/:id/read", rt.allow(models.ActionViewNotification, rt.h.Notifications.MarkRead))
		notifications.DELETE("/:id", rt.allow(models.ActionViewNotification, rt.h.Notifications.Delete))
	}

	inventory := engine.Group("/api/inventory")
	{
		inventory.GET("/search", rt.allow(models.ActionViewInventory, rt.h.Inventory.Search))
		inventory.GET("/parts/:partNumber", rt.allow(models.ActionViewInventory, rt.h.Inventory.Part))
		inventory.GET("/stock/:partNumber", rt.allow(models.ActionViewInventory, rt.h.Inventory.Stock))
		inventory.GET("/price/:partNumber", rt.allow(models.ActionViewInventory, rt.h.Inventory.Price))
		inventory.GET("/categories", rt.allow(models.ActionViewInventory, rt.h.Inventory.Categories))
		inventory.GET("/category/:category", rt.allow(models.ActionViewInventory, rt.h.Inventory.PartsByCategory))

		inventory.GET("", rt.allow(models.ActionViewInventory, rt.h.Inventory.Items))
		inventory.GET("/items/:partNumber", rt.allow(models.ActionViewInventory, rt.h.Inventory.ItemByPartNumber))
		inventory.POST("", rt.allow(models.ActionManageInventory, rt.h.Inventory.CreateItem))
		inventory.PUT("/:id", rt.allow(models.ActionManageInventory, rt.h.Inventory.UpdateItem))
		inventory.DELETE("/:id", rt.allow(models.ActionManageInventory, rt.h.Inventory.DeleteItem))
		inventory.PATCH("/:id/stock", rt.allow(models.ActionManageInventory, rt.h.Inventory.UpdateStock))
	}

	return engine
}

// public mounts an unauthenticated, rate-limited endpoint.
func (rt *Router) public(fn http.HandlerFunc) gin.HandlerFunc {
	var h http.Handler = fn
	if rt.limiter != nil {
		h = middleware.RateLimit(rt.limiter)(h)
	}
	return wrap(h)
}

// authenticated mounts an endpoint open to any signed-in user.
func (rt *Router) authenticated(fn http.HandlerFunc) gin.HandlerFunc {
	return wrap(rt.auth.Authenticate(fn))
}

// allow mounts an endpoint guarded by a single policy action.
func (rt *Router) allow(action models.Action, fn http.HandlerFunc) gin.HandlerFunc {
	return wrap(rt.auth.Authenticate(rt.auth.RequirePermission(action)(fn)))
}

// wrap adapts a net/http handler to gin, exposing route params through PathValue.
func wrap(h http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, p := range c.Params {
			c.Request.SetPathValue(p.Key, p.Value)
		}
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
