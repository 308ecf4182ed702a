package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"

	"storefront/internal/handler/api"
	"storefront/internal/handler/middleware"
	"storefront/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type RouterParams struct {
	fx.In

	Engine          *gin.Engine
	Config          config.Config
	Logger          *middleware.Logger
	AuthMiddleware  *middleware.AuthMiddleware
	AuthHandler     *api.AuthHandler
	CartHandler     *api.CartHandler
	CheckoutHandler *api.CheckoutHandler
	OrderHandler    *api.OrderHandler
}

func NewRouter(p RouterParams) {
	setupMiddleware(p.Engine, p.Config, p.Logger)
	setupRoutes(p)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *middleware.Logger) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(logger))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(p RouterParams) {
	engine := p.Engine
	requireAuth := p.AuthMiddleware.RequireAuth()

	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := engine.Group("/api")
	{
		auth := apiGroup.Group("/auth")
		{
			addRoutes(auth, []route{
				{Method: http.MethodPost, Path: "/login", Handler: p.AuthHandler.Login},
				{Method: http.MethodPost, Path: "/refresh", Handler: p.AuthHandler.Refresh},
				{Method: http.MethodPost, Path: "/logout", Handler: p.AuthHandler.Logout, Mw: []gin.HandlerFunc{requireAuth}},
				{Method: http.MethodGet, Path: "/me", Handler: p.AuthHandler.Me, Mw: []gin.HandlerFunc{requireAuth}},
			})
		}

		cart := apiGroup.Group("/cart")
		cart.Use(requireAuth)
		{
			addRoutes(cart, []route{
				{Method: http.MethodGet, Path: "", Handler: p.CartHandler.Get},
				{Method: http.MethodPost, Path: "/refresh", Handler: p.CartHandler.Refresh},
				{Method: http.MethodPost, Path: "/lines", Handler: p.CartHandler.AddLine},
				{Method: http.MethodPatch, Path: "/lines/:id", Handler: p.CartHandler.UpdateLine},
				{Method: http.MethodDelete, Path: "/lines/:id", Handler: p.CartHandler.RemoveLine},
				{Method: http.MethodGet, Path: "/products/:id", Handler: p.CartHandler.ProductStatus},
			})
		}

		checkout := apiGroup.Group("/checkout")
		checkout.Use(requireAuth)
		{
			addRoutes(checkout, []route{
				{Method: http.MethodPost, Path: "", Handler: p.CheckoutHandler.Checkout},
				{Method: http.MethodGet, Path: "/quote", Handler: p.CheckoutHandler.Quote},
				{Method: http.MethodPost, Path: "/promo", Handler: p.CheckoutHandler.ApplyPromo},
				{Method: http.MethodDelete, Path: "/promo", Handler: p.CheckoutHandler.ClearPromo},
			})
		}

		orders := apiGroup.Group("/orders")
		orders.Use(requireAuth)
		{
			addRoutes(orders, []route{
				{Method: http.MethodGet, Path: "", Handler: p.OrderHandler.List},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
