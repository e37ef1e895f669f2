package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/easystore/pkg/logging"
	middleware "github.com/Skotchmaster/easystore/pkg/middleware/auth"
)

type Deps struct {
	CatalogHandler *CatalogHTTP
	OrderHandler   *OrderHTTP
	AuthHandler    *AuthHTTP
	JWTSecret      []byte
	Refresher      middleware.Refresher
	// Ready reports whether the store answers; nil means always ready.
	Ready func(ctx context.Context) error
	// UploadsDir is served under /uploads when set.
	UploadsDir string
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", d.ready)

	if d.UploadsDir != "" {
		e.Static("/uploads", d.UploadsDir)
	}

	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, d.Refresher)
	api := e.Group("/api")

	products := api.Group("/products")
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/search", d.CatalogHandler.SearchProducts)
	products.GET("/:id", d.CatalogHandler.GetProduct)
	products.PUT("/:id/rate", d.CatalogHandler.RateProduct)
	products.POST("", d.CatalogHandler.CreateProduct, authMW.RequireAdmin)
	products.PUT("/:id/status", d.CatalogHandler.ToggleStatus, authMW.RequireAdmin)
	products.DELETE("/:id", d.CatalogHandler.DeleteProduct, authMW.RequireAdmin)

	orders := api.Group("/orders")
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("", d.OrderHandler.GetOrders, authMW.RequireAdmin)
	orders.DELETE("/:id", d.OrderHandler.DeleteOrder, authMW.RequireAdmin)

	users := api.Group("/users")
	users.POST("/register", d.AuthHandler.Register)
	users.POST("/login", d.AuthHandler.Login)
	users.POST("/refresh", d.AuthHandler.Refresh)
	users.POST("/logout", d.AuthHandler.LogOut)
	users.POST("/reset", d.AuthHandler.ResetUser, authMW.RequireAdmin)
}

func (d *Deps) ready(c echo.Context) error {
	if d.Ready == nil {
		return c.NoContent(http.StatusOK)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := d.Ready(ctx); err != nil {
		logging.FromContext(ctx).Warn("ready_check_failed", "error", err)
		return c.NoContent(http.StatusServiceUnavailable)
	}
	return c.NoContent(http.StatusOK)
}
