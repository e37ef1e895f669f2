package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/easystore/internal/service"
	"github.com/Skotchmaster/easystore/internal/transport"
	"github.com/Skotchmaster/easystore/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	items, err := h.Svc.List(ctx)
	if err != nil {
		return fail(l, "get_products", err)
	}

	l.Info("get_products_success", "count", len(items))
	return c.JSON(http.StatusOK, transport.NewProductList(items))
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	items, err := h.Svc.Search(ctx, c.QueryParam("q"))
	if err != nil {
		return fail(l, "search_products", err)
	}

	return c.JSON(http.StatusOK, transport.NewProductList(items))
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := parseID(c)
	if err != nil {
		l.Warn("get_product_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	p, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_product", err)
	}

	return c.JSON(http.StatusOK, transport.NewProductResponse(p))
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_product_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.Svc.Create(ctx, req)
	if err != nil {
		return fail(l, "create_product", err)
	}

	l.Info("create_product_success", "product_id", p.ID)
	return c.JSON(http.StatusCreated, transport.NewProductResponse(p))
}

func (h *CatalogHTTP) RateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.rate_product")

	id, err := parseID(c)
	if err != nil {
		l.Warn("rate_product_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	var req transport.RateRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("rate_product_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.SubmitRating(ctx, id, req.StarValue)
	if err != nil {
		return fail(l, "rate_product", err)
	}

	l.Info("rate_product_success", "product_id", id, "rating", res.Rating, "num_ratings", res.NumRatings)
	return c.JSON(http.StatusOK, transport.RatingResponse{Rating: res.Rating, NumRatings: res.NumRatings})
}

func (h *CatalogHTTP) ToggleStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.toggle_status")

	id, err := parseID(c)
	if err != nil {
		l.Warn("toggle_status_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	p, err := h.Svc.ToggleAvailability(ctx, id)
	if err != nil {
		return fail(l, "toggle_status", err)
	}

	l.Info("toggle_status_success", "product_id", id, "is_available", p.IsAvailable)
	return c.JSON(http.StatusOK, transport.NewProductResponse(p))
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete_product")

	id, err := parseID(c)
	if err != nil {
		l.Warn("delete_product_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	if err := h.Svc.Delete(ctx, id); err != nil {
		return fail(l, "delete_product", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}
