package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/easystore/internal/receipts"
	"github.com/Skotchmaster/easystore/internal/service"
	"github.com/Skotchmaster/easystore/internal/transport"
	"github.com/Skotchmaster/easystore/pkg/logging"
)

const (
	formOrder      = "order"
	formScreenshot = "screenshot"
)

type OrderHTTP struct {
	Svc      *service.OrderService
	Receipts receipts.Uploader
}

// bindCheckout reads either a multipart form (order JSON plus receipt image)
// or a JSON body that already carries receipt_ref.
func (h *OrderHTTP) bindCheckout(c echo.Context) (transport.CheckoutRequest, error) {
	var req transport.CheckoutRequest

	ct := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		if err := c.Bind(&req); err != nil {
			return req, echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
		return req, nil
	}

	if err := json.Unmarshal([]byte(c.FormValue(formOrder)), &req); err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, "order field is not valid json")
	}
	// receipt_ref is never taken from the client in the upload flow
	req.ReceiptRef = ""

	fh, err := c.FormFile(formScreenshot)
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil
	}
	if err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, "invalid screenshot upload")
	}
	if len(req.Items) == 0 {
		return req, nil
	}

	f, err := fh.Open()
	if err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, "invalid screenshot upload")
	}
	defer f.Close()

	ref, err := h.Receipts.Upload(c.Request().Context(), fh.Filename, fh.Header.Get(echo.HeaderContentType), f)
	if err != nil {
		return req, echo.NewHTTPError(http.StatusInternalServerError, "cannot store receipt").SetInternal(err)
	}
	req.ReceiptRef = ref
	return req, nil
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	req, err := h.bindCheckout(c)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code >= http.StatusInternalServerError {
			l.Error("create_order_error", "status", he.Code, "reason", he.Message, "error", he.Internal)
		} else {
			l.Warn("create_order_error", "status", 400, "reason", "invalid body", "error", err)
		}
		return err
	}

	res, err := h.Svc.Checkout(ctx, req)
	if err != nil {
		return fail(l, "create_order", err)
	}

	if failed := res.Failed(); len(failed) > 0 {
		l.Warn("create_order_partial_sales_update", "order_id", res.Order.ID, "failed", len(failed))
	}
	l.Info("create_order_success", "order_id", res.Order.ID)
	return c.JSON(http.StatusCreated, transport.CheckoutResponse{
		OrderID: res.Order.ID,
		Status:  res.Order.Status,
	})
}

func (h *OrderHTTP) GetOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_orders")

	orders, err := h.Svc.List(ctx)
	if err != nil {
		return fail(l, "get_orders", err)
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.delete_order")

	id, err := parseID(c)
	if err != nil {
		l.Warn("delete_order_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	if err := h.Svc.Delete(ctx, id); err != nil {
		return fail(l, "delete_order", err)
	}

	l.Info("delete_order_success", "order_id", id)
	return c.NoContent(http.StatusNoContent)
}
