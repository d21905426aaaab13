package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sports-booking-backend/internal/middleware"
	"github.com/iliyamo/sports-booking-backend/internal/usecase"
)

// ShopHandler serves the product catalog and orders.
type ShopHandler struct {
	Products *usecase.ProductUsecase
	Orders   *usecase.OrderUsecase
}

func (h *ShopHandler) ListProducts(c echo.Context) error {
	q, err := listQuery(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.Products.List(ctx, middleware.Scope(c), staffQuery(c, q))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *ShopHandler) GetProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Products.Get(ctx, middleware.Scope(c), id)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, p)
}

func (h *ShopHandler) CreateProduct(c echo.Context) error {
	var in usecase.ProductInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Products.Create(ctx, middleware.Scope(c), in)
	if err != nil {
		return err
	}
	return item(c, http.StatusCreated, p)
}

func (h *ShopHandler) UpdateProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in usecase.ProductInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Products.Update(ctx, middleware.Scope(c), id, in)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, p)
}

func (h *ShopHandler) DeleteProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Products.Delete(ctx, middleware.Scope(c), id); err != nil {
		return err
	}
	return noContent(c)
}

func (h *ShopHandler) RestoreProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Products.Restore(ctx, middleware.Scope(c), id); err != nil {
		return err
	}
	return noContent(c)
}

// ---- Orders ----

func (h *ShopHandler) PlaceOrder(c echo.Context) error {
	var in usecase.PlaceOrderInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Orders.Place(ctx, middleware.Scope(c), in)
	if err != nil {
		return err
	}
	return item(c, http.StatusCreated, o)
}

func (h *ShopHandler) ListOrders(c echo.Context) error {
	q, err := listQuery(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.Orders.List(ctx, middleware.Scope(c), staffQuery(c, q))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *ShopHandler) GetOrder(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Orders.Get(ctx, middleware.Scope(c), id)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, o)
}

func (h *ShopHandler) TransitionOrder(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req transitionReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Orders.Transition(ctx, middleware.Scope(c), id, req.Status)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, o)
}

func (h *ShopHandler) CancelOrder(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	o, err := h.Orders.Cancel(ctx, middleware.Scope(c), id)
	if err != nil {
		return err
	}
	return item(c, http.StatusOK, o)
}

func (h *ShopHandler) DeleteOrder(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Orders.Delete(ctx, middleware.Scope(c), id); err != nil {
		return err
	}
	return noContent(c)
}
