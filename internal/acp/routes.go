// Package acp implements the checkout-sessions protocol adapter: one of
// the two wire schemas shopping agents use against the merchant. It
// translates requests into engine operations and session snapshots back
// into this protocol's payloads; it never touches session state directly.
package acp

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/merchantkit/agent-checkout/internal/checkout"
	"github.com/merchantkit/agent-checkout/internal/validation"
)

// Config groups dependencies for the adapter.
type Config struct {
	Engine *checkout.Engine
}

// RegisterRoutes mounts the five checkout-session operations.
func RegisterRoutes(r *gin.Engine, cfg Config) {
	h := &handler{engine: cfg.Engine, validate: validation.New()}

	r.POST("/checkout_sessions", h.create)
	r.GET("/checkout_sessions/:id", h.get)
	r.POST("/checkout_sessions/:id", h.update)
	r.POST("/checkout_sessions/:id/complete", h.complete)
	r.POST("/checkout_sessions/:id/cancel", h.cancel)
}

type handler struct {
	engine   *checkout.Engine
	validate *validatorv10.Validate
}

func (h *handler) bind(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Code:    "invalid_body",
			Message: err.Error(),
		})
		return false
	}
	if err := h.validate.Struct(out); err != nil {
		c.JSON(http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Code:    "validation_failed",
			Message: "request validation failed",
			Fields:  validation.ErrorsToMap(err),
		})
		return false
	}
	return true
}

func (h *handler) create(c *gin.Context) {
	var req createRequest
	if !h.bind(c, &req) {
		return
	}

	items := make([]checkout.ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, checkout.ItemInput{ProductID: it.ID, Quantity: it.Quantity})
	}

	sess, err := h.engine.Create(c.Request.Context(), checkout.CreateParams{
		Items:          items,
		Currency:       req.Currency,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSessionPayload(sess, h.engine.FulfillmentOptions(), nil))
}

func (h *handler) get(c *gin.Context) {
	sess, err := h.engine.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionPayload(sess, h.engine.FulfillmentOptions(), nil))
}

func (h *handler) update(c *gin.Context) {
	var req updateRequest
	if !h.bind(c, &req) {
		return
	}

	params := checkout.UpdateParams{
		FulfillmentOptionID: req.FulfillmentOptionID,
		CouponCode:          req.CouponCode,
	}
	if req.Buyer != nil {
		params.Buyer = fromBuyerPayload(req.Buyer)
	}
	for _, it := range req.Items {
		params.Items = append(params.Items, checkout.ItemInput{ProductID: it.ID, Quantity: it.Quantity})
	}

	sess, rejection, err := h.engine.Update(c.Request.Context(), c.Param("id"), params)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionPayload(sess, h.engine.FulfillmentOptions(), rejection))
}

func (h *handler) complete(c *gin.Context) {
	sess, err := h.engine.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionPayload(sess, h.engine.FulfillmentOptions(), nil))
}

func (h *handler) cancel(c *gin.Context) {
	sess, err := h.engine.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionPayload(sess, h.engine.FulfillmentOptions(), nil))
}

// writeError translates the engine error taxonomy into this protocol's
// error envelope and status codes.
func (h *handler) writeError(c *gin.Context, err error) {
	var invalid *checkout.InvalidStateError
	var conflict *checkout.InventoryConflictError

	switch {
	case errors.Is(err, checkout.ErrNotFound):
		c.JSON(http.StatusNotFound, errorPayload{
			Type:    "invalid_request",
			Code:    "session_not_found",
			Message: "no checkout session with that id",
		})
	case errors.As(err, &invalid):
		c.JSON(http.StatusConflict, errorPayload{
			Type:    "invalid_request",
			Code:    "session_not_modifiable",
			Message: invalid.Error(),
		})
	case errors.As(err, &conflict):
		items := make([]conflictItemPayload, 0, len(conflict.Conflicts))
		for _, ic := range conflict.Conflicts {
			items = append(items, conflictItemPayload{
				ID:                ic.ProductID,
				Issue:             string(ic.Kind),
				AvailableQuantity: ic.AvailableQty,
				CurrentUnitAmount: ic.CurrentPriceCents,
			})
		}
		c.JSON(http.StatusConflict, errorPayload{
			Type:    "invalid_request",
			Code:    "inventory_conflict",
			Message: conflict.Error(),
			Items:   items,
		})
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Code:    "empty_cart",
			Message: "cart must contain at least one line item",
		})
	case errors.Is(err, checkout.ErrFulfillmentMissing):
		c.JSON(http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Code:    "fulfillment_not_selected",
			Message: "a fulfillment option must be selected before completion",
		})
	case errors.Is(err, checkout.ErrUnknownFulfillment):
		c.JSON(http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Code:    "unknown_fulfillment_option",
			Message: err.Error(),
		})
	case errors.Is(err, checkout.ErrUnknownProduct):
		c.JSON(http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Code:    "unknown_product",
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, errorPayload{
			Type:    "processing_error",
			Code:    "internal_error",
			Message: "internal error",
		})
	}
}
