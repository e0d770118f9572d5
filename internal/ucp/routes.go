// Package ucp implements the cart protocol adapter: the second wire
// schema shopping agents use against the merchant. Semantically it is
// equivalent to the checkout-sessions schema; only the payload shapes,
// paths and state vocabulary differ. The adapter translates both ways and
// never touches session state directly.
package ucp

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

// RegisterRoutes mounts the cart operations under /ucp.
func RegisterRoutes(r *gin.Engine, cfg Config) {
	h := &handler{engine: cfg.Engine, validate: validation.New()}

	g := r.Group("/ucp")
	g.POST("/carts", h.create)
	g.GET("/carts/:id", h.get)
	g.PATCH("/carts/:id", h.patch)
	g.POST("/carts/:id/checkout", h.checkout)
	g.DELETE("/carts/:id", h.abandon)
}

type handler struct {
	engine   *checkout.Engine
	validate *validatorv10.Validate
}

func (h *handler) bind(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		h.fail(c, http.StatusBadRequest, "malformed_body", err.Error(), nil)
		return false
	}
	if err := h.validate.Struct(out); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: errorBody{
			Status: http.StatusBadRequest,
			Reason: "invalid_fields",
			Fields: validation.ErrorsToMap(err),
		}})
		return false
	}
	return true
}

func (h *handler) create(c *gin.Context) {
	var req createCartRequest
	if !h.bind(c, &req) {
		return
	}

	items := make([]checkout.ItemInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		items = append(items, checkout.ItemInput{ProductID: l.ProductID, Quantity: l.Quantity})
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
	c.JSON(http.StatusCreated, toCartResponse(sess, h.engine.FulfillmentOptions(), nil))
}

func (h *handler) get(c *gin.Context) {
	sess, err := h.engine.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(sess, h.engine.FulfillmentOptions(), nil))
}

func (h *handler) patch(c *gin.Context) {
	var req patchCartRequest
	if !h.bind(c, &req) {
		return
	}

	params := checkout.UpdateParams{
		FulfillmentOptionID: req.ShippingMethod,
		CouponCode:          req.PromotionCode,
	}
	if req.Customer != nil {
		params.Buyer = fromCustomerParam(req.Customer)
	}
	for _, l := range req.Lines {
		params.Items = append(params.Items, checkout.ItemInput{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	sess, rejection, err := h.engine.Update(c.Request.Context(), c.Param("id"), params)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(sess, h.engine.FulfillmentOptions(), rejection))
}

func (h *handler) checkout(c *gin.Context) {
	sess, err := h.engine.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(sess, h.engine.FulfillmentOptions(), nil))
}

func (h *handler) abandon(c *gin.Context) {
	sess, err := h.engine.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(sess, h.engine.FulfillmentOptions(), nil))
}

func (h *handler) fail(c *gin.Context, status int, reason, detail string, lines []lineConflictPayload) {
	c.JSON(status, errorResponse{Error: errorBody{
		Status: status,
		Reason: reason,
		Detail: detail,
		Lines:  lines,
	}})
}

// writeError translates the engine error taxonomy into this protocol's
// error envelope and status codes.
func (h *handler) writeError(c *gin.Context, err error) {
	var invalid *checkout.InvalidStateError
	var conflict *checkout.InventoryConflictError

	switch {
	case errors.Is(err, checkout.ErrNotFound):
		h.fail(c, http.StatusNotFound, "cart_not_found", "no cart with that id", nil)
	case errors.As(err, &invalid):
		h.fail(c, http.StatusConflict, "cart_closed", invalid.Error(), nil)
	case errors.As(err, &conflict):
		lines := make([]lineConflictPayload, 0, len(conflict.Conflicts))
		for _, ic := range conflict.Conflicts {
			lc := lineConflictPayload{
				ProductID: ic.ProductID,
				Problem:   string(ic.Kind),
				InStock:   ic.AvailableQty,
			}
			if ic.Kind == checkout.ConflictPrice {
				lc.NowPrice = toMoney(ic.CurrentPriceCents, "").Value
			}
			lines = append(lines, lc)
		}
		h.fail(c, http.StatusConflict, "availability_changed", conflict.Error(), lines)
	case errors.Is(err, checkout.ErrEmptyCart):
		h.fail(c, http.StatusBadRequest, "cart_empty", "cart must contain at least one line", nil)
	case errors.Is(err, checkout.ErrFulfillmentMissing):
		h.fail(c, http.StatusBadRequest, "shipping_not_selected", "select a shipping method before checkout", nil)
	case errors.Is(err, checkout.ErrUnknownFulfillment):
		h.fail(c, http.StatusBadRequest, "unknown_shipping_method", err.Error(), nil)
	case errors.Is(err, checkout.ErrUnknownProduct):
		h.fail(c, http.StatusBadRequest, "unknown_product", err.Error(), nil)
	default:
		h.fail(c, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}
