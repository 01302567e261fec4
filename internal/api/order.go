package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/greengrocer/internal/domain/cart"
	"github.com/xenking/greengrocer/internal/domain/coupon"
	"github.com/xenking/greengrocer/internal/domain/order"
	"github.com/xenking/greengrocer/internal/domain/product"
)

const maxBodySize = 1 << 20

type orderItemRequest struct {
	ProductID int64
	Quantity  decimal.Decimal
}

type placeOrderRequest struct {
	Items        []orderItemRequest
	CouponCode   string
	DeliveryInfo string
}

// decodePlaceOrderRequest parses the order placement body:
//
//	{"items": [{"product_id": 1, "quantity": 1.5}], "coupon_code": "SAVE10", "delivery_info": "leave at door"}
func decodePlaceOrderRequest(r io.Reader) (*placeOrderRequest, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}

	var req placeOrderRequest
	d := jx.DecodeBytes(data)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				var item orderItemRequest
				if err := d.Obj(func(d *jx.Decoder, key string) error {
					switch key {
					case "product_id":
						v, err := d.Int64()
						item.ProductID = v
						return err
					case "quantity":
						raw, err := d.Num()
						if err != nil {
							return err
						}
						q, err := decimal.NewFromString(strings.Trim(string(raw), `"`))
						item.Quantity = q
						return err
					default:
						return d.Skip()
					}
				}); err != nil {
					return err
				}
				req.Items = append(req.Items, item)
				return nil
			})
		case "coupon_code":
			v, err := d.Str()
			req.CouponCode = v
			return err
		case "delivery_info":
			v, err := d.Str()
			req.DeliveryInfo = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode order request")
	}
	return &req, nil
}

// handlePlaceOrder validates the request, builds a cart with current effective
// prices, applies the optional coupon, and runs the placement pipeline.
func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	req, err := decodePlaceOrderRequest(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items required")
		return
	}

	u, err := h.users.GetByID(r.Context(), identity.CustomerID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	crt := cart.New(h.coupons)
	for _, item := range req.Items {
		if !item.Quantity.IsPositive() {
			writeError(w, http.StatusUnprocessableEntity,
				fmt.Sprintf("quantity must be greater than 0 for product %d", item.ProductID))
			return
		}

		p, err := h.products.GetByID(r.Context(), item.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				writeError(w, http.StatusUnprocessableEntity,
					fmt.Sprintf("product %d not found", item.ProductID))
				return
			}
			h.serverError(w, r, errors.Wrapf(err, "get product %d", item.ProductID))
			return
		}
		crt.AddItem(*p, item.Quantity)
	}

	// Storefront-wide minimum cart value, checked against the raw subtotal
	// before any discounts.
	cfg, err := h.settings.Get(r.Context())
	if err != nil {
		h.serverError(w, r, errors.Wrap(err, "get settings"))
		return
	}
	if cfg != nil && crt.Subtotal().LessThan(cfg.MinCartValue) {
		writeError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("cart total below the minimum of %s", cfg.MinCartValue.StringFixed(2)))
		return
	}

	if req.CouponCode != "" {
		if err := crt.ApplyCoupon(r.Context(), req.CouponCode); err != nil {
			switch {
			case errors.Is(err, coupon.ErrInvalidCoupon):
				writeError(w, http.StatusUnprocessableEntity, "invalid coupon code")
			case errors.Is(err, coupon.ErrCouponExpired):
				writeError(w, http.StatusUnprocessableEntity, "coupon is not valid at this time")
			case errors.Is(err, coupon.ErrMinTotalNotMet):
				writeError(w, http.StatusUnprocessableEntity, "cart total below coupon minimum")
			default:
				h.serverError(w, r, errors.Wrap(err, "apply coupon"))
			}
			return
		}
	}

	o, err := h.orders.PlaceOrder(r.Context(), *u, crt, req.DeliveryInfo)
	if err != nil {
		if errors.Is(err, order.ErrEmptyCart) {
			writeError(w, http.StatusBadRequest, "items required")
			return
		}
		h.serverError(w, r, errors.Wrap(err, "place order"))
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

// handleListOrders returns the caller's orders, newest first.
func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.history.ListByCustomer(r.Context(), identity.CustomerID)
	if err != nil {
		h.serverError(w, r, errors.Wrap(err, "list orders"))
		return
	}

	writeJSON(w, http.StatusOK, encodeOrderList(orders))
}

// handleGetOrder returns one of the caller's orders by id.
func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.history.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.serverError(w, r, errors.Wrap(err, "get order"))
		return
	}
	// Orders of other customers are indistinguishable from missing ones.
	if o.CustomerID != identity.CustomerID {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

func encodeOrderList(orders []order.Order) func(e *jx.Encoder) {
	return func(e *jx.Encoder) {
		e.ArrStart()
		for i := range orders {
			encodeOrder(e, &orders[i])
		}
		e.ArrEnd()
	}
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(o.ID)
	e.FieldStart("customer_id")
	e.Int64(o.CustomerID)
	if o.CarrierID != 0 {
		e.FieldStart("carrier_id")
		e.Int64(o.CarrierID)
	}
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("order_time")
	e.Str(o.OrderTime.Format(time.RFC3339))
	e.FieldStart("requested_delivery_time")
	e.Str(o.RequestedDeliveryTime.Format(time.RFC3339))
	if o.DeliveredAt != nil {
		e.FieldStart("delivered_at")
		e.Str(o.DeliveredAt.Format(time.RFC3339))
	}
	e.FieldStart("total_amount")
	e.Str(o.TotalAmount.StringFixed(2))
	if o.LoyaltyDiscountPercent.IsPositive() {
		e.FieldStart("loyalty_discount_percent")
		e.Str(o.LoyaltyDiscountPercent.StringFixed(2))
	}
	e.FieldStart("address")
	e.Str(o.AddressSnapshot)
	e.FieldStart("items")
	e.ArrStart()
	for _, line := range o.Lines {
		e.ObjStart()
		e.FieldStart("product_id")
		e.Int64(line.ProductID)
		e.FieldStart("quantity")
		e.Str(line.Quantity.String())
		e.FieldStart("unit_price")
		e.Str(line.UnitPrice.StringFixed(2))
		e.FieldStart("line_total")
		e.Str(line.LineTotal.StringFixed(2))
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}
