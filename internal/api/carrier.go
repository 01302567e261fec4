package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/greengrocer/internal/domain/order"
)

// handleListUnassigned returns orders waiting for a carrier, oldest first.
func (h *Handler) handleListUnassigned(w http.ResponseWriter, r *http.Request) {
	orders, err := h.carriers.AvailableOrders(r.Context())
	if err != nil {
		h.serverError(w, r, errors.Wrap(err, "list unassigned orders"))
		return
	}
	writeJSON(w, http.StatusOK, encodeOrderList(orders))
}

// handleAssignCarrier lets a carrier claim an order. Exactly one claim wins;
// everyone else gets 409.
func (h *Handler) handleAssignCarrier(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	carrierID, err := decodeCarrierID(r.Body)
	if err != nil || carrierID <= 0 {
		writeError(w, http.StatusBadRequest, "carrier_id required")
		return
	}

	won, err := h.carriers.Assign(r.Context(), orderID, carrierID)
	if err != nil {
		h.serverError(w, r, errors.Wrapf(err, "assign order %d", orderID))
		return
	}
	if !won {
		writeError(w, http.StatusConflict, "order already assigned")
		return
	}

	o, err := h.history.GetByID(r.Context(), orderID)
	if err != nil {
		h.serverError(w, r, errors.Wrapf(err, "get order %d", orderID))
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

// handleCompleteOrder marks an order delivered.
func (h *Handler) handleCompleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	done, err := h.carriers.Complete(r.Context(), orderID)
	if err != nil {
		h.serverError(w, r, errors.Wrapf(err, "complete order %d", orderID))
		return
	}
	if !done {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	o, err := h.history.GetByID(r.Context(), orderID)
	if err != nil {
		h.serverError(w, r, errors.Wrapf(err, "get order %d", orderID))
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

// handleListCarrierOrders returns the carrier's orders, filtered by the status
// query parameter (ASSIGNED by default).
func (h *Handler) handleListCarrierOrders(w http.ResponseWriter, r *http.Request) {
	carrierID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid carrier id")
		return
	}

	status := order.StatusAssigned
	if s := r.URL.Query().Get("status"); s != "" {
		switch order.Status(s) {
		case order.StatusPlaced, order.StatusAssigned, order.StatusDelivered:
			status = order.Status(s)
		default:
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
	}

	orders, err := h.carriers.OrdersByCarrier(r.Context(), carrierID, status)
	if err != nil {
		h.serverError(w, r, errors.Wrapf(err, "list orders for carrier %d", carrierID))
		return
	}
	writeJSON(w, http.StatusOK, encodeOrderList(orders))
}

// decodeCarrierID parses {"carrier_id": N} from the request body.
func decodeCarrierID(r io.Reader) (int64, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBodySize))
	if err != nil {
		return 0, errors.Wrap(err, "read body")
	}

	var carrierID int64
	d := jx.DecodeBytes(data)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "carrier_id":
			v, err := d.Int64()
			carrierID = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return 0, errors.Wrap(err, "decode assign request")
	}
	return carrierID, nil
}
