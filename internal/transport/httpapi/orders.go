package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

const (
	idempotencyKeyHeader  = "Idempotency-Key"
	idempotencyReplayed   = "Idempotency-Replayed"
	placeOrderScope       = "POST /api/orders"
	maxRequestBodyBytes   = 1 << 20
	invalidRequestMessage = "invalid request body"
)

func (h *handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		writeBadRequest(w, invalidRequestMessage)
		return
	}

	var req placeOrderRequest
	if err := decodeStrict(body, &req); err != nil {
		writeBadRequest(w, invalidRequestMessage)
		return
	}

	key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
	if key == "" || h.guard == nil {
		status, payload := h.doPlaceOrder(r, req)
		writeJSON(w, status, payload)
		return
	}

	replay, err := h.guard.Begin(r.Context(), key, placeOrderScope, body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if replay != nil {
		w.Header().Set(idempotencyReplayed, "true")
		writeRaw(w, replay.Status, replay.Body)
		return
	}

	status, payload := h.doPlaceOrder(r, req)
	encoded, err := json.Marshal(payload)
	if err != nil {
		h.guard.Complete(r.Context(), key, http.StatusInternalServerError, nil)
		h.writeError(w, r, err)
		return
	}
	encoded = append(encoded, '\n')
	h.guard.Complete(r.Context(), key, status, encoded)
	writeRaw(w, status, encoded)
}

func (h *handler) doPlaceOrder(r *http.Request, req placeOrderRequest) (int, any) {
	summary, err := h.orders.PlaceOrder(r.Context(), req.toDomain())
	if err != nil {
		return h.errorBody(r, err)
	}
	return http.StatusCreated, newOrderSummaryResponse(summary)
}

func (h *handler) listOrders(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.orders.ListOrders(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response := make([]orderSummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		response = append(response, newOrderSummaryResponse(summary))
	}
	writeJSON(w, http.StatusOK, response)
}

// decodeStrict разбирает ровно один JSON-объект без неизвестных полей.
func decodeStrict(body []byte, dst any) error {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if decoder.More() {
		return errors.New("unexpected data after JSON object")
	}
	return nil
}
