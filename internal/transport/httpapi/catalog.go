package httpapi

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const invalidRestaurantIDMessage = "restaurant id must be a positive integer"

func (h *handler) registerRestaurant(w http.ResponseWriter, r *http.Request) {
	var req restaurantRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, invalidRequestMessage)
		return
	}

	restaurant, err := h.catalog.RegisterRestaurant(r.Context(), req.toInput())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newRestaurantResponse(restaurant))
}

func (h *handler) listRestaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.catalog.ListRestaurants(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response := make([]restaurantResponse, 0, len(restaurants))
	for _, restaurant := range restaurants {
		response = append(response, newRestaurantResponse(restaurant))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *handler) registerFoods(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := restaurantIDParam(r)
	if !ok {
		writeBadRequest(w, invalidRestaurantIDMessage)
		return
	}

	var req registerFoodsRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, invalidRequestMessage)
		return
	}

	foods, err := h.catalog.RegisterFoods(r.Context(), restaurantID, req.toInputs())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newFoodResponses(foods))
}

func (h *handler) listFoods(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := restaurantIDParam(r)
	if !ok {
		writeBadRequest(w, invalidRestaurantIDMessage)
		return
	}

	foods, err := h.catalog.ListFoods(r.Context(), restaurantID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newFoodResponses(foods))
}

func restaurantIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "restaurantId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		return err
	}
	return decodeStrict(body, dst)
}
