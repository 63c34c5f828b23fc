package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fooddash/api/internal/domain"
)

// OrderManager is the minimal interface the order endpoints need.
type OrderManager interface {
	Place(ctx context.Context, order domain.Order) (domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error)
	Cancel(ctx context.Context, orderID string) (domain.Order, error)
	ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
}

// HandlePlaceOrder creates a new order from the JSON body. Any status in the
// body is ignored by the service.
func HandlePlaceOrder(svc OrderManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req placeOrderRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		order, err := svc.Place(r.Context(), req.toDomain())
		if err != nil {
			writeOrderError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toOrderResponse(order))
	}
}

// HandleUpdateOrderStatus applies an admin status change from the query
// string.
func HandleUpdateOrderStatus(svc OrderManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "orderID")
		status := domain.OrderStatus(r.URL.Query().Get("status"))

		order, err := svc.UpdateStatus(r.Context(), orderID, status)
		if err != nil {
			writeOrderError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrderResponse(order))
	}
}

// HandleCancelOrder is the customer cancellation endpoint.
func HandleCancelOrder(svc OrderManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "orderID")

		order, err := svc.Cancel(r.Context(), orderID)
		if err != nil {
			writeOrderError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrderResponse(order))
	}
}

// HandleListUserOrders returns a user's orders, newest first.
func HandleListUserOrders(svc OrderManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")

		orders, err := svc.ListUserOrders(r.Context(), userID)
		if err != nil {
			writeOrderError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrderResponses(orders))
	}
}

// HandleListOrders returns every order, newest first.
func HandleListOrders(svc OrderManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := svc.ListOrders(r.Context())
		if err != nil {
			writeOrderError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrderResponses(orders))
	}
}

func writeOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, codeOrderNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
	case errors.Is(err, domain.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, codeInvalidStatus, err.Error())
	case errors.Is(err, domain.ErrOrderNotCancellable):
		writeError(w, http.StatusConflict, codeOrderNotCancellable, err.Error())
	case errors.Is(err, domain.ErrCancelWindowExpired):
		writeError(w, http.StatusConflict, codeCancelWindowExpired, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

type placeOrderRequest struct {
	UserID          string             `json:"userId"`
	TotalPriceCents int64              `json:"totalPriceCents"`
	Items           []orderItemRequest `json:"items"`
}

type orderItemRequest struct {
	ItemID    string             `json:"itemId"`
	VariantID string             `json:"variantId,omitempty"`
	Quantity  int                `json:"quantity"`
	Addons    []itemAddonRequest `json:"addons,omitempty"`
}

type itemAddonRequest struct {
	AddonID string `json:"addonId"`
}

func (r placeOrderRequest) toDomain() domain.Order {
	order := domain.Order{
		UserID:          r.UserID,
		TotalPriceCents: r.TotalPriceCents,
	}
	for _, item := range r.Items {
		di := domain.OrderItem{
			ItemID:    item.ItemID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		}
		for _, addon := range item.Addons {
			di.Addons = append(di.Addons, domain.OrderItemAddon{AddonID: addon.AddonID})
		}
		order.Items = append(order.Items, di)
	}
	return order
}

type orderResponse struct {
	ID              string              `json:"id"`
	UserID          string              `json:"userId"`
	Status          string              `json:"status"`
	TotalPriceCents int64               `json:"totalPriceCents"`
	PlacedAt        time.Time           `json:"placedAt"`
	Items           []orderItemResponse `json:"items"`
}

type orderItemResponse struct {
	ID        string              `json:"id"`
	OrderID   string              `json:"orderId"`
	ItemID    string              `json:"itemId"`
	VariantID string              `json:"variantId,omitempty"`
	Quantity  int                 `json:"quantity"`
	Addons    []itemAddonResponse `json:"addons,omitempty"`
}

type itemAddonResponse struct {
	ID          string `json:"id"`
	OrderItemID string `json:"orderItemId"`
	AddonID     string `json:"addonId"`
}

func toOrderResponse(o domain.Order) orderResponse {
	resp := orderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		Status:          string(o.Status),
		TotalPriceCents: o.TotalPriceCents,
		PlacedAt:        o.PlacedAt,
		Items:           []orderItemResponse{},
	}
	for _, item := range o.Items {
		ir := orderItemResponse{
			ID:        item.ID,
			OrderID:   item.OrderID,
			ItemID:    item.ItemID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		}
		for _, addon := range item.Addons {
			ir.Addons = append(ir.Addons, itemAddonResponse{
				ID:          addon.ID,
				OrderItemID: addon.OrderItemID,
				AddonID:     addon.AddonID,
			})
		}
		resp.Items = append(resp.Items, ir)
	}
	return resp
}

func toOrderResponses(orders []domain.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
