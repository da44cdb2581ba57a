// Package api exposes the thin HTTP surface that triggers the order
// fan-out core. Handlers decode, persist, touch the poll marker, dispatch
// and respond; every side-effect outcome stays out of the response.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ManboyFxx/odelivery/internal/domain"
	"github.com/ManboyFxx/odelivery/internal/events"
	"github.com/ManboyFxx/odelivery/internal/handlers"
	"github.com/ManboyFxx/odelivery/internal/pollcache"
	"github.com/ManboyFxx/odelivery/internal/storage"
)

// OrderStore is the persistence surface the API needs.
type OrderStore interface {
	Create(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, domain.OrderStatus, error)
	AssignMotoboy(ctx context.Context, id, motoboyID string) error
	Delete(ctx context.Context, id string) (*domain.Order, error)
}

// Dispatcher delivers a status change event to the effect handlers.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev *events.OrderStatusChanged)
}

// LoyaltyReader reads a customer's credited point balance within a tenant.
type LoyaltyReader interface {
	CustomerBalance(ctx context.Context, tenantID, customerID string) (int64, error)
}

type Server struct {
	orders      OrderStore
	dispatcher  Dispatcher
	toucher     *handlers.PollCacheToucher
	broadcaster *handlers.RealtimeBroadcaster
	pollStore   pollcache.Store
	loyalty     LoyaltyReader
	log         *zap.Logger
}

func NewServer(orders OrderStore, dispatcher Dispatcher, toucher *handlers.PollCacheToucher, broadcaster *handlers.RealtimeBroadcaster, pollStore pollcache.Store, loyalty LoyaltyReader, log *zap.Logger) *Server {
	return &Server{
		orders:      orders,
		dispatcher:  dispatcher,
		toucher:     toucher,
		broadcaster: broadcaster,
		pollStore:   pollStore,
		loyalty:     loyalty,
		log:         log,
	}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", s.createOrder)
		r.Route("/{orderID}", func(r chi.Router) {
			r.Get("/", s.getOrder)
			r.Delete("/", s.deleteOrder)
			r.Patch("/status", s.updateStatus)
			r.Post("/motoboy", s.assignMotoboy)
			r.Post("/arrived", s.motoboyArrived)
			r.Post("/location", s.locationPing)
		})
	})
	r.Get("/tenants/{tenantID}/poll", s.pollMarker)
	r.Get("/tenants/{tenantID}/customers/{customerID}/points", s.loyaltyBalance)
	return r
}

type createOrderRequest struct {
	TenantID    string  `json:"tenant_id"`
	OrderNumber string  `json:"order_number"`
	CustomerID  *string `json:"customer_id,omitempty"`
	Total       float64 `json:"total"`
	Mode        string  `json:"mode"`
	SocketID    string  `json:"socket_id,omitempty"`
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.TenantID == "" || req.OrderNumber == "" {
		httpError(w, http.StatusBadRequest, "tenant_id and order_number are required")
		return
	}

	order := &domain.Order{
		ID:          uuid.NewString(),
		OrderNumber: req.OrderNumber,
		TenantID:    req.TenantID,
		CustomerID:  req.CustomerID,
		Total:       req.Total,
		Mode:        req.Mode,
		Status:      domain.StatusNew,
	}
	if err := s.orders.Create(r.Context(), order); err != nil {
		s.log.Error("create order failed", zap.String("tenant_id", req.TenantID), zap.Error(err))
		httpError(w, http.StatusInternalServerError, "could not create order")
		return
	}

	s.toucher.TouchTenant(r.Context(), order.TenantID)
	s.broadcaster.OrderCreated(r.Context(), order, req.SocketID)

	respondJSON(w, http.StatusCreated, order.Snapshot())
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.orders.Get(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		s.respondStoreError(w, err, "get order")
		return
	}
	respondJSON(w, http.StatusOK, order.Snapshot())
}

type updateStatusRequest struct {
	Status   string `json:"status"`
	SocketID string `json:"socket_id,omitempty"`
}

// updateStatus is the single entry point for status mutations. The guard
// decides whether the write was a real transition; the poll marker is
// touched either way, because even a status-preserving save means the
// tenant's data changed.
func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid body")
		return
	}
	status := domain.OrderStatus(req.Status)
	if !status.Valid() {
		httpError(w, http.StatusUnprocessableEntity, "unknown status")
		return
	}

	order, oldStatus, err := s.orders.UpdateStatus(r.Context(), chi.URLParam(r, "orderID"), status)
	if err != nil {
		s.respondStoreError(w, err, "update status")
		return
	}

	if ev, ok := events.NewStatusChange(order, oldStatus, req.SocketID); ok {
		s.dispatcher.Dispatch(r.Context(), ev)
	} else {
		s.toucher.TouchTenant(r.Context(), order.TenantID)
	}

	respondJSON(w, http.StatusOK, order.Snapshot())
}

type assignMotoboyRequest struct {
	MotoboyID string `json:"motoboy_id"`
}

func (s *Server) assignMotoboy(w http.ResponseWriter, r *http.Request) {
	var req assignMotoboyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MotoboyID == "" {
		httpError(w, http.StatusBadRequest, "motoboy_id is required")
		return
	}
	orderID := chi.URLParam(r, "orderID")
	if err := s.orders.AssignMotoboy(r.Context(), orderID, req.MotoboyID); err != nil {
		s.respondStoreError(w, err, "assign motoboy")
		return
	}
	order, err := s.orders.Get(r.Context(), orderID)
	if err != nil {
		s.respondStoreError(w, err, "assign motoboy")
		return
	}
	s.toucher.TouchTenant(r.Context(), order.TenantID)
	respondJSON(w, http.StatusOK, order.Snapshot())
}

func (s *Server) motoboyArrived(w http.ResponseWriter, r *http.Request) {
	order, err := s.orders.Get(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		s.respondStoreError(w, err, "motoboy arrived")
		return
	}
	s.broadcaster.MotoboyArrived(r.Context(), order)
	w.WriteHeader(http.StatusAccepted)
}

type locationPingRequest struct {
	MotoboyID string  `json:"motoboy_id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

func (s *Server) locationPing(w http.ResponseWriter, r *http.Request) {
	var req locationPingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MotoboyID == "" {
		httpError(w, http.StatusBadRequest, "motoboy_id is required")
		return
	}
	s.broadcaster.LocationUpdated(r.Context(), chi.URLParam(r, "orderID"), req.MotoboyID, req.Lat, req.Lng)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) deleteOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.orders.Delete(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		s.respondStoreError(w, err, "delete order")
		return
	}
	s.toucher.TouchTenant(r.Context(), order.TenantID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) pollMarker(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	version, err := s.pollStore.Version(r.Context(), tenantID)
	if err != nil {
		s.log.Error("poll marker read failed", zap.String("tenant_id", tenantID), zap.Error(err))
		httpError(w, http.StatusInternalServerError, "could not read poll marker")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"version": version})
}

func (s *Server) loyaltyBalance(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	customerID := chi.URLParam(r, "customerID")
	balance, err := s.loyalty.CustomerBalance(r.Context(), tenantID, customerID)
	if err != nil {
		s.log.Error("loyalty balance read failed",
			zap.String("tenant_id", tenantID),
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
		httpError(w, http.StatusInternalServerError, "could not read loyalty balance")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"points": balance})
}

func (s *Server) respondStoreError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, storage.ErrOrderNotFound) {
		httpError(w, http.StatusNotFound, "order not found")
		return
	}
	s.log.Error(op+" failed", zap.Error(err))
	httpError(w, http.StatusInternalServerError, "internal error")
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
