package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/repair-planner/internal/db"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// WorkOrderHandler serves stored work orders.
type WorkOrderHandler struct {
	workOrders db.WorkOrderCollection
}

// NewWorkOrderHandler creates a WorkOrderHandler.
func NewWorkOrderHandler(workOrders db.WorkOrderCollection) *WorkOrderHandler {
	return &WorkOrderHandler{workOrders: workOrders}
}

// List returns work orders filtered by the optional status, machineId and
// limit query parameters, newest first.
func (h *WorkOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := db.WorkOrderFilter{
		Status:    q.Get("status"),
		MachineID: q.Get("machineId"),
		Limit:     defaultListLimit,
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		if n > maxListLimit {
			n = maxListLimit
		}
		filter.Limit = n
	}

	workOrders, err := h.workOrders.FindWorkOrders(r.Context(), filter)
	if err != nil {
		log.WithError(err).Error("Failed to list work orders")
		http.Error(w, "Failed to list work orders", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, workOrders)
}

// Get returns a single work order by id.
func (h *WorkOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	wo, err := h.workOrders.FindWorkOrderByID(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		http.Error(w, "Work order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.WithError(err).WithField("work_order_id", id).Error("Failed to load work order")
		http.Error(w, "Failed to load work order", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, wo)
}
