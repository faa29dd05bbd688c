package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/repair-planner/internal/generator"
	"github.com/ukydev/repair-planner/internal/middleware"
	"github.com/ukydev/repair-planner/internal/models"
)

// maxFaultBody bounds the size of a fault report accepted by the API.
const maxFaultBody = 1 << 20

// WorkOrderPlanner plans and persists a work order for a diagnosed fault.
type WorkOrderPlanner interface {
	PlanAndCreateWorkOrder(ctx context.Context, fault models.Fault) (models.WorkOrder, error)
}

// PlanHandler exposes repair planning over HTTP.
type PlanHandler struct {
	planner WorkOrderPlanner
}

// NewPlanHandler creates a PlanHandler.
func NewPlanHandler(planner WorkOrderPlanner) *PlanHandler {
	return &PlanHandler{planner: planner}
}

// Plan decodes a diagnosed fault and responds with the created work order.
func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var fault models.Fault
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFaultBody))
	if err := dec.Decode(&fault); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := fault.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger := log.WithFields(log.Fields{
		"fault_id":   fault.ID,
		"machine_id": fault.MachineID,
	})
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		logger = logger.WithField("requested_by", claims.Username)
	}

	wo, err := h.planner.PlanAndCreateWorkOrder(r.Context(), fault)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, wo)
	case errors.Is(err, generator.ErrMalformedDraft):
		logger.WithError(err).Warn("Generator returned a malformed draft")
		http.Error(w, "Draft plan could not be used", http.StatusBadGateway)
	default:
		logger.WithError(err).Error("Failed to plan work order")
		http.Error(w, "Failed to plan work order", http.StatusInternalServerError)
	}
}
