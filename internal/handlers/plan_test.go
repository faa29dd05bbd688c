package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/repair-planner/internal/db"
	"github.com/ukydev/repair-planner/internal/generator"
	"github.com/ukydev/repair-planner/internal/models"
)

type MockPlanner struct {
	mock.Mock
}

func (m *MockPlanner) PlanAndCreateWorkOrder(ctx context.Context, fault models.Fault) (models.WorkOrder, error) {
	args := m.Called(ctx, fault)
	return args.Get(0).(models.WorkOrder), args.Error(1)
}

type MockWorkOrderCollection struct {
	mock.Mock
}

func (m *MockWorkOrderCollection) InsertWorkOrder(ctx context.Context, workOrder models.WorkOrder) (models.WorkOrder, error) {
	args := m.Called(ctx, workOrder)
	return args.Get(0).(models.WorkOrder), args.Error(1)
}

func (m *MockWorkOrderCollection) FindWorkOrderByID(ctx context.Context, id string) (*models.WorkOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkOrder), args.Error(1)
}

func (m *MockWorkOrderCollection) FindWorkOrders(ctx context.Context, filter db.WorkOrderFilter) ([]models.WorkOrder, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WorkOrder), args.Error(1)
}

func testFault() models.Fault {
	return models.Fault{
		ID:          "fault-001",
		MachineID:   "press-07",
		MachineName: "Curing Press 7",
		FaultType:   "curing_temperature_excessive",
		Severity:    models.SeverityHigh,
		Description: "Platen temperature 12C above setpoint",
		DetectedAt:  time.Date(2025, 3, 14, 7, 55, 0, 0, time.UTC),
	}
}

func testWorkOrder() models.WorkOrder {
	created := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	return models.WorkOrder{
		ID:              "3f2a9c1e-0000-4000-8000-000000000000",
		WorkOrderNumber: "WO-20250314-3f2a9c1e",
		FaultID:         "fault-001",
		MachineID:       "press-07",
		Title:           "Replace curing press thermocouple",
		Type:            models.TypeCorrective,
		Priority:        models.PriorityHigh,
		Status:          models.StatusPending,
		Tasks:           []models.RepairTask{},
		PartsUsed:       []models.PartUsage{},
		CreatedAt:       created,
		UpdatedAt:       created,
	}
}

func TestPlanHandler_Plan(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		planner := new(MockPlanner)
		planner.On("PlanAndCreateWorkOrder", mock.Anything, testFault()).Return(testWorkOrder(), nil)

		body, _ := json.Marshal(testFault())
		w := httptest.NewRecorder()
		NewPlanHandler(planner).Plan(w, httptest.NewRequest("POST", "/api/faults/plan", bytes.NewBuffer(body)))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var wo models.WorkOrder
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wo))
		assert.Equal(t, "WO-20250314-3f2a9c1e", wo.WorkOrderNumber)
		assert.Equal(t, "press-07", wo.MachineID)
		planner.AssertExpectations(t)
	})

	t.Run("invalid json", func(t *testing.T) {
		planner := new(MockPlanner)
		w := httptest.NewRecorder()
		NewPlanHandler(planner).Plan(w, httptest.NewRequest("POST", "/api/faults/plan", bytes.NewBufferString("{bad json")))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		planner.AssertNotCalled(t, "PlanAndCreateWorkOrder", mock.Anything, mock.Anything)
	})

	t.Run("fault without machine", func(t *testing.T) {
		planner := new(MockPlanner)
		fault := testFault()
		fault.MachineID = ""
		body, _ := json.Marshal(fault)

		w := httptest.NewRecorder()
		NewPlanHandler(planner).Plan(w, httptest.NewRequest("POST", "/api/faults/plan", bytes.NewBuffer(body)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		planner.AssertNotCalled(t, "PlanAndCreateWorkOrder", mock.Anything, mock.Anything)
	})

	t.Run("malformed draft", func(t *testing.T) {
		planner := new(MockPlanner)
		err := fmt.Errorf("generate draft plan: %w", fmt.Errorf("%w: tasks[0] has no title", generator.ErrMalformedDraft))
		planner.On("PlanAndCreateWorkOrder", mock.Anything, mock.Anything).Return(models.WorkOrder{}, err)

		body, _ := json.Marshal(testFault())
		w := httptest.NewRecorder()
		NewPlanHandler(planner).Plan(w, httptest.NewRequest("POST", "/api/faults/plan", bytes.NewBuffer(body)))

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("planning failure", func(t *testing.T) {
		planner := new(MockPlanner)
		planner.On("PlanAndCreateWorkOrder", mock.Anything, mock.Anything).
			Return(models.WorkOrder{}, errors.New("find technicians: connection refused"))

		body, _ := json.Marshal(testFault())
		w := httptest.NewRecorder()
		NewPlanHandler(planner).Plan(w, httptest.NewRequest("POST", "/api/faults/plan", bytes.NewBuffer(body)))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}

func TestWorkOrderHandler_List(t *testing.T) {
	t.Run("filters from query", func(t *testing.T) {
		workOrders := new(MockWorkOrderCollection)
		workOrders.On("FindWorkOrders", mock.Anything, db.WorkOrderFilter{
			Status:    "pending",
			MachineID: "press-07",
			Limit:     10,
		}).Return([]models.WorkOrder{testWorkOrder()}, nil)

		w := httptest.NewRecorder()
		NewWorkOrderHandler(workOrders).List(w, httptest.NewRequest("GET", "/api/workorders?status=pending&machineId=press-07&limit=10", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var got []models.WorkOrder
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Len(t, got, 1)
		workOrders.AssertExpectations(t)
	})

	t.Run("default and capped limit", func(t *testing.T) {
		workOrders := new(MockWorkOrderCollection)
		workOrders.On("FindWorkOrders", mock.Anything, db.WorkOrderFilter{Limit: defaultListLimit}).Return([]models.WorkOrder{}, nil).Once()
		workOrders.On("FindWorkOrders", mock.Anything, db.WorkOrderFilter{Limit: maxListLimit}).Return([]models.WorkOrder{}, nil).Once()

		handler := NewWorkOrderHandler(workOrders)

		w := httptest.NewRecorder()
		handler.List(w, httptest.NewRequest("GET", "/api/workorders", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "[]", w.Body.String())

		w = httptest.NewRecorder()
		handler.List(w, httptest.NewRequest("GET", "/api/workorders?limit=100000", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		workOrders.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		workOrders := new(MockWorkOrderCollection)
		w := httptest.NewRecorder()
		NewWorkOrderHandler(workOrders).List(w, httptest.NewRequest("GET", "/api/workorders?limit=-3", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("db error", func(t *testing.T) {
		workOrders := new(MockWorkOrderCollection)
		workOrders.On("FindWorkOrders", mock.Anything, mock.Anything).Return(nil, errors.New("db error"))

		w := httptest.NewRecorder()
		NewWorkOrderHandler(workOrders).List(w, httptest.NewRequest("GET", "/api/workorders", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestWorkOrderHandler_Get(t *testing.T) {
	route := func(h *WorkOrderHandler) http.Handler {
		r := chi.NewRouter()
		r.Get("/api/workorders/{id}", h.Get)
		return r
	}

	t.Run("found", func(t *testing.T) {
		wo := testWorkOrder()
		workOrders := new(MockWorkOrderCollection)
		workOrders.On("FindWorkOrderByID", mock.Anything, wo.ID).Return(&wo, nil)

		w := httptest.NewRecorder()
		route(NewWorkOrderHandler(workOrders)).ServeHTTP(w, httptest.NewRequest("GET", "/api/workorders/"+wo.ID, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var got models.WorkOrder
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, wo.ID, got.ID)
	})

	t.Run("not found", func(t *testing.T) {
		workOrders := new(MockWorkOrderCollection)
		workOrders.On("FindWorkOrderByID", mock.Anything, "missing").Return(nil, db.ErrNotFound)

		w := httptest.NewRecorder()
		route(NewWorkOrderHandler(workOrders)).ServeHTTP(w, httptest.NewRequest("GET", "/api/workorders/missing", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("db error", func(t *testing.T) {
		workOrders := new(MockWorkOrderCollection)
		workOrders.On("FindWorkOrderByID", mock.Anything, "broken").Return(nil, errors.New("db error"))

		w := httptest.NewRecorder()
		route(NewWorkOrderHandler(workOrders)).ServeHTTP(w, httptest.NewRequest("GET", "/api/workorders/broken", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
