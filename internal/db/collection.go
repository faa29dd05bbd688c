package db

import (
	"context"

	"github.com/ukydev/repair-planner/internal/models"
)

// TechnicianCollection defines the technician pool operations.
type TechnicianCollection interface {
	FindAvailableTechnicians(ctx context.Context, skills []string) ([]models.Technician, error)
	UpsertTechnician(ctx context.Context, technician models.Technician) error
}

// PartCollection defines the spare part inventory operations.
type PartCollection interface {
	FindParts(ctx context.Context, partNumbers []string) ([]models.Part, error)
	UpsertPart(ctx context.Context, part models.Part) error
}

// WorkOrderFilter narrows FindWorkOrders. Empty fields match everything.
type WorkOrderFilter struct {
	Status    string
	MachineID string
	Limit     int64
}

// WorkOrderCollection defines the work order operations.
type WorkOrderCollection interface {
	InsertWorkOrder(ctx context.Context, workOrder models.WorkOrder) (models.WorkOrder, error)
	FindWorkOrderByID(ctx context.Context, id string) (*models.WorkOrder, error)
	FindWorkOrders(ctx context.Context, filter WorkOrderFilter) ([]models.WorkOrder, error)
}
