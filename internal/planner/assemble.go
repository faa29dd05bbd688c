package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ukydev/repair-planner/internal/models"
)

// WorkOrderStore persists finished work orders.
type WorkOrderStore interface {
	InsertWorkOrder(ctx context.Context, workOrder models.WorkOrder) (models.WorkOrder, error)
}

// Assembler stamps identifiers and timestamps on a reconciled work order and
// creates it in the store.
type Assembler struct {
	store WorkOrderStore
	now   func() time.Time
	newID func() string
}

// NewAssembler creates an Assembler writing to store.
func NewAssembler(store WorkOrderStore) *Assembler {
	return &Assembler{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// WorkOrderNumber formats WO-<yyyymmdd>-<first 8 chars of id> using the UTC
// date of createdAt.
func WorkOrderNumber(id string, createdAt time.Time) string {
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("WO-%s-%s", createdAt.UTC().Format("20060102"), short)
}

// Assemble finalizes wo and creates it in the store. Exactly one write is
// issued per call.
func (a *Assembler) Assemble(ctx context.Context, wo models.WorkOrder) (models.WorkOrder, error) {
	now := a.now().UTC()

	if wo.ID == "" {
		wo.ID = a.newID()
	}
	if wo.WorkOrderNumber == "" {
		wo.WorkOrderNumber = WorkOrderNumber(wo.ID, now)
	}
	wo.CreatedAt = now
	wo.UpdatedAt = now
	if wo.Status == "" {
		wo.Status = models.StatusPending
	}
	if wo.Tasks == nil {
		wo.Tasks = []models.RepairTask{}
	}
	if wo.PartsUsed == nil {
		wo.PartsUsed = []models.PartUsage{}
	}

	stored, err := a.store.InsertWorkOrder(ctx, wo)
	if err != nil {
		return models.WorkOrder{}, fmt.Errorf("persist work order: %w", err)
	}
	return stored, nil
}
