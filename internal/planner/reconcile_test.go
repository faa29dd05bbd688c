package planner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/repair-planner/internal/generator"
	"github.com/ukydev/repair-planner/internal/models"
)

func testFault() models.Fault {
	return models.Fault{
		ID:          "fault-001",
		MachineID:   "press-07",
		MachineName: "Curing Press 7",
		FaultType:   "curing_temperature_excessive",
		Severity:    models.SeverityHigh,
		Description: "Platen temperature 12C above setpoint",
		RootCause:   "Thermocouple drift",
	}
}

func TestSeverityToPriority(t *testing.T) {
	tests := []struct {
		severity models.Severity
		want     models.Priority
	}{
		{models.SeverityCritical, models.PriorityCritical},
		{models.SeverityHigh, models.PriorityHigh},
		{models.SeverityMedium, models.PriorityMedium},
		{models.SeverityLow, models.PriorityLow},
		{"Critical", models.PriorityCritical},
		{"", models.PriorityMedium},
		{"catastrophic", models.PriorityMedium},
	}
	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			assert.Equal(t, tt.want, SeverityToPriority(tt.severity))
		})
	}
}

func TestReconcile_PriorityIsMaxOfDraftAndFloor(t *testing.T) {
	severities := []models.Severity{"critical", "high", "medium", "low", "", "bogus"}
	drafts := []models.Priority{"critical", "high", "medium", "low", "", "urgent", "HIGH", "Critical"}

	for _, severity := range severities {
		for _, draftPriority := range drafts {
			fault := testFault()
			fault.Severity = severity
			wo := Reconcile(fault, models.DraftWorkOrder{Priority: draftPriority, AssignedTo: "tech-1"})

			floor := SeverityToPriority(severity)
			want := floor
			if draftPriority.Rank() > floor.Rank() {
				want = draftPriority.Normalize()
			}
			assert.Equal(t, want, wo.Priority, "severity=%q draft=%q", severity, draftPriority)
			assert.GreaterOrEqual(t, wo.Priority.Rank(), floor.Rank())
			assert.NotZero(t, wo.Priority.Rank())
		}
	}
}

func TestReconcile_PriorityExamples(t *testing.T) {
	fault := testFault()

	fault.Severity = models.SeverityLow
	assert.Equal(t, models.PriorityCritical, Reconcile(fault, models.DraftWorkOrder{Priority: "critical"}).Priority)

	fault.Severity = models.SeverityCritical
	assert.Equal(t, models.PriorityCritical, Reconcile(fault, models.DraftWorkOrder{Priority: "low"}).Priority)
	assert.Equal(t, models.PriorityCritical, Reconcile(fault, models.DraftWorkOrder{}).Priority)
}

func TestReconcile_UnassignedGetsWarning(t *testing.T) {
	for _, assignee := range []string{"", "   "} {
		wo := Reconcile(testFault(), models.DraftWorkOrder{AssignedTo: assignee})
		assert.Empty(t, wo.AssignedTo)
		assert.Contains(t, wo.Notes, NoTechnicianWarning)
	}
}

func TestReconcile_WarningPreservesExistingNotes(t *testing.T) {
	wo := Reconcile(testFault(), models.DraftWorkOrder{Notes: "Order spare heater."})
	assert.Equal(t, "Order spare heater.\n\n"+NoTechnicianWarning, wo.Notes)
}

func TestReconcile_WarningNotDuplicated(t *testing.T) {
	wo := Reconcile(testFault(), models.DraftWorkOrder{Notes: NoTechnicianWarning})
	assert.Equal(t, 1, strings.Count(wo.Notes, NoTechnicianWarning))
}

func TestReconcile_AssignedKeepsDraftChoice(t *testing.T) {
	wo := Reconcile(testFault(), models.DraftWorkOrder{AssignedTo: "tech-042", Notes: "Bring IR camera."})
	assert.Equal(t, "tech-042", wo.AssignedTo)
	assert.Equal(t, "Bring IR camera.", wo.Notes)
	assert.NotContains(t, wo.Notes, NoTechnicianWarning)
}

func TestReconcile_AssignedDropsStrayWarning(t *testing.T) {
	wo := Reconcile(testFault(), models.DraftWorkOrder{
		AssignedTo: "tech-042",
		Notes:      "Bring IR camera.\n\n" + NoTechnicianWarning,
	})
	assert.Equal(t, "tech-042", wo.AssignedTo)
	assert.Equal(t, "Bring IR camera.", wo.Notes)
}

func TestReconcile_WarningBetweenNotesRemovedCleanly(t *testing.T) {
	wo := Reconcile(testFault(), models.DraftWorkOrder{
		AssignedTo: "tech-042",
		Notes:      "Bring IR camera.\n\n" + NoTechnicianWarning + "\n\nCheck heater relay.",
	})
	assert.Equal(t, "Bring IR camera.\n\nCheck heater relay.", wo.Notes)
}

func TestReconcile_UnknownTypeAndStatusDefaulted(t *testing.T) {
	wo := Reconcile(testFault(), models.DraftWorkOrder{Type: "banana", Status: "finished-ish", AssignedTo: "tech-1"})
	assert.Equal(t, models.TypeCorrective, wo.Type)
	assert.Equal(t, models.StatusPending, wo.Status)

	wo = Reconcile(testFault(), models.DraftWorkOrder{Type: " Preventive", Status: "IN_PROGRESS", AssignedTo: "tech-1"})
	assert.Equal(t, models.TypePreventive, wo.Type)
	assert.Equal(t, models.StatusInProgress, wo.Status)
}

func TestReconcile_StructuralDefaults(t *testing.T) {
	fault := testFault()
	wo := Reconcile(fault, models.DraftWorkOrder{})

	assert.Equal(t, models.StatusPending, wo.Status)
	assert.Equal(t, models.TypeCorrective, wo.Type)
	assert.Equal(t, "Repair for curing_temperature_excessive", wo.Title)
	assert.Equal(t, fault.Description, wo.Description)
	require.NotNil(t, wo.Tasks)
	require.NotNil(t, wo.PartsUsed)
	assert.Empty(t, wo.Tasks)
	assert.Empty(t, wo.PartsUsed)
}

func TestReconcile_KeepsDraftValues(t *testing.T) {
	draft := models.DraftWorkOrder{
		Title:       "Replace thermocouple on press 7",
		Description: "Swap TC and recalibrate",
		Type:        models.TypeEmergency,
		Status:      models.StatusAssigned,
		AssignedTo:  "tech-1",
		Tasks: []models.RepairTask{
			{Sequence: 1, Title: "Lockout"},
			{Sequence: 2, Title: "Swap"},
		},
		PartsUsed: []models.PartUsage{{PartNumber: "TCP-650", Quantity: 1}},
	}
	wo := Reconcile(testFault(), draft)

	assert.Equal(t, draft.Title, wo.Title)
	assert.Equal(t, draft.Description, wo.Description)
	assert.Equal(t, models.TypeEmergency, wo.Type)
	assert.Equal(t, models.StatusAssigned, wo.Status)
	assert.Equal(t, draft.Tasks, wo.Tasks)
	assert.Equal(t, draft.PartsUsed, wo.PartsUsed)
}

func TestReconcile_NumbersUnsequencedTasks(t *testing.T) {
	draft := models.DraftWorkOrder{
		AssignedTo: "tech-1",
		Tasks: []models.RepairTask{
			{Title: "Lockout"},
			{Sequence: 0, Title: "Swap"},
			{Sequence: 7, Title: "Verify"},
		},
	}
	wo := Reconcile(testFault(), draft)

	require.Len(t, wo.Tasks, 3)
	assert.Equal(t, 1, wo.Tasks[0].Sequence)
	assert.Equal(t, 2, wo.Tasks[1].Sequence)
	assert.Equal(t, 7, wo.Tasks[2].Sequence)
	assert.Equal(t, 0, draft.Tasks[0].Sequence, "draft must not be modified")
}

func TestReconcile_PinsMachineAndFault(t *testing.T) {
	fault := testFault()
	for _, machineID := range []string{"", "press-99", fault.MachineID} {
		wo := Reconcile(fault, models.DraftWorkOrder{MachineID: machineID})
		assert.Equal(t, fault.MachineID, wo.MachineID)
		assert.Equal(t, fault.ID, wo.FaultID)
	}
}

func TestReconcile_LeavesIdentityUnset(t *testing.T) {
	result := generator.ParseDraft([]byte(`{"id": "wo-1", "workOrderNumber": "WO-ANYTHING", "assignedTo": "tech-1"}`))
	valid, ok := result.(generator.ValidDraft)
	require.True(t, ok)

	wo := Reconcile(testFault(), valid.Draft)
	assert.Empty(t, wo.ID)
	assert.Empty(t, wo.WorkOrderNumber)
}
