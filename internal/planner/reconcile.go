package planner

import (
	"fmt"
	"strings"

	"github.com/ukydev/repair-planner/internal/models"
)

// NoTechnicianWarning is appended to the notes of every work order that leaves
// planning without an assignee. Automated checks search for this exact text.
const NoTechnicianWarning = "WARNING: NO TECHNICIAN ASSIGNED - no qualified technician was available; manual assignment required."

// SeverityToPriority maps a fault severity to the lowest priority its work
// order may carry. Unknown severities map to medium.
func SeverityToPriority(severity models.Severity) models.Priority {
	switch models.Priority(severity).Normalize() {
	case models.PriorityCritical:
		return models.PriorityCritical
	case models.PriorityHigh:
		return models.PriorityHigh
	case models.PriorityMedium:
		return models.PriorityMedium
	case models.PriorityLow:
		return models.PriorityLow
	default:
		return models.PriorityMedium
	}
}

// EnforcePriorityFloor returns the higher of draft and the floor implied by
// severity. A draft priority that is not a recognized level never wins.
func EnforcePriorityFloor(draft models.Priority, severity models.Severity) models.Priority {
	floor := SeverityToPriority(severity)
	if draft.Rank() > floor.Rank() {
		return draft.Normalize()
	}
	return floor
}

// Reconcile turns an untrusted draft into a work order that satisfies the
// domain rules for fault. It does not assign identifiers or timestamps.
// An assignee made only of whitespace counts as no assignee: it is cleared and
// the order carries NoTechnicianWarning.
func Reconcile(fault models.Fault, draft models.DraftWorkOrder) models.WorkOrder {
	wo := models.WorkOrder{
		Title:       draft.Title,
		Description: draft.Description,
		Type:        models.NormalizeWorkOrderType(draft.Type),
		Status:      models.NormalizeWorkOrderStatus(draft.Status),
		AssignedTo:  draft.AssignedTo,
		Tasks:       draft.Tasks,
		PartsUsed:   draft.PartsUsed,
		Notes:       draft.Notes,
	}

	wo.Priority = EnforcePriorityFloor(draft.Priority, fault.Severity)

	if strings.TrimSpace(wo.AssignedTo) == "" {
		wo.AssignedTo = ""
		wo.Notes = appendNote(wo.Notes, NoTechnicianWarning)
	} else {
		wo.Notes = removeNote(wo.Notes, NoTechnicianWarning)
	}

	applyDefaults(&wo, fault)

	wo.MachineID = fault.MachineID
	wo.FaultID = fault.ID

	return wo
}

func appendNote(notes, note string) string {
	if strings.Contains(notes, note) {
		return notes
	}
	if strings.TrimSpace(notes) == "" {
		return note
	}
	return notes + "\n\n" + note
}

// removeNote drops note from notes so the warning never outlives an
// assignment. The paragraphs around it stay separated by one blank line.
func removeNote(notes, note string) string {
	if !strings.Contains(notes, note) {
		return notes
	}
	var kept []string
	for _, para := range strings.Split(strings.ReplaceAll(notes, note, "\n\n"), "\n\n") {
		if para = strings.TrimSpace(para); para != "" {
			kept = append(kept, para)
		}
	}
	return strings.Join(kept, "\n\n")
}

func applyDefaults(wo *models.WorkOrder, fault models.Fault) {
	if wo.Status == "" {
		wo.Status = models.StatusPending
	}
	if wo.Type == "" {
		wo.Type = models.TypeCorrective
	}
	if wo.Title == "" {
		wo.Title = fmt.Sprintf("Repair for %s", fault.FaultType)
	}
	if wo.Description == "" {
		wo.Description = fault.Description
	}

	tasks := make([]models.RepairTask, len(wo.Tasks))
	copy(tasks, wo.Tasks)
	for i := range tasks {
		if tasks[i].Sequence <= 0 {
			tasks[i].Sequence = i + 1
		}
	}
	wo.Tasks = tasks

	parts := make([]models.PartUsage, len(wo.PartsUsed))
	copy(parts, wo.PartsUsed)
	wo.PartsUsed = parts
}
