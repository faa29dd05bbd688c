package models

import (
	"strings"
	"time"
)

// Priority is the urgency of a work order.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank orders priorities low(1) < medium(2) < high(3) < critical(4).
// Unknown or empty priorities rank 0. Comparison ignores case.
func (p Priority) Rank() int {
	switch p.Normalize() {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityCritical:
		return 4
	default:
		return 0
	}
}

// Normalize returns the lowercase, trimmed form of p.
func (p Priority) Normalize() Priority {
	return Priority(strings.ToLower(strings.TrimSpace(string(p))))
}

// Work order types.
const (
	TypeCorrective = "corrective"
	TypePreventive = "preventive"
	TypeEmergency  = "emergency"
)

// Work order statuses. Only StatusPending is assigned by the planner; the rest
// belong to the lifecycle owned by the work order store.
const (
	StatusPending    = "pending"
	StatusAssigned   = "assigned"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// NormalizeWorkOrderType returns the lowercase form of t when it names a
// known work order type, or "" otherwise.
func NormalizeWorkOrderType(t string) string {
	switch v := strings.ToLower(strings.TrimSpace(t)); v {
	case TypeCorrective, TypePreventive, TypeEmergency:
		return v
	default:
		return ""
	}
}

// NormalizeWorkOrderStatus returns the lowercase form of s when it names a
// known work order status, or "" otherwise.
func NormalizeWorkOrderStatus(s string) string {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case StatusPending, StatusAssigned, StatusInProgress, StatusCompleted, StatusCancelled:
		return v
	default:
		return ""
	}
}

// RepairTask is one ordered step of a work order.
type RepairTask struct {
	Sequence                 int    `json:"sequence" bson:"sequence"`
	Title                    string `json:"title" bson:"title"`
	Description              string `json:"description" bson:"description"`
	EstimatedDurationMinutes int    `json:"estimatedDurationMinutes" bson:"estimatedDurationMinutes"`
}

// PartUsage records a part the repair is expected to consume.
type PartUsage struct {
	PartNumber string `json:"partNumber" bson:"partNumber"`
	PartName   string `json:"partName,omitempty" bson:"partName,omitempty"`
	Quantity   int    `json:"quantity" bson:"quantity"`
}

// WorkOrder is the persisted repair plan for a single fault.
type WorkOrder struct {
	ID              string       `json:"id" bson:"_id"`
	WorkOrderNumber string       `json:"workOrderNumber" bson:"workOrderNumber"`
	FaultID         string       `json:"faultId" bson:"faultId"`
	MachineID       string       `json:"machineId" bson:"machineId"`
	Title           string       `json:"title" bson:"title"`
	Description     string       `json:"description" bson:"description"`
	Type            string       `json:"type" bson:"type"`         // "corrective", "preventive", "emergency"
	Priority        Priority     `json:"priority" bson:"priority"` // "low", "medium", "high", "critical"
	Status          string       `json:"status" bson:"status"`     // shard key
	AssignedTo      string       `json:"assignedTo" bson:"assignedTo"`
	Tasks           []RepairTask `json:"tasks" bson:"tasks"`
	PartsUsed       []PartUsage  `json:"partsUsed" bson:"partsUsed"`
	Notes           string       `json:"notes" bson:"notes"`
	CreatedAt       time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// DraftWorkOrder is the unvalidated plan returned by the text generator. Any
// field may be missing or inconsistent with domain rules. It has no identity
// fields: id and workOrderNumber in generator output are discarded on decode.
type DraftWorkOrder struct {
	MachineID   string       `json:"machineId,omitempty"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Type        string       `json:"type,omitempty"`
	Priority    Priority     `json:"priority,omitempty"`
	Status      string       `json:"status,omitempty"`
	AssignedTo  string       `json:"assignedTo,omitempty"`
	Tasks       []RepairTask `json:"tasks,omitempty"`
	PartsUsed   []PartUsage  `json:"partsUsed,omitempty"`
	Notes       string       `json:"notes,omitempty"`
}

// Prompt is the request handed to the text generator.
type Prompt struct {
	System string `json:"system"`
	User   string `json:"user"`
}
