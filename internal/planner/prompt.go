package planner

import (
	"fmt"
	"strings"

	"github.com/ukydev/repair-planner/internal/models"
)

// Banners inserted into the prompt when a candidate pool comes back empty.
const (
	NoTechniciansBanner = "!!! WARNING: NO AVAILABLE TECHNICIANS MATCH THE REQUIRED SKILLS. Leave assignedTo empty. !!!"
	NoPartsBanner       = "!!! WARNING: NONE OF THE REQUIRED PARTS ARE IN INVENTORY. Plan for procurement. !!!"
)

const systemPrompt = `You are a maintenance planner for a tire manufacturing plant.
Given a diagnosed equipment fault, the skills and parts it needs, and the technicians and parts
available, produce a repair work order.

Respond with a single JSON object and nothing else, using these fields:
{
  "title": string,
  "description": string,
  "type": "corrective" | "preventive" | "emergency",
  "priority": "critical" | "high" | "medium" | "low",
  "assignedTo": string (technician id, or "" when nobody suitable is available),
  "tasks": [{"sequence": number, "title": string, "description": string, "estimatedDurationMinutes": number}],
  "partsUsed": [{"partNumber": string, "partName": string, "quantity": number}],
  "notes": string
}
Prefer the least loaded technician whose skills cover the fault. Only list parts from the
inventory section. Include safety steps such as lockout/tagout as tasks.`

// PlanInput is everything the generator is told about one fault.
type PlanInput struct {
	Fault          models.Fault
	RequiredSkills []string
	RequiredParts  []string
	Technicians    []models.Technician
	Parts          []models.Part
}

// BuildPrompt renders in as a generator prompt.
func BuildPrompt(in PlanInput) models.Prompt {
	var b strings.Builder

	f := in.Fault
	b.WriteString("## Fault\n")
	fmt.Fprintf(&b, "- Fault ID: %s\n", f.ID)
	fmt.Fprintf(&b, "- Machine: %s (%s)\n", f.MachineName, f.MachineID)
	fmt.Fprintf(&b, "- Fault type: %s\n", f.FaultType)
	fmt.Fprintf(&b, "- Severity: %s\n", f.Severity)
	fmt.Fprintf(&b, "- Description: %s\n", f.Description)
	fmt.Fprintf(&b, "- Root cause: %s\n", f.RootCause)
	if !f.DetectedAt.IsZero() {
		fmt.Fprintf(&b, "- Detected at: %s\n", f.DetectedAt.UTC().Format("2006-01-02 15:04 MST"))
	}
	if len(f.RecommendedActions) > 0 {
		b.WriteString("- Recommended actions:\n")
		for _, action := range f.RecommendedActions {
			fmt.Fprintf(&b, "  - %s\n", action)
		}
	}

	b.WriteString("\n## Requirements\n")
	fmt.Fprintf(&b, "- Required skills: %s\n", joinOrNone(in.RequiredSkills))
	fmt.Fprintf(&b, "- Required parts: %s\n", joinOrNone(in.RequiredParts))

	b.WriteString("\n## Available technicians\n")
	if len(in.Technicians) == 0 {
		b.WriteString(NoTechniciansBanner + "\n")
	}
	for _, t := range in.Technicians {
		fmt.Fprintf(&b, "- %s (id: %s) skills: %s; workload: %.1fh; available: %t\n",
			t.Name, t.ID, joinOrNone(t.Skills), t.CurrentWorkload, t.Available)
	}

	b.WriteString("\n## Parts inventory\n")
	if len(in.Parts) == 0 {
		b.WriteString(NoPartsBanner + "\n")
	}
	for _, p := range in.Parts {
		fmt.Fprintf(&b, "- %s %s: %d in stock at %s, $%.2f each\n",
			p.PartNumber, p.Name, p.QuantityInStock, p.Location, p.UnitPrice)
	}

	return models.Prompt{System: systemPrompt, User: b.String()}
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
