package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ukydev/repair-planner/internal/models"
)

func TestBuildPrompt_WithCandidates(t *testing.T) {
	fault := testFault()
	fault.RecommendedActions = []string{"Replace thermocouple", "Recalibrate controller"}

	prompt := BuildPrompt(PlanInput{
		Fault:          fault,
		RequiredSkills: []string{"temperature_control", "instrumentation"},
		RequiredParts:  []string{"TCP-650"},
		Technicians: []models.Technician{
			{ID: "tech-002", Name: "Maria Lopez", Skills: []string{"temperature_control"}, Available: true, CurrentWorkload: 3.5},
		},
		Parts: []models.Part{
			{PartNumber: "TCP-650", Name: "Type K thermocouple", QuantityInStock: 12, Location: "Aisle 4, Bin 2", UnitPrice: 48.5},
		},
	})

	assert.Contains(t, prompt.System, `"assignedTo"`)
	assert.Contains(t, prompt.User, "Curing Press 7 (press-07)")
	assert.Contains(t, prompt.User, "Fault type: curing_temperature_excessive")
	assert.Contains(t, prompt.User, "Severity: high")
	assert.Contains(t, prompt.User, "  - Recalibrate controller")
	assert.Contains(t, prompt.User, "Required skills: temperature_control, instrumentation")
	assert.Contains(t, prompt.User, "Maria Lopez (id: tech-002) skills: temperature_control; workload: 3.5h; available: true")
	assert.Contains(t, prompt.User, "TCP-650 Type K thermocouple: 12 in stock at Aisle 4, Bin 2, $48.50 each")
	assert.NotContains(t, prompt.User, NoTechniciansBanner)
	assert.NotContains(t, prompt.User, NoPartsBanner)
}

func TestBuildPrompt_EmptyPools(t *testing.T) {
	prompt := BuildPrompt(PlanInput{
		Fault:          testFault(),
		RequiredSkills: []string{"general_maintenance"},
		RequiredParts:  []string{},
	})

	assert.Contains(t, prompt.User, NoTechniciansBanner)
	assert.Contains(t, prompt.User, NoPartsBanner)
	assert.Contains(t, prompt.User, "Required parts: none")
}
