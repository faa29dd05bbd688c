// Package planner turns a diagnosed fault into a persisted repair work order.
//
// Planning resolves the skills and parts the fault needs, reads the matching
// technician and part pools concurrently, asks the external generator for a
// draft plan, reconciles the draft against the domain rules and finally
// creates the work order. Every step honors the caller's context; a failure
// anywhere aborts the invocation before anything is written.
package planner

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/repair-planner/internal/models"
	"golang.org/x/sync/errgroup"
)

// RequirementMapper resolves fault types to required skills and parts.
type RequirementMapper interface {
	RequiredSkills(faultType string) []string
	RequiredParts(faultType string) []string
}

// TechnicianFinder reads the technician pool.
type TechnicianFinder interface {
	FindAvailableTechnicians(ctx context.Context, skills []string) ([]models.Technician, error)
}

// PartFinder reads the part inventory.
type PartFinder interface {
	FindParts(ctx context.Context, partNumbers []string) ([]models.Part, error)
}

// DraftGenerator produces an untrusted draft work order from a prompt.
type DraftGenerator interface {
	GenerateDraftPlan(ctx context.Context, prompt models.Prompt) (models.DraftWorkOrder, error)
}

// Planner plans and creates work orders.
type Planner struct {
	mapper      RequirementMapper
	technicians TechnicianFinder
	parts       PartFinder
	generator   DraftGenerator
	assembler   *Assembler
	metrics     *Metrics
	logger      log.FieldLogger
}

// Option customizes a Planner.
type Option func(*Planner)

// WithMetrics records planning metrics in m.
func WithMetrics(m *Metrics) Option {
	return func(p *Planner) {
		p.metrics = m
	}
}

// WithLogger replaces the standard logrus logger.
func WithLogger(l log.FieldLogger) Option {
	return func(p *Planner) {
		p.logger = l
	}
}

// New creates a Planner.
func New(mapper RequirementMapper, technicians TechnicianFinder, parts PartFinder, generator DraftGenerator, store WorkOrderStore, opts ...Option) *Planner {
	p := &Planner{
		mapper:      mapper,
		technicians: technicians,
		parts:       parts,
		generator:   generator,
		assembler:   NewAssembler(store),
		metrics:     NewMetrics(nil),
		logger:      log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type candidates struct {
	technicians []models.Technician
	parts       []models.Part
}

// PlanAndCreateWorkOrder plans a repair for fault and creates the work order.
// Calling it twice with the same fault creates two work orders.
func (p *Planner) PlanAndCreateWorkOrder(ctx context.Context, fault models.Fault) (models.WorkOrder, error) {
	start := time.Now()
	logger := p.logger.WithFields(log.Fields{
		"fault_id":   fault.ID,
		"machine_id": fault.MachineID,
		"fault_type": fault.FaultType,
		"severity":   fault.Severity,
	})

	skills := p.mapper.RequiredSkills(fault.FaultType)
	partNumbers := p.mapper.RequiredParts(fault.FaultType)

	pool, err := p.readCandidates(ctx, skills, partNumbers)
	if err != nil {
		p.metrics.failures.WithLabelValues(stageCandidates).Inc()
		return models.WorkOrder{}, err
	}
	if len(pool.technicians) == 0 {
		logger.WithField("skills", skills).Warn("No available technicians match the required skills")
	}
	if len(pool.parts) == 0 && len(partNumbers) > 0 {
		logger.WithField("parts", partNumbers).Warn("None of the required parts are in inventory")
	}

	prompt := BuildPrompt(PlanInput{
		Fault:          fault,
		RequiredSkills: skills,
		RequiredParts:  partNumbers,
		Technicians:    pool.technicians,
		Parts:          pool.parts,
	})

	draft, err := p.generator.GenerateDraftPlan(ctx, prompt)
	if err != nil {
		p.metrics.failures.WithLabelValues(stageGenerate).Inc()
		return models.WorkOrder{}, fmt.Errorf("generate draft plan: %w", err)
	}

	wo := Reconcile(fault, draft)
	if draft.Priority.Rank() < wo.Priority.Rank() {
		logger.WithFields(log.Fields{
			"draft_priority": draft.Priority,
			"priority":       wo.Priority,
		}).Info("Raised draft priority to severity floor")
	}

	if err := ctx.Err(); err != nil {
		return models.WorkOrder{}, err
	}

	stored, err := p.assembler.Assemble(ctx, wo)
	if err != nil {
		p.metrics.failures.WithLabelValues(stagePersist).Inc()
		return models.WorkOrder{}, err
	}

	p.metrics.planned.WithLabelValues(string(stored.Priority)).Inc()
	if stored.AssignedTo == "" {
		p.metrics.unassigned.Inc()
	}
	p.metrics.duration.Observe(time.Since(start).Seconds())

	logger.WithFields(log.Fields{
		"work_order_id":     stored.ID,
		"work_order_number": stored.WorkOrderNumber,
		"priority":          stored.Priority,
		"assigned_to":       stored.AssignedTo,
		"tasks":             len(stored.Tasks),
	}).Info("Created work order")

	return stored, nil
}

// readCandidates queries the technician and part pools concurrently and waits
// for both. The first failure cancels the other read.
func (p *Planner) readCandidates(ctx context.Context, skills, partNumbers []string) (candidates, error) {
	var pool candidates
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		technicians, err := p.technicians.FindAvailableTechnicians(gctx, skills)
		if err != nil {
			return fmt.Errorf("find technicians: %w", err)
		}
		pool.technicians = technicians
		return nil
	})
	g.Go(func() error {
		parts, err := p.parts.FindParts(gctx, partNumbers)
		if err != nil {
			return fmt.Errorf("find parts: %w", err)
		}
		pool.parts = parts
		return nil
	})

	if err := g.Wait(); err != nil {
		return candidates{}, err
	}
	if pool.technicians == nil {
		pool.technicians = []models.Technician{}
	}
	if pool.parts == nil {
		pool.parts = []models.Part{}
	}
	return pool, nil
}
