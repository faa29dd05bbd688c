package models

import (
	"errors"
	"time"
)

// Severity is the diagnosed seriousness of a fault.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Fault is a diagnosed equipment malfunction. It is produced upstream and only
// read by the planner.
type Fault struct {
	ID                 string    `json:"id" bson:"_id"`
	MachineID          string    `json:"machineId" bson:"machineId"`
	MachineName        string    `json:"machineName" bson:"machineName"`
	FaultType          string    `json:"faultType" bson:"faultType"`
	Severity           Severity  `json:"severity" bson:"severity"`
	Description        string    `json:"description" bson:"description"`
	RootCause          string    `json:"rootCause" bson:"rootCause"`
	RecommendedActions []string  `json:"recommendedActions" bson:"recommendedActions"`
	DetectedAt         time.Time `json:"detectedAt" bson:"detectedAt"`
	DiagnosedAt        time.Time `json:"diagnosedAt" bson:"diagnosedAt"`
}

// Validate checks the fields the planner cannot work without.
func (f *Fault) Validate() error {
	if f.ID == "" {
		return errors.New("fault id is required")
	}
	if f.MachineID == "" {
		return errors.New("machine id is required")
	}
	if f.FaultType == "" {
		return errors.New("fault type is required")
	}
	return nil
}

// Technician is a maintenance technician who may be assigned a work order.
type Technician struct {
	ID              string   `json:"id" bson:"_id" yaml:"id"`
	Name            string   `json:"name" bson:"name" yaml:"name"`
	Department      string   `json:"department" bson:"department" yaml:"department"`
	Skills          []string `json:"skills" bson:"skills" yaml:"skills"`
	Available       bool     `json:"available" bson:"available" yaml:"available"`
	CurrentWorkload float64  `json:"currentWorkload" bson:"currentWorkload" yaml:"currentWorkload"` // in hours
}

// Part is a spare part held in inventory.
type Part struct {
	ID              string  `json:"id" bson:"_id" yaml:"id"`
	PartNumber      string  `json:"partNumber" bson:"partNumber" yaml:"partNumber"`
	Name            string  `json:"name" bson:"name" yaml:"name"`
	QuantityInStock int     `json:"quantityInStock" bson:"quantityInStock" yaml:"quantityInStock"`
	Location        string  `json:"location" bson:"location" yaml:"location"`
	UnitPrice       float64 `json:"unitPrice" bson:"unitPrice" yaml:"unitPrice"` // in USD
}
