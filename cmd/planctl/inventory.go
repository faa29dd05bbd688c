package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ukydev/repair-planner/internal/db"
	"github.com/ukydev/repair-planner/internal/models"
	"gopkg.in/yaml.v3"
)

// Inventory is the YAML fixture loaded by the seed command.
type Inventory struct {
	Technicians []models.Technician `yaml:"technicians"`
	Parts       []models.Part       `yaml:"parts"`
}

// LoadInventory decodes and validates an inventory fixture.
func LoadInventory(r io.Reader) (Inventory, error) {
	var inv Inventory
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&inv); err != nil {
		if errors.Is(err, io.EOF) {
			return Inventory{}, errors.New("inventory is empty")
		}
		return Inventory{}, fmt.Errorf("decode inventory: %w", err)
	}
	if err := inv.Validate(); err != nil {
		return Inventory{}, err
	}
	return inv, nil
}

// Validate rejects entries the pool reads could not use.
func (inv Inventory) Validate() error {
	seen := make(map[string]bool)
	for i, t := range inv.Technicians {
		if t.ID == "" || t.Name == "" {
			return fmt.Errorf("technicians[%d]: id and name are required", i)
		}
		if seen["t:"+t.ID] {
			return fmt.Errorf("technicians[%d]: duplicate id %q", i, t.ID)
		}
		seen["t:"+t.ID] = true
		if t.CurrentWorkload < 0 {
			return fmt.Errorf("technicians[%d]: negative workload", i)
		}
	}
	for i, p := range inv.Parts {
		if p.PartNumber == "" {
			return fmt.Errorf("parts[%d]: partNumber is required", i)
		}
		if seen["p:"+p.PartNumber] {
			return fmt.Errorf("parts[%d]: duplicate partNumber %q", i, p.PartNumber)
		}
		seen["p:"+p.PartNumber] = true
		if p.QuantityInStock < 0 || p.UnitPrice < 0 {
			return fmt.Errorf("parts[%d]: negative stock or price", i)
		}
	}
	return nil
}

// Seed upserts every technician and part of inv.
func Seed(ctx context.Context, inv Inventory, technicians db.TechnicianCollection, parts db.PartCollection) error {
	for _, t := range inv.Technicians {
		if err := technicians.UpsertTechnician(ctx, t); err != nil {
			return fmt.Errorf("upsert technician %s: %w", t.ID, err)
		}
	}
	for _, p := range inv.Parts {
		if err := parts.UpsertPart(ctx, p); err != nil {
			return fmt.Errorf("upsert part %s: %w", p.PartNumber, err)
		}
	}
	return nil
}
