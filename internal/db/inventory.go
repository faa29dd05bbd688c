package db

import (
	"context"
	"fmt"

	"github.com/ukydev/repair-planner/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTechnicianCollection implements TechnicianCollection for MongoDB.
type MongoTechnicianCollection struct {
	Collection *mongo.Collection
}

func availableTechniciansFilter(skills []string) bson.M {
	return bson.M{
		"available": true,
		"skills":    bson.M{"$in": skills},
	}
}

// FindAvailableTechnicians returns available technicians holding at least one
// of skills, least loaded first. The order among equal workloads is whatever
// the server returns.
func (c *MongoTechnicianCollection) FindAvailableTechnicians(ctx context.Context, skills []string) ([]models.Technician, error) {
	if len(skills) == 0 {
		return []models.Technician{}, nil
	}
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	opts := options.Find().SetSort(bson.D{{Key: "currentWorkload", Value: 1}})
	cursor, err := c.Collection.Find(ctx, availableTechniciansFilter(skills), opts)
	if err != nil {
		return nil, fmt.Errorf("find technicians: %w", err)
	}
	defer cursor.Close(ctx)

	technicians := []models.Technician{}
	if err := cursor.All(ctx, &technicians); err != nil {
		return nil, fmt.Errorf("decode technicians: %w", err)
	}
	return technicians, nil
}

// UpsertTechnician inserts or replaces a technician by id.
func (c *MongoTechnicianCollection) UpsertTechnician(ctx context.Context, technician models.Technician) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	if technician.Skills == nil {
		technician.Skills = []string{}
	}
	_, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": technician.ID}, technician, options.Replace().SetUpsert(true))
	return err
}

// MongoPartCollection implements PartCollection for MongoDB.
type MongoPartCollection struct {
	Collection *mongo.Collection
}

func partsFilter(partNumbers []string) bson.M {
	return bson.M{"partNumber": bson.M{"$in": partNumbers}}
}

// FindParts returns the inventory entries for partNumbers. Numbers with no
// matching part are left out of the result.
func (c *MongoPartCollection) FindParts(ctx context.Context, partNumbers []string) ([]models.Part, error) {
	if len(partNumbers) == 0 {
		return []models.Part{}, nil
	}
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	cursor, err := c.Collection.Find(ctx, partsFilter(partNumbers))
	if err != nil {
		return nil, fmt.Errorf("find parts: %w", err)
	}
	defer cursor.Close(ctx)

	parts := []models.Part{}
	if err := cursor.All(ctx, &parts); err != nil {
		return nil, fmt.Errorf("decode parts: %w", err)
	}
	return parts, nil
}

// UpsertPart inserts or replaces a part by id. Parts without an id are keyed
// by part number.
func (c *MongoPartCollection) UpsertPart(ctx context.Context, part models.Part) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	if part.ID == "" {
		part.ID = part.PartNumber
	}
	_, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": part.ID}, part, options.Replace().SetUpsert(true))
	return err
}
