package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/ukydev/repair-planner/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoWorkOrderCollection implements WorkOrderCollection for MongoDB. The
// collection is expected to be sharded on status.
type MongoWorkOrderCollection struct {
	Collection *mongo.Collection
}

// InsertWorkOrder creates a work order and returns the stored document.
func (c *MongoWorkOrderCollection) InsertWorkOrder(ctx context.Context, workOrder models.WorkOrder) (models.WorkOrder, error) {
	if c.Collection == nil {
		return models.WorkOrder{}, ErrNilCollection
	}
	if workOrder.ID == "" {
		return models.WorkOrder{}, errors.New("work order id is required")
	}
	if workOrder.Status == "" {
		return models.WorkOrder{}, errors.New("work order status is required")
	}
	if _, err := c.Collection.InsertOne(ctx, workOrder); err != nil {
		return models.WorkOrder{}, fmt.Errorf("insert work order: %w", err)
	}
	return workOrder, nil
}

// FindWorkOrderByID finds a work order by its id.
func (c *MongoWorkOrderCollection) FindWorkOrderByID(ctx context.Context, id string) (*models.WorkOrder, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	var workOrder models.WorkOrder
	err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&workOrder)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &workOrder, nil
}

func workOrdersFilter(filter WorkOrderFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.MachineID != "" {
		query["machineId"] = filter.MachineID
	}
	return query
}

// FindWorkOrders lists work orders matching filter, newest first.
func (c *MongoWorkOrderCollection) FindWorkOrders(ctx context.Context, filter WorkOrderFilter) ([]models.WorkOrder, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}
	cursor, err := c.Collection.Find(ctx, workOrdersFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("find work orders: %w", err)
	}
	defer cursor.Close(ctx)

	workOrders := []models.WorkOrder{}
	if err := cursor.All(ctx, &workOrders); err != nil {
		return nil, fmt.Errorf("decode work orders: %w", err)
	}
	return workOrders, nil
}
