// Package intake receives diagnosed faults over MQTT and publishes the work
// orders planned for them.
package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/repair-planner/internal/config"
	"github.com/ukydev/repair-planner/internal/models"
)

const (
	qosAtLeastOnce  = 1
	connectTimeout  = 10 * time.Second
	publishTimeout  = 5 * time.Second
	disconnectQuiet = 250 // milliseconds
)

// ErrTimeout is returned when the broker does not acknowledge in time.
var ErrTimeout = errors.New("mqtt operation timed out")

// Planner plans and persists a work order for a diagnosed fault.
type Planner interface {
	PlanAndCreateWorkOrder(ctx context.Context, fault models.Fault) (models.WorkOrder, error)
}

// Connect opens a client connection to the configured broker.
func Connect(cfg config.MQTTConfig) (mqtt.Client, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt broker is empty")
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetOrderMatters(false).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		}).
		SetOnConnectHandler(func(_ mqtt.Client) {
			log.WithField("broker", cfg.Broker).Info("Connected to MQTT broker")
		})

	client := mqtt.NewClient(opts)
	if err := wait(client.Connect(), connectTimeout); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return client, nil
}

// Subscriber plans a work order for every fault published on the fault topic.
type Subscriber struct {
	client         mqtt.Client
	planner        Planner
	faultTopic     string
	workOrderTopic string
	planTimeout    time.Duration
	logger         log.FieldLogger
}

// NewSubscriber creates a Subscriber. planTimeout bounds each planning
// invocation; zero means no bound beyond the subscriber's context.
func NewSubscriber(client mqtt.Client, planner Planner, cfg config.MQTTConfig, planTimeout time.Duration) *Subscriber {
	return &Subscriber{
		client:         client,
		planner:        planner,
		faultTopic:     cfg.FaultTopic,
		workOrderTopic: cfg.WorkOrderTopic,
		planTimeout:    planTimeout,
		logger:         log.WithField("component", "intake"),
	}
}

// Start subscribes to the fault topic. Messages are handled until ctx is done
// or Stop is called.
func (s *Subscriber) Start(ctx context.Context) error {
	token := s.client.Subscribe(s.faultTopic, qosAtLeastOnce, func(_ mqtt.Client, msg mqtt.Message) {
		s.handle(ctx, msg)
	})
	if err := wait(token, connectTimeout); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.faultTopic, err)
	}
	s.logger.WithField("topic", s.faultTopic).Info("Listening for diagnosed faults")
	return nil
}

// Stop unsubscribes and disconnects from the broker.
func (s *Subscriber) Stop() {
	if err := wait(s.client.Unsubscribe(s.faultTopic), publishTimeout); err != nil {
		s.logger.WithError(err).Warn("Failed to unsubscribe")
	}
	s.client.Disconnect(disconnectQuiet)
}

func (s *Subscriber) handle(ctx context.Context, msg mqtt.Message) {
	if ctx.Err() != nil {
		return
	}
	logger := s.logger.WithField("topic", msg.Topic())

	var fault models.Fault
	if err := json.Unmarshal(msg.Payload(), &fault); err != nil {
		logger.WithError(err).Warn("Dropping undecodable fault message")
		return
	}
	if err := fault.Validate(); err != nil {
		logger.WithError(err).Warn("Dropping invalid fault message")
		return
	}
	logger = logger.WithFields(log.Fields{
		"fault_id":   fault.ID,
		"machine_id": fault.MachineID,
	})

	planCtx := ctx
	if s.planTimeout > 0 {
		var cancel context.CancelFunc
		planCtx, cancel = context.WithTimeout(ctx, s.planTimeout)
		defer cancel()
	}

	wo, err := s.planner.PlanAndCreateWorkOrder(planCtx, fault)
	if err != nil {
		logger.WithError(err).Error("Failed to plan work order for fault")
		return
	}

	payload, err := json.Marshal(wo)
	if err != nil {
		logger.WithError(err).Error("Failed to encode work order")
		return
	}
	if err := wait(s.client.Publish(s.workOrderTopic, qosAtLeastOnce, false, payload), publishTimeout); err != nil {
		logger.WithError(err).WithField("work_order_id", wo.ID).Error("Failed to publish work order")
		return
	}
	logger.WithFields(log.Fields{
		"work_order_id":     wo.ID,
		"work_order_number": wo.WorkOrderNumber,
	}).Info("Published work order")
}

func wait(token mqtt.Token, timeout time.Duration) error {
	if !token.WaitTimeout(timeout) {
		return ErrTimeout
	}
	return token.Error()
}
