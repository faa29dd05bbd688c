package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/repair-planner/internal/config"
	"github.com/ukydev/repair-planner/internal/intake"
	"github.com/ukydev/repair-planner/internal/knowledge"
	"github.com/ukydev/repair-planner/internal/models"
)

// Machine is a piece of plant equipment that can report faults.
type Machine struct {
	ID   string
	Name string
}

var machines = []Machine{
	{ID: "press-01", Name: "Curing Press 1"},
	{ID: "press-07", Name: "Curing Press 7"},
	{ID: "mixer-02", Name: "Banbury Mixer 2"},
	{ID: "extruder-03", Name: "Tread Extruder 3"},
	{ID: "calender-01", Name: "Four-Roll Calender 1"},
	{ID: "builder-12", Name: "Tire Building Machine 12"},
}

var severities = []models.Severity{
	models.SeverityLow,
	models.SeverityMedium,
	models.SeverityMedium,
	models.SeverityHigh,
	models.SeverityCritical,
}

var faultDescriptions = map[string]string{
	"curing_temperature_excessive": "Platen temperature %d°C above setpoint during cure cycle",
	"hydraulic_leak":               "Hydraulic pressure dropped %d bar over the last shift",
	"bearing_failure":              "Vibration amplitude %d%% above baseline on drive bearing",
}

// publisher delivers a fault to the planner.
type publisher func(fault models.Fault) error

var authToken string

func authorizedPost(url string, contentType string, body *bytes.Buffer) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 120 * time.Second}
	return client.Do(req)
}

func randomFault(faultTypes []string) models.Fault {
	machine := machines[rand.Intn(len(machines))]
	faultType := faultTypes[rand.Intn(len(faultTypes))]
	detected := time.Now().UTC().Add(-time.Duration(rand.Intn(300)) * time.Second)

	description := fmt.Sprintf("Anomaly detected: %s", faultType)
	if format, ok := faultDescriptions[faultType]; ok {
		description = fmt.Sprintf(format, 5+rand.Intn(20))
	}

	return models.Fault{
		ID:          uuid.NewString(),
		MachineID:   machine.ID,
		MachineName: machine.Name,
		FaultType:   faultType,
		Severity:    severities[rand.Intn(len(severities))],
		Description: description,
		DetectedAt:  detected,
		DiagnosedAt: time.Now().UTC(),
	}
}

// sendFault posts a fault to the planning endpoint and returns the created
// work order number.
func sendFault(apiURL string, fault models.Fault) (string, error) {
	data, err := json.Marshal(fault)
	if err != nil {
		return "", fmt.Errorf("failed to marshal fault: %w", err)
	}

	resp, err := authorizedPost(apiURL+"/faults/plan", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return "", fmt.Errorf("failed to send fault: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("planning failed with status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var wo models.WorkOrder
	if err := json.NewDecoder(resp.Body).Decode(&wo); err != nil {
		return "", fmt.Errorf("failed to decode work order: %w", err)
	}
	return wo.WorkOrderNumber, nil
}

func httpPublisher(apiURL string) publisher {
	return func(fault models.Fault) error {
		number, err := sendFault(apiURL, fault)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"fault_id":          fault.ID,
			"work_order_number": number,
		}).Info("Work order created")
		return nil
	}
}

func mqttPublisher(client mqtt.Client, topic string) publisher {
	return func(fault models.Fault) error {
		data, err := json.Marshal(fault)
		if err != nil {
			return fmt.Errorf("failed to marshal fault: %w", err)
		}
		token := client.Publish(topic, 1, false, data)
		if !token.WaitTimeout(5 * time.Second) {
			return intake.ErrTimeout
		}
		return token.Error()
	}
}

func envInt(name string, fallback, min int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= min {
			return n
		}
	}
	return fallback
}

func main() {
	// Optional JWT for the protected API
	authToken = os.Getenv("SIM_AUTH_TOKEN")

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}
	interval := time.Duration(envInt("SIM_TICK_SECONDS", 30, 1)) * time.Second
	count := envInt("SIM_FAULT_COUNT", 0, 0) // zero runs until stopped

	faultTypes := knowledge.Default().FaultTypes()
	publish := httpPublisher(apiURL)
	target := apiURL

	if broker := os.Getenv("SIM_MQTT_BROKER"); broker != "" {
		cfg := config.MQTTConfig{
			Broker:     broker,
			ClientID:   "fault-simulator-" + uuid.NewString()[:8],
			FaultTopic: "factory/faults/diagnosed",
		}
		if topic := os.Getenv("MQTT_FAULT_TOPIC"); topic != "" {
			cfg.FaultTopic = topic
		}
		client, err := intake.Connect(cfg)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to MQTT broker")
		}
		defer client.Disconnect(250)
		publish = mqttPublisher(client, cfg.FaultTopic)
		target = broker + "/" + cfg.FaultTopic
	}

	log.WithFields(log.Fields{
		"target":      target,
		"interval":    interval,
		"fault_types": len(faultTypes),
		"machines":    len(machines),
	}).Info("Starting fault simulation")

	tick := time.NewTicker(interval)
	defer tick.Stop()
	for sent := 0; count == 0 || sent < count; sent++ {
		fault := randomFault(faultTypes)
		if err := publish(fault); err != nil {
			log.WithError(err).WithField("machine_id", fault.MachineID).Error("Failed to deliver fault")
		} else {
			log.WithFields(log.Fields{
				"fault_id":   fault.ID,
				"machine_id": fault.MachineID,
				"fault_type": fault.FaultType,
				"severity":   fault.Severity,
			}).Info("Delivered fault")
		}
		<-tick.C
	}
	log.Info("Fault simulation finished")
}
