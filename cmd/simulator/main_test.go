package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/ukydev/repair-planner/internal/knowledge"
	"github.com/ukydev/repair-planner/internal/models"
)

func TestRandomFault(t *testing.T) {
	faultTypes := knowledge.Default().FaultTypes()

	for i := 0; i < 50; i++ {
		fault := randomFault(faultTypes)
		if err := fault.Validate(); err != nil {
			t.Fatalf("random fault is invalid: %v", err)
		}
		if !validSeverity(fault.Severity) {
			t.Errorf("unexpected severity %q", fault.Severity)
		}
		if fault.DetectedAt.After(fault.DiagnosedAt) {
			t.Errorf("fault detected after diagnosis: %v > %v", fault.DetectedAt, fault.DiagnosedAt)
		}
		if fault.Description == "" {
			t.Error("fault has no description")
		}
	}
}

func validSeverity(s models.Severity) bool {
	for _, known := range severities {
		if s == known {
			return true
		}
	}
	return false
}

func TestRandomFault_UniqueIDs(t *testing.T) {
	faultTypes := []string{"hydraulic_leak"}
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := randomFault(faultTypes).ID
		if seen[id] {
			t.Fatalf("duplicate fault id %s", id)
		}
		seen[id] = true
	}
}

func TestSendFault_Success(t *testing.T) {
	authToken = "sim-token"
	defer func() { authToken = "" }()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if r.URL.Path != "/api/faults/plan" {
			t.Errorf("Expected /api/faults/plan, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sim-token" {
			t.Errorf("Expected bearer token, got %q", got)
		}
		var fault models.Fault
		if err := json.NewDecoder(r.Body).Decode(&fault); err != nil {
			t.Errorf("Failed to decode fault: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.WorkOrder{
			ID:              "3f2a9c1e-0000",
			WorkOrderNumber: "WO-20250314-3f2a9c1e",
			MachineID:       fault.MachineID,
		})
	}))
	defer server.Close()

	number, err := sendFault(server.URL+"/api", randomFault([]string{"bearing_failure"}))
	if err != nil {
		t.Fatalf("sendFault failed: %v", err)
	}
	if number != "WO-20250314-3f2a9c1e" {
		t.Errorf("unexpected work order number %q", number)
	}
}

func TestSendFault_ServerResponseCodes(t *testing.T) {
	for _, code := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusBadGateway, http.StatusInternalServerError} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "planner said no", code)
		}))

		_, err := sendFault(server.URL, randomFault([]string{"hydraulic_leak"}))
		if err == nil {
			t.Errorf("expected error for status %d", code)
		} else if !strings.Contains(err.Error(), "planner said no") {
			t.Errorf("error should carry the response body, got %v", err)
		}
		server.Close()
	}
}

func TestSendFault_NetworkError(t *testing.T) {
	_, err := sendFault("http://127.0.0.1:1", randomFault([]string{"hydraulic_leak"}))
	if err == nil {
		t.Error("expected network error")
	}
}

type stubToken struct {
	err      error
	timedOut bool
}

func (s *stubToken) Wait() bool                       { return !s.timedOut }
func (s *stubToken) WaitTimeout(_ time.Duration) bool { return !s.timedOut }
func (s *stubToken) Error() error                     { return s.err }
func (s *stubToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type stubClient struct {
	mqtt.Client
	topic   string
	payload []byte
	token   *stubToken
}

func (c *stubClient) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	c.topic = topic
	c.payload = payload.([]byte)
	return c.token
}

func TestMQTTPublisher(t *testing.T) {
	client := &stubClient{token: &stubToken{}}
	fault := randomFault([]string{"hydraulic_leak"})

	if err := mqttPublisher(client, "factory/faults/diagnosed")(fault); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if client.topic != "factory/faults/diagnosed" {
		t.Errorf("unexpected topic %q", client.topic)
	}
	var got models.Fault
	if err := json.Unmarshal(client.payload, &got); err != nil {
		t.Fatalf("payload is not a fault: %v", err)
	}
	if got.ID != fault.ID {
		t.Errorf("expected fault %s, got %s", fault.ID, got.ID)
	}

	client.token = &stubToken{err: errors.New("broker refused")}
	if err := mqttPublisher(client, "factory/faults/diagnosed")(fault); err == nil {
		t.Error("expected broker error")
	}

	client.token = &stubToken{timedOut: true}
	if err := mqttPublisher(client, "factory/faults/diagnosed")(fault); err == nil {
		t.Error("expected timeout error")
	}
}

func TestEnvInt(t *testing.T) {
	testCases := []struct {
		envValue string
		expected int
	}{
		{"", 30},
		{"5", 5},
		{"0", 30},
		{"invalid", 30},
		{"-2", 30},
	}

	for _, tc := range testCases {
		t.Run("tick_"+tc.envValue, func(t *testing.T) {
			t.Setenv("SIM_TICK_SECONDS", tc.envValue)
			if got := envInt("SIM_TICK_SECONDS", 30, 1); got != tc.expected {
				t.Errorf("For env value '%s', expected %d, got %d", tc.envValue, tc.expected, got)
			}
		})
	}
}
