package generator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ukydev/repair-planner/internal/models"
)

// ErrMalformedDraft is returned when the generator output does not parse into
// a draft work order.
var ErrMalformedDraft = errors.New("malformed draft work order")

// DraftResult is the outcome of parsing generator output: either ValidDraft or
// MalformedDraft.
type DraftResult interface {
	draftResult()
}

// ValidDraft carries a draft that passed the structural checks. Its content is
// still untrusted and must be reconciled before use.
type ValidDraft struct {
	Draft models.DraftWorkOrder
}

// MalformedDraft explains why generator output was rejected.
type MalformedDraft struct {
	Reason string
}

func (ValidDraft) draftResult()     {}
func (MalformedDraft) draftResult() {}

// ParseDraft decodes raw generator output into a draft work order. Markdown code
// fences around the JSON object are tolerated.
func ParseDraft(raw []byte) DraftResult {
	body := stripCodeFence(bytes.TrimSpace(raw))
	if len(body) == 0 {
		return MalformedDraft{Reason: "empty response"}
	}
	if body[0] != '{' {
		return MalformedDraft{Reason: "response is not a JSON object"}
	}

	var draft models.DraftWorkOrder
	if err := json.Unmarshal(body, &draft); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return MalformedDraft{Reason: fmt.Sprintf("field %q has type %s, want %s", typeErr.Field, typeErr.Value, typeErr.Type)}
		}
		return MalformedDraft{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	for i, task := range draft.Tasks {
		if task.Title == "" {
			return MalformedDraft{Reason: fmt.Sprintf("task %d has no title", i)}
		}
		if task.EstimatedDurationMinutes < 0 {
			return MalformedDraft{Reason: fmt.Sprintf("task %d has a negative duration", i)}
		}
	}
	for i, usage := range draft.PartsUsed {
		if usage.PartNumber == "" {
			return MalformedDraft{Reason: fmt.Sprintf("part usage %d has no part number", i)}
		}
		if usage.Quantity < 0 {
			return MalformedDraft{Reason: fmt.Sprintf("part usage %d has a negative quantity", i)}
		}
	}

	return ValidDraft{Draft: draft}
}

func stripCodeFence(body []byte) []byte {
	if !bytes.HasPrefix(body, []byte("```")) {
		return body
	}
	body = body[3:]
	if nl := bytes.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		return nil
	}
	body = bytes.TrimSpace(body)
	body = bytes.TrimSuffix(body, []byte("```"))
	return bytes.TrimSpace(body)
}
