package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"dentalhub/internal/domain"
)

// Task selects the prompt family and the response schema.
type Task string

const (
	TaskSymptomCheck   Task = "symptom_check"
	TaskTreatmentPlan  Task = "treatment_plan"
	TaskClinicInsights Task = "clinic_insights"
)

// Model turns a prompt into a JSON object matching the schema of task and decodes it into out.
type Model interface {
	GenerateJSON(ctx context.Context, task Task, prompt string, out any) error
}

// DecodeJSON decodes model text into out, tolerating a markdown code fence around the object.
func DecodeJSON(text string, out any) error {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if text == "" {
		return fmt.Errorf("%w: пустой ответ", domain.ErrAIInvalidOutput)
	}

	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAIInvalidOutput, err)
	}
	return nil
}
