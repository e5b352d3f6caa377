package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"dentalhub/internal/domain"
)

const systemPrompt = "Ты ассистент стоматологической клиники. Отвечай на русском языке строго в формате JSON по заданной схеме. " +
	"Не ставь диагнозов, а давай предварительную оценку и рекомендуй очный осмотр."

// GeminiModel keeps one configured generative model per task.
type GeminiModel struct {
	client *genai.Client
	models map[Task]*genai.GenerativeModel
	logger *zap.Logger
}

func NewGeminiModel(ctx context.Context, apiKey, modelName string, logger *zap.Logger) (*GeminiModel, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания клиента Gemini: %w", err)
	}

	models := make(map[Task]*genai.GenerativeModel, len(schemas))
	for task, schema := range schemas {
		m := client.GenerativeModel(modelName)
		m.SetTemperature(0.2)
		m.ResponseMIMEType = "application/json"
		m.ResponseSchema = schema
		m.SystemInstruction = genai.NewUserContent(genai.Text(systemPrompt))
		models[task] = m
	}

	return &GeminiModel{
		client: client,
		models: models,
		logger: logger,
	}, nil
}

func (g *GeminiModel) GenerateJSON(ctx context.Context, task Task, prompt string, out any) error {
	model, ok := g.models[task]
	if !ok {
		return fmt.Errorf("неизвестная задача ИИ: %s", task)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		g.logger.Error("ошибка запроса к Gemini", zap.String("task", string(task)), zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrAIUnavailable, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return fmt.Errorf("%w: нет вариантов ответа", domain.ErrAIInvalidOutput)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	return DecodeJSON(sb.String(), out)
}

func (g *GeminiModel) Close() error {
	return g.client.Close()
}

func stringSchema(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description}
}

func stringList(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Description: description, Items: &genai.Schema{Type: genai.TypeString}}
}

var schemas = map[Task]*genai.Schema{
	TaskSymptomCheck: {
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"possible_conditions": stringList("возможные состояния"),
			"urgency": {
				Type: genai.TypeString,
				Enum: []string{
					string(domain.UrgencyLow),
					string(domain.UrgencyMedium),
					string(domain.UrgencyHigh),
					string(domain.UrgencyEmergency),
				},
			},
			"advice":               stringSchema("рекомендации пациенту"),
			"recommended_services": stringList("подходящие услуги клиники"),
		},
		Required: []string{"possible_conditions", "urgency", "advice", "recommended_services"},
	},
	TaskTreatmentPlan: {
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary": stringSchema("краткое описание плана"),
			"steps": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title":          stringSchema("этап"),
						"description":    stringSchema("что делается на этапе"),
						"estimated_cost": {Type: genai.TypeNumber},
						"visits":         {Type: genai.TypeInteger},
					},
					Required: []string{"title", "description", "estimated_cost", "visits"},
				},
			},
			"total_estimated_cost": {Type: genai.TypeNumber},
		},
		Required: []string{"summary", "steps", "total_estimated_cost"},
	},
	TaskClinicInsights: {
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary":         stringSchema("оценка работы клиники"),
			"recommendations": stringList("конкретные рекомендации"),
		},
		Required: []string{"summary", "recommendations"},
	},
}
