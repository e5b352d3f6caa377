package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"dentalhub/internal/ai"
	"dentalhub/internal/cache"
	"dentalhub/internal/domain"
	"dentalhub/internal/repository"
	"dentalhub/pkg/validator"
)

const (
	aiStatusOK       = "ok"
	aiStatusError    = "error"
	aiStatusDisabled = "disabled"
)

type AIOptions struct {
	InsightsTTL time.Duration
	Timeout     time.Duration
}

type AIServiceImpl struct {
	model      ai.Model
	cache      JSONCache
	clinicRepo repository.ClinicRepository
	apptRepo   repository.AppointmentRepository
	analytics  *AnalyticsServiceImpl
	metrics    Recorder
	opts       AIOptions
	logger     *zap.Logger
}

// NewAIService accepts a nil model and a nil cache: without a model every call
// fails with ErrAIUnavailable, without a cache insights are always regenerated.
func NewAIService(
	model ai.Model,
	jsonCache JSONCache,
	clinicRepo repository.ClinicRepository,
	apptRepo repository.AppointmentRepository,
	analytics *AnalyticsServiceImpl,
	recorder Recorder,
	opts AIOptions,
	logger *zap.Logger,
) *AIServiceImpl {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	return &AIServiceImpl{
		model:      model,
		cache:      jsonCache,
		clinicRepo: clinicRepo,
		apptRepo:   apptRepo,
		analytics:  analytics,
		metrics:    recorder,
		opts:       opts,
		logger:     logger,
	}
}

func (s *AIServiceImpl) generate(ctx context.Context, task ai.Task, prompt string, out any) error {
	if s.model == nil {
		s.metrics.RecordAIRequest(string(task), aiStatusDisabled)
		return domain.ErrAIUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	if err := s.model.GenerateJSON(ctx, task, prompt, out); err != nil {
		s.metrics.RecordAIRequest(string(task), aiStatusError)
		s.logger.Error("ошибка запроса к модели ИИ", zap.String("task", string(task)), zap.Error(err))
		if domain.KindOf(err) == domain.KindInternal {
			return domain.ErrAIUnavailable
		}
		return err
	}

	s.metrics.RecordAIRequest(string(task), aiStatusOK)
	return nil
}

func (s *AIServiceImpl) CheckSymptoms(ctx context.Context, dto domain.SymptomCheckRequest) (*domain.SymptomCheckResult, error) {
	symptoms := validator.SanitizeString(dto.Symptoms)
	if symptoms == "" {
		return nil, domain.NewValidationError("опишите симптомы")
	}

	var b strings.Builder
	b.WriteString("Пациент описывает стоматологические симптомы: ")
	b.WriteString(symptoms)
	if dto.Age != nil {
		fmt.Fprintf(&b, "\nВозраст пациента: %d", *dto.Age)
	}
	b.WriteString("\nОцени возможные состояния, срочность и дай краткий совет. Это не диагноз.")

	var result domain.SymptomCheckResult
	if err := s.generate(ctx, ai.TaskSymptomCheck, b.String(), &result); err != nil {
		return nil, err
	}

	if !result.Urgency.Valid() {
		s.logger.Warn("модель вернула неизвестную срочность", zap.String("urgency", string(result.Urgency)))
		return nil, domain.ErrAIInvalidOutput
	}
	if result.PossibleConditions == nil {
		result.PossibleConditions = []string{}
	}
	if result.RecommendedServices == nil {
		result.RecommendedServices = []string{}
	}

	return &result, nil
}

// TreatmentPlan drafts a plan for an appointment of the owner's clinic.
func (s *AIServiceImpl) TreatmentPlan(ctx context.Context, ownerID, appointmentID int64, dto domain.TreatmentPlanRequest) (*domain.TreatmentPlan, error) {
	appt, err := s.apptRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.ClinicOwnerID != ownerID {
		return nil, domain.ErrAppointmentNotFound
	}

	diagnosis := validator.SanitizeString(dto.Diagnosis)
	if diagnosis == "" {
		return nil, domain.NewValidationError("укажите диагноз")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Услуга приема: %s\nДиагноз: %s\n", appt.ServiceName, diagnosis)
	if notes := validator.SanitizeString(dto.Notes); notes != "" {
		fmt.Fprintf(&b, "Заметки врача: %s\n", notes)
	}
	if appt.Notes != nil && *appt.Notes != "" {
		fmt.Fprintf(&b, "Заметки к записи: %s\n", *appt.Notes)
	}
	if appt.Price != nil {
		fmt.Fprintf(&b, "Стоимость текущего приема: %.2f\n", *appt.Price)
	}
	b.WriteString("Составь поэтапный план лечения с ориентировочной стоимостью каждого этапа.")

	var plan domain.TreatmentPlan
	if err := s.generate(ctx, ai.TaskTreatmentPlan, b.String(), &plan); err != nil {
		return nil, err
	}

	plan.AppointmentID = appt.ID
	if plan.Steps == nil {
		plan.Steps = []domain.TreatmentStep{}
	}
	if plan.TotalEstimatedCost == 0 {
		for _, step := range plan.Steps {
			plan.TotalEstimatedCost += step.EstimatedCost
		}
	}

	return &plan, nil
}

// ClinicInsights summarizes the clinic analytics. Results are cached per clinic
// unless refresh is set.
func (s *AIServiceImpl) ClinicInsights(ctx context.Context, ownerID int64, refresh bool) (*domain.ClinicInsights, error) {
	clinic, err := ownedClinic(ctx, s.clinicRepo, ownerID)
	if err != nil {
		return nil, err
	}

	key := cache.Key("insights", strconv.FormatInt(clinic.ID, 10))

	if s.cache != nil && !refresh {
		var cached domain.ClinicInsights
		ok, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("ошибка чтения кэша", zap.String("key", key), zap.Error(err))
		}
		if ok {
			cached.Cached = true
			return &cached, nil
		}
	}

	if s.model == nil {
		s.metrics.RecordAIRequest(string(ai.TaskClinicInsights), aiStatusDisabled)
		return nil, domain.ErrAIUnavailable
	}

	stats, err := s.analytics.forClinic(ctx, clinic.ID)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(stats)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации аналитики: %w", err)
	}

	prompt := "Клиника: " + clinic.Name + "\nАналитика клиники в JSON:\n" + string(raw) +
		"\nКратко опиши состояние клиники и дай практические рекомендации владельцу."

	var insights domain.ClinicInsights
	if err := s.generate(ctx, ai.TaskClinicInsights, prompt, &insights); err != nil {
		return nil, err
	}

	insights.ClinicID = clinic.ID
	insights.Cached = false
	if insights.Recommendations == nil {
		insights.Recommendations = []string{}
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, insights, s.opts.InsightsTTL); err != nil {
			s.logger.Warn("ошибка записи в кэш", zap.String("key", key), zap.Error(err))
		}
	}

	return &insights, nil
}
