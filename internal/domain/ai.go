package domain

type Urgency string

const (
	UrgencyLow       Urgency = "LOW"
	UrgencyMedium    Urgency = "MEDIUM"
	UrgencyHigh      Urgency = "HIGH"
	UrgencyEmergency Urgency = "EMERGENCY"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyEmergency:
		return true
	}
	return false
}

type SymptomCheckRequest struct {
	Symptoms string `json:"symptoms" binding:"required,min=3"`
	Age      *int   `json:"age" binding:"omitempty,gt=0,lt=130"`
}

type SymptomCheckResult struct {
	PossibleConditions  []string `json:"possible_conditions"`
	Urgency             Urgency  `json:"urgency"`
	Advice              string   `json:"advice"`
	RecommendedServices []string `json:"recommended_services"`
}

type TreatmentPlanRequest struct {
	Diagnosis string `json:"diagnosis" binding:"required"`
	Notes     string `json:"notes"`
}

type TreatmentStep struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	EstimatedCost float64 `json:"estimated_cost"`
	Visits        int     `json:"visits"`
}

type TreatmentPlan struct {
	AppointmentID      int64           `json:"appointment_id"`
	Summary            string          `json:"summary"`
	Steps              []TreatmentStep `json:"steps"`
	TotalEstimatedCost float64         `json:"total_estimated_cost"`
}

type ClinicInsights struct {
	ClinicID        int64    `json:"clinic_id"`
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
	Cached          bool     `json:"cached"`
}
