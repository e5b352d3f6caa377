package domain

// Destination is where a session should land given its role and onboarding progress.
type Destination string

const (
	DestinationLogin            Destination = "/login"
	DestinationOnboarding       Destination = "/onboarding"
	DestinationPatientOnboard   Destination = "/onboarding/patient"
	DestinationPatientDashboard Destination = "/patient/dashboard"
	DestinationClinicOnboard    Destination = "/onboarding/clinic"
	DestinationClinicPending    Destination = "/clinic/pending"
	DestinationClinicDashboard  Destination = "/clinic/dashboard"
	DestinationAdmin            Destination = "/admin"
)

// OnboardingState is what the policy needs to know beyond the token claims.
type OnboardingState struct {
	HasPatientProfile bool
	ClinicStatus      *ClinicStatus
}

type DestinationResponse struct {
	Destination Destination `json:"destination"`
	Role        UserRole    `json:"role,omitempty"`
}

type OnboardPatientDTO struct {
	PatientProfileDTO
}

type OnboardClinicDTO struct {
	CreateClinicDTO
}

type OnboardingResult struct {
	Tokens      *Tokens     `json:"tokens"`
	Destination Destination `json:"destination"`
	PatientID   *int64      `json:"patient_id,omitempty"`
	ClinicID    *int64      `json:"clinic_id,omitempty"`
}
