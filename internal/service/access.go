package service

import (
	"dentalhub/internal/domain"
)

// Destination decides where a session lands from the caller identity and onboarding progress.
func Destination(identity domain.Identity, state domain.OnboardingState) domain.Destination {
	if identity.Anonymous() {
		return domain.DestinationLogin
	}

	switch identity.Role {
	case domain.UserRoleUnassigned:
		return domain.DestinationOnboarding

	case domain.UserRolePatient:
		if !state.HasPatientProfile {
			return domain.DestinationPatientOnboard
		}
		return domain.DestinationPatientDashboard

	case domain.UserRoleClinicOwner:
		if state.ClinicStatus == nil {
			return domain.DestinationClinicOnboard
		}
		if *state.ClinicStatus == domain.ClinicStatusApproved {
			return domain.DestinationClinicDashboard
		}
		return domain.DestinationClinicPending

	case domain.UserRoleAdmin:
		return domain.DestinationAdmin
	}

	return domain.DestinationLogin
}
