package domain

import "time"

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// ApplicationStatuses lists every status in dashboard order.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationStatusPending,
	ApplicationStatusApproved,
	ApplicationStatusRejected,
}

// ParseApplicationStatus returns ErrInvalidStatus for anything outside the enumeration.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	for _, st := range ApplicationStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

const (
	ExperienceBeginner     = "beginner"
	ExperienceIntermediate = "intermediate"
	ExperienceAdvanced     = "advanced"
	ExperienceExpert       = "expert"
)

const (
	RoleAssault    = "assault"
	RoleSniper     = "sniper"
	RoleSupport    = "support"
	RoleMedic      = "medic"
	RoleDriver     = "driver"
	RoleStrategist = "strategist"
)

const (
	AvailabilityWeekdays = "weekdays"
	AvailabilityWeekends = "weekends"
	AvailabilityEvenings = "evenings"
	AvailabilityNights   = "nights"
)

// SystemReviewer is recorded as the reviewer for status changes made through the
// unauthenticated legacy route.
const SystemReviewer = "System"

type Application struct {
	ID             int32             `json:"id"`
	Username       string            `json:"username"`
	Discord        string            `json:"discord"`
	Experience     string            `json:"experience"`
	Role           string            `json:"role"`
	Availability   []string          `json:"availability"`
	Motivation     string            `json:"motivation"`
	WhyAcceptYou   string            `json:"whyAcceptYou"`
	PreviousGroups *string           `json:"previousGroups"`
	Status         ApplicationStatus `json:"status"`
	ReviewedBy     *string           `json:"reviewedBy"`
	ReviewedAt     *time.Time        `json:"reviewedAt"`
	SubmittedAt    time.Time         `json:"submittedAt"`
}

// ApplicationFilter narrows a listing. A zero value lists everything.
type ApplicationFilter struct {
	Status ApplicationStatus
}

type ApplicationStats struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Total    int64 `json:"total"`
}
