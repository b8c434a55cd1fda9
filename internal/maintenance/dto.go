package maintenance

import "time"

// Patch carries a partial rule update. Nil fields keep their stored value;
// supplied fields replace it wholesale (sets are replaced, not merged).
type Patch struct {
	IsActive          *bool          `json:"isActive,omitempty"`
	Title             *string        `json:"title,omitempty" validate:"omitempty,max=120"`
	Message           *string        `json:"message,omitempty" validate:"omitempty,max=2000"`
	EstimatedTime     *string        `json:"estimatedTime,omitempty" validate:"omitempty,max=120"`
	ContactInfo       *string        `json:"contactInfo,omitempty" validate:"omitempty,max=240"`
	TargetingType     *TargetingType `json:"targetingType,omitempty" validate:"omitempty,oneof=all specific department year year_department"`
	SpecificUsers     []string       `json:"specificUsers,omitempty" validate:"omitempty,max=500,dive,max=64"`
	TargetDepartments []string       `json:"targetDepartments,omitempty" validate:"omitempty,max=100,dive,max=32"`
	TargetYears       []int          `json:"targetYears,omitempty" validate:"omitempty,max=50,dive,gte=1,lte=9999"`
	YearType          *YearType      `json:"yearType,omitempty" validate:"omitempty,oneof=current joining passing"`
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p.IsActive == nil && p.Title == nil && p.Message == nil &&
		p.EstimatedTime == nil && p.ContactInfo == nil && p.TargetingType == nil &&
		p.SpecificUsers == nil && p.TargetDepartments == nil && p.TargetYears == nil &&
		p.YearType == nil
}

// CreateWindowRequest is the payload for scheduling a maintenance window.
type CreateWindowRequest struct {
	Name     string    `json:"name" validate:"required,max=120"`
	StartsAt time.Time `json:"startsAt" validate:"required"`
	EndsAt   time.Time `json:"endsAt" validate:"required"`
	Patch    Patch     `json:"patch"`
}

// StatusResponse is returned by the public status endpoint.
type StatusResponse struct {
	Blocked     bool    `json:"blocked"`
	Maintenance *Notice `json:"maintenance,omitempty"`
}
