// Package maintenance implements maintenance-mode targeting: the persisted
// rule, the pure evaluator deciding who is blocked, and the HTTP gate that
// enforces the decision on protected routes.
package maintenance

import "time"

// TargetingType selects which matcher applies when a rule is active.
type TargetingType string

const (
	TargetingAll            TargetingType = "all"
	TargetingSpecific       TargetingType = "specific"
	TargetingDepartment     TargetingType = "department"
	TargetingYear           TargetingType = "year"
	TargetingYearDepartment TargetingType = "year_department"
)

// YearType disambiguates how TargetYears values are interpreted against a
// student's academic record.
type YearType string

const (
	YearCurrent YearType = "current"
	YearJoining YearType = "joining"
	YearPassing YearType = "passing"
)

// Rule is the singleton maintenance configuration. Exactly one targeting
// type governs evaluation at a time; fields irrelevant to the active type
// are ignored, not cleared. Last write wins, no history.
//
// JSON field names are the wire contract consumed by the clients and are
// kept camelCase.
type Rule struct {
	IsActive          bool          `json:"isActive"`
	Title             string        `json:"title"`
	Message           string        `json:"message"`
	EstimatedTime     *string       `json:"estimatedTime,omitempty"`
	ContactInfo       *string       `json:"contactInfo,omitempty"`
	TargetingType     TargetingType `json:"targetingType"`
	SpecificUsers     []string      `json:"specificUsers,omitempty"`
	TargetDepartments []string      `json:"targetDepartments,omitempty"`
	TargetYears       []int         `json:"targetYears,omitempty"`
	YearType          YearType      `json:"yearType"`
	UpdatedBy         *int64        `json:"updatedBy,omitempty"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

// DefaultRule is what clients observe before any admin edit.
func DefaultRule() Rule {
	return Rule{
		IsActive:      false,
		TargetingType: TargetingAll,
		YearType:      YearCurrent,
	}
}

// Notice holds the display fields shown to blocked users.
type Notice struct {
	Title         string  `json:"title"`
	Message       string  `json:"message"`
	EstimatedTime *string `json:"estimatedTime,omitempty"`
	ContactInfo   *string `json:"contactInfo,omitempty"`
}

// Notice extracts the blocked-screen content from the rule.
func (r Rule) Notice() Notice {
	return Notice{
		Title:         r.Title,
		Message:       r.Message,
		EstimatedTime: r.EstimatedTime,
		ContactInfo:   r.ContactInfo,
	}
}

// Window is a scheduled maintenance window applied by the background
// worker: the rule fields in Patch are switched on at StartsAt and the
// master switch is turned off again at EndsAt. A manual admin edit between
// the two instants wins (last write wins, same as any other edit).
type Window struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	StartsAt      time.Time  `json:"startsAt"`
	EndsAt        time.Time  `json:"endsAt"`
	Patch         Patch      `json:"patch"`
	ActivatedAt   *time.Time `json:"activatedAt,omitempty"`
	DeactivatedAt *time.Time `json:"deactivatedAt,omitempty"`
	CreatedBy     int64      `json:"createdBy"`
	CreatedAt     time.Time  `json:"createdAt"`
}
