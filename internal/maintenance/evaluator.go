package maintenance

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/campuscanteen/canteen-api/internal/identity"
)

// IsBlocked decides whether the candidate is affected by the rule. It is
// pure: same inputs, same answer, no side effects.
//
// The privilege bypass is not handled here; whether an admin may pass an
// active rule depends on the route (see Gate), not on the rule.
func IsBlocked(rule Rule, user *identity.Identity) bool {
	if !rule.IsActive {
		return false
	}

	switch rule.TargetingType {
	case TargetingAll:
		return true
	case TargetingSpecific:
		return matchesSpecific(rule.SpecificUsers, user)
	case TargetingDepartment:
		return matchesDepartment(rule.TargetDepartments, user)
	case TargetingYear:
		return matchesYear(rule.YearType, rule.TargetYears, user)
	case TargetingYearDepartment:
		return matchesDepartment(rule.TargetDepartments, user) &&
			matchesYear(rule.YearType, rule.TargetYears, user)
	default:
		// A malformed or unknown targeting type on an active rule behaves
		// like "all" so a half-written config still blocks rather than
		// silently letting everyone through.
		return true
	}
}

var idFolder = cases.Fold()

// normalizeID trims surrounding whitespace and case-folds an identifier.
// Admin input is free text (comma-separated register numbers and staff
// IDs), so both sides of the comparison are normalized the same way.
func normalizeID(s string) string {
	return idFolder.String(strings.TrimSpace(s))
}

func matchesSpecific(ids []string, user *identity.Identity) bool {
	if user == nil || len(ids) == 0 {
		return false
	}
	regNo := normalizeID(user.RegisterNumber)
	staffID := normalizeID(user.StaffID)
	if regNo == "" && staffID == "" {
		return false
	}
	for _, raw := range ids {
		id := normalizeID(raw)
		if id == "" {
			continue
		}
		if id == regNo || id == staffID {
			return true
		}
	}
	return false
}

// matchesDepartment applies only to students; any other role, or a student
// with no department on record, falls through to "not blocked".
func matchesDepartment(departments []string, user *identity.Identity) bool {
	if !user.IsStudent() {
		return false
	}
	dept := strings.TrimSpace(user.Department)
	if dept == "" {
		return false
	}
	for _, d := range departments {
		if strings.TrimSpace(d) == dept {
			return true
		}
	}
	return false
}

// matchesYear resolves the comparison value from the student's record
// according to the year type. Missing data means "not targeted", never an
// error; an unknown year type matches nobody.
func matchesYear(yearType YearType, years []int, user *identity.Identity) bool {
	if !user.IsStudent() || len(years) == 0 {
		return false
	}

	var value *int
	switch yearType {
	case YearCurrent:
		value = user.CurrentStudyYear
	case YearJoining:
		value = user.JoiningYear
	case YearPassing:
		value = user.PassingOutYear
	default:
		return false
	}
	if value == nil {
		return false
	}

	for _, y := range years {
		if y == *value {
			return true
		}
	}
	return false
}
