package maintenance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuscanteen/canteen-api/internal/identity"
)

func intPtr(v int) *int { return &v }

func student(dept string, current, joining, passing *int) *identity.Identity {
	return &identity.Identity{
		UserID:           10,
		Role:             identity.RoleStudent,
		RegisterNumber:   "21CS042",
		Department:       dept,
		CurrentStudyYear: current,
		JoiningYear:      joining,
		PassingOutYear:   passing,
	}
}

func staff(staffID string) *identity.Identity {
	return &identity.Identity{UserID: 20, Role: identity.RoleStaff, StaffID: staffID}
}

func activeRule(t TargetingType) Rule {
	r := DefaultRule()
	r.IsActive = true
	r.TargetingType = t
	return r
}

func TestInactiveRuleBlocksNobody(t *testing.T) {
	users := []*identity.Identity{
		nil,
		student("CSE", intPtr(1), nil, nil),
		staff("STF-9"),
		{UserID: 1, Role: identity.RoleAdmin, IsAdmin: true},
	}
	for _, tt := range []TargetingType{TargetingAll, TargetingSpecific, TargetingDepartment, TargetingYear, TargetingYearDepartment} {
		rule := DefaultRule()
		rule.TargetingType = tt
		rule.SpecificUsers = []string{"21CS042", "STF-9"}
		rule.TargetDepartments = []string{"CSE"}
		rule.TargetYears = []int{1}
		for _, u := range users {
			assert.False(t, IsBlocked(rule, u), "targeting %s must not block while inactive", tt)
		}
	}
}

func TestAllTargetingBlocksEveryone(t *testing.T) {
	rule := activeRule(TargetingAll)
	assert.True(t, IsBlocked(rule, student("CSE", intPtr(2), nil, nil)))
	assert.True(t, IsBlocked(rule, staff("STF-9")))
	assert.True(t, IsBlocked(rule, nil))
	// The admin bypass is the gate's business, not the evaluator's.
	assert.True(t, IsBlocked(rule, &identity.Identity{Role: identity.RoleAdmin, IsAdmin: true}))
}

func TestSpecificTargeting(t *testing.T) {
	rule := activeRule(TargetingSpecific)
	rule.SpecificUsers = []string{"21CS042", "STF-7"}

	assert.True(t, IsBlocked(rule, student("CSE", nil, nil, nil)))
	assert.True(t, IsBlocked(rule, staff("STF-7")))
	assert.False(t, IsBlocked(rule, staff("STF-9")))
	assert.False(t, IsBlocked(rule, nil))

	other := student("CSE", nil, nil, nil)
	other.RegisterNumber = "22EC011"
	assert.False(t, IsBlocked(rule, other))
}

func TestSpecificTargetingNormalizesIdentifiers(t *testing.T) {
	rule := activeRule(TargetingSpecific)
	rule.SpecificUsers = []string{"  21cs042 ", "stf-7"}

	assert.True(t, IsBlocked(rule, student("CSE", nil, nil, nil)), "case and whitespace must not matter")
	assert.True(t, IsBlocked(rule, staff("STF-7")))
}

func TestSpecificTargetingEmptyIdentifiersNeverMatch(t *testing.T) {
	rule := activeRule(TargetingSpecific)
	rule.SpecificUsers = []string{"", "   "}

	u := student("CSE", nil, nil, nil)
	u.RegisterNumber = ""
	assert.False(t, IsBlocked(rule, u), "blank entries must not match a user with no identifiers")
}

func TestDepartmentTargeting(t *testing.T) {
	rule := activeRule(TargetingDepartment)
	rule.TargetDepartments = []string{"CSE"}

	assert.True(t, IsBlocked(rule, student("CSE", nil, nil, nil)))
	assert.False(t, IsBlocked(rule, student("ECE", nil, nil, nil)))
	assert.False(t, IsBlocked(rule, student("", nil, nil, nil)), "missing department means not targeted")
	assert.False(t, IsBlocked(rule, staff("STF-9")), "department targeting never matches non-students")
	assert.False(t, IsBlocked(rule, nil))
}

func TestYearTargeting(t *testing.T) {
	tests := []struct {
		name     string
		yearType YearType
		years    []int
		user     *identity.Identity
		want     bool
	}{
		{"current year member", YearCurrent, []int{1, 2}, student("CSE", intPtr(1), nil, nil), true},
		{"current year non-member", YearCurrent, []int{1, 2}, student("CSE", intPtr(3), nil, nil), false},
		{"current year missing", YearCurrent, []int{1, 2}, student("CSE", nil, nil, nil), false},
		{"joining year member", YearJoining, []int{2023}, student("CSE", nil, intPtr(2023), nil), true},
		{"joining year non-member", YearJoining, []int{2023}, student("CSE", nil, intPtr(2024), nil), false},
		{"passing year member", YearPassing, []int{2026}, student("CSE", nil, nil, intPtr(2026)), true},
		{"passing year non-member", YearPassing, []int{2026}, student("CSE", nil, nil, intPtr(2027)), false},
		{"staff never year-targeted", YearCurrent, []int{1, 2}, staff("STF-9"), false},
		{"unknown year type matches nobody", YearType("fiscal"), []int{1}, student("CSE", intPtr(1), nil, nil), false},
		{"empty year set matches nobody", YearCurrent, nil, student("CSE", intPtr(1), nil, nil), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rule := activeRule(TargetingYear)
			rule.YearType = tc.yearType
			rule.TargetYears = tc.years
			assert.Equal(t, tc.want, IsBlocked(rule, tc.user))
		})
	}
}

func TestYearDepartmentRequiresConjunction(t *testing.T) {
	rule := activeRule(TargetingYearDepartment)
	rule.TargetDepartments = []string{"CSE"}
	rule.YearType = YearCurrent
	rule.TargetYears = []int{2}

	assert.True(t, IsBlocked(rule, student("CSE", intPtr(2), nil, nil)))
	assert.False(t, IsBlocked(rule, student("CSE", intPtr(3), nil, nil)), "department alone must not block")
	assert.False(t, IsBlocked(rule, student("ECE", intPtr(2), nil, nil)), "year alone must not block")
	assert.False(t, IsBlocked(rule, staff("STF-9")))
}

func TestUnknownTargetingTypeBehavesLikeAll(t *testing.T) {
	rule := activeRule(TargetingType("mystery"))
	assert.True(t, IsBlocked(rule, student("CSE", intPtr(1), nil, nil)))
	assert.True(t, IsBlocked(rule, staff("STF-9")))

	rule.IsActive = false
	assert.False(t, IsBlocked(rule, student("CSE", intPtr(1), nil, nil)))
}

func TestEvaluationIsIdempotent(t *testing.T) {
	rule := activeRule(TargetingDepartment)
	rule.TargetDepartments = []string{"CSE"}
	u := student("CSE", intPtr(1), nil, nil)

	first := IsBlocked(rule, u)
	second := IsBlocked(rule, u)
	require.Equal(t, first, second)
	assert.True(t, first)
}
