package billing

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-billing-api/internal/models"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
)

var seoul = DefaultLocation()

func at(year int, month time.Month, day, hour, minute int) *time.Time {
	ts := time.Date(year, month, day, hour, minute, 0, 0, seoul)
	return &ts
}

func student(id, academyID string, createdAt *time.Time) models.Student {
	return models.Student{ID: id, AcademyID: academyID, Name: "Student " + id, Username: id, Status: models.StudentStatusActive, CreatedAt: createdAt}
}

func event(studentID string, status models.StudentStatus, changedAt *time.Time) models.StatusChangeEvent {
	return models.StatusChangeEvent{StudentID: studentID, AcademyID: "academy-1", NewStatus: status, ChangedAt: *changedAt}
}

func lineFor(t *testing.T, report models.MonthlyBillingReport, studentID string) models.StudentBillingLine {
	t.Helper()
	for _, line := range report.Students {
		if line.ID == studentID {
			return line
		}
	}
	t.Fatalf("student %s missing from report", studentID)
	return models.StudentBillingLine{}
}

func TestComputeCreatedMidMonthLeapYear(t *testing.T) {
	reports, err := ComputeMonthlyStats(2024, 2, []models.Student{student("a", "academy-1", at(2024, time.February, 10, 9, 0))}, nil, nil)
	require.NoError(t, err)

	line := lineFor(t, reports["academy-1"], "a")
	assert.Equal(t, 20, line.ActiveDays)
	assert.True(t, line.IsBillable)
}

func TestComputeDefaultActiveUntilFirstEvent(t *testing.T) {
	events := []models.StatusChangeEvent{
		event("b", models.StudentStatusActive, at(2024, time.February, 5, 10, 0)),
		event("b", models.StudentStatusSuspended, at(2024, time.February, 20, 10, 0)),
	}
	reports, err := ComputeMonthlyStats(2024, 2, []models.Student{student("b", "academy-1", at(2024, time.January, 1, 0, 0))}, events, nil)
	require.NoError(t, err)

	assert.Equal(t, 19, lineFor(t, reports["academy-1"], "b").ActiveDays)
}

func TestComputeLateEventWinsRegardlessOfInputOrder(t *testing.T) {
	created := at(2024, time.January, 1, 0, 0)
	ordered := []models.StatusChangeEvent{
		event("b", models.StudentStatusActive, at(2024, time.February, 5, 10, 0)),
		event("b", models.StudentStatusSuspended, at(2024, time.February, 20, 10, 0)),
	}
	reversed := []models.StatusChangeEvent{ordered[1], ordered[0]}

	first, err := ComputeMonthlyStats(2024, 2, []models.Student{student("b", "academy-1", created)}, ordered, nil)
	require.NoError(t, err)
	second, err := ComputeMonthlyStats(2024, 2, []models.Student{student("b", "academy-1", created)}, reversed, nil)
	require.NoError(t, err)

	assert.Equal(t, lineFor(t, first["academy-1"], "b"), lineFor(t, second["academy-1"], "b"))
	assert.Equal(t, 19, lineFor(t, second["academy-1"], "b").ActiveDays)
}

func TestComputeFlatRateIgnoresBillableCount(t *testing.T) {
	policies := map[string]models.PricingPolicy{
		"academy-1": {AcademyID: "academy-1", BillingType: models.BillingTypeFlatRate, FlatRateAmount: 300000, PricePerStudent: 99999},
	}
	// created on the last day, so nobody reaches the threshold
	roster := []models.Student{student("a", "academy-1", at(2024, time.February, 29, 8, 0))}

	reports, err := ComputeMonthlyStats(2024, 2, roster, nil, policies)
	require.NoError(t, err)
	report := reports["academy-1"]
	assert.Equal(t, 0, report.BillableStudents)
	assert.Equal(t, 300000.0, report.TotalCost)
	assert.Equal(t, models.BillingTypeFlatRate, report.BillingType)

	roster = append(roster,
		student("b", "academy-1", at(2024, time.January, 3, 8, 0)),
		student("c", "academy-1", at(2024, time.January, 3, 8, 0)),
	)
	reports, err = ComputeMonthlyStats(2024, 2, roster, nil, policies)
	require.NoError(t, err)
	assert.Equal(t, 2, reports["academy-1"].BillableStudents)
	assert.Equal(t, 300000.0, reports["academy-1"].TotalCost)
}

func TestComputeMissingPolicyDefaultsToZeroCost(t *testing.T) {
	roster := make([]models.Student, 0, 5)
	for _, id := range []string{"s1", "s2", "s3", "s4", "s5"} {
		roster = append(roster, student(id, "academy-9", at(2023, time.December, 1, 0, 0)))
	}

	result, err := NewReconciler(seoul).Compute(2024, 2, roster, nil, map[string]models.PricingPolicy{})
	require.NoError(t, err)
	report := result.Reports["academy-9"]
	assert.Equal(t, 5, report.TotalStudents)
	assert.Equal(t, 5, report.BillableStudents)
	assert.Equal(t, 0.0, report.TotalCost)
	assert.Equal(t, models.BillingTypePerStudent, report.BillingType)
	assert.Equal(t, []string{"academy-9"}, result.Diagnostics.UnconfiguredTenants)
}

func TestComputeStudentCreatedAfterWindow(t *testing.T) {
	roster := []models.Student{
		student("late", "academy-1", at(2024, time.March, 1, 0, 0)),
		student("early", "academy-1", at(2024, time.January, 1, 0, 0)),
	}
	reports, err := ComputeMonthlyStats(2024, 2, roster, nil, nil)
	require.NoError(t, err)

	report := reports["academy-1"]
	assert.Equal(t, 2, report.TotalStudents)
	assert.Equal(t, 1, report.BillableStudents)
	late := lineFor(t, report, "late")
	assert.Equal(t, 0, late.ActiveDays)
	assert.False(t, late.IsBillable)
}

func TestComputeNoEventsCoversWholeMonth(t *testing.T) {
	r := NewReconciler(seoul)
	for month := 1; month <= 12; month++ {
		start := time.Date(2023, time.Month(month), 1, 0, 0, 0, 0, seoul)
		result, err := r.Compute(2023, month, []models.Student{student("a", "academy-1", &start)}, nil, nil)
		require.NoError(t, err)

		line := lineFor(t, result.Reports["academy-1"], "a")
		assert.Equal(t, result.Window.Days(), line.ActiveDays, "month %d", month)
		assert.True(t, line.IsBillable)
	}
}

func TestComputeImmediateSuspension(t *testing.T) {
	created := at(2024, time.February, 1, 9, 0)
	events := []models.StatusChangeEvent{event("a", models.StudentStatusSuspended, at(2024, time.February, 1, 9, 5))}

	reports, err := ComputeMonthlyStats(2024, 2, []models.Student{student("a", "academy-1", created)}, events, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, lineFor(t, reports["academy-1"], "a").ActiveDays)
}

func TestComputeBillableThresholdAtSevenDays(t *testing.T) {
	created := at(2024, time.January, 15, 0, 0)
	cases := []struct {
		suspendDay int
		activeDays int
		billable   bool
	}{
		{suspendDay: 6, activeDays: 5, billable: false},
		{suspendDay: 7, activeDays: 6, billable: false},
		{suspendDay: 8, activeDays: 7, billable: true},
		{suspendDay: 9, activeDays: 8, billable: true},
	}
	for _, tc := range cases {
		events := []models.StatusChangeEvent{event("a", models.StudentStatusSuspended, at(2024, time.February, tc.suspendDay, 0, 30))}
		reports, err := ComputeMonthlyStats(2024, 2, []models.Student{student("a", "academy-1", created)}, events, nil)
		require.NoError(t, err)

		line := lineFor(t, reports["academy-1"], "a")
		assert.Equal(t, tc.activeDays, line.ActiveDays)
		assert.Equal(t, tc.billable, line.IsBillable)
	}
}

func TestComputePerStudentCostIsLinear(t *testing.T) {
	policies := map[string]models.PricingPolicy{
		"academy-1": {AcademyID: "academy-1", BillingType: models.BillingTypePerStudent, PricePerStudent: 15000, FlatRateAmount: 1},
	}
	for n := 0; n <= 6; n++ {
		roster := make([]models.Student, 0, n)
		for i := 0; i < n; i++ {
			roster = append(roster, student(string(rune('a'+i)), "academy-1", at(2024, time.January, 1, 0, 0)))
		}
		reports, err := ComputeMonthlyStats(2024, 2, roster, nil, policies)
		require.NoError(t, err)
		if n == 0 {
			assert.Empty(t, reports)
			continue
		}
		assert.Equal(t, float64(n)*15000, reports["academy-1"].TotalCost)
	}
}

func TestComputeIgnoresEventsAfterWindow(t *testing.T) {
	events := []models.StatusChangeEvent{event("a", models.StudentStatusSuspended, at(2024, time.March, 1, 0, 0))}

	result, err := NewReconciler(seoul).Compute(2024, 2, []models.Student{student("a", "academy-1", at(2024, time.January, 1, 0, 0))}, events, nil)
	require.NoError(t, err)
	assert.Equal(t, 29, lineFor(t, result.Reports["academy-1"], "a").ActiveDays)
	assert.Equal(t, 1, result.Diagnostics.FutureEvents)
}

func TestComputeEventAtLastInstantOfDayCounts(t *testing.T) {
	boundary := time.Date(2024, time.February, 10, 23, 59, 59, int(999*time.Millisecond), seoul)
	afterBoundary := boundary.Add(time.Millisecond)
	created := at(2024, time.January, 1, 0, 0)

	reports, err := ComputeMonthlyStats(2024, 2, []models.Student{student("a", "academy-1", created)}, []models.StatusChangeEvent{event("a", models.StudentStatusSuspended, &boundary)}, nil)
	require.NoError(t, err)
	assert.Equal(t, 9, lineFor(t, reports["academy-1"], "a").ActiveDays)

	reports, err = ComputeMonthlyStats(2024, 2, []models.Student{student("a", "academy-1", created)}, []models.StatusChangeEvent{event("a", models.StudentStatusSuspended, &afterBoundary)}, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, lineFor(t, reports["academy-1"], "a").ActiveDays)
}

func TestComputeDayBoundariesFollowConfiguredZone(t *testing.T) {
	// 15:30 UTC on Feb 20 is already Feb 21 in Seoul.
	changedAt := time.Date(2024, time.February, 20, 15, 30, 0, 0, time.UTC)
	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	roster := []models.Student{{ID: "a", AcademyID: "academy-1", Status: models.StudentStatusSuspended, CreatedAt: &created}}
	events := []models.StatusChangeEvent{{StudentID: "a", NewStatus: models.StudentStatusSuspended, ChangedAt: changedAt}}

	inSeoul, err := NewReconciler(seoul).Compute(2024, 2, roster, events, nil)
	require.NoError(t, err)
	inUTC, err := NewReconciler(time.UTC).Compute(2024, 2, roster, events, nil)
	require.NoError(t, err)

	assert.Equal(t, 20, lineFor(t, inSeoul.Reports["academy-1"], "a").ActiveDays)
	assert.Equal(t, 19, lineFor(t, inUTC.Reports["academy-1"], "a").ActiveDays)
}

func TestComputeEqualTimestampsLaterInputWins(t *testing.T) {
	ts := at(2024, time.February, 10, 12, 0)
	events := []models.StatusChangeEvent{
		event("a", models.StudentStatusActive, ts),
		event("a", models.StudentStatusSuspended, ts),
	}
	reports, err := ComputeMonthlyStats(2024, 2, []models.Student{student("a", "academy-1", at(2024, time.January, 1, 0, 0))}, events, nil)
	require.NoError(t, err)
	assert.Equal(t, 9, lineFor(t, reports["academy-1"], "a").ActiveDays)
}

func TestComputeDegradesMalformedRecords(t *testing.T) {
	roster := []models.Student{
		{ID: "no-created", AcademyID: "academy-1", Status: models.StudentStatusActive},
		{ID: "no-academy", Status: models.StudentStatusActive, CreatedAt: at(2024, time.January, 1, 0, 0)},
	}
	events := []models.StatusChangeEvent{
		{StudentID: "no-created", NewStatus: "archived", ChangedAt: *at(2024, time.February, 2, 0, 0)},
		{StudentID: "", NewStatus: models.StudentStatusSuspended, ChangedAt: *at(2024, time.February, 2, 0, 0)},
		{StudentID: "no-created", NewStatus: models.StudentStatusSuspended},
		event("ghost", models.StudentStatusSuspended, at(2024, time.February, 2, 0, 0)),
	}

	result, err := NewReconciler(seoul).Compute(2024, 2, roster, events, nil)
	require.NoError(t, err)

	assert.Equal(t, 29, lineFor(t, result.Reports["academy-1"], "no-created").ActiveDays)
	assert.Equal(t, 29, lineFor(t, result.Reports[UnassignedTenant], "no-academy").ActiveDays)
	assert.Equal(t, 1, result.Diagnostics.DefaultedCreatedAt)
	assert.Equal(t, 1, result.Diagnostics.UnassignedStudents)
	assert.Equal(t, 3, result.Diagnostics.MalformedEvents)
	assert.Equal(t, 1, result.Diagnostics.OrphanEvents)
	assert.Equal(t, 2, result.Diagnostics.StudentsEvaluated)
}

func TestComputeUnknownBillingTypePricesPerStudent(t *testing.T) {
	policies := map[string]models.PricingPolicy{"academy-1": {BillingType: "tiered", PricePerStudent: 1000, FlatRateAmount: 50000}}
	reports, err := ComputeMonthlyStats(2024, 2, []models.Student{student("a", "academy-1", at(2024, time.January, 1, 0, 0))}, nil, policies)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, reports["academy-1"].TotalCost)
	assert.Equal(t, models.BillingTypePerStudent, reports["academy-1"].BillingType)
}

func TestComputeKeepsRosterOrderPerTenant(t *testing.T) {
	roster := []models.Student{
		student("z", "academy-1", at(2024, time.January, 1, 0, 0)),
		student("x", "academy-2", at(2024, time.January, 1, 0, 0)),
		student("a", "academy-1", at(2024, time.January, 1, 0, 0)),
	}
	reports, err := ComputeMonthlyStats(2024, 2, roster, nil, nil)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	require.Len(t, reports["academy-1"].Students, 2)
	assert.Equal(t, "z", reports["academy-1"].Students[0].ID)
	assert.Equal(t, "a", reports["academy-1"].Students[1].ID)
	assert.Equal(t, "academy-1", reports["academy-1"].Name)
}

func TestComputeActiveDaysStayWithinWindow(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	r := NewReconciler(seoul)
	statuses := []models.StudentStatus{models.StudentStatusActive, models.StudentStatusSuspended}
	base := time.Date(2024, time.January, 15, 0, 0, 0, 0, seoul)

	for i := 0; i < 200; i++ {
		created := base.Add(time.Duration(rng.Intn(60*24)) * time.Hour)
		events := make([]models.StatusChangeEvent, 0, 6)
		for j := 0; j < rng.Intn(6); j++ {
			changedAt := base.Add(time.Duration(rng.Intn(60*24*60)) * time.Minute)
			events = append(events, models.StatusChangeEvent{StudentID: "a", NewStatus: statuses[rng.Intn(2)], ChangedAt: changedAt})
		}

		result, err := r.Compute(2024, 2, []models.Student{student("a", "academy-1", &created)}, events, nil)
		require.NoError(t, err)
		line := lineFor(t, result.Reports["academy-1"], "a")

		maxDays := 0
		if first := result.Window.FirstDayFrom(created); first > 0 {
			maxDays = result.Window.Days() - first + 1
		}
		assert.GreaterOrEqual(t, line.ActiveDays, 0)
		assert.LessOrEqual(t, line.ActiveDays, maxDays)
		assert.Equal(t, line.ActiveDays >= models.BillableDaysThreshold, line.IsBillable)
	}
}

func TestComputeRejectsInvalidMonth(t *testing.T) {
	_, err := ComputeMonthlyStats(2024, 13, nil, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = ComputeMonthlyStats(24, 2, nil, nil, nil)
	require.Error(t, err)
}

func TestComputeEventBeforeCreationStillApplies(t *testing.T) {
	events := []models.StatusChangeEvent{
		event("p", models.StudentStatusSuspended, at(2024, time.February, 5, 10, 0)),
		event("p", models.StudentStatusActive, at(2024, time.February, 25, 8, 0)),
	}
	reports, err := ComputeMonthlyStats(2024, 2, []models.Student{student("p", "academy-1", at(2024, time.February, 10, 9, 0))}, events, nil)
	require.NoError(t, err)

	// suspended from creation on day 10 until day 25
	line := lineFor(t, reports["academy-1"], "p")
	assert.Equal(t, 5, line.ActiveDays)
	assert.False(t, line.IsBillable)
}
