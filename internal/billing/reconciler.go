// Package billing reconstructs per-day student status from the status-change
// log and prices each academy's month. Everything here is a pure function of
// its inputs: no I/O, no shared state.
package billing

import (
	"sort"
	"time"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

// UnassignedTenant collects roster entries that carry no academy id.
const UnassignedTenant = "unassigned"

// Diagnostics counts the records that were degraded instead of failing the report.
type Diagnostics struct {
	StudentsEvaluated   int      `json:"studentsEvaluated"`
	DefaultedCreatedAt  int      `json:"defaultedCreatedAt"`
	UnassignedStudents  int      `json:"unassignedStudents"`
	MalformedEvents     int      `json:"malformedEvents"`
	FutureEvents        int      `json:"futureEvents"`
	OrphanEvents        int      `json:"orphanEvents"`
	UnconfiguredTenants []string `json:"unconfiguredTenants,omitempty"`
}

// Result bundles the per-tenant reports with the window they cover.
type Result struct {
	Window      Window
	Reports     map[string]models.MonthlyBillingReport
	Diagnostics Diagnostics
}

// Reconciler evaluates billing windows in a fixed zone.
type Reconciler struct {
	loc *time.Location
}

// NewReconciler returns a reconciler bound to loc; nil selects DefaultLocation.
func NewReconciler(loc *time.Location) *Reconciler {
	if loc == nil {
		loc = DefaultLocation()
	}
	return &Reconciler{loc: loc}
}

// Location exposes the zone used for day boundaries.
func (r *Reconciler) Location() *time.Location {
	return r.loc
}

// ComputeMonthlyStats is Compute on a reconciler in the default zone, returning only the reports.
func ComputeMonthlyStats(year, month int, students []models.Student, events []models.StatusChangeEvent, policies map[string]models.PricingPolicy) (map[string]models.MonthlyBillingReport, error) {
	result, err := NewReconciler(nil).Compute(year, month, students, events, policies)
	if err != nil {
		return nil, err
	}
	return result.Reports, nil
}

// Compute replays every student's status log over the month and aggregates
// the billable counts and costs per academy. Only an invalid year or month
// returns an error; malformed records are counted in Diagnostics.
func (r *Reconciler) Compute(year, month int, students []models.Student, events []models.StatusChangeEvent, policies map[string]models.PricingPolicy) (*Result, error) {
	window, err := NewWindow(year, month, r.loc)
	if err != nil {
		return nil, err
	}

	diag := Diagnostics{}
	timelines := prepareTimelines(events, window, &diag)

	reports := make(map[string]models.MonthlyBillingReport)
	seen := make(map[string]struct{}, len(students))
	for _, student := range students {
		tenantID := student.AcademyID
		if tenantID == "" {
			tenantID = UnassignedTenant
			diag.UnassignedStudents++
		}
		var createdAt time.Time
		if student.CreatedAt == nil || student.CreatedAt.IsZero() {
			createdAt = time.Unix(0, 0)
			diag.DefaultedCreatedAt++
		} else {
			createdAt = *student.CreatedAt
		}

		activeDays := countActiveDays(window, createdAt, timelines[student.ID])
		billable := activeDays >= models.BillableDaysThreshold

		report, ok := reports[tenantID]
		if !ok {
			report = models.MonthlyBillingReport{TenantID: tenantID, Name: tenantID, Students: []models.StudentBillingLine{}}
		}
		report.TotalStudents++
		if billable {
			report.BillableStudents++
		}
		report.Students = append(report.Students, models.StudentBillingLine{
			ID:            student.ID,
			Name:          student.Name,
			Username:      student.Username,
			ActiveDays:    activeDays,
			IsBillable:    billable,
			CurrentStatus: student.Status,
		})
		reports[tenantID] = report

		seen[student.ID] = struct{}{}
		diag.StudentsEvaluated++
	}

	for studentID, timeline := range timelines {
		if _, ok := seen[studentID]; !ok {
			diag.OrphanEvents += len(timeline)
		}
	}

	tenantIDs := make([]string, 0, len(reports))
	for tenantID := range reports {
		tenantIDs = append(tenantIDs, tenantID)
	}
	sort.Strings(tenantIDs)
	for _, tenantID := range tenantIDs {
		report := reports[tenantID]
		policy, ok := policies[tenantID]
		if !ok {
			policy = models.DefaultPricingPolicy(tenantID)
			diag.UnconfiguredTenants = append(diag.UnconfiguredTenants, tenantID)
		}
		report.BillingType, report.TotalCost = TotalCost(policy, report.BillableStudents)
		reports[tenantID] = report
	}

	return &Result{Window: window, Reports: reports, Diagnostics: diag}, nil
}

// TotalCost prices a month for one academy. Unknown billing types are priced per student.
func TotalCost(policy models.PricingPolicy, billableStudents int) (models.BillingType, float64) {
	if policy.BillingType == models.BillingTypeFlatRate {
		return models.BillingTypeFlatRate, policy.FlatRateAmount
	}
	return models.BillingTypePerStudent, float64(billableStudents) * policy.PricePerStudent
}

// prepareTimelines drops events that cannot influence the window and sorts the
// rest per student by ChangedAt. Equal timestamps keep their input order.
func prepareTimelines(events []models.StatusChangeEvent, window Window, diag *Diagnostics) map[string][]models.StatusChangeEvent {
	timelines := make(map[string][]models.StatusChangeEvent)
	for _, event := range events {
		if event.StudentID == "" || !event.NewStatus.Valid() || event.ChangedAt.IsZero() {
			diag.MalformedEvents++
			continue
		}
		if event.ChangedAt.After(window.End) {
			diag.FutureEvents++
			continue
		}
		timelines[event.StudentID] = append(timelines[event.StudentID], event)
	}
	for studentID := range timelines {
		timeline := timelines[studentID]
		sort.SliceStable(timeline, func(i, j int) bool {
			return timeline[i].ChangedAt.Before(timeline[j].ChangedAt)
		})
	}
	return timelines
}

// countActiveDays walks the calendar days from the effective start to the end
// of the month, taking the status of the last event at or before each day's
// 23:59:59.999. Before the first event a student is active.
func countActiveDays(window Window, createdAt time.Time, timeline []models.StatusChangeEvent) int {
	firstDay := window.FirstDayFrom(createdAt)
	if firstDay == 0 {
		return 0
	}

	status := models.StudentStatusActive
	next := 0
	activeDays := 0
	for day := firstDay; day <= window.Days(); day++ {
		boundary := window.DayEnd(day)
		for next < len(timeline) && !timeline[next].ChangedAt.After(boundary) {
			status = timeline[next].NewStatus
			next++
		}
		if status == models.StudentStatusActive {
			activeDays++
		}
	}
	return activeDays
}
