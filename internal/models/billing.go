package models

// BillableDaysThreshold is the number of active days that makes a student billable.
const BillableDaysThreshold = 7

// StudentBillingLine is the per-student breakdown of a monthly report.
type StudentBillingLine struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Username      string        `json:"username"`
	ActiveDays    int           `json:"activeDays"`
	IsBillable    bool          `json:"isBillable"`
	CurrentStatus StudentStatus `json:"currentStatus"`
}

// MonthlyBillingReport is the computed view for one academy and month.
type MonthlyBillingReport struct {
	TenantID         string               `json:"-"`
	Name             string               `json:"name"`
	TotalStudents    int                  `json:"totalStudents"`
	BillableStudents int                  `json:"billableStudents"`
	TotalCost        float64              `json:"totalCost"`
	BillingType      BillingType          `json:"billingType"`
	Students         []StudentBillingLine `json:"students"`
}
