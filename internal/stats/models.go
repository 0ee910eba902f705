package stats

// DonorDashboard reads the incrementally maintained user aggregates and the
// donor's delivery tallies.
type DonorDashboard struct {
	TotalDonations      int64   `json:"total_donations"`
	TotalAmountDonated  float64 `json:"total_amount_donated"`
	PeopleHelped        int64   `json:"people_helped"`
	ConfirmedDeliveries int64   `json:"confirmed_deliveries"`
}

// AdminDashboard is the cross-cutting view.
type AdminDashboard struct {
	ActiveDonors     int64   `json:"active_donors"`
	ActiveBatchStaff int64   `json:"active_batch_staff"`
	PendingApprovals int64   `json:"pending_approvals"`
	ToBeAssigned     int64   `json:"to_be_assigned"`
	Ongoing          int64   `json:"ongoing"`
	Delivered        int64   `json:"delivered"`
	AverageAmount    float64 `json:"average_amount"`
}

// StaffDashboard scopes the monthly tally to one batch staff member and adds
// the global delivery counts.
type StaffDashboard struct {
	AssignedThisMonth int64 `json:"assigned_this_month"`
	Ongoing           int64 `json:"ongoing"`
	Delivered         int64 `json:"delivered"`
}
