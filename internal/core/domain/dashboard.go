package domain

// StatusCount pairs a ticket status with how many tickets hold it.
type StatusCount struct {
	Status TicketStatus `json:"status"`
	Count  int64        `json:"count"`
}

// PriorityCount pairs a ticket priority with how many tickets hold it.
type PriorityCount struct {
	Priority TicketPriority `json:"priority"`
	Count    int64          `json:"count"`
}

// AgentLoad reports how many open tickets an agent currently carries.
type AgentLoad struct {
	AgentID   string `json:"agentId"`
	AgentName string `json:"agentName"`
	OpenCount int64  `json:"openCount"`
}

// DashboardOverview is the admin dashboard aggregate.
type DashboardOverview struct {
	TotalTickets      int64           `json:"totalTickets"`
	OpenTickets       int64           `json:"openTickets"`
	BreachedTickets   int64           `json:"breachedTickets"`
	DueWithinHour     int64           `json:"dueWithinHour"`
	ByStatus          []StatusCount   `json:"byStatus"`
	ByPriority        []PriorityCount `json:"byPriority"`
	AgentLoads        []AgentLoad     `json:"agentLoads"`
	AvgResolutionMS   *int64          `json:"avgResolutionMs"`
	ClosedLast30Days  int64           `json:"closedLast30Days"`
	ReopenedLast30    int64           `json:"reopenedLast30Days"`
}

// TicketStats is the per-user stats summary.
type TicketStats struct {
	Total      int64           `json:"total"`
	Open       int64           `json:"open"`
	Resolved   int64           `json:"resolved"`
	Closed     int64           `json:"closed"`
	Breached   int64           `json:"breached"`
	ByStatus   []StatusCount   `json:"byStatus"`
	ByPriority []PriorityCount `json:"byPriority"`
}
