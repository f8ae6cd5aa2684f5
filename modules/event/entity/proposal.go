package entity

// CalendarBusyEvent is a busy block pulled from a member's calendar.
type CalendarBusyEvent struct {
	Title           string    `json:"title"`
	StartTime       TimeLabel `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
}

// ProposedTimeSlot is one ranked candidate produced by the analyzer.
type ProposedTimeSlot struct {
	Date           DateKey   `json:"date"`
	Time           TimeLabel `json:"time"`
	AvailableUsers []string  `json:"available_users"`
	AvailableCount int       `json:"available_count"`
	TotalMembers   int       `json:"total_members"`
	IsAllAvailable bool      `json:"is_all_available"`
}

// DroppedUpdate is a batch entry removed because it selected a busy time.
type DroppedUpdate struct {
	Update   SlotUpdate        `json:"update"`
	Conflict CalendarBusyEvent `json:"conflict"`
}
