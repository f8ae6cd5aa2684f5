package entity

// SlotKey identifies a cell of the grid.
type SlotKey struct {
	Date DateKey   `json:"date"`
	Time TimeLabel `json:"time"`
}

// String renders the key in the "date|time" form used in logs and ICS UIDs.
func (k SlotKey) String() string {
	return string(k.Date) + "|" + string(k.Time)
}

type Slot struct {
	Date           DateKey   `json:"date"`
	Time           TimeLabel `json:"time"`
	AvailableUsers []string  `json:"available_users"`
}

func (s Slot) Key() SlotKey {
	return SlotKey{Date: s.Date, Time: s.Time}
}

func (s Slot) IsAvailable(userID string) bool {
	for _, id := range s.AvailableUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// setAvailable adds or removes userID and reports whether the set changed.
func (s *Slot) setAvailable(userID string, available bool) bool {
	present := s.IsAvailable(userID)
	switch {
	case available && !present:
		s.AvailableUsers = append(s.AvailableUsers, userID)
		return true
	case !available && present:
		s.remove(userID)
		return true
	}
	return false
}

func (s *Slot) remove(userID string) bool {
	kept := s.AvailableUsers[:0]
	removed := false
	for _, id := range s.AvailableUsers {
		if id == userID {
			removed = true
			continue
		}
		kept = append(kept, id)
	}
	s.AvailableUsers = kept
	return removed
}

func (s Slot) clone() Slot {
	users := make([]string, len(s.AvailableUsers))
	copy(users, s.AvailableUsers)
	s.AvailableUsers = users
	return s
}

// SlotUpdate is one entry of a batch toggle.
type SlotUpdate struct {
	Date      DateKey   `json:"date"`
	Time      TimeLabel `json:"time"`
	Available bool      `json:"available"`
}

func (u SlotUpdate) Key() SlotKey {
	return SlotKey{Date: u.Date, Time: u.Time}
}
