package league

import "fmt"

// DefaultMaxRosterSize applies when a league does not configure its own roster cap.
const DefaultMaxRosterSize = 15

// League is a fantasy league whose teams compete for a shared player pool.
type League struct {
	ID              string
	Name            string
	Season          string
	MaxRosterSize   int
	WaiverBatchSize int
}

func (l League) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("league id is required")
	}
	if l.Name == "" {
		return fmt.Errorf("league name is required")
	}
	if l.MaxRosterSize <= 0 {
		return fmt.Errorf("league max roster size must be greater than zero")
	}
	if l.WaiverBatchSize < 0 {
		return fmt.Errorf("league waiver batch size cannot be negative")
	}

	return nil
}

// RosterLimit returns the configured cap or DefaultMaxRosterSize.
func (l League) RosterLimit() int {
	if l.MaxRosterSize <= 0 {
		return DefaultMaxRosterSize
	}
	return l.MaxRosterSize
}
