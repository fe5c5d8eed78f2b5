package team

import "fmt"

// Team is a fantasy team managed by one user inside a league.
type Team struct {
	ID       string
	LeagueID string
	UserID   string
	Name     string
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.LeagueID == "" {
		return fmt.Errorf("team league id is required")
	}
	if t.UserID == "" {
		return fmt.Errorf("team user id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}
