package memory

import (
	"github.com/riskibarqy/fantasy-roster/internal/domain/league"
	"github.com/riskibarqy/fantasy-roster/internal/domain/player"
	"github.com/riskibarqy/fantasy-roster/internal/domain/team"
)

const (
	LeagueIDClassic = "liga1-classic-2025"
	LeagueIDDraft   = "liga1-draft-2025"
)

func SeedLeagues() []league.League {
	return []league.League{
		{
			ID:              LeagueIDClassic,
			Name:            "Liga 1 Classic",
			Season:          "2025/2026",
			MaxRosterSize:   15,
			WaiverBatchSize: 50,
		},
		{
			ID:              LeagueIDDraft,
			Name:            "Liga 1 Draft",
			Season:          "2025/2026",
			MaxRosterSize:   15,
			WaiverBatchSize: 50,
		},
	}
}

func SeedTeams() []team.Team {
	return []team.Team{
		{ID: "classic-garuda", LeagueID: LeagueIDClassic, UserID: "user-1", Name: "Garuda FC"},
		{ID: "classic-macan", LeagueID: LeagueIDClassic, UserID: "user-2", Name: "Macan Kemayoran"},
		{ID: "classic-bajul", LeagueID: LeagueIDClassic, UserID: "user-3", Name: "Bajul Ijo"},
		{ID: "classic-serdadu", LeagueID: LeagueIDClassic, UserID: "user-4", Name: "Serdadu Tridatu"},
		{ID: "draft-garuda", LeagueID: LeagueIDDraft, UserID: "user-1", Name: "Garuda Draft"},
		{ID: "draft-macan", LeagueID: LeagueIDDraft, UserID: "user-2", Name: "Macan Draft"},
	}
}

type seedPlayer struct {
	id       string
	club     string
	name     string
	position player.Position
}

var seedUniverse = []seedPlayer{
	{id: "idn-gk-01", club: "Persija Jakarta", name: "Andritany Ardhiyasa", position: player.PositionGoalkeeper},
	{id: "idn-gk-02", club: "Persib Bandung", name: "Teja Paku Alam", position: player.PositionGoalkeeper},
	{id: "idn-def-01", club: "Persija Jakarta", name: "Hansamu Yama", position: player.PositionDefender},
	{id: "idn-def-02", club: "Persib Bandung", name: "Nick Kuipers", position: player.PositionDefender},
	{id: "idn-def-03", club: "Persebaya Surabaya", name: "Dusan Stevanovic", position: player.PositionDefender},
	{id: "idn-def-04", club: "Bali United", name: "Ricky Fajrin", position: player.PositionDefender},
	{id: "idn-def-05", club: "Persebaya Surabaya", name: "Arief Catur", position: player.PositionDefender},
	{id: "idn-mid-01", club: "Persija Jakarta", name: "Maciej Gajos", position: player.PositionMidfielder},
	{id: "idn-mid-02", club: "Persib Bandung", name: "Marc Klok", position: player.PositionMidfielder},
	{id: "idn-mid-03", club: "Persebaya Surabaya", name: "Bruno Moreira", position: player.PositionMidfielder},
	{id: "idn-mid-04", club: "Bali United", name: "Eber Bessa", position: player.PositionMidfielder},
	{id: "idn-mid-05", club: "Bali United", name: "Mitsuru Maruoka", position: player.PositionMidfielder},
	{id: "idn-mid-06", club: "Persib Bandung", name: "Dedi Kusnandar", position: player.PositionMidfielder},
	{id: "idn-fwd-01", club: "Persija Jakarta", name: "Gustavo Almeida", position: player.PositionForward},
	{id: "idn-fwd-02", club: "Persib Bandung", name: "David da Silva", position: player.PositionForward},
	{id: "idn-fwd-03", club: "Persebaya Surabaya", name: "Paulo Henrique", position: player.PositionForward},
}

// SeedPlayers returns the same athlete universe for every seeded league.
func SeedPlayers() []player.Player {
	leagues := SeedLeagues()
	out := make([]player.Player, 0, len(leagues)*len(seedUniverse))
	for _, l := range leagues {
		for _, p := range seedUniverse {
			out = append(out, player.Player{
				ID:       p.id,
				LeagueID: l.ID,
				Club:     p.club,
				Name:     p.name,
				Position: p.position,
				Active:   true,
			})
		}
	}

	return out
}
