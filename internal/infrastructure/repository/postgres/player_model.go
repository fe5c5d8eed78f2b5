package postgres

import "time"

type playerTableModel struct {
	ID        int64      `db:"id"`
	PublicID  string     `db:"public_id"`
	LeagueID  string     `db:"league_public_id"`
	Club      string     `db:"club"`
	Name      string     `db:"name"`
	Position  string     `db:"position"`
	IsActive  bool       `db:"is_active"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}
