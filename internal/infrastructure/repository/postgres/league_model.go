package postgres

import "time"

type leagueTableModel struct {
	ID              int64      `db:"id"`
	PublicID        string     `db:"public_id"`
	Name            string     `db:"name"`
	Season          string     `db:"season"`
	MaxRosterSize   int        `db:"max_roster_size"`
	WaiverBatchSize int        `db:"waiver_batch_size"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
	DeletedAt       *time.Time `db:"deleted_at"`
}
