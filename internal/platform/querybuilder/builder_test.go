package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("id", "name").
		From("users").
		Where(Eq("tenant_id", "t1"), IsNull("deleted_at")).
		OrderBy("id").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id, name FROM users WHERE tenant_id = $1 AND deleted_at IS NULL ORDER BY id LIMIT 10"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "t1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("users").
		Columns("id", "name").
		Values("u1", "name-1").
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO users (id, name) VALUES ($1, $2) RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "u1" || args[1] != "name-1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("users").
		Set("name", "new").
		SetExpr("updated_at", "NOW()").
		Where(Eq("id", "u1")).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE users SET name = $1, updated_at = NOW() WHERE id = $2"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "new" || args[1] != "u1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilderJoinAndLockingSuffix(t *testing.T) {
	query, args, err := Select("c.id", "c.team_id").
		From("waiver_claims c").
		Join("LEFT JOIN team_waiver_priorities p ON p.league_id = c.league_id AND p.team_id = c.team_id").
		Where(Eq("c.league_id", "l1"), Expr("c.process_at <= ?", "now")).
		OrderBy("p.priority ASC NULLS LAST", "c.created_at ASC").
		Limit(50).
		Suffix("FOR UPDATE OF c SKIP LOCKED").
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT c.id, c.team_id FROM waiver_claims c LEFT JOIN team_waiver_priorities p ON p.league_id = c.league_id AND p.team_id = c.team_id WHERE c.league_id = $1 AND c.process_at <= $2 ORDER BY p.priority ASC NULLS LAST, c.created_at ASC LIMIT 50 FOR UPDATE OF c SKIP LOCKED"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[1] != "now" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilderSuffixArgs(t *testing.T) {
	query, args, err := InsertInto("draft_reservations").
		Columns("league_id", "player_id", "team_id").
		Values("l1", "p1", "t1").
		Suffix("ON CONFLICT (league_id, player_id) DO UPDATE SET team_id = EXCLUDED.team_id WHERE draft_reservations.expires_at <= ? RETURNING team_id", "cutoff").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO draft_reservations (league_id, player_id, team_id) VALUES ($1, $2, $3) ON CONFLICT (league_id, player_id) DO UPDATE SET team_id = EXCLUDED.team_id WHERE draft_reservations.expires_at <= $4 RETURNING team_id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 4 || args[3] != "cutoff" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestDeleteBuilder(t *testing.T) {
	query, args, err := DeleteFrom("ownership_records").
		Where(Eq("league_id", "l1"), Eq("player_id", "p1")).
		ToSQL()
	if err != nil {
		t.Fatalf("build delete query: %v", err)
	}

	wantQuery := "DELETE FROM ownership_records WHERE league_id = $1 AND player_id = $2"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := DeleteFrom("ownership_records").ToSQL(); err == nil {
		t.Fatalf("expected unconditional delete to be refused")
	}
}
