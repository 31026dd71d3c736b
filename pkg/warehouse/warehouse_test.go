package warehouse

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var playerCols = []string{
	"player_id", "first_name", "second_name", "web_name", "team", "element_type", "now_cost",
	"total_points", "points_per_game", "form", "goals_scored", "assists", "expected_goals",
	"expected_assists", "expected_goal_involvements", "expected_goals_conceded", "clean_sheets",
	"goals_conceded", "minutes", "selected_by_percent", "transfers_in_event", "transfers_out_event",
	"ict_index", "influence", "creativity", "threat", "bonus", "bps", "yellow_cards", "red_cards",
	"saves", "penalties_saved", "penalties_missed", "status",
}

func playerRow(id int, webName string, points int) *sqlmock.Rows {
	rows := sqlmock.NewRows(playerCols)
	rows.AddRow(id, "First", "Second", webName, 1, 3, 65,
		points, "5.2", "4.8", 10, 5, "8.11",
		"4.02", "12.13", "0.00", 2,
		20, 1800, "45.3", 100, 50,
		"120.4", "300.1", "250.7", "400.2", 12, 500, 3, 0,
		0, 0, 0, "a")
	return rows
}

func newMockClient(t *testing.T) (*Client, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewClient(db), mock, db
}

func TestPlayersNoFilter(t *testing.T) {
	client, mock, db := newMockClient(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM source_players ORDER BY total_points DESC`).
		WillReturnRows(playerRow(1, "Salah", 300))

	players, err := client.Players(context.Background(), PlayerFilter{})
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "Salah", players[0].WebName)
	assert.Equal(t, 300, players[0].TotalPoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlayersAllFilters(t *testing.T) {
	client, mock, db := newMockClient(t)
	defer db.Close()

	team, position, minPrice, maxPrice := 1, 3, 50, 100
	mock.ExpectQuery(`WHERE team = \$1 AND element_type = \$2 AND now_cost >= \$3 AND now_cost <= \$4`).
		WithArgs(team, position, minPrice, maxPrice).
		WillReturnRows(playerRow(2, "Saka", 210))

	players, err := client.Players(context.Background(), PlayerFilter{
		Team: &team, Position: &position, MinPrice: &minPrice, MaxPrice: &maxPrice,
	})
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlayerByID(t *testing.T) {
	client, mock, db := newMockClient(t)
	defer db.Close()

	mock.ExpectQuery(`FROM source_players WHERE player_id = \$1`).
		WithArgs(7).
		WillReturnRows(playerRow(7, "Haaland", 280))

	p, err := client.PlayerByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, p.PlayerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlayerByIDNotFound(t *testing.T) {
	client, mock, db := newMockClient(t)
	defer db.Close()

	mock.ExpectQuery(`FROM source_players WHERE player_id = \$1`).
		WithArgs(9999).
		WillReturnRows(sqlmock.NewRows(playerCols))

	_, err := client.PlayerByID(context.Background(), 9999)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTeams(t *testing.T) {
	client, mock, db := newMockClient(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"team_id", "code", "name", "short_name", "position", "played",
		"win", "draw", "loss", "points", "form", "strength",
		"strength_overall_home", "strength_overall_away", "strength_attack_home",
		"strength_attack_away", "strength_defence_home", "strength_defence_away",
		"pulse_id", "unavailable", "team_division", "extraction_timestamp", "extraction_date",
	}).AddRow(1, 3, "Arsenal", "ARS", 1, 38,
		26, 6, 6, 84, "WWDWL", 5,
		1350, 1380, 1390,
		1410, 1310, 1330,
		1, false, nil, "2025-08-30T02:00:00Z", "2025-08-30")

	mock.ExpectQuery(`FROM source_teams ORDER BY position`).WillReturnRows(rows)

	teams, err := client.Teams(context.Background())
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, "Arsenal", teams[0].Name)
	assert.Equal(t, 1, teams[0].Position)
	assert.Nil(t, teams[0].TeamDivision)
	assert.NoError(t, mock.ExpectationsWereMet())
}
