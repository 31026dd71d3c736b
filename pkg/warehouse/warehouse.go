// Package warehouse reads player and team analytics out of the reporting
// database. Everything here is read-only; the ETL pipeline owns the tables.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

type Client struct {
	db *sql.DB
}

// Open connects to the warehouse through the pgx stdlib driver and fails
// fast if it is unreachable.
func Open(dsn string) (*Client, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("warehouse: parse DSN: %w", err)
	}
	db := stdlib.OpenDB(*cfg)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("warehouse: connect: %w", err)
	}
	return &Client{db: db}, nil
}

// NewClient wraps an existing handle; tests use this with a mock.
func NewClient(db *sql.DB) *Client {
	return &Client{db: db}
}

func (c *Client) Close() error {
	return c.db.Close()
}

// PlayerFilter narrows the players query. Nil fields are unfiltered.
// Prices are in 0.1M units (65 = £6.5M), as the source data stores them.
type PlayerFilter struct {
	Team     *int
	Position *int
	MinPrice *int
	MaxPrice *int
}

// Player mirrors the analytics columns of source_players.
type Player struct {
	PlayerID                 int     `json:"player_id"`
	FirstName                string  `json:"first_name"`
	SecondName               string  `json:"second_name"`
	WebName                  string  `json:"web_name"`
	Team                     int     `json:"team"`
	ElementType              int     `json:"element_type"`
	NowCost                  int     `json:"now_cost"`
	TotalPoints              int     `json:"total_points"`
	PointsPerGame            string  `json:"points_per_game"`
	Form                     string  `json:"form"`
	GoalsScored              int     `json:"goals_scored"`
	Assists                  int     `json:"assists"`
	ExpectedGoals            string  `json:"expected_goals"`
	ExpectedAssists          string  `json:"expected_assists"`
	ExpectedGoalInvolvements string  `json:"expected_goal_involvements"`
	ExpectedGoalsConceded    string  `json:"expected_goals_conceded"`
	CleanSheets              int     `json:"clean_sheets"`
	GoalsConceded            int     `json:"goals_conceded"`
	Minutes                  int     `json:"minutes"`
	SelectedByPercent        string  `json:"selected_by_percent"`
	TransfersInEvent         int     `json:"transfers_in_event"`
	TransfersOutEvent        int     `json:"transfers_out_event"`
	ICTIndex                 string  `json:"ict_index"`
	Influence                string  `json:"influence"`
	Creativity               string  `json:"creativity"`
	Threat                   string  `json:"threat"`
	Bonus                    int     `json:"bonus"`
	BPS                      int     `json:"bps"`
	YellowCards              int     `json:"yellow_cards"`
	RedCards                 int     `json:"red_cards"`
	Saves                    int     `json:"saves"`
	PenaltiesSaved           int     `json:"penalties_saved"`
	PenaltiesMissed          int     `json:"penalties_missed"`
	Status                   string  `json:"status"`
}

// Team mirrors the columns of source_teams.
type Team struct {
	TeamID               int    `json:"team_id"`
	Code                 int    `json:"code"`
	Name                 string `json:"name"`
	ShortName            string `json:"short_name"`
	Position             int    `json:"position"`
	Played               int    `json:"played"`
	Win                  int    `json:"win"`
	Draw                 int    `json:"draw"`
	Loss                 int    `json:"loss"`
	Points               int    `json:"points"`
	Form                 string `json:"form"`
	Strength             int    `json:"strength"`
	StrengthOverallHome  int    `json:"strength_overall_home"`
	StrengthOverallAway  int    `json:"strength_overall_away"`
	StrengthAttackHome   int    `json:"strength_attack_home"`
	StrengthAttackAway   int    `json:"strength_attack_away"`
	StrengthDefenceHome  int    `json:"strength_defence_home"`
	StrengthDefenceAway  int    `json:"strength_defence_away"`
	PulseID              int    `json:"pulse_id"`
	Unavailable          bool   `json:"unavailable"`
	TeamDivision         *string `json:"team_division"` // null for Premier League rows
	ExtractionTimestamp  string `json:"extraction_timestamp"`
	ExtractionDate       string `json:"extraction_date"`
}

const playerColumns = `player_id, first_name, second_name, web_name, team, element_type, now_cost,
	total_points, points_per_game, form, goals_scored, assists, expected_goals, expected_assists,
	expected_goal_involvements, expected_goals_conceded, clean_sheets, goals_conceded, minutes,
	selected_by_percent, transfers_in_event, transfers_out_event, ict_index, influence, creativity,
	threat, bonus, bps, yellow_cards, red_cards, saves, penalties_saved, penalties_missed, status`

// Players returns all players matching filter, best scorers first. Filter
// values are bound, never interpolated.
func (c *Client) Players(ctx context.Context, filter PlayerFilter) ([]Player, error) {
	var conds []string
	var args []any
	bind := func(expr string, v int) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}
	if filter.Team != nil {
		bind("team = $%d", *filter.Team)
	}
	if filter.Position != nil {
		bind("element_type = $%d", *filter.Position)
	}
	if filter.MinPrice != nil {
		bind("now_cost >= $%d", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		bind("now_cost <= $%d", *filter.MaxPrice)
	}

	query := "SELECT " + playerColumns + " FROM source_players"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY total_points DESC"

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("warehouse: players query: %w", err)
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// PlayerByID returns a single player or sql.ErrNoRows.
func (c *Client) PlayerByID(ctx context.Context, id int) (*Player, error) {
	row := c.db.QueryRowContext(ctx,
		"SELECT "+playerColumns+" FROM source_players WHERE player_id = $1", id)
	p, err := scanPlayer(row)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row scanner) (Player, error) {
	var p Player
	err := row.Scan(
		&p.PlayerID, &p.FirstName, &p.SecondName, &p.WebName, &p.Team, &p.ElementType, &p.NowCost,
		&p.TotalPoints, &p.PointsPerGame, &p.Form, &p.GoalsScored, &p.Assists, &p.ExpectedGoals,
		&p.ExpectedAssists, &p.ExpectedGoalInvolvements, &p.ExpectedGoalsConceded, &p.CleanSheets,
		&p.GoalsConceded, &p.Minutes, &p.SelectedByPercent, &p.TransfersInEvent, &p.TransfersOutEvent,
		&p.ICTIndex, &p.Influence, &p.Creativity, &p.Threat, &p.Bonus, &p.BPS, &p.YellowCards,
		&p.RedCards, &p.Saves, &p.PenaltiesSaved, &p.PenaltiesMissed, &p.Status,
	)
	return p, err
}

// Teams returns the league table, ordered by position.
func (c *Client) Teams(ctx context.Context) ([]Team, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT team_id, code, name, short_name, position, played,
	win, draw, loss, points, form, strength, strength_overall_home, strength_overall_away,
	strength_attack_home, strength_attack_away, strength_defence_home, strength_defence_away,
	pulse_id, unavailable, team_division, extraction_timestamp, extraction_date
	FROM source_teams ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("warehouse: teams query: %w", err)
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(
			&t.TeamID, &t.Code, &t.Name, &t.ShortName, &t.Position, &t.Played,
			&t.Win, &t.Draw, &t.Loss, &t.Points, &t.Form, &t.Strength,
			&t.StrengthOverallHome, &t.StrengthOverallAway, &t.StrengthAttackHome,
			&t.StrengthAttackAway, &t.StrengthDefenceHome, &t.StrengthDefenceAway,
			&t.PulseID, &t.Unavailable, &t.TeamDivision, &t.ExtractionTimestamp, &t.ExtractionDate,
		); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}
