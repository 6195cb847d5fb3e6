package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"derby-go/games/horse_racing"
	"derby-go/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const walletColumns = `player_id, chips, wins, losses, races, created_at, updated_at`

// PostgresLedger stores wallets and race history in PostgreSQL.
type PostgresLedger struct {
	pool          *pgxpool.Pool
	startingChips int64
}

// NewPostgresLedger opens a connection pool and makes sure the tables exist.
func NewPostgresLedger(ctx context.Context, databaseURL string, startingChips int64) (*PostgresLedger, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 45 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second
	config.ConnConfig.RuntimeParams = map[string]string{
		"application_name":                    "derby-go",
		"timezone":                            "UTC",
		"statement_timeout":                   "30s",
		"idle_in_transaction_session_timeout": "60s",
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	conn.Release()

	l := &PostgresLedger{pool: pool, startingChips: startingChips}
	if err := l.createTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	BotLogf("DATABASE", "connected to PostgreSQL")
	return l, nil
}

func (l *PostgresLedger) createTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS wallets (
			player_id  TEXT PRIMARY KEY,
			chips      BIGINT NOT NULL,
			wins       INTEGER NOT NULL DEFAULT 0,
			losses     INTEGER NOT NULL DEFAULT 0,
			races      INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS race_results (
			id          UUID PRIMARY KEY,
			player_id   TEXT NOT NULL,
			race_number INTEGER NOT NULL,
			horse_id    INTEGER NOT NULL,
			horse_name  TEXT NOT NULL,
			odds        NUMERIC(6,2) NOT NULL,
			bet         BIGINT NOT NULL,
			outcome     TEXT NOT NULL,
			winnings    BIGINT NOT NULL,
			winner_id   INTEGER NOT NULL,
			winner_name TEXT NOT NULL,
			standings   INTEGER[] NOT NULL,
			ticks       INTEGER NOT NULL,
			balance     BIGINT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_race_results_player_created
			ON race_results (player_id, created_at DESC)`,
	}
	for _, stmt := range statements {
		if _, err := l.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}

func scanWallet(row pgx.Row) (*models.Wallet, error) {
	w := &models.Wallet{}
	err := row.Scan(&w.PlayerID, &w.Chips, &w.Wins, &w.Losses, &w.Races, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// GetWallet retrieves a wallet, creating one if it doesn't exist
func (l *PostgresLedger) GetWallet(ctx context.Context, playerID string) (*models.Wallet, error) {
	if err := checkPlayerID(playerID); err != nil {
		return nil, err
	}
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE player_id = $1`
	w, err := scanWallet(l.pool.QueryRow(ctx, query, playerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return l.createWallet(ctx, playerID)
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return w, nil
}

func (l *PostgresLedger) createWallet(ctx context.Context, playerID string) (*models.Wallet, error) {
	// ON CONFLICT covers two front ends opening the same wallet at once
	query := `
		INSERT INTO wallets (player_id, chips)
		VALUES ($1, $2)
		ON CONFLICT (player_id) DO UPDATE SET player_id = EXCLUDED.player_id
		RETURNING ` + walletColumns
	w, err := scanWallet(l.pool.QueryRow(ctx, query, playerID, l.startingChips))
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return w, nil
}

// UpdateWallet applies the update in one statement and returns the new wallet
func (l *PostgresLedger) UpdateWallet(ctx context.Context, playerID string, update WalletUpdate) (*models.Wallet, error) {
	if _, err := l.GetWallet(ctx, playerID); err != nil {
		return nil, err
	}
	if update.IsZero() {
		return l.GetWallet(ctx, playerID)
	}

	query, args := buildWalletUpdate(playerID, update)
	w, err := scanWallet(l.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to update wallet: %w", err)
	}
	return w, nil
}

// buildWalletUpdate builds the dynamic SET clause; $1 is always the player id.
func buildWalletUpdate(playerID string, update WalletUpdate) (string, []interface{}) {
	setParts := []string{}
	args := []interface{}{playerID}
	argIndex := 2

	chips := "chips"
	if update.Chips != nil {
		chips = fmt.Sprintf("$%d", argIndex)
		args = append(args, *update.Chips)
		argIndex++
	}
	if update.ChipsIncrement != 0 {
		chips = fmt.Sprintf("%s + $%d", chips, argIndex)
		args = append(args, update.ChipsIncrement)
		argIndex++
	}
	if chips != "chips" {
		setParts = append(setParts, "chips = "+chips)
	}

	counters := []struct {
		column string
		inc    int
	}{
		{"wins", update.WinsIncrement},
		{"losses", update.LossesIncrement},
		{"races", update.RacesIncrement},
	}
	for _, c := range counters {
		if c.inc == 0 {
			continue
		}
		setParts = append(setParts, fmt.Sprintf("%s = %s + $%d", c.column, c.column, argIndex))
		args = append(args, c.inc)
		argIndex++
	}
	setParts = append(setParts, "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE wallets
		SET %s
		WHERE player_id = $1
		RETURNING %s`, strings.Join(setParts, ", "), walletColumns)
	return query, args
}

// RecordRace stores one settled wager
func (l *PostgresLedger) RecordRace(ctx context.Context, rec *models.RaceRecord) error {
	if err := checkPlayerID(rec.PlayerID); err != nil {
		return err
	}
	query := `
		INSERT INTO race_results (id, player_id, race_number, horse_id, horse_name, odds, bet,
			outcome, winnings, winner_id, winner_name, standings, ticks, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := l.pool.Exec(ctx, query,
		rec.ID.String(),
		rec.PlayerID,
		rec.RaceNumber,
		rec.HorseID,
		rec.HorseName,
		rec.Odds.String(),
		rec.Bet,
		string(rec.Outcome),
		rec.Winnings,
		rec.WinnerID,
		rec.WinnerName,
		rec.Standings,
		rec.Ticks,
		rec.Balance,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record race: %w", err)
	}
	return nil
}

// RecentRaces returns the player's latest races, newest first
func (l *PostgresLedger) RecentRaces(ctx context.Context, playerID string, limit int) ([]*models.RaceRecord, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	query := `
		SELECT id::text, player_id, race_number, horse_id, horse_name, odds::text, bet,
			outcome, winnings, winner_id, winner_name, standings, ticks, balance, created_at
		FROM race_results
		WHERE player_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := l.pool.Query(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query races: %w", err)
	}
	defer rows.Close()

	var out []*models.RaceRecord
	for rows.Next() {
		var (
			rec     models.RaceRecord
			id      string
			odds    string
			outcome string
		)
		err := rows.Scan(&id, &rec.PlayerID, &rec.RaceNumber, &rec.HorseID, &rec.HorseName, &odds,
			&rec.Bet, &outcome, &rec.Winnings, &rec.WinnerID, &rec.WinnerName, &rec.Standings,
			&rec.Ticks, &rec.Balance, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan race: %w", err)
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse race id %q: %w", id, err)
		}
		if rec.Odds, err = decimal.NewFromString(odds); err != nil {
			return nil, fmt.Errorf("failed to parse odds %q: %w", odds, err)
		}
		rec.Outcome = horse_racing.Outcome(outcome)
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read races: %w", err)
	}
	return out, nil
}

// Close closes the connection pool
func (l *PostgresLedger) Close() error {
	l.pool.Close()
	return nil
}
