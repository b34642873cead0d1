package repository

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/AMeenalosini/StressTesting/domain"
)

// StressRunRepositorySQLite persists stress runs to a SQLite database.
type StressRunRepositorySQLite struct {
	db *sql.DB
	mu sync.Mutex
}

// NewStressRunRepositorySQLite opens (or creates) the database and runs migrations.
func NewStressRunRepositorySQLite(dbPath string) (*StressRunRepositorySQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &StressRunRepositorySQLite{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *StressRunRepositorySQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS stress_runs (
			id                  TEXT PRIMARY KEY,
			requested_at        INTEGER NOT NULL,
			scenario            TEXT,
			unemployment_shock  REAL,
			gdp_shock           REAL,
			credit_loss         REAL,
			market_loss         REAL,
			total_loss          REAL,
			capital_before      REAL,
			capital_after       REAL,
			car                 REAL,
			reported_credit     INTEGER,
			reported_market     INTEGER,
			reported_total      INTEGER,
			reported_before     INTEGER,
			reported_after      INTEGER,
			reported_car        TEXT,
			basel_minimum       REAL,
			result              TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stress_runs_ts ON stress_runs(requested_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *StressRunRepositorySQLite) Save(run domain.StressRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := run.StressResult
	f := res.Figures
	_, err := r.db.Exec(`INSERT INTO stress_runs
		(id, requested_at, scenario, unemployment_shock, gdp_shock,
		 credit_loss, market_loss, total_loss, capital_before, capital_after, car,
		 reported_credit, reported_market, reported_total, reported_before, reported_after,
		 reported_car, basel_minimum, result)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.RequestedAt.UnixMilli(), res.Scenario,
		res.Inputs.UnemploymentShock, res.Inputs.GDPShock,
		f.CreditLoss, f.MarketLoss, f.TotalLoss,
		f.CapitalBeforeStress, f.CapitalAfterStress, f.CapitalAdequacyRatio,
		res.Losses.CreditLoss, res.Losses.MarketLoss, res.Losses.TotalLoss,
		res.Capital.BeforeStress, res.Capital.AfterStress,
		res.CapitalAdequacyRatio, res.BaselMinimum, string(res.Result),
	)
	if err != nil {
		return fmt.Errorf("insert stress run: %w", err)
	}
	return nil
}

func (r *StressRunRepositorySQLite) Recent(limit int) ([]domain.StressRun, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(`SELECT
		id, requested_at, scenario, unemployment_shock, gdp_shock,
		credit_loss, market_loss, total_loss, capital_before, capital_after, car,
		reported_credit, reported_market, reported_total, reported_before, reported_after,
		reported_car, basel_minimum, result
		FROM stress_runs ORDER BY requested_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query stress runs: %w", err)
	}
	defer rows.Close()

	runs := []domain.StressRun{}
	for rows.Next() {
		var (
			run     domain.StressRun
			ts      int64
			verdict string
		)
		res := &run.StressResult
		if err := rows.Scan(
			&run.ID, &ts, &res.Scenario,
			&res.Inputs.UnemploymentShock, &res.Inputs.GDPShock,
			&res.Figures.CreditLoss, &res.Figures.MarketLoss, &res.Figures.TotalLoss,
			&res.Figures.CapitalBeforeStress, &res.Figures.CapitalAfterStress,
			&res.Figures.CapitalAdequacyRatio,
			&res.Losses.CreditLoss, &res.Losses.MarketLoss, &res.Losses.TotalLoss,
			&res.Capital.BeforeStress, &res.Capital.AfterStress,
			&res.CapitalAdequacyRatio, &res.BaselMinimum, &verdict,
		); err != nil {
			return nil, fmt.Errorf("scan stress run: %w", err)
		}
		run.RequestedAt = time.UnixMilli(ts).UTC()
		res.Result = domain.Verdict(verdict)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *StressRunRepositorySQLite) Close() error {
	return r.db.Close()
}
