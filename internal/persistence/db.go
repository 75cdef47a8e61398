// Package persistence stores finished-run audit records in SQLite for
// downstream metrics and reporting tools.
package persistence

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/oasis-sim/internal/engine"
)

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		scenario TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		aquifer_extracted_m3 REAL NOT NULL,
		cash_reserves REAL NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS water_records (
		run_id TEXT NOT NULL,
		farm_id TEXT NOT NULL,
		date TEXT NOT NULL,
		demand_m3 REAL NOT NULL,
		groundwater_m3 REAL NOT NULL,
		municipal_m3 REAL NOT NULL,
		energy_kwh REAL NOT NULL,
		cost REAL NOT NULL,
		reason TEXT NOT NULL,
		binding TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS energy_records (
		run_id TEXT NOT NULL,
		date TEXT NOT NULL,
		demand_kwh REAL NOT NULL,
		pv_kwh REAL NOT NULL,
		wind_kwh REAL NOT NULL,
		battery_charge_kwh REAL NOT NULL,
		battery_discharge_kwh REAL NOT NULL,
		grid_import_kwh REAL NOT NULL,
		grid_export_kwh REAL NOT NULL,
		generator_kwh REAL NOT NULL,
		fuel_l REAL NOT NULL,
		curtailed_kwh REAL NOT NULL,
		unmet_kwh REAL NOT NULL,
		soc REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS farm_years (
		run_id TEXT NOT NULL,
		farm_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		groundwater_m3 REAL NOT NULL,
		municipal_m3 REAL NOT NULL,
		water_cost REAL NOT NULL,
		fertilizer_cost REAL NOT NULL,
		energy_kwh REAL NOT NULL,
		yield_kg REAL NOT NULL,
		fresh_revenue REAL NOT NULL,
		processed_revenue REAL NOT NULL,
		processed_kg REAL NOT NULL,
		post_harvest_loss_kg REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS community_years (
		run_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		revenue REAL NOT NULL,
		operating_cost REAL NOT NULL,
		grid_import_kwh REAL NOT NULL,
		grid_export_kwh REAL NOT NULL,
		generator_kwh REAL NOT NULL,
		fuel_l REAL NOT NULL,
		unmet_kwh REAL NOT NULL,
		aquifer_years_remaining REAL,
		cash_reserves REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_water_run_date ON water_records(run_id, date);
	CREATE INDEX IF NOT EXISTS idx_energy_run_date ON energy_records(run_id, date);
	CREATE INDEX IF NOT EXISTS idx_farm_years_run ON farm_years(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

const dateLayout = "2006-01-02"

// SaveRun writes a finished run and all its audit records.
func (db *DB) SaveRun(res *engine.Result) error {
	slog.Info("saving run",
		"run", res.RunID,
		"water_records", len(res.WaterRecords),
		"energy_records", len(res.EnergyRecords))

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT OR REPLACE INTO runs
		(id, scenario, start_date, end_date, aquifer_extracted_m3, cash_reserves, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.RunID.String(), res.Scenario,
		res.Start.Format(dateLayout), res.End.Format(dateLayout),
		res.Aquifer.CumulativeExtractionM3, res.Econ.CashReserves,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	wstmt, err := tx.Preparex(`INSERT INTO water_records
		(run_id, farm_id, date, demand_m3, groundwater_m3, municipal_m3, energy_kwh, cost, reason, binding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer wstmt.Close()
	for _, r := range res.WaterRecords {
		if _, err := wstmt.Exec(
			res.RunID.String(), r.FarmID, r.Date.Format(dateLayout),
			r.DemandM3, r.GroundwaterM3, r.MunicipalM3, r.EnergyKWh, r.Cost,
			r.Reason, string(r.Binding),
		); err != nil {
			return fmt.Errorf("insert water record: %w", err)
		}
	}

	estmt, err := tx.Preparex(`INSERT INTO energy_records
		(run_id, date, demand_kwh, pv_kwh, wind_kwh, battery_charge_kwh, battery_discharge_kwh,
		 grid_import_kwh, grid_export_kwh, generator_kwh, fuel_l, curtailed_kwh, unmet_kwh, soc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer estmt.Close()
	for _, r := range res.EnergyRecords {
		if _, err := estmt.Exec(
			res.RunID.String(), r.Date.Format(dateLayout),
			r.DemandKWh, r.PVKWh, r.WindKWh, r.BatteryChargeKWh, r.BatteryDischargeKWh,
			r.GridImportKWh, r.GridExportKWh, r.GeneratorKWh, r.FuelL,
			r.CurtailedKWh, r.UnmetKWh, r.SOC,
		); err != nil {
			return fmt.Errorf("insert energy record: %w", err)
		}
	}

	for _, fy := range res.FarmYears {
		if _, err := tx.Exec(`INSERT INTO farm_years
			(run_id, farm_id, year, groundwater_m3, municipal_m3, water_cost, fertilizer_cost,
			 energy_kwh, yield_kg, fresh_revenue, processed_revenue, processed_kg, post_harvest_loss_kg)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.RunID.String(), fy.FarmID, fy.Year,
			fy.Totals.GroundwaterM3, fy.Totals.MunicipalM3, fy.Totals.WaterCost,
			fy.Totals.FertilizerCost, fy.Totals.EnergyKWh, fy.Totals.YieldKg,
			fy.Totals.FreshRevenue, fy.Totals.ProcessedRevenue,
			fy.Totals.ProcessedKg, fy.Totals.PostHarvestLossKg,
		); err != nil {
			return fmt.Errorf("insert farm year: %w", err)
		}
	}

	for _, cy := range res.CommunityYears {
		if _, err := tx.Exec(`INSERT INTO community_years
			(run_id, year, revenue, operating_cost, grid_import_kwh, grid_export_kwh,
			 generator_kwh, fuel_l, unmet_kwh, aquifer_years_remaining, cash_reserves)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.RunID.String(), cy.Year, cy.Revenue, cy.OperatingCost,
			cy.Energy.GridImportKWh, cy.Energy.GridExportKWh,
			cy.Energy.GeneratorKWh, cy.Energy.FuelL, cy.Energy.UnmetKWh,
			nullableInf(cy.YearsRemaining), cy.CashReserves,
		); err != nil {
			return fmt.Errorf("insert community year: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("run saved", "run", res.RunID)
	return nil
}

// nullableInf maps +Inf (sustainable extraction) to SQL NULL.
func nullableInf(v float64) any {
	if math.IsInf(v, 1) {
		return nil
	}
	return v
}

// RunSummary is one row of the runs table.
type RunSummary struct {
	ID                 string  `db:"id"`
	Scenario           string  `db:"scenario"`
	StartDate          string  `db:"start_date"`
	EndDate            string  `db:"end_date"`
	AquiferExtractedM3 float64 `db:"aquifer_extracted_m3"`
	CashReserves       float64 `db:"cash_reserves"`
	CreatedAt          string  `db:"created_at"`
}

// RecentRuns returns the most recent N saved runs.
func (db *DB) RecentRuns(limit int) ([]RunSummary, error) {
	var runs []RunSummary
	err := db.conn.Select(&runs,
		"SELECT * FROM runs ORDER BY created_at DESC LIMIT ?", limit)
	return runs, err
}
