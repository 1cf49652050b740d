package export

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/nha-facilities/internal/config"
	"github.com/nha-facilities/internal/resolve"
)

// PostgresExporter loads the master dataset into Postgres for consumers
// that prefer SQL over the flat file.
type PostgresExporter struct {
	db *sql.DB
}

// NewPostgresExporter opens a connection from the PG* environment.
func NewPostgresExporter() (*PostgresExporter, error) {
	host := config.GetEnv("PGHOST", "localhost")
	port := config.GetEnv("PGPORT", "5432")
	user := config.GetEnv("PGUSER", "postgres")
	password := config.GetEnv("PGPASSWORD", "postgres")
	dbname := config.GetEnv("PGDATABASE", "nha_facilities")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)

	return &PostgresExporter{db: db}, nil
}

// Close closes the database connection.
func (e *PostgresExporter) Close() error {
	return e.db.Close()
}

// ExportMaster recreates the master_facility and facility_source tables
// and loads every master record with its provenance rows.
func (e *PostgresExporter) ExportMaster(masters []resolve.MasterRecord) (int, error) {
	ddl := []string{
		`DROP TABLE IF EXISTS facility_source`,
		`DROP TABLE IF EXISTS master_facility`,
		`CREATE TABLE master_facility (
			master_id       TEXT PRIMARY KEY,
			facility_name   TEXT,
			facility_type   TEXT,
			ownership       TEXT,
			address         TEXT,
			state           TEXT,
			district        TEXT,
			pincode         TEXT,
			phone           TEXT,
			email           TEXT,
			specialties     TEXT,
			latitude        DOUBLE PRECISION,
			longitude       DOUBLE PRECISION,
			source_datasets TEXT
		)`,
		`CREATE TABLE facility_source (
			master_id  TEXT REFERENCES master_facility(master_id),
			source     TEXT NOT NULL,
			row_id     INTEGER NOT NULL,
			source_key TEXT,
			PRIMARY KEY (master_id, source, row_id)
		)`,
		`CREATE INDEX idx_master_facility_state ON master_facility(state)`,
		`CREATE INDEX idx_master_facility_name ON master_facility(facility_name)`,
	}
	for _, stmt := range ddl {
		if _, err := e.db.Exec(stmt); err != nil {
			return 0, fmt.Errorf("schema setup failed: %w", err)
		}
	}

	tx, err := e.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	masterStmt, err := tx.Prepare(`
		INSERT INTO master_facility (
			master_id, facility_name, facility_type, ownership, address,
			state, district, pincode, phone, email, specialties,
			latitude, longitude, source_datasets
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare master insert: %w", err)
	}
	defer masterStmt.Close()

	sourceStmt, err := tx.Prepare(`
		INSERT INTO facility_source (master_id, source, row_id, source_key)
		VALUES ($1, $2, $3, $4)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare source insert: %w", err)
	}
	defer sourceStmt.Close()

	exported := 0
	for i := range masters {
		m := &masters[i]

		var lat, lon interface{}
		if m.HasGeo {
			lat, lon = m.Latitude, m.Longitude
		}

		_, err := masterStmt.Exec(
			m.MasterID, m.Name, m.FacilityType, m.Ownership, m.Address,
			m.State, m.District, m.Pincode, m.Phone, m.Email,
			strings.Join(m.Specialties, "|"), lat, lon, sourceDatasets(m),
		)
		if err != nil {
			return exported, fmt.Errorf("failed to insert master %s: %w", m.MasterID, err)
		}

		for _, p := range m.Sources {
			if _, err := sourceStmt.Exec(m.MasterID, string(p.Source), p.RowID, p.SourceKey); err != nil {
				return exported, fmt.Errorf("failed to insert provenance for %s: %w", m.MasterID, err)
			}
		}

		exported++
		if exported%5000 == 0 {
			fmt.Printf("Exported %d records...\n", exported)
		}
	}

	if err := tx.Commit(); err != nil {
		return exported, fmt.Errorf("failed to commit export: %w", err)
	}
	return exported, nil
}
