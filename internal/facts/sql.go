package facts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/leapstack-labs/leapkpi/pkg/core"
	"github.com/shopspring/decimal"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Config holds the configuration for opening a fact source.
type Config struct {
	// Driver is "duckdb", "postgres" or "memory".
	Driver string
	// DSN is a DuckDB file path (":memory:" or empty for in-memory) or a
	// Postgres connection string.
	DSN    string
	Logger *slog.Logger
}

// SQLSource reads facts from the four fact tables over database/sql.
// Queries are written with ? placeholders and rebound per driver.
type SQLSource struct {
	db     *sqlx.DB
	driver string
	logger *slog.Logger
}

// Open connects to the configured database. The memory driver returns an
// empty MemorySource.
func Open(ctx context.Context, cfg Config) (Source, error) {
	if cfg.Driver == DriverMemory {
		return NewMemorySource(), nil
	}
	return OpenSQL(ctx, cfg)
}

// OpenSQL connects to DuckDB or Postgres.
func OpenSQL(ctx context.Context, cfg Config) (*SQLSource, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var driverName, dsn string
	switch cfg.Driver {
	case DriverDuckDB, "":
		driverName, dsn = "duckdb", cfg.DSN
		if dsn == ":memory:" {
			dsn = ""
		}
	case DriverPostgres:
		driverName, dsn = "pgx", cfg.DSN
	default:
		return nil, fmt.Errorf("unsupported facts driver: %q", cfg.Driver)
	}

	logger.Debug("opening fact source", slog.String("driver", driverName))

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driverName, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driverName, err)
	}

	driver := cfg.Driver
	if driver == "" {
		driver = DriverDuckDB
	}
	return &SQLSource{db: db, driver: driver, logger: logger}, nil
}

// DB returns the underlying connection.
func (s *SQLSource) DB() *sqlx.DB { return s.db }

// Driver returns the configured driver name.
func (s *SQLSource) Driver() string { return s.driver }

// Close closes the connection.
func (s *SQLSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type facilityRow struct {
	ID      string         `db:"facility_id"`
	Name    sql.NullString `db:"name"`
	State   sql.NullString `db:"state"`
	Region  sql.NullString `db:"region"`
	Setting sql.NullString `db:"setting"`
}

func (r facilityRow) toCore() core.Facility {
	setting, _ := core.ParseSetting(r.Setting.String)
	return core.Facility{
		ID:      r.ID,
		Name:    r.Name.String,
		State:   strings.TrimSpace(r.State.String),
		Region:  strings.TrimSpace(r.Region.String),
		Setting: setting,
	}
}

const facilityColumns = `
	CAST(facility_id AS VARCHAR) AS facility_id,
	CAST(name AS VARCHAR) AS name,
	CAST(state AS VARCHAR) AS state,
	CAST(region AS VARCHAR) AS region,
	CAST(setting AS VARCHAR) AS setting`

// Facilities implements Source.
func (s *SQLSource) Facilities(ctx context.Context) ([]core.Facility, error) {
	var rows []facilityRow
	query := `SELECT ` + facilityColumns + ` FROM ` + TableFacilities + ` ORDER BY 1`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list facilities: %w", err)
	}
	out := make([]core.Facility, len(rows))
	for i, r := range rows {
		out[i] = r.toCore()
	}
	return out, nil
}

// Facility implements Source.
func (s *SQLSource) Facility(ctx context.Context, id string) (core.Facility, error) {
	var row facilityRow
	query := s.db.Rebind(`SELECT ` + facilityColumns + ` FROM ` + TableFacilities + ` WHERE CAST(facility_id AS VARCHAR) = ?`)
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Facility{}, fmt.Errorf("%w: %s", core.ErrUnknownFacility, id)
		}
		return core.Facility{}, fmt.Errorf("failed to get facility %s: %w", id, err)
	}
	return row.toCore(), nil
}

type financeRow struct {
	FacilityID         string         `db:"facility_id"`
	PeriodID           string         `db:"period_id"`
	AccountCategory    string         `db:"account_category"`
	AccountSubcategory sql.NullString `db:"account_subcategory"`
	Department         sql.NullString `db:"department"`
	PayerCategory      sql.NullString `db:"payer_category"`
	Amount             string         `db:"amount"`
	DenominatorType    sql.NullString `db:"denominator_type"`
	SourceFile         sql.NullString `db:"source_file"`
}

// FinanceFacts implements Source. Amounts are read as text so currency keeps
// its exact decimal value.
func (s *SQLSource) FinanceFacts(ctx context.Context, facilityID, periodID string) ([]core.FinanceFact, error) {
	query := s.db.Rebind(`
		SELECT
			CAST(facility_id AS VARCHAR) AS facility_id,
			CAST(period_id AS VARCHAR) AS period_id,
			CAST(account_category AS VARCHAR) AS account_category,
			CAST(account_subcategory AS VARCHAR) AS account_subcategory,
			CAST(department AS VARCHAR) AS department,
			CAST(payer_category AS VARCHAR) AS payer_category,
			CAST(amount AS VARCHAR) AS amount,
			CAST(denominator_type AS VARCHAR) AS denominator_type,
			CAST(source_file AS VARCHAR) AS source_file
		FROM ` + TableFinance + `
		WHERE CAST(facility_id AS VARCHAR) = ? AND CAST(period_id AS VARCHAR) = ?`)

	var rows []financeRow
	if err := s.db.SelectContext(ctx, &rows, query, facilityID, periodID); err != nil {
		return nil, fmt.Errorf("failed to query finance facts: %w", err)
	}

	out := make([]core.FinanceFact, 0, len(rows))
	for _, r := range rows {
		amount, err := decimal.NewFromString(strings.TrimSpace(r.Amount))
		if err != nil {
			return nil, fmt.Errorf("finance fact %s/%s: invalid amount %q: %w", r.FacilityID, r.PeriodID, r.Amount, err)
		}
		f := core.FinanceFact{
			FacilityID:         r.FacilityID,
			PeriodID:           r.PeriodID,
			AccountCategory:    r.AccountCategory,
			AccountSubcategory: r.AccountSubcategory.String,
			Department:         r.Department.String,
			Amount:             amount,
			DenominatorType:    core.DenominatorType(r.DenominatorType.String),
			SourceFile:         r.SourceFile.String,
		}
		if raw := strings.TrimSpace(r.PayerCategory.String); raw != "" {
			p, _ := core.ParsePayerCategory(raw)
			f.PayerCategory = &p
		}
		out = append(out, f)
	}
	return out, nil
}

type censusRow struct {
	FacilityID    string         `db:"facility_id"`
	PeriodID      string         `db:"period_id"`
	PayerCategory string         `db:"payer_category"`
	Days          float64        `db:"days"`
	IsSkilled     sql.NullBool   `db:"is_skilled"`
	IsVent        sql.NullBool   `db:"is_vent"`
	SourceFile    sql.NullString `db:"source_file"`
}

// CensusFacts implements Source. Unknown payer strings are kept normalized
// so the resolver can ignore them.
func (s *SQLSource) CensusFacts(ctx context.Context, facilityID, periodID string) ([]core.CensusFact, error) {
	query := s.db.Rebind(`
		SELECT
			CAST(facility_id AS VARCHAR) AS facility_id,
			CAST(period_id AS VARCHAR) AS period_id,
			CAST(payer_category AS VARCHAR) AS payer_category,
			CAST(days AS DOUBLE PRECISION) AS days,
			CAST(is_skilled AS BOOLEAN) AS is_skilled,
			CAST(is_vent AS BOOLEAN) AS is_vent,
			CAST(source_file AS VARCHAR) AS source_file
		FROM ` + TableCensus + `
		WHERE CAST(facility_id AS VARCHAR) = ? AND CAST(period_id AS VARCHAR) = ?`)

	var rows []censusRow
	if err := s.db.SelectContext(ctx, &rows, query, facilityID, periodID); err != nil {
		return nil, fmt.Errorf("failed to query census facts: %w", err)
	}

	out := make([]core.CensusFact, len(rows))
	for i, r := range rows {
		p, _ := core.ParsePayerCategory(r.PayerCategory)
		out[i] = core.CensusFact{
			FacilityID:    r.FacilityID,
			PeriodID:      r.PeriodID,
			PayerCategory: p,
			Days:          r.Days,
			IsSkilled:     r.IsSkilled.Bool,
			IsVent:        r.IsVent.Bool,
			SourceFile:    r.SourceFile.String,
		}
	}
	return out, nil
}

type occupancyRow struct {
	FacilityID           string          `db:"facility_id"`
	PeriodID             string          `db:"period_id"`
	OperationalBeds      sql.NullFloat64 `db:"operational_beds"`
	LicensedBeds         sql.NullFloat64 `db:"licensed_beds"`
	TotalPatientDays     sql.NullFloat64 `db:"total_patient_days"`
	TotalUnitDays        sql.NullFloat64 `db:"total_unit_days"`
	SecondOccupantDays   sql.NullFloat64 `db:"second_occupant_days"`
	OperationalOccupancy sql.NullFloat64 `db:"operational_occupancy"`
}

// OccupancyFacts implements Source.
func (s *SQLSource) OccupancyFacts(ctx context.Context, facilityID, periodID string) ([]core.OccupancyFact, error) {
	query := s.db.Rebind(`
		SELECT
			CAST(facility_id AS VARCHAR) AS facility_id,
			CAST(period_id AS VARCHAR) AS period_id,
			CAST(operational_beds AS DOUBLE PRECISION) AS operational_beds,
			CAST(licensed_beds AS DOUBLE PRECISION) AS licensed_beds,
			CAST(total_patient_days AS DOUBLE PRECISION) AS total_patient_days,
			CAST(total_unit_days AS DOUBLE PRECISION) AS total_unit_days,
			CAST(second_occupant_days AS DOUBLE PRECISION) AS second_occupant_days,
			CAST(operational_occupancy AS DOUBLE PRECISION) AS operational_occupancy
		FROM ` + TableOccupancy + `
		WHERE CAST(facility_id AS VARCHAR) = ? AND CAST(period_id AS VARCHAR) = ?`)

	var rows []occupancyRow
	if err := s.db.SelectContext(ctx, &rows, query, facilityID, periodID); err != nil {
		if s.missingTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query occupancy facts: %w", err)
	}

	out := make([]core.OccupancyFact, len(rows))
	for i, r := range rows {
		out[i] = core.OccupancyFact{
			FacilityID:         r.FacilityID,
			PeriodID:           r.PeriodID,
			OperationalBeds:    r.OperationalBeds.Float64,
			LicensedBeds:       r.LicensedBeds.Float64,
			TotalPatientDays:   r.TotalPatientDays.Float64,
			TotalUnitDays:      r.TotalUnitDays.Float64,
			SecondOccupantDays: r.SecondOccupantDays.Float64,
		}
		if r.OperationalOccupancy.Valid {
			v := r.OperationalOccupancy.Float64
			out[i].OperationalOccupancy = &v
		}
	}
	return out, nil
}

// Periods implements Source.
func (s *SQLSource) Periods(ctx context.Context) ([]string, error) {
	query := `
		SELECT CAST(period_id AS VARCHAR) AS period_id FROM ` + TableFinance + `
		UNION
		SELECT CAST(period_id AS VARCHAR) AS period_id FROM ` + TableCensus + `
		ORDER BY 1`

	var periods []string
	if err := s.db.SelectContext(ctx, &periods, query); err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}
	return periods, nil
}

// missingTable reports whether err says the queried table does not exist.
// Occupancy data is optional; SNF-only datasets omit the table.
func (s *SQLSource) missingTable(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "does not exist") && strings.Contains(msg, TableOccupancy)
}

var _ Source = (*SQLSource)(nil)
