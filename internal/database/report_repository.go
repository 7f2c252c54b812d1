package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/pawhncho/futurepulse/internal/domain"
)

// reportColumns must match the Scan order in scanReport.
const reportColumns = `id, location, latitude, longitude, report_type, description, status,
	sensor_data, verification_status, rating, valid_until, user_id, timestamp`

// ReportRepo implements domain.ReportRepository backed by PostgreSQL.
type ReportRepo struct {
	pool  *pgxpool.Pool
	clock clockwork.Clock
}

func NewReportRepo(pool *pgxpool.Pool, clock clockwork.Clock) *ReportRepo {
	return &ReportRepo{pool: pool, clock: clock}
}

func scanReport(row pgx.Row) (*domain.Report, error) {
	var r domain.Report
	err := row.Scan(
		&r.ID, &r.Location, &r.Latitude, &r.Longitude, &r.ReportType, &r.Description,
		&r.Status, &r.SensorData, &r.VerificationStatus, &r.Rating, &r.ValidUntil,
		&r.UserID, &r.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *ReportRepo) Create(ctx context.Context, nr domain.NewReport) (*domain.Report, error) {
	defer observe(r.clock, "report_create")()

	sensorData := nr.SensorData
	if sensorData == nil {
		sensorData = map[string]any{}
	}

	report, err := scanReport(r.pool.QueryRow(ctx, `
		INSERT INTO reports (location, latitude, longitude, report_type, description,
			status, sensor_data, verification_status, rating, valid_until, user_id)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6, FALSE, $7, $8, $9)
		RETURNING `+reportColumns,
		nr.Location, nr.Latitude, nr.Longitude, nr.ReportType, nr.Description,
		sensorData, nr.Rating, nr.ValidUntil, nr.UserID))
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return report, nil
}

func (r *ReportRepo) ListAll(ctx context.Context) ([]domain.Report, error) {
	defer observe(r.clock, "report_list_all")()

	rows, err := r.pool.Query(ctx, `
		SELECT `+reportColumns+` FROM reports ORDER BY timestamp DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return collectReports(rows)
}

func (r *ReportRepo) ListValid(ctx context.Context, now time.Time) ([]domain.Report, error) {
	defer observe(r.clock, "report_list_valid")()

	// NULL valid_until never satisfies >=, so unbounded reports are excluded.
	rows, err := r.pool.Query(ctx, `
		SELECT `+reportColumns+` FROM reports
		WHERE valid_until >= $1
		ORDER BY timestamp DESC`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list valid reports: %w", err)
	}
	return collectReports(rows)
}

func (r *ReportRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	defer observe(r.clock, "report_get_by_id")()

	report, err := scanReport(r.pool.QueryRow(ctx, `
		SELECT `+reportColumns+` FROM reports WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return report, nil
}

func collectReports(rows pgx.Rows) ([]domain.Report, error) {
	defer rows.Close()

	reports := make([]domain.Report, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reports: %w", err)
	}
	return reports, nil
}
