package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vicbox/starterkit/internal/database"
	"github.com/vicbox/starterkit/internal/models"
)

const userLoginColumns = `id, user_id, user_name, email, ip_address, device_info, login_time,
	status, failure_reason, session_id, location, created_at, updated_at`

// UserLoginRepository handles database operations for the append-only user_logins table
type UserLoginRepository struct {
	db *database.DB
}

// NewUserLoginRepository creates a new UserLoginRepository
func NewUserLoginRepository(db *database.DB) *UserLoginRepository {
	return &UserLoginRepository{db: db}
}

func scanUserLogin(scanner rowScanner) (*models.UserLogin, error) {
	var login models.UserLogin
	err := scanner.Scan(
		&login.ID, &login.UserID, &login.UserName, &login.Email, &login.IPAddress,
		&login.DeviceInfo, &login.LoginTime, &login.Status, &login.FailureReason,
		&login.SessionID, &login.Location, &login.CreatedAt, &login.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &login, nil
}

func scanUserLogins(rows pgx.Rows) ([]*models.UserLogin, error) {
	defer rows.Close()

	logins := make([]*models.UserLogin, 0)
	for rows.Next() {
		login, err := scanUserLogin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user login: %w", err)
		}
		logins = append(logins, login)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return logins, nil
}

// Insert stores a login record; id and timestamps are assigned here and by the database
func (r *UserLoginRepository) Insert(ctx context.Context, login *models.UserLogin) (*models.UserLogin, error) {
	query := `
		INSERT INTO user_logins (id, user_id, user_name, email, ip_address, device_info,
			status, failure_reason, session_id, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + userLoginColumns

	row := r.db.Pool.QueryRow(ctx, query,
		uuid.New().String(),
		login.UserID,
		login.UserName,
		login.Email,
		login.IPAddress,
		login.DeviceInfo,
		login.Status,
		login.FailureReason,
		login.SessionID,
		login.Location,
	)

	return scanUserLogin(row)
}

// CountByUser returns the number of login records owned by a user
func (r *UserLoginRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_logins WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

// ListByUser returns a page of a user's login records, newest first
func (r *UserLoginRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.UserLogin, error) {
	query := `
		SELECT ` + userLoginColumns + `
		FROM user_logins
		WHERE user_id = $1
		ORDER BY login_time DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query user logins: %w", err)
	}
	return scanUserLogins(rows)
}

// ListRecentActivity reads the recent_login_activity projection, newest first
func (r *UserLoginRepository) ListRecentActivity(ctx context.Context, userID string, limit int) ([]*models.RecentLoginActivity, error) {
	query := `
		SELECT id, user_id, email, ip_address, browser, os, country, city, login_time, status, failure_reason
		FROM recent_login_activity
		WHERE user_id = $1
		ORDER BY login_time DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent login activity: %w", err)
	}
	defer rows.Close()

	activity := make([]*models.RecentLoginActivity, 0)
	for rows.Next() {
		var a models.RecentLoginActivity
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.Email, &a.IPAddress, &a.Browser, &a.OS,
			&a.Country, &a.City, &a.LoginTime, &a.Status, &a.FailureReason,
		); err != nil {
			return nil, fmt.Errorf("failed to scan login activity: %w", err)
		}
		activity = append(activity, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return activity, nil
}

// LoginStats calls the get_login_stats procedure. Every row it returns is passed
// back so the caller can validate the shape.
func (r *UserLoginRepository) LoginStats(ctx context.Context, userID string, daysBack int) ([]models.LoginStats, error) {
	query := `
		SELECT total_logins, successful_logins, failed_logins, unique_ips, last_login
		FROM get_login_stats($1, $2)
	`

	rows, err := r.db.Pool.Query(ctx, query, userID, daysBack)
	if err != nil {
		return nil, fmt.Errorf("failed to query login stats: %w", err)
	}
	defer rows.Close()

	var stats []models.LoginStats
	for rows.Next() {
		var s models.LoginStats
		if err := rows.Scan(&s.TotalLogins, &s.SuccessfulLogins, &s.FailedLogins, &s.UniqueIPs, &s.LastLogin); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrMalformedStats, err)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return stats, nil
}

// ListByStatusSince returns a user's records with one of statuses since the cutoff, newest first
func (r *UserLoginRepository) ListByStatusSince(ctx context.Context, userID string, statuses []models.LoginStatus, since time.Time) ([]*models.UserLogin, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	query := `
		SELECT ` + userLoginColumns + `
		FROM user_logins
		WHERE user_id = $1 AND status = ANY($2) AND login_time >= $3
		ORDER BY login_time DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID, values, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query user logins by status: %w", err)
	}
	return scanUserLogins(rows)
}

// ListSuccessfulDevices returns the device info and time of every successful login, newest first
func (r *UserLoginRepository) ListSuccessfulDevices(ctx context.Context, userID string) ([]*models.UserLogin, error) {
	query := `
		SELECT device_info, login_time
		FROM user_logins
		WHERE user_id = $1 AND status = 'success'
		ORDER BY login_time DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user devices: %w", err)
	}
	defer rows.Close()

	logins := make([]*models.UserLogin, 0)
	for rows.Next() {
		login := &models.UserLogin{Status: models.LoginStatusSuccess}
		if err := rows.Scan(&login.DeviceInfo, &login.LoginTime); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		logins = append(logins, login)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return logins, nil
}

// ListSuccessfulLocationsSince returns ip/location pairs of successful logins since the cutoff
func (r *UserLoginRepository) ListSuccessfulLocationsSince(ctx context.Context, userID string, since time.Time) ([]models.LoginLocation, error) {
	query := `
		SELECT ip_address, location
		FROM user_logins
		WHERE user_id = $1 AND status = 'success' AND login_time >= $2
		ORDER BY login_time DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query login locations: %w", err)
	}
	defer rows.Close()

	var out []models.LoginLocation
	for rows.Next() {
		var l models.LoginLocation
		if err := rows.Scan(&l.IPAddress, &l.Location); err != nil {
			return nil, fmt.Errorf("failed to scan login location: %w", err)
		}
		out = append(out, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return out, nil
}

// CountFailedByEmailSince counts failed attempts for an email since the cutoff,
// whether or not an account matched
func (r *UserLoginRepository) CountFailedByEmailSince(ctx context.Context, email string, since time.Time) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_logins WHERE email = $1 AND status = 'failed' AND login_time >= $2`,
		email, since,
	).Scan(&count)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

// CountFailedByIPSince counts failed attempts from an address since the cutoff
func (r *UserLoginRepository) CountFailedByIPSince(ctx context.Context, ipAddress string, since time.Time) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_logins WHERE ip_address = $1 AND status = 'failed' AND login_time >= $2`,
		ipAddress, since,
	).Scan(&count)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}
