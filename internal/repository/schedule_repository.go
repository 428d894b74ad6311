package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

// ScheduleRepository provides persistence for schedules and their
// resulting placements.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns schedules with optional filtering and pagination.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	base := "FROM schedules WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.InstitutionID != "" {
		conditions = append(conditions, fmt.Sprintf("institution_id = $%d", len(args)+1))
		args = append(args, filter.InstitutionID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	allowedSorts := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"timestamp":  true,
		"status":     true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, institution_id, time_grid_config, timestamp, status, error_message, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", base, sortBy, order, size, offset)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}

	return schedules, total, nil
}

// FindByID loads a schedule by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	const query = `SELECT id, institution_id, time_grid_config, timestamp, status, error_message, created_at, updated_at FROM schedules WHERE id = $1`
	var sched models.Schedule
	if err := r.db.GetContext(ctx, &sched, query, id); err != nil {
		return nil, err
	}
	return &sched, nil
}

// Create stores a new schedule record in DRAFT status.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now
	if schedule.Timestamp.IsZero() {
		schedule.Timestamp = now
	}

	const query = `INSERT INTO schedules (id, institution_id, time_grid_config, timestamp, status, error_message, created_at, updated_at) VALUES (:id, :institution_id, :time_grid_config, :timestamp, :status, :error_message, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// UpdateStatus transitions a schedule's status, recording an error message
// when moving to FAILED (spec.md §4.8 state machine).
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, id string, status models.ScheduleStatus, errMsg *string) error {
	const query = `UPDATE schedules SET status = $2, error_message = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, errMsg, time.Now().UTC()); err != nil {
		return fmt.Errorf("update schedule status: %w", err)
	}
	return nil
}

// TransitionStatus moves a schedule from one status to another only if its
// current status still matches from, so a redelivered queue message (spec.md
// §4.10) cannot re-run a schedule the first delivery already picked up.
// Reports whether the transition happened.
func (r *ScheduleRepository) TransitionStatus(ctx context.Context, id string, from, to models.ScheduleStatus) (bool, error) {
	const query = `UPDATE schedules SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	result, err := r.db.ExecContext(ctx, query, id, from, to, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("transition schedule status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition schedule status: %w", err)
	}
	return affected > 0, nil
}

// ListStaleRunning returns schedules stuck in RUNNING since before cutoff,
// for the reaper's abandonment sweep (spec.md §4.8 "Cancellation").
func (r *ScheduleRepository) ListStaleRunning(ctx context.Context, cutoff time.Time) ([]models.Schedule, error) {
	const query = `SELECT id, institution_id, time_grid_config, timestamp, status, error_message, created_at, updated_at FROM schedules WHERE status = $1 AND updated_at < $2`
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, models.ScheduleRunning, cutoff); err != nil {
		return nil, fmt.Errorf("list stale running schedules: %w", err)
	}
	return schedules, nil
}

// Delete removes a schedule and, via ON DELETE CASCADE, its placements.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}

// ReplaceScheduledActivities atomically clears and repopulates a schedule's
// placements, committing the solver's output as one transaction so readers
// never observe a partially-written result set.
func (r *ScheduleRepository) ReplaceScheduledActivities(ctx context.Context, scheduleID string, placements []models.ScheduledActivity) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace scheduled activities: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM scheduled_activities WHERE schedule_id = $1`, scheduleID); err != nil {
		return fmt.Errorf("clear scheduled activities: %w", err)
	}

	now := time.Now().UTC()
	for i := range placements {
		p := placements[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.ScheduleID = scheduleID
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if _, err = sqlx.NamedExecContext(ctx, tx, `INSERT INTO scheduled_activities (id, schedule_id, activity_id, room_id, start_timeslot, active_weeks, created_at) VALUES (:id, :schedule_id, :activity_id, :room_id, :start_timeslot, :active_weeks, :created_at)`, &p); err != nil {
			return fmt.Errorf("insert scheduled activity: %w", err)
		}
		placements[i] = p
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace scheduled activities: %w", err)
	}
	return nil
}

// ListScheduledActivities returns every placement belonging to a schedule.
func (r *ScheduleRepository) ListScheduledActivities(ctx context.Context, scheduleID string) ([]models.ScheduledActivity, error) {
	const query = `SELECT id, schedule_id, activity_id, room_id, start_timeslot, active_weeks, created_at FROM scheduled_activities WHERE schedule_id = $1 ORDER BY start_timeslot ASC`
	var placements []models.ScheduledActivity
	if err := r.db.SelectContext(ctx, &placements, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list scheduled activities: %w", err)
	}
	return placements, nil
}
