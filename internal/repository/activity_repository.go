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

// ActivityRepository provides persistence for activities.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activityColumns = `id, institution_id, course_id, activity_type, duration_slots, group_id, professor_id, required_room_features, frequency, selected_timeslot, created_at, updated_at`

// FindByID loads an activity by id.
func (r *ActivityRepository) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	query := fmt.Sprintf(`SELECT %s FROM activities WHERE id = $1`, activityColumns)
	var activity models.Activity
	if err := r.db.GetContext(ctx, &activity, query, id); err != nil {
		return nil, err
	}
	return &activity, nil
}

// List returns activities with optional filtering and pagination.
func (r *ActivityRepository) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, int, error) {
	base := "FROM activities WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.InstitutionID != "" {
		conditions = append(conditions, fmt.Sprintf("institution_id = $%d", len(args)+1))
		args = append(args, filter.InstitutionID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.GroupID != "" {
		conditions = append(conditions, fmt.Sprintf("group_id = $%d", len(args)+1))
		args = append(args, filter.GroupID)
	}
	if filter.ProfessorID != "" {
		conditions = append(conditions, fmt.Sprintf("professor_id = $%d", len(args)+1))
		args = append(args, filter.ProfessorID)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"created_at": true, "duration_slots": true}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", activityColumns, base, sortBy, order, size, offset)
	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list activities: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count activities: %w", err)
	}

	return activities, total, nil
}

// ListByInstitution returns every activity for an institution — the worker
// plane's input gatherer uses this to build the generation problem instance
// (spec.md §4).
func (r *ActivityRepository) ListByInstitution(ctx context.Context, institutionID string) ([]models.Activity, error) {
	query := fmt.Sprintf(`SELECT %s FROM activities WHERE institution_id = $1 ORDER BY created_at ASC`, activityColumns)
	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query, institutionID); err != nil {
		return nil, fmt.Errorf("list activities by institution: %w", err)
	}
	return activities, nil
}

// ListByInstitutionTx is ListByInstitution run against an existing
// transaction (spec.md §4.9 consistent-snapshot requirement).
func (r *ActivityRepository) ListByInstitutionTx(ctx context.Context, tx *sqlx.Tx, institutionID string) ([]models.Activity, error) {
	query := fmt.Sprintf(`SELECT %s FROM activities WHERE institution_id = $1 ORDER BY created_at ASC`, activityColumns)
	var activities []models.Activity
	if err := tx.SelectContext(ctx, &activities, query, institutionID); err != nil {
		return nil, fmt.Errorf("list activities by institution: %w", err)
	}
	return activities, nil
}

// Create inserts a new activity.
func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = now
	}
	activity.UpdatedAt = now

	query := fmt.Sprintf(`INSERT INTO activities (%s) VALUES (:id, :institution_id, :course_id, :activity_type, :duration_slots, :group_id, :professor_id, :required_room_features, :frequency, :selected_timeslot, :created_at, :updated_at)`, activityColumns)
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

// Update modifies mutable activity attributes.
func (r *ActivityRepository) Update(ctx context.Context, activity *models.Activity) error {
	activity.UpdatedAt = time.Now().UTC()
	const query = `UPDATE activities SET course_id = :course_id, activity_type = :activity_type, duration_slots = :duration_slots,
		group_id = :group_id, professor_id = :professor_id, required_room_features = :required_room_features,
		frequency = :frequency, selected_timeslot = :selected_timeslot, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	return nil
}

// Delete removes an activity by id.
func (r *ActivityRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return nil
}
