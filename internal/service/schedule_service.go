package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/models"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error)
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	UpdateStatus(ctx context.Context, id string, status models.ScheduleStatus, errMsg *string) error
	TransitionStatus(ctx context.Context, id string, from, to models.ScheduleStatus) (bool, error)
	Delete(ctx context.Context, id string) error
	ListScheduledActivities(ctx context.Context, scheduleID string) ([]models.ScheduledActivity, error)
	ReplaceScheduledActivities(ctx context.Context, scheduleID string, placements []models.ScheduledActivity) error
	ListStaleRunning(ctx context.Context, cutoff time.Time) ([]models.Schedule, error)
}

type scheduleInstitutionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Institution, error)
}

// scheduleJobQueue is the generation queue as seen by the control plane:
// enqueueing a schedule id is all a handler needs (spec.md §5 Worker Plane).
type scheduleJobQueue interface {
	Enqueue(ctx context.Context, scheduleID string) error
}

// CreateScheduleRequest starts a new generation run for an institution.
type CreateScheduleRequest struct {
	InstitutionID string `json:"institution_id" validate:"required"`
}

// ScheduleService coordinates the schedule generation lifecycle
// (spec.md §4.8, §4.9): creating runs, exposing their status and
// placements, and deleting finished runs.
type ScheduleService struct {
	repo         scheduleRepository
	institutions scheduleInstitutionRepository
	queue        scheduleJobQueue
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(repo scheduleRepository, institutions scheduleInstitutionRepository, queue scheduleJobQueue, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, institutions: institutions, queue: queue, validator: validate, logger: logger}
}

// List returns schedules with pagination metadata.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, *models.Pagination, error) {
	schedules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return schedules, pagination, nil
}

// Get returns a schedule by id.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.Schedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return schedule, nil
}

// ScheduledActivities returns the placements belonging to a schedule.
func (s *ScheduleService) ScheduledActivities(ctx context.Context, scheduleID string) ([]models.ScheduledActivity, error) {
	if _, err := s.Get(ctx, scheduleID); err != nil {
		return nil, err
	}
	placements, err := s.repo.ListScheduledActivities(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scheduled activities")
	}
	return placements, nil
}

// Create freezes the institution's current time grid onto a new schedule
// in DRAFT status and enqueues it for generation (spec.md §4.8, §4.9). The
// DRAFT → RUNNING transition happens at job pickup in the worker plane, not
// here, so a schedule that is never picked up (queue outage, crash before
// dequeue) stays correctly in DRAFT rather than stuck RUNNING.
func (s *ScheduleService) Create(ctx context.Context, req CreateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	institution, err := s.institutions.FindByID(ctx, req.InstitutionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "institution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution")
	}

	schedule := &models.Schedule{
		InstitutionID:  institution.ID,
		TimeGridConfig: institution.TimeGridConfig,
		Status:         models.ScheduleDraft,
	}

	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}

	if s.queue != nil {
		if err := s.queue.Enqueue(ctx, schedule.ID); err != nil {
			s.logger.Warn("failed to enqueue schedule generation job", zap.String("schedule_id", schedule.ID), zap.Error(err))
		}
	}

	return schedule, nil
}

// Pickup atomically transitions a schedule from DRAFT to RUNNING. It is
// called by the worker plane when a generation job is dequeued, never by an
// HTTP handler. Reports ok=false when the schedule was not in DRAFT —
// the caller must drop the job without re-running generation, since that
// means either a duplicate delivery of an already-handled job or a schedule
// that was deleted (spec.md §4.8, §4.10 idempotent lifecycle).
func (s *ScheduleService) Pickup(ctx context.Context, scheduleID string) (*models.Schedule, bool, error) {
	ok, err := s.repo.TransitionStatus(ctx, scheduleID, models.ScheduleDraft, models.ScheduleRunning)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to pick up schedule")
	}
	if !ok {
		return nil, false, nil
	}
	schedule, err := s.Get(ctx, scheduleID)
	if err != nil {
		return nil, false, err
	}
	return schedule, true, nil
}

// Complete records a successful generation run (called from the worker
// plane, never from an HTTP handler).
func (s *ScheduleService) Complete(ctx context.Context, scheduleID string, placements []models.ScheduledActivity) error {
	if err := s.repo.ReplaceScheduledActivities(ctx, scheduleID, placements); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist scheduled activities")
	}
	if err := s.repo.UpdateStatus(ctx, scheduleID, models.ScheduleCompleted, nil); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark schedule completed")
	}
	return nil
}

// Fail records a failed generation run with a human-readable reason.
func (s *ScheduleService) Fail(ctx context.Context, scheduleID string, reason string) error {
	if err := s.repo.UpdateStatus(ctx, scheduleID, models.ScheduleFailed, &reason); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark schedule failed")
	}
	return nil
}

// Reap abandons schedules that have sat in RUNNING since before cutoff,
// marking them FAILED(abandoned). A worker can crash mid-run after pickup
// (spec.md §4.8 "Cancellation"); without this sweep that schedule would
// stay RUNNING forever since TransitionStatus only ever moves it forward
// from DRAFT.
func (s *ScheduleService) Reap(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := s.repo.ListStaleRunning(ctx, cutoff)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list stale running schedules")
	}
	reaped := 0
	for _, sched := range stale {
		ok, err := s.repo.TransitionStatus(ctx, sched.ID, models.ScheduleRunning, models.ScheduleFailed)
		if err != nil {
			s.logger.Warn("failed to reap stale schedule", zap.String("schedule_id", sched.ID), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		reason := "abandoned"
		if err := s.repo.UpdateStatus(ctx, sched.ID, models.ScheduleFailed, &reason); err != nil {
			s.logger.Warn("failed to record abandoned reason", zap.String("schedule_id", sched.ID), zap.Error(err))
			continue
		}
		reaped++
	}
	return reaped, nil
}

// Delete removes a schedule and its placements.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	return nil
}
