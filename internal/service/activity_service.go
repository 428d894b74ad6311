package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/models"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
)

type activityRepository interface {
	FindByID(ctx context.Context, id string) (*models.Activity, error)
	List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, int, error)
	Create(ctx context.Context, activity *models.Activity) error
	Update(ctx context.Context, activity *models.Activity) error
	Delete(ctx context.Context, id string) error
}

// CreateActivityRequest is the payload for creating an activity.
type CreateActivityRequest struct {
	InstitutionID        string                  `json:"institution_id" validate:"required"`
	CourseID             string                  `json:"course_id" validate:"required"`
	ActivityType         models.ActivityType     `json:"activity_type" validate:"required,oneof=course seminar laboratory other"`
	DurationSlots        int                     `json:"duration_slots" validate:"required,min=1"`
	GroupID              string                  `json:"group_id" validate:"required"`
	ProfessorID          string                  `json:"professor_id"`
	RequiredRoomFeatures []string                `json:"required_room_features"`
	Frequency            models.Frequency        `json:"frequency" validate:"required,oneof=weekly biweekly biweekly_odd biweekly_even"`
	SelectedTimeslot     *models.SelectedTimeslot `json:"selected_timeslot"`
}

// UpdateActivityRequest is the payload for updating an activity.
type UpdateActivityRequest struct {
	CourseID             string                  `json:"course_id" validate:"required"`
	ActivityType         models.ActivityType     `json:"activity_type" validate:"required,oneof=course seminar laboratory other"`
	DurationSlots        int                     `json:"duration_slots" validate:"required,min=1"`
	GroupID              string                  `json:"group_id" validate:"required"`
	ProfessorID          string                  `json:"professor_id"`
	RequiredRoomFeatures []string                `json:"required_room_features"`
	Frequency            models.Frequency        `json:"frequency" validate:"required,oneof=weekly biweekly biweekly_odd biweekly_even"`
	SelectedTimeslot     *models.SelectedTimeslot `json:"selected_timeslot"`
}

// ActivityService manages the teaching activities that the generator places
// onto the timetable (spec.md §3, §4).
type ActivityService struct {
	repo      activityRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewActivityService constructs an ActivityService.
func NewActivityService(repo activityRepository, validate *validator.Validate, logger *zap.Logger) *ActivityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{repo: repo, validator: validate, logger: logger}
}

// List returns activities with pagination metadata.
func (s *ActivityService) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, *models.Pagination, error) {
	activities, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activities")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return activities, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns an activity by id.
func (s *ActivityService) Get(ctx context.Context, id string) (*models.Activity, error) {
	activity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	return activity, nil
}

// Create adds a new activity.
func (s *ActivityService) Create(ctx context.Context, req CreateActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}

	features, err := models.EncodeFeatures(req.RequiredRoomFeatures)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid required room features")
	}
	pin, err := models.EncodePin(req.SelectedTimeslot)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid selected timeslot")
	}

	activity := &models.Activity{
		InstitutionID:        req.InstitutionID,
		CourseID:             req.CourseID,
		ActivityType:         req.ActivityType,
		DurationSlots:        req.DurationSlots,
		GroupID:              req.GroupID,
		RequiredRoomFeatures: features,
		Frequency:            req.Frequency,
		SelectedTimeslot:     pin,
	}
	if req.ProfessorID != "" {
		activity.ProfessorID = sql.NullString{String: req.ProfessorID, Valid: true}
	}

	if err := s.repo.Create(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create activity")
	}
	return activity, nil
}

// Update modifies an activity's attributes.
func (s *ActivityService) Update(ctx context.Context, id string, req UpdateActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}

	activity, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	features, err := models.EncodeFeatures(req.RequiredRoomFeatures)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid required room features")
	}
	pin, err := models.EncodePin(req.SelectedTimeslot)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid selected timeslot")
	}

	activity.CourseID = req.CourseID
	activity.ActivityType = req.ActivityType
	activity.DurationSlots = req.DurationSlots
	activity.GroupID = req.GroupID
	activity.RequiredRoomFeatures = features
	activity.Frequency = req.Frequency
	activity.SelectedTimeslot = pin
	if req.ProfessorID != "" {
		activity.ProfessorID = sql.NullString{String: req.ProfessorID, Valid: true}
	} else {
		activity.ProfessorID = sql.NullString{}
	}

	if err := s.repo.Update(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update activity")
	}
	return activity, nil
}

// Delete removes an activity.
func (s *ActivityService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete activity")
	}
	return nil
}
