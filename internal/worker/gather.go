package worker

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/internal/scheduling"
)

// gatherError is the worker plane's own classifier error, distinct from
// internal/scheduling.Error because these failures happen before the pure
// core ever runs — they describe input that never reached it (spec.md §4.9).
type gatherError string

func (e gatherError) Error() string { return string(e) }

const (
	errInstitutionNotFound gatherError = "not_found"
	errNoActivities        gatherError = "no_activities"
)

type institutionGetter interface {
	FindByIDTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Institution, error)
}

type roomLister interface {
	ListByInstitutionTx(ctx context.Context, tx *sqlx.Tx, institutionID string) ([]models.Room, error)
}

type groupLister interface {
	ListByInstitutionTx(ctx context.Context, tx *sqlx.Tx, institutionID string) ([]models.Group, error)
}

type activityLister interface {
	ListByInstitutionTx(ctx context.Context, tx *sqlx.Tx, institutionID string) ([]models.Activity, error)
}

// gatherer assembles one institution's worth of domain rows into the pure
// scheduling package's input types. It is the only place that translates
// between the persisted jsonb-bearing models and the solver's plain structs
// (spec.md §4, §5 Worker Plane).
type gatherer struct {
	db           *sqlx.DB
	institutions institutionGetter
	rooms        roomLister
	groups       groupLister
	activities   activityLister
}

func newGatherer(db *sqlx.DB, institutions institutionGetter, rooms roomLister, groups groupLister, activities activityLister) *gatherer {
	return &gatherer{db: db, institutions: institutions, rooms: rooms, groups: groups, activities: activities}
}

type problemInput struct {
	groups     []scheduling.Group
	activities []scheduling.Activity
	rooms      []scheduling.Room
}

// gather reads the institution, its rooms, groups and activities inside a
// single read-only transaction, so the solver always sees a consistent
// snapshot rather than rows from several different points in time (spec.md
// §4.9 — "must observe a consistent snapshot... a non-consistent snapshot is
// a correctness bug").
func (g *gatherer) gather(ctx context.Context, institutionID string) (problemInput, error) {
	tx, err := g.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return problemInput{}, fmt.Errorf("begin gather snapshot: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := g.institutions.FindByIDTx(ctx, tx, institutionID); err != nil {
		if err == sql.ErrNoRows {
			return problemInput{}, errInstitutionNotFound
		}
		return problemInput{}, fmt.Errorf("gather institution: %w", err)
	}

	rooms, err := g.rooms.ListByInstitutionTx(ctx, tx, institutionID)
	if err != nil {
		return problemInput{}, fmt.Errorf("gather rooms: %w", err)
	}
	groups, err := g.groups.ListByInstitutionTx(ctx, tx, institutionID)
	if err != nil {
		return problemInput{}, fmt.Errorf("gather groups: %w", err)
	}
	activities, err := g.activities.ListByInstitutionTx(ctx, tx, institutionID)
	if err != nil {
		return problemInput{}, fmt.Errorf("gather activities: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return problemInput{}, fmt.Errorf("commit gather snapshot: %w", err)
	}

	if len(activities) == 0 {
		return problemInput{}, errNoActivities
	}

	out := problemInput{
		groups:     make([]scheduling.Group, 0, len(groups)),
		activities: make([]scheduling.Activity, 0, len(activities)),
		rooms:      make([]scheduling.Room, 0, len(rooms)),
	}

	for _, r := range rooms {
		features, err := r.FeatureList()
		if err != nil {
			return problemInput{}, fmt.Errorf("decode room %s features: %w", r.ID, err)
		}
		out.rooms = append(out.rooms, scheduling.Room{ID: r.ID, Features: features})
	}

	for _, grp := range groups {
		var parent string
		if grp.ParentGroupID != nil {
			parent = *grp.ParentGroupID
		}
		out.groups = append(out.groups, scheduling.Group{ID: grp.ID, ParentGroupID: parent})
	}

	for _, a := range activities {
		features, err := a.RequiredFeatures()
		if err != nil {
			return problemInput{}, fmt.Errorf("decode activity %s required features: %w", a.ID, err)
		}
		pin, err := a.Pin()
		if err != nil {
			return problemInput{}, fmt.Errorf("decode activity %s pin: %w", a.ID, err)
		}

		var professorID string
		if a.ProfessorID.Valid {
			professorID = a.ProfessorID.String
		}

		var schedPin *scheduling.Pin
		if pin != nil {
			schedPin = &scheduling.Pin{StartTimeslot: pin.StartTimeslot, ActiveWeeks: pin.ActiveWeeks}
		}

		out.activities = append(out.activities, scheduling.Activity{
			ID:                   a.ID,
			GroupID:              a.GroupID,
			ProfessorID:          professorID,
			ActivityType:         scheduling.ActivityType(a.ActivityType),
			DurationSlots:        a.DurationSlots,
			RequiredRoomFeatures: features,
			Frequency:            scheduling.Frequency(a.Frequency),
			SelectedTimeslot:     schedPin,
		})
	}

	return out, nil
}
