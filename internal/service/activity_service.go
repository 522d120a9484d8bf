package service

import (
	"context"

	"Mansoor88-6/schedule-tracker/internal/clock"
	"Mansoor88-6/schedule-tracker/internal/models"
	"Mansoor88-6/schedule-tracker/internal/repository"

	"github.com/google/uuid"
)

type ActivityService struct {
	repo  *repository.ActivityRepository
	clock clock.Clock
}

func NewActivityService(repo *repository.ActivityRepository, c clock.Clock) *ActivityService {
	return &ActivityService{repo: repo, clock: c}
}

func (s *ActivityService) Create(ctx context.Context, userID string, req *models.CreateActivityRequest) (*models.Activity, error) {
	name, err := normalizeName(req.Name)
	if err != nil {
		return nil, err
	}
	color, err := normalizeColor(req.Color)
	if err != nil {
		return nil, err
	}
	if err := validateTarget(req.WeeklyTargetMinutes); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	a := &models.Activity{
		ID:                  uuid.NewString(),
		UserID:              userID,
		Name:                name,
		Color:               color,
		WeeklyTargetMinutes: req.WeeklyTargetMinutes,
		Active:              req.Active == nil || *req.Active,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *ActivityService) Get(ctx context.Context, userID, id string) (*models.Activity, error) {
	return s.repo.GetByID(ctx, userID, id)
}

func (s *ActivityService) List(ctx context.Context, userID string, activeOnly bool) ([]*models.Activity, error) {
	return s.repo.List(ctx, userID, activeOnly)
}

func (s *ActivityService) Update(ctx context.Context, userID, id string, req *models.UpdateActivityRequest) (*models.Activity, error) {
	a, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if a.Name, err = normalizeName(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.Color.Set {
		if a.Color, err = normalizeColor(req.Color.Value); err != nil {
			return nil, err
		}
	}
	if req.WeeklyTargetMinutes != nil {
		if err := validateTarget(*req.WeeklyTargetMinutes); err != nil {
			return nil, err
		}
		a.WeeklyTargetMinutes = *req.WeeklyTargetMinutes
	}
	if req.Active != nil {
		a.Active = *req.Active
	}

	a.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes the activity. References from segments and logs are
// cleared rather than left dangling.
func (s *ActivityService) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}
