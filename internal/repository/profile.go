package repository

import (
	"context"
	"errors"

	"linesen/internal/models"
	"linesen/internal/observability"
	"linesen/internal/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type profileRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewProfileRepository creates a new profiles collection
func NewProfileRepository(db *gorm.DB) store.Profiles {
	return &profileRepository{db: db, log: observability.NewRepoLogger("profiles")}
}

func (r *profileRepository) List(ctx context.Context) ([]*models.Profile, error) {
	var profiles []*models.Profile
	if err := r.db.WithContext(ctx).Find(&profiles).Error; err != nil {
		r.log.LogError(ctx, err, "list")
		return nil, remoteError("list profiles", err)
	}
	return profiles, nil
}

func (r *profileRepository) Get(ctx context.Context, principal models.Principal) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).Where("id = ?", principal).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, remoteError("get profile", err)
	}
	return &profile, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	span, ctx := observability.StoreSpan(ctx, "upsert", "profiles")
	defer span.End()

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "bio", "updated_at"}),
		}).
		Create(profile).Error
	if err != nil {
		span.SetError(err)
		if isUniqueViolation(err) {
			return models.NewNameTakenError(profile.Username, err)
		}
		r.log.LogError(ctx, err, "upsert")
		return remoteError("upsert profile", err)
	}
	r.log.LogWrite(ctx, "upsert", map[string]any{"principal": string(profile.ID)})
	return nil
}
