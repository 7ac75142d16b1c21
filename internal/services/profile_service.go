package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobboard/internal/cache"
	"github.com/yoockh/jobboard/internal/models"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
	"github.com/yoockh/jobboard/internal/utils"
)

type ProfileService interface {
	GetMe(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, p *models.Profile) error
	EnsureProfile(ctx context.Context, u *models.User, fullName string) error
}

type profileService struct {
	profiles pgrepo.ProfileRepository
}

func NewProfileService(profiles pgrepo.ProfileRepository) ProfileService {
	return &profileService{profiles: profiles}
}

func (s *profileService) GetMe(ctx context.Context, userID string) (*models.Profile, error) {
	const op = "ProfileService.GetMe"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "profile not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get profile", err)
	}
	return p, nil
}

func (s *profileService) Upsert(ctx context.Context, p *models.Profile) error {
	const op = "ProfileService.Upsert"

	if p == nil || p.UserID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "profile.user_id is required", nil)
	}
	if !p.Role.Valid() {
		return utils.E(utils.CodeInvalidArgument, op, "profile.role is required", nil)
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to upsert profile", err)
	}
	return nil
}

// EnsureProfile inserts the profile for u unless one exists. It is safe to
// call on every sign-in.
func (s *profileService) EnsureProfile(ctx context.Context, u *models.User, fullName string) error {
	const op = "ProfileService.EnsureProfile"

	if u == nil || u.ID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user is required", nil)
	}
	if !u.Role.Valid() {
		return utils.E(utils.CodeInvalidArgument, op, "user has no role", nil)
	}

	now := time.Now().UTC()
	p := &models.Profile{
		UserID:    u.ID,
		Email:     u.Email,
		Role:      u.Role,
		FullName:  fullName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.profiles.InsertIfMissing(ctx, p); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to create profile", err)
	}
	return nil
}

// RoleResolver answers auth.RoleStore from profiles.role, caching found roles.
// Missing profiles are not cached so a repaired sign-up gap shows up at once.
type RoleResolver struct {
	profiles pgrepo.ProfileRepository
	cache    cache.Cache
	ttl      time.Duration
	log      *logrus.Logger
}

func NewRoleResolver(profiles pgrepo.ProfileRepository, c cache.Cache, ttl time.Duration, log *logrus.Logger) *RoleResolver {
	if log == nil {
		log = logrus.New()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RoleResolver{profiles: profiles, cache: c, ttl: ttl, log: log}
}

func (r *RoleResolver) StoredRole(ctx context.Context, userID string) (models.Role, error) {
	const op = "RoleResolver.StoredRole"

	key := cache.KeyUserRole(userID)
	if r.cache != nil {
		var cached models.Role
		hit, err := r.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			r.log.WithError(err).WithField("key", key).Warn("role cache read failed")
		} else if hit && cached.Valid() {
			return cached, nil
		}
	}

	p, err := r.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, utils.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to load role", err)
	}
	if !p.Role.Valid() {
		return "", nil
	}

	if r.cache != nil {
		if err := r.cache.SetJSON(ctx, key, p.Role, r.ttl); err != nil {
			r.log.WithError(err).WithField("key", key).Warn("role cache write failed")
		}
	}
	return p.Role, nil
}
