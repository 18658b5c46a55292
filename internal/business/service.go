package business

import (
	"context"
	"strings"
	"time"

	"github.com/rohanmehta-dev/vaanijya-backend/internal/users"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db/models"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/enums"
	apperrors "github.com/rohanmehta-dev/vaanijya-backend/pkg/errors"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/logger"
	"gorm.io/gorm"
)

// subscriptionTerm is the annual plan length.
const subscriptionTerm = 365 * 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateProfileParams is the input for registering a wholesale identity.
type CreateProfileParams struct {
	UserID       string
	BusinessName string
	GSTIN        string
	Address      string
}

// Service manages business profiles and their subscription windows. The
// subscription is paid through the payments flow; ActivateSubscription is
// its success callback.
type Service interface {
	CreateProfile(ctx context.Context, params CreateProfileParams) (*models.BusinessProfile, error)
	GetProfile(ctx context.Context, userID string) (*models.BusinessProfile, error)
	ActivateSubscription(ctx context.Context, userID string, from time.Time) (*models.BusinessProfile, error)
	SubscriptionActive(ctx context.Context, userID string, at time.Time) (bool, error)

	WithTx(tx *gorm.DB) Service
}

type service struct {
	repo     Repository
	userRepo users.Repository
	runner   txRunner
	logg     *logger.Logger
}

// NewService builds the business profile service.
func NewService(repo Repository, userRepo users.Repository, runner txRunner, logg *logger.Logger) Service {
	return &service{repo: repo, userRepo: userRepo, runner: runner, logg: logg}
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{
		repo:     s.repo.WithTx(tx),
		userRepo: s.userRepo.WithTx(tx),
		runner:   boundRunner{tx: tx},
		logg:     s.logg,
	}
}

type boundRunner struct {
	tx *gorm.DB
}

func (b boundRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(b.tx)
}

// CreateProfile registers the wholesale identity and flips the user's role
// to b2b. Pricing stays retail until the subscription is paid.
func (s *service) CreateProfile(ctx context.Context, params CreateProfileParams) (*models.BusinessProfile, error) {
	if strings.TrimSpace(params.BusinessName) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "business name is required")
	}

	var created *models.BusinessProfile
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		bound := s.WithTx(tx).(*service)

		if _, err := bound.userRepo.GetByID(ctx, params.UserID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.New(apperrors.CodeNotFound, "user not found")
			}
			return err
		}

		if _, err := bound.repo.GetByUserID(ctx, params.UserID); err == nil {
			return apperrors.New(apperrors.CodeConflict, "business profile already exists")
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		profile := &models.BusinessProfile{
			UserID:             params.UserID,
			BusinessName:       strings.TrimSpace(params.BusinessName),
			GSTIN:              strings.ToUpper(strings.TrimSpace(params.GSTIN)),
			Address:            params.Address,
			SubscriptionStatus: enums.SubscriptionStatusPending,
		}
		if err := bound.repo.Create(ctx, profile); err != nil {
			return err
		}
		if err := bound.userRepo.UpdateRole(ctx, params.UserID, enums.UserRoleBusiness.String()); err != nil {
			return err
		}

		created = profile
		return nil
	})
	return created, err
}

func (s *service) GetProfile(ctx context.Context, userID string) (*models.BusinessProfile, error) {
	profile, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.CodeNotFound, "business profile not found")
		}
		return nil, err
	}
	return profile, nil
}

// ActivateSubscription opens a one-year window starting at from. A renewal
// on an active window extends from its end instead of discarding paid time.
func (s *service) ActivateSubscription(ctx context.Context, userID string, from time.Time) (*models.BusinessProfile, error) {
	var activated *models.BusinessProfile
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		bound := s.WithTx(tx).(*service)

		profile, err := bound.repo.GetByUserID(ctx, userID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.New(apperrors.CodeNotFound, "business profile not found")
			}
			return err
		}

		start := from
		if profile.SubscriptionActiveAt(from) && profile.SubscriptionTo != nil {
			start = *profile.SubscriptionTo
		}
		end := start.Add(subscriptionTerm)

		fields := map[string]any{
			"subscription_status": enums.SubscriptionStatusActive.String(),
			"subscription_from":   start,
			"subscription_to":     end,
		}
		if err := bound.repo.UpdateFields(ctx, profile.ID, fields); err != nil {
			return err
		}

		profile.SubscriptionStatus = enums.SubscriptionStatusActive
		profile.SubscriptionFrom = &start
		profile.SubscriptionTo = &end
		activated = profile
		return nil
	})
	return activated, err
}

// SubscriptionActive reports whether wholesale pricing applies for the user.
// A missing profile simply means no.
func (s *service) SubscriptionActive(ctx context.Context, userID string, at time.Time) (bool, error) {
	profile, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}
	return profile.SubscriptionActiveAt(at), nil
}
