package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fabguard/storefront-backend/pkg/logger"
)

type MembershipExpiryJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository membershipExpiryRepo
}

type membershipExpiryRepo interface {
	DeactivateEndedBefore(ctx context.Context, tx *gorm.DB, day time.Time) (int64, error)
}

// NewMembershipExpiryJob switches off active memberships whose end date has passed.
func NewMembershipExpiryJob(params MembershipExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("membership repository required")
	}
	return &membershipExpiryJob{
		logg: params.Logger,
		db:   params.DB,
		repo: params.Repository,
		now:  time.Now,
	}, nil
}

type membershipExpiryJob struct {
	logg *logger.Logger
	db   txRunner
	repo membershipExpiryRepo
	now  func() time.Time
}

func (j *membershipExpiryJob) Name() string { return "membership-expiry" }

func (j *membershipExpiryJob) Run(ctx context.Context) error {
	today := j.now().UTC().Truncate(24 * time.Hour)
	var expired int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeactivateEndedBefore(ctx, tx, today)
		if err != nil {
			return err
		}
		expired = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("membership expiry: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"today":   today.Format("2006-01-02"),
		"expired": expired,
	}), "membership expiry complete")
	return nil
}
