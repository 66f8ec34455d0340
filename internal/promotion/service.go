package promotion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pedilo/storefront/internal/apperr"
)

type Service interface {
	// Validate checks a coupon against a cart and computes its discount. It has
	// no side effects.
	Validate(ctx context.Context, code string, businessID int64, cartTotal int64, lines []Line) (*Result, error)
	// CommitUsage records one redemption. db lets the caller run it inside its
	// own transaction.
	CommitUsage(ctx context.Context, db Execer, promotionID int64) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds the promotion engine. A nil clock means time.Now.
func NewService(repo Repository, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}
}

func (s *service) Validate(ctx context.Context, code string, businessID int64, cartTotal int64, lines []Line) (*Result, error) {
	promo, err := s.repo.FindActiveByCode(ctx, businessID, code)
	if err != nil {
		if errors.Is(err, ErrPromotionNotFound) {
			return nil, apperr.New(apperr.ErrCouponNotFound, "coupon is not valid or does not exist")
		}
		log.Error().Err(err).Int64("business_id", businessID).Msg("service: failed to look up coupon")
		return nil, fmt.Errorf("service: failed to look up coupon: %w", err)
	}
	if !promo.Active {
		return nil, apperr.New(apperr.ErrCouponNotFound, "coupon is not valid or does not exist")
	}

	// pgx reads zoneless timestamps as UTC, so instants compare directly.
	now := s.now().UTC()
	if promo.StartsAt.After(now) {
		return nil, apperr.New(apperr.ErrCouponNotYetActive, "coupon is not active yet")
	}
	if promo.EndsAt != nil && promo.EndsAt.Before(now) {
		return nil, apperr.New(apperr.ErrCouponExpired, "coupon has expired")
	}

	if promo.Limited() && promo.UsesCurrent >= *promo.UsesTotalLimit {
		return nil, apperr.New(apperr.ErrCouponExhausted, "coupon has reached its usage limit")
	}

	if cartTotal < promo.Rules.MinPurchase {
		return nil, apperr.New(apperr.ErrCouponMinimumNotMet,
			"minimum purchase for this coupon is %d", promo.Rules.MinPurchase)
	}

	d, err := promo.Discount()
	if err != nil {
		log.Error().Err(err).Int64("promotion_id", promo.ID).Msg("service: promotion has an unusable kind")
		return nil, fmt.Errorf("service: promotion %d: %w", promo.ID, err)
	}

	_, free := d.(FreeShipping)
	return &Result{
		Promotion:    promo,
		Discount:     Apply(d, cartTotal, lines),
		FreeShipping: free,
	}, nil
}

func (s *service) CommitUsage(ctx context.Context, db Execer, promotionID int64) error {
	err := s.repo.IncrementUsage(ctx, db, promotionID)
	if err != nil {
		if errors.Is(err, ErrUsageLimitReached) {
			log.Warn().Int64("promotion_id", promotionID).Msg("service: coupon exhausted by a concurrent redemption")
			return apperr.New(apperr.ErrCouponExhausted, "coupon has reached its usage limit")
		}
		log.Error().Err(err).Int64("promotion_id", promotionID).Msg("service: failed to commit coupon usage")
		return fmt.Errorf("service: failed to commit coupon usage: %w", err)
	}

	log.Info().Int64("promotion_id", promotionID).Msg("service: coupon usage committed")
	return nil
}
