package catalog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/pedilo/storefront/internal/apperr"
	"github.com/pedilo/storefront/internal/topping"
)

type Service interface {
	ProductToppings(ctx context.Context, slug string, productID int64) ([]topping.Group, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// ProductToppings lists the topping groups a customer can pick from for one
// product of the storefront.
func (s *service) ProductToppings(ctx context.Context, slug string, productID int64) ([]topping.Group, error) {
	business, err := s.repo.GetBusinessBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	products, err := s.repo.GetProductsByIDs(ctx, []int64{productID})
	if err != nil {
		log.Error().Err(err).Int64("product_id", productID).Msg("service: failed to load product for toppings")
		return nil, fmt.Errorf("service: failed to load product: %w", err)
	}
	if len(products) == 0 || products[0].BusinessID != business.ID {
		return nil, apperr.New(apperr.ErrProductNotFound, "product %d not found", productID)
	}

	groups, err := s.repo.GetToppingGroupsByProductIDs(ctx, []int64{productID})
	if err != nil {
		log.Error().Err(err).Int64("product_id", productID).Msg("service: failed to load topping groups")
		return nil, fmt.Errorf("service: failed to load topping groups: %w", err)
	}

	if g, ok := groups[productID]; ok {
		return g, nil
	}
	return []topping.Group{}, nil
}
