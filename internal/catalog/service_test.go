package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pedilo/storefront/internal/apperr"
	"github.com/pedilo/storefront/internal/catalog"
	"github.com/pedilo/storefront/internal/topping"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetBusinessBySlug(ctx context.Context, slug string) (*catalog.Business, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Business), args.Error(1)
}

func (m *MockRepository) GetProductsByIDs(ctx context.Context, ids []int64) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockRepository) GetToppingGroupsByProductIDs(ctx context.Context, ids []int64) (map[int64][]topping.Group, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64][]topping.Group), args.Error(1)
}

func TestService_ProductToppings_Success(t *testing.T) {
	repo := new(MockRepository)
	svc := catalog.NewService(repo)

	groups := []topping.Group{{ID: 3, Name: "Sauces", MinSelections: 0, MaxSelections: 2}}

	repo.On("GetBusinessBySlug", mock.Anything, "pizzeria").Return(&catalog.Business{ID: 1, Slug: "pizzeria"}, nil).Once()
	repo.On("GetProductsByIDs", mock.Anything, []int64{9}).Return([]catalog.Product{{ID: 9, BusinessID: 1}}, nil).Once()
	repo.On("GetToppingGroupsByProductIDs", mock.Anything, []int64{9}).Return(map[int64][]topping.Group{9: groups}, nil).Once()

	got, err := svc.ProductToppings(context.Background(), "pizzeria", 9)
	require.NoError(t, err)
	assert.Equal(t, groups, got)
	repo.AssertExpectations(t)
}

func TestService_ProductToppings_NoGroups(t *testing.T) {
	repo := new(MockRepository)
	svc := catalog.NewService(repo)

	repo.On("GetBusinessBySlug", mock.Anything, "pizzeria").Return(&catalog.Business{ID: 1}, nil).Once()
	repo.On("GetProductsByIDs", mock.Anything, []int64{9}).Return([]catalog.Product{{ID: 9, BusinessID: 1}}, nil).Once()
	repo.On("GetToppingGroupsByProductIDs", mock.Anything, []int64{9}).Return(map[int64][]topping.Group{}, nil).Once()

	got, err := svc.ProductToppings(context.Background(), "pizzeria", 9)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestService_ProductToppings_ForeignProduct(t *testing.T) {
	repo := new(MockRepository)
	svc := catalog.NewService(repo)

	repo.On("GetBusinessBySlug", mock.Anything, "pizzeria").Return(&catalog.Business{ID: 1}, nil).Once()
	repo.On("GetProductsByIDs", mock.Anything, []int64{9}).Return([]catalog.Product{{ID: 9, BusinessID: 2}}, nil).Once()

	_, err := svc.ProductToppings(context.Background(), "pizzeria", 9)
	require.ErrorIs(t, err, apperr.ErrProductNotFound)
	repo.AssertNotCalled(t, "GetToppingGroupsByProductIDs", mock.Anything, mock.Anything)
}

func TestService_ProductToppings_BusinessNotFound(t *testing.T) {
	repo := new(MockRepository)
	svc := catalog.NewService(repo)

	repo.On("GetBusinessBySlug", mock.Anything, "nope").
		Return(nil, apperr.New(apperr.ErrBusinessNotFound, "business not found")).Once()

	_, err := svc.ProductToppings(context.Background(), "nope", 9)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestService_ProductToppings_StoreFailure(t *testing.T) {
	repo := new(MockRepository)
	svc := catalog.NewService(repo)

	repo.On("GetBusinessBySlug", mock.Anything, "pizzeria").Return(&catalog.Business{ID: 1}, nil).Once()
	repo.On("GetProductsByIDs", mock.Anything, []int64{9}).Return(nil, errors.New("connection reset")).Once()

	_, err := svc.ProductToppings(context.Background(), "pizzeria", 9)
	require.Error(t, err)
	_, isRule := apperr.Reason(err)
	assert.False(t, isRule)
}

func TestBusiness_Accepts(t *testing.T) {
	b := catalog.Business{PaymentMethods: []string{"cash", "card"}, DeliveryTypes: []string{"pickup"}}

	assert.True(t, b.AcceptsPaymentMethod("card"))
	assert.False(t, b.AcceptsPaymentMethod("crypto"))
	assert.True(t, b.AcceptsDeliveryType("pickup"))
	assert.False(t, b.AcceptsDeliveryType("delivery"))
}
