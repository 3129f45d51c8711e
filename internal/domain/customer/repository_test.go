package customer

import (
	"context"

	"credit-engine/internal/event"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockCustomerRepository struct {
	mock.Mock
}

func (_m *MockCustomerRepository) Create(ctx context.Context, customer *Customer) error {
	ret := _m.Called(ctx, customer)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *Customer) error); ok {
		r0 = rf(ctx, customer)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

func (_m *MockCustomerRepository) FindByID(ctx context.Context, customerID int64) (*Customer, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Customer)
	}

	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, customerID int64) (*Customer, error) {
	ret := _m.Called(ctx, tx, customerID)

	var r0 *Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Customer)
	}

	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) UpdateCurrentDebtInTx(ctx context.Context, tx pgx.Tx, customerID int64, currentDebt decimal.Decimal) error {
	ret := _m.Called(ctx, tx, customerID, currentDebt)
	return ret.Error(0)
}

func (_m *MockCustomerRepository) Upsert(ctx context.Context, customer *Customer) (bool, error) {
	ret := _m.Called(ctx, customer)
	return ret.Bool(0), ret.Error(1)
}

func (_m *MockCustomerRepository) ListIDs(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	ret := _m.Called(ctx, afterID, limit)

	var r0 []int64
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]int64)
	}

	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) SyncIDSequence(ctx context.Context) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}

var _ Repository = (*MockCustomerRepository)(nil)

type MockEventPublisher struct {
	mock.Mock
}

func (_m *MockEventPublisher) PublishCustomerRegistered(ctx context.Context, e event.CustomerRegisteredEvent) error {
	return _m.Called(ctx, e).Error(0)
}

func (_m *MockEventPublisher) PublishLoanCreated(ctx context.Context, e event.LoanCreatedEvent) error {
	return _m.Called(ctx, e).Error(0)
}

func (_m *MockEventPublisher) PublishIngestionCompleted(ctx context.Context, e event.IngestionCompletedEvent) error {
	return _m.Called(ctx, e).Error(0)
}
