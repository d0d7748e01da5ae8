package api

import (
	"context"

	"github.com/Domenick1991/tablebot/internal/domain"
	"github.com/Domenick1991/tablebot/internal/service/availability"
	"github.com/Domenick1991/tablebot/internal/service/booking"
	"github.com/Domenick1991/tablebot/internal/service/catalog"
	"github.com/Domenick1991/tablebot/internal/service/dialogue"
	"github.com/stretchr/testify/mock"
)

type MockDialogueUseCase struct {
	mock.Mock
}

func (m *MockDialogueUseCase) HandleUtterance(ctx context.Context, conversationID, text string) dialogue.Result {
	args := m.Called(ctx, conversationID, text)
	return args.Get(0).(dialogue.Result)
}

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) Reserve(ctx context.Context, input booking.ReserveInput) (*booking.Confirmation, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Confirmation), args.Error(1)
}

func (m *MockBookingUseCase) Confirm(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingUseCase) Cancel(ctx context.Context, id int64, reason string) (bool, error) {
	args := m.Called(ctx, id, reason)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingUseCase) Amend(ctx context.Context, id int64, input booking.AmendInput) (bool, error) {
	args := m.Called(ctx, id, input)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingUseCase) FindByPhone(ctx context.Context, phone string) ([]domain.Reservation, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) List(ctx context.Context) ([]domain.Table, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Table), args.Error(1)
}

func (m *MockCatalog) Get(ctx context.Context, id int64) (*domain.Table, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Table), args.Error(1)
}

func (m *MockCatalog) Summary(ctx context.Context) ([]catalog.ZoneSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.ZoneSummary), args.Error(1)
}

type MockAvailability struct {
	mock.Mock
}

func (m *MockAvailability) FindAvailable(ctx context.Context, q availability.Query) ([]domain.Table, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Table), args.Error(1)
}

func (m *MockAvailability) SuggestAlternatives(ctx context.Context, q availability.Query) (*availability.Suggestions, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*availability.Suggestions), args.Error(1)
}
