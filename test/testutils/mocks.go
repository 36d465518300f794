// Package testutils provides mock implementations for testing
package testutils

import (
	"context"

	"github.com/google/uuid"
	"github.com/rasoiops/rasoiops/internal/domain/inventory"
	"github.com/rasoiops/rasoiops/internal/domain/shared"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	"github.com/stretchr/testify/mock"
)

// MockItemRepository provides a mock implementation of ItemRepository
type MockItemRepository struct {
	mock.Mock
}

var _ outbound.ItemRepository = (*MockItemRepository)(nil)

// NewMockItemRepository creates a new mock item repository
func NewMockItemRepository() *MockItemRepository {
	return &MockItemRepository{}
}

// Prepend records the call
func (m *MockItemRepository) Prepend(ctx context.Context, items ...inventory.Item) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

// List returns the configured items
func (m *MockItemRepository) List(ctx context.Context) ([]inventory.Item, error) {
	args := m.Called(ctx)
	if items := args.Get(0); items != nil {
		return items.([]inventory.Item), args.Error(1)
	}
	return nil, args.Error(1)
}

// Delete returns the configured outcome
func (m *MockItemRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// Count returns the configured count
func (m *MockItemRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockModelProvider provides a mock implementation of ModelProvider
type MockModelProvider struct {
	mock.Mock
}

var _ outbound.ModelProvider = (*MockModelProvider)(nil)

// NewMockModelProvider creates a provider named name
func NewMockModelProvider(name string) *MockModelProvider {
	m := &MockModelProvider{}
	m.On("Name").Return(name).Maybe()
	return m
}

// Name returns the configured provider name
func (m *MockModelProvider) Name() string {
	return m.Called().String(0)
}

// Generate returns the configured response
func (m *MockModelProvider) Generate(ctx context.Context, req outbound.ModelRequest) (*outbound.ModelResponse, error) {
	args := m.Called(ctx, req)
	if resp := args.Get(0); resp != nil {
		return resp.(*outbound.ModelResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

// HealthCheck returns the configured error
func (m *MockModelProvider) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockPhotoStore provides a mock implementation of PhotoStore
type MockPhotoStore struct {
	mock.Mock
}

var _ outbound.PhotoStore = (*MockPhotoStore)(nil)

// Upload returns the configured location
func (m *MockPhotoStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}

// Delete returns the configured error
func (m *MockPhotoStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

// Name returns "mock"
func (m *MockPhotoStore) Name() string {
	return "mock"
}

// RecordingDispatcher collects dispatched events and runs registered handlers
type RecordingDispatcher struct {
	handlers map[string][]shared.EventHandler
	Events   []shared.DomainEvent
}

// NewRecordingDispatcher creates an empty dispatcher
func NewRecordingDispatcher() *RecordingDispatcher {
	return &RecordingDispatcher{handlers: map[string][]shared.EventHandler{}}
}

// Dispatch records event and forwards it to handlers
func (d *RecordingDispatcher) Dispatch(event shared.DomainEvent) error {
	d.Events = append(d.Events, event)
	for _, h := range d.handlers[event.EventName()] {
		if err := h(event); err != nil {
			return err
		}
	}
	return nil
}

// Register adds a handler for name
func (d *RecordingDispatcher) Register(name string, handler shared.EventHandler) {
	d.handlers[name] = append(d.handlers[name], handler)
}

// EventNames lists the recorded event names in order
func (d *RecordingDispatcher) EventNames() []string {
	names := make([]string, len(d.Events))
	for i, e := range d.Events {
		names[i] = e.EventName()
	}
	return names
}
