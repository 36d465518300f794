package inventory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rasoiops/rasoiops/internal/domain/inventory"
	"github.com/rasoiops/rasoiops/internal/infrastructure/persistence/memory"
	"github.com/rasoiops/rasoiops/internal/infrastructure/security"
	"github.com/rasoiops/rasoiops/internal/ports/inbound"
	apperrors "github.com/rasoiops/rasoiops/pkg/errors"
	"github.com/rasoiops/rasoiops/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

type ServiceTestSuite struct {
	suite.Suite
	now        time.Time
	repo       *memory.ItemRepository
	dispatcher *testutils.RecordingDispatcher
	settings   Settings
	service    *Service
	items      *testutils.ItemAssertions
}

func (s *ServiceTestSuite) SetupTest() {
	s.now = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	s.repo = memory.NewItemRepository()
	s.dispatcher = testutils.NewRecordingDispatcher()
	s.settings = DefaultSettings()
	s.items = testutils.NewItemAssertions(s.T())

	logger := zaptest.NewLogger(s.T())
	s.service = NewService(
		s.repo,
		security.NewValidationService(logger),
		s.dispatcher,
		nil,
		func() time.Time { return s.now },
		func() Settings { return s.settings },
		logger,
	)
}

func (s *ServiceTestSuite) TestAddManual() {
	view, err := s.service.AddManual(context.Background(), inbound.AddItemCommand{
		Name:       "  Greek   Yogurt ",
		Category:   "dairy",
		Quantity:   "",
		ExpiryDate: s.now.Add(48 * time.Hour),
	})
	s.Require().NoError(err)

	s.Equal("Greek Yogurt", view.Name)
	s.Equal(inventory.CategoryDairy, view.Category)
	s.Equal(inventory.DefaultQuantity, view.Quantity)
	s.Equal(inventory.SourceManual, view.Source)
	s.Equal(inventory.StatusExpiringSoon, view.Status)
	s.items.Ingested(view.Item, s.now)

	s.Equal([]string{inventory.EventItemAdded}, s.dispatcher.EventNames())
}

func (s *ServiceTestSuite) TestAddManual_PastExpiryIsExpired() {
	view, err := s.service.AddManual(context.Background(), inbound.AddItemCommand{
		Name:       "Old Bread",
		ExpiryDate: s.now.Add(-time.Hour),
	})
	s.Require().NoError(err)
	s.Equal(inventory.StatusExpired, view.Status)
	s.Equal(inventory.CategoryOther, view.Category)
}

func (s *ServiceTestSuite) TestAddManual_Validation() {
	tests := []struct {
		name string
		cmd  inbound.AddItemCommand
	}{
		{"missing name", inbound.AddItemCommand{ExpiryDate: s.now}},
		{"missing expiry", inbound.AddItemCommand{Name: "Milk"}},
		{"name too long", inbound.AddItemCommand{Name: strings.Repeat("a", 121), ExpiryDate: s.now}},
		{"script in name", inbound.AddItemCommand{Name: "<script>alert(1)</script>", ExpiryDate: s.now}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.AddManual(context.Background(), tt.cmd)
			s.True(apperrors.Is(err, apperrors.CodeValidationFailed), "got %v", err)
		})
	}

	n, err := s.repo.Count(context.Background())
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *ServiceTestSuite) TestIngestDetected_PrependsBatchInOrder() {
	ctx := context.Background()
	_, err := s.service.AddManual(ctx, inbound.AddItemCommand{Name: "Rice", ExpiryDate: s.now.Add(30 * 24 * time.Hour)})
	s.Require().NoError(err)

	views, err := s.service.IngestDetected(ctx, []inbound.DetectedItem{
		{Name: "Tomatoes", Quantity: "6", Category: "Vegetables"},
		{Name: "", Quantity: "", Category: "snacks"},
		{Name: "Paneer", Quantity: "200g", Category: "DAIRY"},
	})
	s.Require().NoError(err)
	s.Require().Len(views, 3)

	for _, v := range views {
		s.Equal(inventory.SourceVision, v.Source)
		s.True(v.ExpiryDate.Equal(s.now.Add(inventory.DefaultShelfLife)))
		s.Equal(inventory.StatusFresh, v.Status)
	}
	s.Equal(inventory.DefaultName, views[1].Name)
	s.Equal(inventory.CategoryOther, views[1].Category)
	s.Equal(inventory.CategoryDairy, views[2].Category)

	list, err := s.service.List(ctx)
	s.Require().NoError(err)
	names := make([]string, len(list))
	for i, v := range list {
		names[i] = v.Name
	}
	s.Equal([]string{"Tomatoes", inventory.DefaultName, "Paneer", "Rice"}, names)
}

func (s *ServiceTestSuite) TestIngestDetected_UsesCurrentShelfLife() {
	s.settings.DefaultShelfLife = 2 * 24 * time.Hour

	views, err := s.service.IngestDetected(context.Background(), []inbound.DetectedItem{{Name: "Milk"}})
	s.Require().NoError(err)
	s.True(views[0].ExpiryDate.Equal(s.now.Add(48 * time.Hour)))
	s.Equal(inventory.StatusExpiringSoon, views[0].Status)
}

func (s *ServiceTestSuite) TestIngestDetected_Empty() {
	views, err := s.service.IngestDetected(context.Background(), nil)
	s.Require().NoError(err)
	s.Empty(views)
	s.Empty(s.dispatcher.Events)
}

func (s *ServiceTestSuite) TestIngestDetected_TruncatesLongModelText() {
	views, err := s.service.IngestDetected(context.Background(), []inbound.DetectedItem{
		{Name: strings.Repeat("x", 500), Quantity: strings.Repeat("9", 200)},
	})
	s.Require().NoError(err)
	s.Len(views[0].Name, inventory.MaxNameLength)
	s.Len(views[0].Quantity, inventory.MaxQuantityLength)
}

func (s *ServiceTestSuite) TestIngestDetected_KeepsLongMultibyteText() {
	views, err := s.service.IngestDetected(context.Background(), []inbound.DetectedItem{
		{Name: "Milk", Quantity: "1L"},
		{Name: "Paneer", Quantity: strings.Repeat("किलो ", 20)},
	})
	s.Require().NoError(err)
	s.Require().Len(views, 2)
	s.Equal("Milk", views[0].Name)
	s.Equal("Paneer", views[1].Name)
	s.LessOrEqual(utf8.RuneCountInString(views[1].Quantity), inventory.MaxQuantityLength)
	s.Greater(len(views[1].Quantity), inventory.MaxQuantityLength)
	s.True(strings.HasPrefix(views[1].Quantity, "किलो किलो"))
}

func (s *ServiceTestSuite) TestAddManual_AcceptsMultibyteName() {
	name := strings.Repeat("प", 50)
	view, err := s.service.AddManual(context.Background(), inbound.AddItemCommand{
		Name:       name,
		Quantity:   strings.Repeat("कि", 15),
		ExpiryDate: s.now.Add(24 * time.Hour),
	})
	s.Require().NoError(err)
	s.Equal(name, view.Name)
}

func (s *ServiceTestSuite) TestAddManual_EncodedMarkupIsNotStored() {
	_, err := s.service.AddManual(context.Background(), inbound.AddItemCommand{
		Name:       "Paneer &lt;script&gt;alert(1)&lt;/script&gt;",
		ExpiryDate: s.now.Add(24 * time.Hour),
	})
	s.Require().NoError(err)

	list, err := s.service.List(context.Background())
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("Paneer", list[0].Name)
}

func (s *ServiceTestSuite) TestStatusRecomputedAsTimeAdvances() {
	ctx := context.Background()
	_, err := s.service.AddManual(ctx, inbound.AddItemCommand{Name: "Spinach", ExpiryDate: s.now.Add(5 * 24 * time.Hour)})
	s.Require().NoError(err)

	list, _ := s.service.List(ctx)
	s.Equal(inventory.StatusFresh, list[0].Status)

	s.now = s.now.Add(3 * 24 * time.Hour)
	list, _ = s.service.List(ctx)
	s.Equal(inventory.StatusExpiringSoon, list[0].Status)

	s.now = s.now.Add(2 * 24 * time.Hour)
	list, _ = s.service.List(ctx)
	s.Equal(inventory.StatusExpired, list[0].Status)
}

func (s *ServiceTestSuite) TestDelete() {
	ctx := context.Background()
	view, err := s.service.AddManual(ctx, inbound.AddItemCommand{Name: "Eggs", ExpiryDate: s.now.Add(time.Hour)})
	s.Require().NoError(err)

	removed, err := s.service.Delete(ctx, view.ID)
	s.Require().NoError(err)
	s.True(removed)

	removed, err = s.service.Delete(ctx, view.ID)
	s.Require().NoError(err)
	s.False(removed)

	s.Equal([]string{inventory.EventItemAdded, inventory.EventItemRemoved}, s.dispatcher.EventNames())
	event := s.dispatcher.Events[1].(inventory.ItemRemovedEvent)
	s.Equal("Eggs", event.Name)
}

func (s *ServiceTestSuite) TestSeedAndSummary() {
	ctx := context.Background()

	n, err := s.service.Seed(ctx)
	s.Require().NoError(err)
	s.Equal(9, n)

	n, err = s.service.Seed(ctx)
	s.Require().NoError(err)
	s.Zero(n, "seeding a populated inventory is a no-op")

	summary, err := s.service.Summary(ctx)
	s.Require().NoError(err)
	s.Equal(9, summary.Total)
	s.Equal(2, summary.ByStatus[inventory.StatusExpired])
	s.Equal(3, summary.ByStatus[inventory.StatusExpiringSoon])
	s.Equal(4, summary.ByStatus[inventory.StatusFresh])
	s.Len(summary.ByCategory, len(inventory.Categories()))
	s.Equal(s.now, summary.AsOf)
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func TestService_StorageErrors(t *testing.T) {
	logger := zaptest.NewLogger(t)
	repo := testutils.NewMockItemRepository()
	repo.On("List", mock.Anything).Return(nil, errors.New("disk gone"))
	repo.On("Prepend", mock.Anything, mock.Anything).Return(errors.New("disk gone"))

	svc := NewService(repo, security.NewValidationService(logger), nil, nil, nil, nil, logger)

	_, err := svc.List(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.CodeStorageError))

	_, err = svc.IngestDetected(context.Background(), []inbound.DetectedItem{{Name: "Milk"}})
	assert.True(t, apperrors.Is(err, apperrors.CodeStorageError))

	_, err = svc.Delete(context.Background(), uuid.New())
	require.Error(t, err)
	repo.AssertExpectations(t)
}
