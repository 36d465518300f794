package inventory

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ItemTestSuite covers item construction and freshness rules
type ItemTestSuite struct {
	suite.Suite
	now time.Time
}

func (suite *ItemTestSuite) SetupTest() {
	suite.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func (suite *ItemTestSuite) TestNewItem() {
	suite.Run("BlankFields_ShouldBeDefaulted", func() {
		// Act
		item, err := NewItem("  ", "", "", suite.now, suite.now.Add(DefaultShelfLife), SourceVision)

		// Assert
		require.NoError(suite.T(), err)
		assert.NotEqual(suite.T(), uuid.Nil, item.ID)
		assert.Equal(suite.T(), DefaultName, item.Name)
		assert.Equal(suite.T(), CategoryOther, item.Category)
		assert.Equal(suite.T(), DefaultQuantity, item.Quantity)
		assert.Equal(suite.T(), SourceVision, item.Source)
	})

	suite.Run("IDsAreUnique", func() {
		a, err := NewItem("Milk", "Dairy", "1L", suite.now, suite.now.Add(day), SourceManual)
		require.NoError(suite.T(), err)
		b, err := NewItem("Milk", "Dairy", "1L", suite.now, suite.now.Add(day), SourceManual)
		require.NoError(suite.T(), err)

		assert.NotEqual(suite.T(), a.ID, b.ID)
	})

	suite.Run("NameTooLong_ShouldReturnError", func() {
		_, err := NewItem(strings.Repeat("a", MaxNameLength+1), "Dairy", "1L", suite.now, suite.now.Add(day), SourceManual)

		assert.ErrorIs(suite.T(), err, ErrNameTooLong)
	})

	suite.Run("MultibyteLimitsCountCharacters", func() {
		name := strings.Repeat("प", MaxNameLength)
		quantity := strings.Repeat("कि", MaxQuantityLength/2)

		item, err := NewItem(name, "Dairy", quantity, suite.now, suite.now.Add(day), SourceManual)
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), name, item.Name)
		assert.Equal(suite.T(), quantity, item.Quantity)

		_, err = NewItem(name+"प", "Dairy", "1L", suite.now, suite.now.Add(day), SourceManual)
		assert.ErrorIs(suite.T(), err, ErrNameTooLong)
	})

	suite.Run("MissingExpiry_ShouldReturnError", func() {
		_, err := NewItem("Milk", "Dairy", "1L", suite.now, time.Time{}, SourceManual)

		assert.ErrorIs(suite.T(), err, ErrMissingExpiry)
	})

	suite.Run("PastExpiry_IsAccepted", func() {
		item, err := NewItem("Old Bread", "Grains", "1 loaf", suite.now, suite.now.Add(-day), SourceManual)

		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), StatusExpired, item.StatusAt(suite.now, DefaultExpiringSoonWindow))
	})
}

func (suite *ItemTestSuite) TestStatusAt() {
	window := DefaultExpiringSoonWindow
	tests := []struct {
		name   string
		expiry time.Time
		want   Status
	}{
		{"ExactlyNow_IsExpired", suite.now, StatusExpired},
		{"InThePast_IsExpired", suite.now.Add(-time.Minute), StatusExpired},
		{"JustAfterNow_IsExpiringSoon", suite.now.Add(time.Second), StatusExpiringSoon},
		{"AtWindowEdge_IsExpiringSoon", suite.now.Add(window), StatusExpiringSoon},
		{"BeyondWindow_IsFresh", suite.now.Add(window + time.Second), StatusFresh},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			assert.Equal(suite.T(), tt.want, StatusAt(tt.expiry, suite.now, window))
		})
	}
}

func (suite *ItemTestSuite) TestStatusIsRecomputedAsTimeAdvances() {
	item, err := NewItem("Milk", "Dairy", "1L", suite.now, suite.now.Add(4*day), SourceManual)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), StatusFresh, item.ViewAt(suite.now, DefaultExpiringSoonWindow).Status)
	assert.Equal(suite.T(), StatusExpiringSoon, item.ViewAt(suite.now.Add(2*day), DefaultExpiringSoonWindow).Status)
	assert.Equal(suite.T(), StatusExpired, item.ViewAt(suite.now.Add(4*day), DefaultExpiringSoonWindow).Status)
}

func (suite *ItemTestSuite) TestDemoItems() {
	items := DemoItems(suite.now)

	require.Len(suite.T(), items, 9)
	assert.Equal(suite.T(), "Organic Tomatoes", items[0].Name)

	counts := map[Status]int{}
	for _, item := range items {
		assert.Equal(suite.T(), SourceSeed, item.Source)
		require.NoError(suite.T(), item.Validate())
		counts[item.StatusAt(suite.now, DefaultExpiringSoonWindow)]++
	}
	assert.Equal(suite.T(), 2, counts[StatusExpired])
	assert.Equal(suite.T(), 3, counts[StatusExpiringSoon])
	assert.Equal(suite.T(), 4, counts[StatusFresh])
}

func TestItemTestSuite(t *testing.T) {
	suite.Run(t, new(ItemTestSuite))
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"Dairy", CategoryDairy},
		{"dairy", CategoryDairy},
		{"  VEGETABLES ", CategoryVegetables},
		{"spices", CategorySpices},
		{"Beverages", CategoryOther},
		{"", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCategory(tt.in))
		})
	}
}

func TestParseID(t *testing.T) {
	id := uuid.New()

	got, err := ParseID(" " + id.String() + " ")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseID("not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidItemID)
}
