package models

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *gorm.DB {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=10000", path))
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func createTestLink(t *testing.T, db *gorm.DB, userID, path string, mutate func(*Link)) *Link {
	link := NewLink(userID, "Test link", path)
	link.Amount = 25
	link.Currency = "USDC"
	if mutate != nil {
		mutate(link)
	}
	require.NoError(t, CreateLink(db, link))
	return link
}

func limit(n int64) *int64 {
	return &n
}

func at(t time.Time) *time.Time {
	return &t
}

// ------------------------------------------------------------------------------------------------
// Status evaluator
// ------------------------------------------------------------------------------------------------

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	cases := []struct {
		desc     string
		link     Link
		expected string
	}{
		{"no bounds returns stored active", Link{Status: StatusActive}, StatusActive},
		{"no bounds returns stored inactive", Link{Status: StatusInactive}, StatusInactive},
		{"past expiry wins over stored active", Link{Status: StatusActive, ExpiresAt: at(yesterday)}, StatusExpired},
		{"future expiry keeps stored status", Link{Status: StatusActive, ExpiresAt: at(tomorrow)}, StatusActive},
		{"limit reached wins over stored active", Link{Status: StatusActive, PaymentLimit: limit(3), Sales: 3}, StatusUsed},
		{"limit reached wins over stored inactive", Link{Status: StatusInactive, PaymentLimit: limit(3), Sales: 3}, StatusUsed},
		{"limit not reached keeps stored status", Link{Status: StatusActive, PaymentLimit: limit(3), Sales: 2}, StatusActive},
		{"zero limit is immediately used", Link{Status: StatusActive, PaymentLimit: limit(0)}, StatusUsed},
		{"expiry has priority over exceeded limit", Link{Status: StatusActive, ExpiresAt: at(yesterday), PaymentLimit: limit(1), Sales: 5}, StatusExpired},
		{"unset limit is unlimited", Link{Status: StatusActive, Sales: 1000000}, StatusActive},
	}

	for _, c := range cases {
		assert.Equal(t, c.expected, c.link.EffectiveStatus(now), c.desc)
	}
}

// ------------------------------------------------------------------------------------------------
// Resolver
// ------------------------------------------------------------------------------------------------

func TestCreateLinkPathUniquenessPerOwner(t *testing.T) {
	db := testDB(t)
	createTestLink(t, db, "owner-1", "/bruce/coffee", nil)

	dupe := NewLink("owner-1", "Another link", "/bruce/coffee")
	err := CreateLink(db, dupe)
	require.Error(t, err)
	assert.IsType(t, PathTakenError{}, err)

	// the same path string under a different owner is fine
	other := NewLink("owner-2", "Another link", "/bruce/coffee")
	require.NoError(t, CreateLink(db, other))
}

func TestCreateLinkLosingRaceReadsAsTaken(t *testing.T) {
	db := testDB(t)
	createTestLink(t, db, "owner-1", "/bruce/coffee", nil)

	// an insert slipping past the existence check lands on the
	// (user_id, path) unique index; that failure is a taken path, not a
	// storage failure
	dupe := NewLink("owner-1", "Another link", "/bruce/coffee")
	err := db.Create(dupe).Error
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))
}

func TestPathAvailable(t *testing.T) {
	db := testDB(t)

	available, err := PathAvailable(db, "owner-1", "/bruce/coffee")
	require.NoError(t, err)
	assert.True(t, available)

	createTestLink(t, db, "owner-1", "/bruce/coffee", nil)

	available, err = PathAvailable(db, "owner-1", "/bruce/coffee")
	require.NoError(t, err)
	assert.False(t, available)

	available, err = PathAvailable(db, "owner-2", "/bruce/coffee")
	require.NoError(t, err)
	assert.True(t, available)
}

func TestCreateResolveRoundTrip(t *testing.T) {
	db := testDB(t)
	expiry := time.Now().Add(48 * time.Hour).Round(time.Second)

	link := createTestLink(t, db, "owner-1", "/bruce/ebook", func(l *Link) {
		l.Description = "My first e-book"
		l.PaymentLimit = limit(10)
		l.ExpiresAt = at(expiry)
		l.RedirectURL = "https://example.com/thanks"
		l.EnableNotifications = true
		l.AttachProduct("https://cloud.example.com/assets/site/ebook.pdf", []string{"https://img.example.com/1.png"})
	})

	found, err := LinkByPath(db, "owner-1", "/bruce/ebook")
	require.NoError(t, err)

	assert.Equal(t, link.ID, found.ID)
	assert.Equal(t, "Test link", found.Name)
	assert.Equal(t, "My first e-book", found.Description)
	assert.Equal(t, LinkTypeProduct, found.Type)
	assert.Equal(t, float64(25), found.Amount)
	assert.Equal(t, "USDC", found.Currency)
	assert.False(t, found.IsFlexibleAmount)
	require.NotNil(t, found.PaymentLimit)
	assert.Equal(t, int64(10), *found.PaymentLimit)
	assert.Equal(t, "https://example.com/thanks", found.RedirectURL)
	assert.True(t, found.EnableNotifications)
	assert.Equal(t, StatusActive, found.Status)

	// server-assigned fields start out zeroed
	assert.Equal(t, int64(0), found.Clicks)
	assert.Equal(t, int64(0), found.Sales)
	assert.Equal(t, float64(0), found.AmountSold)

	require.NotNil(t, found.Product)
	assert.Equal(t, "https://cloud.example.com/assets/site/ebook.pdf", found.Product.DownloadLink)
	assert.Equal(t, []string{"https://img.example.com/1.png"}, found.Product.ImageURLs)
}

func TestLinkByPathMisses(t *testing.T) {
	db := testDB(t)
	createTestLink(t, db, "owner-1", "/bruce/coffee", nil)

	_, err := LinkByPath(db, "owner-1", "/bruce/coffe")
	assert.True(t, IsNotFoundError(err))

	_, err = LinkByPath(db, "owner-2", "/bruce/coffee")
	assert.True(t, IsNotFoundError(err))
}

// ------------------------------------------------------------------------------------------------
// Counter mutators
// ------------------------------------------------------------------------------------------------

func TestIncrementClicks(t *testing.T) {
	db := testDB(t)
	link := createTestLink(t, db, "owner-1", "/bruce/coffee", nil)

	require.NoError(t, IncrementClicks(db, link.ID))
	require.NoError(t, IncrementClicks(db, link.ID))

	found, err := LinkByID(db, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), found.Clicks)
}

func TestIncrementClicksMissingLink(t *testing.T) {
	db := testDB(t)
	err := IncrementClicks(db, "nope")
	assert.True(t, IsNotFoundError(err))
}

func TestIncrementClicksConcurrently(t *testing.T) {
	db := testDB(t)
	link := createTestLink(t, db, "owner-1", "/bruce/coffee", nil)

	const visitors = 10
	var wg sync.WaitGroup
	errs := make(chan error, visitors)
	for i := 0; i < visitors; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- IncrementClicks(db, link.ID)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	found, err := LinkByID(db, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(visitors), found.Clicks, "no update may be lost")
}

func TestRecordSale(t *testing.T) {
	db := testDB(t)
	link := createTestLink(t, db, "owner-1", "/bruce/coffee", func(l *Link) {
		l.PaymentLimit = limit(1)
	})

	sale, err := RecordSale(db, link, 25, "buyer@example.com", "Buyer", time.Now())
	require.NoError(t, err)
	assert.Equal(t, link.ID, sale.LinkID)
	assert.Equal(t, float64(25), sale.Amount)
	assert.Equal(t, "USDC", sale.Currency)
	assert.Equal(t, SaleCompletedState, sale.Status)

	found, err := LinkByID(db, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), found.Sales)
	assert.Equal(t, float64(25), found.AmountSold)
	// a sale does not count as a click
	assert.Equal(t, int64(0), found.Clicks)

	// the limit is exhausted now
	_, err = RecordSale(db, link, 25, "", "", time.Now())
	require.Error(t, err)
	notEligible, ok := err.(LinkNotEligibleError)
	require.True(t, ok)
	assert.Equal(t, StatusUsed, notEligible.Status)
}

func TestRecordSaleAccumulatesAmount(t *testing.T) {
	db := testDB(t)
	link := createTestLink(t, db, "owner-1", "/bruce/tip", func(l *Link) {
		l.IsFlexibleAmount = true
		l.Amount = 0
	})

	_, err := RecordSale(db, link, 10, "", "", time.Now())
	require.NoError(t, err)
	_, err = RecordSale(db, link, 2.5, "", "", time.Now())
	require.NoError(t, err)

	found, err := LinkByID(db, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), found.Sales)
	assert.Equal(t, 12.5, found.AmountSold)

	sales := []*Sale{}
	require.NoError(t, db.Where("link_id = ?", link.ID).Find(&sales).Error)
	assert.Len(t, sales, 2)
}

func TestRecordSaleInvalidAmountNeverMutates(t *testing.T) {
	db := testDB(t)
	link := createTestLink(t, db, "owner-1", "/bruce/coffee", nil)

	for _, amount := range []float64{0, -5} {
		_, err := RecordSale(db, link, amount, "", "", time.Now())
		require.Error(t, err)
		assert.IsType(t, InvalidAmountError{}, err)
	}

	found, err := LinkByID(db, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), found.Sales)
	assert.Equal(t, float64(0), found.AmountSold)

	var count int
	require.NoError(t, db.Model(&Sale{}).Where("link_id = ?", link.ID).Count(&count).Error)
	assert.Equal(t, 0, count)
}

func TestRecordSaleRefusals(t *testing.T) {
	db := testDB(t)
	now := time.Now()

	expired := createTestLink(t, db, "owner-1", "/bruce/old", func(l *Link) {
		l.ExpiresAt = at(now.Add(-time.Hour))
	})
	_, err := RecordSale(db, expired, 25, "", "", now)
	notEligible, ok := err.(LinkNotEligibleError)
	require.True(t, ok)
	assert.Equal(t, StatusExpired, notEligible.Status)

	inactive := createTestLink(t, db, "owner-1", "/bruce/paused", func(l *Link) {
		l.Status = StatusInactive
	})
	_, err = RecordSale(db, inactive, 25, "", "", now)
	notEligible, ok = err.(LinkNotEligibleError)
	require.True(t, ok)
	assert.Equal(t, StatusInactive, notEligible.Status)

	zeroLimit := createTestLink(t, db, "owner-1", "/bruce/none", func(l *Link) {
		l.PaymentLimit = limit(0)
	})
	_, err = RecordSale(db, zeroLimit, 25, "", "", now)
	notEligible, ok = err.(LinkNotEligibleError)
	require.True(t, ok)
	assert.Equal(t, StatusUsed, notEligible.Status)

	missing := &Link{ID: "nope", Currency: "USDC"}
	_, err = RecordSale(db, missing, 25, "", "", now)
	assert.True(t, IsNotFoundError(err))
}

func TestRecordSaleNeverOvershootsLimit(t *testing.T) {
	db := testDB(t)
	link := createTestLink(t, db, "owner-1", "/bruce/limited", func(l *Link) {
		l.PaymentLimit = limit(3)
	})

	won := 0
	for i := 0; i < 10; i++ {
		if _, err := RecordSale(db, link, 25, "", "", time.Now()); err == nil {
			won++
		}
	}
	assert.Equal(t, 3, won)

	found, err := LinkByID(db, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), found.Sales)
}

// ------------------------------------------------------------------------------------------------
// Deletion
// ------------------------------------------------------------------------------------------------

func TestDeleteLinkRemovesProductFirst(t *testing.T) {
	db := testDB(t)
	link := createTestLink(t, db, "owner-1", "/bruce/ebook", func(l *Link) {
		l.AttachProduct("https://example.com/ebook.pdf", nil)
	})

	require.NoError(t, DeleteLink(db, link))

	_, err := LinkByID(db, link.ID)
	assert.True(t, IsNotFoundError(err))

	var count int
	require.NoError(t, db.Model(&Product{}).Where("link_id = ?", link.ID).Count(&count).Error)
	assert.Equal(t, 0, count)
}
