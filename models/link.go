package models

import (
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"
)

// LinkTypePlain is a bare payment link without an attached product.
const LinkTypePlain = "plain"

// LinkTypeProduct is a payment link with exactly one digital product attached.
const LinkTypeProduct = "product"

// StatusActive | StatusInactive are the administrative statuses a link
// owner can store on a link.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// StatusExpired | StatusUsed are computed at read time from the expiry
// timestamp and the payment limit. They are never persisted.
const (
	StatusExpired = "expired"
	StatusUsed    = "used"
)

// Link is a shareable payment page configuration created by a creator.
type Link struct {
	ID string `json:"id"`

	UserID string `json:"user_id" gorm:"unique_index:links_owner_path"`
	User   *User  `json:"-"`

	Type string `json:"type"`

	Name        string `json:"name"`
	Description string `json:"description" sql:"type:text"`

	// Path is the human-facing "/<handle>/<slug>" the link is reached
	// under. Unique per owner, not globally.
	Path string `json:"path" gorm:"unique_index:links_owner_path"`

	// Amount is the fixed price. Mutually exclusive with
	// IsFlexibleAmount, which lets the buyer choose the amount at
	// checkout time.
	Amount           float64 `json:"amount"`
	IsFlexibleAmount bool    `json:"is_flexible_amount"`
	Currency         string  `json:"currency"`

	PaymentLimit *int64     `json:"payment_limit"`
	ExpiresAt    *time.Time `json:"expires_at"`

	RedirectURL         string `json:"redirect_url"`
	EnableNotifications bool   `json:"enable_notifications"`

	Status string `json:"status"`

	// Counters, mutated only by the checkout flow through atomic adds.
	Clicks     int64   `json:"clicks"`
	Sales      int64   `json:"sales"`
	AmountSold float64 `json:"amount_sold"`

	Product *Product `json:"product" gorm:"foreignkey:LinkID"`

	CreatedAt time.Time `json:"created_at" sql:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for the Link model.
func (Link) TableName() string {
	return tableName("links")
}

// NewLink prepares a link for the given owner. The kind is derived from
// whether a product is attached.
func NewLink(userID, name, path string) *Link {
	link := &Link{
		ID:     uuid.NewRandom().String(),
		UserID: userID,
		Name:   name,
		Path:   path,
		Type:   LinkTypePlain,
		Status: StatusActive,
	}
	return link
}

// AttachProduct turns the link into a product link with the given
// download location and images.
func (l *Link) AttachProduct(downloadLink string, imageURLs []string) {
	l.Type = LinkTypeProduct
	l.Product = &Product{
		ID:           uuid.NewRandom().String(),
		LinkID:       l.ID,
		DownloadLink: downloadLink,
		ImageURLs:    imageURLs,
	}
}

// EffectiveStatus computes the status of the link as of now. Expiry and
// limit exhaustion are objective facts that override a stale "active"
// flag, in that order. A payment limit of zero means the link never
// accepts a sale; an unset limit means unlimited.
func (l *Link) EffectiveStatus(now time.Time) string {
	if l.ExpiresAt != nil && now.After(*l.ExpiresAt) {
		return StatusExpired
	}
	if l.PaymentLimit != nil && l.Sales >= *l.PaymentLimit {
		return StatusUsed
	}
	return l.Status
}

// CreateLink stores a new link, together with its product when one is
// attached. It fails with PathTakenError when the owner already has a
// link under the same path.
func CreateLink(db *gorm.DB, link *Link) error {
	existing := &Link{}
	result := db.Where("user_id = ? AND path = ?", link.UserID, link.Path).First(existing)
	if result.Error == nil {
		return PathTakenError{Path: link.Path}
	}
	if !result.RecordNotFound() {
		return errors.Wrap(result.Error, "checking path availability")
	}

	if result := db.Create(link); result.Error != nil {
		// two creates racing past the existence check: the loser hits
		// the (user_id, path) unique index
		if isUniqueViolation(result.Error) {
			return PathTakenError{Path: link.Path}
		}
		return errors.Wrap(result.Error, "creating link")
	}
	return nil
}

// PathAvailable reports whether the owner can still claim the path.
func PathAvailable(db *gorm.DB, userID, path string) (bool, error) {
	result := db.Where("user_id = ? AND path = ?", userID, path).First(&Link{})
	if result.Error == nil {
		return false, nil
	}
	if result.RecordNotFound() {
		return true, nil
	}
	return false, errors.Wrap(result.Error, "checking path availability")
}

// LinkByID loads a link and its product.
func LinkByID(db *gorm.DB, id string) (*Link, error) {
	return loadLink(db.Where("id = ?", id))
}

// LinkByPath resolves a link by owner and exact path. No fuzzy
// matching, no redirects on a miss.
func LinkByPath(db *gorm.DB, userID, path string) (*Link, error) {
	return loadLink(db.Where("user_id = ? AND path = ?", userID, path))
}

func loadLink(query *gorm.DB) (*Link, error) {
	link := &Link{}
	if result := query.Preload("Product").First(link); result.Error != nil {
		if result.RecordNotFound() {
			return nil, ModelNotFoundError{"link"}
		}
		return nil, errors.Wrap(result.Error, "loading link")
	}
	return link, nil
}

// DeleteLink removes the link and, for product links, its product row
// first so the referential order holds.
func DeleteLink(db *gorm.DB, link *Link) error {
	tx := db.Begin()
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "beginning delete transaction")
	}

	if link.Type == LinkTypeProduct {
		if result := tx.Where("link_id = ?", link.ID).Delete(&Product{}); result.Error != nil {
			tx.Rollback()
			return errors.Wrap(result.Error, "deleting product")
		}
	}

	if result := tx.Delete(&Link{ID: link.ID}); result.Error != nil {
		tx.Rollback()
		return errors.Wrap(result.Error, "deleting link")
	}

	return errors.Wrap(tx.Commit().Error, "committing delete")
}

// IncrementClicks bumps the click counter by one. The increment is an
// atomic add at the storage layer so concurrent visits never lose
// updates. Visits are recorded regardless of the link's eligibility.
func IncrementClicks(db *gorm.DB, linkID string) error {
	result := db.Model(&Link{}).
		Where("id = ?", linkID).
		Update("clicks", gorm.Expr("clicks + 1"))
	if result.Error != nil {
		return errors.Wrap(result.Error, "incrementing clicks")
	}
	if result.RowsAffected == 0 {
		return ModelNotFoundError{"link"}
	}
	return nil
}

// RecordSale appends a Sale row and bumps the sales counters in a
// single transaction. Eligibility is enforced by the guarded update
// itself: the row only changes while the link is administratively
// active, unexpired and under its payment limit, so two buyers racing
// for the last slot can never both win.
func RecordSale(db *gorm.DB, link *Link, amount float64, buyerEmail, buyerName string, now time.Time) (*Sale, error) {
	if amount <= 0 {
		return nil, InvalidAmountError{Amount: amount}
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, errors.Wrap(tx.Error, "beginning sale transaction")
	}

	result := tx.Model(&Link{}).
		Where("id = ? AND status = ?", link.ID, StatusActive).
		Where("payment_limit IS NULL OR sales < payment_limit").
		Where("expires_at IS NULL OR expires_at > ?", now).
		Updates(map[string]interface{}{
			"sales":       gorm.Expr("sales + 1"),
			"amount_sold": gorm.Expr("amount_sold + ?", amount),
		})
	if result.Error != nil {
		tx.Rollback()
		return nil, errors.Wrap(result.Error, "incrementing sale counters")
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		fresh := &Link{}
		if res := db.First(fresh, "id = ?", link.ID); res.Error != nil {
			if res.RecordNotFound() {
				return nil, ModelNotFoundError{"link"}
			}
			return nil, errors.Wrap(res.Error, "loading link")
		}
		return nil, LinkNotEligibleError{Status: fresh.EffectiveStatus(now)}
	}

	sale := NewSale(link, amount, buyerEmail, buyerName)
	if result := tx.Create(sale); result.Error != nil {
		tx.Rollback()
		return nil, errors.Wrap(result.Error, "creating sale record")
	}

	if result := tx.Commit(); result.Error != nil {
		return nil, errors.Wrap(result.Error, "committing sale")
	}
	return sale, nil
}
