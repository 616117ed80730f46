package models

import (
	"encoding/json"
	"time"
)

// Product is the digital-delivery attachment of a product link. Exactly
// one product exists per product link.
type Product struct {
	ID     string `json:"id"`
	LinkID string `json:"link_id" sql:"index"`

	// DownloadLink is the opaque locator handed to the buyer after a
	// successful sale, signed through the configured asset store.
	DownloadLink string `json:"download_link"`

	ImageURLs    []string `json:"image_urls" sql:"-"`
	RawImageURLs string   `json:"-" sql:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for the Product model.
func (Product) TableName() string {
	return tableName("products")
}

// AfterFind database callback.
func (p *Product) AfterFind() error {
	if p.RawImageURLs != "" {
		return json.Unmarshal([]byte(p.RawImageURLs), &p.ImageURLs)
	}
	return nil
}

// BeforeSave database callback.
func (p *Product) BeforeSave() error {
	if p.ImageURLs != nil {
		data, err := json.Marshal(p.ImageURLs)
		if err != nil {
			return err
		}
		p.RawImageURLs = string(data)
	}
	return nil
}
