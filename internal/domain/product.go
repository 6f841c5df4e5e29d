package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList stores a JSON array of strings in a single text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return fmt.Errorf("unsupported string list column type %T", src)
}

// Product prices are kept in minor units (cents) to avoid float arithmetic.
type Product struct {
	ID         int64 `json:"id" gorm:"primaryKey"`
	MerchantID int64 `json:"merchant_id" gorm:"index;not null"`

	Name        string `json:"name" gorm:"size:255;index;not null"`
	Description string `json:"description"`
	Category    string `json:"category" gorm:"size:64;index"`

	PriceCents int64  `json:"price_cents" gorm:"not null"`
	Currency   string `json:"currency" gorm:"size:3;not null"`

	ImageURLs StringList `json:"image_urls" gorm:"type:text"`

	Stock     int64 `json:"stock" gorm:"not null"`
	Published bool  `json:"published" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Product) TableName() string { return "products" }
