package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleMerchant Role = "merchant"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleMerchant, RoleAdmin:
		return true
	}
	return false
}

// RoleList is the set of roles a user holds, stored as a JSON array.
type RoleList []Role

func (l RoleList) Has(r Role) bool {
	for _, held := range l {
		if held == r {
			return true
		}
	}
	return false
}

func (l RoleList) Value() (driver.Value, error) {
	if l == nil {
		l = RoleList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *RoleList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = RoleList{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return fmt.Errorf("unsupported roles column type %T", src)
}

type User struct {
	ID           int64  `json:"id" gorm:"primaryKey"`
	Email        string `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Username     string `json:"username" gorm:"size:64;uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"not null"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`

	Roles RoleList `json:"roles" gorm:"type:text;not null"`

	EmailVerified bool `json:"email_verified"`

	IsBanned  bool       `json:"is_banned"`
	BanReason string     `json:"ban_reason,omitempty"`
	BannedAt  *time.Time `json:"banned_at,omitempty"`

	TermsAcceptedAt *time.Time `json:"terms_accepted_at,omitempty"`
	TermsSignature  string     `json:"terms_signature,omitempty"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }
