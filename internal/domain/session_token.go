package domain

import "time"

// SessionToken is one ledger row per issued access/refresh pair.
//
// Security notes:
//   - We never store the raw refresh token in DB, only its SHA-256 hash
//     (RefreshHash). Uniqueness is enforced on the hash.
//   - Refresh overwrites the row in place (same ID) behind a conditional
//     update that matches the old hash, so a spent refresh token cannot be
//     replayed even under concurrent refresh calls.
type SessionToken struct {
	ID int64 `json:"id" gorm:"primaryKey"`

	UserID int64 `json:"user_id" gorm:"index:idx_session_tokens_user_role;not null"`
	User   User  `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	Role Role `json:"role" gorm:"size:16;index:idx_session_tokens_user_role;not null"`

	RefreshHash string `json:"-" gorm:"size:64;uniqueIndex;not null"`
	AccessJTI   string `json:"-" gorm:"size:36"`

	IP        string `json:"ip,omitempty" gorm:"size:45"`
	UserAgent string `json:"user_agent,omitempty" gorm:"size:512"`

	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt  time.Time  `json:"expires_at" gorm:"index;not null"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty" gorm:"index"`
}

func (SessionToken) TableName() string { return "session_tokens" }

func (t *SessionToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

func (t *SessionToken) IsRevoked() bool {
	return t.RevokedAt != nil
}
