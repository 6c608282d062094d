package models

import (
	"time"

	"github.com/google/uuid"
)

// Seller is one authorized selling partner.
// Exactly one row per SellingPartnerID; re-authorization overwrites RefreshToken only.
type Seller struct {
	ID               uuid.UUID
	SellingPartnerID string
	RefreshToken     string
	CreatedAt        time.Time
}
