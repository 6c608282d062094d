package repository

import (
	"context"

	"github.com/guillermop/sellerauth/internal/models"
)

// Seller repository interface
type SellerRepo interface {
	// Insert seller or overwrite its refresh token if it authorized before
	// Must be atomic: concurrent calls for the same selling partner may not
	// produce two rows or clobber created_at
	UpsertRefreshToken(ctx context.Context, sellingPartnerID string, refreshToken string) (models.Seller, error)

	// Get seller by its selling partner id
	// If seller not found must return apperrors.ErrSellerNotFound
	GetBySellingPartnerID(ctx context.Context, sellingPartnerID string) (models.Seller, error)
}

// Storage combines repositories over one connection source
type Storage interface {
	Seller() SellerRepo
}
