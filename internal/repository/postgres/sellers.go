package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/guillermop/sellerauth/internal/apperrors"
	"github.com/guillermop/sellerauth/internal/models"
)

type SellerRepo struct {
	DB DBTX
}

const upsertSeller = `-- name: UpsertSeller
INSERT INTO sellers (id, selling_partner_id, refresh_token)
VALUES ($1, $2, $3)
ON CONFLICT (selling_partner_id)
DO UPDATE SET refresh_token = EXCLUDED.refresh_token
RETURNING id, selling_partner_id, refresh_token, created_at
`

// Insert seller or overwrite refresh token for already known selling partner
// ON CONFLICT keeps the operation atomic, created_at is set on insert only
func (r *SellerRepo) UpsertRefreshToken(ctx context.Context, sellingPartnerID string, refreshToken string) (models.Seller, error) {
	rows, _ := r.DB.Query(ctx, upsertSeller, uuid.New(), sellingPartnerID, refreshToken)
	seller, err := pgx.CollectOneRow(rows, rowToSeller)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
			return seller, fmt.Errorf("seller row rejected by constraint: %w", err)
		}

		return seller, fmt.Errorf("db error: %w", err)
	}

	return seller, nil
}

const getSeller = `-- name: GetSellerBySellingPartnerID
SELECT id, selling_partner_id, refresh_token, created_at
FROM sellers
WHERE selling_partner_id = $1
`

func (r *SellerRepo) GetBySellingPartnerID(ctx context.Context, sellingPartnerID string) (models.Seller, error) {
	rows, _ := r.DB.Query(ctx, getSeller, sellingPartnerID)
	seller, err := pgx.CollectOneRow(rows, rowToSeller)

	switch {
	case err == nil:
		return seller, nil
	case errors.Is(err, pgx.ErrNoRows):
		return seller, apperrors.ErrSellerNotFound
	default:
		return seller, fmt.Errorf("db error: %w", err)
	}
}

func rowToSeller(row pgx.CollectableRow) (models.Seller, error) {
	var s models.Seller
	err := row.Scan(&s.ID, &s.SellingPartnerID, &s.RefreshToken, &s.CreatedAt)
	return s, err
}
