package postgres

import (
	"github.com/guillermop/sellerauth/internal/repository"
)

type Storage struct {
	db DBTX
}

func NewStorage(db DBTX) repository.Storage {
	return &Storage{db: db}
}

func (s *Storage) Seller() repository.SellerRepo {
	return &SellerRepo{DB: s.db}
}
