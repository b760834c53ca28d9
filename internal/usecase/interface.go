package usecase

import (
	"context"

	"sox-reconciler/internal/domain"
)

// ExtractRepository supplies the materialized source extracts of one run.
// The usecase layer depends on this interface, not on a concrete implementation.
//
//go:generate mockgen -destination=mocks/mock_repository.go -source=interface.go ExtractRepository
type ExtractRepository interface {
	LoadExtracts(ctx context.Context, source string) (*domain.Extracts, error)
}
