package unitofwork

import (
	"context"

	"tryon-widget-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	FitSessionRepository() contract.FitSessionRepository
	RetailerRepository() contract.RetailerRepository
}
