package unitofwork

import "context"

// RepositoryFactory hands out one UnitOfWork per request or per consumed event.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
