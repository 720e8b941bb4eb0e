package unitofwork

import "context"

// RepositoryFactory hands out a fresh unit per request; units are not safe to share.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
