package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/josh-kwaku/gig-wallet/internal/domain"
)

const (
	sqlStateLockNotAvailable = "55P03"
	sqlStateDeadlock         = "40P01"
)

// storageErr classifies a driver error: lock waits that ran out become
// domain.ErrBusy, everything else domain.ErrStorageFailure.
func storageErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case sqlStateLockNotAvailable, sqlStateDeadlock:
			return fmt.Errorf("%w: %w", domain.ErrBusy, err)
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrStorageFailure, err)
}
