package store

import "github.com/bmcredit/loanbook/pkg/models"

// Storage is the persistence gateway: opaque load and save of the whole
// dataset. Save overwrites everything previously stored; there are no partial
// updates. Load on a fresh store returns an empty dataset, never nil.
type Storage interface {
	Load() (*models.Dataset, error)
	Save(*models.Dataset) error
	Close() error
}
