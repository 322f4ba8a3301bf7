package store

import "github.com/bmcredit/loanbook/pkg/models"

// MemoryStore keeps the dataset in memory. It backs tests and ephemeral runs
// with the same load/save contract as the SQLite store.
type MemoryStore struct {
	data *models.Dataset
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: models.NewDataset()}
}

func (m *MemoryStore) Load() (*models.Dataset, error) {
	return m.data.Clone(), nil
}

func (m *MemoryStore) Save(data *models.Dataset) error {
	m.data = data.Clone()
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
