package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"storefront/internal/models"

	"github.com/cockroachdb/pebble"
)

// LedgerStorage persists the full order ledger as one value
type LedgerStorage interface {
	Load() (orders []models.Order, found bool, err error)
	Save(orders []models.Order) error
}

var ledgerKey = []byte("orders")

// PebbleLedgerStorage keeps the ledger in a local Pebble database
type PebbleLedgerStorage struct {
	db *pebble.DB
}

// OpenPebbleLedgerStorage opens (or creates) the database in dir
func OpenPebbleLedgerStorage(dir string) (*PebbleLedgerStorage, error) {
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleLedgerStorage{db: db}, nil
}

// Close closes the database
func (p *PebbleLedgerStorage) Close() error { return p.db.Close() }

func (p *PebbleLedgerStorage) Load() ([]models.Order, bool, error) {
	val, closer, err := p.db.Get(ledgerKey)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("pebble get: %w", err)
	}
	defer closer.Close()

	var orders []models.Order
	if err := json.Unmarshal(val, &orders); err != nil {
		return nil, false, fmt.Errorf("decode ledger: %w", err)
	}
	return orders, true, nil
}

// Save writes the ledger and syncs the WAL before returning
func (p *PebbleLedgerStorage) Save(orders []models.Order) error {
	val, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := p.db.Set(ledgerKey, val, pebble.Sync); err != nil {
		return fmt.Errorf("pebble set: %w", err)
	}
	return nil
}

// MemoryLedgerStorage keeps the encoded ledger in memory
type MemoryLedgerStorage struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryLedgerStorage() *MemoryLedgerStorage {
	return &MemoryLedgerStorage{}
}

func (m *MemoryLedgerStorage) Load() ([]models.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		return nil, false, nil
	}
	var orders []models.Order
	if err := json.Unmarshal(m.data, &orders); err != nil {
		return nil, false, err
	}
	return orders, true, nil
}

func (m *MemoryLedgerStorage) Save(orders []models.Order) error {
	val, err := json.Marshal(orders)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = val
	m.mu.Unlock()
	return nil
}
