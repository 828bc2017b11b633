// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package keystore provides SQLite-backed persistent storage for local
// wallet records, the address book, and composed transaction drafts.
package keystore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

var (
	ErrWalletNotFound = errors.New("wallet not found")
	ErrDraftNotFound  = errors.New("draft not found")
)

// Store is a SQLite-backed keystore. It is safe for concurrent use.
type Store struct {
	db      *gorm.DB
	logger  *slog.Logger
	dataDir string
}

// New creates a SQLite keystore. Uses in-memory database if dataDir is
// empty.
func New(
	dataDir string,
	logger *slog.Logger,
) (*Store, error) {
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	var storeDb *gorm.DB
	var err error
	if dataDir == "" {
		// Use in-memory database when no data directory is specified, useful for testing
		// cache=shared allows multiple connections to share the same in-memory database
		storeDb, err = gorm.Open(
			sqlite.Open("file::memory:?cache=shared"),
			&gorm.Config{
				Logger:                 gormlogger.Discard,
				SkipDefaultTransaction: true,
			},
		)
		if err != nil {
			return nil, err
		}
	} else {
		// Make sure that we can read data dir, and create if it doesn't exist
		if _, err := os.Stat(dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			// Create data directory
			if err := os.MkdirAll(dataDir, fs.ModePerm); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		storeDbPath := filepath.Join(
			dataDir,
			"keystore.sqlite",
		)
		// WAL journal mode so reads don't block on draft writes
		storeConnOpts := "_pragma=journal_mode(WAL)"
		storeDb, err = gorm.Open(
			sqlite.Open(
				fmt.Sprintf("file:%s?%s", storeDbPath, storeConnOpts),
			),
			&gorm.Config{
				Logger:                 gormlogger.Discard,
				SkipDefaultTransaction: true,
			},
		)
		if err != nil {
			return nil, err
		}
	}
	s := &Store{
		db:      storeDb,
		dataDir: dataDir,
		logger:  logger,
	}
	// Configure tracing for GORM
	if err := s.db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}
	// Create table schemas
	for _, model := range migrateModels {
		s.logger.Debug(fmt.Sprintf("creating table: %#v", model))
		if err := s.db.AutoMigrate(model); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// DB returns the underlying gorm handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDb, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDb.Close()
}

// AddWallet saves a wallet record, updating name and DID of an existing
// one.
func (s *Store) AddWallet(walletId, name, did string) error {
	wallet := &Wallet{}
	result := s.db.FirstOrCreate(wallet, Wallet{WalletId: walletId})
	if result.Error != nil {
		return fmt.Errorf("failed to find or create wallet: %w", result.Error)
	}
	updates := map[string]interface{}{
		"name": name,
		"did":  did,
	}
	if err := s.db.Model(wallet).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update wallet: %w", err)
	}
	return nil
}

// GetWallet gets a wallet by its wallet ID.
func (s *Store) GetWallet(walletId string) (*Wallet, error) {
	ret := &Wallet{}
	result := s.db.Where("wallet_id = ?", walletId).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, result.Error
	}
	return ret, nil
}

// ListWallets returns all wallet records ordered by creation time.
func (s *Store) ListWallets() ([]Wallet, error) {
	var ret []Wallet
	result := s.db.Order("created_at").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// DeleteWallet removes a wallet record and its drafts.
func (s *Store) DeleteWallet(walletId string) error {
	if err := s.db.Where("wallet_id = ?", walletId).
		Delete(&TxDraft{}).Error; err != nil {
		return err
	}
	return s.db.Where("wallet_id = ?", walletId).
		Delete(&Wallet{}).Error
}

// AddContact saves an address-book entry, updating an existing one for
// the same address.
func (s *Store) AddContact(address, name, did string) error {
	contact := &Contact{}
	result := s.db.FirstOrCreate(contact, Contact{Address: address})
	if result.Error != nil {
		return fmt.Errorf("failed to find or create contact: %w", result.Error)
	}
	updates := map[string]interface{}{
		"name": name,
		"did":  did,
	}
	if err := s.db.Model(contact).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	return nil
}

// ListContacts returns the address book ordered by name.
func (s *Store) ListContacts() ([]Contact, error) {
	var ret []Contact
	result := s.db.Order("name").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SaveDraft stores a composed transaction attributes blob for later
// signing.
func (s *Store) SaveDraft(
	walletId string,
	chainId string,
	transType int,
	attributes string,
) (uint, error) {
	draft := &TxDraft{
		WalletId:   walletId,
		ChainId:    chainId,
		TransType:  transType,
		Attributes: attributes,
	}
	if result := s.db.Create(draft); result.Error != nil {
		return 0, result.Error
	}
	return draft.ID, nil
}

// LatestDraft returns the most recent draft for a wallet.
func (s *Store) LatestDraft(walletId string) (*TxDraft, error) {
	ret := &TxDraft{}
	result := s.db.Where("wallet_id = ?", walletId).
		Order("id desc").
		First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, result.Error
	}
	return ret, nil
}

// ListDrafts returns all drafts for a wallet, newest first.
func (s *Store) ListDrafts(walletId string) ([]TxDraft, error) {
	var ret []TxDraft
	result := s.db.Where("wallet_id = ?", walletId).
		Order("id desc").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// DeleteDraft removes a draft after it has been signed and broadcast.
func (s *Store) DeleteDraft(id uint) error {
	return s.db.Delete(&TxDraft{}, id).Error
}
