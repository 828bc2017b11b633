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

package walletengine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"
)

// LocalEngine is an in-process reference implementation of the
// WalletEngine contract. Balances are held in memory; the attributes blob
// is assembled deterministically so the transfer screen receives the
// exact field order every time. Signing stays out of scope: the blob
// carries everything the signer needs but no key material.
type LocalEngine struct {
	balances map[string]map[string]int64
	logger   *slog.Logger
	mu       sync.RWMutex
}

// LocalEngineConfig holds configuration for a LocalEngine.
type LocalEngineConfig struct {
	Logger *slog.Logger
}

// NewLocalEngine creates a LocalEngine with no wallets.
func NewLocalEngine(cfg LocalEngineConfig) *LocalEngine {
	logger := cfg.Logger
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &LocalEngine{
		balances: make(map[string]map[string]int64),
		logger:   logger,
	}
}

// SetBalance records the balance (in sats) for a wallet on a chain,
// creating the wallet if needed.
func (e *LocalEngine) SetBalance(walletId, chainId string, sats int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.balances[walletId]; !ok {
		e.balances[walletId] = make(map[string]int64)
	}
	e.balances[walletId][chainId] = sats
}

// GetBalance returns the wallet's balance in sats.
func (e *LocalEngine) GetBalance(
	_ context.Context,
	walletId string,
	chainId string,
) (int64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	chains, ok := e.balances[walletId]
	if !ok {
		return 0, ErrNoSuchWallet
	}
	return chains[chainId], nil
}

// txAttributes is the transaction-attributes blob handed to the transfer
// screen. Field order is fixed by struct order.
type txAttributes struct {
	TransType         int             `json:"TransType"`
	ChainId           string          `json:"ChainID"`
	From              string          `json:"From,omitempty"`
	Votes             json.RawMessage `json:"Votes"`
	Memo              string          `json:"Memo,omitempty"`
	InvalidCandidates json.RawMessage `json:"InvalidCandidates"`
}

// CreateImpeachmentCRCTransaction validates the vote payloads and
// assembles the serialized transaction-attributes blob. No network I/O
// and no broadcast.
func (e *LocalEngine) CreateImpeachmentCRCTransaction(
	_ context.Context,
	walletId string,
	chainId string,
	fromAddress string,
	votesJson string,
	memo string,
	invalidCandidatesJson string,
) (string, error) {
	e.mu.RLock()
	chains, ok := e.balances[walletId]
	var balance int64
	if ok {
		balance = chains[chainId]
	}
	e.mu.RUnlock()
	if !ok {
		return "", ErrNoSuchWallet
	}

	total, err := validateVotes(votesJson)
	if err != nil {
		return "", err
	}
	available := new(big.Int).Sub(
		big.NewInt(balance),
		big.NewInt(FeeReserveSats),
	)
	if total.Cmp(available) > 0 {
		return "", ErrInsufficientFunds
	}
	var invalids []json.RawMessage
	if err := json.Unmarshal(
		[]byte(invalidCandidatesJson),
		&invalids,
	); err != nil {
		return "", &MalformedVotesError{
			Reason: fmt.Sprintf(
				"invalid candidates payload is not a JSON array: %s",
				err,
			),
		}
	}

	attrs, err := json.Marshal(txAttributes{
		TransType:         TransTypeImpeachmentCRC,
		ChainId:           chainId,
		From:              fromAddress,
		Votes:             json.RawMessage(votesJson),
		Memo:              memo,
		InvalidCandidates: json.RawMessage(invalidCandidatesJson),
	})
	if err != nil {
		return "", fmt.Errorf("assembling attributes: %w", err)
	}
	e.logger.Debug(
		"built impeachment transaction attributes",
		"component", "walletengine",
		"wallet", walletId,
		"chain", chainId,
	)
	return string(attrs), nil
}

// validateVotes checks that the votes payload is a single-key object
// whose value is a positive integer sats string, and returns the total
// vote amount.
func validateVotes(votesJson string) (*big.Int, error) {
	var votes map[string]string
	if err := json.Unmarshal([]byte(votesJson), &votes); err != nil {
		return nil, &MalformedVotesError{
			Reason: fmt.Sprintf("votes payload is not an object: %s", err),
		}
	}
	if len(votes) != 1 {
		return nil, &MalformedVotesError{
			Reason: fmt.Sprintf(
				"expected exactly one vote target, got %d",
				len(votes),
			),
		}
	}
	total := new(big.Int)
	for target, amount := range votes {
		if target == "" {
			return nil, &MalformedVotesError{
				Reason: "empty vote target",
			}
		}
		value, ok := new(big.Int).SetString(amount, 10)
		if !ok {
			return nil, &MalformedVotesError{
				Reason: fmt.Sprintf(
					"vote amount %q is not an integer",
					amount,
				),
			}
		}
		if value.Sign() <= 0 {
			return nil, &MalformedVotesError{
				Reason: fmt.Sprintf(
					"vote amount %q is not positive",
					amount,
				),
			}
		}
		total.Add(total, value)
	}
	return total, nil
}
