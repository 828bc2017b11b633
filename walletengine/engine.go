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

// Package walletengine defines the consumed wallet-backend contract. The
// engine owns key custody, UTXO selection, and address derivation; this
// core only asks it for balances and transaction construction.
package walletengine

import (
	"context"
	"errors"
	"fmt"
)

// ChainIdELA is the chain identifier of the main ELA chain.
const ChainIdELA = "ELA"

// TransTypeImpeachmentCRC is the wallet backend's transaction type code
// for a CRC impeachment vote.
const TransTypeImpeachmentCRC = 1004

// FeeReserveSats is held back from the wallet balance to cover the
// network fee; vote totals may only spend what remains.
const FeeReserveSats int64 = 1_000_000

var (
	ErrNoSuchWallet      = errors.New("no such wallet")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// MalformedVotesError reports a votes or unactive-votes payload the
// engine could not accept.
type MalformedVotesError struct {
	Reason string
}

func (e *MalformedVotesError) Error() string {
	return fmt.Sprintf("malformed votes: %s", e.Reason)
}

// WalletEngine is the consumed wallet-backend contract.
// CreateImpeachmentCRCTransaction is pure construction: it performs no
// network I/O and broadcasts nothing. The returned attributes blob is an
// opaque serialized payload consumed by the transfer confirmation screen.
type WalletEngine interface {
	GetBalance(
		ctx context.Context,
		walletId string,
		chainId string,
	) (int64, error)
	CreateImpeachmentCRCTransaction(
		ctx context.Context,
		walletId string,
		chainId string,
		fromAddress string,
		votesJson string,
		memo string,
		invalidCandidatesJson string,
	) (string, error)
}
