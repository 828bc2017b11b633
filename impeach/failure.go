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

package impeach

import (
	"context"
	"errors"

	"github.com/blinklabs-io/walletkit/chainapi"
)

// FailureKind classifies why a composition attempt was aborted.
type FailureKind string

const (
	// FailureNetwork is a transport failure, retryable by the user
	FailureNetwork FailureKind = "Network"
	// FailureRemote is a server-side rejection, surfaced verbatim
	FailureRemote FailureKind = "Remote"
	// FailureDecode is a malformed server response
	FailureDecode FailureKind = "Decode"
	// FailureTimeout is a remote call exceeding its deadline
	FailureTimeout FailureKind = "Timeout"
	// FailureInsufficientBalance means the wallet cannot cover any
	// impeachment amount after the fee reserve
	FailureInsufficientBalance FailureKind = "InsufficientBalance"
	// FailureWalletBuild is a transaction construction failure
	FailureWalletBuild FailureKind = "WalletBuild"
	// FailureStateViolation is an event that arrived in a state that
	// cannot consume it
	FailureStateViolation FailureKind = "StateViolation"
)

// classifyEngineErr maps a wallet engine error onto a failure kind.
func classifyEngineErr(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	return FailureWalletBuild
}

// classifyChainErr maps a ChainApi error onto a failure kind.
func classifyChainErr(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var remoteErr *chainapi.RemoteError
	if errors.As(err, &remoteErr) {
		return FailureRemote
	}
	var decodeErr *chainapi.DecodeError
	if errors.As(err, &decodeErr) {
		return FailureDecode
	}
	return FailureNetwork
}
