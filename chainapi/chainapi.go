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

// Package chainapi provides the typed client contract for the chain
// explorer REST API consumed by the impeachment pipeline. All calls are
// idempotent GETs.
package chainapi

import (
	"context"

	"github.com/blinklabs-io/walletkit/vote"
)

// ChainApi is the consumed explorer contract. Implementations must be safe
// for concurrent use.
type ChainApi interface {
	// GetCouncilInfo returns the detail record for a single council member
	GetCouncilInfo(
		ctx context.Context,
		id string,
		did string,
	) (*CouncilMember, error)
	// GetCrList returns the CR candidate catalogue
	GetCrList(
		ctx context.Context,
		page int,
		pageSize int,
		state string,
	) ([]vote.Candidate, error)
	// GetDepositVoteList returns the deposit (DPoS) producer catalogue
	GetDepositVoteList(
		ctx context.Context,
		page string,
		state string,
	) ([]vote.Producer, error)
	// GetVoteInfo returns the raw vote-info JSON for a wallet. The body is
	// returned verbatim so that field order within vote entries survives
	GetVoteInfo(
		ctx context.Context,
		walletId string,
	) (string, error)
}

// Term is an opaque performance-record entry for a council member,
// displayed as-is.
type Term struct {
	Id        string `json:"id"`
	Title     string `json:"title"`
	DidName   string `json:"didName"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"createdAt"`
}

// CouncilMember is the detail record for an elected council member.
// Immutable once fetched for a given screen.
type CouncilMember struct {
	Did                     string  `json:"did"`
	Cid                     string  `json:"cid"`
	DidName                 string  `json:"didName"`
	Avatar                  string  `json:"avatar"`
	Location                int     `json:"location"`
	Address                 string  `json:"address"`
	Introduction            string  `json:"introduction"`
	ImpeachmentVotes        int64   `json:"impeachmentVotes"`
	ImpeachmentThroughVotes int64   `json:"impeachmentThroughVotes"`
	ImpeachmentRatio        float64 `json:"impeachmentRatio"`
	Term                    []Term  `json:"term"`
}
