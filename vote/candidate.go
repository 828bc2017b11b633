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

// Package vote implements the candidate/producer data model and the
// "unactive vote" aggregation used when composing an impeachment
// transaction. Votes already cast against parties that are no longer
// Active must be preserved across the new submission so the wallet
// backend does not zero them out.
package vote

import (
	"encoding/json"
	"slices"

	"github.com/blinklabs-io/walletkit/fixedpoint"
)

// State is the registration state of a candidate or producer as reported
// by the explorer.
type State string

const (
	StatePending  State = "Pending"
	StateActive   State = "Active"
	StateInactive State = "Inactive"
	StateCanceled State = "Canceled"
	StateReturned State = "Returned"
	StateIllegal  State = "Illegal"
)

// Candidate is a CR candidate entry from the explorer catalogue. Identity
// is by DID. UI concerns such as selection flags live in the session
// layer, not here.
type Candidate struct {
	Code     string `json:"code"`
	Did      string `json:"did"`
	Nickname string `json:"nickname"`
	Url      string `json:"url"`
	Location int64  `json:"location"`
	State    State  `json:"state"`
	Votes    string `json:"votes"`
	Index    int64  `json:"index"`
	Voterate string `json:"voterate,omitempty"`
}

// Equal reports whether two candidates refer to the same identity. DID is
// the canonical key.
func (c Candidate) Equal(o Candidate) bool {
	return c.Did == o.Did
}

// Active reports whether the candidate is in the Active state.
func (c Candidate) Active() bool {
	return c.State == StateActive
}

// Producer is a deposit (DPoS) producer entry from the explorer catalogue.
type Producer struct {
	Ownerpublickey string `json:"ownerpublickey"`
	Nodepublickey  string `json:"nodepublickey"`
	Nickname       string `json:"nickname"`
	Url            string `json:"url"`
	Location       int64  `json:"location"`
	Active         int    `json:"active"`
	Votes          string `json:"votes"`
	Netaddress     string `json:"netaddress"`
	State          State  `json:"state"`
	Registerheight int64  `json:"registerheight"`
	Cancelheight   int64  `json:"cancelheight"`
	Inactiveheight int64  `json:"inactiveheight"`
	Illegalheight  int64  `json:"illegalheight"`
	Index          int64  `json:"index"`
}

// IsActive reports whether the producer is in the Active state.
func (p Producer) IsActive() bool {
	return p.State == StateActive
}

// SortCandidatesByVotes sorts candidates by vote amount, descending. The
// sort is stable so server order survives among ties. Unparseable vote
// amounts sort as zero.
func SortCandidatesByVotes(candidates []Candidate) {
	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		av, err := fixedpoint.FromDecimal(a.Votes)
		if err != nil {
			av = fixedpoint.Fixed{}
		}
		bv, err := fixedpoint.FromDecimal(b.Votes)
		if err != nil {
			bv = fixedpoint.Fixed{}
		}
		return bv.Cmp(av)
	})
}

// voteEntry is the minimal shape peeked from a raw vote-info entry to
// identify its vote type.
type voteEntry struct {
	Type string `json:"Type"`
}

// peekVoteType extracts the Type field from a raw vote-info entry.
func peekVoteType(raw json.RawMessage) (string, error) {
	var entry voteEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return "", err
	}
	return entry.Type, nil
}
