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

package vote

import (
	"encoding/json"
	"errors"
	"fmt"
)

// voteTypeCRC tags CRC-type entries within a wallet's vote-info blob and
// within unactive-vote payloads handed to the wallet backend.
const voteTypeCRC = "CRC"

// voteTypeDelegate tags deposit (DPoS) producer votes.
const voteTypeDelegate = "Delegate"

// ErrNoCRCVote is returned when a vote-info blob contains no CRC-type
// entry to preserve.
var ErrNoCRCVote = errors.New("vote info contains no CRC entry")

// unactivePayload is the wallet-backend shape of a category record:
// a vote type plus the identifiers whose prior votes must be kept.
// Field order is fixed by struct order and must not change.
type unactivePayload struct {
	Type       string   `json:"Type"`
	Candidates []string `json:"Candidates"`
}

// FromCandidates builds the CRCandidates record from a candidate
// catalogue: the DIDs of every candidate not in Active state, in input
// order. Returns false when every candidate is Active, in which case no
// record is emitted.
func FromCandidates(candidates []Candidate) (UnactiveVoteRecord, bool) {
	var dids []string
	for _, c := range candidates {
		if c.Active() {
			continue
		}
		dids = append(dids, c.Did)
	}
	if len(dids) == 0 {
		return UnactiveVoteRecord{}, false
	}
	payload, err := json.Marshal(unactivePayload{
		Type:       voteTypeCRC,
		Candidates: dids,
	})
	if err != nil {
		// Marshaling a struct of strings cannot fail
		return UnactiveVoteRecord{}, false
	}
	return NewUnactiveVoteRecord(CategoryCRCandidates, payload), true
}

// FromProducers builds the DepositProducers record from a producer
// catalogue: the owner public keys of every producer not in Active state,
// in input order. Returns false when there is nothing to preserve.
func FromProducers(producers []Producer) (UnactiveVoteRecord, bool) {
	var keys []string
	for _, p := range producers {
		if p.IsActive() {
			continue
		}
		keys = append(keys, p.Ownerpublickey)
	}
	if len(keys) == 0 {
		return UnactiveVoteRecord{}, false
	}
	payload, err := json.Marshal(unactivePayload{
		Type:       voteTypeDelegate,
		Candidates: keys,
	})
	if err != nil {
		return UnactiveVoteRecord{}, false
	}
	return NewUnactiveVoteRecord(CategoryDepositProducers, payload), true
}

// ExtractCRLastVote locates the most recent CRC-type entry in a wallet's
// raw vote-info JSON (an array of vote entries) and emits it verbatim as
// the CRCurrentVote record. The entry bytes are passed through untouched
// so the wallet backend sees the exact server encoding.
func ExtractCRLastVote(voteInfo string) (UnactiveVoteRecord, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(voteInfo), &entries); err != nil {
		return UnactiveVoteRecord{}, fmt.Errorf(
			"parsing vote info: %w",
			err,
		)
	}
	for i := len(entries) - 1; i >= 0; i-- {
		voteType, err := peekVoteType(entries[i])
		if err != nil {
			return UnactiveVoteRecord{}, fmt.Errorf(
				"parsing vote info entry %d: %w",
				i,
				err,
			)
		}
		if voteType == voteTypeCRC {
			return NewUnactiveVoteRecord(
				CategoryCRCurrentVote,
				[]byte(entries[i]),
			), nil
		}
	}
	return UnactiveVoteRecord{}, ErrNoCRCVote
}
