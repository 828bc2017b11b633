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
	"bytes"
	"fmt"
)

// Category identifies the source of an UnactiveVoteRecord. The
// accumulator holds at most one record per category.
type Category string

const (
	CategoryCRCandidates     Category = "CRCandidates"
	CategoryCRCurrentVote    Category = "CRCurrentVote"
	CategoryDepositProducers Category = "DepositProducers"
)

// UnactiveVoteRecord is a serialized JSON fragment describing votes that
// must be preserved across the impeachment submission. The payload is
// carried as raw bytes so field order is never disturbed between the
// server and the wallet backend.
type UnactiveVoteRecord struct {
	Category Category
	payload  []byte
}

// NewUnactiveVoteRecord builds a record from a pre-serialized payload.
func NewUnactiveVoteRecord(
	category Category,
	payload []byte,
) UnactiveVoteRecord {
	return UnactiveVoteRecord{
		Category: category,
		payload:  payload,
	}
}

// MarshalJSON returns the stored payload verbatim.
func (r UnactiveVoteRecord) MarshalJSON() ([]byte, error) {
	if len(r.payload) == 0 {
		return nil, fmt.Errorf(
			"unactive vote record %s has no payload",
			r.Category,
		)
	}
	return r.payload, nil
}

// JSON returns the record payload as a string.
func (r UnactiveVoteRecord) JSON() string {
	return string(r.payload)
}

// categoryOrder fixes the serialization order so the emitted array does
// not depend on which source query resolved first.
var categoryOrder = []Category{
	CategoryCRCandidates,
	CategoryCRCurrentVote,
	CategoryDepositProducers,
}

// UnactiveVotes is the accumulator of unactive vote records, keyed by
// category. At most one record is held per category; a later Put for the
// same category replaces the earlier record.
type UnactiveVotes struct {
	records map[Category]UnactiveVoteRecord
}

// NewUnactiveVotes returns an empty accumulator.
func NewUnactiveVotes() *UnactiveVotes {
	return &UnactiveVotes{
		records: make(map[Category]UnactiveVoteRecord),
	}
}

// Put inserts or replaces the record for its category.
func (u *UnactiveVotes) Put(rec UnactiveVoteRecord) {
	u.records[rec.Category] = rec
}

// Len returns the number of records held.
func (u *UnactiveVotes) Len() int {
	return len(u.records)
}

// Categories returns the held categories in serialization order.
func (u *UnactiveVotes) Categories() []Category {
	ret := make([]Category, 0, len(u.records))
	for _, category := range categoryOrder {
		if _, ok := u.records[category]; ok {
			ret = append(ret, category)
		}
	}
	return ret
}

// Record returns the record for a category, if present.
func (u *UnactiveVotes) Record(category Category) (UnactiveVoteRecord, bool) {
	rec, ok := u.records[category]
	return rec, ok
}

// Serialize renders the accumulator as a JSON array in the fixed category
// order. An empty accumulator serializes as "[]".
func (u *UnactiveVotes) Serialize() string {
	var buf bytes.Buffer
	buf.WriteByte('[')
	first := true
	for _, category := range categoryOrder {
		rec, ok := u.records[category]
		if !ok {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		buf.Write(rec.payload)
		first = false
	}
	buf.WriteByte(']')
	return buf.String()
}

// Reset discards all accumulated records.
func (u *UnactiveVotes) Reset() {
	clear(u.records)
}
