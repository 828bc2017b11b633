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

package vote_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/walletkit/vote"
)

func TestFromCandidates(t *testing.T) {
	candidates := []vote.Candidate{
		{Did: "did1", State: vote.StateActive, Votes: "100"},
		{Did: "did2", State: vote.StateInactive, Votes: "50"},
		{Did: "did3", State: vote.StateCanceled, Votes: "10"},
		{Did: "did4", State: vote.StateActive, Votes: "5"},
	}
	rec, ok := vote.FromCandidates(candidates)
	require.True(t, ok)
	assert.Equal(t, vote.CategoryCRCandidates, rec.Category)
	// Non-Active subset in input order
	assert.JSONEq(
		t,
		`{"Type":"CRC","Candidates":["did2","did3"]}`,
		rec.JSON(),
	)
	// Field order is part of the wire contract
	assert.Equal(
		t,
		`{"Type":"CRC","Candidates":["did2","did3"]}`,
		rec.JSON(),
	)
}

func TestFromCandidatesAllActive(t *testing.T) {
	candidates := []vote.Candidate{
		{Did: "did1", State: vote.StateActive},
		{Did: "did2", State: vote.StateActive},
	}
	_, ok := vote.FromCandidates(candidates)
	assert.False(t, ok)
}

func TestFromCandidatesEmpty(t *testing.T) {
	_, ok := vote.FromCandidates(nil)
	assert.False(t, ok)
}

func TestFromProducers(t *testing.T) {
	producers := []vote.Producer{
		{Ownerpublickey: "key1", State: vote.StateCanceled},
		{Ownerpublickey: "key2", State: vote.StateActive},
		{Ownerpublickey: "key3", State: vote.StateIllegal},
	}
	rec, ok := vote.FromProducers(producers)
	require.True(t, ok)
	assert.Equal(t, vote.CategoryDepositProducers, rec.Category)
	assert.Equal(
		t,
		`{"Type":"Delegate","Candidates":["key1","key3"]}`,
		rec.JSON(),
	)
}

func TestExtractCRLastVote(t *testing.T) {
	voteInfo := `[` +
		`{"Type":"Delegate","Votes":{"key1":"100"}},` +
		`{"Type":"CRC","Votes":{"did1":"10"}},` +
		`{"Type":"CRC","Votes":{"did2":"20","did1":"5"}}` +
		`]`
	rec, err := vote.ExtractCRLastVote(voteInfo)
	require.NoError(t, err)
	assert.Equal(t, vote.CategoryCRCurrentVote, rec.Category)
	// The last CRC entry must come through byte-for-byte
	assert.Equal(
		t,
		`{"Type":"CRC","Votes":{"did2":"20","did1":"5"}}`,
		rec.JSON(),
	)
}

func TestExtractCRLastVoteNoCRCEntry(t *testing.T) {
	_, err := vote.ExtractCRLastVote(
		`[{"Type":"Delegate","Votes":{"key1":"100"}}]`,
	)
	assert.ErrorIs(t, err, vote.ErrNoCRCVote)
}

func TestExtractCRLastVoteMalformed(t *testing.T) {
	_, err := vote.ExtractCRLastVote(`{"not":"an array"}`)
	assert.Error(t, err)
}

func TestUnactiveVotesOrderingAndReplacement(t *testing.T) {
	u := vote.NewUnactiveVotes()
	assert.Equal(t, "[]", u.Serialize())

	// Serialization order is the fixed category order, not Put order
	u.Put(vote.NewUnactiveVoteRecord(
		vote.CategoryDepositProducers,
		[]byte(`{"Type":"Delegate","Candidates":["key1"]}`),
	))
	u.Put(vote.NewUnactiveVoteRecord(
		vote.CategoryCRCandidates,
		[]byte(`{"Type":"CRC","Candidates":["did1"]}`),
	))
	assert.Equal(t, 2, u.Len())
	assert.Equal(
		t,
		[]vote.Category{
			vote.CategoryCRCandidates,
			vote.CategoryDepositProducers,
		},
		u.Categories(),
	)
	assert.Equal(
		t,
		`[{"Type":"CRC","Candidates":["did1"]},{"Type":"Delegate","Candidates":["key1"]}]`,
		u.Serialize(),
	)

	// A later record of the same category replaces the earlier one
	u.Put(vote.NewUnactiveVoteRecord(
		vote.CategoryDepositProducers,
		[]byte(`{"Type":"Delegate","Candidates":["key2"]}`),
	))
	assert.Equal(t, 2, u.Len())
	assert.Equal(
		t,
		`[{"Type":"CRC","Candidates":["did1"]},{"Type":"Delegate","Candidates":["key2"]}]`,
		u.Serialize(),
	)

	u.Reset()
	assert.Zero(t, u.Len())
	assert.Equal(t, "[]", u.Serialize())
}

func TestSortCandidatesByVotes(t *testing.T) {
	candidates := []vote.Candidate{
		{Did: "a", Votes: "5"},
		{Did: "b", Votes: "100.5"},
		{Did: "c", Votes: "5"},
		{Did: "d", Votes: "bogus"},
	}
	vote.SortCandidatesByVotes(candidates)
	assert.Equal(t, "b", candidates[0].Did)
	// Stable: equal-vote entries keep input order
	assert.Equal(t, "a", candidates[1].Did)
	assert.Equal(t, "c", candidates[2].Did)
	assert.Equal(t, "d", candidates[3].Did)
}

func TestCandidateIdentity(t *testing.T) {
	a := vote.Candidate{Did: "did1", Nickname: "x"}
	b := vote.Candidate{Did: "did1", Nickname: "y"}
	c := vote.Candidate{Did: "did2", Nickname: "x"}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}
