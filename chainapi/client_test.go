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

package chainapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/walletkit/chainapi"
	"github.com/blinklabs-io/walletkit/vote"
)

func TestGetCouncilInfo(t *testing.T) {
	srv := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/council/information", r.URL.Path)
			assert.Equal(t, "3", r.URL.Query().Get("id"))
			assert.Equal(t, "imX", r.URL.Query().Get("did"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"message": "ok",
				"data": {
					"did": "imX",
					"cid": "icX",
					"didName": "alice",
					"location": 93,
					"impeachmentVotes": 1500,
					"impeachmentThroughVotes": 3000,
					"impeachmentRatio": 0.5,
					"term": [
						{"id": "t1", "title": "proposal 1", "status": "done"}
					]
				},
				"exceptionMsg": null
			}`))
		}),
	)
	defer srv.Close()

	client := chainapi.NewClient(srv.URL)
	member, err := client.GetCouncilInfo(context.Background(), "3", "imX")
	require.NoError(t, err)
	assert.Equal(t, "icX", member.Cid)
	assert.Equal(t, "alice", member.DidName)
	assert.Equal(t, int64(1500), member.ImpeachmentVotes)
	assert.InDelta(t, 0.5, member.ImpeachmentRatio, 0.0001)
	require.Len(t, member.Term, 1)
	assert.Equal(t, "proposal 1", member.Term[0].Title)
}

func TestGetCrList(t *testing.T) {
	srv := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(
				t,
				"/api/dposnoderpc/check/listcrcandidates",
				r.URL.Path,
			)
			assert.Equal(t, "1", r.URL.Query().Get("pageNum"))
			assert.Equal(t, "1000", r.URL.Query().Get("pageSize"))
			assert.Equal(t, "all", r.URL.Query().Get("state"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"message": "Query successful ^_^",
				"data": {
					"error": null,
					"id": null,
					"jsonrpc": "2.0",
					"result": {
						"crcandidatesinfo": [
							{
								"code": "2102c6",
								"did": "im4yH",
								"nickname": "raocr",
								"url": "http://example.com/",
								"location": 93,
								"state": "Active",
								"votes": "0",
								"index": 0
							},
							{
								"code": "2103aa",
								"did": "iZZZZ",
								"nickname": "gone",
								"state": "Canceled",
								"votes": "12.5",
								"index": 1
							}
						],
						"totalvotes": "12.5",
						"totalcounts": 2
					}
				},
				"exceptionMsg": null
			}`))
		}),
	)
	defer srv.Close()

	client := chainapi.NewClient(srv.URL)
	candidates, err := client.GetCrList(context.Background(), 1, 1000, "all")
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "im4yH", candidates[0].Did)
	assert.Equal(t, vote.StateActive, candidates[0].State)
	assert.Equal(t, vote.StateCanceled, candidates[1].State)
	assert.Equal(t, "12.5", candidates[1].Votes)
}

func TestGetDepositVoteList(t *testing.T) {
	srv := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"message": "ok",
				"data": {
					"error": null,
					"jsonrpc": "2.0",
					"result": {
						"producers": [
							{
								"ownerpublickey": "key1",
								"nickname": "node1",
								"state": "Canceled",
								"votes": "99",
								"index": 0
							}
						],
						"totalvotes": "99",
						"totalcounts": 1
					}
				},
				"exceptionMsg": null
			}`))
		}),
	)
	defer srv.Close()

	client := chainapi.NewClient(srv.URL)
	producers, err := client.GetDepositVoteList(
		context.Background(),
		"1",
		"all",
	)
	require.NoError(t, err)
	require.Len(t, producers, 1)
	assert.Equal(t, "key1", producers[0].Ownerpublickey)
	assert.Equal(t, vote.StateCanceled, producers[0].State)
}

func TestGetVoteInfo(t *testing.T) {
	voteInfo := `[{"Type":"CRC","Votes":{"did1":"10"}}]`
	srv := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "w1", r.URL.Query().Get("walletId"))
			w.Header().Set("Content-Type", "application/json")
			// Envelope carries the vote info as a JSON string
			_, _ = w.Write([]byte(
				`{"message":"ok","data":"[{\"Type\":\"CRC\",\"Votes\":{\"did1\":\"10\"}}]","exceptionMsg":null}`,
			))
		}),
	)
	defer srv.Close()

	client := chainapi.NewClient(srv.URL)
	got, err := client.GetVoteInfo(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, voteInfo, got)
}

func TestGetVoteInfoInlineArray(t *testing.T) {
	srv := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(
				`{"message":"ok","data":[{"Type":"CRC","Votes":{"did1":"10"}}],"exceptionMsg":null}`,
			))
		}),
	)
	defer srv.Close()

	client := chainapi.NewClient(srv.URL)
	got, err := client.GetVoteInfo(context.Background(), "w1")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"Type":"CRC","Votes":{"did1":"10"}}]`, got)
}

func TestRemoteError(t *testing.T) {
	srv := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}),
	)
	defer srv.Close()

	client := chainapi.NewClient(srv.URL)
	_, err := client.GetCrList(context.Background(), 1, 1000, "all")
	var remoteErr *chainapi.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusBadGateway, remoteErr.Code)
	assert.Equal(t, "boom", remoteErr.Message)
}

func TestExceptionMsgSurfacesAsRemoteError(t *testing.T) {
	srv := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(
				`{"message":"nope","data":null,"exceptionMsg":"wallet not synced"}`,
			))
		}),
	)
	defer srv.Close()

	client := chainapi.NewClient(srv.URL)
	_, err := client.GetVoteInfo(context.Background(), "w1")
	var remoteErr *chainapi.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "wallet not synced", remoteErr.Message)
}

func TestDecodeError(t *testing.T) {
	srv := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`this is not json`))
		}),
	)
	defer srv.Close()

	client := chainapi.NewClient(srv.URL)
	_, err := client.GetCrList(context.Background(), 1, 1000, "all")
	var decodeErr *chainapi.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused

	client := chainapi.NewClient(srv.URL)
	_, err := client.GetVoteInfo(context.Background(), "w1")
	var netErr *chainapi.NetworkError
	assert.ErrorAs(t, err, &netErr)
}
