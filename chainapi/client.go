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

package chainapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/walletkit/vote"
)

// maxResponseBytes limits JSON API responses to 10 MiB to prevent OOM
// from a malicious or misconfigured explorer.
const maxResponseBytes = 10 << 20

// apiResponse is the explorer's response envelope.
type apiResponse struct {
	Message      string          `json:"message"`
	Data         json.RawMessage `json:"data"`
	ExceptionMsg any             `json:"exceptionMsg"`
}

// rpcData is the JSON-RPC style inner wrapper carried by the list
// endpoints.
type rpcData struct {
	Error   json.RawMessage `json:"error"`
	Jsonrpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
}

type crListResult struct {
	Crcandidatesinfo []vote.Candidate `json:"crcandidatesinfo"`
	Totalvotes       string           `json:"totalvotes"`
	Totalcounts      int              `json:"totalcounts"`
}

type depositListResult struct {
	Producers   []vote.Producer `json:"producers"`
	Totalvotes  string          `json:"totalvotes"`
	Totalcounts int             `json:"totalcounts"`
}

// Client is an HTTP client for the chain explorer REST API. It implements
// the ChainApi contract.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption is a functional option for configuring a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom *http.Client for the explorer client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRequestTimeout sets the per-request timeout. The default is 30
// seconds.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates an explorer API client. The baseURL should be the
// root of the explorer API (e.g. "https://unionsquare.elastos.org").
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetCouncilInfo retrieves the detail record for a single council member.
// Corresponds to GET /api/council/information.
func (c *Client) GetCouncilInfo(
	ctx context.Context,
	id string,
	did string,
) (*CouncilMember, error) {
	query := url.Values{}
	query.Set("id", id)
	query.Set("did", did)
	body, err := c.doGet(ctx, "/api/council/information", query)
	if err != nil {
		return nil, err
	}
	var member CouncilMember
	if err := json.Unmarshal(body, &member); err != nil {
		return nil, &DecodeError{
			Err: fmt.Errorf("decoding council info: %w", err),
		}
	}
	return &member, nil
}

// GetCrList retrieves the CR candidate catalogue. Corresponds to
// GET /api/dposnoderpc/check/listcrcandidates.
func (c *Client) GetCrList(
	ctx context.Context,
	page int,
	pageSize int,
	state string,
) ([]vote.Candidate, error) {
	query := url.Values{}
	query.Set("pageNum", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(pageSize))
	query.Set("state", state)
	body, err := c.doGet(
		ctx,
		"/api/dposnoderpc/check/listcrcandidates",
		query,
	)
	if err != nil {
		return nil, err
	}
	result, err := decodeRPCResult[crListResult](body)
	if err != nil {
		return nil, err
	}
	return result.Crcandidatesinfo, nil
}

// GetDepositVoteList retrieves the deposit producer catalogue.
// Corresponds to GET /api/dposnoderpc/check/listdepositvote.
func (c *Client) GetDepositVoteList(
	ctx context.Context,
	page string,
	state string,
) ([]vote.Producer, error) {
	query := url.Values{}
	query.Set("pageNum", page)
	query.Set("state", state)
	body, err := c.doGet(
		ctx,
		"/api/dposnoderpc/check/listdepositvote",
		query,
	)
	if err != nil {
		return nil, err
	}
	result, err := decodeRPCResult[depositListResult](body)
	if err != nil {
		return nil, err
	}
	return result.Producers, nil
}

// GetVoteInfo retrieves the raw vote-info JSON for a wallet. The body is
// returned verbatim. Corresponds to GET /api/dposnoderpc/check/getvoteinfo.
func (c *Client) GetVoteInfo(
	ctx context.Context,
	walletId string,
) (string, error) {
	query := url.Values{}
	query.Set("walletId", walletId)
	body, err := c.doGet(
		ctx,
		"/api/dposnoderpc/check/getvoteinfo",
		query,
	)
	if err != nil {
		return "", err
	}
	// The envelope may carry the vote info either as a JSON string or as
	// an inline array
	var asString string
	if err := json.Unmarshal(body, &asString); err == nil {
		return asString, nil
	}
	return string(body), nil
}

// doGet performs an HTTP GET, unwraps the response envelope, and returns
// the raw data payload.
func (c *Client) doGet(
	ctx context.Context,
	path string,
	query url.Values,
) (json.RawMessage, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		reqURL,
		nil,
	)
	if err != nil {
		return nil, &NetworkError{
			Err: fmt.Errorf("creating request: %w", err),
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	if resp == nil || resp.Body == nil {
		return nil, &NetworkError{
			Err: errors.New("nil response from server"),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(
			io.LimitReader(resp.Body, 1024),
		)
		return nil, &RemoteError{
			Code:    resp.StatusCode,
			Message: strings.TrimSpace(string(bodyBytes)),
		}
	}

	bodyBytes, err := io.ReadAll(
		io.LimitReader(resp.Body, maxResponseBytes),
	)
	if err != nil {
		return nil, &NetworkError{
			Err: fmt.Errorf("reading response: %w", err),
		}
	}
	var envelope apiResponse
	if err := json.Unmarshal(bodyBytes, &envelope); err != nil {
		return nil, &DecodeError{
			Err: fmt.Errorf("decoding response envelope: %w", err),
		}
	}
	if envelope.ExceptionMsg != nil {
		return nil, &RemoteError{
			Code:    resp.StatusCode,
			Message: fmt.Sprintf("%v", envelope.ExceptionMsg),
		}
	}
	if len(envelope.Data) == 0 {
		return nil, &DecodeError{
			Err: errors.New("response envelope has no data"),
		}
	}
	return envelope.Data, nil
}

// decodeRPCResult unwraps the JSON-RPC style inner wrapper of the list
// endpoints and decodes its result.
func decodeRPCResult[T any](data json.RawMessage) (*T, error) {
	var inner rpcData
	if err := json.Unmarshal(data, &inner); err != nil {
		return nil, &DecodeError{
			Err: fmt.Errorf("decoding rpc wrapper: %w", err),
		}
	}
	if len(inner.Error) > 0 && string(inner.Error) != "null" {
		return nil, &RemoteError{
			Code:    http.StatusOK,
			Message: string(inner.Error),
		}
	}
	if len(inner.Result) == 0 {
		return nil, &DecodeError{
			Err: errors.New("rpc wrapper has no result"),
		}
	}
	var result T
	if err := json.Unmarshal(inner.Result, &result); err != nil {
		return nil, &DecodeError{
			Err: fmt.Errorf("decoding rpc result: %w", err),
		}
	}
	return &result, nil
}
