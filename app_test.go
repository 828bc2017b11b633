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

package walletkit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/walletkit/chainapi"
	"github.com/blinklabs-io/walletkit/event"
	"github.com/blinklabs-io/walletkit/impeach"
	"github.com/blinklabs-io/walletkit/vote"
	"github.com/blinklabs-io/walletkit/walletengine"
)

type stubChainApi struct{}

func (s *stubChainApi) GetCouncilInfo(
	_ context.Context,
	_ string,
	_ string,
) (*chainapi.CouncilMember, error) {
	return &chainapi.CouncilMember{
		Did:     "didX",
		Cid:     "cidX",
		DidName: "delta",
	}, nil
}

func (s *stubChainApi) GetCrList(
	_ context.Context,
	_ int,
	_ int,
	_ string,
) ([]vote.Candidate, error) {
	return []vote.Candidate{
		{Did: "did1", State: vote.StateActive},
		{Did: "did2", State: vote.StateCanceled},
	}, nil
}

func (s *stubChainApi) GetDepositVoteList(
	_ context.Context,
	_ string,
	_ string,
) ([]vote.Producer, error) {
	return nil, nil
}

func (s *stubChainApi) GetVoteInfo(
	_ context.Context,
	_ string,
) (string, error) {
	return "[]", nil
}

func TestNewConfigValidation(t *testing.T) {
	_, err := New(NewConfig())
	assert.ErrorContains(t, err, "invalid configuration")

	_, err = New(NewConfig(WithExplorerUrl("http://localhost:8080")))
	assert.NoError(t, err)
}

func TestAppImpeachmentFlow(t *testing.T) {
	engine := walletengine.NewLocalEngine(walletengine.LocalEngineConfig{})
	engine.SetBalance("wallet1", walletengine.ChainIdELA, 25_100_000_000)
	app, err := New(
		NewConfig(
			WithChainApi(&stubChainApi{}),
			WithWalletEngine(engine),
			WithDataDir(t.TempDir()),
		),
	)
	require.NoError(t, err)
	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- app.Run()
	}()
	require.Eventually(
		t,
		app.Ready,
		5*time.Second,
		10*time.Millisecond,
	)

	_, err = app.OpenSession(context.Background(), "5", "didX")
	require.NoError(t, err)
	// Re-open to confirm sessions share the pipeline without error
	s, err := app.OpenSession(context.Background(), "5", "didX")
	require.NoError(t, err)
	member, err := s.Member()
	require.NoError(t, err)
	assert.Equal(t, "delta", member.DidName)

	_, confirmCh := app.EventBus().Subscribe(impeach.TransferConfirmEventType)
	require.NoError(t, s.Impeach("wallet1"))
	app.EventBus().Publish(
		impeach.AmountChosenEventType,
		event.NewEvent(
			impeach.AmountChosenEventType,
			impeach.AmountChosenEvent{Num: "7"},
		),
	)

	select {
	case evt := <-confirmCh:
		confirm, ok := evt.Data.(impeach.TransferConfirmEvent)
		require.True(t, ok)
		assert.Equal(t, "7", confirm.Amount)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for transfer confirm event")
	}

	// The composed transaction is persisted as a draft for signing
	require.Eventually(
		t,
		func() bool {
			draft, err := app.Keystore().LatestDraft("wallet1")
			return err == nil &&
				draft.TransType == walletengine.TransTypeImpeachmentCRC
		},
		5*time.Second,
		10*time.Millisecond,
	)
	draft, err := app.Keystore().LatestDraft("wallet1")
	require.NoError(t, err)
	assert.Contains(t, draft.Attributes, `"Votes":{"cidX":"700000000"}`)
	assert.Contains(
		t,
		draft.Attributes,
		`{"Type":"CRC","Candidates":["did2"]}`,
	)

	require.NoError(t, app.Stop())
	select {
	case err := <-runErrCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for app shutdown")
	}
}
