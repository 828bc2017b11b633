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

// Package impeach implements the impeachment-vote composition state
// machine. On submit it fans out to the producer catalogue, the CR
// candidate catalogue, and the wallet balance, merges the results into
// the "other unactive votes" accumulator, and asks the wallet engine to
// build the transaction once the user-picked amount and all fan-out
// results have arrived.
package impeach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/blinklabs-io/walletkit/chainapi"
	"github.com/blinklabs-io/walletkit/event"
	"github.com/blinklabs-io/walletkit/fixedpoint"
	"github.com/blinklabs-io/walletkit/vote"
	"github.com/blinklabs-io/walletkit/walletengine"
)

// FeeReserveSats is held back from the wallet balance when computing the
// maximum impeachable amount.
const FeeReserveSats = walletengine.FeeReserveSats

const (
	crListPage     = 1
	crListPageSize = 1000
	depositPage    = "1"
	listStateAll   = "all"

	voteInfoTagCRC         = "CRC"
	voteInfoTagImpeachment = "CRCImpeachment"

	defaultRequestTimeout = 30 * time.Second
)

// State is the coordinator's composition phase.
type State int

const (
	StateIdle State = iota
	StateFanOut
	StateAwaitVoteInfo
	StateBuilding
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateFanOut:
		return "FanOut"
	case StateAwaitVoteInfo:
		return "AwaitVoteInfo"
	case StateBuilding:
		return "Building"
	case StateReady:
		return "Ready"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// MaxImpeachAmount converts a wallet balance in sats to the maximum
// impeachable ELA amount: max(0, (balance - feeReserve) / 10^8).
func MaxImpeachAmount(balanceSats int64) fixedpoint.Fixed {
	remaining := fixedpoint.FromSats(balanceSats).
		Sub(fixedpoint.FromSats(FeeReserveSats))
	if remaining.Sign() <= 0 {
		return fixedpoint.Fixed{}
	}
	return remaining
}

// CoordinatorConfig holds dependencies and tuning for a Coordinator.
type CoordinatorConfig struct {
	ChainApi       chainapi.ChainApi
	Engine         walletengine.WalletEngine
	EventBus       *event.EventBus
	Logger         *slog.Logger
	PromRegistry   prometheus.Registerer
	RequestTimeout time.Duration
}

// Coordinator owns the impeachment composition pipeline for one screen.
// All state mutations happen on a single internal goroutine; remote
// results and bus events are posted to it as messages, so permutations
// of fan-out completion order are handled without locking the state.
type Coordinator struct {
	config  CoordinatorConfig
	logger  *slog.Logger
	metrics struct {
		buildsTotal   prometheus.Counter
		failuresTotal *prometheus.CounterVec
		fanoutSeconds prometheus.Histogram
	}
	ctx       context.Context
	cancel    context.CancelFunc
	msgCh     chan any
	doneCh    chan struct{}
	closeOnce sync.Once
	amountSub event.EventSubscriberId

	// Guarded by stateMu for external readers; written only by the run
	// loop
	stateMu sync.Mutex
	state   State

	// Composition state, owned by the run loop
	walletId      string
	cid           string
	num           string
	maxBalance    fixedpoint.Fixed
	otherUnActive *vote.UnactiveVotes
	pendingFanout int
	pendingCRVote bool
	fanoutStart   time.Time
}

// Internal messages posted to the run loop
type (
	impeachMsg struct {
		walletId string
		cid      string
	}
	depositListMsg struct {
		err       error
		producers []vote.Producer
	}
	crListMsg struct {
		err        error
		candidates []vote.Candidate
	}
	balanceMsg struct {
		err  error
		sats int64
	}
	voteInfoMsg struct {
		tag  string
		info string
		err  error
	}
	amountMsg struct {
		num string
	}
	buildMsg struct {
		attributes string
		err        error
	}
)

// NewCoordinator creates a Coordinator and starts its run loop. Close
// must be called when the owning screen is dismissed.
func NewCoordinator(cfg CoordinatorConfig) (*Coordinator, error) {
	if cfg.ChainApi == nil {
		return nil, errors.New("no chain api provided")
	}
	if cfg.Engine == nil {
		return nil, errors.New("no wallet engine provided")
	}
	if cfg.EventBus == nil {
		return nil, errors.New("no event bus provided")
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		config:        cfg,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		msgCh:         make(chan any, 16),
		doneCh:        make(chan struct{}),
		otherUnActive: vote.NewUnactiveVotes(),
	}
	promautoFactory := promauto.With(cfg.PromRegistry)
	c.metrics.buildsTotal = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "walletkit_impeach_builds_total",
			Help: "impeachment transactions successfully built",
		},
	)
	c.metrics.failuresTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletkit_impeach_failures_total",
			Help: "aborted impeachment compositions by failure kind",
		},
		[]string{"kind"},
	)
	c.metrics.fanoutSeconds = promautoFactory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "walletkit_impeach_fanout_seconds",
			Help:    "time from submit until all fan-out queries resolved",
			Buckets: prometheus.DefBuckets,
		},
	)
	// The amount picked on the vote screen arrives via the event bus
	c.amountSub = cfg.EventBus.SubscribeFunc(
		AmountChosenEventType,
		func(evt event.Event) {
			data, ok := evt.Data.(AmountChosenEvent)
			if !ok {
				return
			}
			c.post(amountMsg{num: data.Num})
		},
	)
	go c.run()
	return c, nil
}

// Impeach starts the composition pipeline against the given vote target.
// It may be called again after a failed or completed run; each call
// restarts the pipeline from scratch.
func (c *Coordinator) Impeach(walletId, cid string) {
	c.post(impeachMsg{walletId: walletId, cid: cid})
}

// State returns the current composition phase.
func (c *Coordinator) State() State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

// Close cancels all in-flight requests and stops the run loop. No
// further events are published after Close returns.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		c.config.EventBus.Unsubscribe(AmountChosenEventType, c.amountSub)
		c.cancel()
		<-c.doneCh
	})
}

func (c *Coordinator) post(msg any) {
	select {
	case c.msgCh <- msg:
	case <-c.ctx.Done():
	}
}

func (c *Coordinator) run() {
	defer close(c.doneCh)
	for {
		select {
		case <-c.ctx.Done():
			return
		case msg := <-c.msgCh:
			c.handle(msg)
		}
	}
}

func (c *Coordinator) setState(state State) {
	c.stateMu.Lock()
	c.state = state
	c.stateMu.Unlock()
}

func (c *Coordinator) handle(msg any) {
	switch m := msg.(type) {
	case impeachMsg:
		c.handleImpeach(m)
	case depositListMsg:
		c.handleDepositList(m)
	case crListMsg:
		c.handleCrList(m)
	case balanceMsg:
		c.handleBalance(m)
	case voteInfoMsg:
		c.handleVoteInfo(m)
	case amountMsg:
		c.handleAmount(m)
	case buildMsg:
		c.handleBuild(m)
	default:
		c.logger.Warn(
			"unknown message type",
			"component", "impeach",
			"message", fmt.Sprintf("%T", msg),
		)
	}
}

func (c *Coordinator) handleImpeach(m impeachMsg) {
	switch c.State() {
	case StateIdle, StateFailed, StateReady:
	default:
		c.dropEvent("impeach", m)
		return
	}
	if m.cid == "" {
		c.fail(FailureStateViolation, errors.New("no vote target selected"))
		return
	}
	c.walletId = m.walletId
	c.cid = m.cid
	c.num = ""
	c.maxBalance = fixedpoint.Fixed{}
	c.otherUnActive.Reset()
	c.pendingFanout = 3
	c.pendingCRVote = false
	c.fanoutStart = time.Now()
	c.setState(StateFanOut)
	c.logger.Info(
		"starting impeachment composition",
		"component", "impeach",
		"wallet", m.walletId,
		"cid", m.cid,
	)
	go func() {
		ctx, cancel := c.callCtx()
		defer cancel()
		producers, err := c.config.ChainApi.GetDepositVoteList(
			ctx,
			depositPage,
			listStateAll,
		)
		c.post(depositListMsg{producers: producers, err: err})
	}()
	go func() {
		ctx, cancel := c.callCtx()
		defer cancel()
		candidates, err := c.config.ChainApi.GetCrList(
			ctx,
			crListPage,
			crListPageSize,
			listStateAll,
		)
		c.post(crListMsg{candidates: candidates, err: err})
	}()
	go func() {
		ctx, cancel := c.callCtx()
		defer cancel()
		sats, err := c.config.Engine.GetBalance(
			ctx,
			m.walletId,
			walletengine.ChainIdELA,
		)
		c.post(balanceMsg{sats: sats, err: err})
	}()
}

func (c *Coordinator) handleDepositList(m depositListMsg) {
	if !c.inFlight() {
		c.dropEvent("deposit list result", m)
		return
	}
	if m.err != nil {
		c.fail(classifyChainErr(m.err), m.err)
		return
	}
	if rec, ok := vote.FromProducers(m.producers); ok {
		c.otherUnActive.Put(rec)
	}
	c.fanoutDone()
}

func (c *Coordinator) handleCrList(m crListMsg) {
	if !c.inFlight() {
		c.dropEvent("cr list result", m)
		return
	}
	if m.err != nil {
		c.fail(classifyChainErr(m.err), m.err)
		return
	}
	if len(m.candidates) > 0 {
		// A populated catalogue carries the unactive candidates; the CR
		// ledger itself is not consulted
		if rec, ok := vote.FromCandidates(m.candidates); ok {
			c.otherUnActive.Put(rec)
		}
	} else {
		// Empty catalogue: query the CR ledger directly to salvage the
		// user's prior CR votes
		c.pendingCRVote = true
		c.setState(StateAwaitVoteInfo)
		c.fetchVoteInfo(voteInfoTagCRC)
	}
	c.fanoutDone()
}

func (c *Coordinator) handleBalance(m balanceMsg) {
	if !c.inFlight() {
		c.dropEvent("balance result", m)
		return
	}
	if m.err != nil {
		c.fail(classifyEngineErr(m.err), m.err)
		return
	}
	maxBalance := MaxImpeachAmount(m.sats)
	if maxBalance.Sign() <= 0 {
		// Surface the zero balance on the picker, then abort: no build
		// call may follow
		c.config.EventBus.Publish(
			AmountPickerEventType,
			event.NewEvent(
				AmountPickerEventType,
				AmountPickerEvent{
					MaxBalance: "0",
					Type:       TypeImpeachmentCRC,
				},
			),
		)
		c.fail(
			FailureInsufficientBalance,
			fmt.Errorf(
				"balance %d sats cannot cover the fee reserve",
				m.sats,
			),
		)
		return
	}
	c.maxBalance = maxBalance
	c.config.EventBus.Publish(
		AmountPickerEventType,
		event.NewEvent(
			AmountPickerEventType,
			AmountPickerEvent{
				MaxBalance: maxBalance.String(),
				Type:       TypeImpeachmentCRC,
			},
		),
	)
	c.fanoutDone()
}

func (c *Coordinator) handleVoteInfo(m voteInfoMsg) {
	if !c.inFlight() {
		c.dropEvent("vote info result", m)
		return
	}
	if m.err != nil {
		c.fail(classifyChainErr(m.err), m.err)
		return
	}
	switch m.tag {
	case voteInfoTagCRC:
		rec, err := vote.ExtractCRLastVote(m.info)
		switch {
		case errors.Is(err, vote.ErrNoCRCVote):
			// Nothing to preserve
		case err != nil:
			c.fail(FailureDecode, err)
			return
		default:
			c.otherUnActive.Put(rec)
		}
		c.pendingCRVote = false
		c.maybeBuild()
	case voteInfoTagImpeachment:
		c.build()
	default:
		c.dropEvent("vote info result", m)
	}
}

func (c *Coordinator) handleAmount(m amountMsg) {
	if !c.inFlight() {
		c.dropEvent("amount", m)
		return
	}
	amount, err := fixedpoint.FromDecimal(m.num)
	if err != nil || amount.Sign() <= 0 {
		c.logger.Warn(
			"ignoring invalid impeachment amount",
			"component", "impeach",
			"num", m.num,
			"error", err,
		)
		return
	}
	if c.maxBalance.Sign() > 0 && amount.Cmp(c.maxBalance) > 0 {
		c.logger.Warn(
			"ignoring impeachment amount above the maximum",
			"component", "impeach",
			"num", m.num,
			"max", c.maxBalance.String(),
		)
		return
	}
	c.num = m.num
	c.maybeBuild()
}

func (c *Coordinator) handleBuild(m buildMsg) {
	if c.State() != StateBuilding {
		c.dropEvent("build result", m)
		return
	}
	if m.err != nil {
		c.fail(FailureWalletBuild, m.err)
		return
	}
	c.setState(StateReady)
	c.metrics.buildsTotal.Inc()
	c.logger.Info(
		"impeachment transaction built",
		"component", "impeach",
		"wallet", c.walletId,
		"cid", c.cid,
	)
	c.config.EventBus.Publish(
		TransferConfirmEventType,
		event.NewEvent(
			TransferConfirmEventType,
			TransferConfirmEvent{
				Amount:     c.num,
				WalletId:   c.walletId,
				ChainId:    walletengine.ChainIdELA,
				Attributes: m.attributes,
				Type:       TypeImpeachmentCRC,
				TransType:  walletengine.TransTypeImpeachmentCRC,
			},
		),
	)
}

// fanoutDone records one fan-out completion and re-checks the build
// barrier.
func (c *Coordinator) fanoutDone() {
	c.pendingFanout--
	if c.pendingFanout == 0 {
		c.metrics.fanoutSeconds.Observe(
			time.Since(c.fanoutStart).Seconds(),
		)
	}
	c.maybeBuild()
}

// maybeBuild fires the final vote-info fetch once the amount event and
// every outstanding query have arrived. This ordering barrier makes the
// pipeline insensitive to fan-out completion order.
func (c *Coordinator) maybeBuild() {
	if c.num == "" || c.pendingFanout > 0 || c.pendingCRVote {
		return
	}
	switch c.State() {
	case StateFanOut, StateAwaitVoteInfo:
	default:
		return
	}
	c.setState(StateAwaitVoteInfo)
	c.fetchVoteInfo(voteInfoTagImpeachment)
}

func (c *Coordinator) fetchVoteInfo(tag string) {
	go func() {
		ctx, cancel := c.callCtx()
		defer cancel()
		info, err := c.config.ChainApi.GetVoteInfo(ctx, c.walletId)
		c.post(voteInfoMsg{tag: tag, info: info, err: err})
	}()
}

// build asks the wallet engine for the transaction attributes blob.
func (c *Coordinator) build() {
	amount, err := fixedpoint.FromDecimal(c.num)
	if err != nil {
		c.fail(FailureStateViolation, err)
		return
	}
	// An amount picked before the balance resolved may still exceed the
	// maximum; discard it and await a fresh pick
	if amount.Cmp(c.maxBalance) > 0 {
		c.logger.Warn(
			"discarding impeachment amount above the maximum",
			"component", "impeach",
			"num", c.num,
			"max", c.maxBalance.String(),
		)
		c.num = ""
		return
	}
	newVotes, err := json.Marshal(map[string]string{
		c.cid: amount.ToSatsString(),
	})
	if err != nil {
		c.fail(FailureWalletBuild, err)
		return
	}
	otherUnActive := c.otherUnActive.Serialize()
	c.setState(StateBuilding)
	walletId := c.walletId
	go func() {
		ctx, cancel := c.callCtx()
		defer cancel()
		attributes, buildErr := c.config.Engine.CreateImpeachmentCRCTransaction(
			ctx,
			walletId,
			walletengine.ChainIdELA,
			"",
			string(newVotes),
			"",
			otherUnActive,
		)
		c.post(buildMsg{attributes: attributes, err: buildErr})
	}()
}

// inFlight reports whether the coordinator is mid-composition and can
// consume remote results.
func (c *Coordinator) inFlight() bool {
	switch c.State() {
	case StateFanOut, StateAwaitVoteInfo:
		return true
	default:
		return false
	}
}

func (c *Coordinator) fail(kind FailureKind, err error) {
	c.setState(StateFailed)
	c.otherUnActive.Reset()
	c.num = ""
	c.metrics.failuresTotal.WithLabelValues(string(kind)).Inc()
	c.logger.Error(
		"impeachment composition failed",
		"component", "impeach",
		"kind", string(kind),
		"error", err,
	)
	c.config.EventBus.Publish(
		FailureEventType,
		event.NewEvent(
			FailureEventType,
			FailureEvent{Kind: kind, Err: err},
		),
	)
}

// dropEvent logs an event that arrived in a state that cannot consume
// it. Dropped events never transition the state machine.
func (c *Coordinator) dropEvent(what string, msg any) {
	c.logger.Warn(
		"dropping event in state that cannot consume it",
		"component", "impeach",
		"event", what,
		"state", c.State().String(),
		"message", fmt.Sprintf("%+v", msg),
	)
}

func (c *Coordinator) callCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.ctx, c.config.RequestTimeout)
}
