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

// Package walletkit wires the chain explorer client, the wallet engine,
// the keystore, and the impeachment pipeline into a single application
// core that UI shells drive through the event bus.
package walletkit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blinklabs-io/walletkit/chainapi"
	"github.com/blinklabs-io/walletkit/event"
	"github.com/blinklabs-io/walletkit/impeach"
	"github.com/blinklabs-io/walletkit/keystore"
	"github.com/blinklabs-io/walletkit/session"
	"github.com/blinklabs-io/walletkit/walletengine"
)

var ErrNotRunning = errors.New("app is not running")

type App struct {
	coordinator   *impeach.Coordinator
	eventBus      *event.EventBus
	chainApi      chainapi.ChainApi
	walletEngine  walletengine.WalletEngine
	store         *keystore.Store
	shutdownFuncs []func(context.Context) error
	config        Config
	draftSub      event.EventSubscriberId
	sessionMutex  sync.Mutex
	sessions      []*session.Session
	ready         atomic.Bool
	done          chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*App, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	eventBus := event.NewEventBus(cfg.promRegistry, cfg.logger)
	a := &App{
		config:   cfg,
		eventBus: eventBus,
		done:     make(chan struct{}),
	}
	return a, nil
}

func (a *App) Run() error {
	// Configure tracing
	if a.config.tracing {
		if err := a.setupTracing(); err != nil {
			return err
		}
	}
	// Load keystore
	store, err := keystore.New(a.config.dataDir, a.config.logger)
	if err != nil {
		return fmt.Errorf("failed to open keystore: %w", err)
	}
	a.store = store
	// Configure chain API client
	a.chainApi = a.config.chainApi
	if a.chainApi == nil {
		clientOpts := []chainapi.ClientOption{}
		if a.config.requestTimeout > 0 {
			clientOpts = append(
				clientOpts,
				chainapi.WithRequestTimeout(a.config.requestTimeout),
			)
		}
		a.chainApi = chainapi.NewClient(a.config.explorerUrl, clientOpts...)
	}
	// Configure wallet engine
	a.walletEngine = a.config.walletEngine
	if a.walletEngine == nil {
		a.walletEngine = walletengine.NewLocalEngine(
			walletengine.LocalEngineConfig{
				Logger: a.config.logger,
			},
		)
	}
	// Start impeachment pipeline
	coordinator, err := impeach.NewCoordinator(
		impeach.CoordinatorConfig{
			ChainApi:       a.chainApi,
			Engine:         a.walletEngine,
			EventBus:       a.eventBus,
			Logger:         a.config.logger,
			PromRegistry:   a.config.promRegistry,
			RequestTimeout: a.config.requestTimeout,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to start impeachment pipeline: %w", err)
	}
	a.coordinator = coordinator
	// Persist composed transactions as drafts for the signing flow
	a.draftSub = a.eventBus.SubscribeFunc(
		impeach.TransferConfirmEventType,
		a.handleTransferConfirm,
	)
	a.ready.Store(true)

	// Wait for shutdown signal
	<-a.done
	return nil
}

// Ready reports whether Run has finished wiring the application core.
func (a *App) Ready() bool {
	return a.ready.Load()
}

// EventBus returns the application event bus.
func (a *App) EventBus() *event.EventBus {
	return a.eventBus
}

// ChainApi returns the configured chain explorer client.
func (a *App) ChainApi() chainapi.ChainApi {
	return a.chainApi
}

// WalletEngine returns the configured wallet engine.
func (a *App) WalletEngine() walletengine.WalletEngine {
	return a.walletEngine
}

// Keystore returns the application keystore.
func (a *App) Keystore() *keystore.Store {
	return a.store
}

// OpenSession opens a council-member detail session and loads the member
// record. The session shares the application's impeachment pipeline.
func (a *App) OpenSession(
	ctx context.Context,
	id string,
	did string,
) (*session.Session, error) {
	if !a.ready.Load() {
		return nil, ErrNotRunning
	}
	s, err := session.NewSession(
		session.SessionConfig{
			ChainApi:    a.chainApi,
			Engine:      a.walletEngine,
			EventBus:    a.eventBus,
			Coordinator: a.coordinator,
			Logger:      a.config.logger,
		},
	)
	if err != nil {
		return nil, err
	}
	if err := s.Load(ctx, id, did); err != nil {
		s.Close()
		return nil, err
	}
	a.sessionMutex.Lock()
	a.sessions = append(a.sessions, s)
	a.sessionMutex.Unlock()
	return s, nil
}

func (a *App) handleTransferConfirm(evt event.Event) {
	data, ok := evt.Data.(impeach.TransferConfirmEvent)
	if !ok {
		return
	}
	draftId, err := a.store.SaveDraft(
		data.WalletId,
		data.ChainId,
		data.TransType,
		data.Attributes,
	)
	if err != nil {
		a.config.logger.Error(
			"failed to persist transaction draft",
			"component", "app",
			"error", err,
		)
		return
	}
	a.config.logger.Info(
		"persisted transaction draft",
		"component", "app",
		"draft_id", draftId,
		"wallet", data.WalletId,
	)
}

func (a *App) Stop() error {
	var err error
	a.shutdownOnce.Do(func() {
		err = a.shutdown()
	})
	return err
}

func (a *App) shutdown() error {
	// Create shutdown context with timeout (default 30s if not configured)
	shutdownTimeout := 30 * time.Second
	if a.config.shutdownTimeout > 0 {
		shutdownTimeout = a.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	a.config.logger.Debug("starting graceful shutdown")
	a.ready.Store(false)

	// Phase 1: Stop accepting new work
	a.sessionMutex.Lock()
	for _, s := range a.sessions {
		s.Close()
	}
	a.sessions = nil
	a.sessionMutex.Unlock()
	if a.coordinator != nil {
		a.eventBus.Unsubscribe(impeach.TransferConfirmEventType, a.draftSub)
		a.coordinator.Close()
	}

	// Phase 2: Flush state and close keystore
	if a.store != nil {
		if closeErr := a.store.Close(); closeErr != nil {
			err = errors.Join(
				err,
				fmt.Errorf("keystore close: %w", closeErr),
			)
		}
	}

	// Phase 3: Cleanup resources
	// Call registered shutdown functions
	for _, fn := range a.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	a.shutdownFuncs = nil

	if a.eventBus != nil {
		a.eventBus.Stop()
	}

	a.config.logger.Debug("graceful shutdown complete")
	close(a.done)
	return err
}
