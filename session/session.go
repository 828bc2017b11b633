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

// Package session models one council-member detail screen: the loaded
// member record, the selected tab, and the impeachment pipeline bound to
// that member. A Session is created when the screen opens and closed when
// it is dismissed.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/walletkit/chainapi"
	"github.com/blinklabs-io/walletkit/event"
	"github.com/blinklabs-io/walletkit/impeach"
	"github.com/blinklabs-io/walletkit/walletengine"
)

// Tab identifies the detail screen tab.
type Tab int

const (
	// TabRecord shows the member's performance record entries
	TabRecord Tab = iota
	// TabImpeachment shows the impeachment progress and entry point
	TabImpeachment
)

// ErrNotLoaded is returned by accessors before Load has succeeded.
var ErrNotLoaded = errors.New("session not loaded")

// SessionConfig holds dependencies for a Session.
type SessionConfig struct {
	ChainApi    chainapi.ChainApi
	Engine      walletengine.WalletEngine
	EventBus    *event.EventBus
	Coordinator *impeach.Coordinator
	Logger      *slog.Logger
	// OnDismiss (optional) runs once when a successful transfer dismisses
	// the screen
	OnDismiss func()
}

// Session is a live council-member detail screen. All methods are safe
// for concurrent use.
type Session struct {
	config     SessionConfig
	logger     *slog.Logger
	ownsCoord  bool
	coord      *impeach.Coordinator
	successSub event.EventSubscriberId
	closeOnce  sync.Once

	mu        sync.Mutex
	member    *chainapi.CouncilMember
	tab       Tab
	dismissed bool
}

// NewSession creates a Session. If no Coordinator is supplied one is
// created from the ChainApi and Engine.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.ChainApi == nil {
		return nil, errors.New("no chain api provided")
	}
	if cfg.EventBus == nil {
		return nil, errors.New("no event bus provided")
	}
	logger := cfg.Logger
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	s := &Session{
		config: cfg,
		logger: logger,
		coord:  cfg.Coordinator,
	}
	if s.coord == nil {
		if cfg.Engine == nil {
			return nil, errors.New("no wallet engine provided")
		}
		coord, err := impeach.NewCoordinator(
			impeach.CoordinatorConfig{
				ChainApi: cfg.ChainApi,
				Engine:   cfg.Engine,
				EventBus: cfg.EventBus,
				Logger:   logger,
			},
		)
		if err != nil {
			return nil, err
		}
		s.coord = coord
		s.ownsCoord = true
	}
	// A successful transfer dismisses the screen
	s.successSub = cfg.EventBus.SubscribeFunc(
		impeach.TransferSuccessEventType,
		func(_ event.Event) {
			s.dismiss()
		},
	)
	return s, nil
}

// Load fetches the member detail record. It may be called again to
// refresh the screen.
func (s *Session) Load(ctx context.Context, id string, did string) error {
	member, err := s.config.ChainApi.GetCouncilInfo(ctx, id, did)
	if err != nil {
		return fmt.Errorf("load council member: %w", err)
	}
	s.mu.Lock()
	s.member = member
	s.mu.Unlock()
	s.logger.Info(
		"loaded council member",
		"component", "session",
		"did", member.Did,
		"name", member.DidName,
	)
	return nil
}

// Member returns the loaded member record.
func (s *Session) Member() (*chainapi.CouncilMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.member == nil {
		return nil, ErrNotLoaded
	}
	return s.member, nil
}

// ImpeachmentProgress returns the current and threshold impeachment vote
// counts plus the completion ratio clamped to [0, 1]. Backends have been
// observed reporting ratios above 1 once a member is impeached.
func (s *Session) ImpeachmentProgress() (int64, int64, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.member == nil {
		return 0, 0, 0, ErrNotLoaded
	}
	ratio := s.member.ImpeachmentRatio
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return s.member.ImpeachmentVotes,
		s.member.ImpeachmentThroughVotes,
		ratio,
		nil
}

// Terms returns the member's performance record entries.
func (s *Session) Terms() ([]chainapi.Term, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.member == nil {
		return nil, ErrNotLoaded
	}
	return s.member.Term, nil
}

// SelectTab switches the visible tab.
func (s *Session) SelectTab(tab Tab) {
	s.mu.Lock()
	s.tab = tab
	s.mu.Unlock()
}

// Tab returns the visible tab.
func (s *Session) Tab() Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tab
}

// Impeach starts the impeachment pipeline against the loaded member.
func (s *Session) Impeach(walletId string) error {
	s.mu.Lock()
	member := s.member
	s.mu.Unlock()
	if member == nil {
		return ErrNotLoaded
	}
	s.coord.Impeach(walletId, member.Cid)
	return nil
}

// Dismissed reports whether a successful transfer has dismissed the
// screen.
func (s *Session) Dismissed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dismissed
}

func (s *Session) dismiss() {
	s.mu.Lock()
	alreadyDismissed := s.dismissed
	s.dismissed = true
	s.mu.Unlock()
	if alreadyDismissed {
		return
	}
	s.logger.Info(
		"transfer succeeded, dismissing screen",
		"component", "session",
	)
	if s.config.OnDismiss != nil {
		s.config.OnDismiss()
	}
}

// Close releases the session's bus subscription and, when the session
// created its own coordinator, shuts the coordinator down.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.config.EventBus.Unsubscribe(
			impeach.TransferSuccessEventType,
			s.successSub,
		)
		if s.ownsCoord {
			s.coord.Close()
		}
	})
}
