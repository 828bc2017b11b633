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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/blinklabs-io/walletkit/event"
	"github.com/blinklabs-io/walletkit/impeach"
	"github.com/blinklabs-io/walletkit/internal/app"
	"github.com/blinklabs-io/walletkit/internal/config"
	"github.com/blinklabs-io/walletkit/walletengine"
	"github.com/spf13/cobra"
)

var impeachFlags = struct {
	walletId    string
	memberId    string
	memberDid   string
	amount      string
	balanceSats int64
}{}

// impeachRun composes a single impeachment transaction and prints the
// resulting attributes blob.
func impeachRun(cfg *config.Config) error {
	logger := commonRun()
	a, err := app.Build(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Stop(); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
		}
	}()
	runErrChan := make(chan error, 1)
	go func() {
		runErrChan <- a.Run()
	}()
	for !a.Ready() {
		select {
		case err := <-runErrChan:
			return err
		case <-time.After(10 * time.Millisecond):
		}
	}
	// Seed the local engine when a balance override is given
	if impeachFlags.balanceSats > 0 {
		if engine, ok := a.WalletEngine().(*walletengine.LocalEngine); ok {
			engine.SetBalance(
				impeachFlags.walletId,
				walletengine.ChainIdELA,
				impeachFlags.balanceSats,
			)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	s, err := a.OpenSession(ctx, impeachFlags.memberId, impeachFlags.memberDid)
	if err != nil {
		return err
	}
	defer s.Close()

	eventBus := a.EventBus()
	_, pickerChan := eventBus.Subscribe(impeach.AmountPickerEventType)
	_, confirmChan := eventBus.Subscribe(impeach.TransferConfirmEventType)
	_, failureChan := eventBus.Subscribe(impeach.FailureEventType)

	if err := s.Impeach(impeachFlags.walletId); err != nil {
		return err
	}
	for {
		select {
		case evt := <-pickerChan:
			picker, ok := evt.Data.(impeach.AmountPickerEvent)
			if !ok {
				continue
			}
			logger.Info(
				"maximum impeachable amount: "+picker.MaxBalance,
				"component", programName,
			)
			eventBus.Publish(
				impeach.AmountChosenEventType,
				event.NewEvent(
					impeach.AmountChosenEventType,
					impeach.AmountChosenEvent{Num: impeachFlags.amount},
				),
			)
		case evt := <-confirmChan:
			confirm, ok := evt.Data.(impeach.TransferConfirmEvent)
			if !ok {
				continue
			}
			fmt.Println(confirm.Attributes)
			return nil
		case evt := <-failureChan:
			failure, ok := evt.Data.(impeach.FailureEvent)
			if !ok {
				continue
			}
			return fmt.Errorf(
				"impeachment failed (%s): %w",
				failure.Kind,
				failure.Err,
			)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func impeachCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "impeach",
		Short: "Compose an impeachment-vote transaction",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				slog.Error("no config found in context")
				os.Exit(1)
			}
			if err := impeachRun(cfg); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
		},
	}
	cmd.Flags().StringVar(
		&impeachFlags.walletId,
		"wallet", "", "wallet identifier",
	)
	cmd.Flags().StringVar(
		&impeachFlags.memberId,
		"id", "", "council member record identifier",
	)
	cmd.Flags().StringVar(
		&impeachFlags.memberDid,
		"did", "", "council member DID",
	)
	cmd.Flags().StringVar(
		&impeachFlags.amount,
		"amount", "", "vote amount in ELA",
	)
	cmd.Flags().Int64Var(
		&impeachFlags.balanceSats,
		"balance", 0, "seed the local wallet engine with a balance in sats",
	)
	_ = cmd.MarkFlagRequired("wallet")
	_ = cmd.MarkFlagRequired("did")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
