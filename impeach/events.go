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

package impeach

import (
	"github.com/blinklabs-io/walletkit/event"
)

// TypeImpeachmentCRC tags navigation events originating from the
// impeachment flow.
const TypeImpeachmentCRC = "IMPEACHMENTCRC"

const (
	// AmountChosenEventType carries the amount picked on the vote screen
	// back into the coordinator
	AmountChosenEventType event.EventType = "impeach.amount_chosen"
	// TransferSuccessEventType signals that the composed transaction was
	// confirmed and broadcast by the transfer screen
	TransferSuccessEventType event.EventType = "impeach.transfer_success"
	// AmountPickerEventType asks the UI to open the amount picker
	AmountPickerEventType event.EventType = "impeach.navigate_amount_picker"
	// TransferConfirmEventType hands the finished attributes blob to the
	// transfer confirmation screen
	TransferConfirmEventType event.EventType = "impeach.navigate_transfer"
	// FailureEventType reports a failed composition attempt
	FailureEventType event.EventType = "impeach.failed"
)

// AmountChosenEvent is the inbound amount-picker result.
type AmountChosenEvent struct {
	Num string
}

// TransferSuccessEvent is the inbound broadcast confirmation.
type TransferSuccessEvent struct{}

// AmountPickerEvent is the outbound navigation request to the amount
// picker, carrying the maximum impeachable amount in display form.
type AmountPickerEvent struct {
	MaxBalance string
	Type       string
}

// TransferConfirmEvent is the outbound hand-off to the transfer
// confirmation screen.
type TransferConfirmEvent struct {
	Amount     string
	WalletId   string
	ChainId    string
	Attributes string
	Type       string
	TransType  int
}

// FailureEvent reports the failure kind and underlying error of an
// aborted composition.
type FailureEvent struct {
	Err  error
	Kind FailureKind
}
