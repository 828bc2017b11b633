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

package keystore

import "time"

// migrateModels contains a list of model objects that should have DB
// migrations applied
var migrateModels = []any{
	&Wallet{},
	&Contact{},
	&TxDraft{},
}

// Wallet is a locally-known wallet. The keystore tracks identity and
// display data only; balances live on chain.
type Wallet struct {
	ID        uint      `gorm:"primarykey"`
	WalletId  string    `gorm:"uniqueIndex"`
	Name      string    `gorm:"index"`
	Did       string    `gorm:"index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Wallet) TableName() string {
	return "wallet"
}

// Contact is an address-book entry.
type Contact struct {
	ID      uint   `gorm:"primarykey"`
	Address string `gorm:"uniqueIndex"`
	Name    string `gorm:"index"`
	Did     string
}

func (Contact) TableName() string {
	return "contact"
}

// TxDraft is a composed-but-unsigned transaction attributes blob, kept so
// an interrupted signing flow can resume.
type TxDraft struct {
	ID         uint   `gorm:"primarykey"`
	WalletId   string `gorm:"index"`
	ChainId    string
	TransType  int    `gorm:"index"`
	Attributes string
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (TxDraft) TableName() string {
	return "tx_draft"
}
