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

// Package fixedpoint implements decimal amount arithmetic for on-chain ELA
// values. Amounts are stored as integer sats (1 ELA = 10^8 sats) so that no
// floating-point arithmetic is ever involved.
package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// FractionDigits is the fixed decimal scale. All amounts carry at most this
// many fractional digits.
const FractionDigits = 8

// Rate is the number of sats per whole ELA (10^8).
var Rate = big.NewInt(100_000_000)

var (
	ErrNegative     = errors.New("negative amounts are not allowed")
	ErrTooPrecise   = errors.New("more than 8 fractional digits")
	ErrDivideByZero = errors.New("division by zero")
)

// Fixed is a non-negative decimal amount with 8 fractional digits, stored
// as integer sats. The zero value is a valid zero amount.
type Fixed struct {
	sats big.Int
}

// FromDecimal parses a decimal string with up to 8 fractional digits.
// It fails on empty input, non-numeric input, negatives, explicit plus
// signs, a trailing dot, and inputs with more than 8 fractional digits.
func FromDecimal(s string) (Fixed, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Fixed{}, errors.New("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return Fixed{}, ErrNegative
	}
	// No explicit sign; a sign-free decimal is the only accepted shape
	if strings.HasPrefix(s, "+") {
		return Fixed{}, fmt.Errorf("malformed amount %q", s)
	}
	intPart := s
	fracPart := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart = s[:idx]
		fracPart = s[idx+1:]
		// A trailing dot or a second dot is malformed
		if fracPart == "" || strings.IndexByte(fracPart, '.') >= 0 {
			return Fixed{}, fmt.Errorf("malformed amount %q", s)
		}
	}
	if len(fracPart) > FractionDigits {
		return Fixed{}, ErrTooPrecise
	}
	if intPart == "" && fracPart == "" {
		return Fixed{}, fmt.Errorf("malformed amount %q", s)
	}
	if intPart == "" {
		intPart = "0"
	}
	// Pad fraction to the full scale and parse as a single integer
	fracPart += strings.Repeat("0", FractionDigits-len(fracPart))
	var sats big.Int
	if _, ok := sats.SetString(intPart+fracPart, 10); !ok {
		return Fixed{}, fmt.Errorf("malformed amount %q", s)
	}
	if sats.Sign() < 0 {
		return Fixed{}, ErrNegative
	}
	var ret Fixed
	ret.sats.Set(&sats)
	return ret, nil
}

// FromSats converts an integer sats value to a Fixed amount.
func FromSats(n int64) Fixed {
	var ret Fixed
	ret.sats.SetInt64(n)
	return ret
}

// FromSatsString converts a decimal integer sats string to a Fixed amount.
func FromSatsString(s string) (Fixed, error) {
	var sats big.Int
	if _, ok := sats.SetString(strings.TrimSpace(s), 10); !ok {
		return Fixed{}, fmt.Errorf("malformed sats value %q", s)
	}
	var ret Fixed
	ret.sats.Set(&sats)
	return ret, nil
}

// ToSatsString returns the amount multiplied by 10^8 as an integer decimal
// string with no leading zeros and no fractional part.
func (f Fixed) ToSatsString() string {
	return f.sats.String()
}

// Sats returns the amount in integer sats.
func (f Fixed) Sats() *big.Int {
	var ret big.Int
	ret.Set(&f.sats)
	return &ret
}

// Sub returns f - o. The result may be negative; callers that require
// non-negative amounts must check Sign.
func (f Fixed) Sub(o Fixed) Fixed {
	var ret Fixed
	ret.sats.Sub(&f.sats, &o.sats)
	return ret
}

// Add returns f + o.
func (f Fixed) Add(o Fixed) Fixed {
	var ret Fixed
	ret.sats.Add(&f.sats, &o.sats)
	return ret
}

// Div returns f / o truncated to the given number of fractional digits,
// rounding half-down at that scale. The scale must be between 0 and 8.
func (f Fixed) Div(o Fixed, scale int) (Fixed, error) {
	if o.sats.Sign() == 0 {
		return Fixed{}, ErrDivideByZero
	}
	if scale < 0 || scale > FractionDigits {
		return Fixed{}, fmt.Errorf("invalid scale %d", scale)
	}
	// Compute (f * 10^scale) / o, round half-down, then shift back up to
	// the full internal scale
	shift := new(big.Int).Exp(
		big.NewInt(10),
		big.NewInt(int64(scale)),
		nil,
	)
	num := new(big.Int).Mul(&f.sats, shift)
	quo, rem := new(big.Int).QuoRem(num, &o.sats, new(big.Int))
	// Half-down: round away from zero only when the remainder strictly
	// exceeds half the divisor
	rem2 := new(big.Int).Abs(rem)
	rem2.Lsh(rem2, 1)
	den := new(big.Int).Abs(&o.sats)
	if rem2.Cmp(den) > 0 {
		if (f.sats.Sign() < 0) != (o.sats.Sign() < 0) {
			quo.Sub(quo, big.NewInt(1))
		} else {
			quo.Add(quo, big.NewInt(1))
		}
	}
	rescale := new(big.Int).Exp(
		big.NewInt(10),
		big.NewInt(int64(FractionDigits-scale)),
		nil,
	)
	var ret Fixed
	ret.sats.Mul(quo, rescale)
	return ret, nil
}

// Cmp compares f and o, returning -1, 0, or 1.
func (f Fixed) Cmp(o Fixed) int {
	return f.sats.Cmp(&o.sats)
}

// Sign returns -1, 0, or 1 depending on the sign of the amount.
func (f Fixed) Sign() int {
	return f.sats.Sign()
}

// String formats the amount as a decimal ELA value with trailing fractional
// zeros removed ("remove-zero" formatting). Whole amounts render with no
// fractional part at all.
func (f Fixed) String() string {
	var quo, rem big.Int
	quo.QuoRem(&f.sats, Rate, &rem)
	if rem.Sign() == 0 {
		return quo.String()
	}
	neg := false
	if rem.Sign() < 0 {
		rem.Neg(&rem)
		neg = true
	}
	frac := fmt.Sprintf("%08d", &rem)
	frac = strings.TrimRight(frac, "0")
	intStr := quo.String()
	if neg && quo.Sign() == 0 {
		intStr = "-" + intStr
	}
	return intStr + "." + frac
}
