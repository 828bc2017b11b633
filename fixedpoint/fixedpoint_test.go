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

package fixedpoint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/walletkit/fixedpoint"
)

func TestFromDecimal(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		expectedSats string
		expectErr    bool
	}{
		{
			name:         "whole amount",
			input:        "2",
			expectedSats: "200000000",
		},
		{
			name:         "fractional amount",
			input:        "2.5",
			expectedSats: "250000000",
		},
		{
			name:         "full precision",
			input:        "0.00000001",
			expectedSats: "1",
		},
		{
			name:         "leading dot",
			input:        ".5",
			expectedSats: "50000000",
		},
		{
			name:         "zero",
			input:        "0",
			expectedSats: "0",
		},
		{
			name:      "negative",
			input:     "-1.5",
			expectErr: true,
		},
		{
			name:      "too many fractional digits",
			input:     "1.000000001",
			expectErr: true,
		},
		{
			name:      "not a number",
			input:     "abc",
			expectErr: true,
		},
		{
			name:      "empty",
			input:     "",
			expectErr: true,
		},
		{
			name:      "double dot",
			input:     "1.2.3",
			expectErr: true,
		},
		{
			name:      "trailing dot",
			input:     "5.",
			expectErr: true,
		},
		{
			name:      "explicit plus sign",
			input:     "+5",
			expectErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := fixedpoint.FromDecimal(tt.input)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedSats, f.ToSatsString())
		})
	}
}

func TestSatsRoundTrip(t *testing.T) {
	// Values with at most 8 fractional digits must round-trip through the
	// sats representation unchanged
	for _, s := range []string{"2.5", "0.00000001", "123.45678901", "7"} {
		f, err := fixedpoint.FromDecimal(s)
		require.NoError(t, err)
		back, err := fixedpoint.FromSatsString(f.ToSatsString())
		require.NoError(t, err)
		assert.Zero(t, f.Cmp(back), "round trip changed value for %s", s)
	}
}

func TestRemoveZeroFormatting(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"2.50000000", "2.5"},
		{"2.00000000", "2"},
		{"0.10000000", "0.1"},
		{"0", "0"},
		{"10.01", "10.01"},
	}
	for _, tt := range tests {
		f, err := fixedpoint.FromDecimal(tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, f.String())
	}
}

func TestSub(t *testing.T) {
	a := fixedpoint.FromSats(500_000_000)
	b := fixedpoint.FromSats(1_000_000)
	assert.Equal(t, "499000000", a.Sub(b).ToSatsString())
	// Subtraction may go negative; callers check the sign
	assert.Equal(t, -1, b.Sub(a).Sign())
}

func TestDiv(t *testing.T) {
	balance := fixedpoint.FromSats(499_000_000)
	rate := fixedpoint.FromSats(100_000_000)
	got, err := balance.Div(rate, 8)
	require.NoError(t, err)
	assert.Equal(t, "4.99", got.String())

	// Half-down rounding at the requested scale
	one := fixedpoint.FromSats(100_000_000)
	three := fixedpoint.FromSats(300_000_000)
	got, err = one.Div(three, 8)
	require.NoError(t, err)
	assert.Equal(t, "33333333", got.ToSatsString())

	// Exactly half rounds down
	half, err := fixedpoint.FromDecimal("0.05")
	require.NoError(t, err)
	point1, err := fixedpoint.FromDecimal("0.1")
	require.NoError(t, err)
	got, err = half.Div(point1, 0)
	require.NoError(t, err)
	assert.Equal(t, "0", got.String())

	_, err = one.Div(fixedpoint.FromSats(0), 8)
	assert.ErrorIs(t, err, fixedpoint.ErrDivideByZero)
}
