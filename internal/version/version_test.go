// SPDX-License-Identifier: MIT

package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "version keyword",
			text: "Firefox version 128.0.2 is now available",
			want: []string{"128.0.2"},
		},
		{
			name: "v prefix",
			text: "Download v1.22.4 today",
			want: []string{"1.22.4"},
		},
		{
			name: "standalone triple",
			text: "Chrome 126.0.6478.127 fixes several bugs",
			want: []string{"126.0.6478.127"},
		},
		{
			name: "build suffix",
			text: "3.12.4 (build 9104)",
			want: []string{"3.12.4"},
		},
		{
			name: "major minor only",
			text: "VMware Workstation 17.5 released",
			want: []string{"17.5"},
		},
		{
			name: "two-component candidate surfaces before longer ones",
			text: "2.0 / 1.9.8",
			want: []string{"2.0", "1.9.8"},
		},
		{
			name: "dedupe across patterns",
			text: "version 2.1.3 ... get v2.1.3 now",
			want: []string{"2.1.3"},
		},
		{
			name: "no versions",
			text: "nothing to see here",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "2.1", Normalize("v2.1.0"))
	assert.Equal(t, "1", Normalize("1.0.0"))
	assert.Equal(t, "3.4.5", Normalize("3.4.5"))
	assert.Equal(t, "0", Normalize("0"))
	assert.Equal(t, "10.2", Normalize("V10.2"))
}

func TestParse(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, Parse("1.2.3"))
	assert.Equal(t, []int{1, 2, 3}, Parse("v1.2.3"))
	assert.Equal(t, []int{2, 0, 1}, Parse("2.0.1"))
	// non-numeric suffix keeps leading digits
	assert.Equal(t, []int{1, 2, 3}, Parse("1.2.3rc1"))
	assert.Equal(t, []int{1, 0}, Parse("1.beta"))
	assert.Nil(t, Parse(""))
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.2.3", "1.2.3", 0},
		{"1.2.3", "1.2.4", -1},
		{"2.0", "1.9.9", 1},
		{"1.2", "1.2.0", 0},
		{"1.2.0.1", "1.2", 1},
		{"10.0", "9.9", 1},
		{"v1.5", "1.5", 0},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, Compare(tt.a, tt.b), "Compare(%q, %q)", tt.a, tt.b)
	}
}

func TestIsNewer(t *testing.T) {
	assert.True(t, IsNewer("1.0", "1.1"))
	assert.False(t, IsNewer("1.1", "1.0"))
	assert.False(t, IsNewer("1.1", "1.1"))
	assert.True(t, IsNewer("", "1.0"))
	assert.False(t, IsNewer("1.0", ""))
}

func TestHighest(t *testing.T) {
	got := Highest([]string{"1.2", "1.10", "1.9", ""})
	require.Equal(t, "1.10", got)
	assert.Equal(t, "", Highest(nil))
	assert.Equal(t, "3.0", Highest([]string{"3.0"}))
}
