package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNewProfileBounds(t *testing.T) {
	owner := domain.Identity{1}

	p, err := NewProfile(owner, " Roger ", "Reviewer", now)
	require.NoError(t, err)
	assert.Equal(t, "Roger", p.Name)

	cases := map[string][2]string{
		"empty name":     {"", "Reviewer"},
		"long name":      {strings.Repeat("n", 65), "Reviewer"},
		"empty title":    {"Roger", " "},
		"long title":     {"Roger", strings.Repeat("t", 33)},
		"emoji in title": {"Roger", "Reviewer ✨"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewProfile(owner, tc[0], tc[1], now)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}

	t.Run("boundary lengths are accepted", func(t *testing.T) {
		_, err := NewProfile(owner, strings.Repeat("n", 64), strings.Repeat("t", 32), now)
		require.NoError(t, err)
	})
}

func TestCounterLookup(t *testing.T) {
	c := Counters{Papers: 1, Purchases: 2, Reviews: 3}
	for label, want := range map[string]uint32{"papers": 1, "purchases": 2, "reviews": 3} {
		got, ok := c.Counter(label)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := c.Counter("sales")
	assert.False(t, ok)
}

func TestAddressesDiffer(t *testing.T) {
	id := domain.Identity{5}
	assert.NotEqual(t, ProfileAddress(id), VaultAddress(id))
	assert.NotEqual(t, ProfileAddress(id), ProfileAddress(domain.Identity{6}))
}
