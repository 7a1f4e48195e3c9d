package stats

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srodi/showpagemap/pkg/types"
)

func TestRecordCountsPages(t *testing.T) {
	a := NewAggregator(false)
	a.Record(types.PageEntry{Present: true}, 1, types.UnknownOwner)
	a.Record(types.PageEntry{}, 0, types.UnknownOwner)
	a.Record(types.PageEntry{Present: true}, 2, types.UnknownOwner)

	assert.Equal(t, types.Summary{TotalPages: 3, ResidentPages: 2, SharedPages: 1}, a.Summary())
	assert.Nil(t, a.Owners())
	assert.False(t, a.TracksOwners())
}

func TestRecordSharedThreshold(t *testing.T) {
	cases := []struct {
		share  uint64
		shared uint64
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{40, 1},
	}
	for _, tc := range cases {
		a := NewAggregator(false)
		a.Record(types.PageEntry{Present: true}, tc.share, types.UnknownOwner)
		assert.Equalf(t, tc.shared, a.Summary().SharedPages, "share count %d", tc.share)
	}
}

func TestRecordOwners(t *testing.T) {
	a := NewAggregator(true)
	a.Record(types.PageEntry{Present: true}, 1, 7)
	a.Record(types.PageEntry{Present: true}, 1, 7)
	a.Record(types.PageEntry{Present: false}, 1, 7)
	a.Record(types.PageEntry{Present: true}, 1, 0)
	a.Record(types.PageEntry{Present: true}, 1, types.UnknownOwner)
	a.Record(types.PageEntry{Present: true}, 1, 300)

	owners := a.Owners()
	require.NotNil(t, owners)
	assert.Equal(t, uint64(2), owners.Get(7))
	assert.Equal(t, uint64(1), owners.Get(300))
	assert.Zero(t, owners.Get(0))
	assert.Equal(t, 2, owners.NonZero())
}

func TestRecordInvariantsHoldForRandomInput(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := NewAggregator(true)
	for i := 0; i < 10_000; i++ {
		raw := rng.Uint64()
		a.Record(types.PageEntry{Present: raw&1 == 1}, raw>>1&3, int64(raw>>3&0xff))
		s := a.Summary()
		require.LessOrEqual(t, s.ResidentPages, s.TotalPages)
		require.LessOrEqual(t, s.SharedPages, s.TotalPages)
	}

	var owned uint64
	a.Owners().Each(func(_, count uint64) { owned += count })
	assert.LessOrEqual(t, owned, a.Summary().ResidentPages)
}
