package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotaCounter_Boundary(t *testing.T) {
	ctx := context.Background()
	q := NewQuotaCounter(3, 24*time.Hour, nil)

	for _, want := range []int{2, 1, 0} {
		st, err := q.Use(ctx, "g1")
		require.NoError(t, err)
		assert.True(t, st.CanUse)
		assert.Equal(t, want, st.Remaining)
	}

	st, err := q.Use(ctx, "g1")
	require.NoError(t, err)
	assert.False(t, st.CanUse)
	assert.Equal(t, 0, st.Remaining)
	assert.Equal(t, 3, st.Used)

	// other guests are unaffected
	st, err = q.Check(ctx, "g2")
	require.NoError(t, err)
	assert.True(t, st.CanUse)
	assert.Equal(t, 3, st.Remaining)
}

func TestQuotaCounter_CheckDoesNotConsume(t *testing.T) {
	ctx := context.Background()
	q := NewQuotaCounter(3, time.Hour, nil)
	for i := 0; i < 5; i++ {
		_, err := q.Check(ctx, "g")
		require.NoError(t, err)
	}
	st, err := q.Use(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, 1, st.Used)
}

func TestQuotaCounter_WindowReset(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()
	q := NewQuotaCounter(1, time.Hour, clk.Now)

	st, _ := q.Use(ctx, "g")
	assert.True(t, st.CanUse)
	st, _ = q.Use(ctx, "g")
	assert.False(t, st.CanUse)

	clk.Advance(time.Hour)
	st, err := q.Use(ctx, "g")
	require.NoError(t, err)
	assert.True(t, st.CanUse)
	assert.Equal(t, 0, st.Remaining)
}
