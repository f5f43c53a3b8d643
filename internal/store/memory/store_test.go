package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/dagbok/internal/models"
	"github.com/shrimpsizemoose/dagbok/internal/store"
	"github.com/shrimpsizemoose/dagbok/internal/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, NewMemoryStore())
}

func TestMemoryStore_ReadOnlyRejectsWrites(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.InTx(ctx, true, func(q store.Queries) error {
		return q.CreateLesson(ctx, &models.Lesson{ClassID: 1})
	})
	assert.ErrorIs(t, err, store.ErrReadOnly)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.InTx(ctx, false, func(q store.Queries) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
