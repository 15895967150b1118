package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jellyarcade/internal/models"
)

func cat(parent *uuid.UUID, order int) models.Category {
	return models.Category{ID: uuid.New(), ParentID: parent, Order: order}
}

func TestBuildCategoryTree(t *testing.T) {
	a := cat(nil, 0)
	b := cat(nil, 1)
	a1 := cat(&a.ID, 0)
	a2 := cat(&a.ID, 1)
	a1x := cat(&a1.ID, 0)

	tree := BuildCategoryTree([]models.Category{a, b, a1, a2, a1x}, nil)
	require.Len(t, tree, 2)
	assert.Equal(t, a.ID, tree[0].ID)
	assert.Equal(t, b.ID, tree[1].ID)
	assert.Nil(t, tree[1].Children, "leaves carry no children")

	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, a1.ID, tree[0].Children[0].ID)
	assert.Equal(t, a2.ID, tree[0].Children[1].ID)
	require.Len(t, tree[0].Children[0].Children, 1)
	assert.Equal(t, a1x.ID, tree[0].Children[0].Children[0].ID)

	sub := BuildCategoryTree([]models.Category{a, a1, a2}, &a.ID)
	assert.Len(t, sub, 2)

	empty := BuildCategoryTree(nil, nil)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestBuildCategoryTreeStopsOnLoops(t *testing.T) {
	a := cat(nil, 0)
	b := cat(&a.ID, 0)
	a.ParentID = &b.ID

	// Neither node is a root, so nothing is reachable from the top.
	assert.Empty(t, BuildCategoryTree([]models.Category{a, b}, nil))
	// Starting inside the loop terminates.
	sub := BuildCategoryTree([]models.Category{a, b}, &a.ID)
	require.Len(t, sub, 1)
	assert.Equal(t, b.ID, sub[0].ID)
}

func TestInsertAt(t *testing.T) {
	x, y, z := uuid.New(), uuid.New(), uuid.New()
	ids := []uuid.UUID{x, y, z}

	tests := []struct {
		name  string
		id    uuid.UUID
		index int
		want  []uuid.UUID
	}{
		{"move last to front", z, 0, []uuid.UUID{z, x, y}},
		{"move first to end", x, 2, []uuid.UUID{y, z, x}},
		{"same position", y, 1, []uuid.UUID{x, y, z}},
		{"negative clamps to front", z, -5, []uuid.UUID{z, x, y}},
		{"past end clamps to end", x, 99, []uuid.UUID{y, z, x}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, insertAt(ids, tt.id, tt.index))
		})
	}

	newcomer := uuid.New()
	assert.Equal(t, []uuid.UUID{x, newcomer, y, z}, insertAt(ids, newcomer, 1))
	assert.Equal(t, []uuid.UUID{x, y, z}, ids, "input is not mutated")
}

func TestRenumber(t *testing.T) {
	parent := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	positions := renumber(ids, &parent)
	require.Len(t, positions, 3)
	for i, p := range positions {
		assert.Equal(t, ids[i], p.ID)
		assert.Equal(t, i, p.Order)
		assert.Equal(t, &parent, p.ParentID)
	}
}

func TestCreatesCycle(t *testing.T) {
	// root -> a -> b -> c
	a := cat(nil, 0)
	b := cat(&a.ID, 0)
	c := cat(&b.ID, 0)
	other := cat(nil, 1)
	arena := arenaOf([]models.Category{a, b, c, other})

	assert.True(t, createsCycle(arena, a.ID, &a.ID), "self")
	assert.True(t, createsCycle(arena, a.ID, &b.ID), "child")
	assert.True(t, createsCycle(arena, a.ID, &c.ID), "grandchild")
	assert.True(t, createsCycle(arena, b.ID, &c.ID), "child of the moved node")
	assert.False(t, createsCycle(arena, c.ID, &a.ID), "ancestor is a valid parent")
	assert.False(t, createsCycle(arena, a.ID, &other.ID), "unrelated tree")
	assert.False(t, createsCycle(arena, b.ID, nil), "root level")
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := m.Lock(ctx, "k")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			maxSeen = max(maxSeen, inside)
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, m.locks, "idle keys are released")
}

func TestKeyedMutexCancelledWait(t *testing.T) {
	m := NewKeyedMutex()
	unlock, err := m.Lock(context.Background(), "k")
	require.NoError(t, err)

	other, err := m.Lock(context.Background(), "other")
	require.NoError(t, err, "different keys do not block each other")
	other()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = m.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock() // idempotent
	again, err := m.Lock(context.Background(), "k")
	require.NoError(t, err)
	again()
}

func TestLockAllDedupesAndSorts(t *testing.T) {
	rec := &recordingLocker{}
	unlock, err := lockAll(context.Background(), rec, "b", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, rec.locked)
	unlock()
	assert.Equal(t, []string{"b", "a"}, rec.unlocked)
}

type recordingLocker struct {
	locked, unlocked []string
}

func (r *recordingLocker) Lock(_ context.Context, key string) (func(), error) {
	r.locked = append(r.locked, key)
	return func() { r.unlocked = append(r.unlocked, key) }, nil
}

func TestErrorKinds(t *testing.T) {
	err := validationError("bad %s", "input")
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "bad input", err.Error())

	wrapped := newError(KindImageUpload, "upload failed", assert.AnError)
	assert.ErrorIs(t, wrapped, assert.AnError)
	assert.Equal(t, KindImageUpload, KindOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(assert.AnError))
	assert.Equal(t, "not found", KindNotFound.String())
}
