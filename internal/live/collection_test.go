package live

import (
	"context"
	"testing"

	"memorylane/internal/domain/constants"
	"memorylane/internal/domain/entity"
	"memorylane/internal/domain/store"
	"memorylane/internal/domain/store/storetest"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryRef(id string) store.DocRef {
	return store.DocRef{Collection: constants.CollectionMemories, ID: id}
}

func memoriesQuery(patientUID string) store.Query {
	return store.NewQuery(constants.CollectionMemories).
		Where("patientUid", patientUID).
		OrderBy("createdAt", store.Descending)
}

func seedMemory(st *storetest.Store, id, patientUID, caption string, createdAt int64) {
	st.Seed(memoryRef(id), map[string]any{
		"patientUid": patientUID,
		"caption":    caption,
		"createdAt":  createdAt,
	})
}

func TestCollection_Bind_DeliversOrderedResults(t *testing.T) {
	st := storetest.New()
	seedMemory(st, "m1", "p1", "older", 100)
	seedMemory(st, "m2", "p1", "newer", 200)
	seedMemory(st, "m3", "p2", "other patient", 300)

	col := NewCollection(st, entity.MemoryFromMap)
	defer col.Close()

	q := memoriesQuery("p1")
	col.Bind(context.Background(), &q)

	require.Eventually(t, func() bool {
		s := col.State()

		return !s.Loading && len(s.Items) == 2
	}, pollWait, pollTick)

	s := col.State()
	require.NoError(t, s.Err)
	assert.Equal(t, "newer", s.Items[0].Caption)
	assert.Equal(t, "older", s.Items[1].Caption)
}

func TestCollection_Bind_NilQueryMakesNoStoreCalls(t *testing.T) {
	st := storetest.New()

	col := NewCollection(st, entity.MemoryFromMap)
	defer col.Close()

	col.Bind(context.Background(), nil)

	s := col.State()
	assert.Empty(t, s.Items)
	assert.False(t, s.Loading)
	assert.Zero(t, st.WatchQueryCalls())
}

func TestCollection_Bind_EquivalentQueryIsNoOp(t *testing.T) {
	st := storetest.New()

	col := NewCollection(st, entity.MemoryFromMap)
	defer col.Close()

	q1 := memoriesQuery("p1")
	col.Bind(context.Background(), &q1)
	q2 := memoriesQuery("p1")
	col.Bind(context.Background(), &q2)

	assert.Equal(t, 1, st.WatchQueryCalls())
	assert.Zero(t, st.CancelCalls())
}

func TestCollection_Bind_QueryChangeTearsDownOldWatch(t *testing.T) {
	st := storetest.New()
	seedMemory(st, "m1", "p1", "first patient", 100)
	seedMemory(st, "m2", "p2", "second patient", 200)

	col := NewCollection(st, entity.MemoryFromMap)
	defer col.Close()

	q1 := memoriesQuery("p1")
	col.Bind(context.Background(), &q1)
	require.Eventually(t, func() bool {
		s := col.State()

		return len(s.Items) == 1 && s.Items[0].Caption == "first patient"
	}, pollWait, pollTick)

	q2 := memoriesQuery("p2")
	col.Bind(context.Background(), &q2)

	assert.Equal(t, 2, st.WatchQueryCalls())
	assert.Equal(t, 1, st.CancelCalls())
	require.Eventually(t, func() bool {
		s := col.State()

		return len(s.Items) == 1 && s.Items[0].Caption == "second patient"
	}, pollWait, pollTick)
}

func TestCollection_MutationReplacesListWholesale(t *testing.T) {
	st := storetest.New()
	seedMemory(st, "m1", "p1", "first", 100)

	col := NewCollection(st, entity.MemoryFromMap)
	defer col.Close()

	q := memoriesQuery("p1")
	col.Bind(context.Background(), &q)
	require.Eventually(t, func() bool {
		return len(col.State().Items) == 1
	}, pollWait, pollTick)

	require.NoError(t, st.SetDoc(context.Background(), memoryRef("m2"), map[string]any{
		"patientUid": "p1",
		"caption":    "second",
		"createdAt":  int64(200),
	}))

	require.Eventually(t, func() bool {
		s := col.State()

		return len(s.Items) == 2 && s.Items[0].Caption == "second"
	}, pollWait, pollTick)

	require.NoError(t, st.DeleteDoc(context.Background(), memoryRef("m1")))

	require.Eventually(t, func() bool {
		s := col.State()

		return len(s.Items) == 1 && s.Items[0].Caption == "second"
	}, pollWait, pollTick)
}

func TestCollection_WatchErrorPreservesLastItems(t *testing.T) {
	st := storetest.New()
	seedMemory(st, "m1", "p1", "kept", 100)

	col := NewCollection(st, entity.MemoryFromMap)
	defer col.Close()

	q := memoriesQuery("p1")
	col.Bind(context.Background(), &q)
	require.Eventually(t, func() bool {
		return len(col.State().Items) == 1
	}, pollWait, pollTick)

	st.EmitQueryError(q, errors.New("listen failed"))

	require.Eventually(t, func() bool {
		return col.State().Err != nil
	}, pollWait, pollTick)

	s := col.State()
	require.Len(t, s.Items, 1)
	assert.Equal(t, "kept", s.Items[0].Caption)
}

func TestCollection_LimitIsApplied(t *testing.T) {
	st := storetest.New()
	seedMemory(st, "m1", "p1", "oldest", 100)
	seedMemory(st, "m2", "p1", "middle", 200)
	seedMemory(st, "m3", "p1", "newest", 300)

	col := NewCollection(st, entity.MemoryFromMap)
	defer col.Close()

	q := memoriesQuery("p1").WithLimit(1)
	col.Bind(context.Background(), &q)

	require.Eventually(t, func() bool {
		s := col.State()

		return !s.Loading && len(s.Items) == 1
	}, pollWait, pollTick)

	assert.Equal(t, "newest", col.State().Items[0].Caption)
}
