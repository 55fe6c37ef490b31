package live

import (
	"context"
	"testing"
	"time"

	"memorylane/internal/domain/entity"
	"memorylane/internal/domain/store"
	"memorylane/internal/domain/store/storetest"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	pollWait = time.Second
	pollTick = 5 * time.Millisecond
)

func profileRef(uid string) store.DocRef {
	return store.DocRef{Collection: "users", ID: uid}
}

func TestDoc_Bind_DeliversExistingDocument(t *testing.T) {
	st := storetest.New()
	st.Seed(profileRef("u1"), map[string]any{
		"role":        "caregiver",
		"displayName": "Alice",
		"createdAt":   int64(1700000000000),
	})

	doc := NewDoc(st, entity.ProfileFromMap)
	defer doc.Close()

	ref := profileRef("u1")
	doc.Bind(context.Background(), &ref)

	require.Eventually(t, func() bool {
		s := doc.State()

		return !s.Loading && s.Data != nil
	}, pollWait, pollTick)

	s := doc.State()
	require.NoError(t, s.Err)
	assert.Equal(t, "u1", s.Data.UID)
	assert.Equal(t, "Alice", s.Data.DisplayName)
	assert.Equal(t, entity.RoleCaregiver, s.Data.Role)
}

func TestDoc_Bind_MissingDocumentResolvesAbsent(t *testing.T) {
	st := storetest.New()

	doc := NewDoc(st, entity.ProfileFromMap)
	defer doc.Close()

	ref := profileRef("ghost")
	doc.Bind(context.Background(), &ref)

	require.Eventually(t, func() bool {
		return !doc.State().Loading
	}, pollWait, pollTick)

	s := doc.State()
	require.NoError(t, s.Err)
	assert.Nil(t, s.Data)
}

func TestDoc_Bind_NilRefMakesNoStoreCalls(t *testing.T) {
	st := storetest.New()

	doc := NewDoc(st, entity.ProfileFromMap)
	defer doc.Close()

	doc.Bind(context.Background(), nil)

	s := doc.State()
	assert.Nil(t, s.Data)
	assert.False(t, s.Loading)
	require.NoError(t, s.Err)
	assert.Zero(t, st.WatchDocCalls())
}

func TestDoc_Bind_SameRefIsNoOp(t *testing.T) {
	st := storetest.New()
	st.Seed(profileRef("u1"), map[string]any{"displayName": "Alice"})

	doc := NewDoc(st, entity.ProfileFromMap)
	defer doc.Close()

	ref := profileRef("u1")
	doc.Bind(context.Background(), &ref)
	same := profileRef("u1")
	doc.Bind(context.Background(), &same)

	assert.Equal(t, 1, st.WatchDocCalls())
	assert.Zero(t, st.CancelCalls())
}

func TestDoc_Bind_RefChangeTearsDownOldWatch(t *testing.T) {
	st := storetest.New()
	st.Seed(profileRef("u1"), map[string]any{"displayName": "Alice"})
	st.Seed(profileRef("u2"), map[string]any{"displayName": "Bob"})

	doc := NewDoc(st, entity.ProfileFromMap)
	defer doc.Close()

	first := profileRef("u1")
	doc.Bind(context.Background(), &first)
	require.Eventually(t, func() bool {
		s := doc.State()

		return s.Data != nil && s.Data.DisplayName == "Alice"
	}, pollWait, pollTick)

	second := profileRef("u2")
	doc.Bind(context.Background(), &second)

	assert.Equal(t, 2, st.WatchDocCalls())
	assert.Equal(t, 1, st.CancelCalls())
	require.Eventually(t, func() bool {
		s := doc.State()

		return s.Data != nil && s.Data.DisplayName == "Bob"
	}, pollWait, pollTick)
}

func TestDoc_Bind_NilAfterBoundDetaches(t *testing.T) {
	st := storetest.New()
	st.Seed(profileRef("u1"), map[string]any{"displayName": "Alice"})

	doc := NewDoc(st, entity.ProfileFromMap)
	defer doc.Close()

	ref := profileRef("u1")
	doc.Bind(context.Background(), &ref)
	require.Eventually(t, func() bool {
		return doc.State().Data != nil
	}, pollWait, pollTick)

	doc.Bind(context.Background(), nil)

	assert.Equal(t, 1, st.CancelCalls())
	s := doc.State()
	assert.Nil(t, s.Data)
	assert.False(t, s.Loading)
}

func TestDoc_UpdatePropagatesToState(t *testing.T) {
	st := storetest.New()
	st.Seed(profileRef("u1"), map[string]any{"displayName": "Alice"})

	doc := NewDoc(st, entity.ProfileFromMap)
	defer doc.Close()

	ref := profileRef("u1")
	doc.Bind(context.Background(), &ref)
	require.Eventually(t, func() bool {
		return doc.State().Data != nil
	}, pollWait, pollTick)

	require.NoError(t, st.UpdateDoc(context.Background(), ref, map[string]any{"displayName": "Alicia"}))

	require.Eventually(t, func() bool {
		s := doc.State()

		return s.Data != nil && s.Data.DisplayName == "Alicia"
	}, pollWait, pollTick)
}

func TestDoc_WatchErrorPreservesLastData(t *testing.T) {
	st := storetest.New()
	st.Seed(profileRef("u1"), map[string]any{"displayName": "Alice"})

	doc := NewDoc(st, entity.ProfileFromMap)
	defer doc.Close()

	ref := profileRef("u1")
	doc.Bind(context.Background(), &ref)
	require.Eventually(t, func() bool {
		return doc.State().Data != nil
	}, pollWait, pollTick)

	st.EmitDocError(ref, errors.New("listen failed"))

	require.Eventually(t, func() bool {
		return doc.State().Err != nil
	}, pollWait, pollTick)

	s := doc.State()
	require.NotNil(t, s.Data)
	assert.Equal(t, "Alice", s.Data.DisplayName)
}

func TestDoc_Updates_CoalescesToLatest(t *testing.T) {
	st := storetest.New()

	doc := NewDoc(st, entity.ProfileFromMap)
	defer doc.Close()

	ref := profileRef("u1")
	doc.Bind(context.Background(), &ref)

	for i := 0; i < 5; i++ {
		require.NoError(t, st.SetDoc(context.Background(), ref, map[string]any{"displayName": "Alice"}))
	}
	require.NoError(t, st.SetDoc(context.Background(), ref, map[string]any{"displayName": "Final"}))

	require.Eventually(t, func() bool {
		select {
		case s := <-doc.Updates():
			return s.Data != nil && s.Data.DisplayName == "Final"
		default:
			return false
		}
	}, pollWait, pollTick)
}
