package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *AttachmentStore {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "attachments"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAttachmentStore_CRUD(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Create([]byte("receipt scan"))
	require.NoError(t, err)

	data, err := s.Read(id)
	require.NoError(t, err)
	assert.Equal(t, []byte("receipt scan"), data)

	require.NoError(t, s.Update(id, []byte("updated scan")))
	data, err = s.Read(id)
	require.NoError(t, err)
	assert.Equal(t, []byte("updated scan"), data)

	require.NoError(t, s.Delete(id))
	_, err = s.Read(id)
	assert.ErrorIs(t, err, ErrAttachmentNotFound)
}

func TestAttachmentStore_MissingID(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Create([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, s.Delete(id))

	assert.ErrorIs(t, s.Update(id, []byte("y")), ErrAttachmentNotFound)
	assert.ErrorIs(t, s.Delete(id), ErrAttachmentNotFound)
}

func TestAttachmentStore_List(t *testing.T) {
	s := newTestStore(t)

	id1, err := s.Create([]byte("one"))
	require.NoError(t, err)
	id2, err := s.Create([]byte("two"))
	require.NoError(t, err)

	ids, err := s.List()
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, id1)
	assert.Contains(t, ids, id2)
}
