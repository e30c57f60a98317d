package storage

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yourusername/library-api/internal/pkg/errors"
)

func TestLocalStorage_SaveResolveDelete(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key, err := s.Save(ctx, KindBook, "My Book.pdf", strings.NewReader("content"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "books/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))

	location, err := s.Resolve(ctx, key)
	require.NoError(t, err)
	data, err := os.ReadFile(location.Path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Resolve(ctx, key)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLocalStorage_KeysAreUnique(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	k1, err := s.Save(ctx, KindCover, "same.jpg", strings.NewReader("a"))
	require.NoError(t, err)
	k2, err := s.Save(ctx, KindCover, "same.jpg", strings.NewReader("b"))
	require.NoError(t, err)

	assert.NotEqual(t, k1, k2, "identical client filenames must not collide")
}

func TestLocalStorage_DeleteMissingIsNoError(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, s.Delete(context.Background(), "books/nothing-here.pdf"))
}
