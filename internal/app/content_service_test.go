package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentCRUD(t *testing.T) {
	f := newFixture(t)
	admin := f.registerAdmin("admin@example.com")

	created, err := f.contents.Create(f.ctx, admin, " home.banner ", "Welcome")
	require.NoError(t, err)
	assert.Equal(t, "home.banner", created.Key)

	_, err = f.contents.Create(f.ctx, admin, "home.banner", "Again")
	assert.ErrorIs(t, err, ErrContentExists)

	_, err = f.contents.Create(f.ctx, admin, "about", "About us")
	require.NoError(t, err)

	list, err := f.contents.List(f.ctx, admin)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "about", list[0].Key)

	updated, err := f.contents.Update(f.ctx, admin, "home.banner", "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello", updated.Value)

	got, err := f.contents.Get(f.ctx, admin, "home.banner")
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Value)

	require.NoError(t, f.contents.Delete(f.ctx, admin, "home.banner"))
	_, err = f.contents.Get(f.ctx, admin, "home.banner")
	assert.ErrorIs(t, err, ErrContentNotFound)
	assert.ErrorIs(t, f.contents.Delete(f.ctx, admin, "home.banner"), ErrContentNotFound)
}

func TestContentRequiresAdminAndKey(t *testing.T) {
	f := newFixture(t)
	admin := f.registerAdmin("admin@example.com")
	regular := f.register("user@example.com")

	_, err := f.contents.List(f.ctx, regular)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.contents.Create(f.ctx, regular, "k", "v")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.contents.Create(f.ctx, admin, "   ", "v")
	assert.ErrorIs(t, err, ErrContentKeyMissing)
	_, err = f.contents.Update(f.ctx, admin, "missing", "v")
	assert.ErrorIs(t, err, ErrContentNotFound)
}
