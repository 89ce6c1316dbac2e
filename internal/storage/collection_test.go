package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

type failingBackend struct {
	*MemoryBackend
	getErr error
	setErr error
	sets   int
}

func (f *failingBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.MemoryBackend.Get(ctx, key)
}

func (f *failingBackend) Set(ctx context.Context, key string, value []byte) error {
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryBackend.Set(ctx, key, value)
}

func TestCollection_LoadMissingKeyIsEmpty(t *testing.T) {
	coll := NewCollection[record](NewMemoryBackend(), KeyCatalog, nil)

	items := coll.Load(context.Background())
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestCollection_LoadTolerance(t *testing.T) {
	cases := map[string]string{
		"corrupt json":   `[{"id":1,`,
		"not an array":   `{"id":1}`,
		"blank":          `   `,
		"json null":      `null`,
		"wrong elements": `["a","b"]`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			backend := NewMemoryBackend()
			require.NoError(t, backend.Set(context.Background(), KeyCatalog, []byte(content)))

			items := NewCollection[record](backend, KeyCatalog, nil).Load(context.Background())
			assert.NotNil(t, items)
			assert.Empty(t, items)
		})
	}
}

func TestCollection_LoadReadFailureIsEmpty(t *testing.T) {
	backend := &failingBackend{MemoryBackend: NewMemoryBackend(), getErr: errors.New("quota")}

	items := NewCollection[record](backend, KeyCart, nil).Load(context.Background())
	assert.Equal(t, []record{}, items)
}

func TestCollection_SaveFailureIsSwallowed(t *testing.T) {
	backend := &failingBackend{MemoryBackend: NewMemoryBackend(), setErr: errors.New("quota exceeded")}
	coll := NewCollection[record](backend, KeyCart, nil)

	assert.NotPanics(t, func() { coll.Save(context.Background(), []record{{ID: 1}}) })
	assert.Equal(t, 1, backend.sets)
}

func TestCollection_RoundTrip(t *testing.T) {
	ctx := context.Background()
	coll := NewCollection[record](NewMemoryBackend(), KeyCatalog, nil)

	in := []record{{ID: 3, Title: "Mochila"}, {ID: 1, Title: "Camiseta"}}
	coll.Save(ctx, in)
	assert.Equal(t, in, coll.Load(ctx))

	coll.Save(ctx, nil)
	assert.Equal(t, []record{}, coll.Load(ctx))

	coll.Save(ctx, in)
	coll.Clear(ctx)
	assert.Empty(t, coll.Load(ctx))
}
