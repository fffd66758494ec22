package boltdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	registry, err := NewRegistry(filepath.Join(t.TempDir(), "categories.db"))
	if err != nil {
		t.Fatal(err.Error())
	}

	t.Cleanup(func() { registry.Close() })

	return registry
}

func TestCreateCategory(t *testing.T) {
	assert := assert.New(t)

	registry := newTestRegistry(t)

	legal, err := registry.Create("legal")
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(uint64(1), legal.ID)
	assert.Equal("legal", legal.Name)

	finance, err := registry.Create("finance")
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(uint64(2), finance.ID, "IDs are sequential")

	_, err = registry.Create("legal")
	assert.ErrorIs(err, ErrCategoryExists)
}

func TestListCategories(t *testing.T) {
	assert := assert.New(t)

	registry := newTestRegistry(t)

	categories, err := registry.List()
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Empty(categories)

	for _, name := range []string{"legal", "finance", "hr"} {
		if _, err := registry.Create(name); err != nil {
			assert.Fail(err.Error())
			return
		}
	}

	categories, err = registry.List()
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Len(categories, 3)
	assert.Equal("legal", categories[0].Name)
}

func TestGetByName(t *testing.T) {
	assert := assert.New(t)

	registry := newTestRegistry(t)

	created, err := registry.Create("legal")
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	found, err := registry.GetByName("legal")
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(created, found)

	_, err = registry.GetByName("missing")
	assert.ErrorIs(err, ErrCategoryNotFound)
}
