// Package boltdb keeps the category bookkeeping the vector index payloads
// refer to. It owns no referential integrity; ingestion accepts any
// category value.
package boltdb

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"go.etcd.io/bbolt"

	"github.com/docblade/docblade"
)

var (
	ErrCategoryExists   = errors.New("category already exists")
	ErrCategoryNotFound = errors.New("category not found")
)

var (
	bucketCategories = []byte("categories")
	bucketNames      = []byte("category_names")
)

type Registry struct {
	db *bbolt.DB
}

func NewRegistry(path string) (*Registry, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketCategories); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketNames); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Registry{db: db}, nil
}

func (r *Registry) Create(name string) (docblade.Category, error) {
	var category docblade.Category

	err := r.db.Update(func(tx *bbolt.Tx) error {
		names := tx.Bucket(bucketNames)
		if names.Get([]byte(name)) != nil {
			return ErrCategoryExists
		}

		categories := tx.Bucket(bucketCategories)
		id, err := categories.NextSequence()
		if err != nil {
			return err
		}

		category = docblade.Category{ID: id, Name: name}

		data, err := json.Marshal(category)
		if err != nil {
			return err
		}

		key := []byte(strconv.FormatUint(id, 10))
		if err := categories.Put(key, data); err != nil {
			return err
		}

		return names.Put([]byte(name), key)
	})
	if err != nil {
		return docblade.Category{}, err
	}

	return category, nil
}

func (r *Registry) List() ([]docblade.Category, error) {
	var categories []docblade.Category

	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCategories).ForEach(func(_, data []byte) error {
			var category docblade.Category
			if err := json.Unmarshal(data, &category); err != nil {
				return err
			}

			categories = append(categories, category)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return categories, nil
}

func (r *Registry) GetByName(name string) (docblade.Category, error) {
	var category docblade.Category

	err := r.db.View(func(tx *bbolt.Tx) error {
		key := tx.Bucket(bucketNames).Get([]byte(name))
		if key == nil {
			return ErrCategoryNotFound
		}

		data := tx.Bucket(bucketCategories).Get(key)
		if data == nil {
			return ErrCategoryNotFound
		}

		return json.Unmarshal(data, &category)
	})
	if err != nil {
		return docblade.Category{}, err
	}

	return category, nil
}

func (r *Registry) Close() error {
	return r.db.Close()
}
