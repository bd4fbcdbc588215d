package model

import (
	"encoding/json"
	"fmt"
	"iter"
	"slices"
)

// Collection is an ordered list of models.
type Collection[T any] struct {
	items []T
}

func NewCollection[T any](items ...T) *Collection[T] {
	return &Collection[T]{items: slices.Clone(items)}
}

// Collect fills one new model per row.
//
//	users, err := model.Collect(rows, func() *User { return &User{} })
func Collect[T any](rows []map[string]any, newModel func() T) (*Collection[T], error) {
	c := &Collection[T]{items: make([]T, 0, len(rows))}
	for i, row := range rows {
		m := newModel()
		if err := Fill(m, row); err != nil {
			return nil, fmt.Errorf("model: row %d: %w", i, err)
		}
		c.items = append(c.items, m)
	}
	return c, nil
}

func (c *Collection[T]) Len() int { return len(c.items) }

func (c *Collection[T]) Items() []T { return slices.Clone(c.items) }

func (c *Collection[T]) Add(items ...T) { c.items = append(c.items, items...) }

// At returns item i and whether it exists.
func (c *Collection[T]) At(i int) (T, bool) {
	if i < 0 || i >= len(c.items) {
		var zero T
		return zero, false
	}
	return c.items[i], true
}

// All iterates index, item pairs.
func (c *Collection[T]) All() iter.Seq2[int, T] {
	return slices.All(c.items)
}

func (c *Collection[T]) Values() []any {
	out := make([]any, len(c.items))
	for i, item := range c.items {
		out[i] = item
	}
	return out
}

func (c *Collection[T]) MarshalJSON() ([]byte, error) {
	if c.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.items)
}
