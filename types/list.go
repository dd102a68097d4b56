package types

import (
	"fmt"
)

// List is an append-only sequence with bounds-checked reads.
type List[T any] struct {
	data []T
}

func NewList[T any](items ...T) *List[T] {
	l := &List[T]{
		data: make([]T, 0, len(items)),
	}
	l.data = append(l.data, items...)
	return l
}

func (l *List[T]) Get(idx int) (T, error) {
	var empty T
	if idx > len(l.data)-1 || idx < 0 {
		return empty, fmt.Errorf("index out of range. idx %d len %d",
			idx,
			len(l.data))
	}

	return l.data[idx], nil
}

// At returns the element at idx. Callers check InRange first.
func (l *List[T]) At(idx int) T {
	return l.data[idx]
}

func (l *List[T]) Append(val T) {
	l.data = append(l.data, val)
}

// InRange reports whether idx addresses an element.
func (l *List[T]) InRange(idx int) bool {
	return idx >= 0 && idx < len(l.data)
}

func (l *List[T]) Len() int {
	return len(l.data)
}

// Slice returns a copy of the elements in order.
func (l *List[T]) Slice() []T {
	out := make([]T, len(l.data))
	copy(out, l.data)
	return out
}
