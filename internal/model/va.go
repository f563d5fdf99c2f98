package model

import (
	"errors"

	"scopeview/pkg/geometry"
)

// ErrNotApplicable is returned when a value has no range or no choices.
var ErrNotApplicable = errors.New("not applicable")

// UndefinedROI is the region of interest meaning "nothing selected".
var UndefinedROI = geometry.Box{}

// VA is an observable hardware setting that may be constrained by a range or
// by a set of choices.
type VA[T any] struct {
	*Observable[T]

	hasRange bool
	min, max T
	choices  []T
}

// VAOption configures a VA.
type VAOption[T any] func(*VA[T])

// WithRange constrains the VA to [lo, hi].
func WithRange[T any](lo, hi T) VAOption[T] {
	return func(va *VA[T]) {
		va.hasRange = true
		va.min, va.max = lo, hi
	}
}

// WithChoices constrains the VA to a fixed set of values.
func WithChoices[T any](choices ...T) VAOption[T] {
	return func(va *VA[T]) {
		va.choices = choices
	}
}

// NewVA returns a VA holding v.
func NewVA[T any](v T, opts ...VAOption[T]) *VA[T] {
	va := &VA[T]{Observable: NewObservable(v)}
	for _, opt := range opts {
		opt(va)
	}
	return va
}

// Range returns the allowed range, or ErrNotApplicable.
func (va *VA[T]) Range() (lo, hi T, err error) {
	if !va.hasRange {
		return lo, hi, ErrNotApplicable
	}
	return va.min, va.max, nil
}

// Choices returns the allowed values, or ErrNotApplicable.
func (va *VA[T]) Choices() ([]T, error) {
	if va.choices == nil {
		return nil, ErrNotApplicable
	}
	return va.choices, nil
}

// SetChoices replaces the allowed values. Holders of the previous choices are
// not notified; the value itself is left unchanged.
func (va *VA[T]) SetChoices(choices ...T) {
	va.choices = choices
}

// SetRange replaces the allowed range.
func (va *VA[T]) SetRange(lo, hi T) {
	va.hasRange = true
	va.min, va.max = lo, hi
}
