// Copyright (c) 2026 Folivafy authors. All rights reserved.

package store

import (
	"encoding/json"
	"fmt"
)

// FilterOp is the comparison operator of a [Filter] leaf.
type FilterOp string

const (
	OpEq           FilterOp = "eq"
	OpNe           FilterOp = "ne"
	OpLt           FilterOp = "lt"
	OpLe           FilterOp = "le"
	OpGt           FilterOp = "gt"
	OpGe           FilterOp = "ge"
	OpStartsWith   FilterOp = "startsWith"
	OpContainsText FilterOp = "containsText"
	OpIn           FilterOp = "in"
	OpNull         FilterOp = "null"
	OpNotNull      FilterOp = "notnull"
)

// Filter is a tagged search-predicate tree. Exactly one of the leaf
// fields (Field != "") or the inner-node fields (len(And) > 0 or
// len(Or) > 0) is populated; [Filter.Validate] enforces this.
//
// It marshals back to the same JSON shape it was parsed from so that
// "filter tree -> persisted JSON -> parsed tree" is the identity
// function.
type Filter struct {
	// Leaf: FieldOpValue or FieldOp.
	Field string      `json:"f,omitempty"`
	Op    FilterOp    `json:"o,omitempty"`
	Value interface{} `json:"v,omitempty"`

	// Inner node.
	And []Filter `json:"and,omitempty"`
	Or  []Filter `json:"or,omitempty"`
}

// IsLeaf reports whether f is a comparison leaf rather than an and/or node.
func (f Filter) IsLeaf() bool {
	return f.Field != ""
}

// RequiresValue reports whether f's operator takes a comparison value
// (every leaf operator except null/notnull).
func (f Filter) RequiresValue() bool {
	return f.Op != OpNull && f.Op != OpNotNull
}

// Validate walks the tree and rejects malformed nodes: a leaf must name
// both a field and a recognized operator; an inner node must have at
// least one child and no leaf fields of its own.
func (f Filter) Validate() error {
	leaf := f.Field != ""
	inner := len(f.And) > 0 || len(f.Or) > 0

	switch {
	case leaf && inner:
		return fmt.Errorf("filter node cannot be both a leaf and and/or")
	case leaf:
		switch f.Op {
		case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpStartsWith, OpContainsText, OpIn, OpNull, OpNotNull:
		default:
			return fmt.Errorf("filter: unknown operator %q", f.Op)
		}
		if f.RequiresValue() && f.Value == nil {
			return fmt.Errorf("filter: operator %q requires a value", f.Op)
		}
		return nil
	case inner:
		for _, child := range f.And {
			if err := child.Validate(); err != nil {
				return err
			}
		}
		for _, child := range f.Or {
			if err := child.Validate(); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("filter node is neither a leaf nor an and/or node")
	}
}

// ParseFilter decodes a JSON search-filter body into a [Filter] tree and
// validates it.
func ParseFilter(data []byte) (*Filter, error) {
	var f Filter
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("filter: invalid JSON: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}
