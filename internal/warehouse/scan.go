package warehouse

import (
	"fmt"
	"strings"

	"github.com/treeline-data/treeline/internal/frame"
)

// Session provides access to warehouse tables. It is the context handle the
// pipeline runs against.
type Session struct {
	store *Store
}

// NewSession creates a session over an open store.
func NewSession(store *Store) *Session {
	return &Session{store: store}
}

// Store returns the underlying table store.
func (s *Session) Store() *Store {
	return s.store
}

// Table returns a lazy scan over the named table. The table is not read
// until the scan is collected.
func (s *Session) Table(ref TableRef) *Scan {
	return &Scan{sess: s, ref: ref}
}

// Save uploads a materialized frame as a named table.
func (s *Session) Save(ref TableRef, f *frame.Frame) error {
	return s.store.SaveTable(ref, f)
}

// scanOp is a deferred transformation applied during Collect.
type scanOp interface {
	apply(f *frame.Frame) (*frame.Frame, error)
	String() string
}

// Scan is a lazily evaluated view over a table. Each transformation returns
// a new Scan; the receiver is never mutated.
type Scan struct {
	sess *Session
	ref  TableRef
	ops  []scanOp
}

// withOp derives a new scan with one more pending operation.
func (sc *Scan) withOp(op scanOp) *Scan {
	ops := make([]scanOp, len(sc.ops), len(sc.ops)+1)
	copy(ops, sc.ops)
	return &Scan{sess: sc.sess, ref: sc.ref, ops: append(ops, op)}
}

// FilterLess keeps rows where the numeric column is strictly below threshold.
func (sc *Scan) FilterLess(column string, threshold float64) *Scan {
	return sc.withOp(&filterLessOp{column: column, threshold: threshold})
}

// Drop removes the named columns.
func (sc *Scan) Drop(columns ...string) *Scan {
	return sc.withOp(&dropOp{columns: columns})
}

// Select keeps only the named columns, in the given order.
func (sc *Scan) Select(columns ...string) *Scan {
	return sc.withOp(&selectOp{columns: columns})
}

// FillMissing replaces nulls with type-specific defaults: stringFill for
// string columns, zero for numeric columns.
func (sc *Scan) FillMissing(stringFill string) *Scan {
	return sc.withOp(&fillMissingOp{stringFill: stringFill})
}

// Rename renames a column.
func (sc *Scan) Rename(oldName, newName string) *Scan {
	return sc.withOp(&renameOp{oldName: oldName, newName: newName})
}

// Union appends the rows of another scan with an identical schema.
func (sc *Scan) Union(other *Scan) *Scan {
	return sc.withOp(&unionOp{other: other})
}

// Collect reads the table and applies all pending operations in order.
func (sc *Scan) Collect() (*frame.Frame, error) {
	f, err := sc.sess.store.LoadTable(sc.ref)
	if err != nil {
		return nil, err
	}

	for _, op := range sc.ops {
		f, err = op.apply(f)
		if err != nil {
			return nil, fmt.Errorf("collecting scan of %s: %w", sc.ref, err)
		}
	}
	return f, nil
}

// SaveAsTable collects the scan and uploads the result under a new name.
func (sc *Scan) SaveAsTable(ref TableRef) error {
	f, err := sc.Collect()
	if err != nil {
		return err
	}
	return sc.sess.store.SaveTable(ref, f)
}

// String describes the scan and its pending operations.
func (sc *Scan) String() string {
	parts := []string{fmt.Sprintf("Scan(%s)", sc.ref)}
	for _, op := range sc.ops {
		parts = append(parts, op.String())
	}
	return strings.Join(parts, " -> ")
}

type filterLessOp struct {
	column    string
	threshold float64
}

func (op *filterLessOp) apply(f *frame.Frame) (*frame.Frame, error) {
	return f.FilterLess(op.column, op.threshold)
}

func (op *filterLessOp) String() string {
	return fmt.Sprintf("filter(%s < %g)", op.column, op.threshold)
}

type dropOp struct {
	columns []string
}

func (op *dropOp) apply(f *frame.Frame) (*frame.Frame, error) {
	return f.Drop(op.columns...), nil
}

func (op *dropOp) String() string {
	return fmt.Sprintf("drop(%s)", strings.Join(op.columns, ", "))
}

type selectOp struct {
	columns []string
}

func (op *selectOp) apply(f *frame.Frame) (*frame.Frame, error) {
	return f.Select(op.columns...), nil
}

func (op *selectOp) String() string {
	return fmt.Sprintf("select(%s)", strings.Join(op.columns, ", "))
}

type fillMissingOp struct {
	stringFill string
}

func (op *fillMissingOp) apply(f *frame.Frame) (*frame.Frame, error) {
	return f.FillMissing(op.stringFill), nil
}

func (op *fillMissingOp) String() string {
	return fmt.Sprintf("fill_missing(%q, 0)", op.stringFill)
}

type renameOp struct {
	oldName string
	newName string
}

func (op *renameOp) apply(f *frame.Frame) (*frame.Frame, error) {
	return f.Rename(op.oldName, op.newName)
}

func (op *renameOp) String() string {
	return fmt.Sprintf("rename(%s -> %s)", op.oldName, op.newName)
}

type unionOp struct {
	other *Scan
}

func (op *unionOp) apply(f *frame.Frame) (*frame.Frame, error) {
	otherFrame, err := op.other.Collect()
	if err != nil {
		return nil, err
	}
	return f.Concat(otherFrame)
}

func (op *unionOp) String() string {
	return fmt.Sprintf("union(%s)", op.other.ref)
}
