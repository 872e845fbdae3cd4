// Package warehouse provides the embedded table store and the lazy scan
// handles the pipeline reads from.
//
// Tables are persisted in a single bolt database: one bucket maps fully
// qualified table names to msgpack-encoded column blocks. A Scan is a lazy
// view over one table; transformations accumulate as pending operations and
// only run when the scan is collected or saved back as a new table.
package warehouse

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"

	"github.com/treeline-data/treeline/internal/errs"
	"github.com/treeline-data/treeline/internal/frame"
	"github.com/treeline-data/treeline/internal/series"
)

var tablesBucket = []byte("tables")

// TableRef identifies a table by its qualified name. It is immutable.
type TableRef struct {
	Schema string
	Name   string
}

// ParseRef parses "schema.table" or a bare table name into a TableRef.
func ParseRef(qualified string) TableRef {
	for i := len(qualified) - 1; i >= 0; i-- {
		if qualified[i] == '.' {
			return TableRef{Schema: qualified[:i], Name: qualified[i+1:]}
		}
	}
	return TableRef{Name: qualified}
}

// String returns the qualified table name.
func (r TableRef) String() string {
	if r.Schema == "" {
		return r.Name
	}
	return r.Schema + "." + r.Name
}

// WithSuffix derives a new ref in the same schema with a suffixed name.
func (r TableRef) WithSuffix(suffix string) TableRef {
	return TableRef{Schema: r.Schema, Name: r.Name + suffix}
}

// Store is a bolt-backed table catalog.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening warehouse at %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, bucketErr := tx.CreateBucketIfNotExists(tablesBucket)
		return bucketErr
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing warehouse: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// columnRecord is the serialized form of one column. Exactly one of the
// value slices is populated, selected by Kind.
type columnRecord struct {
	Name    string    `msgpack:"name"`
	Kind    string    `msgpack:"kind"`
	Strings []string  `msgpack:"strings,omitempty"`
	Ints    []int64   `msgpack:"ints,omitempty"`
	Floats  []float64 `msgpack:"floats,omitempty"`
	Bools   []bool    `msgpack:"bools,omitempty"`
	Valid   []bool    `msgpack:"valid"`
}

// tableRecord is the serialized form of one table.
type tableRecord struct {
	Rows    int            `msgpack:"rows"`
	Columns []columnRecord `msgpack:"columns"`
}

const (
	kindString = "string"
	kindInt    = "int64"
	kindFloat  = "float64"
	kindBool   = "bool"
)

// SaveTable persists a frame under the given ref, replacing any previous
// table with the same name.
func (s *Store) SaveTable(ref TableRef, f *frame.Frame) error {
	record, err := encodeFrame(f)
	if err != nil {
		return err
	}

	payload, err := msgpack.Marshal(record)
	if err != nil {
		return errs.NewInternalError("SaveTable", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(tablesBucket).Put([]byte(ref.String()), payload)
	})
}

// LoadTable materializes the named table into a frame.
func (s *Store) LoadTable(ref TableRef) (*frame.Frame, error) {
	var payload []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(tablesBucket).Get([]byte(ref.String())); v != nil {
			payload = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, errs.NewInternalError("LoadTable", err)
	}
	if payload == nil {
		return nil, errs.NewTableNotFoundError("LoadTable", ref.String())
	}

	var record tableRecord
	if err := msgpack.Unmarshal(payload, &record); err != nil {
		return nil, errs.NewInternalError("LoadTable", err)
	}

	return decodeFrame(record)
}

// DropTable removes the named table. Dropping a missing table is a no-op.
func (s *Store) DropTable(ref TableRef) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(tablesBucket).Delete([]byte(ref.String()))
	})
}

// HasTable reports whether the named table exists.
func (s *Store) HasTable(ref TableRef) bool {
	exists := false
	_ = s.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(tablesBucket).Get([]byte(ref.String())) != nil
		return nil
	})
	return exists
}

// ListTables returns the qualified names of all stored tables.
func (s *Store) ListTables() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(tablesBucket).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, errs.NewInternalError("ListTables", err)
	}
	return names, nil
}

// encodeFrame converts a frame into its serialized record.
func encodeFrame(f *frame.Frame) (tableRecord, error) {
	record := tableRecord{Rows: f.Len()}

	for _, name := range f.Columns() {
		col, _ := f.Column(name)
		arr := col.Array()

		cr := columnRecord{Name: name, Valid: make([]bool, arr.Len())}
		for i := range cr.Valid {
			cr.Valid[i] = !arr.IsNull(i)
		}

		switch typedArr := arr.(type) {
		case *array.String:
			cr.Kind = kindString
			cr.Strings = make([]string, typedArr.Len())
			for i := 0; i < typedArr.Len(); i++ {
				if cr.Valid[i] {
					cr.Strings[i] = typedArr.Value(i)
				}
			}
		case *array.Int64:
			cr.Kind = kindInt
			cr.Ints = make([]int64, typedArr.Len())
			for i := 0; i < typedArr.Len(); i++ {
				if cr.Valid[i] {
					cr.Ints[i] = typedArr.Value(i)
				}
			}
		case *array.Float64:
			cr.Kind = kindFloat
			cr.Floats = make([]float64, typedArr.Len())
			for i := 0; i < typedArr.Len(); i++ {
				if cr.Valid[i] {
					cr.Floats[i] = typedArr.Value(i)
				}
			}
		case *array.Boolean:
			cr.Kind = kindBool
			cr.Bools = make([]bool, typedArr.Len())
			for i := 0; i < typedArr.Len(); i++ {
				if cr.Valid[i] {
					cr.Bools[i] = typedArr.Value(i)
				}
			}
		default:
			typeName := arr.DataType().String()
			arr.Release()
			return tableRecord{}, errs.NewUnsupportedTypeError("SaveTable", name, typeName)
		}
		arr.Release()

		record.Columns = append(record.Columns, cr)
	}

	return record, nil
}

// decodeFrame rebuilds a frame from its serialized record.
func decodeFrame(record tableRecord) (*frame.Frame, error) {
	mem := memory.NewGoAllocator()
	cols := make([]frame.ISeries, 0, len(record.Columns))

	for _, cr := range record.Columns {
		switch cr.Kind {
		case kindString:
			cols = append(cols, series.NewWithValidity(cr.Name, cr.Strings, cr.Valid, mem))
		case kindInt:
			cols = append(cols, series.NewWithValidity(cr.Name, cr.Ints, cr.Valid, mem))
		case kindFloat:
			cols = append(cols, series.NewWithValidity(cr.Name, cr.Floats, cr.Valid, mem))
		case kindBool:
			cols = append(cols, series.NewWithValidity(cr.Name, cr.Bools, cr.Valid, mem))
		default:
			return nil, errs.NewUnsupportedTypeError("LoadTable", cr.Name, cr.Kind)
		}
	}

	return frame.New(cols...), nil
}
