// Package repotest provides in-memory stand-ins for repo.Tx so repositories
// can be tested against the SQL they emit without a database.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Tx struct {
	QueryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	ExecFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *Tx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("copy not implemented")
}

func (s *Tx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	var results pgx.BatchResults
	return results
}

func (s *Tx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if s.ExecFunc == nil {
		return pgconn.CommandTag{}, errors.New("exec not implemented")
	}
	return s.ExecFunc(ctx, sql, args...)
}

func (s *Tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if s.QueryFunc == nil {
		return nil, errors.New("query not implemented")
	}
	return s.QueryFunc(ctx, sql, args...)
}

func (s *Tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if s.QueryRowFunc == nil {
		return Row{Err: errors.New("query row not implemented")}
	}
	return s.QueryRowFunc(ctx, sql, args...)
}

// Tag builds the command tag Exec reports, e.g. Tag("UPDATE 1").
func Tag(s string) pgconn.CommandTag {
	return pgconn.NewCommandTag(s)
}

// Rows serves Data one row at a time. Scan assigns each value to the
// matching destination by reflection; a nil value zeroes the destination.
type Rows struct {
	Data [][]any
	Fail error
	idx  int
}

func (r *Rows) Next() bool {
	if r.idx >= len(r.Data) {
		return false
	}
	r.idx++
	return true
}

func (r *Rows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.Data) {
		return errors.New("no current row to scan")
	}
	return assign(r.Data[r.idx-1], dest)
}

func (r *Rows) Values() ([]any, error) {
	if r.idx == 0 || r.idx > len(r.Data) {
		return nil, errors.New("no current row")
	}
	return r.Data[r.idx-1], nil
}

func (r *Rows) RawValues() [][]byte                          { return nil }
func (r *Rows) Err() error                                   { return r.Fail }
func (r *Rows) Close()                                       {}
func (r *Rows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *Rows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *Rows) Conn() *pgx.Conn                              { return nil }

// Row is a single-row result. Err, when set, is returned from Scan.
type Row struct {
	Values []any
	Err    error
}

func (r Row) Scan(dest ...any) error {
	if r.Err != nil {
		return r.Err
	}
	return assign(r.Values, dest)
}

func assign(row []any, dest []any) error {
	if len(dest) != len(row) {
		return fmt.Errorf("destination length %d does not match row length %d", len(dest), len(row))
	}
	for i, target := range dest {
		ptr := reflect.ValueOf(target)
		if ptr.Kind() != reflect.Ptr || ptr.IsNil() {
			return fmt.Errorf("scan target %d is not a pointer", i)
		}
		elem := ptr.Elem()
		if row[i] == nil {
			elem.Set(reflect.Zero(elem.Type()))
			continue
		}
		v := reflect.ValueOf(row[i])
		switch {
		case v.Type().AssignableTo(elem.Type()):
			elem.Set(v)
		case elem.Kind() == reflect.Ptr && v.Type().AssignableTo(elem.Type().Elem()):
			p := reflect.New(elem.Type().Elem())
			p.Elem().Set(v)
			elem.Set(p)
		case v.Type().ConvertibleTo(elem.Type()):
			elem.Set(v.Convert(elem.Type()))
		default:
			return fmt.Errorf("cannot scan %T into %s", row[i], elem.Type())
		}
	}
	return nil
}
