//go:build unit

package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// MockDBTX is a shared.DBTX whose calls are matched on the SQL text and
// arguments.
type MockDBTX struct {
	mock.Mock
}

func (m *MockDBTX) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	mockArgs := m.Called(ctx, query, args)
	return mockArgs.Get(0).(pgconn.CommandTag), mockArgs.Error(1)
}

func (m *MockDBTX) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	mockArgs := m.Called(ctx, query, args)
	rows, _ := mockArgs.Get(0).(pgx.Rows)
	return rows, mockArgs.Error(1)
}

func (m *MockDBTX) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	mockArgs := m.Called(ctx, query, args)
	return mockArgs.Get(0).(pgx.Row)
}

// fakeRow answers Scan with err or by running fill on the destinations.
type fakeRow struct {
	fill func(dest ...any)
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.fill != nil {
		r.fill(dest...)
	}
	return nil
}

// fakeRows is a minimal pgx.Rows over in-memory records.
type fakeRows struct {
	pgx.Rows
	records [][]any
	idx     int
	err     error
	closed  bool
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.records) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	rec := r.records[r.idx-1]
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = rec[i].(int64)
		case *int:
			*p = rec[i].(int)
		case *string:
			*p = rec[i].(string)
		case *[]byte:
			*p = rec[i].([]byte)
		default:
			setTime(p, rec[i])
		}
	}
	return nil
}

func (r *fakeRows) Err() error { return r.err }
func (r *fakeRows) Close()     { r.closed = true }
