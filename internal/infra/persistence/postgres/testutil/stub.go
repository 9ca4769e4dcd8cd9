// Package testutil provides a stub database/sql driver that models the
// snapshot state table for postgres store tests.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync/atomic"
)

var driverSeq atomic.Int64

// StubConn records statements and keeps state rows keyed by bucket. Upserts
// issued inside a transaction become visible only after commit.
type StubConn struct {
	Execs      []string
	State      map[string][]byte
	FailPing   bool
	FailExec   bool
	FailBegin  bool
	FailCommit bool
	FailQuery  bool
	RowsErr    error

	pending map[string][]byte
	inTx    bool
}

// NewStubDB registers a uniquely named driver and opens a sql.DB backed by a
// single stub connection.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{State: make(map[string][]byte)}
	name := fmt.Sprintf("stubpg%d", driverSeq.Add(1))
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

type stubDriver struct {
	conn *StubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) {
	return d.conn, nil
}

// Prepare implements driver.Conn.
func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// Ping implements driver.Pinger.
func (c *StubConn) Ping(_ context.Context) error {
	if c.FailPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

// BeginTx implements driver.ConnBeginTx.
func (c *StubConn) BeginTx(_ context.Context, _ driver.TxOptions) (driver.Tx, error) {
	if c.FailBegin {
		return nil, fmt.Errorf("begin fail")
	}
	c.inTx = true
	c.pending = make(map[string][]byte)
	return &stubTx{conn: c}, nil
}

// ExecContext implements driver.ExecerContext. Only the state upsert mutates
// rows; other statements are recorded and acknowledged.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.Execs = append(c.Execs, query)
	if c.FailExec {
		return nil, fmt.Errorf("exec fail")
	}
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "INSERT INTO STATE") {
		return driver.RowsAffected(0), nil
	}
	if len(args) != 2 {
		return nil, fmt.Errorf("expected bucket and payload args, got %d", len(args))
	}
	bucket, ok := args[0].Value.(string)
	if !ok {
		return nil, fmt.Errorf("bucket must be a string, got %T", args[0].Value)
	}
	payload, err := toBytes(args[1].Value)
	if err != nil {
		return nil, err
	}
	if c.inTx {
		c.pending[bucket] = payload
	} else {
		c.State[bucket] = payload
	}
	return driver.RowsAffected(1), nil
}

// QueryContext implements driver.QueryerContext for SELECT bucket, payload FROM state.
func (c *StubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	if c.FailQuery {
		return nil, fmt.Errorf("query fail")
	}
	if !strings.Contains(strings.ToLower(query), "from state") {
		return nil, fmt.Errorf("unsupported query: %s", query)
	}
	buckets := make([]string, 0, len(c.State))
	for bucket := range c.State {
		buckets = append(buckets, bucket)
	}
	sort.Strings(buckets)
	rows := make([][]driver.Value, 0, len(buckets))
	for _, bucket := range buckets {
		rows = append(rows, []driver.Value{bucket, c.State[bucket]})
	}
	return &stubRows{cols: []string{"bucket", "payload"}, rows: rows, err: c.RowsErr}, nil
}

func toBytes(v driver.Value) ([]byte, error) {
	switch p := v.(type) {
	case []byte:
		out := make([]byte, len(p))
		copy(out, p)
		return out, nil
	case string:
		return []byte(p), nil
	}
	return nil, fmt.Errorf("payload must be bytes, got %T", v)
}

type stubTx struct {
	conn *StubConn
}

func (t *stubTx) Commit() error {
	defer t.reset()
	if t.conn.FailCommit {
		return fmt.Errorf("commit fail")
	}
	for bucket, payload := range t.conn.pending {
		t.conn.State[bucket] = payload
	}
	return nil
}

func (t *stubTx) Rollback() error {
	t.reset()
	return nil
}

func (t *stubTx) reset() {
	t.conn.inTx = false
	t.conn.pending = nil
}

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
	err  error
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}
