// Package engine is a thin layer over the embedded SQLite engine.
//
// It exposes exactly what the script runner and the binding registry need:
// incremental statement compilation that reports how much of the source was
// consumed, statement stepping and resetting, scalar function registration
// with plain Go values, and interruption of a running statement.
package engine

import (
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"

	"github.com/zurustar/sqhell/pkg/logger"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// MaxFunctionArgs is the largest fixed arity SQLite accepts for a function.
const MaxFunctionArgs = 127

// ScalarFunc implements a script-callable function. Arguments arrive as
// int64, float64, string, []byte or nil. The result may be nil, bool, any
// integer or float type, string or []byte.
type ScalarFunc func(args []any) (any, error)

// Conn is an open engine connection.
type Conn struct {
	conn *sqlite.Conn
	log  *slog.Logger

	// fnErr is the first error returned by a registered function during
	// the current step. The driver does not propagate function errors to
	// the step result, so Statement.Step reads it from here.
	fnErr error
}

// Option configures a Conn.
type Option func(*Conn)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Conn) {
		c.log = log
	}
}

// Open opens a read-write connection, creating the database if needed.
func Open(path string, opts ...Option) (*Conn, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite, sqlite.OpenCreate)
	if err != nil {
		return nil, wrapError("open", err)
	}

	c := &Conn{
		conn: conn,
		log:  logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log.Debug("Engine connection opened", "path", path)
	return c, nil
}

// Close closes the connection. Every statement must be finalized first.
func (c *Conn) Close() error {
	if err := c.conn.Close(); err != nil {
		return wrapError("close", err)
	}
	return nil
}

// SetInterrupt makes any running statement fail once done is closed.
// Passing nil removes the interrupt channel.
func (c *Conn) SetInterrupt(done <-chan struct{}) {
	c.conn.SetInterrupt(done)
}

// Compile compiles the first statement of src and returns it together with
// the number of bytes it consumed.
//
// A blank segment (whitespace, comments and stray semicolons only) yields a
// nil statement and no error. When compilation fails the returned length
// skips to the end of the failing statement so the caller can continue with
// the rest of the source.
func (c *Conn) Compile(src string) (*Statement, int, error) {
	if IsBlank(src) {
		return nil, len(src), nil
	}

	c.fnErr = nil
	stmt, trailing, err := c.conn.PrepareTransient(src)
	if err != nil {
		return nil, StatementEnd(src), wrapError("compile", err)
	}

	consumed := len(src) - trailing
	segment := src[:consumed]
	if IsBlank(segment) {
		if stmt != nil {
			_ = stmt.Finalize()
		}
		return nil, consumed, nil
	}

	return &Statement{conn: c, stmt: stmt, sql: segment}, consumed, nil
}

// CreateFunction registers fn under name for exactly nargs arguments, or for
// any number of arguments when nargs is -1.
func (c *Conn) CreateFunction(name string, nargs int, deterministic bool, fn ScalarFunc) error {
	if nargs < -1 || nargs > MaxFunctionArgs {
		return fmt.Errorf("engine: function %s: invalid argument count %d", name, nargs)
	}

	err := c.conn.CreateFunction(name, &sqlite.FunctionImpl{
		NArgs:         nargs,
		Deterministic: deterministic,
		AllowIndirect: true,
		Scalar: func(ctx sqlite.Context, args []sqlite.Value) (sqlite.Value, error) {
			goArgs := make([]any, len(args))
			for i, arg := range args {
				goArgs[i] = fromValue(arg)
			}
			result, err := fn(goArgs)
			if err != nil {
				if c.fnErr == nil {
					c.fnErr = err
				}
				return sqlite.Value{}, err
			}
			return toValue(result)
		},
	})
	if err != nil {
		return wrapError("create function "+name, err)
	}
	return nil
}

// takeFunctionError returns and clears the recorded function error.
func (c *Conn) takeFunctionError() error {
	err := c.fnErr
	c.fnErr = nil
	return err
}
