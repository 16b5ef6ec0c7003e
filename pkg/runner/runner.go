// Package runner executes a SQL script: every statement is compiled and run
// once in file order, then the compiled sequence is re-run until the script
// stops, a statement fails or the context is canceled.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/muesli/termenv"

	"github.com/zurustar/sqhell/pkg/engine"
)

// Stopper reports an exit requested from inside a statement.
type Stopper interface {
	StopRequested() (code int, ok bool)
}

// Runner owns the compiled statements of one script.
type Runner struct {
	conn    *engine.Conn
	stmts   []*engine.Statement
	stopper Stopper
	log     *slog.Logger
	diag    *termenv.Output
	ctx     context.Context
	passes  int
}

// Option configures a Runner.
type Option func(*Runner)

// WithDiagnostics sets where compile and execution errors are written.
// The default is stderr.
func WithDiagnostics(w io.Writer) Option {
	return func(r *Runner) {
		r.diag = termenv.NewOutput(w)
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Runner) {
		r.log = log
	}
}

// WithStopper sets the source of exit requests.
func WithStopper(s Stopper) Option {
	return func(r *Runner) {
		r.stopper = s
	}
}

// New creates a runner on conn.
func New(conn *engine.Conn, opts ...Option) *Runner {
	r := &Runner{
		conn: conn,
		log:  slog.Default(),
		ctx:  context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.diag == nil {
		r.diag = termenv.NewOutput(os.Stderr)
	}
	return r
}

// Statements returns the statements compiled so far.
func (r *Runner) Statements() []*engine.Statement {
	return r.stmts
}

// Passes returns how many passes over the script have started; Load is
// the first.
func (r *Runner) Passes() int {
	return r.passes
}

// Load compiles src one statement at a time, executing each statement as
// soon as it compiles so later statements can see tables created by
// earlier ones. Statements that fail to compile are reported and skipped.
// Loading stops with the context error once the run's context ends.
func (r *Runner) Load(src string) error {
	r.passes++
	rest := src
	for rest != "" {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		stmt, n, err := r.conn.Compile(rest)
		if err != nil {
			r.report("ERROR COMPILING SQL:", err)
			r.log.Debug("Statement skipped", "sql", rest[:n])
		}
		rest = rest[n:]
		if stmt == nil {
			if n == 0 {
				break
			}
			continue
		}

		r.stmts = append(r.stmts, stmt)
		r.log.Debug("Statement compiled", "index", len(r.stmts)-1, "sql", stmt.SQL())
		if err := r.Execute(stmt); err != nil {
			return err
		}
	}
	r.log.Info("Script loaded", "statements", len(r.stmts))
	return nil
}

// Execute runs stmt to completion, discarding rows, and resets it.
//
// A failure caused by an exit request returns *StopError; an interrupt
// after the run's context ended returns the context error; anything else
// is reported and returned as *ExecError.
func (r *Runner) Execute(stmt *engine.Statement) error {
	for {
		row, err := stmt.Step()
		if err != nil {
			_ = stmt.Reset()
			return r.stepFailed(stmt, err)
		}
		if !row {
			break
		}
	}
	if err := stmt.Reset(); err != nil {
		return r.stepFailed(stmt, err)
	}
	return nil
}

func (r *Runner) stepFailed(stmt *engine.Statement, err error) error {
	if r.stopper != nil {
		if code, ok := r.stopper.StopRequested(); ok {
			return &StopError{Code: code}
		}
	}
	if ctxErr := r.ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	r.report("ERROR:", err)
	execErr := &ExecError{Code: engine.Code(err), Message: err.Error(), SQL: stmt.SQL(), Err: err}
	var engineErr *engine.Error
	if errors.As(err, &engineErr) {
		execErr.Message = engineErr.Message
	}
	return execErr
}

// Iterate re-executes every statement once, in file order.
func (r *Runner) Iterate() error {
	r.passes++
	for _, stmt := range r.stmts {
		if err := r.Execute(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Run loads src and then iterates until the script stops, a statement
// fails or ctx ends. Canceling ctx interrupts the running statement.
func (r *Runner) Run(ctx context.Context, src string) error {
	r.ctx = ctx
	r.conn.SetInterrupt(ctx.Done())
	defer func() {
		r.conn.SetInterrupt(nil)
		r.ctx = context.Background()
	}()

	if err := r.Load(src); err != nil {
		return err
	}
	if len(r.stmts) == 0 {
		// 何も実行するものがない
		r.log.Warn("Script has no statements; waiting for cancellation")
		<-ctx.Done()
		return ctx.Err()
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.Iterate(); err != nil {
			return err
		}
	}
}

// Close finalizes every statement.
func (r *Runner) Close() error {
	var errs []error
	for _, stmt := range r.stmts {
		if err := stmt.Finalize(); err != nil {
			errs = append(errs, err)
		}
	}
	r.stmts = nil
	return errors.Join(errs...)
}

// report writes "<prefix> <code> <message>" to the diagnostic stream, with
// the primary result code.
func (r *Runner) report(prefix string, err error) {
	message := err.Error()
	var engineErr *engine.Error
	if errors.As(err, &engineErr) {
		message = engineErr.Message
	}
	label := r.diag.String(prefix).Foreground(r.diag.Color("1")).Bold()
	fmt.Fprintf(r.diag, "%s %d %s\n", label, engine.Code(err)&0xff, message)
}
