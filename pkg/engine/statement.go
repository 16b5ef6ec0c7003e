package engine

import "zombiezen.com/go/sqlite"

// Statement is a compiled statement.
//
// It moves between ready and stepping; Reset returns it to ready so it can
// run again. Statements are prepared transient so the engine never evicts
// them; the owner must call Finalize.
type Statement struct {
	conn *Conn
	stmt *sqlite.Stmt
	sql  string
}

// SQL returns the source text the statement was compiled from.
func (s *Statement) SQL() string {
	return s.sql
}

// Step advances the statement. It reports whether a row is available; false
// with a nil error means the statement is done.
//
// An error returned by a registered function fails the step: the statement
// is reset and the function's error is returned wrapped in *Error, so
// errors.Is and errors.As still see it.
func (s *Statement) Step() (bool, error) {
	s.conn.fnErr = nil
	row, err := s.stmt.Step()
	if fnErr := s.conn.takeFunctionError(); fnErr != nil {
		_ = s.stmt.Reset()
		return false, functionError(fnErr)
	}
	if err != nil {
		return false, wrapError("step", err)
	}
	return row, nil
}

// Reset makes the statement ready to run again.
func (s *Statement) Reset() error {
	if err := s.stmt.Reset(); err != nil {
		return wrapError("reset", err)
	}
	return nil
}

// Finalize releases the statement.
func (s *Statement) Finalize() error {
	if err := s.stmt.Finalize(); err != nil {
		return wrapError("finalize", err)
	}
	return nil
}

// ColumnCount returns the number of result columns.
func (s *Statement) ColumnCount() int {
	return s.stmt.ColumnCount()
}

// Column returns column col of the current row as int64, float64, string,
// []byte or nil.
func (s *Statement) Column(col int) any {
	switch s.stmt.ColumnType(col) {
	case sqlite.TypeInteger:
		return s.stmt.ColumnInt64(col)
	case sqlite.TypeFloat:
		return s.stmt.ColumnFloat(col)
	case sqlite.TypeText:
		return s.stmt.ColumnText(col)
	case sqlite.TypeBlob:
		buf := make([]byte, s.stmt.ColumnLen(col))
		s.stmt.ColumnBytes(col, buf)
		return buf
	default:
		return nil
	}
}
