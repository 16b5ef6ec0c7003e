package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestConn(t *testing.T) *Conn {
	t.Helper()
	conn, err := Open(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestCompile_ReportsConsumedBytes(t *testing.T) {
	conn := openTestConn(t)

	src := "SELECT 1;\nSELECT 2;"
	stmt, n, err := conn.Compile(src)
	require.NoError(t, err)
	require.NotNil(t, stmt)
	defer stmt.Finalize()

	assert.Equal(t, "SELECT 1;", stmt.SQL())
	assert.Equal(t, len("SELECT 1;"), n)
}

func TestCompile_BlankSegment(t *testing.T) {
	conn := openTestConn(t)

	for _, src := range []string{"", "   \n\t", "-- only a comment\n", "/* block */ ;;  \n"} {
		stmt, n, err := conn.Compile(src)
		assert.NoError(t, err, "src %q", src)
		assert.Nil(t, stmt, "src %q", src)
		assert.Equal(t, len(src), n, "src %q", src)
	}
}

func TestCompile_ErrorSkipsFailingStatement(t *testing.T) {
	conn := openTestConn(t)

	src := "SELEC oops 'a;b';\nSELECT 2;"
	stmt, n, err := conn.Compile(src)
	assert.Nil(t, stmt)
	require.Error(t, err)

	var engineErr *Error
	require.True(t, errors.As(err, &engineErr))
	assert.Equal(t, "compile", engineErr.Op)
	assert.Equal(t, CodeError, engineErr.PrimaryCode())
	assert.Equal(t, "\nSELECT 2;", src[n:])
}

func TestCompile_DependsOnSchema(t *testing.T) {
	conn := openTestConn(t)

	// スキーマを作成する前に参照する文はコンパイルできない
	create, _, err := conn.Compile("CREATE TABLE t(x);")
	require.NoError(t, err)
	defer create.Finalize()

	_, _, err = conn.Compile("INSERT INTO t VALUES (1);")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such table")

	// 実行した後ならコンパイルできる
	row, err := create.Step()
	require.NoError(t, err)
	assert.False(t, row)

	insert, _, err := conn.Compile("INSERT INTO t VALUES (1);")
	require.NoError(t, err)
	defer insert.Finalize()
}

func TestStatement_StepAndReset(t *testing.T) {
	conn := openTestConn(t)

	stmt, _, err := conn.Compile("SELECT 1 UNION ALL SELECT 2;")
	require.NoError(t, err)
	defer stmt.Finalize()

	for run := 0; run < 2; run++ {
		rows := 0
		for {
			row, err := stmt.Step()
			require.NoError(t, err)
			if !row {
				break
			}
			rows++
		}
		assert.Equal(t, 2, rows)
		require.NoError(t, stmt.Reset())
	}
}

func TestStatement_Column(t *testing.T) {
	conn := openTestConn(t)

	stmt, _, err := conn.Compile("SELECT 7, 1.5, 'text', NULL, x'0102';")
	require.NoError(t, err)
	defer stmt.Finalize()

	row, err := stmt.Step()
	require.NoError(t, err)
	require.True(t, row)

	require.Equal(t, 5, stmt.ColumnCount())
	assert.Equal(t, int64(7), stmt.Column(0))
	assert.Equal(t, 1.5, stmt.Column(1))
	assert.Equal(t, "text", stmt.Column(2))
	assert.Nil(t, stmt.Column(3))
	assert.Equal(t, []byte{1, 2}, stmt.Column(4))
}

func TestCreateFunction_ValuesRoundTrip(t *testing.T) {
	conn := openTestConn(t)

	var got []any
	require.NoError(t, conn.CreateFunction("capture", -1, false, func(args []any) (any, error) {
		got = args
		return "ok", nil
	}))
	require.NoError(t, conn.CreateFunction("truthy", 0, true, func(args []any) (any, error) {
		return true, nil
	}))

	stmt, _, err := conn.Compile("SELECT capture(1, 2.5, 'three', NULL, x'04') WHERE truthy() = 1;")
	require.NoError(t, err)
	defer stmt.Finalize()

	row, err := stmt.Step()
	require.NoError(t, err)
	assert.True(t, row)
	assert.Equal(t, []any{int64(1), 2.5, "three", nil, []byte{4}}, got)
}

func TestCreateFunction_ErrorFailsStep(t *testing.T) {
	conn := openTestConn(t)

	errBoom := errors.New("kaboom")
	require.NoError(t, conn.CreateFunction("boom", 0, false, func(args []any) (any, error) {
		return nil, errBoom
	}))

	tests := []struct {
		name string
		sql  string
	}{
		{"select", "SELECT boom();"},
		{"subquery", "SELECT boom() FROM (SELECT 1);"},
		{"create as", "CREATE TABLE t AS SELECT boom() AS x;"},
		{"where", "SELECT 1 WHERE boom() IS NULL;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, _, err := conn.Compile(tt.sql)
			require.NoError(t, err)
			defer stmt.Finalize()

			row, err := stmt.Step()
			require.Error(t, err)
			assert.False(t, row)
			assert.ErrorIs(t, err, errBoom)
			assert.Equal(t, CodeError, Code(err)&0xff)

			var engineErr *Error
			require.True(t, errors.As(err, &engineErr))
			assert.Equal(t, "kaboom", engineErr.Message)
		})
	}
}

func TestCreateFunction_ErrorIsNotSticky(t *testing.T) {
	conn := openTestConn(t)

	fail := true
	require.NoError(t, conn.CreateFunction("flaky", 0, false, func(args []any) (any, error) {
		if fail {
			return nil, errors.New("flaky")
		}
		return int64(1), nil
	}))

	stmt, _, err := conn.Compile("SELECT flaky();")
	require.NoError(t, err)
	defer stmt.Finalize()

	_, err = stmt.Step()
	require.Error(t, err)

	// リセット済みなのでそのまま再実行できる
	fail = false
	row, err := stmt.Step()
	require.NoError(t, err)
	assert.True(t, row)
	assert.Equal(t, int64(1), stmt.Column(0))
}

func TestError_MessageIsEngineText(t *testing.T) {
	conn := openTestConn(t)

	_, _, err := conn.Compile("SELEC 1;")
	require.Error(t, err)
	var engineErr *Error
	require.True(t, errors.As(err, &engineErr))
	assert.Equal(t, `near "SELEC": syntax error`, engineErr.Message)

	create, _, err := conn.Compile("CREATE TABLE u(x UNIQUE);")
	require.NoError(t, err)
	defer create.Finalize()
	_, err = create.Step()
	require.NoError(t, err)

	insert, _, err := conn.Compile("INSERT INTO u VALUES (1), (1);")
	require.NoError(t, err)
	defer insert.Finalize()
	_, err = insert.Step()
	require.Error(t, err)
	require.True(t, errors.As(err, &engineErr))
	assert.Equal(t, "UNIQUE constraint failed: u.x", engineErr.Message)
	assert.Equal(t, CodeConstraint, engineErr.PrimaryCode())
}

func TestCreateFunction_InvalidArity(t *testing.T) {
	conn := openTestConn(t)
	noop := func(args []any) (any, error) { return nil, nil }

	assert.Error(t, conn.CreateFunction("f", -2, false, noop))
	assert.Error(t, conn.CreateFunction("f", MaxFunctionArgs+1, false, noop))
}

func TestCode(t *testing.T) {
	assert.Equal(t, CodeOK, Code(nil))
	assert.Equal(t, CodeError, Code(errors.New("plain")))
}

func TestSetInterrupt(t *testing.T) {
	conn := openTestConn(t)

	stmt, _, err := conn.Compile(`WITH RECURSIVE c(x) AS (SELECT 1 UNION ALL SELECT x+1 FROM c) SELECT count(*) FROM c;`)
	require.NoError(t, err)
	defer stmt.Finalize()

	done := make(chan struct{})
	close(done)
	conn.SetInterrupt(done)
	defer conn.SetInterrupt(nil)

	_, err = stmt.Step()
	require.Error(t, err)
	assert.Equal(t, CodeInterrupt, Code(err)&0xff)
}
