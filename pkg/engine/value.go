package engine

import (
	"fmt"

	"zombiezen.com/go/sqlite"
)

func fromValue(v sqlite.Value) any {
	switch v.Type() {
	case sqlite.TypeInteger:
		return v.Int64()
	case sqlite.TypeFloat:
		return v.Float()
	case sqlite.TypeText:
		return v.Text()
	case sqlite.TypeBlob:
		return v.Blob()
	default:
		return nil
	}
}

func toValue(v any) (sqlite.Value, error) {
	switch x := v.(type) {
	case nil:
		return sqlite.Value{}, nil
	case bool:
		if x {
			return sqlite.IntegerValue(1), nil
		}
		return sqlite.IntegerValue(0), nil
	case int:
		return sqlite.IntegerValue(int64(x)), nil
	case int32:
		return sqlite.IntegerValue(int64(x)), nil
	case int64:
		return sqlite.IntegerValue(x), nil
	case uint32:
		return sqlite.IntegerValue(int64(x)), nil
	case float32:
		return sqlite.FloatValue(float64(x)), nil
	case float64:
		return sqlite.FloatValue(x), nil
	case string:
		return sqlite.TextValue(x), nil
	case []byte:
		return sqlite.BlobValue(x), nil
	default:
		return sqlite.Value{}, fmt.Errorf("engine: unsupported result type %T", v)
	}
}
