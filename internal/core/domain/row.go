package domain

import (
	"fmt"
	"strconv"
)

// Row is one result row of a generic query, keyed by column name.
// Values carry the engine's native types: int64, float64, string,
// []byte or nil.
type Row map[string]any

// Int64 returns the column as an integer.
func (r Row) Int64(col string) (int64, error) {
	switch v := r[col].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("column %s: %w", col, err)
		}
		return n, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("column %s: unexpected type %T", col, v)
	}
}

// Float64 returns the column as a real number.
func (r Row) Float64(col string) (float64, error) {
	switch v := r[col].(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("column %s: %w", col, err)
		}
		return f, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("column %s: unexpected type %T", col, v)
	}
}

// String returns the column as text. NULL becomes the empty string.
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Bool decodes a boolean stored as an integer.
func (r Row) Bool(col string) (bool, error) {
	n, err := r.Int64(col)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}
