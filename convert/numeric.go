package convert

import (
	"strconv"

	"github.com/biomxt/biomxt/shared"
)

// parseCell parses one CSV field into the converter's numeric cell type,
// dispatching on T's concrete type. strconv's bit-sized parsers give
// narrow-integer range checking for free: ParseInt(s, 10, 16) already
// rejects 40000 as out of range for int16.
func parseCell[T shared.Numeric](field []byte) (T, error) {
	var zero T
	s := string(field)
	switch any(zero).(type) {
	case int16:
		v, err := strconv.ParseInt(s, 10, 16)
		if err != nil {
			return zero, err
		}
		return T(v), nil
	case int32:
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return zero, err
		}
		return T(v), nil
	case int64:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return zero, err
		}
		return T(v), nil
	case float32:
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return zero, err
		}
		return T(v), nil
	case float64:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return zero, err
		}
		return T(v), nil
	default:
		return zero, strconv.ErrSyntax
	}
}
