package expression

import (
	"github.com/relixdb/queryengine/sql"
	"github.com/spf13/cast"
)

// CastTo widens value to the target type, used by SelectUnion (§4.7) and
// TableValueConstructor (§4.4) to coerce a branch/row value into the
// harmonized column type (SPEC_FULL.md §3, "the higher-type join ...
// leans on cast.To*E").
func CastTo(value interface{}, target sql.Type) (interface{}, error) {
	switch target {
	case sql.Text:
		return cast.ToStringE(value)
	case sql.Int32:
		v, err := cast.ToInt32E(value)
		return v, err
	case sql.Int64:
		v, err := cast.ToInt64E(value)
		return v, err
	case sql.Float64:
		v, err := cast.ToFloat64E(value)
		return v, err
	case sql.Boolean:
		v, err := cast.ToBoolE(value)
		return v, err
	}
	return value, nil
}
