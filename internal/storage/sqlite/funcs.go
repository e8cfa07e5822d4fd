package sqlite

import (
	"database/sql/driver"
	"strings"

	sqlitedriver "modernc.org/sqlite"
)

// foldFunc lowercases text with Unicode case mapping. The built-in LOWER
// only folds ASCII.
const foldFunc = "eventhub_fold"

func init() {
	sqlitedriver.MustRegisterDeterministicScalarFunction(foldFunc, 1, fold)
}

func fold(_ *sqlitedriver.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return foldText(v), nil
	case []byte:
		return foldText(string(v)), nil
	default:
		return v, nil
	}
}

// foldText is applied to search input so both sides of a match agree.
func foldText(s string) string {
	return strings.ToLower(s)
}
