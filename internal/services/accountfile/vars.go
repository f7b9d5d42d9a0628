package accountfile

import (
	"fmt"
	"strings"

	"github.com/mcoot/mudaccounts/internal/model"
)

// writeVars renders the variable block: a "Vars: N" header followed by one
// "key value" line per variable.
func writeVars(sb *strings.Builder, vars []model.Var) error {
	fmt.Fprintf(sb, "%s: %d\n", tagVars, len(vars))
	for _, v := range vars {
		if v.Key == "" || strings.ContainsAny(v.Key, " \t\r\n") {
			return fmt.Errorf("%w: key %q", model.ErrInvalidVariable, v.Key)
		}
		if strings.ContainsAny(v.Value, "\r\n") {
			return fmt.Errorf("%w: value of %q spans lines", model.ErrInvalidVariable, v.Key)
		}
		if n := len(v.Key) + 1 + len(v.Value); n > MaxInputLength {
			return fmt.Errorf("%w: variable %q line would be %d bytes", model.ErrLineTooLong, v.Key, n)
		}
		fmt.Fprintf(sb, "%s %s\n", v.Key, v.Value)
	}
	return nil
}

// readVars consumes exactly count lines of "key value" pairs
func readVars(r *lineReader, count int) ([]model.Var, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: negative variable count %d", model.ErrMalformedRecord, count)
	}

	vars := make([]model.Var, 0, count)
	for i := 0; i < count; i++ {
		line, ok, err := r.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: variable block ended after %d of %d lines",
				model.ErrMalformedRecord, i, count)
		}

		key, value, _ := strings.Cut(line, " ")
		if key == "" {
			return nil, fmt.Errorf("%w: empty variable name on line %d", model.ErrMalformedRecord, r.lineNo)
		}
		vars = append(vars, model.Var{Key: key, Value: value})
	}
	return vars, nil
}
