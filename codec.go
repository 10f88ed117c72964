package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tinywasm/record/errs"
)

// TimeLayout is the literal format used for time.Time values.
const TimeLayout = "2006-01-02 15:04:05"

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\x00", `\000`,
	"\n", `\n`,
	"\r", `\r`,
	"'", `\'`,
	`"`, `\"`,
	"\x1a", `\032`,
)

// Quote renders v as a SQL literal. Integers are emitted bare, floats with six
// fixed decimals, nil as NULL and booleans as 1/0; everything else is quoted.
func Quote(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case int:
		return strconv.Itoa(x)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', 6, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', 6, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return quoteString(x.Format(TimeLayout))
	case []byte:
		return quoteString(string(x))
	case string:
		return quoteString(x)
	case fmt.Stringer:
		return quoteString(x.String())
	}
	return quoteString(fmt.Sprint(v))
}

func quoteString(s string) string {
	return "'" + literalEscaper.Replace(s) + "'"
}

// QuoteIdent delimits a table or column name.
func QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// QuoteInto replaces the ? placeholders of predicate with the quoted args, in
// order. A single argument fills every placeholder.
func QuoteInto(predicate string, args ...any) (string, error) {
	n := strings.Count(predicate, "?")
	if len(args) == 1 {
		return strings.ReplaceAll(predicate, "?", Quote(args[0])), nil
	}
	if n != len(args) {
		return "", errs.New(errs.ComponentCodec, errs.KindValidation,
			"predicate %q has %d placeholders but %d values were given", predicate, n, len(args))
	}

	var b strings.Builder
	i := 0
	for _, r := range predicate {
		if r == '?' {
			b.WriteString(Quote(args[i]))
			i++
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}

// sameValue compares two column values by their literal form.
func sameValue(a, b any) bool {
	return Quote(a) == Quote(b)
}
