package db

import (
	"database/sql/driver"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// FormatRowCount formats a row count for compact display:
//   - negative: "?" (unknown)
//   - under 1000: exact number (e.g. "42", "999")
//   - 1000..999499: Xk (e.g. "1k", "999k")
//   - 999500+: XM (e.g. "1M", "10M")
func FormatRowCount(n int64) string {
	if n < 0 {
		return "?"
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 999500 {
		return fmt.Sprintf("%dk", (n+500)/1000)
	}
	return fmt.Sprintf("%dM", (n+500000)/1000000)
}

// formatValue renders a driver value as text for prompts and tables.
func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case string:
		return t
	case []byte:
		return string(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format(time.DateOnly)
		}
		return t.Format(time.RFC3339)
	case *big.Rat:
		if t == nil {
			return "NULL"
		}
		return trimZeros(t.FloatString(9))
	case driver.Valuer:
		dv, err := t.Value()
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		if _, loop := dv.(driver.Valuer); loop {
			return fmt.Sprintf("%v", dv)
		}
		return formatValue(dv)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
