package chat

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// ErrNotSQL marks model output that is not a bare SQL statement.
var ErrNotSQL = errors.New("generated text is not a bare SQL statement")

var fenceRe = regexp.MustCompile("(?s)```(?:[A-Za-z]+[ \t]*\r?\n|[ \t]*\r?\n?)(.*?)```")

// labelRe matches the "SQL Query:" label the prompt ends with.
var labelRe = regexp.MustCompile(`(?i)^(?:sql\s+query|sql|query)\s*:\s*`)

// Sanitize normalises model output into a statement: it trims
// whitespace, drops a leading "SQL Query:" label, unwraps a Markdown code
// fence, drops a leading "sql" language tag and strips trailing semicolons.
func Sanitize(raw string) string {
	s := labelRe.ReplaceAllString(strings.TrimSpace(raw), "")

	if m := fenceRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	} else if strings.HasPrefix(s, "```") {
		// Opening fence without a closing one.
		s = s[3:]
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && isTag(strings.TrimSpace(s[:nl])) {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(labelRe.ReplaceAllString(strings.TrimSpace(s), ""))

	if len(s) > 3 && strings.EqualFold(s[:3], "sql") && unicode.IsSpace(rune(s[3])) {
		s = strings.TrimSpace(s[3:])
	}

	for strings.HasSuffix(s, ";") {
		s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	}
	return s
}

// Validate checks that a sanitized statement is a single query: it must
// start with SELECT, WITH or "(" and carry no leftover fence markers.
func Validate(stmt string) error {
	if stmt == "" {
		return fmt.Errorf("%w: empty output", ErrNotSQL)
	}
	if strings.Contains(stmt, "```") {
		return fmt.Errorf("%w: leftover code fence", ErrNotSQL)
	}
	if strings.HasPrefix(stmt, "(") {
		return nil
	}
	first := strings.ToUpper(firstWord(stmt))
	if first == "SELECT" || first == "WITH" {
		return nil
	}
	return fmt.Errorf("%w: starts with %q", ErrNotSQL, firstWord(stmt))
}

// PrepareSQL sanitizes and validates model output in one step.
func PrepareSQL(raw string) (string, error) {
	stmt := Sanitize(raw)
	return stmt, Validate(stmt)
}

func firstWord(s string) string {
	end := strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '(' || r == ','
	})
	if end < 0 {
		return s
	}
	return s[:end]
}

func isTag(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
