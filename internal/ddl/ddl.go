// Package ddl extracts table definitions from CREATE TABLE statements.
// It is a pragmatic extractor, not a SQL parser: it understands the shape of
// dumps that MySQL, Postgres and SQLite produce and ignores everything it
// does not recognize (keys, constraints, storage options).
package ddl

import (
	"errors"
	"regexp"
	"strings"

	"modhub/internal/model"
)

var ErrNoTables = errors.New("no CREATE TABLE statement found")

var (
	createRe = regexp.MustCompile(`(?is)create\s+table\s+(?:if\s+not\s+exists\s+)?` +
		"[`\"]?(\\w+)[`\"]?" + `\s*\((.*?)\)\s*([^;()]*)(?:;|$)`)
	tableCommentRe = regexp.MustCompile(`(?i)comment\s*=?\s*'((?:[^']|'')*)'`)
	colCommentRe   = regexp.MustCompile(`(?i)\bcomment\s+'((?:[^']|'')*)'`)
	defaultRe      = regexp.MustCompile(`(?i)\bdefault\s+('(?:[^']|'')*'|\S+)`)
	notNullRe      = regexp.MustCompile(`(?i)\bnot\s+null\b`)
	colRe          = regexp.MustCompile("^[`\"]?(\\w+)[`\"]?\\s+(\\w+(?:\\s*\\([^)]*\\))?)")
)

// constraint prefixes that look like column lines but are not.
var constraintPrefixes = []string{
	"primary key", "unique key", "unique index", "unique (", "key ", "key(",
	"index ", "index(", "constraint ", "foreign key", "check ", "check(",
	"fulltext ",
}

// Parse extracts every CREATE TABLE statement in the input.
// Statements the extractor cannot make sense of are skipped; Parse only
// fails when the input contains no table at all.
func Parse(input string) ([]model.TableDef, error) {
	var tables []model.TableDef
	for _, m := range createRe.FindAllStringSubmatch(input, -1) {
		t := model.TableDef{Name: m[1]}
		if cm := tableCommentRe.FindStringSubmatch(m[3]); cm != nil {
			t.Comment = unescape(cm[1])
		}
		for _, line := range splitColumns(m[2]) {
			if col, ok := parseColumn(line); ok {
				t.Columns = append(t.Columns, col)
			}
		}
		if len(t.Columns) > 0 {
			tables = append(tables, t)
		}
	}
	if len(tables) == 0 {
		return nil, ErrNoTables
	}
	return tables, nil
}

// splitColumns splits a CREATE TABLE body on commas at the top nesting level,
// so types like decimal(10,2) stay intact.
func splitColumns(body string) []string {
	var (
		parts []string
		depth int
		quote bool
		start int
	)
	for i, r := range body {
		switch r {
		case '\'':
			quote = !quote
		case '(':
			if !quote {
				depth++
			}
		case ')':
			if !quote {
				depth--
			}
		case ',':
			if !quote && depth == 0 {
				parts = append(parts, body[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, body[start:])
	return parts
}

func parseColumn(line string) (model.ColumnDef, bool) {
	line = strings.TrimSpace(line)
	lower := strings.ToLower(line)
	for _, p := range constraintPrefixes {
		if strings.HasPrefix(lower, p) {
			return model.ColumnDef{}, false
		}
	}
	m := colRe.FindStringSubmatch(line)
	if m == nil {
		return model.ColumnDef{}, false
	}
	col := model.ColumnDef{
		Name:     m[1],
		Type:     strings.ToLower(strings.Join(strings.Fields(m[2]), "")),
		Nullable: !notNullRe.MatchString(line),
	}
	rest := line[len(m[0]):]
	if dm := defaultRe.FindStringSubmatch(rest); dm != nil {
		col.Default = strings.Trim(unescape(dm[1]), "'")
	}
	if cm := colCommentRe.FindStringSubmatch(rest); cm != nil {
		col.Comment = unescape(cm[1])
	}
	return col, true
}

func unescape(s string) string {
	return strings.ReplaceAll(s, "''", "'")
}
