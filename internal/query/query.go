// Package query renders user search text into statements for the three
// supported dialects.
//
// Templates keep the shape clients have always seen:
//
//	full-text:  SELECT * FROM [nt:base] WHERE CONTAINS(s.*, '{q}')
//	structural: {p}//element(*, nt:base)[jcr:contains(., '{q}')]
//	relational: SELECT * FROM [nt:base] WHERE [nt:base] LIKE '{p}%' AND CONTAINS(*, '{q}')
//
// Parameters are bound, not concatenated: quotes are doubled inside literals,
// LIKE wildcards in the relational scope are escaped with a backslash, and the
// structural scope must be a plain absolute path.
package query

import (
	"fmt"
	"regexp"
	"strings"

	"repoexplorer/internal/domain"
	"repoexplorer/internal/repository"
)

// Statement is a rendered query with its language
type Statement struct {
	Dialect  domain.Dialect
	Language string
	Text     string
}

func (s Statement) String() string { return s.Text }

// Builder renders a template, binding named parameters by kind
type Builder struct {
	parts []string
	err   error
}

// Raw appends template text verbatim
func (b *Builder) Raw(s string) *Builder {
	b.parts = append(b.parts, s)
	return b
}

// Literal appends a quoted string literal
func (b *Builder) Literal(v string) *Builder {
	b.parts = append(b.parts, "'"+QuoteLiteral(v)+"'")
	return b
}

// LikePrefix appends a quoted LIKE pattern matching everything under prefix
func (b *Builder) LikePrefix(prefix string) *Builder {
	b.parts = append(b.parts, "'"+QuoteLiteral(EscapeLike(prefix))+"%'")
	return b
}

// Path appends a validated absolute path for use as an XPath step prefix
func (b *Builder) Path(p string) *Builder {
	if !safePath.MatchString(p) {
		if b.err == nil {
			b.err = domain.Invalid("build query", fmt.Sprintf("target path %q must be absolute and contain only letters, digits and / : _ - .", p))
		}
		return b
	}
	b.parts = append(b.parts, p)
	return b
}

// Build returns the rendered text or the first binding error
func (b *Builder) Build() (string, error) {
	if b.err != nil {
		return "", b.err
	}
	return strings.Join(b.parts, ""), nil
}

var safePath = regexp.MustCompile(`^/[\p{L}\p{N}/:_\-.]*$`)

// QuoteLiteral doubles single quotes so v can sit inside '...'
func QuoteLiteral(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}

// EscapeLike escapes LIKE wildcards with a backslash
func EscapeLike(v string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(v)
}

func requireText(op, field, v string) error {
	if strings.TrimSpace(v) == "" {
		return domain.Invalid(op, field+" must not be blank")
	}
	return nil
}

// FullText renders the full-text statement for q
func FullText(q string) (Statement, error) {
	if err := requireText("full-text query", "query", q); err != nil {
		return Statement{}, err
	}
	text, err := new(Builder).
		Raw("SELECT * FROM [nt:base] WHERE CONTAINS(s.*, ").Literal(q).Raw(")").
		Build()
	if err != nil {
		return Statement{}, err
	}
	return Statement{Dialect: domain.DialectFullText, Language: repository.LanguageSQL2, Text: text}, nil
}

// Structural renders the XPath statement for q scoped under p
func Structural(q, p string) (Statement, error) {
	if err := requireText("structural query", "query", q); err != nil {
		return Statement{}, err
	}
	if err := requireText("structural query", "target path", p); err != nil {
		return Statement{}, err
	}
	text, err := new(Builder).
		Path(p).Raw("//element(*, nt:base)[jcr:contains(., ").Literal(q).Raw(")]").
		Build()
	if err != nil {
		return Statement{}, err
	}
	return Statement{Dialect: domain.DialectStructural, Language: repository.LanguageXPath, Text: text}, nil
}

// Relational renders the SQL statement for q scoped under p
func Relational(q, p string) (Statement, error) {
	if err := requireText("relational query", "query", q); err != nil {
		return Statement{}, err
	}
	if err := requireText("relational query", "target path", p); err != nil {
		return Statement{}, err
	}
	text, err := new(Builder).
		Raw("SELECT * FROM [nt:base] WHERE [nt:base] LIKE ").LikePrefix(p).
		Raw(" AND CONTAINS(*, ").Literal(q).Raw(")").
		Build()
	if err != nil {
		return Statement{}, err
	}
	return Statement{Dialect: domain.DialectRelational, Language: repository.LanguageSQL2, Text: text}, nil
}

// Raw wraps caller-supplied relational text without rendering
func Raw(text string) (Statement, error) {
	if err := requireText("query", "query", text); err != nil {
		return Statement{}, err
	}
	return Statement{Dialect: domain.DialectRelational, Language: repository.LanguageSQL2, Text: text}, nil
}

var selectFrom = regexp.MustCompile(`(?i)SELECT\s+.*?\s+FROM`)

// CountQuery turns a relational statement into its row count by replacing the
// first SELECT ... FROM with SELECT COUNT(*) FROM
func CountQuery(sql string) string {
	loc := selectFrom.FindStringIndex(sql)
	if loc == nil {
		return sql
	}
	return sql[:loc[0]] + "SELECT COUNT(*) FROM" + sql[loc[1]:]
}

// CountStructural wraps a structural statement in COUNT(...)
func CountStructural(xpath string) string {
	return "COUNT(" + xpath + ")"
}

// Count returns the counting form of s in the same language
func Count(s Statement) Statement {
	c := s
	if s.Language == repository.LanguageXPath {
		c.Text = CountStructural(s.Text)
	} else {
		c.Text = CountQuery(s.Text)
	}
	return c
}
