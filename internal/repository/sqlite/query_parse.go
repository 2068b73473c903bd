package sqlite

import (
	"fmt"
	"strings"
	"unicode"

	"repoexplorer/internal/repository"
)

// ============================================================================
// Parsed Query Model
// ============================================================================

type condKind int

const (
	condContains condKind = iota
	condDescendant
	condChild
	condSame
	condPath
	condType
	condName
	condProperty
)

// condition is one conjunct of a WHERE clause or XPath predicate
type condition struct {
	kind     condKind
	property string // contains scope ("" for all) or compared property
	op       string // =, <>, LIKE
	value    string // literal, path or full-text expression
}

type ordering struct {
	column   string // jcr:path, jcr:name, jcr:primaryType or a property name
	property bool
	desc     bool
}

// parsedQuery is the store-level form shared by both languages
type parsedQuery struct {
	count    bool
	nodeType string // "" or nt:base matches every node
	name     string // XPath name test, "" for any
	conds    []condition
	order    []ordering
}

func invalidQuery(format string, args ...any) error {
	return fmt.Errorf("%w: %s", repository.ErrInvalidQuery, fmt.Sprintf(format, args...))
}

// ============================================================================
// Lexer
// ============================================================================

type tokKind int

const (
	tokEOF tokKind = iota
	tokWord
	tokBracket
	tokString
	tokPunct
)

type token struct {
	kind tokKind
	text string
	pos  int
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("_:-@+", r)
}

// lex splits a statement into words, [bracketed names], 'literals' and punctuation.
// Quotes inside literals are escaped by doubling them.
func lex(s string) ([]token, error) {
	rs := []rune(s)
	var toks []token
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '\'' || r == '"':
			var b strings.Builder
			j := i + 1
			closed := false
			for j < len(rs) {
				if rs[j] == r {
					if j+1 < len(rs) && rs[j+1] == r {
						b.WriteRune(r)
						j += 2
						continue
					}
					closed = true
					j++
					break
				}
				b.WriteRune(rs[j])
				j++
			}
			if !closed {
				return nil, invalidQuery("unterminated literal at offset %d", i)
			}
			toks = append(toks, token{kind: tokString, text: b.String(), pos: i})
			i = j
		case r == '[':
			j := i + 1
			var quote rune
			for j < len(rs) && (quote != 0 || rs[j] != ']') {
				if quote == 0 && (rs[j] == '\'' || rs[j] == '"') {
					quote = rs[j]
				} else if quote != 0 && rs[j] == quote {
					quote = 0
				}
				j++
			}
			if j >= len(rs) {
				return nil, invalidQuery("unterminated bracket at offset %d", i)
			}
			toks = append(toks, token{kind: tokBracket, text: string(rs[i+1 : j]), pos: i})
			i = j + 1
		case isWordRune(r):
			j := i
			for j < len(rs) && (isWordRune(rs[j]) || (rs[j] == '.' && j+1 < len(rs) && unicode.IsDigit(rs[j+1]) && j > i && unicode.IsDigit(rs[j-1]))) {
				j++
			}
			toks = append(toks, token{kind: tokWord, text: string(rs[i:j]), pos: i})
			i = j
		case r == '<' || r == '>' || r == '!':
			if i+1 < len(rs) && (rs[i+1] == '=' || (r == '<' && rs[i+1] == '>')) {
				toks = append(toks, token{kind: tokPunct, text: string(rs[i : i+2]), pos: i})
				i += 2
				continue
			}
			toks = append(toks, token{kind: tokPunct, text: string(r), pos: i})
			i++
		case strings.ContainsRune("(),*=.", r):
			toks = append(toks, token{kind: tokPunct, text: string(r), pos: i})
			i++
		default:
			return nil, invalidQuery("unexpected character %q at offset %d", r, i)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(rs)}), nil
}

// tokenStream is a cursor over lexed tokens
type tokenStream struct {
	toks []token
	i    int
}

func (p *tokenStream) peek() token { return p.toks[p.i] }

func (p *tokenStream) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *tokenStream) isKeyword(kw string) bool {
	t := p.peek()
	return t.kind == tokWord && strings.EqualFold(t.text, kw)
}

func (p *tokenStream) keyword(kw string) bool {
	if p.isKeyword(kw) {
		p.i++
		return true
	}
	return false
}

func (p *tokenStream) expectKeyword(kw string) error {
	if !p.keyword(kw) {
		return invalidQuery("expected %s at offset %d", kw, p.peek().pos)
	}
	return nil
}

func (p *tokenStream) punct(s string) bool {
	t := p.peek()
	if t.kind == tokPunct && t.text == s {
		p.i++
		return true
	}
	return false
}

func (p *tokenStream) expectPunct(s string) error {
	if !p.punct(s) {
		return invalidQuery("expected %q at offset %d", s, p.peek().pos)
	}
	return nil
}

func (p *tokenStream) literal() (string, error) {
	t := p.next()
	switch t.kind {
	case tokString, tokWord, tokBracket:
		return t.text, nil
	}
	return "", invalidQuery("expected a literal at offset %d", t.pos)
}

func (p *tokenStream) comparison() (string, error) {
	t := p.next()
	if t.kind == tokWord && strings.EqualFold(t.text, "LIKE") {
		return "LIKE", nil
	}
	if t.kind == tokPunct {
		switch t.text {
		case "=":
			return "=", nil
		case "<>", "!=":
			return "<>", nil
		}
	}
	return "", invalidQuery("unsupported operator %q at offset %d", t.text, t.pos)
}

// ============================================================================
// JCR-SQL2
// ============================================================================

var sql2Reserved = map[string]bool{"WHERE": true, "ORDER": true, "AND": true, "OR": true, "JOIN": true, "INNER": true, "LEFT": true, "RIGHT": true}

type sql2Parser struct {
	tokenStream
	selector string
}

func parseSQL2(stmt string) (*parsedQuery, error) {
	toks, err := lex(stmt)
	if err != nil {
		return nil, err
	}
	p := &sql2Parser{tokenStream: tokenStream{toks: toks}}
	q := &parsedQuery{}

	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	switch {
	case p.punct("*"):
	case p.keyword("COUNT"):
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		if err := p.expectPunct("*"); err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		q.count = true
	default:
		for !p.isKeyword("FROM") {
			if p.peek().kind == tokEOF {
				return nil, invalidQuery("missing FROM")
			}
			p.next()
		}
	}

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	source := p.next()
	if source.kind != tokBracket && source.kind != tokWord {
		return nil, invalidQuery("expected a node type after FROM")
	}
	q.nodeType = strings.TrimSpace(source.text)
	p.keyword("AS")
	if t := p.peek(); t.kind == tokWord && !sql2Reserved[strings.ToUpper(t.text)] {
		p.selector = t.text
		p.next()
	}
	for _, kw := range []string{"JOIN", "INNER", "LEFT", "RIGHT"} {
		if p.isKeyword(kw) {
			return nil, invalidQuery("joins are not supported")
		}
	}

	if p.keyword("WHERE") {
		for {
			c, err := p.condition()
			if err != nil {
				return nil, err
			}
			q.conds = append(q.conds, c)
			if p.isKeyword("OR") {
				return nil, invalidQuery("OR is not supported")
			}
			if !p.keyword("AND") {
				break
			}
		}
	}

	if p.keyword("ORDER") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			o, err := p.ordering()
			if err != nil {
				return nil, err
			}
			if o.column != "jcr:score" {
				q.order = append(q.order, o)
			}
			if !p.punct(",") {
				break
			}
		}
	}

	if t := p.peek(); t.kind != tokEOF {
		return nil, invalidQuery("unexpected %q at offset %d", t.text, t.pos)
	}
	return q, nil
}

// operand reads [selector.]name and returns the name
func (p *sql2Parser) operand() (string, error) {
	t := p.next()
	if t.kind == tokWord && p.punct(".") {
		t = p.next()
	}
	switch t.kind {
	case tokBracket, tokWord:
		return t.text, nil
	}
	return "", invalidQuery("expected a property at offset %d", t.pos)
}

func (p *sql2Parser) condition() (condition, error) {
	if p.isKeyword("NOT") {
		return condition{}, invalidQuery("NOT is not supported")
	}

	switch {
	case p.keyword("CONTAINS"):
		if err := p.expectPunct("("); err != nil {
			return condition{}, err
		}
		scope, err := p.containsScope()
		if err != nil {
			return condition{}, err
		}
		if err := p.expectPunct(","); err != nil {
			return condition{}, err
		}
		text, err := p.literal()
		if err != nil {
			return condition{}, err
		}
		if err := p.expectPunct(")"); err != nil {
			return condition{}, err
		}
		return condition{kind: condContains, property: scope, value: text}, nil

	case p.isKeyword("ISDESCENDANTNODE"), p.isKeyword("ISCHILDNODE"), p.isKeyword("ISSAMENODE"):
		kind := map[string]condKind{
			"ISDESCENDANTNODE": condDescendant,
			"ISCHILDNODE":      condChild,
			"ISSAMENODE":       condSame,
		}[strings.ToUpper(p.next().text)]
		if err := p.expectPunct("("); err != nil {
			return condition{}, err
		}
		arg, err := p.literal()
		if err != nil {
			return condition{}, err
		}
		if p.punct(",") {
			if arg, err = p.literal(); err != nil {
				return condition{}, err
			}
		}
		if err := p.expectPunct(")"); err != nil {
			return condition{}, err
		}
		return condition{kind: kind, value: arg}, nil

	case p.isKeyword("NAME"), p.isKeyword("LOCALNAME"):
		p.next()
		if err := p.expectPunct("("); err != nil {
			return condition{}, err
		}
		for !p.punct(")") {
			if p.peek().kind == tokEOF {
				return condition{}, invalidQuery("unterminated NAME()")
			}
			p.next()
		}
		return p.comparisonTail(condition{kind: condName})
	}

	name, err := p.operand()
	if err != nil {
		return condition{}, err
	}
	c := condition{kind: condProperty, property: name}
	switch {
	case name == "jcr:path" || name == "nt:base" || name == p.selector:
		c = condition{kind: condPath}
	case name == "jcr:primaryType":
		c = condition{kind: condType}
	case name == "jcr:name":
		c = condition{kind: condName}
	}
	return p.comparisonTail(c)
}

func (p *sql2Parser) comparisonTail(c condition) (condition, error) {
	op, err := p.comparison()
	if err != nil {
		return condition{}, err
	}
	v, err := p.literal()
	if err != nil {
		return condition{}, err
	}
	c.op, c.value = op, v
	return c, nil
}

// containsScope reads the first CONTAINS argument: *, s.*, [prop], s.[prop] or s.prop
func (p *sql2Parser) containsScope() (string, error) {
	var last token
	for {
		t := p.peek()
		if t.kind == tokEOF {
			return "", invalidQuery("unterminated CONTAINS")
		}
		if t.kind == tokPunct && t.text == "," {
			break
		}
		last = p.next()
	}
	switch last.kind {
	case tokPunct:
		if last.text == "*" {
			return "", nil
		}
	case tokBracket:
		return last.text, nil
	case tokWord:
		if last.text == p.selector {
			return "", nil
		}
		return last.text, nil
	}
	return "", invalidQuery("invalid CONTAINS scope at offset %d", last.pos)
}

func (p *sql2Parser) ordering() (ordering, error) {
	var o ordering
	if p.keyword("NAME") || p.keyword("LOCALNAME") {
		if err := p.expectPunct("("); err != nil {
			return o, err
		}
		for !p.punct(")") {
			if p.peek().kind == tokEOF {
				return o, invalidQuery("unterminated NAME()")
			}
			p.next()
		}
		o.column = "jcr:name"
	} else if p.keyword("SCORE") {
		if err := p.expectPunct("("); err != nil {
			return o, err
		}
		for !p.punct(")") {
			if p.peek().kind == tokEOF {
				return o, invalidQuery("unterminated SCORE()")
			}
			p.next()
		}
		o.column = "jcr:score"
	} else {
		name, err := p.operand()
		if err != nil {
			return o, err
		}
		o.column = name
		switch name {
		case "jcr:path", "jcr:name", "jcr:primaryType", "jcr:score":
		default:
			o.property = true
		}
	}
	if p.keyword("DESC") {
		o.desc = true
	} else {
		p.keyword("ASC")
	}
	return o, nil
}

// ============================================================================
// XPath
// ============================================================================

// parseXPath accepts [COUNT(] [/jcr:root]<path>(//|/)(element(name, type)|name|*)[predicate]... [)]
func parseXPath(stmt string) (*parsedQuery, error) {
	s := strings.TrimSpace(stmt)
	q := &parsedQuery{}

	if len(s) > 6 && strings.EqualFold(s[:6], "COUNT(") && strings.HasSuffix(s, ")") {
		q.count = true
		s = strings.TrimSpace(s[6 : len(s)-1])
	}
	s = strings.TrimPrefix(s, "/jcr:root")

	steps, predicates := s, ""
	if i := strings.Index(s, "["); i >= 0 {
		steps, predicates = s[:i], s[i:]
	}
	steps = strings.TrimSpace(steps)

	cut := strings.LastIndex(steps, "/")
	if p := strings.Index(steps, "element("); p >= 0 {
		cut = strings.LastIndex(steps[:p], "/")
	}
	if cut < 0 {
		return nil, invalidQuery("xpath must be absolute")
	}
	prefix, test := steps[:cut+1], strings.TrimSpace(steps[cut+1:])

	kind := condChild
	if strings.HasSuffix(prefix, "//") {
		kind = condDescendant
	}
	base := strings.TrimRight(prefix, "/")
	if base == "" {
		base = "/"
	}
	q.conds = append(q.conds, condition{kind: kind, value: base})

	switch {
	case test == "*":
	case strings.HasPrefix(test, "element(") && strings.HasSuffix(test, ")"):
		args := strings.Split(test[len("element("):len(test)-1], ",")
		if name := strings.TrimSpace(args[0]); name != "*" && name != "" {
			q.name = name
		}
		if len(args) > 1 {
			q.nodeType = strings.TrimSpace(args[1])
		}
		if len(args) > 2 {
			return nil, invalidQuery("element() takes at most two arguments")
		}
	case validName(test):
		q.name = test
	default:
		return nil, invalidQuery("unsupported node test %q", test)
	}

	if predicates == "" {
		return q, nil
	}
	toks, err := lex(predicates)
	if err != nil {
		return nil, err
	}
	for _, t := range toks {
		switch t.kind {
		case tokEOF:
		case tokBracket:
			conds, err := parsePredicate(t.text)
			if err != nil {
				return nil, err
			}
			q.conds = append(q.conds, conds...)
		default:
			return nil, invalidQuery("unexpected %q after predicates", t.text)
		}
	}
	return q, nil
}

// parsePredicate handles jcr:contains, jcr:like and @prop comparisons joined by "and"
func parsePredicate(text string) ([]condition, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &tokenStream{toks: toks}

	var conds []condition
	for {
		c, err := xpathCondition(p)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
		if p.isKeyword("or") {
			return nil, invalidQuery("or is not supported")
		}
		if !p.keyword("and") {
			break
		}
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, invalidQuery("unexpected %q in predicate", t.text)
	}
	return conds, nil
}

func xpathCondition(p *tokenStream) (condition, error) {
	switch {
	case p.keyword("jcr:contains"), p.keyword("jcr:like"):
		like := strings.EqualFold(p.toks[p.i-1].text, "jcr:like")
		if err := p.expectPunct("("); err != nil {
			return condition{}, err
		}
		scope := ""
		switch t := p.next(); {
		case t.kind == tokPunct && (t.text == "." || t.text == "*"):
		case t.kind == tokWord && strings.HasPrefix(t.text, "@"):
			scope = strings.TrimPrefix(t.text, "@")
		default:
			return condition{}, invalidQuery("invalid scope at offset %d", t.pos)
		}
		if err := p.expectPunct(","); err != nil {
			return condition{}, err
		}
		v, err := p.literal()
		if err != nil {
			return condition{}, err
		}
		if err := p.expectPunct(")"); err != nil {
			return condition{}, err
		}
		if like {
			if scope == "" {
				return condition{}, invalidQuery("jcr:like needs a property")
			}
			return xpathPropertyCondition(scope, "LIKE", v), nil
		}
		return condition{kind: condContains, property: scope, value: v}, nil
	}

	t := p.next()
	if t.kind != tokWord || !strings.HasPrefix(t.text, "@") {
		return condition{}, invalidQuery("unsupported predicate at offset %d", t.pos)
	}
	op, err := p.comparison()
	if err != nil {
		return condition{}, err
	}
	if op == "LIKE" {
		return condition{}, invalidQuery("use jcr:like for pattern matches")
	}
	v, err := p.literal()
	if err != nil {
		return condition{}, err
	}
	return xpathPropertyCondition(strings.TrimPrefix(t.text, "@"), op, v), nil
}

func xpathPropertyCondition(name, op, value string) condition {
	switch name {
	case "jcr:primaryType":
		return condition{kind: condType, op: op, value: value}
	case "jcr:path":
		return condition{kind: condPath, op: op, value: value}
	}
	return condition{kind: condProperty, property: name, op: op, value: value}
}
