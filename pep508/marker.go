// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pep508

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Marker is an environment marker expression in canonical form.
// The zero value is the empty marker, which applies unconditionally.
//
// Canonicalization quotes values with single quotes, orders the operands of a
// conjunction alphabetically, and rewrites strict python_version bounds onto
// python_full_version (e.g. python_version > '3.7' becomes
// python_full_version >= '3.8'). Two markers are the same declaration gate iff
// their canonical texts are equal; no subsumption reasoning is attempted.
type Marker struct {
	text string
}

// IsEmpty reports whether the marker applies unconditionally.
func (m Marker) IsEmpty() bool { return m.text == "" }

// String returns the canonical marker text, empty for the unconditional marker.
func (m Marker) String() string { return m.text }

// Equal reports whether two markers have identical canonical text.
func (m Marker) Equal(other Marker) bool { return m.text == other.text }

// ParseMarker parses and canonicalizes an environment marker expression.
// An empty or all-whitespace input yields the unconditional marker.
func ParseMarker(s string) (Marker, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Marker{}, nil
	}
	toks, err := tokenizeMarker(s)
	if err != nil {
		return Marker{}, err
	}
	p := &markerParser{toks: toks}
	expr, err := p.parseOr()
	if err != nil {
		return Marker{}, err
	}
	if p.pos != len(p.toks) {
		return Marker{}, fmt.Errorf("unexpected trailing input in marker %q", s)
	}
	return Marker{text: expr.render()}, nil
}

type markerToken struct {
	kind string // "ident", "str", "op", "lparen", "rparen"
	val  string
}

func tokenizeMarker(s string) ([]markerToken, error) {
	var toks []markerToken
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			toks = append(toks, markerToken{kind: "lparen"})
			i++
		case c == ')':
			toks = append(toks, markerToken{kind: "rparen"})
			i++
		case c == '\'' || c == '"':
			end := strings.IndexByte(s[i+1:], c)
			if end < 0 {
				return nil, fmt.Errorf("unterminated string in marker %q", s)
			}
			toks = append(toks, markerToken{kind: "str", val: s[i+1 : i+1+end]})
			i += end + 2
		case strings.ContainsRune("<>=!~", rune(c)):
			op := string(c)
			if i+1 < len(s) && s[i+1] == '=' {
				op += "="
				i++
			}
			i++
			switch op {
			case "<", ">", "<=", ">=", "==", "!=", "~=":
				toks = append(toks, markerToken{kind: "op", val: op})
			default:
				return nil, fmt.Errorf("invalid operator %q in marker %q", op, s)
			}
		case isIdentByte(c):
			j := i
			for j < len(s) && isIdentByte(s[j]) {
				j++
			}
			toks = append(toks, markerToken{kind: "ident", val: s[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q in marker %q", c, s)
		}
	}
	return toks, nil
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '.' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

type markerExpr interface {
	render() string
}

// orExpr is a disjunction of conjunctions.
type orExpr struct {
	terms []*andExpr
}

func (e *orExpr) render() string {
	parts := make([]string, len(e.terms))
	for i, t := range e.terms {
		parts[i] = t.render()
	}
	slices.Sort(parts)
	return strings.Join(parts, " or ")
}

type andExpr struct {
	terms []markerExpr
}

func (e *andExpr) render() string {
	parts := make([]string, len(e.terms))
	for i, t := range e.terms {
		if sub, ok := t.(*orExpr); ok && len(sub.terms) > 1 {
			parts[i] = "(" + sub.render() + ")"
		} else {
			parts[i] = t.render()
		}
	}
	slices.Sort(parts)
	return strings.Join(parts, " and ")
}

type comparison struct {
	variable string
	op       string
	value    string
}

func (c *comparison) render() string {
	v, op, val := c.variable, c.op, c.value
	// Strict python_version bounds exclude whole minor releases, so they are
	// expressed as inclusive/exclusive python_full_version bounds.
	if v == "python_version" {
		if next, ok := bumpMinor(val); ok {
			switch op {
			case ">":
				v, op, val = "python_full_version", ">=", next
			case "<=":
				v, op, val = "python_full_version", "<", next
			case ">=":
				v = "python_full_version"
			case "<":
				v = "python_full_version"
			}
		}
	}
	return fmt.Sprintf("%s %s '%s'", v, op, val)
}

// bumpMinor returns the version with its minor component incremented,
// for plain major.minor values only.
func bumpMinor(v string) (string, bool) {
	major, minor, ok := strings.Cut(v, ".")
	if !ok || strings.Contains(minor, ".") {
		return "", false
	}
	maj, err := strconv.Atoi(major)
	if err != nil {
		return "", false
	}
	min, err := strconv.Atoi(minor)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%d.%d", maj, min+1), true
}

type markerParser struct {
	toks []markerToken
	pos  int
}

func (p *markerParser) peek() (markerToken, bool) {
	if p.pos >= len(p.toks) {
		return markerToken{}, false
	}
	return p.toks[p.pos], true
}

func (p *markerParser) parseOr() (markerExpr, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	expr := &orExpr{terms: []*andExpr{first}}
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != "ident" || tok.val != "or" {
			break
		}
		p.pos++
		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		expr.terms = append(expr.terms, next)
	}
	if len(expr.terms) == 1 && len(expr.terms[0].terms) == 1 {
		return expr.terms[0].terms[0], nil
	}
	if len(expr.terms) == 1 {
		return expr.terms[0], nil
	}
	return expr, nil
}

func (p *markerParser) parseAnd() (*andExpr, error) {
	first, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	expr := &andExpr{terms: []markerExpr{first}}
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != "ident" || tok.val != "and" {
			break
		}
		p.pos++
		next, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		expr.terms = append(expr.terms, next)
	}
	return expr, nil
}

func (p *markerParser) parseAtom() (markerExpr, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of marker expression")
	}
	if tok.kind == "lparen" {
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		tok, ok = p.peek()
		if !ok || tok.kind != "rparen" {
			return nil, fmt.Errorf("missing closing parenthesis in marker expression")
		}
		p.pos++
		return inner, nil
	}
	return p.parseComparison()
}

func (p *markerParser) parseComparison() (markerExpr, error) {
	lhs, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of marker expression")
	}
	p.pos++

	// "in" / "not in" comparisons keep their textual form.
	opTok, ok := p.peek()
	if ok && opTok.kind == "ident" && (opTok.val == "in" || opTok.val == "not") {
		op := opTok.val
		p.pos++
		if op == "not" {
			tok, ok := p.peek()
			if !ok || tok.kind != "ident" || tok.val != "in" {
				return nil, fmt.Errorf("expected 'in' after 'not' in marker expression")
			}
			p.pos++
			op = "not in"
		}
		rhs, ok := p.peek()
		if !ok || rhs.kind != "str" {
			return nil, fmt.Errorf("expected quoted string after %q in marker expression", op)
		}
		p.pos++
		if lhs.kind != "ident" {
			return nil, fmt.Errorf("expected marker variable before %q", op)
		}
		return &comparison{variable: lhs.val, op: op, value: rhs.val}, nil
	}
	if !ok || opTok.kind != "op" {
		return nil, fmt.Errorf("expected comparison operator in marker expression")
	}
	p.pos++

	rhs, ok := p.peek()
	if !ok || (rhs.kind != "str" && rhs.kind != "ident") {
		return nil, fmt.Errorf("expected comparison operand in marker expression")
	}
	p.pos++

	switch {
	case lhs.kind == "ident" && rhs.kind == "str":
		return &comparison{variable: lhs.val, op: opTok.val, value: rhs.val}, nil
	case lhs.kind == "str" && rhs.kind == "ident":
		// Value-first comparison; flip to keep the variable on the left.
		return &comparison{variable: rhs.val, op: flipOp(opTok.val), value: lhs.val}, nil
	default:
		return nil, fmt.Errorf("comparison must have a marker variable and a quoted value")
	}
}

func flipOp(op string) string {
	switch op {
	case "<":
		return ">"
	case ">":
		return "<"
	case "<=":
		return ">="
	case ">=":
		return "<="
	}
	return op
}
