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

// Package tomledit performs surgical, format-preserving edits on TOML
// documents. It works on raw lines: only the keys an edit touches are
// rewritten, every other line (comments, blank lines, unrelated sections)
// round-trips byte-identical. It supports the subset of TOML that project
// manifests use: tables, arrays of tables, string-array values, and inline
// values on a single key line.
package tomledit

import (
	"fmt"
	"strings"
)

// Document is an editable TOML document.
type Document struct {
	lines []string
	// trailingNewline records whether the source ended with a newline so
	// Render can reproduce the original byte stream.
	trailingNewline bool
}

// Parse loads a document from text. It never fails: lines it cannot
// interpret are preserved untouched and treated as opaque.
func Parse(text string) *Document {
	trailing := strings.HasSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\n")
	var lines []string
	if text != "" {
		lines = strings.Split(text, "\n")
	}
	return &Document{lines: lines, trailingNewline: trailing || text == ""}
}

// Render writes the document back out.
func (d *Document) Render() string {
	out := strings.Join(d.lines, "\n")
	if d.trailingNewline && out != "" {
		out += "\n"
	}
	return out
}

// headerPath parses a table header line, returning the dotted path and
// whether it is an array-of-tables header.
func headerPath(line string) (path string, array, ok bool) {
	s := strings.TrimSpace(line)
	if i := strings.Index(s, "#"); i == 0 {
		return "", false, false
	}
	if !strings.HasPrefix(s, "[") {
		return "", false, false
	}
	array = strings.HasPrefix(s, "[[")
	open := 1
	closer := "]"
	if array {
		open = 2
		closer = "]]"
	}
	end := strings.Index(s, closer)
	if end < open {
		return "", false, false
	}
	return normalizePath(s[open:end]), array, true
}

// normalizePath canonicalizes a dotted key path, stripping quotes from
// individual parts.
func normalizePath(p string) string {
	parts := splitDotted(p)
	return strings.Join(parts, ".")
}

func splitDotted(p string) []string {
	var parts []string
	var cur strings.Builder
	var quote byte
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				cur.WriteByte(c)
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '.':
			parts = append(parts, strings.TrimSpace(cur.String()))
			cur.Reset()
		case c == ' ' || c == '\t':
		default:
			cur.WriteByte(c)
		}
	}
	parts = append(parts, strings.TrimSpace(cur.String()))
	return parts
}

// tableRange returns the line range [start, end) of the table with the given
// path. start is the header line; for the implicit root table start is -1.
// Multiple array-of-table blocks are not matched here (see ArrayTables).
func (d *Document) tableRange(path string) (start, end int, ok bool) {
	if path == "" {
		// Implicit root table: everything before the first header.
		for i, line := range d.lines {
			if _, _, isHeader := headerPath(line); isHeader {
				return -1, i, true
			}
		}
		return -1, len(d.lines), true
	}
	path = normalizePath(path)
	start = -1
	for i, line := range d.lines {
		p, isArray, isHeader := headerPath(line)
		if !isHeader {
			continue
		}
		if start >= 0 {
			return start, i, true
		}
		if p == path && !isArray {
			start = i
		}
	}
	if start >= 0 {
		return start, len(d.lines), true
	}
	return 0, 0, false
}

// HasTable reports whether a (non-array) table with the given path exists.
func (d *Document) HasTable(path string) bool {
	_, _, ok := d.tableRange(path)
	return ok
}

// keyRange locates the value region of a key within [start, end), returning
// the line range [ks, ke) covering the key line through the end of its value.
func (d *Document) keyRange(start, end int, key string) (ks, ke int, ok bool) {
	for i := start; i < end; i++ {
		k, rest, found := parseKeyLine(d.lines[i])
		if !found || k != key {
			continue
		}
		// Track bracket depth across lines for multi-line arrays.
		depth := bracketDelta(rest)
		j := i
		for depth > 0 && j+1 < end {
			j++
			depth += bracketDelta(d.lines[j])
		}
		return i, j + 1, true
	}
	return 0, 0, false
}

// parseKeyLine splits a "key = value" line, returning the normalized key and
// the value text. Quoted keys are unquoted.
func parseKeyLine(line string) (key, value string, ok bool) {
	s := strings.TrimSpace(line)
	if s == "" || strings.HasPrefix(s, "#") || strings.HasPrefix(s, "[") {
		return "", "", false
	}
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '=':
			k := strings.TrimSpace(s[:i])
			k = strings.Trim(k, `"'`)
			return k, strings.TrimSpace(s[i+1:]), true
		}
	}
	return "", "", false
}

// bracketDelta returns the net square-bracket depth change of a line,
// ignoring brackets inside strings and comments.
func bracketDelta(line string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == '\\' && quote == '"' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '#':
			return depth
		case c == '[':
			depth++
		case c == ']':
			depth--
		}
	}
	return depth
}

// StringArray returns the string items of an array-valued key.
func (d *Document) StringArray(path, key string) ([]string, bool) {
	start, end, ok := d.tableRange(path)
	if !ok {
		return nil, false
	}
	ks, ke, ok := d.keyRange(start+1, end, key)
	if !ok {
		return nil, false
	}
	region := strings.Join(d.lines[ks:ke], "\n")
	_, value, _ := strings.Cut(region, "=")
	return parseStringArray(value), true
}

// parseStringArray extracts the quoted strings of a TOML array literal.
func parseStringArray(s string) []string {
	items := []string{}
	var quote byte
	var cur strings.Builder
	inComment := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' && quote == '"' && i+1 < len(s) {
				i++
				cur.WriteByte(unescape(s[i]))
			} else if c == quote {
				items = append(items, cur.String())
				cur.Reset()
				quote = 0
			} else {
				cur.WriteByte(c)
			}
		case inComment:
			if c == '\n' {
				inComment = false
			}
		case c == '#':
			inComment = true
		case c == '\'' || c == '"':
			quote = c
		}
	}
	return items
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		return c
	}
}

// quoteString renders a TOML basic string.
func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// renderKey quotes a key when it is not a valid bare key.
func renderKey(key string) string {
	for i := 0; i < len(key); i++ {
		switch c := key[i]; {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return quoteString(key)
		}
	}
	return key
}

// formatStringArray renders an array of strings, multi-line when non-empty.
func formatStringArray(key string, values []string) []string {
	if len(values) == 0 {
		return []string{renderKey(key) + " = []"}
	}
	lines := make([]string, 0, len(values)+2)
	lines = append(lines, renderKey(key)+" = [")
	for _, v := range values {
		lines = append(lines, "    "+quoteString(v)+",")
	}
	return append(lines, "]")
}

// formatInlineStringArray renders an array of strings on a single line, for
// use inside inline tables.
func formatInlineStringArray(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quoteString(v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// SetStringArray replaces (or creates) an array-valued key in the table.
// A key that already holds a multi-line array is edited entry by entry, so
// comment and blank lines inside the array survive. The table is created at
// the end of the document if absent; when the table exists only as an inline
// value of its parent (e.g. optional-dependencies = { ... } under [project]),
// the inline table is extended in place instead.
func (d *Document) SetStringArray(path, key string, values []string) {
	if len(values) > 0 && d.spliceStringArray(path, key, values) {
		return
	}
	d.setKey(path, key, formatStringArray(key, values), formatInlineStringArray(values))
}

// SetKeyValue replaces (or creates) a key with a pre-rendered single-line
// value, e.g. an inline table. The table is created if absent.
func (d *Document) SetKeyValue(path, key, rendered string) {
	d.setKey(path, key, []string{renderKey(key) + " = " + rendered}, rendered)
}

func (d *Document) setKey(path, key string, tableLines []string, inlineValue string) {
	if _, _, ok := d.tableRange(path); !ok && d.setInlineKey(path, key, inlineValue) {
		return
	}
	d.setKeyLines(path, key, tableLines)
}

// arrayLine is one line inside a multi-line string array: either an entry
// with its surrounding trivia, or an opaque comment or blank line.
type arrayLine struct {
	entry   bool
	text    string
	indent  string
	value   string
	comment string // end-of-line comment including '#', empty if none
}

// parseArrayLine classifies a line of a multi-line string array. It fails on
// lines holding anything but a single entry, a comment, or whitespace.
func parseArrayLine(line string) (arrayLine, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return arrayLine{text: line}, true
	}
	quote := trimmed[0]
	if quote != '"' && quote != '\'' {
		return arrayLine{}, false
	}
	var sb strings.Builder
	i := 1
	for ; i < len(trimmed); i++ {
		c := trimmed[i]
		if c == '\\' && quote == '"' && i+1 < len(trimmed) {
			i++
			sb.WriteByte(unescape(trimmed[i]))
			continue
		}
		if c == quote {
			break
		}
		sb.WriteByte(c)
	}
	if i >= len(trimmed) {
		return arrayLine{}, false
	}
	rest := strings.TrimSpace(trimmed[i+1:])
	rest = strings.TrimSpace(strings.TrimPrefix(rest, ","))
	comment := ""
	if rest != "" {
		if !strings.HasPrefix(rest, "#") {
			return arrayLine{}, false
		}
		comment = rest
	}
	indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	return arrayLine{entry: true, text: line, indent: indent, value: sb.String(), comment: comment}, true
}

// spliceStringArray rewrites only the touched entries of an existing
// multi-line array, keeping untouched entry lines and interior comments
// byte-identical. It reports false when the key is absent, single-line, or
// not in a shape it can edit line by line; the caller then falls back to a
// full rewrite.
func (d *Document) spliceStringArray(path, key string, values []string) bool {
	start, end, ok := d.tableRange(path)
	if !ok {
		return false
	}
	contentStart := start + 1
	if start < 0 {
		contentStart = 0
	}
	ks, ke, ok := d.keyRange(contentStart, end, key)
	if !ok || ke-ks < 2 {
		return false
	}
	_, rest, ok := parseKeyLine(d.lines[ks])
	if !ok {
		return false
	}
	if open, _ := splitComment(rest); open != "[" {
		// Entries share the opening line; reformat wholesale.
		return false
	}
	if strings.TrimSpace(d.lines[ke-1]) != "]" {
		return false
	}

	middle := d.lines[ks+1 : ke-1]
	parsed := make([]arrayLine, len(middle))
	indent := "    "
	var oldValues []string
	for i, line := range middle {
		al, ok := parseArrayLine(line)
		if !ok {
			return false
		}
		if al.entry {
			if len(oldValues) == 0 {
				indent = al.indent
			}
			oldValues = append(oldValues, al.value)
		}
		parsed[i] = al
	}

	renderEntry := func(ind, value, comment string) string {
		line := ind + quoteString(value) + ","
		if comment != "" {
			line += " " + comment
		}
		return line
	}

	var out []string
	j := 0
	seen := 0 // entries of oldValues consumed so far
	for _, al := range parsed {
		if !al.entry {
			out = append(out, al.text)
			continue
		}
		seen++
		switch {
		case j < len(values) && values[j] == al.value:
			out = append(out, al.text)
			j++
		case !containsString(values[j:], al.value):
			// The old entry is gone. If the next new value is not waiting
			// on a later old entry, this is an update in place and the
			// line's trivia is kept.
			if j < len(values) && !containsString(oldValues[seen:], values[j]) {
				out = append(out, renderEntry(al.indent, values[j], al.comment))
				j++
			}
		default:
			// New values precede this old entry; insert them before it.
			for j < len(values) && values[j] != al.value {
				out = append(out, renderEntry(indent, values[j], ""))
				j++
			}
			out = append(out, al.text)
			j++
		}
	}
	// Remaining new values go at the end, after any trailing comments.
	for ; j < len(values); j++ {
		out = append(out, renderEntry(indent, values[j], ""))
	}

	d.splice(ks+1, ke-1, out)
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (d *Document) setKeyLines(path, key string, newLines []string) {
	start, end, ok := d.tableRange(path)
	if !ok {
		d.appendTable(path)
		start, end, _ = d.tableRange(path)
	}
	contentStart := start + 1
	if start < 0 {
		contentStart = 0
	}
	ks, ke, ok := d.keyRange(contentStart, end, key)
	if ok {
		d.splice(ks, ke, newLines)
		return
	}
	// Insert before trailing blank lines of the table so the new key stays
	// inside the section.
	ins := end
	for ins > contentStart && strings.TrimSpace(d.lines[ins-1]) == "" {
		ins--
	}
	d.splice(ins, ins, newLines)
}

// DeleteKey removes a key and its value region from the table. It reports
// whether anything was removed.
func (d *Document) DeleteKey(path, key string) bool {
	start, end, ok := d.tableRange(path)
	if !ok {
		return d.deleteInlineKey(path, key)
	}
	ks, ke, ok := d.keyRange(start+1, end, key)
	if !ok {
		return false
	}
	d.splice(ks, ke, nil)
	return true
}

// Keys lists the keys declared directly in the table.
func (d *Document) Keys(path string) []string {
	start, end, ok := d.tableRange(path)
	if !ok {
		return nil
	}
	var keys []string
	i := start + 1
	for i < end {
		k, rest, found := parseKeyLine(d.lines[i])
		if !found {
			i++
			continue
		}
		keys = append(keys, k)
		depth := bracketDelta(rest)
		for depth > 0 && i+1 < end {
			i++
			depth += bracketDelta(d.lines[i])
		}
		i++
	}
	return keys
}

// DeleteTable removes the table header and its contents, along with one
// adjacent blank separator line. A table that exists only as an inline value
// of its parent is removed by deleting that key.
func (d *Document) DeleteTable(path string) bool {
	start, end, ok := d.tableRange(path)
	if !ok {
		if parent, last, split := splitLast(path); split {
			if _, _, _, _, found := d.inlineTable(parent, last); found {
				return d.DeleteKey(parent, last)
			}
		}
		return false
	}
	if start < 0 {
		return false
	}
	for end > start+1 && strings.TrimSpace(d.lines[end-1]) == "" {
		end--
	}
	if start > 0 && strings.TrimSpace(d.lines[start-1]) == "" {
		start--
	}
	d.splice(start, end, nil)
	return true
}

// appendTable adds an empty table header at the end of the document.
func (d *Document) appendTable(path string) {
	header := "[" + path + "]"
	if len(d.lines) > 0 && strings.TrimSpace(d.lines[len(d.lines)-1]) != "" {
		d.lines = append(d.lines, "")
	}
	d.lines = append(d.lines, header)
}

// splitLast splits a dotted table path into its parent path and final part.
func splitLast(path string) (parent, last string, ok bool) {
	parts := splitDotted(path)
	if len(parts) < 2 {
		return "", "", false
	}
	return strings.Join(parts[:len(parts)-1], "."), parts[len(parts)-1], true
}

// inlineItem is one key/value pair of an inline table. Untouched items keep
// their original text verbatim.
type inlineItem struct {
	key  string
	text string
}

// inlineTable locates `last = { ... }` declared as a key of the parent table
// and parses the inline table into its items. prefix is the region text
// through the '=' sign, kept so the key spelling survives a rewrite.
func (d *Document) inlineTable(parent, last string) (ks, ke int, prefix string, items []inlineItem, ok bool) {
	ps, pe, found := d.tableRange(parent)
	if !found {
		return 0, 0, "", nil, false
	}
	cs := ps + 1
	if ps < 0 {
		cs = 0
	}
	ks, ke, found = d.keyRange(cs, pe, last)
	if !found {
		return 0, 0, "", nil, false
	}
	region := strings.Join(d.lines[ks:ke], "\n")
	eq := topLevelEquals(region)
	if eq < 0 {
		return 0, 0, "", nil, false
	}
	val := strings.TrimSpace(region[eq+1:])
	if !strings.HasPrefix(val, "{") || !strings.HasSuffix(val, "}") {
		return 0, 0, "", nil, false
	}
	items, found = parseInlineItems(val[1 : len(val)-1])
	if !found {
		return 0, 0, "", nil, false
	}
	return ks, ke, region[:eq+1], items, true
}

// topLevelEquals returns the index of the first '=' outside quotes.
func topLevelEquals(s string) int {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' && quote == '"' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '=':
			return i
		}
	}
	return -1
}

// parseInlineItems splits the body of an inline table at top-level commas.
func parseInlineItems(inner string) ([]inlineItem, bool) {
	var items []inlineItem
	last := 0
	flush := func(end int) bool {
		text := strings.TrimSpace(inner[last:end])
		if text == "" {
			return true
		}
		eq := topLevelEquals(text)
		if eq < 0 {
			return false
		}
		key := strings.Trim(strings.TrimSpace(text[:eq]), `"'`)
		items = append(items, inlineItem{key: key, text: text})
		return true
	}
	var quote byte
	depth := 0
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		switch {
		case quote != 0:
			if c == '\\' && quote == '"' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '[' || c == '{':
			depth++
		case c == ']' || c == '}':
			depth--
		case c == ',' && depth == 0:
			if !flush(i) {
				return nil, false
			}
			last = i + 1
		}
	}
	if !flush(len(inner)) {
		return nil, false
	}
	return items, true
}

func renderInlineTable(prefix string, items []inlineItem) []string {
	if len(items) == 0 {
		return strings.Split(prefix+" {}", "\n")
	}
	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.text
	}
	return strings.Split(prefix+" { "+strings.Join(texts, ", ")+" }", "\n")
}

// setInlineKey updates or appends a key inside an inline table declared as a
// value of the parent table, e.g. optional-dependencies = { io = [...] }
// under [project]. Untouched items keep their text verbatim.
func (d *Document) setInlineKey(path, key, value string) bool {
	parent, last, ok := splitLast(path)
	if !ok {
		return false
	}
	ks, ke, prefix, items, ok := d.inlineTable(parent, last)
	if !ok {
		return false
	}
	entry := renderKey(key) + " = " + value
	replaced := false
	for i, it := range items {
		if it.key == key {
			items[i].text = entry
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, inlineItem{key: key, text: entry})
	}
	d.splice(ks, ke, renderInlineTable(prefix, items))
	return true
}

// deleteInlineKey removes a key from an inline table declared as a value of
// the parent table.
func (d *Document) deleteInlineKey(path, key string) bool {
	parent, last, ok := splitLast(path)
	if !ok {
		return false
	}
	ks, ke, prefix, items, ok := d.inlineTable(parent, last)
	if !ok {
		return false
	}
	kept := items[:0]
	for _, it := range items {
		if it.key != key {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(items) {
		return false
	}
	d.splice(ks, ke, renderInlineTable(prefix, kept))
	return true
}

func (d *Document) splice(start, end int, repl []string) {
	out := make([]string, 0, len(d.lines)-(end-start)+len(repl))
	out = append(out, d.lines[:start]...)
	out = append(out, repl...)
	out = append(out, d.lines[end:]...)
	d.lines = out
}

// ArrayTable is one [[path]] block: its key/value fields plus any end-of-line
// comments, kept so a rewrite does not lose them.
type ArrayTable struct {
	Fields []Field
}

// Field is a single key line of an array table.
type Field struct {
	Key     string
	Value   string // rendered TOML value
	Comment string // end-of-line comment including '#', empty if none
}

// Get returns the unquoted string value of a field.
func (t ArrayTable) Get(key string) (string, bool) {
	for _, f := range t.Fields {
		if f.Key == key {
			return unquoteValue(f.Value), true
		}
	}
	return "", false
}

func unquoteValue(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		inner := v[1 : len(v)-1]
		if v[0] == '"' {
			var sb strings.Builder
			for i := 0; i < len(inner); i++ {
				if inner[i] == '\\' && i+1 < len(inner) {
					i++
					sb.WriteByte(unescape(inner[i]))
				} else {
					sb.WriteByte(inner[i])
				}
			}
			return sb.String()
		}
		return inner
	}
	return v
}

// splitComment separates an end-of-line comment from a value.
func splitComment(v string) (value, comment string) {
	var quote byte
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch {
		case quote != 0:
			if c == '\\' && quote == '"' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '#':
			return strings.TrimSpace(v[:i]), strings.TrimSpace(v[i:])
		}
	}
	return strings.TrimSpace(v), ""
}

// ArrayTables returns all [[path]] blocks in document order.
func (d *Document) ArrayTables(path string) []ArrayTable {
	path = normalizePath(path)
	var tables []ArrayTable
	var cur *ArrayTable
	for _, line := range d.lines {
		if p, isArray, isHeader := headerPath(line); isHeader {
			if cur != nil {
				tables = append(tables, *cur)
				cur = nil
			}
			if isArray && p == path {
				cur = &ArrayTable{}
			}
			continue
		}
		if cur == nil {
			continue
		}
		if k, rest, found := parseKeyLine(line); found {
			value, comment := splitComment(rest)
			cur.Fields = append(cur.Fields, Field{Key: k, Value: value, Comment: comment})
		}
	}
	if cur != nil {
		tables = append(tables, *cur)
	}
	return tables
}

// ReplaceArrayTables rewrites all [[path]] blocks with the given tables,
// anchored at the position of the first existing block, or appended at the
// end of the document if none exist.
func (d *Document) ReplaceArrayTables(path string, tables []ArrayTable) {
	path = normalizePath(path)
	anchor := -1
	// Remove existing blocks back to front so indices stay valid.
	type blockRange struct{ start, end int }
	var blocks []blockRange
	start := -1
	for i, line := range d.lines {
		p, isArray, isHeader := headerPath(line)
		if !isHeader {
			continue
		}
		if start >= 0 {
			blocks = append(blocks, blockRange{start, i})
			start = -1
		}
		if isArray && p == path {
			start = i
		}
	}
	if start >= 0 {
		blocks = append(blocks, blockRange{start, len(d.lines)})
	}
	for i := len(blocks) - 1; i >= 0; i-- {
		b := blocks[i]
		end := b.end
		for end > b.start+1 && strings.TrimSpace(d.lines[end-1]) == "" {
			end--
		}
		prev := b.start
		if prev > 0 && strings.TrimSpace(d.lines[prev-1]) == "" {
			prev--
		}
		d.splice(prev, end, nil)
		anchor = prev
	}

	if len(tables) == 0 {
		return
	}
	var rendered []string
	for _, t := range tables {
		rendered = append(rendered, "", "[["+path+"]]")
		for _, f := range t.Fields {
			line := f.Key + " = " + f.Value
			if f.Comment != "" {
				line += " " + f.Comment
			}
			rendered = append(rendered, line)
		}
	}
	if anchor < 0 {
		anchor = len(d.lines)
	}
	if anchor == 0 && len(rendered) > 0 && rendered[0] == "" {
		rendered = rendered[1:]
	}
	d.splice(anchor, anchor, rendered)
}

// String implements fmt.Stringer for debugging.
func (d *Document) String() string {
	return fmt.Sprintf("toml document (%d lines)", len(d.lines))
}
