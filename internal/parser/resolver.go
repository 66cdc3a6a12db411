// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     parser
// Description: Block resolver. Scans all lines once, finds struct.begin
//              headers (with their inline, multi-line or look-ahead
//              parameters) and struct.end markers, pairs them with a stack,
//              re-pairs orphan closes heuristically and derives the nesting
//              forest from the final spans.
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package parser

import (
	"strings"

	"github.com/msto63/structlint/internal/ast"
	"github.com/msto63/structlint/internal/lexer"
)

const (
	keywordBegin = "struct.begin"
	keywordEnd   = "struct.end"
)

// LineSet is an immutable set of line indices
type LineSet struct {
	lines map[int]struct{}
}

func newLineSet(lines map[int]struct{}) LineSet {
	return LineSet{lines: lines}
}

// Has reports whether line is in the set
func (s LineSet) Has(line int) bool {
	_, ok := s.lines[line]
	return ok
}

// Len returns the number of lines in the set
func (s LineSet) Len() int {
	return len(s.lines)
}

// OpenMarker is a resolved struct.begin header
type OpenMarker struct {
	Line    int
	Indent  int
	Name    string
	NameCol int
	Params  *ast.ParamSet
	// Close is the line of the paired struct.end, ast.NoLine if unmatched
	Close       int
	CloseIndent int
	// Parent is the index of the smallest enclosing header, -1 at root
	Parent int
}

// CloseMarker is a struct.end line
type CloseMarker struct {
	Line   int
	Indent int
}

// Resolution is the output of the block resolver
type Resolution struct {
	Opens   []*OpenMarker // in line order
	Orphans []CloseMarker // closes left unmatched after recovery
	// Consumed holds parameter lines absorbed by a header
	Consumed LineSet
	// Markers holds every header and close line
	Markers LineSet
}

// Unclosed returns the headers without a matching close
func (r *Resolution) Unclosed() []*OpenMarker {
	var out []*OpenMarker
	for _, o := range r.Opens {
		if o.Close == ast.NoLine {
			out = append(out, o)
		}
	}
	return out
}

// headerMatch is a line recognized as "<name> : struct.begin <rest>"
type headerMatch struct {
	name    string
	nameCol int
	rest    string
	restCol int
}

// matchHeader recognizes a block opener in the code part of a line
func matchHeader(code string) (headerMatch, bool) {
	colon := strings.IndexByte(code, ':')
	if colon < 0 {
		return headerMatch{}, false
	}
	lead := LeadingWhitespace(code)
	name := strings.TrimSpace(code[:colon])
	if name == "" || strings.ContainsAny(name, " \t=") {
		return headerMatch{}, false
	}

	after := code[colon+1:]
	afterCol := colon + 1 + LeadingWhitespace(after)
	after = strings.TrimLeft(after, " \t")
	if !strings.HasPrefix(after, keywordBegin) {
		return headerMatch{}, false
	}
	rest := after[len(keywordBegin):]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' && rest[0] != '{' {
		return headerMatch{}, false
	}

	restCol := afterCol + len(keywordBegin) + LeadingWhitespace(rest)
	return headerMatch{
		name:    name,
		nameCol: lead,
		rest:    strings.TrimSpace(rest),
		restCol: restCol,
	}, true
}

// isCloseLine reports whether the code part of a line is exactly struct.end
func isCloseLine(code string) bool {
	return strings.TrimSpace(code) == keywordEnd
}

// resolver holds the state of one Resolve call
type resolver struct {
	lines    []string
	tokens   [][]lexer.Token
	opts     Options
	consumed map[int]struct{}
	markers  map[int]struct{}
}

// Resolve finds and pairs every block marker of a document
func Resolve(lines []string, tokens [][]lexer.Token, opts Options) *Resolution {
	r := &resolver{
		lines:    lines,
		tokens:   tokens,
		opts:     opts.withDefaults(),
		consumed: make(map[int]struct{}),
		markers:  make(map[int]struct{}),
	}
	return r.run()
}

func (r *resolver) code(i int) string {
	return r.lines[i][:lexer.CodeEnd(r.lines[i], r.tokens[i])]
}

func (r *resolver) isMarker(i int) bool {
	code := r.code(i)
	if isCloseLine(code) {
		return true
	}
	_, ok := matchHeader(code)
	return ok
}

func (r *resolver) run() *Resolution {
	var (
		opens   []*OpenMarker
		stack   []*OpenMarker
		orphans []CloseMarker
	)

	for i := range r.lines {
		if _, skip := r.consumed[i]; skip {
			continue
		}
		code := r.code(i)
		indent := MeasureIndent(r.lines[i], r.opts.TabWidth)

		if isCloseLine(code) {
			r.markers[i] = struct{}{}
			if n := len(stack); n > 0 {
				top := stack[n-1]
				stack = stack[:n-1]
				top.Close = i
				top.CloseIndent = indent
			} else {
				orphans = append(orphans, CloseMarker{Line: i, Indent: indent})
			}
			continue
		}

		hdr, ok := matchHeader(code)
		if !ok {
			continue
		}
		r.markers[i] = struct{}{}
		open := &OpenMarker{
			Line:    i,
			Indent:  indent,
			Name:    hdr.name,
			NameCol: hdr.nameCol,
			Close:   ast.NoLine,
			Parent:  -1,
		}
		open.Params = r.headerParams(i, indent, hdr)
		opens = append(opens, open)
		stack = append(stack, open)
	}

	orphans = recoverOrphans(opens, orphans, r.opts.RecoveryWindow)
	assignParents(opens)

	return &Resolution{
		Opens:    opens,
		Orphans:  orphans,
		Consumed: newLineSet(r.consumed),
		Markers:  newLineSet(r.markers),
	}
}

// headerParams finds the parameters of the header on line i. Inline text
// after struct.begin wins, then a multi-line {...} block starting on the
// next code line, then a single {...} line within the look-ahead window.
func (r *resolver) headerParams(i, indent int, hdr headerMatch) *ast.ParamSet {
	if hdr.rest != "" {
		raw := hdr.rest
		if depth := braceDelta(lexer.Tokenize(raw, i)); strings.HasPrefix(raw, "{") && depth > 0 {
			if text, lines, ok := r.accumulate(i+1, depth, indent); ok {
				raw = raw + " " + text
				r.consume(lines)
			}
		}
		return r.locate(ParseParams(raw), i, hdr.restCol)
	}

	j, ok := r.nextCodeLine(i)
	if !ok {
		return nil
	}
	code := strings.TrimSpace(r.code(j))
	if !strings.HasPrefix(code, "{") {
		return nil
	}
	col := LeadingWhitespace(r.lines[j])

	// multi-line block
	if depth := braceDelta(r.tokens[j]); depth > 0 && MeasureIndent(r.lines[j], r.opts.TabWidth) >= indent {
		if text, lines, ok := r.accumulate(j+1, depth, indent); ok {
			r.consume(append([]int{j}, lines...))
			return r.locate(ParseParams(code+" "+text), j, col)
		}
	}

	// single brace-only line
	if isBraceOnly(code) {
		r.consume([]int{j})
		return r.locate(ParseParams(code), j, col)
	}
	return nil
}

// accumulate collects lines from start on until the brace depth returns to
// zero. It fails when the block exceeds the line window, reaches a marker
// line or a line indented less than the header.
func (r *resolver) accumulate(start, depth, indent int) (string, []int, bool) {
	var (
		parts []string
		lines []int
	)
	limit := start + r.opts.ParamBlockLines - 1
	for j := start; j < len(r.lines) && j < limit; j++ {
		code := strings.TrimSpace(r.code(j))
		if code == "" {
			continue
		}
		if r.isMarker(j) || MeasureIndent(r.lines[j], r.opts.TabWidth) < indent {
			return "", nil, false
		}
		parts = append(parts, code)
		lines = append(lines, j)
		depth += braceDelta(r.tokens[j])
		if depth <= 0 {
			return strings.Join(parts, " "), lines, true
		}
	}
	return "", nil, false
}

// nextCodeLine returns the first line after i with code, within the
// look-ahead window
func (r *resolver) nextCodeLine(i int) (int, bool) {
	for j := i + 1; j < len(r.lines) && j <= i+r.opts.ParamLookahead; j++ {
		if _, taken := r.consumed[j]; taken {
			continue
		}
		if strings.TrimSpace(r.code(j)) != "" {
			return j, true
		}
	}
	return 0, false
}

func (r *resolver) consume(lines []int) {
	for _, l := range lines {
		r.consumed[l] = struct{}{}
	}
}

func (r *resolver) locate(ps *ast.ParamSet, line, col int) *ast.ParamSet {
	ps.Line = line
	ps.StartCol = col
	ps.EndCol = lexer.CodeEnd(r.lines[line], r.tokens[line])
	for ps.EndCol > col && (r.lines[line][ps.EndCol-1] == ' ' || r.lines[line][ps.EndCol-1] == '\t') {
		ps.EndCol--
	}
	return ps
}

// recoverOrphans tries to pair each orphan close with an unclosed header
// before it. Candidates are scanned most recent first within the recovery
// window; a header indented no deeper than the close is preferred, else
// the nearest candidate is taken. Closes that find no header are returned.
//
// Resolve is its only caller and pairs closes with a strict LIFO stack, so
// an orphan only occurs when every earlier header is already closed. From
// Resolve this pass therefore never pairs anything; its pairing branch is
// reached only by calling it directly.
func recoverOrphans(opens []*OpenMarker, orphans []CloseMarker, window int) []CloseMarker {
	var remaining []CloseMarker
	for _, orphan := range orphans {
		preferred, nearest := -1, -1
		for k := len(opens) - 1; k >= 0; k-- {
			open := opens[k]
			if open.Line >= orphan.Line || open.Close != ast.NoLine {
				continue
			}
			if orphan.Line-open.Line > window {
				break
			}
			if nearest < 0 {
				nearest = k
			}
			if open.Indent <= orphan.Indent {
				preferred = k
				break
			}
		}

		pick := preferred
		if pick < 0 {
			pick = nearest
		}
		if pick < 0 {
			remaining = append(remaining, orphan)
			continue
		}
		opens[pick].Close = orphan.Line
		opens[pick].CloseIndent = orphan.Indent
	}
	return remaining
}

// spanEnd returns the last line of a header's span; unclosed spans never end
func spanEnd(o *OpenMarker) int {
	if o.Close == ast.NoLine {
		return int(^uint(0) >> 1)
	}
	return o.Close
}

// assignParents sets each header's parent to the smallest other header whose
// span strictly contains it. It runs after recovery because recovery can
// change spans.
func assignParents(opens []*OpenMarker) {
	for i, child := range opens {
		child.Parent = -1
		best := -1
		for k, cand := range opens {
			if k == i || cand.Line >= child.Line || spanEnd(child) > spanEnd(cand) {
				continue
			}
			if best < 0 || smaller(cand, opens[best]) {
				best = k
			}
		}
		child.Parent = best
	}
}

// smaller orders spans by size, the later start winning ties
func smaller(a, b *OpenMarker) bool {
	sa, sb := spanEnd(a)-a.Line, spanEnd(b)-b.Line
	if sa != sb {
		return sa < sb
	}
	return a.Line > b.Line
}
