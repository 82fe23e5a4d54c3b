// Package parser turns a raw webhook message into per-exchange command
// blocks (spec.md §4.4). Parsing never throws: malformed blocks, actions or
// arguments are silently dropped, matching the teacher's "decode defensively,
// drop what doesn't fit" idiom.
package parser

import (
	"regexp"
	"strings"
)

// Param is one {name, value, index} argument item (spec.md §3 "normalized
// args map" input, §4.1).
type Param struct {
	Name  string
	Value string
	Index int
}

// Action is one parsed command call inside a block.
type Action struct {
	Name   string
	Params []Param
}

// Block is one exchange(symbol) { ... } group.
type Block struct {
	Exchange string
	Symbol   string
	Actions  []Action
}

var (
	blockRe  = regexp.MustCompile(`(?is)([a-z][a-z0-9]*)\s*\(\s*([^()]*?)\s*\)\s*\{([^{}]*)\}`)
	actionRe = regexp.MustCompile(`(?is)([a-z][a-z0-9]*)\s*\(([^)]*)\)`)
)

// ParseMessage implements the block splitter (pass 1): only blocks with all
// three captures non-empty are kept, per spec.md §4.4.
func ParseMessage(message string) []Block {
	var blocks []Block
	for _, m := range blockRe.FindAllStringSubmatch(message, -1) {
		exchange, symbol, actionsText := strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), strings.TrimSpace(m[3])
		if exchange == "" || symbol == "" || actionsText == "" {
			continue
		}
		actions := parseActions(actionsText)
		if len(actions) == 0 {
			continue
		}
		blocks = append(blocks, Block{Exchange: exchange, Symbol: symbol, Actions: actions})
	}
	return blocks
}

// parseActions implements the action splitter (pass 2).
func parseActions(actionsText string) []Action {
	var actions []Action
	for _, m := range actionRe.FindAllStringSubmatch(actionsText, -1) {
		name := strings.ToLower(strings.TrimSpace(m[1]))
		if name == "" {
			continue
		}
		params := parseArgList(m[2])
		actions = append(actions, Action{Name: name, Params: params})
	}
	return actions
}

// parseArgList implements the argument splitter (pass 3): comma-separated,
// honoring a single level of double-quoted values. Each token matches
// name="value", name=value, "value" or value; indices are assigned in
// textual order.
func parseArgList(raw string) []Param {
	tokens := splitArgsRespectingQuotes(raw)
	params := make([]Param, 0, len(tokens))
	idx := 0
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		name, value, ok := splitNameValue(tok)
		if !ok {
			continue
		}
		params = append(params, Param{Name: name, Value: value, Index: idx})
		idx++
	}
	return params
}

// splitArgsRespectingQuotes splits raw on top-level commas, treating
// anything between a matched pair of double quotes as opaque.
func splitArgsRespectingQuotes(raw string) []string {
	var tokens []string
	var cur strings.Builder
	inQuotes := false

	for _, r := range raw {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			cur.WriteRune(r)
		case r == ',' && !inQuotes:
			tokens = append(tokens, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 || len(tokens) > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

// splitNameValue parses a single argument token into (name, value). A
// malformed token (e.g. an unterminated quote) is dropped by returning
// ok=false.
func splitNameValue(tok string) (name, value string, ok bool) {
	eq := indexOfTopLevelEquals(tok)
	if eq < 0 {
		v, ok2 := unquoteValue(tok)
		return "", v, ok2
	}
	name = strings.ToLower(strings.TrimSpace(tok[:eq]))
	if !isIdentifier(name) {
		return "", "", false
	}
	v, ok2 := unquoteValue(tok[eq+1:])
	return name, v, ok2
}

func indexOfTopLevelEquals(tok string) int {
	inQuotes := false
	for i, r := range tok {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case '=':
			if !inQuotes {
				return i
			}
		}
	}
	return -1
}

func unquoteValue(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", false
	}
	if strings.HasPrefix(v, `"`) {
		if !strings.HasSuffix(v, `"`) || len(v) < 2 {
			return "", false
		}
		return v[1 : len(v)-1], true
	}
	if strings.ContainsAny(v, `(){}"`) {
		return "", false
	}
	return v, true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		isLetter := r >= 'a' && r <= 'z'
		isDigit := r >= '0' && r <= '9'
		if i == 0 && !isLetter {
			return false
		}
		if !isLetter && !isDigit {
			return false
		}
	}
	return true
}

// Canonical re-serializes an action to the canonical "name(k=v, ...)" form,
// used by the parser round-trip property in spec.md §8.
func Canonical(a Action) string {
	var b strings.Builder
	b.WriteString(a.Name)
	b.WriteByte('(')
	for i, p := range a.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.Name != "" {
			b.WriteString(p.Name)
			b.WriteByte('=')
		}
		b.WriteString(p.Value)
	}
	b.WriteByte(')')
	return b.String()
}
