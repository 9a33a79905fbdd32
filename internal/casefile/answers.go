package casefile

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// The legacy intake format stored every answer as a string: booleans as
// "true"/"false" and multi-selects as comma-joined lists. Internally we keep a
// tagged value per question id and only produce the string form at the
// analyzer boundary.

type AnswerKind string

const (
	AnswerBool      AnswerKind = "bool"
	AnswerText      AnswerKind = "text"
	AnswerStringSet AnswerKind = "set"
)

const setSeparator = ","

// Answer is one collected response: exactly one of the value fields is
// meaningful, selected by Kind.
type Answer struct {
	Kind AnswerKind `json:"kind"`
	Bool bool       `json:"bool,omitempty"`
	Text string     `json:"text,omitempty"`
	Set  []string   `json:"set,omitempty"`
}

// Answers maps question id to response. Keys are unique, insertion order is
// not significant.
type Answers map[string]Answer

func (a Answers) SetBool(id string, v bool) { a[id] = Answer{Kind: AnswerBool, Bool: v} }
func (a Answers) SetText(id, v string) { a[id] = Answer{Kind: AnswerText, Text: v} }
func (a Answers) SetSet(id string, v []string) { a[id] = Answer{Kind: AnswerStringSet, Set: v} }

// Has reports whether a response has been recorded for id, whatever its kind.
func (a Answers) Has(id string) bool {
	_, ok := a[id]
	return ok
}

func (a Answers) BoolValue(id string) bool {
	ans, ok := a[id]
	return ok && ans.Kind == AnswerBool && ans.Bool
}

func (a Answers) TextValue(id string) string {
	ans, ok := a[id]
	if !ok || ans.Kind != AnswerText {
		return ""
	}
	return ans.Text
}

func (a Answers) SetValue(id string) []string {
	ans, ok := a[id]
	if !ok || ans.Kind != AnswerStringSet {
		return nil
	}
	return ans.Set
}

// Toggle flips membership of option in the set answer id, subject to maxLen:
// removing is always allowed, adding a new option when the set already holds
// maxLen entries is an ignored no-op. Reports whether the set changed.
func (a Answers) Toggle(id, option string, maxLen int) bool {
	cur := a.SetValue(id)
	for i, v := range cur {
		if v == option {
			next := append(append([]string{}, cur[:i]...), cur[i+1:]...)
			a.SetSet(id, next)
			return true
		}
	}
	if maxLen > 0 && len(cur) >= maxLen {
		return false
	}
	a.SetSet(id, append(append([]string{}, cur...), option))
	return true
}

// WireMap renders the answers in the legacy string/string shape used in
// analyzer prompts.
func (a Answers) WireMap() map[string]string {
	out := make(map[string]string, len(a))
	for id, ans := range a {
		switch ans.Kind {
		case AnswerBool:
			if ans.Bool {
				out[id] = "true"
			} else {
				out[id] = "false"
			}
		case AnswerStringSet:
			out[id] = strings.Join(ans.Set, setSeparator)
		default:
			out[id] = ans.Text
		}
	}
	return out
}

// AnswersFromWire rebuilds typed answers from the legacy string encoding.
// "true"/"false" become booleans, values containing the separator become
// sets, everything else stays text.
func AnswersFromWire(wire map[string]string) Answers {
	out := make(Answers, len(wire))
	for id, v := range wire {
		switch {
		case v == "true" || v == "false":
			out.SetBool(id, v == "true")
		case strings.Contains(v, setSeparator):
			parts := strings.Split(v, setSeparator)
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			out.SetSet(id, parts)
		default:
			out.SetText(id, v)
		}
	}
	return out
}

// WireJSON is the wire map serialized with stable key order, for prompt
// embedding.
func (a Answers) WireJSON() string {
	wire := a.WireMap()
	keys := make([]string, 0, len(wire))
	for k := range wire {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(",")
		}
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(wire[k])
		fmt.Fprintf(&b, "%s:%s", kb, vb)
	}
	b.WriteString("}")
	return b.String()
}

// WordCount counts non-empty whitespace-separated tokens in the text answer.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
