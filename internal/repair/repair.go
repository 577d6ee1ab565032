// Package repair recovers parseable JSON question arrays from the raw text
// the external model returns. The model is supposed to answer with a JSON
// array, but in practice the output arrives wrapped in markdown fences,
// mixed with prose, over-escaped, or structurally broken. The engine runs a
// fixed sequence of rewriting passes, each skipped once a parse succeeds,
// and falls back to per-object salvage when everything else fails.
package repair

import (
	"encoding/json"
	"regexp"
	"strings"

	"snapstudy/internal/logger"

	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"
)

// ToArray runs the repair pipeline and returns the recovered array. It is
// total: malformed input yields an empty (never nil) slice, not an error.
// The caller decides whether an empty result is a user-facing failure.
func ToArray(raw string) []interface{} {
	l := logger.Get()

	// Pass 1: the raw text may already be a valid array.
	if arr, ok := parseArray(raw); ok {
		return arr
	}

	// Pass 2: prefer the contents of a ```json fence.
	s := StripFences(raw)

	// Pass 3: cut down to the array boundaries; a lone object becomes a
	// one-element array.
	s = extractArrayBounds(s)
	if arr, ok := parseArray(s); ok {
		l.Debug("repair: parse succeeded after boundary extraction")
		return arr
	}

	// Pass 4: collapse broken backslash escaping.
	s = NormalizeEscapes(s)
	if arr, ok := parseArray(s); ok {
		l.Debug("repair: parse succeeded after escape normalization")
		return arr
	}

	// Pass 5: structural fixes (bare keys, quotes, commas).
	s = RepairStructure(s)
	if arr, ok := parseArray(s); ok {
		l.Debug("repair: parse succeeded after structural repair")
		return arr
	}

	// Pass 6: hand the remainder to the general-purpose fixer.
	if fixed, err := jsonrepair.JSONRepair(s); err == nil {
		s = fixed
	} else {
		l.Debug("repair: library pass failed", zap.Error(err))
	}

	// Pass 7: validate; tolerate {quiz: [...]}-shaped wrappers.
	if arr, ok := coerceToArray(s); ok {
		l.Debug("repair: parse succeeded after library pass")
		return arr
	}

	// Pass 8: last resort, salvage whatever objects parse on their own.
	l.Warn("repair: all passes failed, attempting emergency salvage",
		zap.Int("input_len", len(raw)))
	return Salvage(raw)
}

// Repair returns a canonical JSON array string for any input. The result
// always parses; the worst case is the literal "[]".
func Repair(raw string) string {
	arr := ToArray(raw)
	b, err := json.Marshal(arr)
	if err != nil {
		// Values produced by json.Unmarshal always re-marshal; this is
		// unreachable in practice.
		return "[]"
	}
	return string(b)
}

func parseArray(s string) ([]interface{}, bool) {
	var arr []interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &arr); err != nil {
		return nil, false
	}
	if arr == nil {
		arr = []interface{}{}
	}
	return unwrapContainer(arr), true
}

// unwrapContainer flattens the {"quiz": [...]} wrapper shape after the
// boundary pass has turned it into a one-element array.
func unwrapContainer(arr []interface{}) []interface{} {
	if len(arr) != 1 {
		return arr
	}
	obj, ok := arr[0].(map[string]interface{})
	if !ok {
		return arr
	}
	for _, key := range containerKeys {
		if inner, ok := obj[key].([]interface{}); ok {
			return inner
		}
	}
	return arr
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// StripFences extracts the contents of a markdown code fence when present,
// otherwise returns the input trimmed.
func StripFences(s string) string {
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}

// extractArrayBounds trims the text to the outermost array. Responses that
// are a single object get wrapped into a one-element array.
func extractArrayBounds(s string) string {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start >= 0 && end > start {
		// Mixed prose around the array is common; ignore it.
		objStart := strings.Index(s, "{")
		if objStart == -1 || objStart > start {
			return s[start : end+1]
		}
		// An object appears before the first bracket: the brackets likely
		// belong to a nested field, so treat the object as the payload.
	}
	if objStart := strings.Index(s, "{"); objStart >= 0 {
		if objEnd := strings.LastIndex(s, "}"); objEnd > objStart {
			return "[" + s[objStart:objEnd+1] + "]"
		}
	}
	return strings.TrimSpace(s)
}

// latexCommands are commands the model legitimately emits with a single
// backslash. Doubled escapes on these are collapsed; the single-escaped
// forms are left alone.
var latexCommands = []string{
	"frac", "sqrt", "Delta", "delta", "alpha", "beta", "gamma", "theta",
	"lambda", "sigma", "omega", "pi", "mu", "sum", "int", "lim", "infty",
	"times", "div", "pm", "leq", "geq", "neq", "approx", "cdot", "partial",
	"text", "mathrm", "left", "right", "over", "rightarrow", "to",
}

var (
	escapedKeyQuoteRe   = regexp.MustCompile(`\\+"(\s*:)`)
	escapedCloseQuoteRe = regexp.MustCompile(`\\+"(\s*[,}\]])`)
	quadBackslashRe     = regexp.MustCompile(`\\{4,}`)
	latexSingleRe       = regexp.MustCompile(`(^|[^\\])\\(` + strings.Join(latexCommands, "|") + `)\b`)
)

// NormalizeEscapes collapses runs of backslashes the model inserts around
// keys and LaTeX commands. The pattern `"key\":` becomes `"key":`;
// over-doubled runs like `\\\\frac` collapse to `\\frac`; and a lone
// backslash before a known LaTeX command (`\Delta`, an invalid JSON
// escape) is promoted to the `\\Delta` the string encoding needs. Only
// known command names are touched so legitimate escapes survive.
func NormalizeEscapes(s string) string {
	// `"key\":` and `"value\"}` style over-escaped closing quotes.
	s = escapedKeyQuoteRe.ReplaceAllString(s, `"$1`)
	s = escapedCloseQuoteRe.ReplaceAllString(s, `"$1`)

	// Four or more backslashes never survive one decode level intact.
	s = quadBackslashRe.ReplaceAllString(s, `\\`)

	// Single-escaped LaTeX commands break json.Unmarshal outright.
	s = latexSingleRe.ReplaceAllString(s, `${1}\\${2}`)
	return s
}

var (
	bareKeyRe       = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	singleQuoteRe   = regexp.MustCompile(`'([^'\\]*)'(\s*[:,}\]])`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	missingCommaRe  = regexp.MustCompile(`([}\]])\s*([{\[])`)
)

// RepairStructure applies the structural heuristics: quote bare property
// names, convert single-quoted strings, strip trailing commas, and insert
// the comma the model dropped between adjacent objects or arrays.
func RepairStructure(s string) string {
	s = bareKeyRe.ReplaceAllString(s, `$1"$2":`)
	s = singleQuoteRe.ReplaceAllString(s, `"$1"$2`)
	s = trailingCommaRe.ReplaceAllString(s, `$1`)
	s = missingCommaRe.ReplaceAllString(s, `$1,$2`)
	return s
}

// coerceToArray parses s and reshapes non-array results: objects wrapping
// the array under a known key are unwrapped, any other object becomes a
// one-element array.
func coerceToArray(s string) ([]interface{}, bool) {
	if arr, ok := parseArray(s); ok {
		return arr, true
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &obj); err != nil {
		return nil, false
	}
	for _, key := range containerKeys {
		if inner, ok := obj[key].([]interface{}); ok {
			return inner, true
		}
	}
	return []interface{}{obj}, true
}

var containerKeys = []string{"quiz", "quizQuestions", "questions"}
