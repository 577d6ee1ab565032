package repair

import (
	"encoding/json"
	"strings"

	"snapstudy/internal/logger"

	"go.uber.org/zap"
)

// Salvage scans the raw text for individual {...} blocks that look like
// questions and tries to rescue each one independently. Blocks that still
// refuse to parse after the escape and structure passes are skipped, so
// the result is whatever subset is recoverable, possibly empty.
func Salvage(raw string) []interface{} {
	l := logger.Get()
	out := []interface{}{}

	for _, block := range scanObjects(raw) {
		if !strings.Contains(block, "question") {
			continue
		}
		candidate := NormalizeEscapes(block)
		candidate = RepairStructure(candidate)

		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
			l.Debug("salvage: block still unparseable, skipping",
				zap.Int("block_len", len(block)))
			continue
		}
		if _, ok := obj["question"]; !ok {
			continue
		}
		out = append(out, obj)
	}

	l.Info("salvage: recovered question blocks", zap.Int("count", len(out)))
	return out
}

// scanObjects returns every top-level balanced {...} block in the text.
// Braces inside string literals are honored, so nested option objects stay
// attached to their question.
func scanObjects(s string) []string {
	var blocks []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					blocks = append(blocks, s[start:i+1])
					start = -1
				}
			}
		}
	}

	// Unterminated block at the tail: close what we can. A truncated
	// response usually loses only the final question.
	if depth > 0 && start >= 0 {
		blocks = append(blocks, s[start:]+strings.Repeat("}", depth))
	}
	return blocks
}
