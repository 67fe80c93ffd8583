package llm

import (
	"encoding/json"
	"fmt"

	"go.aimuz.me/interviewcoder/internal/types"
)

// ExtractJSON returns the first balanced {...} span in text.
// Braces inside JSON strings are ignored.
func ExtractJSON(text string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if start < 0 {
			if c == '{' {
				start = i
				depth = 1
			}
			continue
		}

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
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// ParseSolution extracts and validates a Solution from a model reply.
func ParseSolution(text string) (types.Solution, error) {
	raw, ok := ExtractJSON(text)
	if !ok {
		return types.Solution{}, fmt.Errorf("%w: no JSON object in response", types.ErrProvider)
	}

	var sol types.Solution
	if err := json.Unmarshal([]byte(raw), &sol); err != nil {
		return types.Solution{}, fmt.Errorf("%w: parse solution: %v", types.ErrProvider, err)
	}
	if !sol.Complete() {
		return types.Solution{}, fmt.Errorf("%w: solution missing required fields", types.ErrProvider)
	}
	// The model does not get to set local flags.
	sol.Cached = false
	sol.Err = false
	return sol, nil
}
