package llm

import (
	"errors"
	"testing"

	"go.aimuz.me/interviewcoder/internal/types"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"plain", `{"a":1}`, `{"a":1}`, true},
		{"surrounded by prose", "Sure! {\"a\":1} hope it helps", `{"a":1}`, true},
		{"fenced", "```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`, true},
		{"brace in string", `{"code":"if x { }"}`, `{"code":"if x { }"}`, true},
		{"escaped quote in string", `{"code":"say \"}\" now"} tail`, `{"code":"say \"}\" now"}`, true},
		{"first of two", `{"a":1} {"b":2}`, `{"a":1}`, true},
		{"unbalanced", `{"a":1`, "", false},
		{"no object", "no json here", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseSolution(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		reply := `Here you go:
{"approach":"Two pointers","code":"def f(): pass","timeComplexity":"O(n)","spaceComplexity":"O(1)"}`
		sol, err := ParseSolution(reply)
		if err != nil {
			t.Fatalf("ParseSolution: %v", err)
		}
		want := types.Solution{
			Approach:        "Two pointers",
			Code:            "def f(): pass",
			TimeComplexity:  "O(n)",
			SpaceComplexity: "O(1)",
		}
		if sol != want {
			t.Errorf("got %+v, want %+v", sol, want)
		}
	})

	failures := map[string]string{
		"no json":       "I cannot help with that.",
		"bad json":      `{"approach": }`,
		"missing field": `{"approach":"a","code":"b","timeComplexity":"O(1)"}`,
		"empty field":   `{"approach":"a","code":"","timeComplexity":"O(1)","spaceComplexity":"O(1)"}`,
	}
	for name, reply := range failures {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSolution(reply)
			if !errors.Is(err, types.ErrProvider) {
				t.Errorf("ParseSolution error = %v, want ErrProvider", err)
			}
		})
	}
}
