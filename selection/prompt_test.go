package selection

import (
	"reflect"
	"testing"
)

func Test_ParseDirectives_PlainJSON(t *testing.T) {
	got, err := ParseDirectives(`{"directives":[{"action":"include","path":"a.go"},{"action":"EXCLUDE","path":"./b.go"}]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Directive{{Action: ActionInclude, Path: "a.go"}, {Action: ActionExclude, Path: "b.go"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func Test_ParseDirectives_FencedWithProse(t *testing.T) {
	response := "Here is my answer:\n```json\n{\"directives\":[{\"action\":\"include\",\"path\":\"src/x.ts\"}]}\n```\nDone."
	got, err := ParseDirectives(response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Path != "src/x.ts" {
		t.Errorf("unexpected directives: %v", got)
	}
}

func Test_ParseDirectives_EmptyList(t *testing.T) {
	got, err := ParseDirectives(`{"directives":[]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no directives, got %v", got)
	}
}

func Test_ParseDirectives_Invalid(t *testing.T) {
	cases := map[string]string{
		"no json":        "include a.go",
		"broken json":    `{"directives":[{"action":"include"`,
		"no directives":  `{"files":["a.go"]}`,
		"not an array":   `{"directives":"a.go"}`,
		"not an object":  `{"directives":["a.go"]}`,
		"unknown action": `{"directives":[{"action":"keep","path":"a.go"}]}`,
		"missing path":   `{"directives":[{"action":"include"}]}`,
		"numeric path":   `{"directives":[{"action":"include","path":3}]}`,
		"blank path":     `{"directives":[{"action":"include","path":"  "}]}`,
	}
	for name, response := range cases {
		if _, err := ParseDirectives(response); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
