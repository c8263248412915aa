package selection

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/lexandro/codecontext-mcp/language"
	"github.com/lexandro/codecontext-mcp/project"
	"github.com/lexandro/codecontext-mcp/render"
)

// Action of a ranking directive.
type Action string

const (
	ActionInclude Action = "include"
	ActionExclude Action = "exclude"
)

// Directive is one instruction from the ranking call.
type Directive struct {
	Action Action
	Path   string
}

// SystemPrompt is the system message sent with every ranking prompt.
const SystemPrompt = "You pick files for a coding assistant's context. Reply with a single JSON object and nothing else."

// Budget for the compact view of files already in context.
const (
	knownFilesBudget  = 1500
	knownFilesPerFile = 300
)

// promptInput is everything the ranking prompt is built from.
type promptInput struct {
	query       string
	candidates  []string
	files       project.Collection
	buffer      []string
	maxIncluded int
}

func buildPrompt(in promptInput) string {
	var b strings.Builder

	b.WriteString("You select which project files an AI coding assistant needs in its context to handle the user's request.\n\n")
	b.WriteString("User request:\n")
	b.WriteString(strings.TrimSpace(in.query))
	b.WriteString("\n\nCandidate files:\n")
	for _, p := range in.candidates {
		content := in.files[p].Content
		fmt.Fprintf(&b, "- %s (%s, %d lines)\n", p, language.DetectLanguage(p), strings.Count(content, "\n")+1)
	}

	if len(in.buffer) > 0 {
		known := render.Render(in.files.Subset(in.buffer), render.Options{
			Budget:         knownFilesBudget,
			PerFileCeiling: knownFilesPerFile,
		})
		b.WriteString("\nFiles already in context (kept unless you exclude them):\n")
		b.WriteString(known.Text)
	}

	fmt.Fprintf(&b, `
Respond with only a JSON object, no prose:
{"directives":[{"action":"include","path":"<candidate path>"},{"action":"exclude","path":"<candidate path>"}]}
Rules:
- Use only paths from the candidate list, spelled exactly.
- Include at most %d files in total.
- Exclude files already in context that are no longer relevant.
`, in.maxIncluded)
	return b.String()
}

// ParseDirectives extracts directives from a ranking response. The JSON object may be
// wrapped in prose or a fenced code block. Any deviation from the expected shape is an error.
func ParseDirectives(response string) ([]Directive, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end < start {
		return nil, errors.New("no JSON object in response")
	}
	body := response[start : end+1]
	if !gjson.Valid(body) {
		return nil, errors.New("response is not valid JSON")
	}

	list := gjson.Get(body, "directives")
	if !list.IsArray() {
		return nil, errors.New(`response has no "directives" array`)
	}

	var directives []Directive
	var parseErr error
	list.ForEach(func(i, item gjson.Result) bool {
		if !item.IsObject() {
			parseErr = fmt.Errorf("directive %d is not an object", i.Int())
			return false
		}
		action := Action(strings.ToLower(strings.TrimSpace(item.Get("action").String())))
		if action != ActionInclude && action != ActionExclude {
			parseErr = fmt.Errorf("directive %d has unknown action %q", i.Int(), item.Get("action").String())
			return false
		}
		pathField := item.Get("path")
		if pathField.Type != gjson.String || strings.TrimSpace(pathField.String()) == "" {
			parseErr = fmt.Errorf("directive %d has no path", i.Int())
			return false
		}
		directives = append(directives, Directive{Action: action, Path: project.NormalizePath(strings.TrimSpace(pathField.String()))})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return directives, nil
}
