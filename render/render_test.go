package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/lexandro/codecontext-mcp/project"
)

func fileOf(path string, content string) project.FileRecord {
	return project.FileRecord{Path: path, Kind: project.KindFile, Content: content}
}

func Test_EstimateTokens(t *testing.T) {
	cases := map[string]int{
		"":      0,
		"abc":   1,
		"abcd":  1,
		"abcde": 2,
		"ééééé": 2,
	}
	for in, want := range cases {
		if got := EstimateTokens(in); got != want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", in, got, want)
		}
	}
}

func Test_Render_IncludesAllWhenBudgetAllows(t *testing.T) {
	files := project.NewCollection(
		fileOf("b.go", "package b"),
		fileOf("a.go", "package a"),
		project.FileRecord{Path: "dir", Kind: project.KindFolder},
	)

	out := Render(files, Options{Budget: 1000})

	if len(out.Included) != 2 {
		t.Fatalf("expected 2 files, got %v", out.Included)
	}
	if out.Included[0] != "a.go" || out.Included[1] != "b.go" {
		t.Errorf("expected stable path order, got %v", out.Included)
	}
	if !strings.Contains(out.Text, `<file path="a.go">`) || !strings.Contains(out.Text, "```go\npackage a\n```") {
		t.Errorf("unexpected text:\n%s", out.Text)
	}
	if strings.Index(out.Text, "a.go") > strings.Index(out.Text, "b.go") {
		t.Error("expected a.go before b.go")
	}
}

func Test_Render_RespectsBudget(t *testing.T) {
	files := project.Collection{}
	naive := 0
	for i := 0; i < 20; i++ {
		content := strings.Repeat(fmt.Sprintf("line %d of file %d\n", i, i), 40)
		p := fmt.Sprintf("src/file%02d.ts", i)
		files[p] = fileOf(p, content)
		naive += EstimateTokens(content)
	}

	for _, budget := range []int{1, 50, 300, 1000, 2500} {
		if naive <= budget {
			t.Fatalf("test setup: naive size %d must exceed budget %d", naive, budget)
		}
		out := Render(files, Options{Budget: budget, PerFileCeiling: 400})
		if got := EstimateTokens(out.Text); got > budget+Overhead {
			t.Errorf("budget %d: output estimates %d tokens, limit %d", budget, got, budget+Overhead)
		}
		if len(out.Included)+len(out.Dropped) != len(files) {
			t.Errorf("budget %d: included %d + dropped %d != %d files", budget, len(out.Included), len(out.Dropped), len(files))
		}
	}
}

func Test_Render_TruncatesLargeFile(t *testing.T) {
	big := strings.Repeat("x", 10000)
	files := project.NewCollection(fileOf("big.txt", big), fileOf("small.txt", "hi"))

	out := Render(files, Options{Budget: 5000, PerFileCeiling: 100})

	if len(out.Truncated) != 1 || out.Truncated[0] != "big.txt" {
		t.Fatalf("expected big.txt truncated, got %v", out.Truncated)
	}
	if len(out.Included) != 2 {
		t.Errorf("expected both files included, got %v", out.Included)
	}
	if !strings.Contains(out.Text, "[truncated]") {
		t.Error("expected truncation marker")
	}
	block, _, _ := fileBlock("big.txt", big, 100)
	if EstimateTokens(block) > 100 {
		t.Errorf("truncated block uses %d tokens, ceiling 100", EstimateTokens(block))
	}
}

func Test_Render_DropsFileWhenFrameExceedsCeiling(t *testing.T) {
	files := project.NewCollection(fileOf("src/module/handler.go", strings.Repeat("x", 200)))

	for ceiling := 1; ceiling <= 40; ceiling++ {
		out := Render(files, Options{Budget: 5000, PerFileCeiling: ceiling})
		if len(out.Included) == 0 {
			if len(out.Dropped) != 1 {
				t.Errorf("ceiling %d: expected the file dropped, got %v", ceiling, out.Dropped)
			}
			continue
		}
		block, _, ok := fileBlock("src/module/handler.go", strings.Repeat("x", 200), ceiling)
		if !ok || EstimateTokens(block) > ceiling {
			t.Errorf("ceiling %d: included block uses %d tokens", ceiling, EstimateTokens(block))
		}
	}

	out := Render(files, Options{Budget: 5000, PerFileCeiling: 5})
	if len(out.Included) != 0 || len(out.Dropped) != 1 {
		t.Errorf("expected the file dropped at ceiling 5, got included %v, dropped %v", out.Included, out.Dropped)
	}
}

func Test_Render_StopsAtFirstFileThatDoesNotFit(t *testing.T) {
	files := project.NewCollection(
		fileOf("a.txt", strings.Repeat("a", 40)),
		fileOf("b.txt", strings.Repeat("b", 400)),
		fileOf("c.txt", "c"),
	)

	out := Render(files, Options{Budget: 60, PerFileCeiling: 1000})

	if len(out.Included) != 1 || out.Included[0] != "a.txt" {
		t.Errorf("expected only a.txt, got %v", out.Included)
	}
	if len(out.Dropped) != 2 {
		t.Errorf("expected b.txt and c.txt dropped, got %v", out.Dropped)
	}
}

func Test_Render_EmptyCollection(t *testing.T) {
	out := Render(project.Collection{}, Options{Budget: 10})
	if out.Text != openTag+closeTag {
		t.Errorf("expected bare wrapper, got %q", out.Text)
	}
	if out.Tokens > Overhead {
		t.Errorf("wrapper must fit in the overhead, got %d tokens", out.Tokens)
	}
}

func Test_truncateRunes(t *testing.T) {
	if got := truncateRunes("héllo", 2); got != "hé" {
		t.Errorf("expected hé, got %q", got)
	}
	if got := truncateRunes("abc", 10); got != "abc" {
		t.Errorf("expected abc, got %q", got)
	}
	if got := truncateRunes("abc", 0); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
