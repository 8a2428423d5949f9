package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/lanegraph/pkg/commit"
	"github.com/matzehuels/lanegraph/pkg/lanes"
)

func history() []commit.Commit {
	return []commit.Commit{
		{Hash: "mmmmmmmm1", Parents: []string{"a", "b"}, Message: "Merge feature", Author: "Ada", Date: "2024-01-02T00:00:00Z"},
		{Hash: "a", Parents: []string{"c"}, Message: "fix"},
		{Hash: "b", Parents: []string{"c"}, Message: "feature"},
		{Hash: "c", Parents: []string{"outside000"}, Message: "initial"},
	}
}

func TestToDOTBasic(t *testing.T) {
	dot := ToDOT(history(), Options{})

	for _, want := range []string{
		"digraph G",
		`"mmmmmmmm1" [label="mmmmmmm Merge feature"]`,
		`"mmmmmmmm1" -> "a";`,
		`"mmmmmmmm1" -> "b";`,
		`"b" -> "c";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q", want)
		}
	}
	if strings.Contains(dot, "author:") {
		t.Error("author shown without Detailed")
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(history(), Options{Detailed: true})
	if !strings.Contains(dot, `author: Ada\ndate: 2024-01-02T00:00:00Z`) {
		t.Errorf("detailed label missing metadata:\n%s", dot)
	}
}

func TestToDOTMissingParent(t *testing.T) {
	dot := ToDOT(history(), Options{})
	if !strings.Contains(dot, `"outside000" [label="outside", style="rounded,dashed"`) {
		t.Errorf("missing placeholder node:\n%s", dot)
	}
	if strings.Count(dot, `"outside000" [`) != 1 {
		t.Error("placeholder declared more than once")
	}
}

func TestToDOTSkipsMalformed(t *testing.T) {
	dot := ToDOT([]commit.Commit{{Hash: "", Parents: []string{"x"}}, {Hash: "a", Parents: []string{""}}}, Options{})
	if strings.Contains(dot, `"" ->`) || strings.Contains(dot, `-> ""`) {
		t.Errorf("empty hash edge emitted:\n%s", dot)
	}
}

func TestToDOTLaneColors(t *testing.T) {
	commits := history()
	l := lanes.Build(commits)
	dot := ToDOT(commits, Options{Layout: &l})
	if strings.Count(dot, "penwidth=2") != len(commits) {
		t.Errorf("expected every commit to be coloured:\n%s", dot)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(history(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `) {
		t.Errorf("viewBox not normalized: %.200s", svg)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00" xmlns="x"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10.00 20.00" width="10" height="20">`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
}
