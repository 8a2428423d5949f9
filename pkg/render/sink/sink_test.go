package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/matzehuels/lanegraph/pkg/commit"
	"github.com/matzehuels/lanegraph/pkg/errors"
	"github.com/matzehuels/lanegraph/pkg/lanes"
	"github.com/matzehuels/lanegraph/pkg/render"
	"github.com/matzehuels/lanegraph/pkg/render/styles"
)

func mergeLayout() lanes.Layout {
	return lanes.Build([]commit.Commit{
		{Hash: "m000000001", Parents: []string{"a", "b"}, Message: "Merge branch 'feature'\n\nbody", Author: "Ada"},
		{Hash: "a", Parents: []string{"c"}, Message: "fix <parser> & lexer"},
		{Hash: "b", Parents: []string{"c"}, Message: "add feature"},
		{Hash: "c", Message: "initial"},
	})
}

func TestRenderSVG(t *testing.T) {
	svg := string(RenderSVG(mergeLayout()))

	if !strings.HasPrefix(svg, `<svg xmlns="http://www.w3.org/2000/svg"`) {
		t.Errorf("missing svg header: %.60s", svg)
	}
	if !strings.HasSuffix(svg, "</svg>\n") {
		t.Error("missing closing tag")
	}
	if got := strings.Count(svg, `class="row"`); got != 4 {
		t.Errorf("rows = %d, want 4", got)
	}
	if got := strings.Count(svg, "<circle"); got != 4 {
		t.Errorf("circles = %d, want 4", got)
	}
	// One merge connector and one converging connector.
	if got := strings.Count(svg, "<path"); got != 2 {
		t.Errorf("paths = %d, want 2", got)
	}
	if !strings.Contains(svg, `height="96"`) {
		t.Error("canvas height should be 4 rows x 24")
	}
	if strings.Contains(svg, "<text") {
		t.Error("labels rendered without WithLabels")
	}
}

func TestRenderSVGRowOrder(t *testing.T) {
	svg := string(RenderSVG(mergeLayout(), WithConcurrency(4)))
	last := -1
	for _, id := range []string{`id="row-0"`, `id="row-1"`, `id="row-2"`, `id="row-3"`} {
		i := strings.Index(svg, id)
		if i <= last {
			t.Fatalf("%s out of order", id)
		}
		last = i
	}
}

func TestRenderSVGLabels(t *testing.T) {
	svg := string(RenderSVG(mergeLayout(), WithLabels(), WithRowHeight(30)))

	for _, want := range []string{
		">m000000<",
		"Merge branch &#39;feature&#39;",
		"fix &lt;parser&gt; &amp; lexer",
		"(Ada)",
		`height="120"`,
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	if strings.Contains(svg, "body") {
		t.Error("only the subject line should be rendered")
	}
}

func TestRenderSVGPalette(t *testing.T) {
	p := styles.FromHex([]string{"#112233"})
	svg := string(RenderSVG(mergeLayout(), WithPalette(p)))
	if !strings.Contains(svg, `stroke="#112233"`) {
		t.Error("custom palette not used")
	}
}

func TestRenderSVGWidth(t *testing.T) {
	svg := string(RenderSVG(mergeLayout(), WithWidth(10)))
	if !strings.Contains(svg, `viewBox="0 0 10.0 96.0"`) {
		t.Errorf("graph width not limited: %.120s", svg)
	}
}

func TestRenderSVGEmpty(t *testing.T) {
	svg := string(RenderSVG(lanes.Build(nil)))
	if !strings.Contains(svg, `height="0"`) || strings.Contains(svg, "<g") {
		t.Errorf("empty layout = %s", svg)
	}
}

func TestRenderText(t *testing.T) {
	got := RenderText(mergeLayout())
	want := "*\n" +
		"|\\|\n" +
		"* |\n" +
		"| *\n" +
		"|/\n" +
		"*\n"
	if got != want {
		t.Errorf("RenderText() =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderTextLabels(t *testing.T) {
	lines := strings.Split(strings.TrimSuffix(RenderText(mergeLayout(), WithTextLabels(), WithSubjectWidth(8)), "\n"), "\n")
	if lines[0] != "*   m000000 Merge .." {
		t.Errorf("first line = %q", lines[0])
	}
	if lines[2] != "* | a fix <p.." {
		t.Errorf("third line = %q", lines[2])
	}
}

func TestRenderTextOctopus(t *testing.T) {
	l := lanes.Build([]commit.Commit{
		{Hash: "o", Parents: []string{"a", "b", "c"}},
		{Hash: "a"}, {Hash: "b"}, {Hash: "c"},
	})
	lines := RowLines(l.Rows[0], l)
	if len(lines) != 2 || lines[1] != "|\\|\\" {
		t.Errorf("RowLines() = %q", lines)
	}
}

func TestRenderTextOverflow(t *testing.T) {
	l := lanes.Build([]commit.Commit{
		{Hash: "o", Parents: []string{"a", "b", "c", "d", "e"}},
		{Hash: "a"}, {Hash: "b"}, {Hash: "c"}, {Hash: "d"}, {Hash: "e"},
	}, lanes.WithVisibleLaneLimit(2))
	for _, line := range strings.Split(RenderText(l), "\n") {
		if len(line) > 3 {
			t.Errorf("line %q wider than two lanes", line)
		}
	}
}

func TestRenderJSON(t *testing.T) {
	l := mergeLayout()
	data, err := RenderJSON(l)
	if err != nil {
		t.Fatalf("RenderJSON() error: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	for _, key := range []string{"rows", "max_lane_count", "visible_max_lane_count", "visible_lane_limit"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	if _, ok := raw["primitives"]; ok {
		t.Error("primitives written without WithJSONPrimitives")
	}

	back, err := ReadLayoutJSON(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadLayoutJSON() error: %v", err)
	}
	if back.MaxLaneCount != l.MaxLaneCount || len(back.Rows) != len(l.Rows) {
		t.Errorf("round trip = %+v", back)
	}
	if back.Rows[3].LanesAfter[0] != lanes.Free {
		t.Errorf("free slot = %q, want empty", back.Rows[3].LanesAfter[0])
	}
}

func TestRenderJSONPrimitives(t *testing.T) {
	data, err := RenderJSON(mergeLayout(), WithJSONPrimitives(100, 20), WithJSONIndent())
	if err != nil {
		t.Fatalf("RenderJSON() error: %v", err)
	}
	var out struct {
		Primitives [][]map[string]any `json:"primitives"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Primitives) != 4 {
		t.Fatalf("primitive rows = %d, want 4", len(out.Primitives))
	}
	first := out.Primitives[0]
	if first[0]["type"] != "line" || first[0]["y1"] != 0.0 {
		t.Errorf("first primitive = %v", first[0])
	}
	if first[len(first)-1]["type"] != "circle" {
		t.Errorf("last primitive = %v", first[len(first)-1])
	}
}

func TestRenderJSONEmpty(t *testing.T) {
	data, err := RenderJSON(lanes.Layout{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"rows":[]`) {
		t.Errorf("RenderJSON(empty) = %s", data)
	}
}

func TestReadLayoutJSONInvalid(t *testing.T) {
	_, err := ReadLayoutJSON(strings.NewReader("{"))
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestRenderPDF(t *testing.T) {
	_, err := RenderPDF(context.Background(), mergeLayout())
	if !render.Available() {
		if !errors.Is(err, errors.ErrCodeUnsupported) {
			t.Errorf("error = %v, want UNSUPPORTED", err)
		}
		return
	}
	if err != nil {
		t.Fatalf("RenderPDF() error: %v", err)
	}
}
