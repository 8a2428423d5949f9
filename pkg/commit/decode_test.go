package commit

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/lanegraph/pkg/errors"
)

func TestDecodeArray(t *testing.T) {
	input := `[
		{"hash": "c3", "parents": ["c2"], "author": "ana", "date": "2024-01-03", "message": "third\n\nbody"},
		{"hash": "c2", "parents": ["c1"]},
		{"hash": "c1", "parents": []}
	]`

	commits, stats, err := Decode([]byte(input))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(commits) != 3 {
		t.Fatalf("len(commits) = %d, want 3", len(commits))
	}
	if stats.Total != 3 || stats.Skipped != 0 || stats.Malformed != 0 {
		t.Errorf("stats = %+v, want clean", stats)
	}

	want := Commit{Hash: "c3", Parents: []string{"c2"}, Author: "ana", Date: "2024-01-03", Message: "third\n\nbody"}
	if !reflect.DeepEqual(commits[0], want) {
		t.Errorf("commits[0] = %+v, want %+v", commits[0], want)
	}
	if commits[1].Author != "" || commits[1].Message != "" {
		t.Errorf("missing fields should default to empty, got %+v", commits[1])
	}
	if commits[0].Subject() != "third" {
		t.Errorf("Subject() = %q, want %q", commits[0].Subject(), "third")
	}
}

func TestDecodeObjectWrapper(t *testing.T) {
	commits, _, err := Decode([]byte(`{"commits": [{"hash": "a"}]}`))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(commits) != 1 || commits[0].Hash != "a" {
		t.Errorf("commits = %+v, want single commit a", commits)
	}

	commits, _, err = Decode([]byte(`{"other": 1}`))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(commits) != 0 {
		t.Errorf("object without commits should decode to nothing, got %d", len(commits))
	}
}

func TestDecodeMalformed(t *testing.T) {
	input := `[
		42,
		"not an object",
		null,
		{"hash": "m", "parents": "oops"},
		{"hash": "p", "parents": ["a", 7, "", "b"]},
		{"parents": ["x"]},
		{"hash": 12, "author": true}
	]`

	commits, stats, err := Decode([]byte(input))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if stats.Total != 7 {
		t.Errorf("Total = %d, want 7", stats.Total)
	}
	if stats.Skipped != 3 {
		t.Errorf("Skipped = %d, want 3", stats.Skipped)
	}
	if stats.Malformed != 3 {
		t.Errorf("Malformed = %d, want 3", stats.Malformed)
	}
	if len(commits) != 4 {
		t.Fatalf("len(commits) = %d, want 4", len(commits))
	}

	if len(commits[0].Parents) != 0 {
		t.Errorf("non-array parents should decode as none, got %v", commits[0].Parents)
	}
	if !reflect.DeepEqual(commits[1].Parents, []string{"a", "b"}) {
		t.Errorf("Parents = %v, want [a b]", commits[1].Parents)
	}
	if commits[2].Hash != "" {
		t.Errorf("missing hash should stay empty, got %q", commits[2].Hash)
	}
	if commits[3].Hash != "12" || commits[3].Author != "true" {
		t.Errorf("scalars should be stringified, got %+v", commits[3])
	}
}

func TestDecodeInvalid(t *testing.T) {
	tests := []string{`not json`, `"string"`, `[{"hash": }]`, `12`}
	for _, input := range tests {
		_, _, err := Decode([]byte(input))
		if err == nil {
			t.Errorf("Decode(%q) should fail", input)
			continue
		}
		if !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Decode(%q) error code = %q, want %q", input, errors.GetCode(err), errors.ErrCodeInvalidInput)
		}
	}

	commits, _, err := Decode([]byte("   "))
	if err != nil || commits != nil {
		t.Errorf("empty input should decode to nil, got %v, %v", commits, err)
	}
}

func TestReadJSON(t *testing.T) {
	commits, _, err := ReadJSON(strings.NewReader(`[{"hash": "a", "parents": ["b"]}, {"hash": "b"}]`))
	if err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}
	if len(commits) != 2 {
		t.Errorf("len(commits) = %d, want 2", len(commits))
	}
}

func TestImportJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.json")
	if err := os.WriteFile(path, []byte(`[{"hash": "a"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	commits, _, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON() error: %v", err)
	}
	if len(commits) != 1 {
		t.Errorf("len(commits) = %d, want 1", len(commits))
	}

	_, _, err = ImportJSON(filepath.Join(dir, "missing.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}
}
