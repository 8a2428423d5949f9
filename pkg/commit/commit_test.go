package commit

import "testing"

func TestShort(t *testing.T) {
	tests := []struct {
		hash string
		want string
	}{
		{"0123456789abcdef", "0123456"},
		{"abc", "abc"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := (Commit{Hash: tt.hash}).Short(); got != tt.want {
			t.Errorf("Short(%q) = %q, want %q", tt.hash, got, tt.want)
		}
	}
}

func TestDedupe(t *testing.T) {
	in := []Commit{
		{Hash: "a", Message: "first"},
		{Hash: "b"},
		{Hash: "a", Message: "second"},
		{Hash: ""},
		{Hash: ""},
	}

	out, dropped := Dedupe(in)
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if len(out) != 4 {
		t.Fatalf("len(out) = %d, want 4", len(out))
	}
	if out[0].Message != "first" {
		t.Errorf("Dedupe should keep the first occurrence, got %q", out[0].Message)
	}
}

func TestHash(t *testing.T) {
	a := []Commit{{Hash: "a", Parents: []string{"b"}}, {Hash: "b"}}
	b := []Commit{{Hash: "b"}, {Hash: "a", Parents: []string{"b"}}}

	if Hash(a) != Hash(a) {
		t.Error("Hash should be deterministic")
	}
	if Hash(a) == Hash(b) {
		t.Error("Hash should depend on order")
	}
	if len(Hash(a)) != 64 {
		t.Errorf("Hash length = %d, want 64", len(Hash(a)))
	}
}

func TestKinds(t *testing.T) {
	merge := Commit{Hash: "m", Parents: []string{"a", "b"}}
	root := Commit{Hash: "r"}
	if !merge.IsMerge() || merge.IsRoot() {
		t.Error("merge commit misclassified")
	}
	if root.IsMerge() || !root.IsRoot() {
		t.Error("root commit misclassified")
	}
}
