// Package commit defines the commit record consumed by the lane layout
// builder and the decoders that turn loosely typed JSON into it.
//
// Commit lists usually come from a version-control log query. The decoders
// in this package are deliberately forgiving: entries that are not objects
// are skipped, a parents value that is not an array counts as "no parents",
// and missing metadata becomes the empty string. Only input that is not
// JSON at all is rejected.
//
// # Usage
//
//	commits, stats, err := commit.ImportJSON("history.json")
//	if err != nil {
//	    return err
//	}
//	commits, dropped := commit.Dedupe(commits)
package commit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// ShortLen is the length of an abbreviated hash.
const ShortLen = 7

// Commit is a single entry of an ordered commit history.
type Commit struct {
	Hash    string   `json:"hash"`
	Parents []string `json:"parents"`
	Author  string   `json:"author"`
	Date    string   `json:"date"`
	Message string   `json:"message"`
}

// Short returns the abbreviated hash.
func (c Commit) Short() string {
	if len(c.Hash) <= ShortLen {
		return c.Hash
	}
	return c.Hash[:ShortLen]
}

// Subject returns the first line of the commit message.
func (c Commit) Subject() string {
	subject, _, _ := strings.Cut(c.Message, "\n")
	return strings.TrimSpace(subject)
}

// IsMerge reports whether the commit has more than one parent.
func (c Commit) IsMerge() bool { return len(c.Parents) > 1 }

// IsRoot reports whether the commit has no parents.
func (c Commit) IsRoot() bool { return len(c.Parents) == 0 }

// Dedupe removes later occurrences of an already seen hash, keeping the first
// one in input order. Commits without a hash are never considered duplicates.
// It returns the filtered list and the number of dropped entries.
func Dedupe(commits []Commit) ([]Commit, int) {
	seen := make(map[string]struct{}, len(commits))
	out := make([]Commit, 0, len(commits))
	for _, c := range commits {
		if c.Hash != "" {
			if _, dup := seen[c.Hash]; dup {
				continue
			}
			seen[c.Hash] = struct{}{}
		}
		out = append(out, c)
	}
	return out, len(commits) - len(out)
}

// Hash computes a SHA-256 content hash over the commit list.
// Two lists hash equal only if they describe the same commits in the same order.
func Hash(commits []Commit) string {
	data, _ := json.Marshal(commits)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
