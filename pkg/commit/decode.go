package commit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/matzehuels/lanegraph/pkg/errors"
)

// DecodeStats reports how much of the input had to be repaired.
type DecodeStats struct {
	// Total is the number of entries found in the input array.
	Total int
	// Skipped counts entries that were not JSON objects.
	Skipped int
	// Malformed counts records kept with a repaired field
	// (non-array parents, non-string parent entries, missing hash).
	Malformed int
}

// Decode parses a commit list from JSON.
//
// The document is either an array of commits or an object with a "commits"
// array. See the package documentation for the recovery rules.
func Decode(data []byte) ([]Commit, DecodeStats, error) {
	var stats DecodeStats

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, stats, nil
	}

	entries, err := entriesOf(data)
	if err != nil {
		return nil, stats, err
	}

	commits := make([]Commit, 0, len(entries))
	for _, raw := range entries {
		stats.Total++
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			stats.Skipped++
			continue
		}
		c, repaired := decodeRecord(fields)
		if repaired {
			stats.Malformed++
		}
		commits = append(commits, c)
	}
	return commits, stats, nil
}

// ReadJSON decodes a commit list from r. It does not close r.
func ReadJSON(r io.Reader) ([]Commit, DecodeStats, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, DecodeStats{}, fmt.Errorf("read: %w", err)
	}
	return Decode(data)
}

// ImportJSON reads the commit list stored at path.
func ImportJSON(path string) ([]Commit, DecodeStats, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, DecodeStats{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, DecodeStats{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

func entriesOf(data []byte) ([]json.RawMessage, error) {
	switch data[0] {
	case '[':
		var entries []json.RawMessage
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode commit list")
		}
		return entries, nil
	case '{':
		var doc struct {
			Commits json.RawMessage `json:"commits"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode commit document")
		}
		if len(doc.Commits) == 0 || doc.Commits[0] != '[' {
			return nil, nil
		}
		return entriesOf(doc.Commits)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "commit list must be a JSON array or object")
	}
}

func decodeRecord(fields map[string]json.RawMessage) (Commit, bool) {
	var c Commit
	repaired := false

	c.Hash = scalar(fields["hash"])
	if c.Hash == "" {
		repaired = true
	}
	c.Author = scalar(fields["author"])
	c.Date = scalar(fields["date"])
	c.Message = scalar(fields["message"])

	raw, ok := fields["parents"]
	if !ok || string(raw) == "null" {
		return c, repaired
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return c, true
	}
	for _, item := range items {
		var p string
		if err := json.Unmarshal(item, &p); err != nil || p == "" {
			repaired = true
			continue
		}
		c.Parents = append(c.Parents, p)
	}
	return c, repaired
}

// scalar renders a JSON scalar as a string. Objects, arrays and null
// become the empty string.
func scalar(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
