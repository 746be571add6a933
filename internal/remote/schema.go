package remote

import (
	"strings"
	"time"

	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// The file API has shipped several envelope shapes; everything is normalized
// here so the rest of the engine sees one schema.

// SearchRequest is the body of POST /files/search.
type SearchRequest struct {
	Query         string `json:"query"`
	Path          string `json:"path"`
	Type          string `json:"type"`
	CaseSensitive bool   `json:"caseSensitive"`
	Regex         bool   `json:"regex"`
	MaxResults    int    `json:"maxResults"`
}

// SearchResult is one hit returned by the search endpoint. Size and Modified
// are zero when the server omits them.
type SearchResult struct {
	Path     string
	Name     string
	Type     fs.EntryType
	Size     uint64
	Modified time.Time
}

// UploadResult reports the outcome for one file of a multipart upload.
type UploadResult struct {
	Name    string
	Path    string
	Success bool
	Error   string
}

var errMalformed = errors.New("malformed response")

func parseEntries(body []byte, dir string) ([]fs.Entry, error) {
	list := firstArray(body, "files", "data.files", "entries", "data.entries")
	if !list.Exists() {
		return nil, errors.Wrap(errMalformed, "listing has no files array")
	}

	entries := make([]fs.Entry, 0, len(list.Array()))
	seen := make(map[string]struct{}, len(list.Array()))
	for _, item := range list.Array() {
		entry, ok := parseEntry(item, dir)
		if !ok {
			continue
		}
		if _, dup := seen[entry.Path]; dup {
			continue
		}
		seen[entry.Path] = struct{}{}
		entries = append(entries, entry)
	}
	fs.SortEntries(entries)
	return entries, nil
}

func parseEntry(item gjson.Result, dir string) (fs.Entry, bool) {
	name := item.Get("name").String()
	p := item.Get("path").String()
	switch {
	case name == "" && p == "":
		return fs.Entry{}, false
	case p == "":
		p = fs.Join(dir, name)
	case name == "":
		name = fs.Base(p)
	}

	name = fs.NormalizeName(name)
	if name == "." || name == ".." {
		return fs.Entry{}, false
	}

	return fs.Entry{
		Path:        fs.NormalizeName(fs.Clean(p)),
		Name:        name,
		Type:        parseType(item),
		Size:        item.Get("size").Uint(),
		Modified:    parseTime(firstValue(item, "mtime", "modified", "modTime")),
		Permissions: item.Get("permissions").String(),
	}, true
}

func parseType(item gjson.Result) fs.EntryType {
	if item.Get("isDir").Bool() {
		return fs.TypeDirectory
	}
	switch strings.ToLower(item.Get("type").String()) {
	case "directory", "dir", "folder", "d":
		return fs.TypeDirectory
	default:
		return fs.TypeFile
	}
}

func parseTime(v gjson.Result) time.Time {
	switch v.Type {
	case gjson.Number:
		secs := v.Int()
		// Millisecond timestamps are common in JS backends.
		if secs > 1e12 {
			return time.UnixMilli(secs).UTC()
		}
		return time.Unix(secs, 0).UTC()
	case gjson.String:
		if t, err := time.Parse(time.RFC3339Nano, v.String()); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseSearchResults(body []byte) ([]SearchResult, error) {
	list := firstArray(body, "results", "data.results")
	if !list.Exists() {
		return nil, errors.Wrap(errMalformed, "search has no results array")
	}

	results := make([]SearchResult, 0, len(list.Array()))
	for _, item := range list.Array() {
		p := item.Get("path").String()
		if p == "" {
			continue
		}
		name := item.Get("name").String()
		if name == "" {
			name = fs.Base(p)
		}
		results = append(results, SearchResult{
			Path:     fs.Clean(p),
			Name:     fs.NormalizeName(name),
			Type:     parseType(item),
			Size:     item.Get("size").Uint(),
			Modified: parseTime(firstValue(item, "mtime", "modified", "modTime")),
		})
	}
	return results, nil
}

func parseUploadResults(body []byte) []UploadResult {
	list := firstArray(body, "results", "data.results", "files")
	out := make([]UploadResult, 0, len(list.Array()))
	for _, item := range list.Array() {
		res := UploadResult{
			Name:    item.Get("name").String(),
			Path:    item.Get("path").String(),
			Success: item.Get("success").Bool(),
			Error:   item.Get("error").String(),
		}
		if !item.Get("success").Exists() && res.Error == "" {
			res.Success = true
		}
		out = append(out, res)
	}
	return out
}

// errorMessage extracts the best-effort message from an error body.
func errorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return strings.TrimSpace(string(body))
	}
	v := firstValue(gjson.ParseBytes(body), "error", "message", "data.error", "data.message", "error.message")
	if v.IsObject() {
		v = v.Get("message")
	}
	return v.String()
}

func firstArray(body []byte, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := gjson.GetBytes(body, p); v.IsArray() {
			return v
		}
	}
	return gjson.Result{}
}

func firstValue(item gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := item.Get(p); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}
