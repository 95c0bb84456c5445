// Package ingestion turns user-selected files into previews: zip listings,
// CSV text from JSON arrays, and folder grouping.
package ingestion

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/selvxhini-10/EY-Schema-Merger/internal/domain"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// Ingest converts one file. root is the name of the folder the user picked;
// it may be empty when the browser already includes it in the path.
// Sub-step failures are carried in the result and never returned as errors.
func Ingest(file domain.SourceFile, root string) domain.IngestedFile {
	display, isFolder := ClassifyPath(file.Path, root)
	out := domain.IngestedFile{
		Path:        file.Path,
		DisplayName: display,
		IsFolder:    isFolder,
	}

	if IsZip(file.Path) {
		entries := listZipEntries(file)
		out.ZipEntries = &entries
		return out
	}

	preview := csvPreview(file)
	out.CSVPreview = &preview
	return out
}

// IsZip reports whether the path names a zip archive.
func IsZip(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".zip")
}

// ClassifyPath splits a browser-relative path. Paths with more than two
// segments (root/dir/file) collapse to the first directory under the root.
func ClassifyPath(path, root string) (displayName string, isFolder bool) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return "", false
	}
	if r := splitPath(root); len(r) > 0 && !hasPrefix(segs, r) {
		segs = append(r[len(r)-1:], segs...)
	} else if len(r) > 1 {
		segs = segs[len(r)-1:]
	}

	if len(segs) > 2 {
		return segs[1], true
	}
	return segs[len(segs)-1], false
}

func splitPath(p string) []string {
	p = strings.ReplaceAll(p, "\\", "/")
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" && s != "." {
			out = append(out, s)
		}
	}
	return out
}

func hasPrefix(segs, prefix []string) bool {
	if len(prefix) > len(segs) {
		return false
	}
	for i := range prefix {
		if segs[i] != prefix[i] {
			return false
		}
	}
	return true
}

func listZipEntries(file domain.SourceFile) domain.StepResult[[]string] {
	zr, err := zip.NewReader(bytes.NewReader(file.Data), int64(len(file.Data)))
	if err != nil {
		return domain.Failed[[]string](domain.FailureArchiveRead, &domain.ArchiveReadError{Name: file.Path, Err: err})
	}

	entries := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		entries = append(entries, f.Name)
	}
	return domain.Succeeded(entries)
}

func csvPreview(file domain.SourceFile) domain.StepResult[string] {
	text, err := decodeText(file.Data)
	if err != nil {
		return domain.Failed[string](domain.FailureFileRead, &domain.FileReadError{Name: file.Path, Err: err})
	}
	if csv, ok := JSONToCSV(text); ok {
		return domain.Succeeded(csv)
	}
	return domain.Succeeded(text)
}

// decodeText returns the file content as UTF-8. A byte-order mark selects
// UTF-8 or UTF-16; without one the content must already be valid UTF-8.
func decodeText(data []byte) (string, error) {
	if bytes.HasPrefix(data, bomUTF8) || bytes.HasPrefix(data, bomUTF16BE) || bytes.HasPrefix(data, bomUTF16LE) {
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		if err != nil {
			return "", fmt.Errorf("decode text: %w", err)
		}
		return string(out), nil
	}
	if !utf8.Valid(data) {
		return "", errors.New("content is not valid UTF-8 text")
	}
	return string(data), nil
}

// JSONToCSV converts a JSON array of objects to comma-separated text. The
// header is the first element's keys in document order. Values are not
// quoted or escaped. ok is false when text is not a non-empty JSON array
// whose first element is an object.
func JSONToCSV(text string) (csv string, ok bool) {
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(text), &elems); err != nil || len(elems) == 0 {
		return "", false
	}
	keys, err := objectKeys(elems[0])
	if err != nil {
		return "", false
	}

	lines := make([]string, 0, len(elems)+1)
	lines = append(lines, strings.Join(keys, ","))
	for _, raw := range elems {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			obj = nil // non-object rows yield empty cells
		}
		cells := make([]string, len(keys))
		for i, k := range keys {
			cells[i] = cellText(obj[k])
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return strings.Join(lines, "\n"), true
}

// objectKeys returns the keys of a JSON object in document order.
func objectKeys(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("not an object")
	}

	var keys []string
	seen := map[string]bool{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return keys, nil
}

// cellText renders one JSON value as a CSV cell: strings verbatim, null or
// missing as empty, numbers in shortest decimal form, anything else as
// compact JSON.
func cellText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err == nil {
			return buf.String()
		}
	case 't', 'f':
		return string(trimmed)
	default:
		if d, err := decimal.NewFromString(string(trimmed)); err == nil {
			return d.String()
		}
	}
	return string(trimmed)
}
