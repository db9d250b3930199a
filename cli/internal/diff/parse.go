package diff

import (
	"fmt"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

const devNull = "/dev/null"

// Parse reads a multi-file unified diff into a Document. Whitespace-only
// input yields an empty Document.
func Parse(patch string) (*Document, error) {
	doc := &Document{}
	if strings.TrimSpace(patch) == "" {
		return doc, nil
	}
	files, err := godiff.ParseMultiFileDiff([]byte(patch))
	if err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}
	for _, fd := range files {
		name := fileName(fd)
		for _, h := range fd.Hunks {
			doc.Lines = appendHunk(doc.Lines, name, h.Body)
		}
	}
	return doc, nil
}

// fileName returns the repo-relative path owning fd: the new path, or the old
// one when the file was deleted.
func fileName(fd *godiff.FileDiff) string {
	name := fd.NewName
	if name == "" || name == devNull {
		name = fd.OrigName
	}
	return trimDiffPath(name)
}

func appendHunk(lines []Line, file string, body []byte) []Line {
	text := strings.TrimSuffix(string(body), "\n")
	if text == "" {
		return lines
	}
	for _, raw := range strings.Split(text, "\n") {
		if raw == "" {
			lines = append(lines, Line{File: file, Polarity: Context})
			continue
		}
		switch raw[0] {
		case '+':
			lines = append(lines, Line{File: file, Polarity: Added, Text: raw[1:]})
		case '-':
			lines = append(lines, Line{File: file, Polarity: Removed, Text: raw[1:]})
		case ' ':
			lines = append(lines, Line{File: file, Polarity: Context, Text: raw[1:]})
		case '\\':
			// "\ No newline at end of file"
		default:
			lines = append(lines, Line{File: file, Polarity: Context, Text: raw})
		}
	}
	return lines
}

func trimDiffPath(s string) string {
	if idx := strings.Index(s, "\t"); idx >= 0 {
		s = s[:idx]
	}
	if len(s) >= 2 && (s[0] == 'a' || s[0] == 'b') && s[1] == '/' {
		return s[2:]
	}
	return s
}
