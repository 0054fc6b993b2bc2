package summary

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sourcegraph/go-diff/diff"
)

type FileType string

const (
	FileTypeAdded   FileType = "added"
	FileTypeRemoved FileType = "removed"
	FileTypeRenamed FileType = "renamed"
	FileTypeUpdated FileType = "updated"

	devNull = "/dev/null"
)

type FileStat struct {
	Name    string
	Type    FileType
	Added   int
	Deleted int
}

func (f *FileStat) String() string {
	return fmt.Sprintf("%s (%s, +%d -%d)", f.Name, f.Type, f.Added, f.Deleted)
}

func trimPrefix(name string) string {
	if strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/") {
		return name[2:]
	}

	return name
}

// ParseStats returns per file line counts of a unified diff.
func ParseStats(raw []byte) ([]*FileStat, error) {
	diffs, err := diff.ParseMultiFileDiff(raw)
	if err != nil {
		return nil, err
	}

	stats := make([]*FileStat, 0, len(diffs))
	for _, d := range diffs {
		newName := trimPrefix(d.NewName)
		oldName := trimPrefix(d.OrigName)

		f := &FileStat{Name: newName, Type: FileTypeUpdated}
		switch {
		case d.OrigName == devNull:
			f.Type = FileTypeAdded
		case d.NewName == devNull:
			f.Name = oldName
			f.Type = FileTypeRemoved
		case oldName != newName:
			f.Name = fmt.Sprintf("%s -> %s", oldName, newName)
			f.Type = FileTypeRenamed
		}

		s := d.Stat()
		f.Added = int(s.Added + s.Changed)
		f.Deleted = int(s.Deleted + s.Changed)
		stats = append(stats, f)
	}

	return stats, nil
}

func formatStats(stats []*FileStat) string {
	lines := make([]string, 0, len(stats))
	for _, s := range stats {
		lines = append(lines, "- "+s.String())
	}

	return strings.Join(lines, "\n")
}

// Truncate shortens d to at most max bytes, cutting at a line end when
// possible, and notes the original size.
func Truncate(d string, max int) (string, bool) {
	if len(d) <= max {
		return d, false
	}

	cut := max
	for cut > 0 && !utf8.RuneStart(d[cut]) {
		cut--
	}
	if i := strings.LastIndexByte(d[:cut], '\n'); i > 0 {
		cut = i
	}

	return fmt.Sprintf("%s\n... (diff truncated, %d bytes total)", d[:cut], len(d)), true
}
