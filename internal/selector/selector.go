// Package selector classifies the contents of a log directory into files to
// delete, files to archive, and files to leave alone for one run.
package selector

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/IGLOU-EU/go-wildcard"
)

type Category string

const (
	CategoryGuiLog   Category = "gui-log"
	CategoryOther    Category = "other"
	CategoryErrorDir Category = "error-dir"
)

// LogFile is one scanned entry, immutable once produced.
type LogFile struct {
	Path     string
	Name     string
	Date     time.Time
	Category Category
}

// Selection partitions the directory for one run. ToDelete and ToArchive are
// disjoint; files dated today and files listed in Skipped are in neither.
type Selection struct {
	ToDelete  []LogFile
	ToArchive []LogFile
	Skipped   []string
}

const errorDirName = "error"

var (
	guiPattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}_gui\.txt$`)
	datePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)
)

// Scan reads dir once and classifies every entry against the given run date.
// Per-day gui logs older than today and the error subdirectory land in
// ToDelete, every other regular file older than today lands in ToArchive.
// Today's files are left untouched so in-progress logs are never consumed
// mid-write. Entries with an unparseable date token or matching an exclude
// pattern are reported in Skipped and otherwise left alone.
func Scan(dir string, today time.Time, exclude []string) (Selection, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Selection{}, fmt.Errorf("reading target folder: %w", err)
	}

	// Calendar days for both the run date and mtime fallbacks are taken in
	// the run date's zone, so a file modified at the run instant always
	// counts as today's no matter where the host clock sits relative to UTC.
	loc := today.Location()
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	var sel Selection
	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(dir, name)

		if entry.IsDir() {
			if name == errorDirName {
				sel.ToDelete = append(sel.ToDelete, LogFile{Path: path, Name: name, Category: CategoryErrorDir})
			}
			continue
		}
		if matchesAny(name, exclude) {
			sel.Skipped = append(sel.Skipped, name)
			continue
		}

		date, err := deriveDate(entry, name, loc)
		if err != nil {
			sel.Skipped = append(sel.Skipped, name)
			continue
		}
		if !date.Before(today) {
			continue
		}

		if guiPattern.MatchString(name) {
			sel.ToDelete = append(sel.ToDelete, LogFile{Path: path, Name: name, Date: date, Category: CategoryGuiLog})
			continue
		}
		sel.ToArchive = append(sel.ToArchive, LogFile{Path: path, Name: name, Date: date, Category: CategoryOther})
	}
	return sel, nil
}

// deriveDate prefers a YYYY-MM-DD token at the start of the name and falls
// back to the modification date, read in the run date's zone. A token that
// is present but does not parse is an error so the caller can skip the file
// instead of guessing.
func deriveDate(entry os.DirEntry, name string, loc *time.Location) (time.Time, error) {
	if m := datePattern.FindStringSubmatch(name); m != nil {
		date, err := time.Parse("2006-01-02", m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("date token %q: %w", m[1], err)
		}
		return date, nil
	}
	info, err := entry.Info()
	if err != nil {
		return time.Time{}, err
	}
	mod := info.ModTime().In(loc)
	return time.Date(mod.Year(), mod.Month(), mod.Day(), 0, 0, 0, 0, time.UTC), nil
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if wildcard.Match(p, name) {
			return true
		}
	}
	return false
}
