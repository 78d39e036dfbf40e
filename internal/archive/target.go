// Package archive owns the output container for one run: name and mode
// resolution, and the single serialization point all entries pass through.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Mode string

const (
	ModeOverwrite Mode = "overwrite"
	ModeAppend    Mode = "append"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeOverwrite, ModeAppend:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unsupported archive mode: %q", s)
}

const datePlaceholder = "{date}"

// Target is the resolved output container for one run. Sequence is non-zero
// when append mode had to disambiguate an existing name.
type Target struct {
	Path     string
	Mode     Mode
	Sequence int
}

// ResolveTarget substitutes {date} in the template with the run date and
// applies the mode policy. ZIP containers cannot be grown in place, so
// append mode never reopens an existing container: when the resolved name is
// taken, a run-sequenced sibling (name.1.zip, name.2.zip, ...) is chosen
// instead. Overwrite mode keeps the resolved name and truncates it.
func ResolveTarget(dir string, template string, mode Mode, runDate time.Time) (Target, error) {
	if !strings.Contains(template, datePlaceholder) {
		return Target{}, fmt.Errorf("archive name template %q lacks the %s placeholder", template, datePlaceholder)
	}
	name := strings.ReplaceAll(template, datePlaceholder, runDate.Format("2006-01-02"))
	if !strings.HasSuffix(name, ".zip") {
		name += ".zip"
	}
	path := filepath.Join(dir, name)

	if mode == ModeOverwrite {
		return Target{Path: path, Mode: mode}, nil
	}

	seq := 0
	candidate := path
	for {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return Target{Path: candidate, Mode: mode, Sequence: seq}, nil
		} else if err != nil {
			return Target{}, fmt.Errorf("stat %s: %w", candidate, err)
		}
		seq++
		base := strings.TrimSuffix(path, ".zip")
		candidate = fmt.Sprintf("%s.%d.zip", base, seq)
	}
}
