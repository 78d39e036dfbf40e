package selector

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir string, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("log data"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func names(files []LogFile) map[string]bool {
	out := map[string]bool{}
	for _, f := range files {
		out[f.Name] = true
	}
	return out
}

func TestScanStaleGuiLogsAndErrorDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "2023-01-01_gui.txt")
	writeFile(t, dir, "2023-01-02_gui.txt")
	writeFile(t, dir, "2023-01-03_gui.txt")
	if err := os.MkdirAll(filepath.Join(dir, "error"), 0o750); err != nil {
		t.Fatalf("mkdir error: %v", err)
	}
	writeFile(t, filepath.Join(dir, "error"), "crash.txt")

	today := time.Date(2023, 1, 3, 10, 30, 0, 0, time.UTC)
	sel, err := Scan(dir, today, nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	del := names(sel.ToDelete)
	if !del["2023-01-01_gui.txt"] || !del["2023-01-02_gui.txt"] || !del["error"] {
		t.Fatalf("ToDelete = %v", del)
	}
	if del["2023-01-03_gui.txt"] {
		t.Fatalf("today's gui log must be untouched")
	}
	if len(sel.ToArchive) != 0 {
		t.Fatalf("ToArchive = %v", names(sel.ToArchive))
	}
}

func TestScanPartitionsOldFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "2023-01-01_gui.txt")
	writeFile(t, dir, "2023-01-02_alas.txt")
	writeFile(t, dir, "2023-01-03_alas.txt")

	today := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	sel, err := Scan(dir, today, nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	del := names(sel.ToDelete)
	arc := names(sel.ToArchive)
	for name := range del {
		if arc[name] {
			t.Fatalf("%s in both sets", name)
		}
	}
	if !del["2023-01-01_gui.txt"] {
		t.Fatalf("old gui log missing from ToDelete: %v", del)
	}
	if !arc["2023-01-02_alas.txt"] {
		t.Fatalf("old file missing from ToArchive: %v", arc)
	}
	if del["2023-01-03_alas.txt"] || arc["2023-01-03_alas.txt"] {
		t.Fatalf("today's file must be in neither set")
	}
}

func TestScanFallsBackToModTime(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "alas.txt")
	old := time.Date(2022, 12, 30, 8, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	today := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	sel, err := Scan(dir, today, nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !names(sel.ToArchive)["alas.txt"] {
		t.Fatalf("mtime-dated file missing from ToArchive")
	}
}

func TestScanKeepsFileModifiedTodayEastOfUTC(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "alas.txt")
	zone := time.FixedZone("UTC+10", 10*60*60)
	// 08:00 local on Jan 3 is still Jan 2 in UTC; the file must count as
	// today's regardless.
	now := time.Date(2023, 1, 3, 8, 0, 0, 0, zone)
	if err := os.Chtimes(path, now, now); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	sel, err := Scan(dir, now, nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(sel.ToDelete) != 0 || len(sel.ToArchive) != 0 {
		t.Fatalf("file modified at the run instant must be in neither set: del=%v arc=%v",
			names(sel.ToDelete), names(sel.ToArchive))
	}
}

func TestScanSkipsUnparseableDateToken(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "2023-13-45_alas.txt")

	today := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	sel, err := Scan(dir, today, nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(sel.ToDelete) != 0 || len(sel.ToArchive) != 0 {
		t.Fatalf("unparseable file must be left alone")
	}
	if len(sel.Skipped) != 1 || sel.Skipped[0] != "2023-13-45_alas.txt" {
		t.Fatalf("Skipped = %v", sel.Skipped)
	}
}

func TestScanHonorsExcludePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "2023-01-01_keep.lock")
	writeFile(t, dir, "2023-01-01_alas.txt")

	today := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	sel, err := Scan(dir, today, []string{"*.lock"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if names(sel.ToArchive)["2023-01-01_keep.lock"] {
		t.Fatalf("excluded file selected for archive")
	}
	if !names(sel.ToArchive)["2023-01-01_alas.txt"] {
		t.Fatalf("non-excluded file missing")
	}
	if len(sel.Skipped) != 1 {
		t.Fatalf("Skipped = %v", sel.Skipped)
	}
}

func TestScanUnreadableDir(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "missing"), time.Now(), nil); err == nil {
		t.Fatalf("expected error for unreadable directory")
	}
}
