package run

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/logsweep/logsweep/internal/archive"
	"github.com/logsweep/logsweep/internal/compress"
	"github.com/logsweep/logsweep/internal/config"
	"github.com/logsweep/logsweep/internal/history"
	"github.com/logsweep/logsweep/internal/observability"
	"github.com/logsweep/logsweep/internal/selector"
)

// Pipeline sequences one housekeeping run:
// Init -> DeleteStale -> Select -> Compress -> FinalizeArchive ->
// DeleteArchivedOriginals -> Report. There are no backward transitions, and
// originals are only deleted after the archive finalize is confirmed.
type Pipeline struct {
	cfg      config.Config
	log      *observability.Logger
	reporter observability.StageReporter
	hist     *history.Store
	now      func() time.Time

	algo compress.Algorithm
	mode archive.Mode

	// newWriter builds the serialized container writer for the resolved
	// target. Tests substitute it to exercise container failure paths.
	newWriter func(target archive.Target) (containerWriter, error)
}

// containerWriter is the slice of archive.Writer the pipeline needs. It also
// satisfies compress.Sink so the pool can feed it directly.
type containerWriter interface {
	AddEntry(name string, data []byte) error
	Finalize() (string, error)
}

// New validates the run-wide algorithm and mode up front so a bad config
// fails before any filesystem mutation. hist may be nil to skip the ledger.
func New(cfg config.Config, log *observability.Logger, reporter observability.StageReporter, hist *history.Store, now func() time.Time) (*Pipeline, error) {
	if log == nil {
		return nil, fmt.Errorf("logger missing")
	}
	if now == nil {
		now = time.Now
	}
	algo, err := compress.ParseAlgorithm(cfg.CompressionAlgorithm)
	if err != nil {
		return nil, err
	}
	mode, err := archive.ParseMode(cfg.ArchiveMode)
	if err != nil {
		return nil, err
	}
	if reporter == nil {
		reporter = observability.LogStageReporter{Log: log}
	}
	return &Pipeline{
		cfg:      cfg,
		log:      log,
		reporter: reporter,
		hist:     hist,
		now:      now,
		algo:     algo,
		mode:     mode,
		newWriter: func(target archive.Target) (containerWriter, error) {
			return archive.NewWriter(target)
		},
	}, nil
}

// Run executes the full state machine. The returned report is valid even
// when err is non-nil; a non-nil err means the run hit a fatal config, IO,
// or container error and the caller should exit non-zero.
func (p *Pipeline) Run(ctx context.Context) (report Report, err error) {
	report = Report{RunID: observability.NewRunID(), StartedAt: p.now()}
	defer func() {
		if report.FinishedAt.IsZero() {
			report.FinishedAt = p.now()
		}
	}()
	today := report.StartedAt

	p.stage(observability.INIT, report.RunID, "starting")
	p.logLastRun()

	if err := ctx.Err(); err != nil {
		return report, err
	}

	p.stage(observability.DELETE_STALE, report.RunID, "removing stale gui logs and error directory")
	sel, err := selector.Scan(p.cfg.TargetFolder, today, p.cfg.ExcludePatterns)
	if err != nil {
		return report, err
	}
	p.deleteStale(sel.ToDelete, &report)

	if err := ctx.Err(); err != nil {
		return report, err
	}

	p.stage(observability.SELECT, report.RunID, "selecting archive candidates")
	sel, err = selector.Scan(p.cfg.TargetFolder, today, p.cfg.ExcludePatterns)
	if err != nil {
		return report, err
	}
	report.Skipped = len(sel.Skipped)
	for _, name := range sel.Skipped {
		p.log.Warnf("skipping %s: no usable date or excluded", name)
	}
	if len(sel.ToArchive) == 0 {
		p.log.Infof("no files to archive")
		p.finish(&report)
		return report, nil
	}

	p.stage(observability.COMPRESS, report.RunID, fmt.Sprintf("%d files, %d workers, %s level %d",
		len(sel.ToArchive), p.cfg.MaxWorkers, p.algo, p.cfg.CompressionLevel))
	target, err := archive.ResolveTarget(p.cfg.ArchiveFolder, p.cfg.ArchiveNameFormat, p.mode, today)
	if err != nil {
		return report, err
	}
	if target.Sequence > 0 {
		p.log.Infof("archive %s exists, writing run-sequenced container %s",
			p.cfg.ArchiveNameFormat, target.Path)
	}
	writer, err := p.newWriter(target)
	if err != nil {
		return report, err
	}

	jobs := make([]compress.Job, 0, len(sel.ToArchive))
	for _, file := range sel.ToArchive {
		jobs = append(jobs, compress.Job{File: file, EntryName: file.Name + p.algo.Extension()})
	}
	pool := compress.NewPool(p.algo, p.cfg.CompressionLevel, p.cfg.MaxWorkers, p.cfg.ChunkSize)
	results := pool.Run(jobs, writer)

	p.stage(observability.FINALIZE_ARCHIVE, report.RunID, target.Path)
	archivePath, ferr := writer.Finalize()
	for _, res := range results {
		if res.Err != nil {
			report.Failed++
			report.Failures = append(report.Failures, Failure{Path: res.Job.File.Path, Reason: res.Err.Error()})
			p.log.Errorf("compressing %s failed: %v", res.Job.File.Name, res.Err)
			continue
		}
		report.Archived++
		report.BytesIn += res.BytesIn
		report.BytesOut += res.BytesOut
	}
	if ferr != nil {
		p.log.Errorf("archive finalize failed, originals preserved: %v", ferr)
		p.finish(&report)
		return report, ferr
	}
	report.ArchivePath = archivePath

	p.stage(observability.DELETE_ORIGINALS, report.RunID, "removing archived originals")
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		if err := os.Remove(res.Job.File.Path); err != nil {
			report.Failures = append(report.Failures, Failure{Path: res.Job.File.Path, Reason: err.Error()})
			p.log.Errorf("removing original %s failed: %v", res.Job.File.Name, err)
			continue
		}
		report.OriginalsDeleted++
		p.log.Debugf("removed original %s", res.Job.File.Name)
	}

	p.finish(&report)
	return report, nil
}

// deleteStale is best-effort: each failure is recorded and the run goes on.
func (p *Pipeline) deleteStale(toDelete []selector.LogFile, report *Report) {
	for _, file := range toDelete {
		var err error
		if file.Category == selector.CategoryErrorDir {
			err = os.RemoveAll(file.Path)
		} else {
			err = os.Remove(file.Path)
		}
		if err != nil {
			report.Failures = append(report.Failures, Failure{Path: file.Path, Reason: err.Error()})
			p.log.Errorf("deleting %s failed: %v", file.Name, err)
			continue
		}
		report.StaleDeleted++
		p.log.Debugf("deleted stale %s", file.Name)
	}
}

func (p *Pipeline) finish(report *Report) {
	p.stage(observability.REPORT, report.RunID, report.Summary())
	report.FinishedAt = p.now()
	p.log.Infof("run %s finished: %s", report.RunID, report.Summary())
	if p.hist != nil {
		if err := p.hist.Record(toEntry(*report)); err != nil {
			p.log.Warnf("recording run history failed: %v", err)
		}
	}
	p.stage(observability.DONE, report.RunID, "done")
}

func (p *Pipeline) logLastRun() {
	if p.hist == nil {
		return
	}
	last, ok, err := p.hist.Last()
	if err != nil {
		p.log.Warnf("reading run history failed: %v", err)
		return
	}
	if ok {
		p.log.Infof("previous run %s at %s archived %d files",
			last.RunID, last.StartedAt.Format(time.RFC3339), last.Archived)
	}
}

func (p *Pipeline) stage(stage observability.StageName, runID string, summary string) {
	p.reporter.StageChanged(p.now(), stage, runID, summary)
}

func toEntry(r Report) history.Entry {
	return history.Entry{
		RunID:            r.RunID,
		StartedAt:        r.StartedAt,
		FinishedAt:       r.FinishedAt,
		ArchivePath:      r.ArchivePath,
		StaleDeleted:     r.StaleDeleted,
		Archived:         r.Archived,
		OriginalsDeleted: r.OriginalsDeleted,
		Failed:           r.Failed,
		Skipped:          r.Skipped,
		BytesIn:          r.BytesIn,
		BytesOut:         r.BytesOut,
	}
}
