package observability

import "time"

type StageName string

const (
	INIT             StageName = "INIT"
	DELETE_STALE     StageName = "DELETE_STALE"
	SELECT           StageName = "SELECT"
	COMPRESS         StageName = "COMPRESS"
	FINALIZE_ARCHIVE StageName = "FINALIZE_ARCHIVE"
	DELETE_ORIGINALS StageName = "DELETE_ORIGINALS"
	REPORT           StageName = "REPORT"
	DONE             StageName = "DONE"
)

var stages = map[StageName]struct{}{
	INIT:             {},
	DELETE_STALE:     {},
	SELECT:           {},
	COMPRESS:         {},
	FINALIZE_ARCHIVE: {},
	DELETE_ORIGINALS: {},
	REPORT:           {},
	DONE:             {},
}

func IsValidStage(stage StageName) bool {
	_, ok := stages[stage]
	return ok
}

type StageReporter interface {
	StageChanged(ts time.Time, stage StageName, runID string, summary string)
}

// LogStageReporter writes stage transitions to the program logger at debug.
type LogStageReporter struct {
	Log *Logger
}

func (r LogStageReporter) StageChanged(_ time.Time, stage StageName, runID string, summary string) {
	r.Log.Debugf("stage=%s run_id=%s %s", stage, runID, summary)
}
