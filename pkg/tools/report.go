package tools

import (
	"context"
	"fmt"
	"strings"

	"pmbot/pkg/logx"
	"pmbot/pkg/persistence"
	"pmbot/pkg/proto"
)

// historyLimit caps how many status transitions one report shows.
const historyLimit = 20

// ReportTools implements the history report handler.
type ReportTools struct {
	store  *persistence.Store
	logger *logx.Logger
}

// NewReportTools creates the report handler.
func NewReportTools(store *persistence.Store) *ReportTools {
	return &ReportTools{store: store, logger: logx.NewLogger("tools")}
}

// History handles history: a roll-up of recent task status transitions.
func (r *ReportTools) History(ctx context.Context, turn *proto.Turn) Result {
	logs, err := r.store.RecentStatusLogs(ctx, historyLimit)
	if err != nil {
		r.logger.Error("Status log query failed: %v", err)
		return fail("Something went wrong while building the history report. Please try again.")
	}
	if len(logs) == 0 {
		return ok("No task activity recorded yet.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recent activity (last %d changes):", len(logs))
	for i := range logs {
		l := &logs[i]
		fmt.Fprintf(&b, "\n- %s: '%s' %s -> %s", l.LoggedAt, l.TaskName, l.OldStatus, l.NewStatus)
	}
	return ok(b.String())
}
