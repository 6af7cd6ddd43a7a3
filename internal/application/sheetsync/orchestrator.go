package sheetsync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/halaqat-hub/halaqat-reports/internal/application/aggregation"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/report"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/shared"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTICES
// ══════════════════════════════════════════════════════════════════════════════

// NoticeKind is the only sync signal exposed to consumers.
type NoticeKind string

const (
	NoticeChanges   NoticeKind = "changes"
	NoticeNoChanges NoticeKind = "no_changes"
	NoticeFailed    NoticeKind = "failed"
)

// Notice is a user-facing sync message.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

const (
	msgLoadChanges     = "تمت المزامنة – توجد بيانات جديدة"
	msgLoadNoChanges   = "تمت المزامنة – لا توجد بيانات جديدة"
	msgRefreshChanges  = "تم تحديث البيانات بنجاح"
	msgRefreshNone     = "لا توجد تحديثات جديدة"
	msgRefreshFailed   = "فشل تحديث البيانات"
	msgSubmitSucceeded = "تم الإرسال بنجاح"
	msgSubmitFailed    = "فشل الإرسال."
)

// Outcome is the result of syncing one page.
type Outcome struct {
	RunID      string           `json:"runId"`
	Page       report.Page      `json:"page"`
	View       aggregation.View `json:"view"`
	Changed    bool             `json:"changed"`
	Failed     []sheet.Name     `json:"failed,omitempty"`
	Notice     Notice           `json:"notice"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt time.Time        `json:"finishedAt"`
}

// ══════════════════════════════════════════════════════════════════════════════
// ORCHESTRATOR
// ══════════════════════════════════════════════════════════════════════════════

// Orchestrator serves page views from the cache and keeps them fresh.
type Orchestrator struct {
	delta  *DeltaClient
	store  sheet.Store
	remote sheet.Remote
	engine *aggregation.Engine
	logger *slog.Logger

	settleDelay time.Duration
	now         func() time.Time

	background sync.WaitGroup
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithSettleDelay waits d after a successful submission before re-syncing,
// giving the remote time to expose the appended row.
func WithSettleDelay(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.settleDelay = d
		}
	}
}

// WithOrchestratorClock overrides the clock used for outcome timestamps and
// sync markers.
func WithOrchestratorClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
			o.delta.now = now
		}
	}
}

// NewOrchestrator wires the sync pipeline.
func NewOrchestrator(store sheet.Store, remote sheet.Remote, engine *aggregation.Engine, logger *slog.Logger, opts ...OrchestratorOption) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		delta:  NewDeltaClient(remote, store, logger),
		store:  store,
		remote: remote,
		engine: engine,
		logger: logger.With(slog.String("component", "orchestrator")),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Cached builds the page's view from stored rows only.
func (o *Orchestrator) Cached(ctx context.Context, req aggregation.Request) (aggregation.View, error) {
	names, err := SheetsFor(req.Page)
	if err != nil {
		return aggregation.View{}, err
	}
	sheets := make(map[sheet.Name][]sheet.Row)
	for _, name := range readSet(names) {
		sheets[name] = o.store.Get(ctx, name).Rows
	}
	return o.engine.Build(req, sheets), nil
}

// Load returns the cached view at once and syncs the page's sheets in the
// background. onRefresh, if set, receives the refreshed view. The background
// sync outlives ctx's cancellation.
func (o *Orchestrator) Load(ctx context.Context, req aggregation.Request, onRefresh func(Outcome)) (aggregation.View, error) {
	view, err := o.Cached(ctx, req)
	if err != nil {
		return aggregation.View{}, err
	}

	detached := context.WithoutCancel(ctx)
	o.background.Add(1)
	go func() {
		defer o.background.Done()
		out := o.syncPage(detached, req)
		out.Notice = loadNotice(out)
		if onRefresh != nil {
			onRefresh(out)
		}
	}()
	return view, nil
}

// Refresh syncs the page's sheets and waits for the result.
func (o *Orchestrator) Refresh(ctx context.Context, req aggregation.Request) (Outcome, error) {
	if _, err := SheetsFor(req.Page); err != nil {
		return Outcome{}, err
	}
	out := o.syncPage(ctx, req)
	out.Notice = refreshNotice(out)
	return out, nil
}

// SyncAll syncs every known sheet once, sequentially. It is used by the
// periodic job and returns the per-sheet results.
func (o *Orchestrator) SyncAll(ctx context.Context) []Result {
	names := sheet.All()
	results := make([]Result, 0, len(names))
	for _, name := range names {
		if ctx.Err() != nil {
			break
		}
		results = append(results, o.delta.Sync(ctx, name))
	}
	return results
}

// Submit appends row to name and then re-syncs page so that the returned
// view contains the new row once the remote exposes it.
func (o *Orchestrator) Submit(ctx context.Context, name sheet.Name, row sheet.Row, page report.Page) (Outcome, error) {
	return o.submit(ctx, Submission{
		Sheet:   name,
		Row:     row,
		Page:    page,
		Success: msgSubmitSucceeded,
		Failure: msgSubmitFailed,
	})
}

// SubmitForm is Submit for a typed submission.
func (o *Orchestrator) SubmitForm(ctx context.Context, sub Submission) (Outcome, error) {
	return o.submit(ctx, sub)
}

func (o *Orchestrator) submit(ctx context.Context, sub Submission) (Outcome, error) {
	if !sub.Sheet.Valid() {
		return Outcome{}, shared.WrapError("submission", "Submit", shared.ErrValidation, sub.Failure, sheet.ErrUnknownSheet)
	}
	if _, err := SheetsFor(sub.Page); err != nil {
		return Outcome{}, shared.WrapError("submission", "Submit", shared.ErrValidation, sub.Failure, err)
	}

	if err := o.remote.Append(ctx, sub.Sheet, sub.Row); err != nil {
		o.logger.Warn("submission rejected",
			slog.String("sheet", sub.Sheet.String()),
			slog.String("error", err.Error()),
		)
		return Outcome{}, shared.WrapError("submission", "Submit", shared.ErrExternalService, sub.Failure, err)
	}

	if o.settleDelay > 0 {
		timer := time.NewTimer(o.settleDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}

	out := o.syncPage(context.WithoutCancel(ctx), aggregation.Request{Page: sub.Page})
	out.Notice = Notice{Kind: NoticeChanges, Message: sub.Success}
	return out, nil
}

// Wait blocks until every background sync started by Load has finished.
func (o *Orchestrator) Wait() {
	o.background.Wait()
}

func (o *Orchestrator) syncPage(ctx context.Context, req aggregation.Request) Outcome {
	out := Outcome{
		RunID:     uuid.NewString(),
		Page:      req.Page,
		StartedAt: o.now(),
	}
	names, _ := SheetsFor(req.Page)

	logger := o.logger.With(slog.String("run_id", out.RunID), slog.String("page", string(req.Page)))
	logger.Debug("page sync started", slog.Int("sheets", len(names)))

	sheets := make(map[sheet.Name][]sheet.Row, len(names)+len(CoreSheets))
	for _, name := range names {
		res := o.delta.Sync(ctx, name)
		sheets[name] = res.Rows
		if res.HasChanges {
			out.Changed = true
		}
		if res.Failed() {
			out.Failed = append(out.Failed, name)
		}
	}
	for _, name := range readSet(names) {
		if _, ok := sheets[name]; !ok {
			sheets[name] = o.store.Get(ctx, name).Rows
		}
	}

	out.View = o.engine.Build(req, sheets)
	out.FinishedAt = o.now()

	logger.Info("page sync finished",
		slog.Bool("changed", out.Changed),
		slog.Int("failed", len(out.Failed)),
		slog.Duration("duration", out.FinishedAt.Sub(out.StartedAt)),
	)
	return out
}

func loadNotice(out Outcome) Notice {
	if out.Changed {
		return Notice{Kind: NoticeChanges, Message: msgLoadChanges}
	}
	return Notice{Kind: NoticeNoChanges, Message: msgLoadNoChanges}
}

func refreshNotice(out Outcome) Notice {
	names, _ := SheetsFor(out.Page)
	switch {
	case len(names) > 0 && len(out.Failed) == len(names):
		return Notice{Kind: NoticeFailed, Message: msgRefreshFailed}
	case out.Changed:
		return Notice{Kind: NoticeChanges, Message: msgRefreshChanges}
	default:
		return Notice{Kind: NoticeNoChanges, Message: msgRefreshNone}
	}
}
