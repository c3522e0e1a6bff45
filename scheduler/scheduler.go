/*
Package scheduler runs the nightly job spec section 4.8 describes:
ingest every configured source, expand the calendar, compute balances,
insert a snapshot, and evaluate alert rules against it. Lifecycle
(Start/Stop, Enabled guard, last-run bookkeeping under a mutex) mirrors
the teacher's api/scheduler.go ReconciliationScheduler; the trigger itself
is github.com/robfig/cron/v3 instead of a bare time.Ticker, since the job
must fire at a configured wall-clock time in a configured timezone rather
than on a fixed interval from process start.
*/
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/warp/cashflow-engine/core"
	"github.com/warp/cashflow-engine/ingest"
	"github.com/warp/cashflow-engine/internal/config"
)

const horizonDays = 120

// Scheduler runs the nightly ingest+snapshot+alerts job on a cron
// schedule and tracks the outcome of the most recent run.
type Scheduler struct {
	Store      core.Store
	Clients    map[string]ingest.Client
	Cfg        config.Config
	Log        zerolog.Logger
	Thresholds core.AlertThresholds

	cron *cron.Cron

	mu        sync.Mutex
	lastRun   time.Time
	lastRunOK bool
}

// New builds a Scheduler. Clients maps ingest source name to the Client
// used to pull deltas for it; sources with no registered client are
// skipped during the nightly ingest pass (snapshotting still runs).
func New(store core.Store, clients map[string]ingest.Client, cfg config.Config, thresholds core.AlertThresholds, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Store:      store,
		Clients:    clients,
		Cfg:        cfg,
		Thresholds: thresholds,
		Log:        log.With().Str("component", "scheduler").Logger(),
	}
}

// Start schedules the nightly job at Cfg.SchedulerHour:SchedulerMinute in
// Cfg.SchedulerTZ. A disabled scheduler (Cfg.SchedulerEnabled == false)
// is a no-op, matching the teacher's Enabled guard.
func (s *Scheduler) Start() error {
	if !s.Cfg.SchedulerEnabled {
		s.Log.Info().Msg("scheduler disabled, not starting")
		return nil
	}

	loc, err := time.LoadLocation(s.Cfg.SchedulerTZ)
	if err != nil {
		return core.NewValidationError("SCHEDULER_TZ", "unknown timezone: "+err.Error())
	}

	s.cron = cron.New(cron.WithLocation(loc))
	spec := cronSpec(s.Cfg.SchedulerHour, s.Cfg.SchedulerMinute)
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return err
	}
	s.cron.Start()
	s.Log.Info().Str("spec", spec).Str("tz", s.Cfg.SchedulerTZ).Msg("scheduler started")
	return nil
}

// Stop halts the cron dispatcher, waiting for any in-flight run to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// RunNow triggers the job immediately, outside its cron schedule. Used
// by ctl reconcile.
func (s *Scheduler) RunNow(ctx context.Context) error {
	return s.run(ctx)
}

// LastRun reports the timestamp of the most recently completed run, if
// any, and whether it succeeded. Wired into the API's /healthz handler.
func (s *Scheduler) LastRun() (at time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, !s.lastRun.IsZero() && s.lastRunOK
}

func (s *Scheduler) runOnce() {
	if err := s.run(context.Background()); err != nil {
		s.Log.Error().Err(err).Msg("nightly run failed")
	}
}

func (s *Scheduler) run(ctx context.Context) error {
	start := time.Now()
	s.Log.Info().Msg("nightly run starting")

	for source, client := range s.Clients {
		ingestor := ingest.NewIngestor(s.Store, client, s.Log)
		audit, err := ingestor.RunDelta(ctx, source)
		if err != nil {
			s.Log.Warn().Err(err).Str("source", source).Msg("ingest failed, continuing with other sources")
			continue
		}
		s.Log.Info().Str("source", source).Int("rows", audit.RowsUpserted).Str("status", string(audit.Status)).Msg("ingest complete")
	}

	today := core.Today()
	if err := s.snapshotAndAlert(ctx, today); err != nil {
		s.recordRun(false)
		return err
	}

	s.recordRun(true)
	s.Log.Info().Dur("elapsed", time.Since(start)).Msg("nightly run complete")
	return nil
}

func (s *Scheduler) recordRun(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun = time.Now()
	s.lastRunOK = ok
}

func (s *Scheduler) snapshotAndAlert(ctx context.Context, today core.Day) error {
	accounts, err := s.Store.ListAccounts(ctx, true)
	if err != nil {
		return err
	}
	accountIDs := make([]core.AccountID, len(accounts))
	for i, a := range accounts {
		accountIDs[i] = a.ID
	}

	horizonEnd := today.AddDays(horizonDays)

	opening, err := core.Opening(ctx, s.Store, s.Store, today.AddDays(-1), accountIDs)
	if err != nil {
		return err
	}

	inflows, err := s.Store.ListScheduledInflows(ctx)
	if err != nil {
		return err
	}
	commitments, err := s.Store.ListCommitments(ctx)
	if err != nil {
		return err
	}
	keyEvents, err := s.Store.ListKeyEvents(ctx, today, horizonEnd)
	if err != nil {
		return err
	}

	entries, err := core.ExpandCalendar(today, horizonEnd, inflows, commitments, keyEvents)
	if err != nil {
		return err
	}
	series := core.ComputeBalances(opening, today, horizonEnd, entries)

	prevSnapshot, hadPrev, err := s.Store.LatestSnapshot(ctx)
	if err != nil {
		return err
	}

	payload, err := core.EncodeSnapshotPayload(series)
	if err != nil {
		return err
	}
	minBal, minDate := series.MinBalance()
	snapshot := core.ForecastSnapshot{
		ID:              core.SnapshotID(uuid.NewString()),
		CreatedAt:       today,
		HorizonStart:    today,
		HorizonEnd:      horizonEnd,
		Payload:         payload,
		MinBalanceCents: minBal,
		MinBalanceDate:  minDate,
	}
	if err := s.Store.InsertSnapshot(ctx, snapshot); err != nil {
		return err
	}

	commitmentByID := make(map[core.CommitmentID]core.Commitment, len(commitments))
	for _, c := range commitments {
		commitmentByID[c.ID] = c
	}

	return s.evaluateAlerts(ctx, today, series, accounts, commitments, commitmentByID, prevSnapshot, hadPrev)
}

func (s *Scheduler) evaluateAlerts(
	ctx context.Context,
	today core.Day,
	series core.BalanceSeries,
	accounts []core.Account,
	commitments []core.Commitment,
	commitmentByID map[core.CommitmentID]core.Commitment,
	prevSnapshot core.ForecastSnapshot,
	hadPrev bool,
) error {
	minBal, _ := series.MinBalance()

	if hadPrev {
		if alert, fired := core.DetectThresholdBreach(prevSnapshot.MinBalanceCents, minBal, s.Thresholds, today); fired {
			if _, err := s.Store.UpsertAlert(ctx, alert); err != nil {
				return err
			}
		}
	}

	for _, a := range accounts {
		anchor, ok, err := s.Store.AnchorFor(a.ID)
		if err != nil || !ok || anchor.MinFloorCents == nil {
			continue
		}
		bal, found := series.At(today)
		if !found {
			continue
		}
		if alert, fired := core.DetectFloorBreach(a.ID, bal, anchor, today); fired {
			if _, err := s.Store.UpsertAlert(ctx, alert); err != nil {
				return err
			}
		}
	}

	recentTxs, err := s.Store.TransactionsForAccounts(ctx, accountIDsOf(accounts), today.AddDays(-1), today)
	if err != nil {
		return err
	}
	inflows, err := s.Store.ListScheduledInflows(ctx)
	if err != nil {
		return err
	}
	matcher := core.NewRecurringMatcher(commitments, inflows)
	for _, tx := range recentTxs {
		if alert, fired := core.DetectLargeUnplannedDebit(tx, s.Thresholds, matcher, today); fired {
			if _, err := s.Store.UpsertAlert(ctx, alert); err != nil {
				return err
			}
		}
	}

	return nil
}

func accountIDsOf(accounts []core.Account) []core.AccountID {
	out := make([]core.AccountID, len(accounts))
	for i, a := range accounts {
		out[i] = a.ID
	}
	return out
}

func cronSpec(hour, minute int) string {
	return fmt.Sprintf("%d %d * * *", minute, hour)
}
