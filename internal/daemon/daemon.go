package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/localboost/localboost/internal/api"
	"github.com/localboost/localboost/internal/app/eligibility"
	"github.com/localboost/localboost/internal/app/submission"
	"github.com/localboost/localboost/internal/domain"
	"github.com/localboost/localboost/internal/infra/anomaly"
	"github.com/localboost/localboost/internal/infra/claim"
	"github.com/localboost/localboost/internal/infra/cooldown"
	"github.com/localboost/localboost/internal/infra/quota"
	"github.com/localboost/localboost/internal/infra/sqlite"
	"github.com/localboost/localboost/internal/infra/suspension"
	"github.com/localboost/localboost/internal/infra/trust"
)

// recomputeInterval is how often cached trust scores are refreshed.
const recomputeInterval = 24 * time.Hour

// Daemon owns every engine component for one serving process.
type Daemon struct {
	cfg         Config
	db          *sqlite.DB
	trust       *trust.Engine
	ledger      *quota.Ledger
	cooldowns   *cooldown.Tracker
	claims      *claim.Arbiter
	suspensions *suspension.Manager
	evaluator   *eligibility.Evaluator
	pipeline    *submission.Pipeline
	detector    *anomaly.Detector
	server      *api.Server
}

// New builds and hydrates the engine from persistent state.
func New(cfg Config) (*Daemon, error) {
	if err := os.MkdirAll(cfg.Storage.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := sqlite.Open(cfg.Storage.Dir)
	if err != nil {
		return nil, err
	}

	trustEngine := trust.NewEngine()
	loc := cfg.Engine.Location()
	ledger := quota.NewLedger(eligibility.StoreLimits{Sectors: db, Accounts: db, Trust: trustEngine}, loc)
	cooldowns := cooldown.NewTracker()
	claims := claim.NewArbiter()

	suspensions := suspension.NewManager(suspensionPolicy(cfg, db), db)
	suspensions.SetStore(db)

	evaluator := eligibility.New(db, db, db, trustEngine, ledger, cooldowns)

	claimTTL := ParseClaimTTL(cfg.Engine.ClaimTTL)
	pipeline := submission.NewPipeline(submission.Config{
		ClaimTTL:    claimTTL,
		PayoutCents: cfg.Engine.PayoutCents,
	}, evaluator, ledger, cooldowns, claims, suspensions, db, db)

	detector := anomaly.NewDetector(anomaly.DefaultDetectorConfig())
	pipeline.SetDetector(detector)

	server := api.NewServer(evaluator, pipeline, ledger, trustEngine, suspensions, claims, claimTTL)
	server.SetStore(db)
	server.SetReferences(db)
	server.SetDetector(detector)
	if cfg.API.EnableMetrics {
		server.EnableMetrics()
	}

	d := &Daemon{
		cfg:         cfg,
		db:          db,
		trust:       trustEngine,
		ledger:      ledger,
		cooldowns:   cooldowns,
		claims:      claims,
		suspensions: suspensions,
		evaluator:   evaluator,
		pipeline:    pipeline,
		detector:    detector,
		server:      server,
	}
	if err := d.hydrate(loc); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// suspensionPolicy resolves the starting suspension config: the highest
// version the operator console ever saved, else the TOML defaults.
func suspensionPolicy(cfg Config, db *sqlite.DB) domain.SuspensionConfig {
	stored, ok, err := db.LatestSuspensionConfig()
	if err != nil {
		log.Printf("daemon: load suspension config: %v", err)
	}
	if ok {
		return stored
	}

	policy := domain.DefaultSuspensionConfig()
	policy.Enabled = cfg.Suspension.Enabled
	policy.AutoSuspendEnabled = cfg.Suspension.AutoSuspendEnabled
	if cfg.Suspension.MaxWarningsBeforeSuspend > 0 {
		policy.MaxWarningsBeforeSuspend = cfg.Suspension.MaxWarningsBeforeSuspend
	}
	policy.ExemptedCountries = toStringSet(cfg.Suspension.ExemptedCountries)
	policy.BlockedCountries = toStringSet(cfg.Suspension.BlockedCountries)
	return policy
}

// ─── Hydration ──────────────────────────────────────────────────────────────

// hydrate rebuilds all in-memory engine state from the store: trust
// signals, suspension records and warnings, and the quota ledger and
// cooldown marks replayed from the submission log.
func (d *Daemon) hydrate(loc *time.Location) error {
	signals, err := d.db.ListTrustSignals()
	if err != nil {
		return err
	}
	for id, s := range signals {
		d.trust.SetSignals(id, s)
	}

	warnings, err := d.db.WarningCounts()
	if err != nil {
		return err
	}
	for id, count := range warnings {
		d.suspensions.RestoreWarnings(id, count)
	}
	records, err := d.db.ListSuspensions()
	if err != nil {
		return err
	}
	for _, rec := range records {
		d.suspensions.Restore(rec, warnings[rec.ContributorID])
	}

	subs, err := d.db.ListSubmissions()
	if err != nil {
		return err
	}
	d.replaySubmissions(subs, loc)

	log.Printf("daemon: hydrated %d trust profiles, %d suspensions, %d submissions",
		len(signals), len(records), len(subs))
	return nil
}

type ledgerCounters struct {
	used    int
	pending int
}

type sectorLedgerKey struct {
	account string
	sector  string
	period  string
}

type globalLedgerKey struct {
	account string
	period  string
}

// replaySubmissions folds the submission event log back into the quota
// ledger, the cooldown tracker, and the pipeline's in-flight state.
// Rejected submissions contribute nothing: their reservations were
// rolled back exactly.
func (d *Daemon) replaySubmissions(subs []domain.Submission, loc *time.Location) {
	sector := make(map[sectorLedgerKey]*ledgerCounters)
	global := make(map[globalLedgerKey]*ledgerCounters)

	bump := func(account, sectorID, period string, f func(*ledgerCounters)) {
		sk := sectorLedgerKey{account, sectorID, period}
		if sector[sk] == nil {
			sector[sk] = &ledgerCounters{}
		}
		f(sector[sk])
		gk := globalLedgerKey{account, period}
		if global[gk] == nil {
			global[gk] = &ledgerCounters{}
		}
		f(global[gk])
	}

	for _, sub := range subs {
		switch sub.State {
		case domain.SubmissionPending:
			period := domain.PeriodKey(sub.StartedAt.In(loc))
			bump(sub.AccountID, sub.SectorID, period, func(c *ledgerCounters) { c.pending++ })
			d.pipeline.Restore(sub)
		case domain.SubmissionAccepted:
			period := domain.PeriodKey(sub.ResolvedAt.In(loc))
			bump(sub.AccountID, sub.SectorID, period, func(c *ledgerCounters) { c.used++ })
			d.cooldowns.Restore(sub.AccountID, sub.SectorID, sub.ResolvedAt)
			d.pipeline.Restore(sub)
		}
	}

	for k, c := range sector {
		d.ledger.Restore(k.account, k.sector, k.period, c.used, c.pending)
	}
	for k, c := range global {
		d.ledger.RestoreGlobal(k.account, k.period, c.used, c.pending)
	}
}

// ─── Serving ────────────────────────────────────────────────────────────────

// Run serves the HTTP API until ctx is cancelled, refreshing trust
// scores on the nightly schedule.
func (d *Daemon) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", d.cfg.API.Host, d.cfg.API.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: d.server.Handler(),
	}

	go d.recomputeLoop(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("daemon: serving on http://%s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (d *Daemon) recomputeLoop(ctx context.Context) {
	ticker := time.NewTicker(recomputeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := d.trust.RecomputeAll()
			stale := d.detector.CleanupStaleProfiles()
			log.Printf("daemon: nightly recompute refreshed %d trust scores, dropped %d stale behavior profiles", n, stale)
		}
	}
}

// Close releases the daemon's resources.
func (d *Daemon) Close() error {
	return d.db.Close()
}
