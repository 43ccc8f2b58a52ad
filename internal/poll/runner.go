package poll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"leadscout-engine/internal/classify"
	"leadscout-engine/internal/config"
	"leadscout-engine/internal/dedup"
	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/events"
	"leadscout-engine/internal/export"
	"leadscout-engine/internal/logger"
	"leadscout-engine/internal/queries"
	"leadscout-engine/internal/rank"
	"leadscout-engine/internal/recency"
	"leadscout-engine/internal/scrape/types"
	"leadscout-engine/internal/store"
)

// ErrRunInProgress is returned when a run is already holding the run lock,
// in this process or another.
var ErrRunInProgress = errors.New("run already in progress")

// AdapterFunc builds the adapters for one run.
type AdapterFunc func(cfg config.Config, mode string, qs queries.Set) []types.Adapter

// Runner is the pipeline orchestrator. One Runner serves the CLI, the
// scheduler and the HTTP trigger; at most one run is active at a time.
type Runner struct {
	DB       *store.DB
	DataDir  string
	Config   func() config.Config
	Adapters AdapterFunc
	Events   events.Publisher
	Now      func() time.Time

	mu     sync.Mutex
	status atomic.Value // types.Status
	last   atomic.Pointer[RunSummary]
	log    *zerolog.Logger
}

func NewRunner(db *store.DB, dataDir string, cfg func() config.Config, pub events.Publisher) *Runner {
	r := &Runner{
		DB:       db,
		DataDir:  dataDir,
		Config:   cfg,
		Adapters: BuildAdapters,
		Events:   pub,
		Now:      time.Now,
		log:      logger.Named("poll"),
	}
	r.status.Store(types.Status{State: string(StateIdle)})
	return r
}

// Status is a snapshot for the status endpoint.
func (r *Runner) Status() types.Status {
	if st, ok := r.status.Load().(types.Status); ok {
		return st
	}
	return types.Status{State: string(StateIdle)}
}

// Last is the most recent summary this process produced, nil before the
// first run.
func (r *Runner) Last() *RunSummary { return r.last.Load() }

// Run executes one pipeline run and blocks until it is done. An empty mode
// means the configured default.
func (r *Runner) Run(ctx context.Context, mode string) (RunSummary, error) {
	release, err := r.acquire()
	if err != nil {
		return RunSummary{}, err
	}
	defer release()
	return r.run(ctx, mode)
}

// Trigger starts a run in the background. It fails fast with
// ErrRunInProgress instead of queueing.
func (r *Runner) Trigger(mode string) (string, error) {
	cfg := r.Config()
	if mode == "" {
		mode = cfg.Run.Mode
	}
	if !ValidMode(mode) {
		return "", fmt.Errorf("unknown mode %q", mode)
	}
	release, err := r.acquire()
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	go func() {
		defer release()
		_, _ = r.runWithID(context.Background(), mode, id)
	}()
	return id, nil
}

func (r *Runner) acquire() (func(), error) {
	if !r.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	if err := os.MkdirAll(r.DataDir, 0o755); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	lock := flock.New(filepath.Join(r.DataDir, "run.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("run lock: %w", err)
	}
	if !ok {
		r.mu.Unlock()
		return nil, ErrRunInProgress
	}
	return func() {
		_ = lock.Unlock()
		r.mu.Unlock()
	}, nil
}

func (r *Runner) run(ctx context.Context, mode string) (RunSummary, error) {
	return r.runWithID(ctx, mode, uuid.NewString())
}

// pass is the state of one run.
type pass struct {
	cfg   config.Config
	sum   RunSummary
	now   time.Time
	log   zerolog.Logger
	saved bool
}

func (r *Runner) runWithID(ctx context.Context, mode, id string) (RunSummary, error) {
	cfg := r.Config()
	if mode == "" {
		mode = cfg.Run.Mode
	}
	if !ValidMode(mode) {
		return RunSummary{}, fmt.Errorf("unknown mode %q", mode)
	}
	if r.log == nil {
		r.log = logger.Named("poll")
	}

	now := r.Now().UTC()
	p := &pass{
		cfg: cfg,
		now: now,
		sum: RunSummary{
			RunID:     id,
			Mode:      mode,
			StartedAt: now,
			Attempted: []string{},
			Failed:    []string{},
			Origins:   []OriginReport{},
			Outputs:   []string{},
		},
		log: r.log.With().Str("run_id", id).Str("mode", mode).Logger(),
	}
	r.transition(p, StateRunning)

	qs := QuerySet(cfg, now)
	if mode == ModeQueries {
		r.transition(p, StateFormatting)
		path, err := r.writeQueries(cfg, qs)
		if err != nil {
			return r.fail(ctx, p, "formatting", err)
		}
		p.sum.Outputs = append(p.sum.Outputs, path)
		return r.finish(ctx, p)
	}

	gen, err := r.DB.Generation(context.WithoutCancel(ctx))
	if err != nil {
		return r.fail(ctx, p, "running", fmt.Errorf("read generation: %w", err))
	}

	adapters := r.Adapters(cfg, mode, qs)
	b := r.collect(ctx, p, adapters)
	if len(p.sum.Failed) == len(adapters) {
		return r.fail(ctx, p, "running", domain.ErrTotalPipelineFailure)
	}

	// Past this point the run writes; a caller giving up does not stop it.
	wctx := context.WithoutCancel(ctx)

	r.transition(p, StateMerging)
	if err := r.merge(wctx, p, gen, b); err != nil {
		return r.fail(wctx, p, "merging", err)
	}
	p.saved = true
	r.publish(events.TypeLeadsUpdated, map[string]any{
		"run_id":  id,
		"created": p.sum.Counts.Created,
		"updated": p.sum.Counts.Updated,
		"stale":   p.sum.Counts.MarkedStale,
	})

	for i, fin := range b.finals {
		if fin == nil {
			continue
		}
		if err := fin(wctx); err != nil {
			origin := p.sum.Origins[i].Origin
			p.log.Warn().Err(err).Str("origin", origin).Msg("finalize failed")
			p.sum.FinalizeErrors = append(p.sum.FinalizeErrors, origin+": "+err.Error())
		}
	}

	r.transition(p, StateFormatting)
	if err := r.format(wctx, p, qs); err != nil {
		return r.fail(wctx, p, "formatting", err)
	}
	return r.finish(wctx, p)
}

type batch struct {
	kept    []domain.ClassifiedCandidate
	dropped []domain.ClassifiedCandidate
	finals  []func(context.Context) error // indexed like the adapters
}

// collect fans out to every adapter and funnels their candidates through a
// bounded queue into one classifying consumer.
func (r *Runner) collect(ctx context.Context, p *pass, adapters []types.Adapter) batch {
	reports := make([]OriginReport, len(adapters))
	b := batch{finals: make([]func(context.Context) error, len(adapters))}

	queueSize := p.cfg.Run.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	queue := make(chan domain.RawCandidate, queueSize)

	clf := classify.New(p.cfg.Classifier)
	window := p.cfg.StalenessWindow()
	counts := &p.sum.Counts
	done := make(chan struct{})
	go func() {
		defer close(done)
		for raw := range queue {
			counts.Raw++
			c := clf.Candidate(raw, p.now)
			switch c.Intent {
			case domain.IntentHomeowner:
				counts.Homeowner++
			case domain.IntentProfessional:
				counts.Professional++
			default:
				counts.Irrelevant++
			}
			if c.Ambiguous {
				counts.Ambiguous++
			}
			if c.Intent != domain.IntentHomeowner {
				continue
			}
			if keep, _ := recency.Keep(c, window); !keep {
				counts.DroppedRecency++
				b.dropped = append(b.dropped, c)
				continue
			}
			if c.UnknownAge() {
				counts.UnknownAge++
			}
			b.kept = append(b.kept, c)
		}
	}()

	timeout := p.cfg.OriginTimeout()
	var g errgroup.Group
	for i, a := range adapters {
		g.Go(func() error {
			rep := OriginReport{Origin: a.Name()}
			defer func() { reports[i] = rep }()

			if err := ctx.Err(); err != nil {
				rep.Failed = true
				rep.Error = "not started: " + err.Error()
				return nil
			}

			// An in-flight fetch finishes or times out on its own.
			fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
			defer cancel()

			start := time.Now()
			res, err := a.Fetch(fctx)
			if err == nil {
				err = res.Outcome()
			}
			rep.Candidates = len(res.Candidates)
			rep.Malformed = res.Malformed
			rep.Pages = res.Pages
			rep.PageErrors = len(res.PageErrors)

			olog := p.log.With().Str("origin", rep.Origin).Logger()
			if err != nil {
				rep.Failed = true
				rep.Error = err.Error()
				olog.Warn().Err(err).Dur("took", time.Since(start)).Msg("origin failed")
				return nil
			}
			olog.Info().
				Int("candidates", rep.Candidates).
				Int("malformed", rep.Malformed).
				Int("page_errors", rep.PageErrors).
				Dur("took", time.Since(start)).
				Msg("origin done")

			for _, c := range res.Candidates {
				if c.Origin == "" {
					c.Origin = rep.Origin
				}
				queue <- c
			}
			b.finals[i] = res.Finalize
			return nil
		})
	}
	_ = g.Wait()
	close(queue)
	<-done

	for _, rep := range reports {
		p.sum.Attempted = append(p.sum.Attempted, rep.Origin)
		if rep.Failed {
			p.sum.Failed = append(p.sum.Failed, rep.Origin)
		}
	}
	p.sum.Origins = reports
	if counts.Raw > 0 {
		p.sum.ConversionRate = math.Round(1000*float64(len(b.kept))/float64(counts.Raw)) / 1000
	}
	return b
}

// merge applies the batch under the store's single writer. Nothing is
// written unless the whole merge commits.
func (r *Runner) merge(ctx context.Context, p *pass, gen int64, b batch) error {
	cfg := p.cfg
	merger := dedup.Merger{
		Scorer: rank.FromConfig(cfg),
		Decay:  rank.DecayFromConfig(cfg),
		Trust:  cfg.Origins.Trust,
	}
	generic := cfg.Identity.GenericURLs
	runID := p.sum.RunID

	// Arrival order depends on goroutine timing; merge in a fixed order so
	// first-seen fields do not.
	sort.SliceStable(b.kept, func(i, j int) bool { return candidateLess(b.kept[i], b.kept[j]) })

	var created, updated, staled int
	err := r.DB.WithRun(ctx, gen, func(tx *store.RunTx) error {
		pending := map[string]domain.Lead{}
		var order []string
		for _, c := range b.kept {
			id := dedup.Resolve(c.RawCandidate, generic)
			var existing *domain.Lead
			if prev, ok := pending[id.Key]; ok {
				existing = &prev
			} else {
				got, err := tx.Get(ctx, id.Key)
				if err != nil {
					return err
				}
				existing = got
				if got == nil {
					created++
				} else {
					updated++
				}
				order = append(order, id.Key)
			}
			pending[id.Key] = merger.Merge(existing, id, c, runID, p.now)
		}
		for _, key := range order {
			if err := tx.Put(ctx, pending[key]); err != nil {
				return err
			}
		}

		var tooOld []string
		for _, c := range b.dropped {
			id := dedup.Resolve(c.RawCandidate, generic)
			if _, ok := pending[id.Key]; !ok {
				tooOld = append(tooOld, id.Key)
			}
		}
		n, err := tx.MarkStaleKeys(ctx, tooOld)
		if err != nil {
			return err
		}
		m, err := tx.MarkStale(ctx, runID, p.now.Add(-cfg.StalenessWindow()))
		if err != nil {
			return err
		}
		staled = n + m

		sum := p.sum
		sum.FinishedAt = r.Now().UTC()
		sum.Counts.Created, sum.Counts.Updated, sum.Counts.MarkedStale = created, updated, staled
		rec, err := record(sum)
		if err != nil {
			return err
		}
		return tx.SaveRun(ctx, rec)
	})
	if err != nil {
		return err
	}
	p.sum.Counts.Created = created
	p.sum.Counts.Updated = updated
	p.sum.Counts.MarkedStale = staled
	return nil
}

func candidateLess(a, b domain.ClassifiedCandidate) bool {
	if a.Origin != b.Origin {
		return a.Origin < b.Origin
	}
	if a.URL != b.URL {
		return a.URL < b.URL
	}
	if a.Title != b.Title {
		return a.Title < b.Title
	}
	return a.Text < b.Text
}

func (r *Runner) format(ctx context.Context, p *pass, qs queries.Set) error {
	leads, err := r.DB.ListLeads(ctx, p.cfg.Run.IncludeStale)
	if err != nil {
		return err
	}
	files, err := export.WriteFiles(r.outputDir(p.cfg), p.cfg.Output.JSONName, p.cfg.Output.CSVName, leads)
	if err != nil {
		return fmt.Errorf("write leads: %w", err)
	}
	p.sum.Outputs = append(p.sum.Outputs, files.JSON, files.CSV)

	if p.sum.Mode == ModeFull {
		path, err := r.writeQueries(p.cfg, qs)
		if err != nil {
			return err
		}
		p.sum.Outputs = append(p.sum.Outputs, path)
	}
	return nil
}

func (r *Runner) writeQueries(cfg config.Config, qs queries.Set) (string, error) {
	dir := r.outputDir(cfg)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, cfg.Output.QueriesName)
	if err := export.WriteFileAtomic(path, []byte(queries.Instructions(qs))); err != nil {
		return "", fmt.Errorf("write queries: %w", err)
	}
	return path, nil
}

func (r *Runner) outputDir(cfg config.Config) string { return OutputDir(cfg, r.DataDir) }

// OutputDir is where the interchange files go: output.dir, else
// <dataDir>/output.
func OutputDir(cfg config.Config, dataDir string) string {
	if cfg.Output.Dir != "" {
		return cfg.Output.Dir
	}
	return filepath.Join(dataDir, "output")
}

func (r *Runner) finish(ctx context.Context, p *pass) (RunSummary, error) {
	p.sum.FinishedAt = r.Now().UTC()
	r.transition(p, StateIdle)
	r.persist(ctx, p)
	r.last.Store(&p.sum)

	st := r.Status()
	st.LastOkAt = p.sum.FinishedAt.Format(time.RFC3339)
	st.LastError = ""
	st.LastAdded = p.sum.Counts.Created
	r.status.Store(st)

	ev := p.log.Info()
	if p.sum.Partial() {
		ev = p.log.Warn().Strs("failed", p.sum.Failed)
	}
	ev.Int("raw", p.sum.Counts.Raw).
		Int("homeowner", p.sum.Counts.Homeowner).
		Int("created", p.sum.Counts.Created).
		Int("updated", p.sum.Counts.Updated).
		Int("stale", p.sum.Counts.MarkedStale).
		Float64("conversion", p.sum.ConversionRate).
		Msg("run done")
	return p.sum, nil
}

func (r *Runner) fail(ctx context.Context, p *pass, phase string, err error) (RunSummary, error) {
	p.sum.FinishedAt = r.Now().UTC()
	p.sum.Error = err.Error()
	r.transition(p, StateFailed)
	// A run that never committed leaves the store exactly as it was.
	r.persist(ctx, p)
	r.last.Store(&p.sum)

	st := r.Status()
	st.LastError = err.Error()
	r.status.Store(st)

	p.log.Error().Err(err).Str("phase", phase).Strs("failed", p.sum.Failed).Msg("run failed")
	return p.sum, &domain.RunError{RunID: p.sum.RunID, Phase: phase, Failed: p.sum.Failed, Err: err}
}

func (r *Runner) persist(ctx context.Context, p *pass) {
	if !p.saved {
		return
	}
	rec, err := record(p.sum)
	if err == nil {
		err = r.DB.FinishRun(ctx, rec)
	}
	if err != nil {
		p.log.Warn().Err(err).Msg("could not update run record")
	}
}

func (r *Runner) transition(p *pass, s State) {
	p.sum.State = s
	st := r.Status()
	st.State = string(s)
	st.Running = s == StateRunning || s == StateMerging || s == StateFormatting
	st.LastRunID = p.sum.RunID
	st.LastMode = p.sum.Mode
	if s == StateRunning {
		st.LastRunAt = p.sum.StartedAt.Format(time.RFC3339)
	}
	r.status.Store(st)

	p.log.Debug().Str("state", string(s)).Msg("run state")
	r.publish(events.TypeRunState, map[string]string{
		"run_id": p.sum.RunID,
		"mode":   p.sum.Mode,
		"state":  string(s),
	})
}

func (r *Runner) publish(typ string, data any) {
	if r.Events != nil {
		r.Events.Publish(events.MakeEvent("", typ, 1, data))
	}
}

func record(s RunSummary) (store.RunRecord, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return store.RunRecord{}, err
	}
	return store.RunRecord{
		ID:         s.RunID,
		Mode:       s.Mode,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		State:      string(s.State),
		Summary:    b,
	}, nil
}
