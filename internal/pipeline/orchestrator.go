package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/snonux/wordreel/internal/artifacts"
	"codeberg.org/snonux/wordreel/internal/frame"
	"codeberg.org/snonux/wordreel/internal/history"
	"codeberg.org/snonux/wordreel/internal/muxer"
	"codeberg.org/snonux/wordreel/internal/narration"
	"codeberg.org/snonux/wordreel/internal/publish"
	"codeberg.org/snonux/wordreel/internal/rotation"
	"codeberg.org/snonux/wordreel/internal/vocab"
)

// ErrRunInFlight is returned when a trigger arrives while a run is active.
var ErrRunInFlight = errors.New("a pipeline run is already in flight")

// Outcome classifies how a run ended.
type Outcome string

const (
	// OutcomeCompleted means a video was produced and published.
	OutcomeCompleted Outcome = "completed"
	// OutcomeNoData means the corpus was empty; not an error.
	OutcomeNoData Outcome = "no-data"
	// OutcomeQuotaReached means the daily limit blocked the run; not an error.
	OutcomeQuotaReached Outcome = "quota-reached"
	// OutcomeFailed means a stage failed.
	OutcomeFailed Outcome = "failed"
)

// Result reports what a run did.
type Result struct {
	Outcome Outcome
	Word    string
}

// Config holds orchestrator policy knobs.
type Config struct {
	DailyLimit        int
	EnforceDailyLimit bool
	// AdvanceOnFailure keeps the documented at-most-once-attempt behavior:
	// the word stays consumed even when the run fails. When false, a failed
	// run restores the cursor so the next trigger retries the same word.
	AdvanceOnFailure bool

	NarrationTimeout time.Duration
	RenderTimeout    time.Duration
	MuxTimeout       time.Duration
	PublishTimeout   time.Duration
}

// DefaultConfig returns the default orchestrator policy.
func DefaultConfig() Config {
	return Config{
		DailyLimit:        5,
		EnforceDailyLimit: true,
		AdvanceOnFailure:  true,
		NarrationTimeout:  60 * time.Second,
		RenderTimeout:     120 * time.Second,
		MuxTimeout:        120 * time.Second,
		PublishTimeout:    120 * time.Second,
	}
}

// Orchestrator composes the collaborators of one generation pipeline.
type Orchestrator struct {
	corpus    *vocab.Corpus
	state     *rotation.Store
	narrator  narration.Provider
	renderer  frame.Renderer
	mux       muxer.Muxer
	publisher publish.Publisher
	ledger    *history.Store // optional
	store     *artifacts.Store
	cfg       Config
	logger    *slog.Logger

	permit chan struct{}
}

// New constructs an orchestrator. The history ledger may be nil.
func New(corpus *vocab.Corpus, state *rotation.Store, narrator narration.Provider,
	renderer frame.Renderer, mux muxer.Muxer, publisher publish.Publisher,
	ledger *history.Store, store *artifacts.Store, cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		corpus:    corpus,
		state:     state,
		narrator:  narrator,
		renderer:  renderer,
		mux:       mux,
		publisher: publisher,
		ledger:    ledger,
		store:     store,
		cfg:       cfg,
		logger:    logger,
		permit:    make(chan struct{}, 1),
	}
}

// Corpus returns the corpus the orchestrator rotates through.
func (o *Orchestrator) Corpus() *vocab.Corpus { return o.corpus }

// State returns the rotation store. Read-only use outside a run.
func (o *Orchestrator) State() *rotation.Store { return o.state }

// Run executes one generation attempt. Exactly one run may be in flight at
// a time; concurrent callers get ErrRunInFlight. An empty corpus or an
// exhausted daily quota ends the run as a no-op, not a failure.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	select {
	case o.permit <- struct{}{}:
	default:
		return Result{Outcome: OutcomeFailed}, ErrRunInFlight
	}
	defer func() { <-o.permit }()

	started := time.Now()

	o.state.ResetIfNewDay()

	if o.cfg.EnforceDailyLimit && !o.state.CanRun(o.cfg.DailyLimit) {
		o.logger.Info("daily video limit reached", slog.Int("limit", o.cfg.DailyLimit))
		o.record(ctx, history.Run{Outcome: history.OutcomeQuota, StartedAt: started, FinishedAt: time.Now()})
		return Result{Outcome: OutcomeQuotaReached}, nil
	}

	// The cursor advances here, before any rendering is attempted.
	rec, ok := o.state.NextWord(o.corpus)
	if !ok {
		o.logger.Info("no vocabulary data available")
		o.record(ctx, history.Run{Outcome: history.OutcomeNoData, StartedAt: started, FinishedAt: time.Now()})
		return Result{Outcome: OutcomeNoData}, nil
	}

	o.logger.Info("processing word", slog.String("word", rec.Word))

	videoPath, err := o.produce(ctx, rec)
	finished := time.Now()

	if err != nil {
		if !o.cfg.AdvanceOnFailure {
			o.state.Unadvance(o.corpus.Len())
		}
		o.logger.Error("video processing failed",
			slog.String("word", rec.Word),
			slog.String("error", err.Error()))
		o.record(ctx, history.Run{
			Word: rec.Word, Outcome: history.OutcomeFailed,
			StartedAt: started, FinishedAt: finished, ErrorText: err.Error(),
		})
		return Result{Outcome: OutcomeFailed, Word: rec.Word}, err
	}

	o.state.RecordCompletion()
	persistErr := o.state.Persist()

	o.record(ctx, history.Run{
		Word: rec.Word, Outcome: history.OutcomeCompleted,
		StartedAt: started, FinishedAt: finished, VideoPath: videoPath,
	})
	o.logger.Info("video processing completed",
		slog.String("word", rec.Word),
		slog.Duration("elapsed", finished.Sub(started)))

	if persistErr != nil {
		// The video is out the door; the caller still needs to know the
		// on-disk cursor no longer matches memory.
		o.logger.Error("rotation state persist failed", slog.String("error", persistErr.Error()))
		return Result{Outcome: OutcomeCompleted, Word: rec.Word}, persistErr
	}
	return Result{Outcome: OutcomeCompleted, Word: rec.Word}, nil
}

// produce runs the media stages. It returns the (already deleted) video
// path for the ledger. Every artifact produced here is removed before
// returning, on success and failure alike; mux consumes its own inputs.
func (o *Orchestrator) produce(ctx context.Context, rec vocab.WordRecord) (string, error) {
	var audioPath, imagePath, videoPath string
	defer func() {
		o.store.Remove(audioPath)
		o.store.Remove(imagePath)
		o.store.Remove(videoPath)
	}()

	// Narration and frame render share no data, so they run concurrently.
	type stageResult struct {
		path string
		err  error
	}
	narrCh := make(chan stageResult, 1)
	go func() {
		nctx, cancel := o.stageContext(ctx, o.cfg.NarrationTimeout)
		defer cancel()
		path, err := o.narrator.Synthesize(nctx, rec)
		narrCh <- stageResult{path, err}
	}()

	rctx, cancel := o.stageContext(ctx, o.cfg.RenderTimeout)
	var renderErr error
	imagePath, renderErr = o.renderer.RenderStill(rctx, rec)
	cancel()

	narr := <-narrCh
	audioPath = narr.path

	if narr.err != nil {
		return "", narr.err
	}
	if renderErr != nil {
		return "", renderErr
	}

	mctx, cancel := o.stageContext(ctx, o.cfg.MuxTimeout)
	videoPath = o.store.NewPath("mp4")
	_, muxErr := o.mux.Mux(mctx, imagePath, audioPath, videoPath)
	cancel()
	if muxErr != nil {
		return "", muxErr
	}

	pctx, cancel := o.stageContext(ctx, o.cfg.PublishTimeout)
	pubErr := o.publisher.Publish(pctx, videoPath, rec)
	cancel()
	if pubErr != nil {
		return "", fmt.Errorf("publish via %s: %w", o.publisher.Name(), pubErr)
	}

	return videoPath, nil
}

func (o *Orchestrator) stageContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func (o *Orchestrator) record(ctx context.Context, run history.Run) {
	if o.ledger == nil {
		return
	}
	if err := o.ledger.Record(ctx, run); err != nil {
		o.logger.Warn("failed to record run history", slog.String("error", err.Error()))
	}
}
