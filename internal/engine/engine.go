// Package engine runs one regression comparison: load the diff document,
// write the report, aggregate a verdict, publish diff artifacts and emit the
// CI log protocol.
package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"cicompare/internal/config"
	"cicompare/internal/diffs"
	gh "cicompare/internal/github"
	"cicompare/internal/logging"
	"cicompare/internal/outcome"
	"cicompare/internal/output"
	"cicompare/internal/publish"
	"cicompare/internal/storage"
)

func exitCodeForRun(fatal, strict, hasDiffs bool) int {
	// Exit code contract:
	// 0 = run completed; the verdict is carried by the log protocol
	// 1 = big diffs found and --strict-exit set
	// 3 = fatal error (no verdict was produced)
	if fatal {
		return 3
	}
	if strict && hasDiffs {
		return 1
	}
	return 0
}

type statusNotifier interface {
	Notify(ctx context.Context, sha string, o outcome.Outcome, targetURL string) (gh.Status, error)
}

type Engine struct {
	// Stdout receives the CI log protocol. Defaults to os.Stdout.
	Stdout io.Writer

	// Test seams. If nil, Engine uses the real clock, storage backends and
	// GitHub client.
	now         func() time.Time
	newStore    func(ctx context.Context, cfg config.Publish) (storage.Store, error)
	newNotifier func(ctx context.Context, cfg *config.Config) (statusNotifier, error)
}

func NewEngine() *Engine {
	return &Engine{Stdout: os.Stdout}
}

func (e *Engine) setupOutputManager(cfg *config.Config) (*output.Manager, error) {
	outMgr := output.NewManager()

	if err := outMgr.AddSink(output.NewConsoleSink(e.Stdout)); err != nil {
		outMgr.Close()
		return nil, err
	}

	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	if cfg.Output.Summary != "" {
		ss, err := output.NewSummarySink(cfg.Output.Summary)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(ss); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	if cfg.Output.MetricsTextfile != "" {
		ms, err := output.NewMetricsSink(cfg.Output.MetricsTextfile)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(ms); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

// loadEntry reads the diff document and fills in the case name when the
// document does not carry one.
func loadEntry(cfg *config.Config, log *slog.Logger) (*diffs.Entry, error) {
	entry, err := diffs.LoadEntry(cfg.DiffsPath())
	if err != nil {
		return nil, err
	}
	if entry.Case == "" {
		entry.Case = cfg.Invocation.FileName
	}
	for slot, reason := range entry.Malformed {
		log.Warn("malformed diff slot treated as not compared", "slot", slot, "reason", reason)
	}
	return entry, nil
}

func (e *Engine) Run(ctx context.Context, cfg *config.Config) int {
	runID := uuid.NewString()
	log := logging.New("engine").With("run_id", runID)
	inv := cfg.Invocation

	if cfg.Runtime.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Runtime.Timeout)
		defer cancel()
	}

	log.Info("comparing builds",
		"case", inv.FileName,
		"device_id", inv.DeviceID,
		"base_dir", inv.BaseDir,
		"mod_dir", inv.ModDir,
		"dry_run", inv.DryRun,
	)

	entry, err := loadEntry(cfg, log)
	if err != nil {
		log.Error("failed to load diff document", "path", cfg.DiffsPath(), "error", err)
		return exitCodeForRun(true, false, false)
	}

	if err := output.WriteResults(cfg.Output.Results, entry); err != nil {
		log.Error("failed to write results", "path", cfg.Output.Results, "error", err)
		return exitCodeForRun(true, false, false)
	}
	log.Debug("wrote results", "path", cfg.Output.Results, "slots", entry.Len())

	outMgr, err := e.setupOutputManager(cfg)
	if err != nil {
		log.Error("failed to create output sinks", "error", err)
		return exitCodeForRun(true, false, false)
	}
	defer outMgr.Close()

	o := outcome.Aggregate(entry)
	_ = outMgr.Write(output.Event{Type: output.EventRunStarted, RunID: runID, Case: o.Case})
	for _, r := range o.Results {
		_ = outMgr.Write(r)
	}
	_ = outMgr.Write(output.Event{Type: output.EventOutcome, RunID: runID, Case: o.Case, Outcome: &o})
	log.Info("classified outcome",
		"verdict", o.Verdict(),
		"has_diffs", o.HasDiffs,
		"has_small_diffs", o.HasSmallDiffs,
	)

	// A clean outcome makes no storage or GitHub calls.
	if o.NeedsPublication() {
		var url string
		if res := e.publish(ctx, cfg, o, runID, outMgr, log); res != nil {
			url = res.URL
		}
		e.postStatus(ctx, cfg, o, url, log)
	} else {
		log.Debug("no diffs to publish")
	}

	code := exitCodeForRun(false, cfg.Runtime.StrictExit, o.HasDiffs)
	_ = outMgr.Write(output.Event{Type: output.EventRunFinished, RunID: runID, Case: o.Case, ExitCode: code})
	if err := outMgr.Close(); err != nil {
		log.Error("failed to close output sinks", "error", err)
	}
	return code
}

// publish uploads the diff artifacts of the modified build. It returns nil
// when uploads were skipped. Publication errors never change the verdict.
func (e *Engine) publish(ctx context.Context, cfg *config.Config, o outcome.Outcome, runID string, outMgr *output.Manager, log *slog.Logger) *publish.Result {
	if cfg.Invocation.DryRun {
		log.Info("skipping upload in dry run", "dir", cfg.Invocation.ModDir)
		_ = outMgr.Write(output.Event{Type: output.EventPublishFinished, RunID: runID, Case: o.Case, DryRun: true})
		return nil
	}

	inv := cfg.Invocation
	layout := publish.NewLayout(cfg.Publish.Prefix, e.clock(), inv.BaseSHA, inv.ModSHA, inv.FileName, inv.DeviceID)

	newStore := e.newStore
	if newStore == nil {
		newStore = storage.New
	}
	store, err := newStore(ctx, cfg.Publish)
	if err != nil {
		log.Error("failed to open storage backend", "backend", cfg.Publish.Backend, "error", err)
		res := publish.Result{Backend: cfg.Publish.Backend, Dir: layout.Dir(), Errors: []string{err.Error()}}
		_ = outMgr.Write(output.Event{Type: output.EventPublishFinished, RunID: runID, Case: o.Case, Publish: &res})
		return &res
	}
	if c, ok := store.(io.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				log.Warn("failed to close storage backend", "error", err)
			}
		}()
	}

	p := publish.New(store, publish.Options{
		Layout:     layout,
		Public:     cfg.Publish.MakePublic,
		UploadRate: cfg.Publish.UploadRate,
		OnFile: func(fr publish.FileResult) {
			_ = outMgr.Write(output.Event{Type: output.EventPublishFile, RunID: runID, Case: o.Case, File: &fr})
		},
		Logger: logging.New("publish").With("run_id", runID),
	})

	res := p.Publish(ctx, inv.ModDir)
	log.Info(res.Summary(), "backend", res.Backend, "dir", res.Dir, "success", res.Success)
	_ = outMgr.Write(output.Event{Type: output.EventPublishFinished, RunID: runID, Case: o.Case, Publish: &res})
	return &res
}

func (e *Engine) postStatus(ctx context.Context, cfg *config.Config, o outcome.Outcome, url string, log *slog.Logger) {
	if !cfg.GitHub.Status {
		return
	}
	if cfg.Invocation.DryRun {
		log.Info("skipping commit status in dry run", "repo", cfg.GitHub.Repo)
		return
	}

	newNotifier := e.newNotifier
	if newNotifier == nil {
		newNotifier = defaultNotifier
	}
	n, err := newNotifier(ctx, cfg)
	if err != nil {
		log.Error("failed to create github client", "error", err)
		return
	}
	st, err := n.Notify(ctx, cfg.Invocation.ModSHA, o, url)
	if err != nil {
		log.Error("failed to post commit status", "repo", cfg.GitHub.Repo, "error", err)
		return
	}
	log.Info("posted commit status", "repo", cfg.GitHub.Repo, "sha", cfg.Invocation.ModSHA, "state", st.State, "context", st.Context)
}

func defaultNotifier(ctx context.Context, cfg *config.Config) (statusNotifier, error) {
	token, source, err := gh.ResolveAuthToken(ctx, "")
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, errors.New("no GitHub token found (set GITHUB_TOKEN or run gh auth login)")
	}
	logging.New("github").Debug("resolved github token", "source", source)

	opts := []gh.Option{gh.WithVerbose(cfg.Runtime.Verbose, logging.New("github"))}
	// Set by GitHub Actions; differs from the public API on Enterprise Server.
	if api := strings.TrimSpace(os.Getenv("GITHUB_API_URL")); api != "" && api != "https://api.github.com" {
		opts = append(opts, gh.WithBaseURL(api))
	}
	client, err := gh.NewClient(ctx, token, opts...)
	if err != nil {
		return nil, err
	}
	return gh.NewStatusNotifier(client, cfg.GitHub.Repo)
}

func (e *Engine) clock() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now()
}
