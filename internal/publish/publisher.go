// Package publish uploads the diff artifacts of a comparison, a viewer page
// per artifact and an index page, so reviewers can inspect differences.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/time/rate"

	"cicompare/internal/storage"
)

const (
	contentTypeText = "text/plain"
	contentTypeHTML = "text/html"
)

// FileResult is the publication record of one artifact.
type FileResult struct {
	Name      string     `json:"name"`
	Path      string     `json:"path"`
	Key       string     `json:"key,omitempty"`
	ViewerKey string     `json:"viewer_key,omitempty"`
	Bytes     int64      `json:"bytes"`
	Stats     *DiffStats `json:"stats,omitempty"`
	Error     string     `json:"error,omitempty"`
}

func (f FileResult) OK() bool { return f.Error == "" }

// Result is the outcome of one publication attempt.
//
// Success is false if any error was caught along the way. It never affects
// the diff-derived verdict.
type Result struct {
	Backend   string       `json:"backend"`
	Dir       string       `json:"dir"`
	Attempted int          `json:"attempted"`
	Files     []FileResult `json:"files"`
	Empty     []string     `json:"empty,omitempty"`
	IndexKey  string       `json:"index_key,omitempty"`
	URL       string       `json:"url,omitempty"`
	Success   bool         `json:"success"`
	Errors    []string     `json:"errors,omitempty"`
}

// Published returns the files that were uploaded successfully.
func (r Result) Published() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.OK() {
			out = append(out, f)
		}
	}
	return out
}

func (r Result) Summary() string {
	return fmt.Sprintf("%d of %d artifacts published", len(r.Published()), r.Attempted)
}

type Options struct {
	Layout Layout

	// Public makes every uploaded object world-readable.
	Public bool

	// UploadRate limits object uploads per second. 0 means unlimited.
	UploadRate float64

	// OnFile, if set, is called after each artifact is processed.
	OnFile func(FileResult)

	Logger *slog.Logger
}

type Publisher struct {
	store   storage.Store
	opts    Options
	limiter *rate.Limiter
	log     *slog.Logger
}

func New(store storage.Store, opts Options) *Publisher {
	p := &Publisher{store: store, opts: opts, log: opts.Logger}
	if p.log == nil {
		p.log = slog.Default()
	}
	if opts.UploadRate > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(opts.UploadRate), 1)
	}
	return p
}

// Publish uploads every candidate artifact found in dir, then an index page
// if at least one artifact was uploaded. Errors are caught and recorded in
// the result; processing continues with the next artifact.
func (p *Publisher) Publish(ctx context.Context, dir string) Result {
	layout := p.opts.Layout
	res := Result{Backend: p.store.Name(), Dir: layout.Dir(), Success: true}

	candidates, empty, err := FindCandidates(dir)
	if err != nil {
		res.fail(err)
		p.log.Error("failed to list diff artifacts", "dir", dir, "error", err)
		return res
	}
	res.Empty = empty
	for _, path := range empty {
		p.log.Info("file is empty, not sending", "path", path)
	}
	res.Attempted = len(candidates)

	for _, c := range candidates {
		fr := p.publishFile(ctx, c)
		if !fr.OK() {
			res.Success = false
			res.Errors = append(res.Errors, fr.Error)
			p.log.Error("there was a problem processing file", "path", c.Path, "error", fr.Error)
		} else {
			p.log.Debug("published artifact", "key", fr.Key, "bytes", fr.Bytes)
		}
		res.Files = append(res.Files, fr)
		if p.opts.OnFile != nil {
			p.opts.OnFile(fr)
		}
	}

	published := res.Published()
	if len(published) == 0 {
		return res
	}

	if err := p.publishIndex(ctx, published); err != nil {
		res.fail(err)
		p.log.Error("there was a problem generating results webpage", "error", err)
		return res
	}
	res.IndexKey = layout.IndexKey()
	res.URL = p.store.IndexURL(layout.Dir())
	return res
}

func (p *Publisher) publishFile(ctx context.Context, c Candidate) FileResult {
	layout := p.opts.Layout
	fr := FileResult{Name: c.Name, Path: c.Path, Bytes: c.Size}

	body, err := os.ReadFile(c.Path)
	if err != nil {
		fr.Error = fmt.Sprintf("read %s: %v", c.Path, err)
		return fr
	}
	fr.Bytes = int64(len(body))
	if isUnifiedDiff(c.Name) {
		fr.Stats = diffStats(body)
	}

	key := layout.FileKey(c.Name)
	if err := p.put(ctx, key, body, contentTypeText); err != nil {
		fr.Error = err.Error()
		return fr
	}
	fr.Key = key

	page, err := renderViewer(layout, c.Name, body, fr.Stats)
	if err != nil {
		fr.Error = err.Error()
		return fr
	}
	viewerKey := layout.ViewerKey(c.Name)
	if err := p.put(ctx, viewerKey, page, contentTypeHTML); err != nil {
		fr.Error = err.Error()
		return fr
	}
	fr.ViewerKey = viewerKey
	return fr
}

func (p *Publisher) publishIndex(ctx context.Context, files []FileResult) error {
	page, err := renderIndex(p.opts.Layout, files)
	if err != nil {
		return err
	}
	return p.put(ctx, p.opts.Layout.IndexKey(), page, contentTypeHTML)
}

func (p *Publisher) put(ctx context.Context, key string, body []byte, contentType string) error {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}
	}
	return p.store.Put(ctx, key, body, contentType, p.opts.Public)
}

func (r *Result) fail(err error) {
	r.Success = false
	r.Errors = append(r.Errors, err.Error())
}
