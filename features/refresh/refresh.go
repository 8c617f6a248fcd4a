// Package refresh replaces the stored lists of a site with freshly downloaded
// ones. Downloads run concurrently; each one yields a Result and the run is
// summarised once all are done.
package refresh

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"entrylist/features/lists"
	"entrylist/features/progress"
	"entrylist/internal/collector"
	"entrylist/internal/config"
	"entrylist/internal/tracing"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	MsgComplete   = "Loading complete!"
	MsgWithErrors = "Done, but with errors:"
)

// Download produces one named list.
type Download struct {
	Name string
	Load func(ctx context.Context) (lists.List, error)
}

// Source lists the downloads of one refresh. A failure here fails the whole
// run and leaves the stored lists untouched.
type Source interface {
	Downloads(ctx context.Context, runID string) ([]Download, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, runID string) ([]Download, error)

func (f SourceFunc) Downloads(ctx context.Context, runID string) ([]Download, error) {
	return f(ctx, runID)
}

type Result struct {
	List  string `json:"list"`
	Count int    `json:"count"`
	Err   error  `json:"-"`
}

func (r Result) OK() bool {
	return r.Err == nil
}

type Report struct {
	RunID    string        `json:"run_id"`
	Site     string        `json:"site"`
	User     string        `json:"user"`
	Results  []Result      `json:"results"`
	Duration time.Duration `json:"duration"`
	Summary  string        `json:"summary"`
	Err      error         `json:"-"`
}

type Refresher struct {
	store   *lists.Store
	pool    pond.Pool
	metrics *collector.MetricsCollector
	tracer  trace.Tracer
	out     io.Writer
	trace   config.TelemetryConfig
}

type Option func(*Refresher)

func WithMetrics(mc *collector.MetricsCollector) Option {
	return func(r *Refresher) {
		r.metrics = mc
	}
}

// WithProgressWriter prints download progress on w.
func WithProgressWriter(w io.Writer) Option {
	return func(r *Refresher) {
		r.out = w
	}
}

func WithExecTrace(cfg config.TelemetryConfig) Option {
	return func(r *Refresher) {
		r.trace = cfg
	}
}

func New(store *lists.Store, concurrency int, opts ...Option) *Refresher {
	r := &Refresher{
		store:  store,
		pool:   pond.NewPool(max(concurrency, 1)),
		tracer: otel.Tracer("entrylist/refresh"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close waits for running downloads and releases the workers.
func (r *Refresher) Close() {
	r.pool.StopAndWait()
}

// Run discovers the downloads of src, clears the stored lists of o and
// replaces them with what was downloaded.
func (r *Refresher) Run(ctx context.Context, o lists.Owner, src Source) *Report {
	rep := &Report{RunID: uuid.NewString(), Site: o.Site, User: o.User}
	start := time.Now()

	ctx, span := r.tracer.Start(ctx, "refresh.run", trace.WithAttributes(
		attribute.String("site", o.Site),
		attribute.String("run_id", rep.RunID),
	))
	defer span.End()
	defer tracing.StartExecTrace(r.trace, o.Site, rep.RunID)()

	r.metrics.SetRefreshRunning(o.Site)
	log.Info().Str("site", o.Site).Str("user", o.User).Str("run_id", rep.RunID).Msg("List refresh started")

	downloads, err := src.Downloads(ctx, rep.RunID)
	if err != nil {
		rep.Err = err
		rep.Summary = err.Error()
		rep.Duration = time.Since(start)
		span.RecordError(err)
		span.SetStatus(codes.Error, "cannot list downloads")
		r.metrics.SetRefreshFailed(o.Site, rep.Duration)
		log.Error().Err(err).Str("site", o.Site).Msg("Cannot determine lists to download")
		return rep
	}

	if err := r.store.DeleteAll(ctx, o); err != nil {
		log.Warn().Err(err).Str("site", o.Site).Msg("Could not clear stored lists")
	}

	rep.Results = r.download(ctx, o, downloads)
	rep.Summary, rep.Err = Summarize(o.Site, rep.Results)
	rep.Duration = time.Since(start)

	if rep.Err != nil || rep.Failed() > 0 {
		span.SetStatus(codes.Error, rep.Summary)
		r.metrics.SetRefreshFailed(o.Site, rep.Duration)
	} else {
		r.metrics.SetRefreshSuccess(o.Site, rep.Duration)
	}

	log.Info().
		Str("site", o.Site).
		Str("run_id", rep.RunID).
		Int("lists", len(rep.Results)).
		Int("failed", rep.Failed()).
		Dur("duration", rep.Duration).
		Msg("List refresh finished")

	return rep
}

func (r *Refresher) download(ctx context.Context, o lists.Owner, downloads []Download) []Result {
	pb := progress.New(len(downloads), "Loading {#}/{$} lists...", progress.WithName(o.Site), progress.WithWriter(r.out))
	defer pb.Close()

	results := make([]Result, len(downloads))
	group := r.pool.NewGroup()
	for i, d := range downloads {
		group.Submit(func() {
			results[i] = r.downloadOne(ctx, o, d)
			pb.Advance(1, "")
		})
	}
	if err := group.Wait(); err != nil {
		log.Error().Err(err).Str("site", o.Site).Msg("Download group failed")
	}

	return results
}

func (r *Refresher) downloadOne(ctx context.Context, o lists.Owner, d Download) Result {
	ctx, span := r.tracer.Start(ctx, "refresh.download", trace.WithAttributes(
		attribute.String("site", o.Site),
		attribute.String("list", d.Name),
	))
	defer span.End()

	res := Result{List: d.Name}
	l, err := d.Load(ctx)
	if err == nil {
		err = r.store.Save(ctx, o, d.Name, l)
	}

	if err != nil {
		res.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.metrics.IncrementDownloadErrors(o.Site)
		log.Warn().Err(err).Str("site", o.Site).Str("list", d.Name).Msg("List download failed")
		return res
	}

	res.Count = len(l)
	r.metrics.IncrementListSaved(o.Site, res.Count)
	log.Debug().Str("site", o.Site).Str("list", d.Name).Int("entries", res.Count).Msg("List saved")
	return res
}

func (rep *Report) Failed() int {
	n := 0
	for _, res := range rep.Results {
		if !res.OK() {
			n++
		}
	}
	return n
}

// Summarize turns the results of a run into the message shown to the user.
// Only a run where every download failed is an error.
func Summarize(site string, results []Result) (string, error) {
	var b strings.Builder
	failed := 0
	for _, res := range results {
		if res.OK() {
			continue
		}
		failed++
		fmt.Fprintf(&b, "\n * list '%s' - %s", res.List, res.Err)
	}

	switch {
	case failed == 0:
		return MsgComplete, nil
	case failed < len(results):
		return MsgWithErrors + b.String(), nil
	default:
		err := &SummaryError{Site: site, Details: b.String()}
		return err.Error(), err
	}
}

// CSVDownload builds a Download fetching a CSV export with get and parsing it
// as kind.
func CSVDownload(name, kind string, get func(ctx context.Context) ([]byte, error)) Download {
	return Download{
		Name: name,
		Load: func(ctx context.Context) (lists.List, error) {
			body, err := get(ctx)
			if err != nil {
				return nil, err
			}
			return ParseList(string(body), kind, name)
		},
	}
}
