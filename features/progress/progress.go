// Package progress reports the advance of long operations such as list
// downloads. Messages may hold placeholders: {#} is the current value, {$} the
// finish value and {%} the completion percentage.
package progress

import (
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
)

const DefaultMessage = "Loading {#}/{$}..."

// Generic puts a reporter in generic mode, where no numbers are shown.
const Generic = -1

var genericStrip = []*regexp.Regexp{
	regexp.MustCompile(` *{#}.*{\$} *`),
	regexp.MustCompile(` *{#} *`),
	regexp.MustCompile(` *{\$} *`),
	regexp.MustCompile(` *{%} *%? *`),
}

type Reporter struct {
	mu      sync.Mutex
	name    string
	finish  int
	current int
	message string
	text    string
	out     io.Writer
	closed  bool
}

type Option func(*Reporter)

func WithStart(v int) Option {
	return func(r *Reporter) {
		r.current = v
	}
}

// WithWriter also prints each update as a coloured line on w.
func WithWriter(w io.Writer) Option {
	return func(r *Reporter) {
		r.out = w
	}
}

// WithName tags the log lines of the reporter.
func WithName(name string) Option {
	return func(r *Reporter) {
		r.name = name
	}
}

// New creates a reporter going up to finish. An empty msg uses DefaultMessage.
func New(finish int, msg string, opts ...Option) *Reporter {
	if msg == "" {
		msg = DefaultMessage
	}
	r := &Reporter{finish: finish, message: msg}
	for _, opt := range opts {
		opt(r)
	}
	r.Update(r.current, "")
	return r
}

// Update sets the progress to value, clamped to the finish value, and
// optionally changes the message. It returns the rendered text.
func (r *Reporter) Update(value int, msg string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set(value, msg)
}

// Advance moves the progress by n.
func (r *Reporter) Advance(n int, msg string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set(r.current+n, msg)
}

// SetFinish changes the finish value and re-renders.
func (r *Reporter) SetFinish(finish int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finish = finish
	return r.set(r.current, "")
}

func (r *Reporter) set(value int, msg string) string {
	if msg != "" {
		r.message = msg
	}
	r.current = min(value, r.finish)
	r.text = r.render()
	r.emit()
	return r.text
}

func (r *Reporter) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.text
}

func (r *Reporter) Current() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Percent is 0 in generic mode.
func (r *Reporter) Percent() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.percent()
}

func (r *Reporter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	if r.out != nil {
		fmt.Fprintln(r.out)
	}
}

func (r *Reporter) percent() int {
	if r.current < 0 || r.finish <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(r.current) / float64(r.finish)))
}

func (r *Reporter) render() string {
	if r.current < 0 {
		text := r.message
		for _, re := range genericStrip {
			text = re.ReplaceAllString(text, "")
		}
		return text
	}

	return strings.NewReplacer(
		"{#}", strconv.Itoa(r.current),
		"{$}", strconv.Itoa(r.finish),
		"{%}", strconv.Itoa(r.percent()),
	).Replace(r.message)
}

func (r *Reporter) emit() {
	if r.closed {
		return
	}
	log.Debug().Str("progress", r.name).Int("current", r.current).Int("finish", r.finish).Msg(r.text)
	if r.out != nil {
		fmt.Fprintf(r.out, "\r%s", color.CyanString(r.text))
	}
}
