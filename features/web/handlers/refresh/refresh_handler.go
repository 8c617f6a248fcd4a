package refresh

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"entrylist/features/refresh"
	"entrylist/features/site"
	"entrylist/features/sites"
	"entrylist/features/web/handlers/response"

	"github.com/labstack/echo/v4"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// JobStatus holds the status of one list download.
type JobStatus struct {
	ID        string           `json:"id"`
	Site      string           `json:"site"`
	User      string           `json:"user,omitempty"`
	Status    string           `json:"status"`
	StartTime time.Time        `json:"start_time"`
	EndTime   time.Time        `json:"end_time,omitempty"`
	Summary   string           `json:"summary,omitempty"`
	Results   []refresh.Result `json:"results,omitempty"`
	Error     string           `json:"error,omitempty"`
}

type RefreshInput struct {
	Site    string `param:"site" validate:"required"`
	User    string `json:"user"`
	Payload string `json:"payload"`
}

type runFunc func(ctx context.Context, siteName string, u site.User) (*refresh.Report, error)

type RefreshHandler struct {
	Registry *sites.Registry
	Env      *sites.Env

	run     runFunc
	timeout time.Duration

	jobs    sync.Map
	mu      sync.Mutex
	running map[string]string // site -> job id
	wg      sync.WaitGroup
}

func NewRefreshHandler(reg *sites.Registry, env *sites.Env) *RefreshHandler {
	h := &RefreshHandler{
		Registry: reg,
		Env:      env,
		running:  make(map[string]string),
		timeout:  10 * time.Minute,
	}
	h.run = func(ctx context.Context, siteName string, u site.User) (*refresh.Report, error) {
		return reg.RefreshLists(ctx, env, siteName, u)
	}
	return h
}

// Start launches a download of the lists of a site in the background. At most
// one download per site runs at a time.
func (h *RefreshHandler) Start(c echo.Context) error {
	in := &RefreshInput{}
	if err := c.Bind(in); err != nil {
		return response.BadRequest(c, "Invalid request body: "+err.Error())
	}
	if err := c.Validate(in); err != nil {
		return response.BadRequest(c, err.Error())
	}

	def, ok := h.Registry.Get(in.Site)
	if !ok {
		return response.NotFound(c, "Site not found", in.Site)
	}
	if !h.Registry.IsRefreshable(h.Env, def.Name) {
		return response.FromError(c, "Site lists cannot be downloaded", sites.ErrNotRefreshable)
	}

	h.mu.Lock()
	if id, busy := h.running[def.Name]; busy {
		h.mu.Unlock()
		return response.ErrorWithDetails(c, http.StatusConflict, "Refresh already running", map[string]string{"id": id, "site": def.Name})
	}
	status := &JobStatus{
		ID:        xid.New().String(),
		Site:      def.Name,
		User:      in.User,
		Status:    StatusRunning,
		StartTime: time.Now(),
	}
	h.running[def.Name] = status.ID
	h.jobs.Store(status.ID, status)
	h.mu.Unlock()

	h.wg.Add(1)
	go h.execute(status, site.User{Name: in.User, Payload: in.Payload})

	return response.Accepted(c, map[string]any{
		"id":      status.ID,
		"message": "Refresh started. Use the id to check its status.",
	})
}

func (h *RefreshHandler) execute(status *JobStatus, u site.User) {
	defer h.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	rep, err := h.run(ctx, status.Site, u)

	h.mu.Lock()
	defer h.mu.Unlock()

	status.EndTime = time.Now()
	if rep != nil {
		status.User = rep.User
		status.Summary = rep.Summary
		status.Results = rep.Results
	}
	if err != nil {
		status.Status = StatusFailed
		status.Error = err.Error()
		log.Error().Err(err).Str("site", status.Site).Str("id", status.ID).Msg("Refresh failed")
	} else {
		status.Status = StatusCompleted
		log.Info().Str("site", status.Site).Str("id", status.ID).Str("summary", status.Summary).Msg("Refresh completed")
	}
	delete(h.running, status.Site)
}

func (h *RefreshHandler) snapshot(st *JobStatus) JobStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return *st
}

func (h *RefreshHandler) Status(c echo.Context) error {
	id := c.Param("id")
	v, ok := h.jobs.Load(id)
	if !ok {
		return response.NotFound(c, "Refresh not found", id)
	}
	return response.Success(c, h.snapshot(v.(*JobStatus)))
}

// Index lists every known job, newest first.
func (h *RefreshHandler) Index(c echo.Context) error {
	var out []JobStatus
	h.jobs.Range(func(_, v any) bool {
		out = append(out, h.snapshot(v.(*JobStatus)))
		return true
	})
	// xids sort by creation time
	sort.Slice(out, func(i, j int) bool { return strings.Compare(out[i].ID, out[j].ID) > 0 })
	return response.Success(c, out)
}

// Wait blocks until every started job is done.
func (h *RefreshHandler) Wait() {
	h.wg.Wait()
}
