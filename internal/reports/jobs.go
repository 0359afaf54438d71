package reports

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"waste-console/internal/apperr"
	"waste-console/internal/export"
	"waste-console/internal/filter"
	"waste-console/internal/models"
)

type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobDone      JobStatus = "done"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

const (
	DefaultJobTimeout   = 5 * time.Minute
	DefaultJobRetention = 15 * time.Minute
)

type job struct {
	id         string
	ownerID    string
	reportType models.ReportType
	format     export.Format
	status     JobStatus
	err        error
	createdAt  time.Time
	finishedAt time.Time
	file       *export.File
	cancel     context.CancelFunc
}

// JobView is what the UI polls.
type JobView struct {
	ID         string            `json:"id"`
	ReportType models.ReportType `json:"report_type"`
	Format     export.Format     `json:"format"`
	Status     JobStatus         `json:"status"`
	Error      string            `json:"error,omitempty"`
	Filename   string            `json:"filename,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
}

func (j *job) view() JobView {
	v := JobView{
		ID:         j.id,
		ReportType: j.reportType,
		Format:     j.format,
		Status:     j.status,
		CreatedAt:  j.createdAt,
	}
	if j.err != nil {
		v.Error = j.err.Error()
	}
	if j.file != nil {
		v.Filename = j.file.Filename
	}
	if !j.finishedAt.IsZero() {
		t := j.finishedAt
		v.FinishedAt = &t
	}
	return v
}

type JobsOptions struct {
	Timeout   time.Duration
	Retention time.Duration
	// Running tracks the number of running jobs, optional.
	Running prometheus.Gauge
	Logger  *zap.Logger
}

// Jobs runs exports in the background so the UI can keep working and cancel them.
// Jobs are visible only to the user who started them.
type Jobs struct {
	svc       *Service
	timeout   time.Duration
	retention time.Duration
	running   prometheus.Gauge
	log       *zap.Logger
	now       func() time.Time

	mu   sync.Mutex
	jobs map[string]*job
	wg   sync.WaitGroup
}

func NewJobs(svc *Service, opts JobsOptions) *Jobs {
	j := &Jobs{
		svc:       svc,
		timeout:   opts.Timeout,
		retention: opts.Retention,
		running:   opts.Running,
		log:       opts.Logger,
		now:       time.Now,
		jobs:      make(map[string]*job),
	}
	if j.timeout <= 0 {
		j.timeout = DefaultJobTimeout
	}
	if j.retention <= 0 {
		j.retention = DefaultJobRetention
	}
	if j.log == nil {
		j.log = zap.NewNop()
	}
	j.log = j.log.Named("export-jobs")
	return j
}

// Start launches an export for actor and returns immediately.
func (j *Jobs) Start(actor models.User, token string, rt models.ReportType, in filter.Input, format export.Format) (JobView, error) {
	if err := AuthorizeReport(actor, rt); err != nil {
		return JobView{}, err
	}
	if _, err := export.SchemaFor(rt); err != nil {
		return JobView{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	jb := &job{
		id:         uuid.NewString(),
		ownerID:    actor.ID,
		reportType: rt,
		format:     format,
		status:     JobRunning,
		createdAt:  j.now(),
		cancel:     cancel,
	}

	j.mu.Lock()
	j.sweepLocked()
	j.jobs[jb.id] = jb
	view := jb.view()
	j.mu.Unlock()

	if j.running != nil {
		j.running.Inc()
	}
	j.wg.Add(1)
	go j.run(ctx, jb, actor, token, in)

	j.log.Info("export job started",
		zap.String("job_id", jb.id),
		zap.String("user_id", actor.ID),
		zap.String("report_type", string(rt)),
		zap.String("format", string(format)))
	return view, nil
}

func (j *Jobs) run(ctx context.Context, jb *job, actor models.User, token string, in filter.Input) {
	defer j.wg.Done()
	defer jb.cancel()
	if j.running != nil {
		defer j.running.Dec()
	}

	file, err := j.svc.Export(ctx, actor, token, jb.reportType, in, jb.format)

	j.mu.Lock()
	defer j.mu.Unlock()
	jb.finishedAt = j.now()
	switch {
	case err == nil:
		jb.status, jb.file = JobDone, file
	case errors.Is(err, context.Canceled):
		jb.status, jb.err = JobCancelled, err
	default:
		jb.status, jb.err = JobFailed, err
	}
	j.log.Info("export job finished",
		zap.String("job_id", jb.id),
		zap.String("status", string(jb.status)),
		zap.Error(err))
}

// lookupLocked returns the job when ownerID may see it. Unknown and foreign jobs
// look the same to the caller.
func (j *Jobs) lookupLocked(ownerID, id string) (*job, error) {
	jb, ok := j.jobs[id]
	if !ok || jb.ownerID != ownerID {
		return nil, apperr.NotFound("export job %s not found", id)
	}
	return jb, nil
}

// Get returns the job state and, once done, the file.
func (j *Jobs) Get(ownerID, id string) (JobView, *export.File, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	jb, err := j.lookupLocked(ownerID, id)
	if err != nil {
		return JobView{}, nil, err
	}
	return jb.view(), jb.file, nil
}

// List returns the caller's jobs, newest first.
func (j *Jobs) List(ownerID string) []JobView {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.sweepLocked()
	out := make([]JobView, 0)
	for _, jb := range j.jobs {
		if jb.ownerID == ownerID {
			out = append(out, jb.view())
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out
}

// Cancel stops a running job. Cancelling a finished job is a no-op.
func (j *Jobs) Cancel(ownerID, id string) (JobView, error) {
	j.mu.Lock()
	jb, err := j.lookupLocked(ownerID, id)
	if err != nil {
		j.mu.Unlock()
		return JobView{}, err
	}
	running := jb.status == JobRunning
	j.mu.Unlock()

	if running {
		jb.cancel()
		j.log.Info("export job cancelled", zap.String("job_id", id), zap.String("user_id", ownerID))
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	return jb.view(), nil
}

// Shutdown cancels every running job and waits for them to return.
func (j *Jobs) Shutdown() {
	j.mu.Lock()
	for _, jb := range j.jobs {
		if jb.status == JobRunning {
			jb.cancel()
		}
	}
	j.mu.Unlock()
	j.wg.Wait()
}

func (j *Jobs) sweepLocked() {
	cutoff := j.now().Add(-j.retention)
	for id, jb := range j.jobs {
		if jb.status != JobRunning && jb.finishedAt.Before(cutoff) {
			delete(j.jobs, id)
		}
	}
}
