package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one named background task with its own overlap guard.
type Job struct {
	Name string
	Spec string

	guard   *Guard
	fn      func(context.Context) error
	lastRun time.Time
	lastErr string
	mu      sync.Mutex
}

// JobStatus is the operator-facing snapshot of one job.
type JobStatus struct {
	Name    string    `json:"name"`
	Spec    string    `json:"spec"`
	Running bool      `json:"running"`
	LastRun time.Time `json:"last_run"`
	LastErr string    `json:"last_error,omitempty"`
}

// Scheduler owns the cron loop and the per-job overlap guards. A tick that
// lands while the previous run of the same job is still going is skipped and
// logged, never stacked.
type Scheduler struct {
	cron *cron.Cron
	jobs map[string]*Job
	mu   sync.RWMutex

	baseCtx context.Context
	cancel  context.CancelFunc
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		jobs:    make(map[string]*Job),
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// Register adds a job under the given six-field cron spec.
func (s *Scheduler) Register(name, spec string, fn func(context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("job %q already registered", name)
	}
	job := &Job{Name: name, Spec: spec, guard: &Guard{}, fn: fn}
	if _, err := s.cron.AddFunc(spec, func() { s.runJob(job) }); err != nil {
		return fmt.Errorf("schedule job %q: %w", name, err)
	}
	s.jobs[name] = job
	return nil
}

func (s *Scheduler) runJob(job *Job) {
	ran := job.guard.TryRun(func() {
		start := time.Now()
		err := job.fn(s.baseCtx)

		job.mu.Lock()
		job.lastRun = start
		if err != nil {
			job.lastErr = err.Error()
		} else {
			job.lastErr = ""
		}
		job.mu.Unlock()

		if err != nil {
			log.Printf("[scheduler] job %s failed after %s: %v", job.Name, time.Since(start).Round(time.Millisecond), err)
			return
		}
		log.Printf("[scheduler] job %s finished in %s", job.Name, time.Since(start).Round(time.Millisecond))
	})
	if !ran {
		log.Printf("[scheduler] job %s still running, tick skipped", job.Name)
	}
}

// Trigger fires a job out of schedule. The run happens on its own goroutine
// and respects the same overlap guard as the cron ticks. Returns false when
// the job is unknown.
func (s *Scheduler) Trigger(name string) bool {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	go s.runJob(job)
	return true
}

// TryRun executes fn under the named job's guard, synchronously. Used for
// operator actions that must not overlap a scheduled run, like a manual
// rescan with an explicit block range. Returns false if the job is busy or
// unknown.
func (s *Scheduler) TryRun(name string, fn func(context.Context) error) (bool, error) {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("unknown job %q", name)
	}
	var runErr error
	ran := job.guard.TryRun(func() { runErr = fn(s.baseCtx) })
	return ran, runErr
}

// Status reports all registered jobs, sorted by nothing in particular.
func (s *Scheduler) Status() []JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]JobStatus, 0, len(s.jobs))
	for _, job := range s.jobs {
		job.mu.Lock()
		out = append(out, JobStatus{
			Name:    job.Name,
			Spec:    job.Spec,
			Running: job.guard.Busy(),
			LastRun: job.lastRun,
			LastErr: job.lastErr,
		})
		job.mu.Unlock()
	}
	return out
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("[scheduler] started with %d jobs", len(s.jobs))
}

// Stop cancels in-flight runs and waits for the cron loop to drain.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	log.Println("[scheduler] stopped")
}
