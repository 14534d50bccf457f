package storyvideo

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Runner executes pipeline runs off the caller's goroutine, at most
// workflow.max_concurrent_runs at a time.
type Runner struct {
	pipeline *Pipeline
	slots    *semaphore.Weighted
	wg       sync.WaitGroup
}

// NewRunner wraps pipeline. maxConcurrent <= 0 means one run at a time.
func NewRunner(pipeline *Pipeline, maxConcurrent int) *Runner {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Runner{pipeline: pipeline, slots: semaphore.NewWeighted(int64(maxConcurrent))}
}

// Job is a submitted run.
type Job struct {
	done   chan struct{}
	result *Result
	err    error
}

// Submit starts req in the background. The run waits for a free slot; if
// ctx ends first the job fails with the context error.
func (r *Runner) Submit(ctx context.Context, req Request) *Job {
	job := &Job{done: make(chan struct{})}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(job.done)
		if err := r.slots.Acquire(ctx, 1); err != nil {
			job.err = err
			return
		}
		defer r.slots.Release(1)
		job.result, job.err = r.pipeline.Run(ctx, req)
	}()
	return job
}

// Wait blocks until every submitted job has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Done is closed when the job finishes.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes and returns its outcome.
func (j *Job) Wait() (*Result, error) {
	<-j.done
	return j.result, j.err
}
