package experiment

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a branch execution.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Branch records one configuration's execution: status, output or error,
// and timing. A branch is finalized exactly once; finalizing twice is a
// bookkeeping bug in the runner and panics.
type Branch struct {
	Config    *Config
	Status    Status
	Output    any
	Err       error
	StartedAt time.Time
	EndedAt   time.Time
}

// StartBranch creates a pending branch for cfg with the start timestamp set.
func StartBranch(cfg *Config) *Branch {
	return &Branch{
		Config:    cfg,
		Status:    StatusPending,
		StartedAt: time.Now(),
	}
}

// Succeed finalizes the branch with its output.
func (b *Branch) Succeed(output any) {
	b.finalize(StatusSuccess)
	b.Output = output
}

// Fail finalizes the branch with the error that stopped it.
func (b *Branch) Fail(err error) {
	b.finalize(StatusFailed)
	b.Err = err
}

func (b *Branch) finalize(status Status) {
	if b.Status != StatusPending {
		panic(fmt.Sprintf("experiment: branch %s already finalized as %s", b.Config.ID(), b.Status))
	}
	b.Status = status
	b.EndedAt = time.Now()
}

// Duration is the elapsed execution time, zero while the branch is pending.
func (b *Branch) Duration() time.Duration {
	if b.EndedAt.IsZero() {
		return 0
	}
	return b.EndedAt.Sub(b.StartedAt)
}

// AggregateResult pairs the primary branch with any awaited variants.
// Variants stays empty unless the caller asked to wait for them.
type AggregateResult struct {
	Primary  *Branch
	Variants []*Branch
}

// Successful filters the awaited variants down to the ones that completed.
func (r *AggregateResult) Successful() []*Branch {
	return filterBranches(r.Variants, StatusSuccess)
}

// Failed filters the awaited variants down to the ones that errored.
func (r *AggregateResult) Failed() []*Branch {
	return filterBranches(r.Variants, StatusFailed)
}

func filterBranches(branches []*Branch, status Status) []*Branch {
	var out []*Branch
	for _, b := range branches {
		if b != nil && b.Status == status {
			out = append(out, b)
		}
	}
	return out
}
