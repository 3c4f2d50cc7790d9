// Copyright 2025 The Golette Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package golette

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"
)

// Task is one unit of deferred work with a stable identity for log
// correlation.
type Task struct {
	// ID is assigned at Add time and never reused.
	ID uuid.UUID
	// Name labels the task in logs.
	Name string
	// Fn is the work itself. It receives a context detached from the
	// originating request's cancellation.
	Fn func(ctx context.Context) error
}

// Collector accumulates background tasks during a dispatch and runs them,
// in the order added, after the response has been handed to the transport.
//
// A Collector is used by a single dispatch goroutine; it needs no locking.
// Run executes tasks sequentially and isolates failures: an error or panic
// in one task is logged and the next task still runs.
type Collector struct {
	tasks []Task
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends a task and returns its assigned ID.
func (c *Collector) Add(name string, fn func(ctx context.Context) error) uuid.UUID {
	id := uuid.New()
	c.tasks = append(c.tasks, Task{ID: id, Name: name, Fn: fn})
	return id
}

// Len returns the number of pending tasks.
func (c *Collector) Len() int { return len(c.tasks) }

// Run executes all tasks in order. Each failure is logged against the
// task's ID and name; Run itself never fails, because by the time it runs
// the response is already gone and there is no one left to report to.
func (c *Collector) Run(ctx context.Context, logger *slog.Logger) {
	for _, t := range c.tasks {
		if err := c.runOne(ctx, t); err != nil {
			logger.ErrorContext(ctx, "background task failed",
				slog.String("task_id", t.ID.String()),
				slog.String("task", t.Name),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (c *Collector) runOne(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return t.Fn(ctx)
}
