// Command jobsysdemo exercises the scheduler the way a game engine's frame
// loop would: a render-prep job, a swarm of dependent sub-tasks, and a
// fan-in job that waits on all of them, with a deliberately undersized
// per-worker queue so the overflow path gets real traffic.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/go-foundations/jobsys"
	"github.com/rs/zerolog"
)

func main() {
	logger := jobsys.NewZerologLogger(os.Stdout, zerolog.InfoLevel)

	sched := jobsys.NewScheduler(jobsys.Config{
		WorkerCount:            4,
		PerWorkerQueueCapacity: 8,
		Logger:                 logger,
	})
	sched.Init()
	defer sched.Shutdown()

	fmt.Println("=== jobsys fan-out/fan-in demo ===")

	prep := sched.Submit(jobsys.WorkFunc{
		JobName:     "scene_prep",
		JobCategory: jobsys.CategoryRender,
		Fn: func() error {
			time.Sleep(time.Millisecond)
			return nil
		},
	}, jobsys.Critical)

	const workers = 64
	subtasks := make([]jobsys.Handle, workers)
	for i := range subtasks {
		i := i
		subtasks[i] = sched.Submit(jobsys.WorkFunc{
			JobName:     fmt.Sprintf("cull_chunk_%d", i),
			JobCategory: jobsys.CategoryRender,
			Fn: func() error {
				time.Sleep(time.Duration(rand.Intn(500)) * time.Microsecond)
				return nil
			},
		}, jobsys.Normal, prep)
	}

	fanIn := sched.Submit(jobsys.WorkFunc{
		JobName:     "draw_submit",
		JobCategory: jobsys.CategoryRender,
		Fn: func() error {
			return nil
		},
	}, jobsys.High, subtasks...)

	sched.WaitForJob(fanIn)

	stats := sched.PerformanceStats()
	fmt.Printf("jobs completed: %d, failed: %d, overflow placements: %d, avg micros: %.1f\n",
		stats.JobsCompleted, stats.JobsFailed, stats.OverflowPlacements, stats.AverageJobMicros)

	for _, ws := range sched.PerWorkerStats() {
		fmt.Printf("worker %d: executed=%d steal_attempts=%d steal_successes=%d\n",
			ws.WorkerID, ws.JobsExecuted, ws.StealAttempts, ws.StealSuccesses)
	}
}
