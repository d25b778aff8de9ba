// Package diag implements component M (spec.md §2 expansion): CPU/RAM/
// disk sampling merged with the Thumbnail Cache's occupancy into one
// status struct, refreshed on a loop and exposed through the debug
// server. Grounded on the teacher's pkg/system (same cpu/ram/disk
// sampling via gopsutil, same update-loop-under-a-mutex shape), with
// disk usage measured over the given directory against a budget
// instead of a recordings directory, and a separate cache-occupancy
// field carrying the Thumbnail Cache's percentage.
package diag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"flipreview/pkg/log"
)

// Status is a point-in-time snapshot of system and cache health.
type Status struct {
	CPUUsagePercent  int     `json:"cpuUsagePercent"`
	RAMUsagePercent  int     `json:"ramUsagePercent"`
	DiskUsagePercent int     `json:"diskUsagePercent"`
	CacheOccupancy   float64 `json:"cacheOccupancy"`
}

type (
	cpuFunc   func(context.Context, time.Duration, bool) ([]float64, error)
	ramFunc   func() (*mem.VirtualMemoryStat, error)
	cacheFunc func() float64
	budgetFunc func() float64 // current disk budget for dir, in GB; <=0 means unbounded
)

// System samples CPU, RAM and directory usage on an interval and
// merges in the Thumbnail Cache's occupancy.
type System struct {
	cpu    cpuFunc
	ram    ramFunc
	cache  cacheFunc
	budget budgetFunc
	dir    string

	duration time.Duration

	mu     sync.Mutex
	status Status
	log    *log.Logger
	once   sync.Once
}

// New returns a System sampling dir for disk usage (against
// budgetGB's current value) and cachePercentage for the Thumbnail
// Cache's GetPercentage.
func New(dir string, budgetGB budgetFunc, cachePercentage cacheFunc, logger *log.Logger) *System {
	return &System{
		cpu:      cpu.PercentWithContext,
		ram:      mem.VirtualMemory,
		cache:    cachePercentage,
		budget:   budgetGB,
		dir:      dir,
		duration: 10 * time.Second,
		log:      logger,
	}
}

func (s *System) update(ctx context.Context) error {
	cpuUsage, err := s.cpu(ctx, s.duration, false)
	if err != nil {
		return fmt.Errorf("could not get cpu usage: %w", err)
	}
	ramUsage, err := s.ram()
	if err != nil {
		return fmt.Errorf("could not get ram usage: %w", err)
	}
	diskPercent, err := s.diskUsagePercent()
	if err != nil {
		return fmt.Errorf("could not get disk usage: %w", err)
	}

	s.mu.Lock()
	s.status = Status{
		CPUUsagePercent:  int(cpuUsage[0]),
		RAMUsagePercent:  int(ramUsage.UsedPercent),
		DiskUsagePercent: diskPercent,
		CacheOccupancy:   s.cache(),
	}
	s.mu.Unlock()
	return nil
}

const gigabyte = 1000 * 1000 * 1000

func (s *System) diskUsagePercent() (int, error) {
	var used int64
	err := filepath.Walk(s.dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil //nolint:nilerr
		}
		if info != nil && !info.IsDir() {
			used += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	budgetGB := s.budget()
	if budgetGB <= 0 {
		return 0, nil
	}
	return int(float64(used) * 100 / (budgetGB * gigabyte)), nil
}

// StatusLoop updates the sampled status until ctx is canceled. Safe to
// call once; subsequent calls are no-ops, matching the teacher's
// sync.Once-guarded StatusLoop.
func (s *System) StatusLoop(ctx context.Context) {
	s.once.Do(func() {
		for {
			if ctx.Err() != nil {
				return
			}
			if err := s.update(ctx); err != nil {
				s.log.Error().Src("diag").Msgf("could not update system status: %v", err)
			}
		}
	})
}

// Status returns the most recently sampled status.
func (s *System) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}
