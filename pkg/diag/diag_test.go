package diag

import (
	"context"
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/stretchr/testify/require"

	"flipreview/pkg/log"
)

func TestDiskUsagePercent(t *testing.T) {
	dir, err := ioutil.TempDir("", "")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	require.NoError(t, ioutil.WriteFile(dir+"/a", make([]byte, gigabyte), 0o600))

	s := New(dir, func() float64 { return 10 }, func() float64 { return 0 }, log.NewMockLogger())
	percent, err := s.diskUsagePercent()
	require.NoError(t, err)
	require.Equal(t, 10, percent)
}

func TestDiskUsagePercentUnbounded(t *testing.T) {
	dir, err := ioutil.TempDir("", "")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	s := New(dir, func() float64 { return 0 }, func() float64 { return 0 }, log.NewMockLogger())
	percent, err := s.diskUsagePercent()
	require.NoError(t, err)
	require.Equal(t, 0, percent)
}

func TestUpdateMergesCacheOccupancy(t *testing.T) {
	dir, err := ioutil.TempDir("", "")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	s := New(dir, func() float64 { return 0 }, func() float64 { return 0.5 }, log.NewMockLogger())
	s.cpu = func(context.Context, time.Duration, bool) ([]float64, error) { return []float64{12}, nil }
	s.ram = func() (*mem.VirtualMemoryStat, error) { return &mem.VirtualMemoryStat{UsedPercent: 34}, nil }

	require.NoError(t, s.update(context.Background()))

	got := s.Status()
	require.Equal(t, 12, got.CPUUsagePercent)
	require.Equal(t, 34, got.RAMUsagePercent)
	require.Equal(t, 0.5, got.CacheOccupancy)
}
