// Package thumbnail implements the Thumbnail Service Facade and its
// three worker goroutines (spec.md §4.D, §4.E): one FIFO queue each
// for info, thumbnail, and waveform requests, backed by a shared
// process-wide cache and a per-worker reader cache.
package thumbnail

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"flipreview/pkg/cache"
	"flipreview/pkg/ioinfo"
	"flipreview/pkg/ioreadcache"
	"flipreview/pkg/log"
	"flipreview/pkg/media"
	"flipreview/pkg/rationaltime"
	"flipreview/pkg/requestqueue"
)

type infoRequest struct {
	path ioinfo.Path
	opts ioinfo.Options
}

type thumbnailRequest struct {
	height int
	path   ioinfo.Path
	time   rationaltime.Time
	opts   ioinfo.Options
}

type waveformRequest struct {
	width, height int
	path          ioinfo.Path
	timeRange     rationaltime.Range
	opts          ioinfo.Options
}

// Service is the public entry point: getInfo/getThumbnail/getWaveform
// plus cancellation and cache access (spec.md §4.E).
type Service struct {
	cache   *cache.Cache
	plugins *media.Registry
	log     *log.Logger

	renderer ThumbnailRenderer

	infoQueue     *requestqueue.Queue
	thumbQueue    *requestqueue.Queue
	waveformQueue *requestqueue.Queue

	infoReaders     *ioreadcache.Cache
	thumbReaders    *ioreadcache.Cache
	waveformReaders *ioreadcache.Cache

	// probeGroup dedupes concurrent ffprobe invocations for the same
	// path across the three worker goroutines, which (unlike requests
	// within a single queue) genuinely run concurrently with each
	// other.
	probeGroup singleflight.Group

	nextID uint64
}

// New returns a Service ready to Start. plugins resolves media
// extensions to decode/probe backends; logger receives worker errors.
func New(c *cache.Cache, plugins *media.Registry, logger *log.Logger, renderer ThumbnailRenderer) *Service {
	if renderer == nil {
		renderer = NewCPURenderer()
	}
	return &Service{
		cache:           c,
		plugins:         plugins,
		log:             logger,
		renderer:        renderer,
		infoQueue:       requestqueue.New(),
		thumbQueue:      requestqueue.New(),
		waveformQueue:   requestqueue.New(),
		infoReaders:     ioreadcache.New(ioreadcache.DefaultSize),
		thumbReaders:    ioreadcache.New(ioreadcache.DefaultSize),
		waveformReaders: ioreadcache.New(ioreadcache.DefaultSize),
	}
}

// Start launches the three worker goroutines. ctx cancellation stops
// probing/decoding in progress; Stop should still be called to close
// the queues.
func (s *Service) Start(ctx context.Context) {
	go s.runInfoWorker(ctx)
	go s.runThumbnailWorker(ctx)
	go s.runWaveformWorker(ctx)
}

// Stop closes all three queues, unblocking their worker goroutines.
func (s *Service) Stop() {
	s.infoQueue.Close()
	s.thumbQueue.Close()
	s.waveformQueue.Close()
	s.infoReaders.Close()
	s.thumbReaders.Close()
	s.waveformReaders.Close()
}

// Cache exposes the shared cache so callers can tune its max size
// (spec.md §4.E: "cache(): exposes the shared cache...").
func (s *Service) Cache() *cache.Cache { return s.cache }

func (s *Service) newID() string {
	return fmt.Sprintf("req-%d", atomic.AddUint64(&s.nextID, 1))
}

// GetInfo requests a probe of path, resolving from cache when
// possible.
func (s *Service) GetInfo(path ioinfo.Path, opts ioinfo.Options) (id string, future *requestqueue.Future) {
	fp := ioinfo.InfoFingerprint(path, opts)
	if entry, ok := s.cache.Get(cache.PartitionInfo, fp); ok {
		f := requestqueue.NewFuture()
		f.Resolve(entry.Info)
		return s.newID(), f
	}
	id = s.newID()
	future = s.infoQueue.Push(id, infoRequest{path: path, opts: opts})
	return id, future
}

// GetThumbnail requests a rendered RGBA8 thumbnail at height for the
// frame nearest t.
func (s *Service) GetThumbnail(height int, path ioinfo.Path, t rationaltime.Time, opts ioinfo.Options) (id string, future *requestqueue.Future) {
	fp := ioinfo.ThumbnailFingerprint(height, path, fmt.Sprintf("%v", t), opts)
	if entry, ok := s.cache.Get(cache.PartitionThumbnail, fp); ok {
		f := requestqueue.NewFuture()
		f.Resolve(entry.Raster)
		return s.newID(), f
	}
	id = s.newID()
	future = s.thumbQueue.Push(id, thumbnailRequest{height: height, path: path, time: t, opts: opts})
	return id, future
}

// GetWaveform requests a waveform mesh of the given pixel size over
// timeRange.
func (s *Service) GetWaveform(width, height int, path ioinfo.Path, timeRange rationaltime.Range, opts ioinfo.Options) (id string, future *requestqueue.Future) {
	fp := ioinfo.WaveformFingerprint(fmt.Sprintf("%dx%d", width, height), path, fmt.Sprintf("%v", timeRange), opts)
	if entry, ok := s.cache.Get(cache.PartitionWaveform, fp); ok {
		f := requestqueue.NewFuture()
		f.Resolve(entry.Waveform)
		return s.newID(), f
	}
	id = s.newID()
	future = s.waveformQueue.Push(id, waveformRequest{width: width, height: height, path: path, timeRange: timeRange, opts: opts})
	return id, future
}

// CancelRequests cancels ids across all three queues (spec.md §4.E:
// "atomically with respect to each queue's own lock").
func (s *Service) CancelRequests(ids []string) {
	s.infoQueue.Cancel(ids)
	s.thumbQueue.Cancel(ids)
	s.waveformQueue.Cancel(ids)
}

func (s *Service) probe(ctx context.Context, plugin media.Plugin, path ioinfo.Path) (ioinfo.IOInfo, error) {
	v, err, _ := s.probeGroup.Do(path.String(), func() (any, error) {
		return plugin.Probe(ctx, path)
	})
	if err != nil {
		return ioinfo.Empty(), err
	}
	return v.(ioinfo.IOInfo), nil
}

func (s *Service) pluginFor(path ioinfo.Path) (media.Plugin, error) {
	ext := path.Extension
	for len(ext) > 0 && ext[0] == '.' {
		ext = ext[1:]
	}
	plugin, ok := s.plugins.Lookup(ext)
	if !ok {
		return nil, fmt.Errorf("no media plugin registered for extension %q", ext)
	}
	return plugin, nil
}
