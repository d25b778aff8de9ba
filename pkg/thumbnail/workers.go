package thumbnail

import (
	"context"
	"fmt"

	"flipreview/pkg/cache"
	"flipreview/pkg/ioinfo"
	"flipreview/pkg/media"
	"flipreview/pkg/requestqueue"
)

// runInfoWorker is the CPU-only probe worker (spec.md §4.C/§4.D).
func (s *Service) runInfoWorker(ctx context.Context) {
	for {
		id, payload, future, ok := s.infoQueue.Pop()
		if !ok {
			return
		}
		req := payload.(infoRequest)
		s.handleInfoRequest(ctx, id, req, future)
	}
}

func (s *Service) handleInfoRequest(ctx context.Context, id string, req infoRequest, future *requestqueue.Future) {
	fp := ioinfo.InfoFingerprint(req.path, req.opts)
	if entry, ok := s.cache.Get(cache.PartitionInfo, fp); ok {
		future.Resolve(entry.Info)
		return
	}

	info, err := s.doProbe(ctx, req.path)
	if s.infoQueue.IsCancelled(id) {
		future.Resolve(ioinfo.Empty())
		s.infoQueue.ClearCancelled(id)
		return
	}
	if err != nil {
		s.log.Error().Src("info").Request(id).Msgf("info probe %s: %v", req.path.String(), err)
		info = ioinfo.Empty()
	}
	s.cache.Add(cache.PartitionInfo, fp, cache.Entry{Info: info})
	future.Resolve(info)
}

func (s *Service) doProbe(ctx context.Context, path ioinfo.Path) (ioinfo.IOInfo, error) {
	plugin, err := s.pluginFor(path)
	if err != nil {
		return ioinfo.Empty(), err
	}
	return s.probe(ctx, plugin, path)
}

// runThumbnailWorker is the GPU worker (spec.md §4.D thumbnail worker
// specifics).
func (s *Service) runThumbnailWorker(ctx context.Context) {
	for {
		id, payload, future, ok := s.thumbQueue.Pop()
		if !ok {
			return
		}
		req := payload.(thumbnailRequest)
		s.handleThumbnailRequest(ctx, id, req, future)
	}
}

func (s *Service) handleThumbnailRequest(ctx context.Context, id string, req thumbnailRequest, future *requestqueue.Future) {
	fp := ioinfo.ThumbnailFingerprint(req.height, req.path, fmt.Sprintf("%v", req.time), req.opts)
	if entry, ok := s.cache.Get(cache.PartitionThumbnail, fp); ok {
		future.Resolve(entry.Raster)
		return
	}

	raster, err := s.renderThumbnail(ctx, req)
	if s.thumbQueue.IsCancelled(id) {
		future.Resolve(&cache.RasterImage{})
		s.thumbQueue.ClearCancelled(id)
		return
	}
	if err != nil {
		s.log.Error().Src("thumbnail").Request(id).Msgf("thumbnail %s @ %v: %v", req.path.String(), req.time, err)
		raster = &cache.RasterImage{}
	}
	s.cache.Add(cache.PartitionThumbnail, fp, cache.Entry{Raster: raster})
	future.Resolve(raster)
}

func (s *Service) renderThumbnail(ctx context.Context, req thumbnailRequest) (*cache.RasterImage, error) {
	plugin, err := s.pluginFor(req.path)
	if err != nil {
		return nil, err
	}

	key := req.path.String()
	var source media.VideoSource
	if cached, ok := s.thumbReaders.Get(key); ok {
		source = cached.(media.VideoSource)
	} else {
		source, err = plugin.OpenVideo(ctx, req.path)
		if err != nil {
			return nil, err
		}
		s.thumbReaders.Add(key, source)
	}

	frame, err := source.ReadFrame(ctx, req.time)
	if err != nil {
		return nil, err
	}

	info, err := s.probe(ctx, plugin, req.path)
	pixelAspectRatio := 1.0
	if err == nil && info.HasVideo() {
		pixelAspectRatio = info.Video[0].PixelAspectRatio
		if pixelAspectRatio <= 0 {
			pixelAspectRatio = 1.0
		}
	}

	return s.renderer.Render(ctx, frame, req.height, pixelAspectRatio)
}

// runWaveformWorker is the CPU-only audio worker (spec.md §4.D
// waveform worker specifics).
func (s *Service) runWaveformWorker(ctx context.Context) {
	for {
		id, payload, future, ok := s.waveformQueue.Pop()
		if !ok {
			return
		}
		req := payload.(waveformRequest)
		s.handleWaveformRequest(ctx, id, req, future)
	}
}

func (s *Service) handleWaveformRequest(ctx context.Context, id string, req waveformRequest, future *requestqueue.Future) {
	fp := ioinfo.WaveformFingerprint(fmt.Sprintf("%dx%d", req.width, req.height), req.path, fmt.Sprintf("%v", req.timeRange), req.opts)
	if entry, ok := s.cache.Get(cache.PartitionWaveform, fp); ok {
		future.Resolve(entry.Waveform)
		return
	}

	mesh, err := s.renderWaveform(ctx, req)
	if s.waveformQueue.IsCancelled(id) {
		future.Resolve(&cache.WaveformMesh{})
		s.waveformQueue.ClearCancelled(id)
		return
	}
	if err != nil {
		s.log.Error().Src("waveform").Request(id).Msgf("waveform %s over %v: %v", req.path.String(), req.timeRange, err)
		mesh = &cache.WaveformMesh{}
	}
	s.cache.Add(cache.PartitionWaveform, fp, cache.Entry{Waveform: mesh})
	future.Resolve(mesh)
}

func (s *Service) renderWaveform(ctx context.Context, req waveformRequest) (*cache.WaveformMesh, error) {
	plugin, err := s.pluginFor(req.path)
	if err != nil {
		return nil, err
	}

	key := req.path.String()
	var source media.AudioSource
	if cached, ok := s.waveformReaders.Get(key); ok {
		source = cached.(media.AudioSource)
	} else {
		source, err = plugin.OpenAudio(ctx, req.path)
		if err != nil {
			return nil, err
		}
		s.waveformReaders.Add(key, source)
	}

	samples, err := source.ReadRange(ctx, req.timeRange)
	if err != nil {
		return nil, err
	}

	return buildWaveformMesh(samples, req.width, req.height), nil
}
