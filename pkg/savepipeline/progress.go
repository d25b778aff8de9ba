package savepipeline

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"flipreview/pkg/log"
)

// watchOutputProgress watches outPath's directory and logs a debug line
// each time the output file is written to, so a long range save reports
// progress without the pipeline polling os.Stat in its frame loop.
// Grounded on the teacher's ffmpeg.WaitForKeyframe, which fsnotify-
// watches an HLS directory for new segments instead of polling; here
// the watched directory is a writer plugin's output directory and any
// Write event on the target path is one unit of progress.
//
// Some writer plugins (an ffmpeg subprocess writer, for instance) write
// their output file directly rather than going through p's WriteFrame
// return path, so this is the only progress signal available for them.
// If the watcher can't be set up (missing directory, platform without
// inotify) saving proceeds silently; progress reporting is best-effort.
func watchOutputProgress(ctx context.Context, outPath string, logger *log.Logger) (stop func()) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return func() {}
	}

	dir := filepath.Dir(outPath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		defer watcher.Close()
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name == outPath && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					logger.Debug().Src("savepipeline").Msgf("writer progress: %v", outPath)
				}
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn().Src("savepipeline").Msgf("output watcher: %v", werr)
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }
}
