// Copyright 2020-2021 The OS-NVR Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package flipreview wires the Thumbnail/Waveform Service and the
// debug/observability surface into a runnable process. The Timeline
// Edit Engine itself has no long-running loop of its own: it's built
// fresh per opened document by the (external) GUI, which is why Run
// only starts the services that do.
package flipreview

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"flipreview/pkg/cache"
	"flipreview/pkg/config"
	"flipreview/pkg/debugserver"
	"flipreview/pkg/diag"
	"flipreview/pkg/ioreadcache"
	"flipreview/pkg/log"
	"flipreview/pkg/media"
	"flipreview/pkg/media/ffmpegplugin"
	"flipreview/pkg/media/writer"
	"flipreview/pkg/savepipeline"
	"flipreview/pkg/thumbnail"
	"flipreview/pkg/uistate"
)

// Run starts the core process: load config, open the log/uistate
// stores, wire the thumbnail service and debug server, and block until
// a shutdown signal or a fatal error.
func Run(envPath string) error {
	app, err := newApp(envPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())

	fatal := make(chan error, 1)
	go func() { fatal <- app.run(ctx) }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err = <-fatal:
		app.thumbnails.Stop()
		cancel()
		return err
	case sig := <-stop:
		app.log.Info().Src("flipreview").Msgf("received %v, stopping", sig)
	}

	app.thumbnails.Stop()
	cancel()

	// cancel unblocks the debug server's Start call inside app.run; wait
	// for it to actually finish closing before returning.
	return <-fatal
}

type app struct {
	log         *log.Logger
	env         *config.Env
	general     *config.Manager
	uistate     *uistate.Store
	diag        *diag.System
	thumbnails  *thumbnail.Service
	savePipe    *savepipeline.Pipeline
	debugServer *debugserver.Server
}

func newApp(envPath string) (*app, error) {
	var wg sync.WaitGroup

	envYAML, err := ioutil.ReadFile(envPath)
	if err != nil {
		return nil, fmt.Errorf("could not read env.yaml: %w", err)
	}

	env, err := config.NewEnv(envPath, envYAML)
	if err != nil {
		return nil, fmt.Errorf("could not get environment config: %w", err)
	}

	if err := env.PrepareEnvironment(); err != nil {
		return nil, fmt.Errorf("could not prepare environment: %w", err)
	}

	logger, err := log.NewLogger(filepath.Join(env.CacheDir, "log.db"), &wg)
	if err != nil {
		return nil, fmt.Errorf("could not create logger: %w", err)
	}

	general, err := config.NewManager(env.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("could not get general config: %w", err)
	}

	uistateStore, err := uistate.Open(filepath.Join(env.CacheDir, "uistate.db"))
	if err != nil {
		return nil, fmt.Errorf("could not open ui state store: %w", err)
	}

	thumbCache := cache.New(general.Get().CacheMaxEntries)
	ioCache := ioreadcache.New(ioreadcache.DefaultSize)

	registry := media.NewRegistry()
	registry.Register(ffmpegplugin.New(env.FFmpegBin, env.FFprobeBin, []string{
		"mov", "mp4", "mkv", "avi", "webm",
	}))

	thumbnails := thumbnail.New(thumbCache, registry, logger, thumbnail.NewCPURenderer())

	writerRegistry := writer.NewRegistry()

	savePipe := savepipeline.New(noopPlayer{}, ioCache, logger)

	sys := diag.New(env.CacheDir, func() float64 { return general.Get().CacheDirBudgetGB }, thumbCache.GetPercentage, logger)

	debugSrv := debugserver.New(":"+env.Port, logger, thumbCache, sys, general)

	_ = writerRegistry // wired per-save by callers of savePipe.SaveRange with a concrete writer.Plugin

	return &app{
		log:         logger,
		env:         env,
		general:     general,
		uistate:     uistateStore,
		diag:        sys,
		thumbnails:  thumbnails,
		savePipe:    savePipe,
		debugServer: debugSrv,
	}, nil
}

func (a *app) run(ctx context.Context) error {
	go a.log.Start(ctx)
	go a.log.LogToStdout(ctx)
	go a.log.LogToDB(ctx)
	time.Sleep(10 * time.Millisecond)
	a.log.Info().Src("flipreview").Msg("starting..")

	a.thumbnails.Start(ctx)
	go a.diag.StatusLoop(ctx)

	return a.debugServer.Start(ctx)
}

// noopPlayer is the player used when flipreview runs headless (e.g. a
// batch save invoked without the GUI attached). The real player is an
// external collaborator (spec.md §1); a full process wires its own
// Player implementation in before calling SaveRange.
type noopPlayer struct{}

func (noopPlayer) StopPlayback()       {}
func (noopPlayer) SetAudioMuted(bool)  {}
func (noopPlayer) SaveViewState() savepipeline.ViewState {
	return savepipeline.ViewState{}
}
func (noopPlayer) RestoreViewState(savepipeline.ViewState) {}
