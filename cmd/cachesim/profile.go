package main

import (
	"fmt"
	"os"
	"runtime/pprof"

	"go.uber.org/zap"
)

type profiler struct {
	cpuPath string
	memPath string

	cpuFile *os.File
}

// start begins CPU profiling if requested.
func (p *profiler) start() error {
	if p.cpuPath == "" {
		return nil
	}

	f, err := os.Create(p.cpuPath)
	if err != nil {
		return fmt.Errorf("creating CPU profile: %w", err)
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("starting CPU profile: %w", err)
	}
	p.cpuFile = f

	return nil
}

// stop ends CPU profiling and writes the heap profile if requested.
func (p *profiler) stop(logger *zap.Logger) {
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		_ = p.cpuFile.Close()
		p.cpuFile = nil
		logger.Info("wrote CPU profile", zap.String("path", p.cpuPath))
	}

	if p.memPath == "" {
		return
	}

	f, err := os.Create(p.memPath)
	if err != nil {
		logger.Error("creating memory profile", zap.Error(err))
		return
	}
	defer func() { _ = f.Close() }()

	if err := pprof.WriteHeapProfile(f); err != nil {
		logger.Error("writing memory profile", zap.Error(err))
		return
	}
	logger.Info("wrote memory profile", zap.String("path", p.memPath))
}
