package pprof

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/mem-analysis/pkg/utils"
)

// Session periodically captures the configured profiles and writes them
// under OutputDir until stopped. Stop takes a final snapshot of every
// non-CPU profile, so even a short-lived session leaves usable data.
type Session struct {
	opts   Options
	writer *Writer
	log    utils.Logger

	cancel context.CancelFunc
	done   chan struct{}

	stopOnce sync.Once

	mu     sync.Mutex
	counts map[ProfileType]int64
}

// StartSession begins profile collection in the background.
func StartSession(opts Options) (*Session, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profiling options: %w", err)
	}

	w := NewWriter(opts.OutputDir, opts.MaxFiles, opts.Logger)
	if err := w.EnsureDirs(opts.Profiles); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		opts:   opts,
		writer: w,
		log:    opts.Logger,
		cancel: cancel,
		done:   make(chan struct{}),
		counts: make(map[ProfileType]int64),
	}

	if opts.hasProfile(ProfileBlock) {
		runtime.SetBlockProfileRate(1)
	}
	if opts.hasProfile(ProfileMutex) {
		runtime.SetMutexProfileFraction(1)
	}

	go s.loop(ctx)
	return s, nil
}

// Stop ends collection, takes final snapshots and resets the block and
// mutex profiling rates. Safe to call more than once.
func (s *Session) Stop() error {
	s.stopOnce.Do(func() {
		s.cancel()
		<-s.done

		s.finalSnapshots()

		if s.opts.hasProfile(ProfileBlock) {
			runtime.SetBlockProfileRate(0)
		}
		if s.opts.hasProfile(ProfileMutex) {
			runtime.SetMutexProfileFraction(0)
		}
	})
	return nil
}

// OutputDir returns the directory snapshots are written to.
func (s *Session) OutputDir() string {
	return s.writer.Root()
}

// Counts returns how many snapshots were written per profile type.
func (s *Session) Counts() map[ProfileType]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[ProfileType]int64, len(s.counts))
	for pt, n := range s.counts {
		counts[pt] = n
	}
	return counts
}

func (s *Session) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	s.collect(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.collect(ctx)
		}
	}
}

func (s *Session) collect(ctx context.Context) {
	for _, pt := range s.opts.Profiles {
		if ctx.Err() != nil {
			return
		}

		var data []byte
		var err error
		if pt == ProfileCPU {
			data, err = CaptureCPU(ctx, s.opts.CPUDuration)
		} else {
			data, err = Capture(pt)
		}
		if err != nil {
			if ctx.Err() == nil {
				s.log.Warn("failed to capture %s profile: %v", pt, err)
			}
			continue
		}

		s.record(pt, data)
	}
}

func (s *Session) finalSnapshots() {
	for _, pt := range s.opts.Profiles {
		if pt == ProfileCPU {
			continue
		}
		data, err := Capture(pt)
		if err != nil {
			s.log.Warn("failed to capture final %s profile: %v", pt, err)
			continue
		}
		s.record(pt, data)
	}
}

func (s *Session) record(pt ProfileType, data []byte) {
	path, err := s.writer.Write(pt, data)
	if err != nil {
		s.log.Warn("failed to write %s profile: %v", pt, err)
		return
	}

	s.mu.Lock()
	s.counts[pt]++
	s.mu.Unlock()

	s.log.Debug("wrote %s profile to %s", pt, path)
}
