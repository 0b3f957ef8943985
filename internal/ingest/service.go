// internal/ingest/service.go
package ingest

import (
	"context"
	"log"
	"time"
)

// Intervals controls the three background sweeps.
type Intervals struct {
	Fetch     time.Duration
	Retry     time.Duration
	Retention time.Duration
}

// DefaultIntervals matches the hosted deployment cadence.
func DefaultIntervals() Intervals {
	return Intervals{
		Fetch:     6 * time.Hour,
		Retry:     2 * time.Hour,
		Retention: 24 * time.Hour,
	}
}

// Service runs the orchestrator's sweeps on their schedules.
type Service struct {
	orch      *Orchestrator
	intervals Intervals
	logger    *log.Logger
	done      chan struct{}
}

func NewService(orch *Orchestrator, intervals Intervals, logger *log.Logger) *Service {
	return &Service{
		orch:      orch,
		intervals: intervals,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

func (s *Service) Start() {
	go s.ingestLoop()
	go s.retryLoop()
	go s.retentionLoop()
}

func (s *Service) Stop() {
	close(s.done)
}

func (s *Service) ingestLoop() {
	s.logger.Printf("Starting ingestion loop, interval %v", s.intervals.Fetch)

	// Do an initial fetch so a fresh deployment has content immediately.
	if _, err := s.orch.Ingest(context.Background()); err != nil {
		s.logger.Printf("Initial ingestion failed: %v", err)
	}

	ticker := time.NewTicker(s.intervals.Fetch)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.orch.Ingest(context.Background()); err != nil {
				s.logger.Printf("Scheduled ingestion failed: %v", err)
			}
		case <-s.done:
			s.logger.Printf("Ingestion loop shutting down")
			return
		}
	}
}

func (s *Service) retryLoop() {
	ticker := time.NewTicker(s.intervals.Retry)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.orch.Retry(context.Background()); err != nil {
				s.logger.Printf("Retry sweep failed: %v", err)
			}
		case <-s.done:
			return
		}
	}
}

func (s *Service) retentionLoop() {
	ticker := time.NewTicker(s.intervals.Retention)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.orch.Cleanup(context.Background()); err != nil {
				s.logger.Printf("Retention sweep failed: %v", err)
			}
		case <-s.done:
			return
		}
	}
}
