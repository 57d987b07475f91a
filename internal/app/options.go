package service

import (
	repository "github.com/okian/leadtime/internal/adapters/repository"
	"github.com/okian/leadtime/internal/domain/analysis"
	"github.com/okian/leadtime/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued analyses.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many dataset fingerprints are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithStoreCapacity sets how many analyses are kept.
func WithStoreCapacity(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.storeCapacity = n
		}
	}
}

// WithPreviewRows sets how many leading records each report previews.
func WithPreviewRows(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.previewRows = n
		}
	}
}

// WithQuestions replaces the questions answered for every dataset.
func WithQuestions(qs ...analysis.Question) Option {
	return func(s *Service) {
		if len(qs) > 0 {
			s.questions = qs
		}
	}
}

// WithStore replaces the in-memory store created by Start.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.customStore = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
