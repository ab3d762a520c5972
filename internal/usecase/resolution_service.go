package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/pantrylens/backend/internal/barcode"
	"github.com/pantrylens/backend/internal/domain"
	"github.com/pantrylens/backend/internal/infrastructure/endpoints"
	"github.com/pantrylens/backend/internal/infrastructure/fetch"
	"github.com/pantrylens/backend/internal/logging"
	"github.com/pantrylens/backend/internal/metrics"
	"github.com/sirupsen/logrus"
)

// ResolutionConfig holds the retry policy handed to every source
type ResolutionConfig struct {
	MaxRetries     int
	AttemptTimeout time.Duration
	Backoff        time.Duration
}

// ResolutionObserver is told the outcome of every Resolve call
type ResolutionObserver interface {
	ObserveResolution(result, source string)
}

// ResolutionService runs the product sources in priority order and stops at
// the first one that knows the code. It keeps no per-call state and is safe
// for concurrent use.
type ResolutionService struct {
	sources  []domain.ProductSource
	mapper   domain.CategoryMapper
	policy   fetch.Policy
	logger   *logrus.Logger
	observer ResolutionObserver
}

// NewResolutionService creates the orchestrator. sources are consulted in the
// order given; observer may be nil.
func NewResolutionService(
	sources []domain.ProductSource,
	mapper domain.CategoryMapper,
	config ResolutionConfig,
	logger *logrus.Logger,
	observer ResolutionObserver,
) *ResolutionService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	policy := fetch.PolicyFor(domain.ResolutionRequest{
		MaxRetries:     config.MaxRetries,
		AttemptTimeout: config.AttemptTimeout,
		Backoff:        config.Backoff,
	})

	return &ResolutionService{
		sources:  sources,
		mapper:   mapper,
		policy:   policy,
		logger:   logger,
		observer: observer,
	}
}

// SourceNames lists the configured sources in priority order
func (s *ResolutionService) SourceNames() []string {
	names := make([]string, 0, len(s.sources))
	for _, src := range s.sources {
		names = append(names, src.Name())
	}
	return names
}

// Resolve cleans raw, classifies it and asks each source in turn.
// Flow: validate -> detect -> sources in order -> map category -> return
//
// The returned error is either a *domain.ValidationError or the caller's
// context error. Every other outcome, including a miss on all sources, is a
// normal Resolution.
func (s *ResolutionService) Resolve(ctx context.Context, raw, regionHint string) (*domain.Resolution, error) {
	start := time.Now()
	log := logging.FromContext(ctx, s.logger)

	if err := ctx.Err(); err != nil {
		s.observe(metrics.ResultCanceled, "")
		return nil, err
	}

	code, err := barcode.Validate(raw)
	if err != nil {
		log.WithField("error", err.Error()).Debug("Rejected barcode")
		s.observe(metrics.ResultInvalid, "")
		return nil, err
	}

	info := barcode.Detect(code)
	req := domain.ResolutionRequest{
		Code:           code,
		Format:         info,
		RegionHint:     endpoints.NormalizeRegionHint(regionHint),
		MaxRetries:     s.policy.MaxRetries,
		AttemptTimeout: s.policy.AttemptTimeout,
		Backoff:        s.policy.Backoff,
	}
	log = log.WithField("code", code.Value)

	var (
		attempts    []domain.SourceAttemptRecord
		attempted   []string
		unavailable bool
	)

	for _, src := range s.sources {
		match, err := src.Resolve(ctx, req)

		if ctxErr := ctx.Err(); ctxErr != nil {
			log.WithField("source", src.Name()).Debug("Resolution canceled by caller")
			s.observe(metrics.ResultCanceled, "")
			return nil, ctxErr
		}

		if err == nil && match != nil {
			attempts = append(attempts, match.Attempts...)
			product := s.finish(match, req)

			resolution := &domain.Resolution{
				Product:    &product,
				FormatInfo: info,
				Attempts:   nonNilAttempts(attempts),
				ElapsedMs:  time.Since(start).Milliseconds(),
			}

			log.WithFields(logrus.Fields{
				"source":     product.SourceName,
				"category":   product.Category,
				"elapsed_ms": resolution.ElapsedMs,
			}).Info("Product resolved")
			s.observe(metrics.ResultFound, product.SourceName)
			return resolution, nil
		}

		var miss *domain.NoMatch
		if errors.As(err, &miss) {
			attempts = append(attempts, miss.Attempts...)
			entry := log.WithFields(logrus.Fields{"source": src.Name(), "reason": miss.Reason})
			switch miss.Reason {
			case domain.ReasonNotConfigured:
				entry.Debug("Source skipped")
				continue
			case domain.ReasonUnavailable:
				unavailable = true
				entry.WithField("error", miss.Error()).Warn("Source unavailable")
			default:
				entry.Debug("Source has no match")
			}
		} else if err != nil {
			unavailable = true
			log.WithFields(logrus.Fields{"source": src.Name(), "error": err.Error()}).Warn("Source failed")
		}
		attempted = append(attempted, src.Name())
	}

	resolution := &domain.Resolution{
		Failure: &domain.ResolutionFailure{
			Code:             code.Value,
			AttemptedSources: nonNilStrings(attempted),
			FormatInfo:       info,
			Suggestions:      BuildSuggestions(code, info, req.RegionHint, unavailable),
		},
		FormatInfo: info,
		Attempts:   nonNilAttempts(attempts),
		ElapsedMs:  time.Since(start).Milliseconds(),
	}

	log.WithFields(logrus.Fields{
		"attempted":  attempted,
		"elapsed_ms": resolution.ElapsedMs,
	}).Info("Product not found in any source")
	s.observe(metrics.ResultNotFound, "")
	return resolution, nil
}

// finish turns a provider match into the canonical product
func (s *ResolutionService) finish(match *domain.ProviderMatch, req domain.ResolutionRequest) domain.NormalizedProduct {
	product := match.Draft
	product.Found = true
	if product.Code == "" {
		product.Code = req.Code.Value
	}
	if product.SourceName == "" {
		product.SourceName = match.Source
	}
	product.RegionalMatch = product.RegionalMatch || match.Regional
	product.ApproximateMatch = product.ApproximateMatch || match.Approximate
	if product.Allergens == nil {
		product.Allergens = []string{}
	}

	product.Category = domain.CategoryOther
	if s.mapper != nil {
		product.Category = s.mapper.MapCategory(match.CategorySignals, product.SourceName)
	}
	return product
}

func (s *ResolutionService) observe(result, source string) {
	if s.observer != nil {
		s.observer.ObserveResolution(result, source)
	}
}

func nonNilAttempts(a []domain.SourceAttemptRecord) []domain.SourceAttemptRecord {
	if a == nil {
		return []domain.SourceAttemptRecord{}
	}
	return a
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
