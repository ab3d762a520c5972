// Package openfoodfacts resolves barcodes against the Open Food Facts mirrors.
package openfoodfacts

import (
	"context"
	"errors"

	"github.com/pantrylens/backend/internal/domain"
	"github.com/pantrylens/backend/internal/infrastructure/endpoints"
	"github.com/pantrylens/backend/internal/infrastructure/fetch"
	"github.com/sirupsen/logrus"
)

// EndpointSelector orders candidate endpoints for a source and region hint
type EndpointSelector interface {
	Select(source, regionHint string) []endpoints.Endpoint
}

// Source is the Open Food Facts product source
type Source struct {
	client   *Client
	selector EndpointSelector
	executor *fetch.Executor
	logger   *logrus.Logger
}

// NewSource wires a client, endpoint selector and retrying executor together
func NewSource(client *Client, selector EndpointSelector, executor *fetch.Executor, logger *logrus.Logger) *Source {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Source{client: client, selector: selector, executor: executor, logger: logger}
}

// Name implements domain.ProductSource
func (s *Source) Name() string {
	return domain.SourceOpenFoodFacts
}

// Resolve implements domain.ProductSource
func (s *Source) Resolve(ctx context.Context, req domain.ResolutionRequest) (*domain.ProviderMatch, error) {
	eps := s.selector.Select(domain.SourceOpenFoodFacts, req.RegionHint)
	if len(eps) == 0 {
		return nil, &domain.NoMatch{Source: domain.SourceOpenFoodFacts, Reason: domain.ReasonNotConfigured}
	}

	code := req.Code.Value
	res, err := fetch.Run(ctx, s.executor, domain.SourceOpenFoodFacts, endpoints.URLs(eps), fetch.PolicyFor(req),
		func(ctx context.Context, endpoint string) (*ProductResponse, error) {
			return s.client.FetchProduct(ctx, endpoint, code)
		})
	if err != nil {
		return nil, noMatchFrom(err)
	}

	match := ToMatch(res.Value, code, res.Endpoint, endpoints.IsPreferred(eps, res.Endpoint))
	match.Attempts = res.Attempts

	s.logger.WithFields(logrus.Fields{
		"source":   domain.SourceOpenFoodFacts,
		"code":     code,
		"endpoint": res.Endpoint,
		"regional": match.Regional,
	}).Debug("Product found")

	return match, nil
}

// noMatchFrom folds an executor error into the source's miss value
func noMatchFrom(err error) *domain.NoMatch {
	miss := &domain.NoMatch{Source: domain.SourceOpenFoodFacts, Reason: domain.ReasonUnavailable, Err: err}

	var exhausted *fetch.ExhaustedError
	if errors.As(err, &exhausted) {
		miss.Attempts = exhausted.Attempts
		if exhausted.AllMisses {
			miss.Reason = domain.ReasonNotFound
		}
	}
	return miss
}
