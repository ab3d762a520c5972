// Package usda resolves barcodes against USDA FoodData Central branded foods.
package usda

import (
	"context"
	"errors"
	"fmt"

	"github.com/pantrylens/backend/internal/barcode"
	"github.com/pantrylens/backend/internal/domain"
	"github.com/pantrylens/backend/internal/infrastructure/endpoints"
	"github.com/pantrylens/backend/internal/infrastructure/fetch"
	"github.com/sirupsen/logrus"
)

// EndpointSelector orders candidate endpoints for a source and region hint
type EndpointSelector interface {
	Select(source, regionHint string) []endpoints.Endpoint
}

// Source is the FoodData Central product source
type Source struct {
	client   domain.USDAClient
	selector EndpointSelector
	executor *fetch.Executor
	logger   *logrus.Logger
}

// NewSource creates the USDA source
func NewSource(client domain.USDAClient, selector EndpointSelector, executor *fetch.Executor, logger *logrus.Logger) *Source {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Source{client: client, selector: selector, executor: executor, logger: logger}
}

// Name implements domain.ProductSource
func (s *Source) Name() string {
	return domain.SourceUSDA
}

type searchHit struct {
	food        *domain.USDAFood
	approximate bool
}

// Resolve searches branded foods for the code's GTIN-14 (then the code as
// scanned), keeps only results whose gtinUpc matches, and fetches the full
// record of the hit. A failed detail fetch still returns the search hit.
func (s *Source) Resolve(ctx context.Context, req domain.ResolutionRequest) (*domain.ProviderMatch, error) {
	if s.client == nil || !s.client.Configured() {
		return nil, &domain.NoMatch{Source: domain.SourceUSDA, Reason: domain.ReasonNotConfigured}
	}

	eps := s.selector.Select(domain.SourceUSDA, req.RegionHint)
	if len(eps) == 0 {
		return nil, &domain.NoMatch{Source: domain.SourceUSDA, Reason: domain.ReasonNotConfigured}
	}
	urls := endpoints.URLs(eps)
	policy := fetch.PolicyFor(req)
	code := req.Code.Value

	var trail []domain.SourceAttemptRecord
	// unreachable holds the first query that failed without a definitive
	// answer; the source only counts as not-found when every query missed.
	var lastErr, unreachable error
	var hit fetch.Result[searchHit]
	found := false

	for _, query := range searchQueries(req.Code) {
		res, err := fetch.Run(ctx, s.executor, domain.SourceUSDA, urls, policy,
			func(ctx context.Context, endpoint string) (searchHit, error) {
				resp, err := s.client.SearchFoods(ctx, endpoint, query)
				if err != nil {
					return searchHit{}, err
				}
				food, approximate, ok := PickFood(resp.Foods, code)
				if !ok {
					return searchHit{}, fmt.Errorf("%w: %d results, none with gtin %s", domain.ErrNoMatch, len(resp.Foods), query)
				}
				return searchHit{food: food, approximate: approximate}, nil
			})
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, noMatchFrom(ctxErr, trail)
		}
		if err != nil {
			trail = append(trail, attemptsOf(err)...)
			lastErr = err
			if unreachable == nil && !definitiveMiss(err) {
				unreachable = err
			}
			continue
		}
		trail = append(trail, res.Attempts...)
		hit = res
		found = true
		break
	}

	if !found {
		if unreachable != nil {
			return nil, noMatchFrom(unreachable, trail)
		}
		return nil, noMatchFrom(lastErr, trail)
	}

	food := hit.Value.food
	detail, err := fetch.Run(ctx, s.executor, domain.SourceUSDA, []string{hit.Endpoint}, policy,
		func(ctx context.Context, endpoint string) (*domain.USDAFood, error) {
			return s.client.GetFoodDetails(ctx, endpoint, food.FdcID)
		})
	if err != nil {
		if ctx.Err() != nil {
			return nil, noMatchFrom(ctx.Err(), trail)
		}
		trail = append(trail, attemptsOf(err)...)
		s.logger.WithFields(logrus.Fields{
			"source":  domain.SourceUSDA,
			"fdc_id":  food.FdcID,
			"code":    code,
			"context": "detail_fetch",
		}).WithError(err).Warn("Detail fetch failed, using search record")
	} else {
		trail = append(trail, detail.Attempts...)
		food = MergeDetails(food, detail.Value)
	}

	match := ToMatch(food, code, hit.Endpoint, req.RegionHint == endpoints.CurrencyUSD, hit.Value.approximate)
	match.Attempts = trail

	return match, nil
}

// searchQueries returns the GTIN-14 form first and the scanned digits second
func searchQueries(code domain.CleanCode) []string {
	gtin := barcode.ToGTIN14(code.Value)
	queries := []string{gtin}
	if code.Value != gtin {
		queries = append(queries, code.Value)
	}
	return queries
}

func attemptsOf(err error) []domain.SourceAttemptRecord {
	var exhausted *fetch.ExhaustedError
	if errors.As(err, &exhausted) {
		return exhausted.Attempts
	}
	return nil
}

func definitiveMiss(err error) bool {
	var exhausted *fetch.ExhaustedError
	return errors.As(err, &exhausted) && exhausted.AllMisses
}

func noMatchFrom(err error, trail []domain.SourceAttemptRecord) *domain.NoMatch {
	miss := &domain.NoMatch{Source: domain.SourceUSDA, Reason: domain.ReasonUnavailable, Attempts: trail, Err: err}

	if definitiveMiss(err) {
		miss.Reason = domain.ReasonNotFound
	}
	return miss
}
