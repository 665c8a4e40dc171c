// Package app orchestrates a full refugia analysis run: ingestion, baseline,
// per-feature enrichment and spatial testing, and report assembly. The engine
// packages stay pure; everything stateful or concurrent lives here.
package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"refugia/adapters/stats/regional"
	"refugia/adapters/stats/spatial"
	"refugia/domain/atlas"
	"refugia/domain/core"
	"refugia/domain/geo"
	"refugia/domain/report"
	"refugia/domain/stats"
	"refugia/internal"
	apperrors "refugia/internal/errors"
	"refugia/ports"
)

// targetListingLimit caps the per-feature language listing in the report.
const targetListingLimit = 25

// minPermutationSample gates the referee: below three matching languages an
// empirical null adds nothing over the analytic test.
const minPermutationSample = 3

// AnalysisRequest defines the inputs for one deterministic analysis run.
type AnalysisRequest struct {
	Rules             []atlas.FeatureRule
	Neighbors         int   // k for the weight matrix, default 5
	Seed              int64 // base seed for permutation streams
	PermutationRounds int   // 0 disables the permutation referee
	Workers           int   // bounded per-feature fan-out, default 4
}

// AnalysisService runs the refugia pipeline over any feature source.
type AnalysisService struct {
	source ports.FeatureSource
	rng    ports.RNG
	log    *internal.Logger
}

// NewAnalysisService creates an analysis service.
func NewAnalysisService(source ports.FeatureSource, rng ports.RNG) *AnalysisService {
	return &AnalysisService{
		source: source,
		rng:    rng,
		log:    internal.DefaultLogger.Component("AnalysisService"),
	}
}

// Run executes the complete analysis and assembles the report.
//
// Ingestion or an empty population aborts the run; every later failure is
// feature-scoped. Features run concurrently under a bounded semaphore, but
// results land in index-addressed slots so report order always equals rule
// order regardless of scheduling.
func (s *AnalysisService) Run(ctx context.Context, req AnalysisRequest) (*report.Report, error) {
	if len(req.Rules) == 0 {
		req.Rules = atlas.DefaultRules()
	}
	if req.Neighbors <= 0 {
		req.Neighbors = 5
	}
	if req.Workers <= 0 {
		req.Workers = 4
	}

	datasets, err := s.source.Load(ctx)
	if err != nil {
		return nil, apperrors.IngestFailed("feature source", err)
	}

	// Malformed records are dropped once, up front, so no denominator in
	// the run can ever include them.
	byFeature := make(map[string]atlas.FeatureDataset, len(datasets))
	clean := make([]atlas.FeatureDataset, 0, len(datasets))
	droppedTotal := 0
	for _, ds := range datasets {
		sanitized, dropped := ds.Sanitized()
		if dropped > 0 {
			s.log.Warn("feature %s: dropped %d malformed observations", ds.FeatureID, dropped)
		}
		droppedTotal += dropped
		byFeature[sanitized.FeatureID] = sanitized
		clean = append(clean, sanitized)
	}

	pop, err := atlas.BuildPopulation(clean)
	if err != nil {
		return nil, apperrors.AnalysisFailed("population", err)
	}
	pop.Dropped += droppedTotal
	s.log.Info("population: %d unique languages across %d chapters", pop.Size(), len(clean))

	base, err := regional.ComputeBaseline(pop)
	if err != nil {
		return nil, apperrors.AnalysisFailed("baseline", err)
	}

	chapters := make([]report.ChapterBaseline, 0, len(clean))
	for _, ds := range clean {
		cb, err := regional.ComputeChapterBaseline(ds)
		if err != nil {
			s.log.Warn("chapter %s baseline skipped: %v", ds.FeatureID, err)
			continue
		}
		chapters = append(chapters, report.ChapterBaseline{
			FeatureID:   ds.FeatureID,
			FeatureName: ds.FeatureName,
			Baseline:    cb,
		})
	}

	results := make([]report.FeatureResult, len(req.Rules))
	sem := semaphore.NewWeighted(int64(req.Workers))
	for i, rule := range req.Rules {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		go func(slot int, rule atlas.FeatureRule) {
			defer sem.Release(1)
			results[slot] = s.analyzeFeature(ctx, rule, byFeature, base, req)
		}(i, rule)
	}
	// Draining the full weight waits for every in-flight feature.
	if err := sem.Acquire(ctx, int64(req.Workers)); err != nil {
		return nil, err
	}
	sem.Release(int64(req.Workers))

	meta := report.RunMeta{
		RunID:             core.NewRunID(),
		GeneratedAt:       time.Now().UTC(),
		Seed:              req.Seed,
		Neighbors:         req.Neighbors,
		PermutationRounds: req.PermutationRounds,
		InputFingerprint:  atlas.Fingerprint(clean),
	}
	return report.Assemble(meta, pop, base, chapters, results), nil
}

// analyzeFeature computes one rule's enrichment and spatial blocks. Spatial
// failures are feature-scoped: they become the result's failure marker and
// never propagate.
func (s *AnalysisService) analyzeFeature(ctx context.Context, rule atlas.FeatureRule, byFeature map[string]atlas.FeatureDataset, base *stats.Baseline, req AnalysisRequest) report.FeatureResult {
	res := report.FeatureResult{Rule: rule}

	ds, ok := byFeature[rule.FeatureID]
	if !ok {
		s.log.Warn("%s: no dataset for feature %s", rule.Label, rule.FeatureID)
		res.Enrichment = regional.ComputeEnrichment(nil, base)
		res.SpatialFailure = fmt.Sprintf("no dataset loaded for feature %s", rule.FeatureID)
		return res
	}
	res.FeatureName = ds.FeatureName
	res.TotalWithData = ds.Len()

	sample := rule.Filter(ds)
	res.MatchCount = len(sample)
	if ds.Len() > 0 {
		res.MatchPercent = 100 * float64(len(sample)) / float64(ds.Len())
	}
	res.Enrichment = regional.ComputeEnrichment(sample, base)

	if len(sample) <= targetListingLimit {
		for _, obs := range sample {
			res.TargetLanguages = append(res.TargetLanguages, report.TargetLanguage{
				ID:     obs.ID,
				Name:   obs.Name,
				Region: geo.Classify(obs.Latitude, obs.Longitude),
			})
		}
	}

	// Spatial structure is tested over the feature's full known-value
	// dataset with the match labels as the variable of interest.
	weights, err := spatial.BuildWeights(spatial.PointsOf(ds.Languages), spatial.WeightsConfig{
		K:      req.Neighbors,
		Scheme: spatial.SchemeInverseDistance,
	})
	if err != nil {
		s.log.Warn("%s: weights: %v", rule.Label, err)
		res.SpatialFailure = err.Error()
		return res
	}

	indicator := rule.Indicator(ds)
	moran, err := spatial.MoransI(weights, indicator)
	if err != nil {
		s.log.Warn("%s: moran: %v", rule.Label, err)
		res.SpatialFailure = err.Error()
		return res
	}
	res.Moran = moran

	if req.PermutationRounds > 0 && len(sample) >= minPermutationSample {
		referee := spatial.NewPermutationReferee(s.rng)
		perm, err := referee.Run(ctx, weights, indicator, spatial.PermutationConfig{
			Rounds:     req.PermutationRounds,
			Seed:       req.Seed,
			Workers:    req.Workers,
			StreamName: fmt.Sprintf("permutation/%s/%s", rule.FeatureID, rule.Label),
		})
		if err != nil {
			// The analytic result stands; only the empirical p is lost.
			s.log.Warn("%s: permutation referee: %v", rule.Label, err)
		} else {
			res.Permutation = perm
		}
	}

	return res
}
