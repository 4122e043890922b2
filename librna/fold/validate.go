package fold

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/plan-systems/klog"

	"github.com/fine-structures/rnacad/librna"
	"github.com/fine-structures/rnacad/librna/catalog"
	"github.com/fine-structures/rnacad/rnacad"
)

// DefaultMaxAttempts bounds RunUntil when ValidateOpts.MaxAttempts is not set.
const DefaultMaxAttempts = 1000

type ValidateOpts struct {
	Compile     librna.CompileOpts // Compile.Seed is the first seed tried; later attempts use consecutive seeds
	Attempts    int                // number of designs BestOfN compiles
	Parallel    int                // predictor processes in flight
	Metric      rnacad.Metric      // nil denotes Hamming
	Threshold   float64            // similarity (percent) RunUntil stops at
	MaxAttempts int                // 0 denotes DefaultMaxAttempts

	Catalog rnacad.Catalog   // if set, the best design per compile key is kept here
	Log     io.WriteCloser   // if set, every folded candidate is written here as CSV
	LogOpts rnacad.PrintOpts // columns for Log
}

// Result is the outcome of a validation loop.
type Result struct {
	Best     *rnacad.Candidate
	Stats    rnacad.FoldStats
	Attempts int
	Cached   bool // Best was read from the catalog rather than folded in this run
}

type validator struct {
	mesh      *librna.Mesh
	predictor rnacad.Predictor
	opts      ValidateOpts
	key       []byte
}

func newValidator(mesh *librna.Mesh, predictor rnacad.Predictor, opts ValidateOpts) (*validator, error) {
	if opts.Metric == nil {
		opts.Metric = Hamming
	}
	if opts.Parallel < 1 {
		opts.Parallel = 1
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}

	// Input, precondition and motif errors repeat for every seed, so surface them before fanning out.
	if _, err := librna.Compile(mesh, opts.Compile); err != nil && !rnacad.IsDegenerateOrdering(err) {
		return nil, err
	}

	v := &validator{
		mesh:      mesh,
		predictor: predictor,
		opts:      opts,
	}
	if opts.Catalog != nil {
		v.key = catalog.FormDesignKey(mesh, opts.Compile)
	}
	return v, nil
}

func (v *validator) compile(seed uint64) (*rnacad.Candidate, error) {
	opts := v.opts.Compile
	opts.Seed = seed
	design, err := librna.Compile(v.mesh, opts)
	if err != nil {
		return nil, err
	}
	return &rnacad.Candidate{
		Record: design.Record(),
	}, nil
}

// foldSeeds compiles and folds one design per seed and returns the best.
func (v *validator) foldSeeds(ctx context.Context, firstSeed uint64, count int) (*rnacad.Candidate, rnacad.FoldStats) {
	seeds := make([]uint64, count)
	for i := range seeds {
		seeds[i] = firstSeed + uint64(i)
	}

	stream := rnacad.GenerateDesigns(ctx, seeds, v.compile).
		Fold(ctx, v.predictor, v.opts.Metric, v.opts.Parallel)
	if v.opts.Log != nil {
		stream = stream.Print(nopCloser{v.opts.Log}, v.opts.LogOpts)
	}
	return stream.Best()
}

// cached returns the catalog record for this compile key if it is at least as similar as minSimilarity.
func (v *validator) cached(minSimilarity float64) *rnacad.Candidate {
	if v.opts.Catalog == nil {
		return nil
	}
	rec, err := v.opts.Catalog.Get(v.key)
	if err != nil {
		if !errors.Is(err, rnacad.ErrNotFound) {
			klog.Warningf("catalog lookup failed: %v", err)
		}
		return nil
	}
	if rec.Similarity < minSimilarity {
		return nil
	}
	return &rnacad.Candidate{Record: rec}
}

// keep stores best in the catalog unless a record at least as similar is already there.
func (v *validator) keep(best *rnacad.Candidate) error {
	if v.opts.Catalog == nil || v.opts.Catalog.IsReadOnly() || best == nil {
		return nil
	}
	if prev, err := v.opts.Catalog.Get(v.key); err == nil && prev.Similarity >= best.Similarity {
		return nil
	}
	return v.opts.Catalog.Put(v.key, best.Record)
}

// BestOfN compiles opts.Attempts designs with consecutive seeds, folds each with predictor and returns the
// most similar one along with the mean similarity.
func BestOfN(ctx context.Context, mesh *librna.Mesh, predictor rnacad.Predictor, opts ValidateOpts) (*Result, error) {
	v, err := newValidator(mesh, predictor, opts)
	if err != nil {
		return nil, err
	}
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}

	best, stats := v.foldSeeds(ctx, opts.Compile.Seed, opts.Attempts)
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	if best == nil {
		return nil, errors.Wrapf(rnacad.ErrNoViableDesign, "all %d attempts failed", opts.Attempts)
	}
	klog.Infof("best of %d: seed %d at %.2f%% (mean %.2f%%, %d failed)", opts.Attempts, best.Seed, best.Similarity, stats.MeanSimilarity, stats.Failed)

	if err = v.keep(best); err != nil {
		return nil, err
	}
	return &Result{
		Best:     best,
		Stats:    stats,
		Attempts: opts.Attempts,
	}, nil
}

// RunUntil folds designs with consecutive seeds, opts.Parallel at a time, until one reaches opts.Threshold
// or opts.MaxAttempts designs have been tried (ErrNoViableDesign).
// A catalog record already at the threshold is returned without folding.
func RunUntil(ctx context.Context, mesh *librna.Mesh, predictor rnacad.Predictor, opts ValidateOpts) (*Result, error) {
	v, err := newValidator(mesh, predictor, opts)
	if err != nil {
		return nil, err
	}
	opts = v.opts

	if hit := v.cached(opts.Threshold); hit != nil {
		klog.Infof("catalog hit: seed %d at %.2f%%", hit.Seed, hit.Similarity)
		return &Result{Best: hit, Cached: true}, nil
	}

	res := &Result{}
	seed := opts.Compile.Seed
	for res.Attempts < opts.MaxAttempts {
		batch := opts.Parallel
		if remain := opts.MaxAttempts - res.Attempts; batch > remain {
			batch = remain
		}

		best, stats := v.foldSeeds(ctx, seed, batch)
		if err = ctx.Err(); err != nil {
			return nil, err
		}
		seed += uint64(batch)
		res.Attempts += batch
		res.Stats = mergeStats(res.Stats, stats)

		if best != nil && (res.Best == nil || best.Similarity > res.Best.Similarity) {
			res.Best = best
		}
		if res.Best != nil && res.Best.Similarity >= opts.Threshold {
			klog.Infof("viable structure found after %d attempts: seed %d at %.2f%%", res.Attempts, res.Best.Seed, res.Best.Similarity)
			return res, v.keep(res.Best)
		}
		klog.V(1).Infof("attempt %d: best so far %.2f%%", res.Attempts, bestSimilarity(res.Best))
	}

	if err = v.keep(res.Best); err != nil {
		return nil, err
	}
	return res, errors.Wrapf(rnacad.ErrNoViableDesign, "best of %d attempts reached %.2f%%, threshold %.2f%%",
		res.Attempts, bestSimilarity(res.Best), opts.Threshold)
}

func bestSimilarity(best *rnacad.Candidate) float64 {
	if best == nil {
		return 0
	}
	return best.Similarity
}

func mergeStats(a, b rnacad.FoldStats) rnacad.FoldStats {
	count := a.Count + b.Count
	merged := rnacad.FoldStats{
		Count:  count,
		Failed: a.Failed + b.Failed,
	}
	if count > 0 {
		merged.MeanSimilarity = (a.MeanSimilarity*float64(a.Count) + b.MeanSimilarity*float64(b.Count)) / float64(count)
	}
	return merged
}

// nopCloser keeps DesignStream.Print from closing a log shared across batches.
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
