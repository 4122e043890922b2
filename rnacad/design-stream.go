package rnacad

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Candidate is one generated design travelling through a DesignStream.
// Ownership of a Candidate travels through the channel.
type Candidate struct {
	Record
	Err error // set if compiling or folding this candidate failed
}

// Metric scores how closely a predicted structure matches the target, in percent.
type Metric func(target, predicted string) float64

// DesignStream is a stage in a pipeline of candidate designs.
type DesignStream struct {
	Outlet chan *Candidate
}

func NewDesignStream() *DesignStream {
	stream := &DesignStream{
		Outlet: make(chan *Candidate),
	}
	return stream
}

// GenerateDesigns emits one candidate per seed, produced by gen.
func GenerateDesigns(ctx context.Context, seeds []uint64, gen func(seed uint64) (*Candidate, error)) *DesignStream {
	next := &DesignStream{
		Outlet: make(chan *Candidate, 1),
	}

	go func() {
		defer next.Close()
		for _, seed := range seeds {
			X, err := gen(seed)
			if err != nil {
				X = &Candidate{Err: err}
				X.Seed = seed
			}
			select {
			case next.Outlet <- X:
			case <-ctx.Done():
				return
			}
		}
	}()

	return next
}

func (stream *DesignStream) Close() {
	if stream.Outlet != nil {
		close(stream.Outlet)
	}
}

func (stream *DesignStream) PushDesign(X *Candidate) {
	stream.Outlet <- X
}

func (stream *DesignStream) PullDesign() *Candidate {
	X := <-stream.Outlet
	return X
}

func (stream *DesignStream) PullAll() int {
	count := int(0)
	for range stream.Outlet {
		count++
	}
	return count
}

// Fold runs each candidate's sequence through predictor, at most parallel at a time, and scores the result with metric.
// Output order is not preserved.
func (stream *DesignStream) Fold(ctx context.Context, predictor Predictor, metric Metric, parallel int) *DesignStream {
	next := &DesignStream{
		Outlet: make(chan *Candidate, 1),
	}
	if parallel < 1 {
		parallel = 1
	}

	go func() {
		var grp errgroup.Group
		grp.SetLimit(parallel)

		for X := range stream.Outlet {
			if X.Err != nil {
				next.Outlet <- X
				continue
			}
			X := X
			grp.Go(func() error {
				predicted, err := predictor.Predict(ctx, X.Sequence)
				if err != nil {
					X.Err = err
				} else {
					X.Predicted = predicted
					X.Similarity = metric(X.Structure, predicted)
				}
				next.Outlet <- X
				return nil
			})
		}
		grp.Wait()
		next.Close()
	}()

	return next
}

// Print writes each candidate to out as a CSV row and passes it on.
func (stream *DesignStream) Print(out io.WriteCloser, opts PrintOpts) *DesignStream {
	next := &DesignStream{
		Outlet: make(chan *Candidate, 1),
	}

	go func() {
		buf := strings.Builder{}
		buf.Grow(256)

		count := 0
		for X := range stream.Outlet {
			if len(opts.Label) > 0 {
				buf.WriteString(opts.Label)
			}
			buf.WriteByte(',')

			count++
			fmt.Fprintf(&buf, "%06d,", count)
			X.WriteAsString(&buf, opts)
			buf.WriteByte('\n')
			out.Write([]byte(buf.String()))
			buf.Reset()
			next.Outlet <- X
		}
		out.Close()
		next.Close()
	}()

	return next
}

// FoldStats summarises a drained DesignStream.
type FoldStats struct {
	Count          int
	Failed         int
	MeanSimilarity float64
}

// Best drains the stream and returns the candidate with the highest similarity.
// Ties go to the lowest seed so the result does not depend on arrival order.
// Returns nil if every candidate failed.
func (stream *DesignStream) Best() (*Candidate, FoldStats) {
	var (
		best  *Candidate
		stats FoldStats
	)
	for X := range stream.Outlet {
		if X.Err != nil {
			stats.Failed++
			continue
		}
		stats.Count++
		stats.MeanSimilarity += (X.Similarity - stats.MeanSimilarity) / float64(stats.Count)
		if best == nil ||
			X.Similarity > best.Similarity ||
			(X.Similarity == best.Similarity && X.Seed < best.Seed) {
			best = X
		}
	}
	return best, stats
}

func (X *Candidate) WriteAsString(out io.Writer, opts PrintOpts) {
	fmt.Fprintf(out, "%d,", X.Seed)
	if X.Err != nil {
		fmt.Fprintf(out, "error: %v", X.Err)
		return
	}
	fmt.Fprintf(out, "%.2f", X.Similarity)
	if opts.Sequence {
		out.Write([]byte{','})
		io.WriteString(out, X.Sequence)
	}
	if opts.Structure {
		out.Write([]byte{','})
		io.WriteString(out, X.Structure)
		out.Write([]byte{','})
		io.WriteString(out, X.Predicted)
	}
	if opts.Path {
		out.Write([]byte{','})
		out.Write(X.Path.AppendDesc(nil))
	}
}
