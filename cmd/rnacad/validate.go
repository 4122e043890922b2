package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fine-structures/rnacad/librna/catalog"
	"github.com/fine-structures/rnacad/librna/fold"
	"github.com/fine-structures/rnacad/rnacad"
)

func runValidate(cmd *cobra.Command, args []string) error {
	mesh, compileOpts, err := loadInput()
	if err != nil {
		return err
	}
	metric, err := fold.MetricByName(metricName)
	if err != nil {
		return err
	}

	opts := fold.ValidateOpts{
		Compile:     compileOpts,
		Attempts:    attempts,
		Parallel:    parallel,
		Metric:      metric,
		Threshold:   threshold,
		MaxAttempts: maxAttempts,
		LogOpts:     rnacad.DefaultPrintOpts,
	}

	if catalogPath != "" {
		catCtx := rnacad.NewCatalogContext()
		defer func() {
			catCtx.Close()
			<-catCtx.Done()
		}()
		cat, err := catalog.OpenCatalog(catCtx, rnacad.CatalogOpts{
			DbPathName: catalogPath,
		})
		if err != nil {
			return err
		}
		opts.Catalog = cat
	}

	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
			return errors.Wrap(err, "create log directory")
		}
		file, err := os.OpenFile(logPath, os.O_TRUNC|os.O_WRONLY|os.O_CREATE, 0600)
		if err != nil {
			return err
		}
		defer file.Close()
		opts.Log = file
	}

	predictor := &fold.RNAfold{
		Binary:   rnafoldBinary,
		Circular: circular,
	}

	var res *fold.Result
	if until {
		res, err = fold.RunUntil(cmd.Context(), mesh, predictor, opts)
	} else {
		res, err = fold.BestOfN(cmd.Context(), mesh, predictor, opts)
	}
	if res != nil && res.Best != nil {
		out := cmd.OutOrStdout()
		res.Best.WriteAsString(out, rnacad.DefaultPrintOpts)
		fmt.Fprintf(out, "\nattempts: %d, mean similarity: %.2f%%, failed: %d, cached: %v\n",
			res.Attempts, res.Stats.MeanSimilarity, res.Stats.Failed, res.Cached)
	}
	if err != nil {
		return errors.Wrap(err, "validate")
	}
	return nil
}
