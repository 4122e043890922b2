package main

import (
	"github.com/spf13/cobra"
)

var (
	meshPath       string
	meshExpr       string
	motifsPath     string
	rootID         int
	seed           uint64
	maxRetries     int
	allowUnordered bool

	printTree bool
	printPath bool

	rnafoldBinary string
	circular      bool
	attempts      int
	parallel      int
	metricName    string
	threshold     float64
	maxAttempts   int
	until         bool
	catalogPath   string
	logPath       string

	rootCmd = &cobra.Command{
		Use:           "rnacad",
		Short:         "Compiles 3D wireframes into single-stranded RNA origami designs",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	compileCmd = &cobra.Command{
		Use:   "compile",
		Short: "Compiles a mesh into a target structure and sequence",
		Args:  cobra.NoArgs,
		RunE:  runCompile, // compile.go
	}

	treeCmd = &cobra.Command{
		Use:   "tree",
		Short: "Prints the spanning tree and strand path of a mesh",
		Args:  cobra.NoArgs,
		RunE:  runTree, // compile.go
	}

	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Folds compiled designs with RNAfold and reports the most similar one",
		Args:  cobra.NoArgs,
		RunE:  runValidate, // validate.go
	}

	runCmd = &cobra.Command{
		Use:   "run [script.py]",
		Short: "Runs a gpython script against the _rnacad module, or starts a REPL",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScript, // gpython-run.go
	}
)

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&meshPath, "mesh", "m", "config/mesh.toml", "mesh file (.toml, .yaml or .hcl)")
	cmd.Flags().StringVarP(&meshExpr, "expr", "e", "", `inline mesh, e.g. "[0,0,0] [10,0,0] (0,1)"; overrides --mesh`)
	cmd.Flags().StringVar(&motifsPath, "motifs", "", "motif table file; defaults to the built-in table")
	cmd.Flags().IntVarP(&rootID, "root", "r", -1, "root vertex; -1 uses the mesh file's root or the origin of the first edge")
	cmd.Flags().Uint64VarP(&seed, "seed", "s", 0, "random seed (first seed for validate)")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 0, "branch ordering retries per node (0 for the default)")
	cmd.Flags().BoolVar(&allowUnordered, "allow-unordered", false, "keep the existing child order where no reference vector can be found")
}

func init() {
	rootCmd.AddCommand(compileCmd)
	addInputFlags(compileCmd)
	compileCmd.Flags().BoolVar(&printTree, "tree", false, "also print the spanning tree")
	compileCmd.Flags().BoolVar(&printPath, "path", false, "also print the strand path")

	rootCmd.AddCommand(treeCmd)
	addInputFlags(treeCmd)

	rootCmd.AddCommand(validateCmd)
	addInputFlags(validateCmd)
	validateCmd.Flags().StringVar(&rnafoldBinary, "rnafold", "RNAfold", "RNAfold binary")
	validateCmd.Flags().BoolVar(&circular, "circ", false, "fold the strand as a circle")
	validateCmd.Flags().IntVarP(&attempts, "attempts", "n", 10, "designs to fold (best-of-N mode)")
	validateCmd.Flags().IntVarP(&parallel, "parallel", "p", 4, "RNAfold processes in flight")
	validateCmd.Flags().StringVar(&metricName, "metric", "hamming", "similarity metric: hamming or levenshtein")
	validateCmd.Flags().BoolVar(&until, "until", false, "keep folding until a design reaches --threshold")
	validateCmd.Flags().Float64Var(&threshold, "threshold", 100, "similarity percent --until stops at")
	validateCmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "bound for --until (0 for the default)")
	validateCmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog directory that keeps the best design per mesh")
	validateCmd.Flags().StringVar(&logPath, "log", "", "CSV file every folded design is written to")

	rootCmd.AddCommand(runCmd)
}
