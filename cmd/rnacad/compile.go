package main

import (
	"github.com/plan-systems/klog"
	"github.com/spf13/cobra"

	"github.com/fine-structures/rnacad/librna"
	"github.com/fine-structures/rnacad/librna/config"
	mesh_expr "github.com/fine-structures/rnacad/librna/mesh-expr"
	"github.com/fine-structures/rnacad/rnacad"
)

// loadInput reads the mesh and compile options named by the input flags.
func loadInput() (*librna.Mesh, librna.CompileOpts, error) {
	opts := librna.CompileOpts{
		Root:           librna.NodeID(rootID),
		Seed:           seed,
		MaxRetries:     maxRetries,
		AllowUnordered: allowUnordered,
	}

	var mesh *librna.Mesh
	if meshExpr != "" {
		expr, err := mesh_expr.ParseMeshExpr(meshExpr)
		if err != nil {
			return nil, opts, err
		}
		if mesh, err = expr.Mesh(); err != nil {
			return nil, opts, err
		}
	} else {
		mf, err := config.LoadMesh(meshPath)
		if err != nil {
			return nil, opts, err
		}
		if mesh, err = mf.Mesh(); err != nil {
			return nil, opts, err
		}
		if opts.Root < 0 {
			opts.Root = mf.RootID()
		}
	}

	if motifsPath != "" {
		motifs, err := config.LoadMotifs(motifsPath)
		if err != nil {
			return nil, opts, err
		}
		opts.Motifs = motifs
	}

	klog.V(1).Infof("mesh: %d vertices, %d edges", mesh.NumVertices(), len(mesh.Edges))
	return mesh, opts, nil
}

func runCompile(cmd *cobra.Command, args []string) error {
	mesh, opts, err := loadInput()
	if err != nil {
		return err
	}
	design, err := librna.Compile(mesh, opts)
	if err != nil {
		return err
	}

	printOpts := rnacad.DefaultPrintOpts
	printOpts.Tree = printTree
	printOpts.Motifs = printTree
	printOpts.Path = printPath
	design.WriteAsString(cmd.OutOrStdout(), printOpts)
	return nil
}

func runTree(cmd *cobra.Command, args []string) error {
	mesh, opts, err := loadInput()
	if err != nil {
		return err
	}
	design, err := librna.Compile(mesh, opts)
	if err != nil {
		return err
	}
	design.WriteAsString(cmd.OutOrStdout(), rnacad.PrintOpts{
		Tree:   true,
		Motifs: true,
		Path:   true,
	})
	return nil
}
