package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-python/gpython/py"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const squareExpr = "[0,0,0] [9,0,0] [9,9,0] [0,9,0] (0,1) (1,2) (2,3) (3,0)"

func execute(t *testing.T, args ...string) (string, error) {
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCompileCmd(t *testing.T) {
	out, err := execute(t, "compile", "--expr", squareExpr, "--seed", "3", "--path")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	sequence, structure := lines[1], lines[2]
	assert.Equal(t, len(structure), len(sequence))
	assert.Equal(t, strings.Count(structure, "("), strings.Count(structure, ")"))

	again, err := execute(t, "compile", "--expr", squareExpr, "--seed", "3", "--path")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestTreeCmd(t *testing.T) {
	out, err := execute(t, "tree", "--expr", squareExpr, "--root", "1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "1 ("), out)
	assert.Contains(t, out, " ~ ")

	_, err = execute(t, "tree", "--expr", squareExpr, "--root", "9")
	assert.Error(t, err)
}

func TestCompileCmdMeshFile(t *testing.T) {
	pathname := filepath.Join(t.TempDir(), "mesh.yaml")
	require.NoError(t, os.WriteFile(pathname, []byte(`
vertices:
  - [0, 0, 0]
  - [10, 0, 0]
  - [0, 10, 0]
edges:
  - [0, 1]
  - [0, 2]
root: 0
`), 0o600))

	out, err := execute(t, "compile", "--expr", "", "--mesh", pathname, "--root", "-1", "--seed", "0", "--path=false")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, len(lines[0]), len(lines[1]))

	_, err = execute(t, "compile", "--mesh", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidateCmdLogDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	_, err := execute(t, "validate", "--expr", squareExpr, "--root", "-1", "--catalog", "",
		"--log", filepath.Join(blocker, "runs", "fold.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create log directory")
}

func TestGpythonScript(t *testing.T) {
	outputPathname := filepath.Join(t.TempDir(), "square.txt")

	ctx := py.NewContext(py.DefaultContextOpts())
	redirect, err := RedirectToFile(outputPathname, ctx)
	require.NoError(t, err)

	_, err = py.RunFile(ctx, "testdata/square.py", py.CompileOpts{}, nil)
	ctx.Close()
	<-ctx.Done()
	require.NoError(t, redirect.Close())
	require.NoError(t, err)

	out, err := os.ReadFile(outputPathname)
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "Mesh(4 vertices, 4 edges)")
	assert.Contains(t, text, "\n11\n")
	assert.Contains(t, text, "square,000003,")
	assert.Contains(t, text, "designs: 3")
	assert.Contains(t, text, "kept: 1")
	assert.Contains(t, text, "records: 1")
	assert.Contains(t, text, "stored: 1")
	assert.Contains(t, text, "drained: True")
}

type pyRedirect struct {
	file       *os.File
	prevStdout *os.File
}

// RedirectToFile sends python and Go stdout to outputPathname until Close.
func RedirectToFile(outputPathname string, ctx py.Context) (io.Closer, error) {
	ofile, err := os.OpenFile(outputPathname, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}

	sys := ctx.Store().MustGetModule("sys")
	sys.Globals["stdout"] = &py.File{
		File:     ofile,
		FileMode: py.FileWrite,
	}

	redir := &pyRedirect{
		file:       ofile,
		prevStdout: os.Stdout,
	}
	os.Stdout = ofile
	return redir, nil
}

func (redir *pyRedirect) Close() error {
	if redir.prevStdout == nil {
		return nil
	}
	os.Stdout = redir.prevStdout
	err := redir.file.Close()
	redir.file = nil
	return err
}
