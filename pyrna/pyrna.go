package pyrna

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/go-python/gpython/py"

	"github.com/fine-structures/rnacad/librna"
	"github.com/fine-structures/rnacad/librna/catalog"
	"github.com/fine-structures/rnacad/librna/config"
	"github.com/fine-structures/rnacad/librna/fold"
	mesh_expr "github.com/fine-structures/rnacad/librna/mesh-expr"
	"github.com/fine-structures/rnacad/rnacad"
)

var (
	LIB_VERSION = "v1.2026.1"
)

var (
	pyMeshType         = py.NewType("Mesh", "a 3D wireframe of vertices and edges")
	pyDesignType       = py.NewType("Design", "a compiled strand: tree, path, structure and sequence")
	pyDesignStreamType = py.NewType("DesignStream", "rnacad.DesignStream")
	pyCatalogType      = py.NewType("Catalog", "rnacad.Catalog")
	pyWorkspaceType    = py.NewType("Workspace", "collects active session resources and catalogs")
)

// toPyErr maps compiler errors onto python exception types.
func toPyErr(err error) error {
	switch {
	case rnacad.IsInputError(err), rnacad.IsPreconditionError(err), rnacad.IsConfigError(err):
		return py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return py.ExceptionNewf(py.RuntimeError, "%v", err)
}

/////////////////////////////////
// Mesh

type pyMesh struct {
	*librna.Mesh
	root librna.NodeID
}

func (X *pyMesh) Type() *py.Type {
	return pyMeshType
}

func (X *pyMesh) M__str__() (py.Object, error) {
	return py.String(fmt.Sprintf("Mesh(%d vertices, %d edges)", X.NumVertices(), len(X.Edges))), nil
}

func (X *pyMesh) M__repr__() (py.Object, error) {
	return X.M__str__()
}

func loadFloats(obj py.Object) ([]float64, error) {
	var vals []float64
	var err error
	iterErr := py.Iterate(obj, func(item py.Object) bool {
		var f float64
		f, err = py.FloatAsFloat64(item)
		vals = append(vals, f)
		return err != nil
	})
	if iterErr != nil {
		return nil, iterErr
	}
	return vals, err
}

// Arg 1 (list): vertex positions, e.g. [[0, 0, 0], [10, 0, 0]]
// Arg 2 (list): edges, e.g. [(0, 1)]
func py_NewMesh(module py.Object, args py.Tuple) (py.Object, error) {
	var vertsObj, edgesObj py.Object
	if err := py.ParseTuple(args, "OO", &vertsObj, &edgesObj); err != nil {
		return nil, err
	}

	var positions []mgl64.Vec3
	var err error
	iterErr := py.Iterate(vertsObj, func(item py.Object) bool {
		var coords []float64
		if coords, err = loadFloats(item); err == nil && len(coords) != 3 {
			err = py.ExceptionNewf(py.ValueError, "vertex %d has %d coordinates", len(positions), len(coords))
		}
		if err == nil {
			positions = append(positions, mgl64.Vec3{coords[0], coords[1], coords[2]})
		}
		return err != nil
	})
	if iterErr != nil {
		return nil, iterErr
	}
	if err != nil {
		return nil, err
	}

	var edges []librna.EdgePair
	iterErr = py.Iterate(edgesObj, func(item py.Object) bool {
		var ends []float64
		if ends, err = loadFloats(item); err == nil && len(ends) != 2 {
			err = py.ExceptionNewf(py.ValueError, "edge %d has %d endpoints", len(edges), len(ends))
		}
		if err == nil {
			edges = append(edges, librna.EdgePair{librna.VtxID(ends[0]), librna.VtxID(ends[1])})
		}
		return err != nil
	})
	if iterErr != nil {
		return nil, iterErr
	}
	if err != nil {
		return nil, err
	}

	mesh, err := librna.BuildMesh(positions, edges)
	if err != nil {
		return nil, toPyErr(err)
	}
	return &pyMesh{Mesh: mesh, root: -1}, nil
}

// Arg 1 (str): "[x, y, z]" vertex lines followed by "(a, b)" edge pairs
func py_ParseMesh(module py.Object, args py.Tuple) (py.Object, error) {
	var expr string
	if err := py.LoadTuple(args, []interface{}{&expr}); err != nil {
		return nil, err
	}
	ast, err := mesh_expr.ParseMeshExpr(expr)
	if err != nil {
		return nil, toPyErr(err)
	}
	mesh, err := ast.Mesh()
	if err != nil {
		return nil, toPyErr(err)
	}
	return &pyMesh{Mesh: mesh, root: -1}, nil
}

// Arg 1 (str): pathname of a .yaml, .toml or .hcl mesh file
func py_LoadMesh(module py.Object, args py.Tuple) (py.Object, error) {
	var pathname string
	if err := py.LoadTuple(args, []interface{}{&pathname}); err != nil {
		return nil, err
	}
	mf, err := config.LoadMesh(pathname)
	if err != nil {
		return nil, py.ExceptionNewf(py.FileNotFoundError, "%v", err)
	}
	mesh, err := mf.Mesh()
	if err != nil {
		return nil, toPyErr(err)
	}
	return &pyMesh{Mesh: mesh, root: mf.RootID()}, nil
}

func py_Mesh_NumVerts(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(*pyMesh)
	return py.Int(X.NumVertices()), nil
}

func py_Mesh_NumEdges(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(*pyMesh)
	return py.Int(len(X.Edges)), nil
}

func py_Mesh_AddEdge(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(*pyMesh)
	var origin, destination int
	if err := py.LoadTuple(args, []interface{}{&origin, &destination}); err != nil {
		return nil, err
	}
	if err := X.AddEdge(librna.VtxID(origin), librna.VtxID(destination)); err != nil {
		return nil, toPyErr(err)
	}
	return py.None, nil
}

// compileOpts reads root, seed, motifs and allow_unordered keywords.
func (X *pyMesh) compileOpts(kwargs py.StringDict) (librna.CompileOpts, error) {
	opts := librna.CompileOpts{
		Root: X.root,
	}
	root := int(X.root)
	seed := int64(0)
	motifs := ""
	py.LoadAttr(kwargs, "root", &root)
	py.LoadAttr(kwargs, "seed", &seed)
	py.LoadAttr(kwargs, "motifs", &motifs)
	py.LoadAttr(kwargs, "allow_unordered", &opts.AllowUnordered)

	opts.Root = librna.NodeID(root)
	opts.Seed = uint64(seed)
	if motifs != "" {
		table, err := config.LoadMotifs(motifs)
		if err != nil {
			return opts, py.ExceptionNewf(py.FileNotFoundError, "%v", err)
		}
		opts.Motifs = table
	}
	return opts, nil
}

// See Mesh.Compile(root=-1, seed=0, motifs="", allow_unordered=False)
func py_Mesh_Compile(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	X := self.(*pyMesh)
	opts, err := X.compileOpts(kwargs)
	if err != nil {
		return nil, err
	}
	design, err := librna.Compile(X.Mesh, opts)
	if err != nil {
		return nil, toPyErr(err)
	}
	return &pyDesign{design}, nil
}

// See Mesh.Designs(count, seed=0, ...): one design per consecutive seed
func py_Mesh_Designs(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	X := self.(*pyMesh)
	var count int
	if err := py.LoadTuple(args, []interface{}{&count}); err != nil {
		return nil, err
	}
	opts, err := X.compileOpts(kwargs)
	if err != nil {
		return nil, err
	}

	seeds := make([]uint64, count)
	for i := range seeds {
		seeds[i] = opts.Seed + uint64(i)
	}
	stream := rnacad.GenerateDesigns(context.Background(), seeds, func(seed uint64) (*rnacad.Candidate, error) {
		runOpts := opts
		runOpts.Seed = seed
		design, err := librna.Compile(X.Mesh, runOpts)
		if err != nil {
			return nil, err
		}
		return &rnacad.Candidate{Record: design.Record()}, nil
	})
	return wrapDesignStream(stream), nil
}

/////////////////////////////////
// Design

type pyDesign struct {
	*librna.Design
}

func (X *pyDesign) Type() *py.Type {
	return pyDesignType
}

func (X *pyDesign) M__str__() (py.Object, error) {
	writer := strings.Builder{}
	X.WriteAsString(&writer, rnacad.DefaultPrintOpts)
	return py.String(writer.String()), nil
}

func (X *pyDesign) M__repr__() (py.Object, error) {
	return X.M__str__()
}

func py_Design_Structure(self py.Object, args py.Tuple) (py.Object, error) {
	return py.String(self.(*pyDesign).Structure), nil
}

func py_Design_Sequence(self py.Object, args py.Tuple) (py.Object, error) {
	return py.String(self.(*pyDesign).Sequence), nil
}

func py_Design_Seed(self py.Object, args py.Tuple) (py.Object, error) {
	return py.Int(self.(*pyDesign).Seed), nil
}

func py_Design_Tree(self py.Object, args py.Tuple) (py.Object, error) {
	return py.String(self.(*pyDesign).Tree.String()), nil
}

// Path returns a tuple of (kind, node) pairs where kind is "T" or "K".
func py_Design_Path(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(*pyDesign)
	steps := make(py.Tuple, len(X.Path))
	for i, step := range X.Path {
		steps[i] = py.Tuple{py.String(step.Kind.String()), py.Int(step.Node)}
	}
	return steps, nil
}

/////////////////////////////////
// Workspace

const (
	READ_ONLY = 0x01

	kWorkspaceAttr = "_Workspace"
)

type Workspace struct {
	CatalogCtx rnacad.CatalogContext
}

func (ws *Workspace) Close() {
	ws.CatalogCtx.Close()
	<-ws.CatalogCtx.Done()
}

func (ws *Workspace) Type() *py.Type {
	return pyWorkspaceType
}

func py_GetWorkspace(module py.Object, args py.Tuple) (py.Object, error) {
	wsObj, _ := py.GetAttrString(module, kWorkspaceAttr)
	if wsObj == nil {
		ws := &Workspace{
			CatalogCtx: rnacad.NewCatalogContext(),
		}
		wsObj = ws
		py.SetAttrString(module, kWorkspaceAttr, wsObj)
	}
	return wsObj, nil
}

func py_Workspace_CatalogExists(self py.Object, args py.Tuple) (py.Object, error) {
	_ = self.(*Workspace)

	var pathname string
	err := py.LoadTuple(args, []interface{}{&pathname})
	if err != nil {
		return nil, err
	}
	_, err = os.Stat(pathname)
	if os.IsNotExist(err) {
		return py.False, nil
	}
	return py.True, nil
}

// Arg 1 (str): db pathname ("" for in-memory)
// Arg 2 (int): flags (READ_ONLY)
func py_Workspace_OpenCatalog(self py.Object, args py.Tuple) (py.Object, error) {
	ws := self.(*Workspace)

	var pathname string
	var flags int32
	err := py.LoadTuple(args, []interface{}{&pathname, &flags})
	if err != nil {
		return nil, err
	}

	opts := rnacad.CatalogOpts{
		ReadOnly:   (flags & READ_ONLY) != 0,
		DbPathName: pathname,
	}
	cat, err := catalog.OpenCatalog(ws.CatalogCtx, opts)
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	return pyCatalog{cat}, nil
}

/////////////////////////////////
// Catalog

type pyCatalog struct {
	rnacad.Catalog
}

func (cat pyCatalog) Type() *py.Type {
	return pyCatalogType
}

func py_Catalog_Close(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)
	if cat.Catalog != nil {
		cat.Close()
	}
	return py.None, nil
}

func py_Catalog_NumRecords(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)
	return py.Int(cat.NumRecords()), nil
}

// Select returns a list of (seed, similarity, sequence, structure) tuples.
func py_Catalog_Select(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)
	var items []py.Object
	err := cat.Select(func(key []byte, rec rnacad.Record) bool {
		items = append(items, recordTuple(rec))
		return true
	})
	if err != nil {
		return nil, toPyErr(err)
	}
	return py.NewListFromItems(items), nil
}

// Designs streams every stored record, e.g. cat.Designs().Print("stored")
func py_Catalog_Designs(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)
	return wrapDesignStream(catalog.StreamRecords(cat)), nil
}

func recordTuple(rec rnacad.Record) py.Tuple {
	return py.Tuple{
		py.Int(rec.Seed),
		py.Float(rec.Similarity),
		py.String(rec.Sequence),
		py.String(rec.Structure),
	}
}

/////////////////////////////////
// DesignStream

type designStream struct {
	*rnacad.DesignStream
}

func (stream designStream) Type() *py.Type {
	return pyDesignStreamType
}

func wrapDesignStream(stream *rnacad.DesignStream) py.Object {
	return py.Object(designStream{stream})
}

func py_DesignStream_Go(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(designStream)
	count := stream.PullAll()
	return py.Int(count), nil
}

// Next returns the next design as (seed, similarity, sequence, structure), or None once the stream is drained.
func py_DesignStream_Next(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(designStream)
	X := stream.PullDesign()
	if X == nil {
		return py.None, nil
	}
	if X.Err != nil {
		return nil, toPyErr(X.Err)
	}
	return recordTuple(X.Record), nil
}

// See DesignStream.Fold(binary="RNAfold", parallel=1, metric="hamming", circular=False)
func py_DesignStream_Fold(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	stream := self.(designStream)

	predictor := &fold.RNAfold{}
	parallel := 1
	metricName := ""
	py.LoadAttr(kwargs, "binary", &predictor.Binary)
	py.LoadAttr(kwargs, "parallel", &parallel)
	py.LoadAttr(kwargs, "metric", &metricName)
	py.LoadAttr(kwargs, "circular", &predictor.Circular)

	metric, err := fold.MetricByName(metricName)
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	next := stream.Fold(context.Background(), predictor, metric, parallel)
	return wrapDesignStream(next), nil
}

// Best drains the stream and returns (seed, similarity, sequence, structure), or None if every design failed.
func py_DesignStream_Best(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(designStream)
	best, _ := stream.Best()
	if best == nil {
		return py.None, nil
	}
	return recordTuple(best.Record), nil
}

type echoToWriter struct {
	stdout *os.File
	to     io.WriteCloser
}

func (echo *echoToWriter) Write(buf []byte) (int, error) {
	if echo.to == nil {
		return echo.stdout.Write(buf)
	}
	return echo.to.Write(buf)
}

func (echo *echoToWriter) Close() error {
	if echo.to != nil {
		return echo.to.Close()
	}
	return nil
}

var gOutCount = int32(0)

// See DesignStream.Print(label="", sequence=True, structure=True, path=False, file="")
func py_DesignStream_Print(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	stream := self.(designStream)
	var pathname string

	opts := rnacad.DefaultPrintOpts

	py.LoadTuple(args, []interface{}{&opts.Label})
	if opts.Label == "" {
		py.LoadAttr(kwargs, "label", &opts.Label)
	}

	outCount := atomic.AddInt32(&gOutCount, 1)
	if opts.Label == "" {
		opts.Label = fmt.Sprintf("out[%d]", outCount)
	}

	py.LoadAttr(kwargs, "sequence", &opts.Sequence)
	py.LoadAttr(kwargs, "structure", &opts.Structure)
	py.LoadAttr(kwargs, "path", &opts.Path)
	py.LoadAttr(kwargs, "file", &pathname)

	writer := &echoToWriter{
		stdout: os.Stdout,
	}
	if len(pathname) > 0 {
		os.MkdirAll(filepath.Dir(pathname), 0700)

		file, err := os.OpenFile(pathname, os.O_TRUNC|os.O_WRONLY|os.O_CREATE, 0600)
		if err != nil {
			return nil, py.ExceptionNewf(py.FileNotFoundError, "%v", err)
		}
		writer.to = file
	}

	next := stream.Print(writer, opts)
	return wrapDesignStream(next), nil
}

// Keeps the best folded design of the stream in the given catalog under the mesh's compile key.
// Arg 1 (Catalog), Arg 2 (Mesh)
func py_DesignStream_KeepBest(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	stream := self.(designStream)
	if len(args) != 2 {
		return nil, py.ExceptionNewf(py.TypeError, "KeepBest expects (catalog, mesh)")
	}
	cat, ok := args[0].(pyCatalog)
	if !ok {
		return nil, py.ExceptionNewf(py.TypeError, "expected Catalog object (got %v)", args[0].Type().Name)
	}
	X, ok := args[1].(*pyMesh)
	if !ok {
		return nil, py.ExceptionNewf(py.TypeError, "expected Mesh object (got %v)", args[1].Type().Name)
	}
	if cat.IsReadOnly() {
		return nil, py.ExceptionNewf(py.PermissionError, "catalog is in read-only mode")
	}
	opts, err := X.compileOpts(kwargs)
	if err != nil {
		return nil, err
	}

	best, _ := stream.Best()
	if best == nil {
		return py.None, nil
	}
	key := catalog.FormDesignKey(X.Mesh, opts)
	if prev, err := cat.Get(key); err == nil && prev.Similarity >= best.Similarity {
		return recordTuple(prev), nil
	}
	if err = cat.Put(key, best.Record); err != nil {
		return nil, toPyErr(err)
	}
	return recordTuple(best.Record), nil
}

func init() {

	/////////////////////////////////
	// Mesh
	{
		pyMeshType.Dict["NumVerts"] = py.MustNewMethod("NumVerts", py_Mesh_NumVerts, 0, "")
		pyMeshType.Dict["NumEdges"] = py.MustNewMethod("NumEdges", py_Mesh_NumEdges, 0, "")
		pyMeshType.Dict["AddEdge"] = py.MustNewMethod("AddEdge", py_Mesh_AddEdge, 0, "connects two vertices")
		pyMeshType.Dict["Compile"] = py.MustNewMethod("Compile", py_Mesh_Compile, 0, "compiles this Mesh into a Design")
		pyMeshType.Dict["Designs"] = py.MustNewMethod("Designs", py_Mesh_Designs, 0, "streams one Design per consecutive seed")
	}

	/////////////////////////////////
	// Design
	{
		pyDesignType.Dict["Structure"] = py.MustNewMethod("Structure", py_Design_Structure, 0, "dot-bracket target structure")
		pyDesignType.Dict["Sequence"] = py.MustNewMethod("Sequence", py_Design_Sequence, 0, "")
		pyDesignType.Dict["Seed"] = py.MustNewMethod("Seed", py_Design_Seed, 0, "")
		pyDesignType.Dict["Tree"] = py.MustNewMethod("Tree", py_Design_Tree, 0, "indented spanning tree")
		pyDesignType.Dict["Path"] = py.MustNewMethod("Path", py_Design_Path, 0, "")
	}

	/////////////////////////////////
	// Catalog
	{
		pyCatalogType.Dict["Designs"] = py.MustNewMethod("Designs", py_Catalog_Designs, 0, "streams every stored design")
		pyCatalogType.Dict["Select"] = py.MustNewMethod("Select", py_Catalog_Select, 0, "")
		pyCatalogType.Dict["NumRecords"] = py.MustNewMethod("NumRecords", py_Catalog_NumRecords, 0, "")
		pyCatalogType.Dict["Close"] = py.MustNewMethod("Close", py_Catalog_Close, 0, "")
	}

	/////////////////////////////////
	// Workspace
	{
		pyWorkspaceType.Dict["OpenCatalog"] = py.MustNewMethod("OpenCatalog", py_Workspace_OpenCatalog, 0, "")
		pyWorkspaceType.Dict["CatalogExists"] = py.MustNewMethod("CatalogExists", py_Workspace_CatalogExists, 0, "")
	}

	/////////////////////////////////
	// DesignStream
	{
		pyDesignStreamType.Dict["Go"] = py.MustNewMethod("Go", py_DesignStream_Go, 0, "counts the number of designs output from the DesignStream")
		pyDesignStreamType.Dict["Fold"] = py.MustNewMethod("Fold", py_DesignStream_Fold, 0, "folds each design with an external predictor")
		pyDesignStreamType.Dict["Print"] = py.MustNewMethod("Print", py_DesignStream_Print, 0, "prints each design from the DesignStream")
		pyDesignStreamType.Dict["Next"] = py.MustNewMethod("Next", py_DesignStream_Next, 0, "pulls one design, or None when drained")
		pyDesignStreamType.Dict["Best"] = py.MustNewMethod("Best", py_DesignStream_Best, 0, "")
		pyDesignStreamType.Dict["KeepBest"] = py.MustNewMethod("KeepBest", py_DesignStream_KeepBest, 0, "")
	}

	{
		methods := []*py.Method{
			py.MustNewMethod("NewMesh", py_NewMesh, 0, ""),
			py.MustNewMethod("ParseMesh", py_ParseMesh, 0, ""),
			py.MustNewMethod("LoadMesh", py_LoadMesh, 0, ""),
			py.MustNewMethod("GetWorkspace", py_GetWorkspace, 0, ""),
		}

		globals := py.StringDict{
			"LIB_VERSION":     py.String(LIB_VERSION),
			"MAX_CONNECTIONS": py.Int(rnacad.MaxConnections),
			"READ_ONLY":       py.Int(READ_ONLY),
		}

		py.RegisterModule(&py.ModuleImpl{
			Info: py.ModuleInfo{
				Name: "_rnacad",
				Doc:  "RNA nanostructure compiler gpython module",
			},
			Methods: methods,
			Globals: globals,
			OnContextClosed: func(m *py.Module) {
				wsObj, _ := py.GetAttrString(m, kWorkspaceAttr)
				if wsObj != nil {
					wsObj.(*Workspace).Close()
				}
			},
		})
	}
}
