package rnacad

import (
	"context"
)

const (

	// MaxConnections is the max number of edges any structure vertex may carry (a four-way junction).
	MaxConnections = 4

	// NoParent is the parent of a tree root.
	NoParent NodeID = -1
)

// NodeID identifies a tree node.
//
// Ids below the structure's vertex count are structure vertices; cycle-breaker ids are issued above the largest vertex id.
type NodeID int

// StepKind distinguishes an ordinary traversal step from a kissing-loop (cycle-breaker) termination.
type StepKind byte

const (
	StepTraverse    StepKind = 0
	StepKissingLoop StepKind = 1
)

func (k StepKind) String() string {
	switch k {
	case StepTraverse:
		return "T"
	case StepKissingLoop:
		return "K"
	}
	return "?"
}

// Step is one element of a strand Path.
type Step struct {
	Kind StepKind
	Node NodeID
}

// Path is the single linear walk a physical strand follows through a tree.
type Path []Step

// MotifClass is one of the closed set of structural motifs assigned to a tree node.
type MotifClass byte

const (
	MotifNil              MotifClass = 0
	MotifHairpin          MotifClass = 1
	MotifKink             MotifClass = 2
	MotifThreeWayJunction MotifClass = 3
	MotifFourWayJunction  MotifClass = 4
	MotifKissingLoop      MotifClass = 5
)

func (c MotifClass) String() string {
	if c > MotifKissingLoop {
		return "?"
	}
	return [...]string{"nil",
		"hairpin",
		"kink",
		"three-way-junction",
		"four-way-junction",
		"kissing-loop",
	}[c]
}

// ConnectivityClass returns the motif class for a node with the given number of connections.
// A count outside 1..MaxConnections returns MotifNil.
func ConnectivityClass(connections int) MotifClass {
	if connections < 1 || connections > MaxConnections {
		return MotifNil
	}
	return MotifClass(connections)
}

// Motif is the derived classification of a tree node.
// Partner is only meaningful for MotifKissingLoop and names the paired cycle-breaker node.
type Motif struct {
	Class   MotifClass
	Partner NodeID
}

// MotifTable supplies the fixed symbol templates for each motif class.
type MotifTable interface {

	// Variants returns the visit-ordered templates for the given class, or nil if none are configured.
	Variants(class MotifClass) []string
}

// Predictor computes the minimum free energy secondary structure of a sequence.
type Predictor interface {
	Predict(ctx context.Context, sequence string) (structure string, err error)
}

// PrintOpts specifies what WriteAsString emits.
type PrintOpts struct {
	Label     string // optional row label
	Tree      bool   // print the indented tree
	Path      bool   // print path steps
	Structure bool   // print the dot-bracket annotation
	Sequence  bool   // print the nucleotide sequence
	Motifs    bool   // annotate tree nodes with their motif class
}

var DefaultPrintOpts = PrintOpts{
	Structure: true,
	Sequence:  true,
}

// Record is a validated design as stored in a Catalog.
type Record struct {
	Seed       uint64
	Similarity float64 // percent, 0..100
	Structure  string  // target dot-bracket annotation
	Predicted  string  // structure returned by the predictor
	Sequence   string
	Path       Path
}

// CatalogOpts specifies params for opening a design Catalog.
type CatalogOpts struct {
	DbPathName string // omit for an in-memory db
	ReadOnly   bool   // open in read-only mode
}

// Catalog caches validated designs keyed by their compile inputs.
// A later Put for the same key replaces the earlier record.
type Catalog interface {

	// Get returns the record stored for key or ErrNotFound.
	Get(key []byte) (Record, error)

	// Put stores rec under key.
	Put(key []byte, rec Record) error

	// Select calls onRecord with every stored record until it returns false.
	Select(onRecord func(key []byte, rec Record) bool) error

	// NumRecords returns how many distinct keys have been stored.
	NumRecords() int64

	// Returns true if this catalog was opened for read-only access.
	IsReadOnly() bool

	Close() error
}

// CatalogContext is a container for open / active Catalog instances.
type CatalogContext interface {

	// Attaches the given Catalog to this context.
	AttachCatalog(cat Catalog)

	// Detaches the given Catalog from this context.
	DetachCatalog(cat Catalog)

	// Closes all open catalogs then closes.
	Close()

	// Signals when Close() completed and all open Catalogs have been closed
	Done() <-chan struct{}
}
