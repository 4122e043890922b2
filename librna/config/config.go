package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"gopkg.in/yaml.v3"

	"github.com/fine-structures/rnacad/librna"
	"github.com/fine-structures/rnacad/rnacad"
)

// MeshFile is the on-disk form of a structure graph.
//
//	vertices = [[-10.0, 0.0, 0.0], [10.0, 0.0, 0.0]]
//	edges    = [[0, 1]]
type MeshFile struct {
	Vertices [][]float64 `yaml:"vertices" toml:"vertices" hcl:"vertices" validate:"required,min=1,dive,len=3"`
	Edges    [][]int     `yaml:"edges" toml:"edges" hcl:"edges" validate:"required,min=1,dive,len=2,dive,gte=0"`
	Root     *int        `yaml:"root,omitempty" toml:"root,omitempty" hcl:"root,optional" validate:"omitempty,gte=0"`
}

// MotifFile is the on-disk form of a motif table.
//
//	hairpin = "UGGUAAUCGA"
//	kink = "AGCUUACUG"
//	three-way-junction = ["UACUAA", "UUGUUUC", "GUGUA"]
//	four-way-junction = ["AGGGUUAGCC", "CAUACCGCAA", "AGUGAAAGUU", "GGUCGAUCAC"]
type MotifFile struct {
	Hairpin     string   `yaml:"hairpin" toml:"hairpin" hcl:"hairpin" validate:"required,nucleotides"`
	Kink        string   `yaml:"kink" toml:"kink" hcl:"kink" validate:"required,nucleotides"`
	ThreeWay    []string `yaml:"three-way-junction" toml:"three-way-junction" hcl:"three-way-junction" validate:"required,min=1,dive,required,nucleotides"`
	FourWay     []string `yaml:"four-way-junction" toml:"four-way-junction" hcl:"four-way-junction" validate:"required,min=1,dive,required,nucleotides"`
	KissingLoop []string `yaml:"kissing-loop,omitempty" toml:"kissing-loop,omitempty" hcl:"kissing-loop,optional" validate:"omitempty,dive,required,nucleotides"`
}

var validate *validator.Validate

func init() {
	var err error
	if validate, err = newValidator(); err != nil {
		klog.Fatalf("config: %v", err)
	}
}

func newValidator() (*validator.Validate, error) {
	v := validator.New()
	if err := v.RegisterValidation("nucleotides", validateNucleotides); err != nil {
		return nil, errors.Wrap(err, "register nucleotides validation")
	}
	return v, nil
}

func validateNucleotides(fl validator.FieldLevel) bool {
	return rnacad.IsNucleotides(fl.Field().String())
}

// LoadMesh reads a mesh file; the format follows the extension (.yaml, .yml, .toml or .hcl).
func LoadMesh(pathname string) (*MeshFile, error) {
	mf := &MeshFile{}
	if strings.EqualFold(filepath.Ext(pathname), ".toml") {
		if err := mf.loadTOML(pathname); err != nil {
			return nil, err
		}
	} else if err := decodeFile(pathname, mf); err != nil {
		return nil, err
	}
	if err := validate.Struct(mf); err != nil {
		return nil, errors.Wrapf(rnacad.ErrBadConfig, "%s: %v", pathname, err)
	}
	klog.V(1).Infof("loaded mesh %q: %d vertices, %d edges", pathname, len(mf.Vertices), len(mf.Edges))
	return mf, nil
}

// LoadMotifs reads a motif file; the format follows the extension (.yaml, .yml, .toml or .hcl).
func LoadMotifs(pathname string) (*librna.MotifStorage, error) {
	mf := &MotifFile{}
	if err := decodeFile(pathname, mf); err != nil {
		return nil, err
	}
	if err := validate.Struct(mf); err != nil {
		return nil, errors.Wrapf(rnacad.ErrBadConfig, "%s: %v", pathname, err)
	}
	klog.V(1).Infof("loaded motifs %q", pathname)
	return mf.MotifStorage(), nil
}

func (mf *MotifFile) MotifStorage() *librna.MotifStorage {
	return &librna.MotifStorage{
		Hairpin:     []string{mf.Hairpin},
		Kink:        []string{mf.Kink},
		ThreeWay:    mf.ThreeWay,
		FourWay:     mf.FourWay,
		KissingLoop: mf.KissingLoop,
	}
}

// Mesh builds the structure graph; an edge repeated in either orientation is added once.
func (mf *MeshFile) Mesh() (*librna.Mesh, error) {
	positions := make([]mgl64.Vec3, len(mf.Vertices))
	for i, v := range mf.Vertices {
		copy(positions[i][:], v)
	}
	return librna.BuildMesh(positions, mf.EdgePairs())
}

func (mf *MeshFile) EdgePairs() []librna.EdgePair {
	pairs := make([]librna.EdgePair, len(mf.Edges))
	for i, e := range mf.Edges {
		pairs[i] = librna.EdgePair{librna.VtxID(e[0]), librna.VtxID(e[1])}
	}
	return pairs
}

// RootID returns the configured root, or -1 (the origin of the first edge) if none is set.
func (mf *MeshFile) RootID() librna.NodeID {
	if mf.Root == nil {
		return -1
	}
	return librna.NodeID(*mf.Root)
}

func decodeFile(pathname string, out interface{}) error {
	buf, err := os.ReadFile(pathname)
	if err != nil {
		return errors.Wrapf(rnacad.ErrBadConfig, "read %s: %v", pathname, err)
	}

	switch strings.ToLower(filepath.Ext(pathname)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(buf))
		dec.KnownFields(true)
		err = dec.Decode(out)
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(buf)).DisallowUnknownFields().Decode(out)
	case ".hcl":
		parser := hclparse.NewParser()
		file, diags := parser.ParseHCL(buf, pathname)
		if diags.HasErrors() {
			return errors.Wrapf(rnacad.ErrBadConfig, "parse %s: %v", pathname, diags)
		}
		if diags = gohcl.DecodeBody(file.Body, nil, out); diags.HasErrors() {
			err = diags
		}
	default:
		return errors.Wrapf(rnacad.ErrBadConfig, "%s: unsupported file format", pathname)
	}

	if err != nil {
		return errors.Wrapf(rnacad.ErrBadConfig, "decode %s: %v", pathname, err)
	}
	return nil
}

// tomlMesh takes numbers as written; TOML keeps integer and float literals distinct.
type tomlMesh struct {
	Vertices [][]interface{} `toml:"vertices"`
	Edges    [][]int         `toml:"edges"`
	Root     *int            `toml:"root"`
}

func (mf *MeshFile) loadTOML(pathname string) error {
	raw := tomlMesh{}
	if err := decodeFile(pathname, &raw); err != nil {
		return err
	}
	mf.Edges = raw.Edges
	mf.Root = raw.Root
	mf.Vertices = make([][]float64, len(raw.Vertices))
	for i, v := range raw.Vertices {
		mf.Vertices[i] = make([]float64, len(v))
		for j, c := range v {
			switch x := c.(type) {
			case float64:
				mf.Vertices[i][j] = x
			case int64:
				mf.Vertices[i][j] = float64(x)
			default:
				return errors.Wrapf(rnacad.ErrBadConfig, "%s: vertex %d coordinate %d is %T", pathname, i, j, c)
			}
		}
	}
	return nil
}
