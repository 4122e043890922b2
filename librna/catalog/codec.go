package catalog

import (
	"math"

	"github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"

	"github.com/fine-structures/rnacad/librna"
	"github.com/fine-structures/rnacad/rnacad"
)

const (
	kRecordEncoding    = 1
	kDesignKeyEncoding = 1
)

type catalogState struct {
	MajorVers  uint64
	MinorVers  uint64
	NumRecords uint64
}

func (st *catalogState) Marshal() []byte {
	buf := proto.NewBuffer(make([]byte, 0, 16))
	buf.EncodeVarint(st.MajorVers)
	buf.EncodeVarint(st.MinorVers)
	buf.EncodeVarint(st.NumRecords)
	return buf.Bytes()
}

func (st *catalogState) Unmarshal(val []byte) (err error) {
	buf := proto.NewBuffer(val)
	if st.MajorVers, err = buf.DecodeVarint(); err != nil {
		return err
	}
	if st.MinorVers, err = buf.DecodeVarint(); err != nil {
		return err
	}
	st.NumRecords, err = buf.DecodeVarint()
	return err
}

func marshalRecord(key []byte, rec rnacad.Record) []byte {
	buf := proto.NewBuffer(make([]byte, 0, len(key)+3*len(rec.Sequence)+4*len(rec.Path)+32))
	buf.EncodeVarint(kRecordEncoding)
	buf.EncodeRawBytes(key)
	buf.EncodeVarint(rec.Seed)
	buf.EncodeFixed64(math.Float64bits(rec.Similarity))
	buf.EncodeStringBytes(rec.Structure)
	buf.EncodeStringBytes(rec.Predicted)
	buf.EncodeStringBytes(rec.Sequence)
	buf.EncodeVarint(uint64(len(rec.Path)))
	for _, step := range rec.Path {
		buf.EncodeVarint(uint64(step.Kind))
		buf.EncodeZigzag64(uint64(step.Node))
	}
	return buf.Bytes()
}

// unmarshalRecord decodes a stored value; the returned key is a copy.
func unmarshalRecord(val []byte) (key []byte, rec rnacad.Record, err error) {
	buf := proto.NewBuffer(val)

	vers, err := buf.DecodeVarint()
	if err != nil {
		return nil, rec, err
	}
	if vers != kRecordEncoding {
		return nil, rec, errors.Wrapf(rnacad.ErrBadCatalogOpt, "unknown record encoding %d", vers)
	}
	if key, err = buf.DecodeRawBytes(true); err != nil {
		return nil, rec, err
	}
	if rec.Seed, err = buf.DecodeVarint(); err != nil {
		return nil, rec, err
	}
	bits, err := buf.DecodeFixed64()
	if err != nil {
		return nil, rec, err
	}
	rec.Similarity = math.Float64frombits(bits)
	if rec.Structure, err = buf.DecodeStringBytes(); err != nil {
		return nil, rec, err
	}
	if rec.Predicted, err = buf.DecodeStringBytes(); err != nil {
		return nil, rec, err
	}
	if rec.Sequence, err = buf.DecodeStringBytes(); err != nil {
		return nil, rec, err
	}

	numSteps, err := buf.DecodeVarint()
	if err != nil {
		return nil, rec, err
	}
	if numSteps > uint64(len(val)) {
		return nil, rec, errors.Wrapf(rnacad.ErrBadCatalogOpt, "record claims %d path steps", numSteps)
	}
	rec.Path = make(rnacad.Path, numSteps)
	for i := range rec.Path {
		kind, err := buf.DecodeVarint()
		if err != nil {
			return nil, rec, err
		}
		node, err := buf.DecodeZigzag64()
		if err != nil {
			return nil, rec, err
		}
		rec.Path[i] = rnacad.Step{
			Kind: rnacad.StepKind(kind),
			Node: rnacad.NodeID(int64(node)),
		}
	}
	return key, rec, nil
}

// FormDesignKey encodes everything that determines the output of a compile run other than its seed:
// vertex positions, edges in order, the root, the ordering options and the motif table.
// Designs compiled from equal keys differ only by seed, so a catalog keeps the best of them.
func FormDesignKey(mesh *librna.Mesh, opts librna.CompileOpts) []byte {
	motifs := opts.Motifs
	if motifs == nil {
		motifs = librna.DefaultMotifs
	}

	buf := proto.NewBuffer(make([]byte, 0, 256))
	buf.EncodeVarint(kDesignKeyEncoding)

	buf.EncodeVarint(uint64(mesh.NumVertices()))
	for _, v := range mesh.Vertices {
		for _, c := range v.Pos {
			buf.EncodeFixed64(math.Float64bits(c))
		}
	}
	buf.EncodeVarint(uint64(len(mesh.Edges)))
	for _, e := range mesh.Edges {
		buf.EncodeVarint(uint64(e.Origin))
		buf.EncodeVarint(uint64(e.Destination))
	}

	buf.EncodeZigzag64(uint64(int64(opts.Root)))
	buf.EncodeVarint(uint64(opts.MaxRetries))
	if opts.AllowUnordered {
		buf.EncodeVarint(1)
	} else {
		buf.EncodeVarint(0)
	}

	for class := rnacad.MotifHairpin; class <= rnacad.MotifKissingLoop; class++ {
		variants := motifs.Variants(class)
		buf.EncodeVarint(uint64(len(variants)))
		for _, motif := range variants {
			buf.EncodeStringBytes(motif)
		}
	}
	return buf.Bytes()
}
