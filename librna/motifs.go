package librna

import (
	"github.com/pkg/errors"

	"github.com/fine-structures/rnacad/rnacad"
)

// MotifStorage is an in-memory MotifTable.
//
// Junction variants are ordered by visit: the n-th time the strand passes through a junction it emits the n-th
// variant. A class with a single variant emits it on every visit.
type MotifStorage struct {
	Hairpin     []string
	Kink        []string
	ThreeWay    []string
	FourWay     []string
	KissingLoop []string // if empty, kissing loops use Hairpin
}

// DefaultMotifs holds the stock kink, junction and kissing hairpin motifs.
var DefaultMotifs = &MotifStorage{
	Hairpin:     []string{"UGGUAAUCGA"},
	Kink:        []string{"AGCUUACUG"},
	ThreeWay:    []string{"UACUAA", "UUGUUUC", "GUGUA"},
	FourWay:     []string{"AGGGUUAGCC", "CAUACCGCAA", "AGUGAAAGUU", "GGUCGAUCAC"},
	KissingLoop: []string{"GGUCCUAAGU"},
}

func (ms *MotifStorage) Variants(class rnacad.MotifClass) []string {
	switch class {
	case rnacad.MotifHairpin:
		return ms.Hairpin
	case rnacad.MotifKink:
		return ms.Kink
	case rnacad.MotifThreeWayJunction:
		return ms.ThreeWay
	case rnacad.MotifFourWayJunction:
		return ms.FourWay
	case rnacad.MotifKissingLoop:
		if len(ms.KissingLoop) > 0 {
			return ms.KissingLoop
		}
		return ms.Hairpin
	}
	return nil
}

// Validate checks that every configured template is a nucleotide string.
func (ms *MotifStorage) Validate() error {
	for class := rnacad.MotifHairpin; class <= rnacad.MotifKissingLoop; class++ {
		for i, motif := range ms.Variants(class) {
			if len(motif) == 0 || !rnacad.IsNucleotides(motif) {
				return errors.Wrapf(rnacad.ErrBadConfig, "%v motif %d (%q) is not a nucleotide string", class, i, motif)
			}
		}
	}
	return nil
}

// motifTemplate picks the template a node of the given class emits on its visit-th pass (zero-based).
func motifTemplate(table rnacad.MotifTable, class rnacad.MotifClass, visit int) (string, error) {
	variants := table.Variants(class)
	switch {
	case len(variants) == 0:
		return "", errors.Wrapf(rnacad.ErrMissingMotif, "no %v template", class)
	case len(variants) == 1:
		return variants[0], nil
	case visit < len(variants):
		return variants[visit], nil
	}
	return "", errors.Wrapf(rnacad.ErrMissingMotif, "%v has %d templates, visit %d requested", class, len(variants), visit+1)
}
