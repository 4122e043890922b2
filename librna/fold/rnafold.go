package fold

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/plan-systems/klog"

	"github.com/fine-structures/rnacad/rnacad"
)

// DefaultArgs are passed to RNAfold when RNAfold.Args is nil.
var DefaultArgs = []string{"-d2", "--noLP", "--noPS"}

// RNAfold predicts structures by running the ViennaRNA RNAfold binary, one process per sequence.
type RNAfold struct {
	Binary   string   // defaults to "RNAfold" on $PATH
	Args     []string // defaults to DefaultArgs
	Circular bool     // fold the strand as a circle (--circ)
}

func (rf *RNAfold) Predict(ctx context.Context, sequence string) (string, error) {
	binary := rf.Binary
	if binary == "" {
		binary = "RNAfold"
	}
	args := rf.Args
	if args == nil {
		args = DefaultArgs
	}
	if rf.Circular {
		args = append(append([]string(nil), args...), "--circ")
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdin = strings.NewReader(sequence + "\n")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return "", errors.Wrapf(rnacad.ErrPredictorFailed, "%s: %v: %s", binary, err, strings.TrimSpace(stderr.String()))
	}

	structure, err := ParseOutput(out)
	if err != nil {
		return "", err
	}
	if len(structure) != len(sequence) {
		return "", errors.Wrapf(rnacad.ErrPredictorFailed, "predicted %d symbols for a %d nt sequence", len(structure), len(sequence))
	}
	klog.V(3).Infof("%s: %d nt folded", binary, len(sequence))
	return structure, nil
}

// ParseOutput returns the structure from RNAfold output: the first field of the second line.
//
//	GGGAAAUCC
//	((.....)) ( -1.20)
func ParseOutput(out []byte) (string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 0; scanner.Scan(); line++ {
		if line == 1 {
			fields := strings.Fields(scanner.Text())
			if len(fields) == 0 {
				break
			}
			return fields[0], nil
		}
	}
	return "", errors.Wrap(rnacad.ErrPredictorFailed, "no structure line in RNAfold output")
}
