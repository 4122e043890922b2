package rnacad

// Bases is the nucleotide alphabet edge sequences are drawn from.
const Bases = "AGCU"

// Dot-bracket symbols
const (
	Unpaired  = '.'
	OpenPair  = '('
	ClosePair = ')'
)

// Complement returns the Watson-Crick partner of a base (A<->U, G<->C).
// Any other byte is returned unchanged.
func Complement(base byte) byte {
	switch base {
	case 'A':
		return 'U'
	case 'U':
		return 'A'
	case 'G':
		return 'C'
	case 'C':
		return 'G'
	}
	return base
}

// ReverseComplement returns the strand that pairs with seq when read in the opposite direction.
func ReverseComplement(seq string) string {
	N := len(seq)
	out := make([]byte, N)
	for i := 0; i < N; i++ {
		out[N-1-i] = Complement(seq[i])
	}
	return string(out)
}

// IsNucleotides reports whether seq is made only of A, G, C and U.
func IsNucleotides(seq string) bool {
	for i := 0; i < len(seq); i++ {
		switch seq[i] {
		case 'A', 'G', 'C', 'U':
		default:
			return false
		}
	}
	return true
}

// CountPairs returns the number of open and close pair symbols in a dot-bracket string.
func CountPairs(structure string) (opened, closed int) {
	for i := 0; i < len(structure); i++ {
		switch structure[i] {
		case OpenPair:
			opened++
		case ClosePair:
			closed++
		}
	}
	return
}

// AppendDesc appends a compact rendering of path, e.g. "4 0 K5 0 4".
func (path Path) AppendDesc(io []byte) []byte {
	for i, step := range path {
		if i > 0 {
			io = append(io, ' ')
		}
		if step.Kind == StepKissingLoop {
			io = append(io, 'K')
		}
		io = appendInt(io, int(step.Node))
	}
	return io
}

func appendInt(io []byte, val int) []byte {
	var digits [20]byte
	if val < 0 {
		io = append(io, '-')
		val = -val
	}
	N := 0
	for {
		next := val / 10
		digits[N] = '0' + byte(val-10*next)
		N++
		val = next
		if val == 0 {
			break
		}
	}
	for i := N - 1; i >= 0; i-- {
		io = append(io, digits[i])
	}
	return io
}
