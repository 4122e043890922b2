package rnacad

import (
	"math/rand/v2"
	"testing"
)

func TestReverseComplement(t *testing.T) {
	if got := ReverseComplement("AAGC"); got != "GCUU" {
		t.Fatalf("ReverseComplement(AAGC) = %q, want GCUU", got)
	}
	if got := ReverseComplement(""); got != "" {
		t.Fatalf("ReverseComplement of empty = %q", got)
	}

	rng := rand.New(rand.NewPCG(7, 11))
	for n := 0; n < 64; n++ {
		seq := make([]byte, n)
		for i := range seq {
			seq[i] = Bases[rng.IntN(len(Bases))]
		}
		s := string(seq)
		if ReverseComplement(ReverseComplement(s)) != s {
			t.Fatalf("reverse complement is not an involution for %q", s)
		}
		rc := ReverseComplement(s)
		for i := 0; i < n; i++ {
			if Complement(s[i]) != rc[n-1-i] {
				t.Fatalf("%q and %q do not pair at %d", s, rc, i)
			}
		}
	}
}

func TestCountPairs(t *testing.T) {
	opened, closed := CountPairs("((..((...))..))")
	if opened != 4 || closed != 4 {
		t.Fatalf("got %d open / %d close", opened, closed)
	}
}

func TestPathDesc(t *testing.T) {
	path := Path{
		{StepTraverse, 4},
		{StepTraverse, 0},
		{StepKissingLoop, 5},
		{StepTraverse, 0},
		{StepTraverse, 4},
	}
	if got := string(path.AppendDesc(nil)); got != "4 0 K5 0 4" {
		t.Fatalf("AppendDesc = %q", got)
	}
}

func TestConnectivityClass(t *testing.T) {
	want := []MotifClass{MotifNil, MotifHairpin, MotifKink, MotifThreeWayJunction, MotifFourWayJunction, MotifNil}
	for n, class := range want {
		if got := ConnectivityClass(n); got != class {
			t.Errorf("ConnectivityClass(%d) = %v, want %v", n, got, class)
		}
	}
}
