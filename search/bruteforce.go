package search

import (
	"math/big"

	"github.com/schollz/progressbar/v3"

	"github.com/zkscout/zkscout/executor"
)

// fallbackRange bounds full brute force when the field is too large to
// enumerate; the search degrades to the heuristic window.
const fallbackRange = 100

// maxFullDomain caps the materialized domain of a full enumeration; primes
// above it use the heuristic window even when they fit in an int64.
const maxFullDomain = 1 << 16

// BruteForceSearch enumerates assignments of the participating variables
// over a value domain in lexicographic order and stops at the first
// vulnerable verdict. Quick mode tries {0, 1, p-1}; a configured range
// restricts the domain to a window around 0 and p.
func (s *Searcher) BruteForceSearch() *CounterExample {
	domain := s.bruteForceDomain()
	if len(domain) == 0 || len(s.vars) == 0 {
		return nil
	}

	total := big.NewInt(1)
	size := big.NewInt(int64(len(domain)))
	for range s.vars {
		total.Mul(total, size)
	}
	var bar *progressbar.ProgressBar
	if s.setting.ProgressInterval > 0 {
		n := int64(-1)
		if total.IsInt64() {
			n = total.Int64()
		}
		bar = progressbar.Default(n, "brute force")
	}

	idx := make([]int, len(s.vars))
	for {
		asg := executor.NewAssignment()
		for i, n := range s.vars {
			asg.Set(n, domain[idx[i]])
		}
		if bar != nil {
			_ = bar.Add(1)
		}
		if ce := s.counterExampleFor(asg); ce != nil {
			return ce
		}

		// lexicographic odometer, last variable fastest
		pos := len(idx) - 1
		for pos >= 0 {
			idx[pos]++
			if idx[pos] < len(domain) {
				break
			}
			idx[pos] = 0
			pos--
		}
		if pos < 0 {
			return nil
		}
	}
}

func (s *Searcher) bruteForceDomain() []*big.Int {
	p := s.f.Prime()

	if s.setting.QuickMode {
		return dedupValues([]*big.Int{
			big.NewInt(0),
			big.NewInt(1),
			new(big.Int).Sub(p, big.NewInt(1)),
		})
	}

	r := s.setting.Range
	if r <= 0 {
		if p.IsInt64() && p.Int64() <= maxFullDomain {
			// small fields enumerate fully
			out := make([]*big.Int, p.Int64())
			for i := range out {
				out[i] = big.NewInt(int64(i))
			}
			return out
		}
		s.log.Warn().Str("prime", p.String()).
			Msg("field too large for full brute force; using heuristic window")
		r = fallbackRange
	}

	var out []*big.Int
	for i := -r; i <= r; i++ {
		out = append(out, s.f.Normalize(big.NewInt(int64(i))))
	}
	for i := int64(r); i >= 1; i-- {
		out = append(out, new(big.Int).Sub(p, big.NewInt(i)))
	}
	return dedupValues(out)
}

func dedupValues(vs []*big.Int) []*big.Int {
	seen := make(map[string]bool, len(vs))
	out := vs[:0]
	for _, v := range vs {
		k := v.String()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}
