package gbdt

import "unsafe"

// eps guards against division by zero in the gain and leaf-value formulas.
const eps = 1e-12

// GPair is an additive gradient/hessian pair. Its zero value is the
// additive identity. Because the struct packs two float64 fields with no
// padding, a []GPair is byte-identical to a []float64 of twice the length —
// gpairsAsFloat64 exposes that view for handing a histogram slab to an
// AllReducer.
type GPair struct {
	G, H float64
}

// Add returns the componentwise sum of p and q.
func (p GPair) Add(q GPair) GPair { return GPair{p.G + q.G, p.H + q.H} }

// Sub returns the componentwise difference p - q.
func (p GPair) Sub(q GPair) GPair { return GPair{p.G - q.G, p.H - q.H} }

// gpairsAsFloat64 reinterprets s as a flat slice of its underlying doubles,
// in (g0, h0, g1, h1, ...) order. The returned slice aliases s.
func gpairsAsFloat64(s []GPair) []float64 {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&s[0])), len(s)*2)
}

// CalculateLeafValue returns the L2-regularized closed-form leaf value
// -G / (H + max(eps, alpha)).
func CalculateLeafValue(g, h, alpha float64) float64 {
	return -g / (h + regTerm(alpha))
}

func regTerm(alpha float64) float64 {
	if alpha > eps {
		return alpha
	}
	return eps
}
