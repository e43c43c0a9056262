package ring

// ReduceVec evaluates p2 = p1 mod q.
func ReduceVec(p1, p2 []uint64, q uint64, brc [2]uint64) {
	for j := range p1 {
		p2[j] = BRedAdd(p1[j], q, brc)
	}
}

// AddVec evaluates p3 = p1 + p2 mod q, with p1, p2 in [0, q-1].
func AddVec(p1, p2, p3 []uint64, q uint64) {
	for j := range p1 {
		p3[j] = CRed(p1[j]+p2[j], q)
	}
}

// SubVec evaluates p3 = p1 - p2 mod q, with p1, p2 in [0, q-1].
func SubVec(p1, p2, p3 []uint64, q uint64) {
	for j := range p1 {
		p3[j] = CRed(p1[j]+q-p2[j], q)
	}
}

// NegVec evaluates p2 = -p1 mod q, with p1 in [0, q-1].
func NegVec(p1, p2 []uint64, q uint64) {
	for j := range p1 {
		p2[j] = CRed(q-p1[j], q)
	}
}

// MulScalarVec evaluates p2 = p1 * scalar mod q.
func MulScalarVec(p1 []uint64, scalar uint64, p2 []uint64, q uint64, brc [2]uint64) {
	scalar = BRedAdd(scalar, q, brc)
	for j := range p1 {
		p2[j] = BRed(p1[j], scalar, q, brc)
	}
}
