package ring

import (
	"fmt"
	"math/big"
)

// IsPrime applies the Baillie-PSW, which is 100% accurate for numbers below 2^64.
func IsPrime(x uint64) bool {
	return new(big.Int).SetUint64(x).ProbablyPrime(0)
}

// NextPrime returns the smallest prime strictly larger than q.
func NextPrime(q uint64) (qNext uint64, err error) {

	for qNext = q + 1; !IsPrime(qNext); qNext++ {
		if qNext == 0 {
			return 0, fmt.Errorf("next prime exceeds 64 bits")
		}
	}

	return qNext, nil
}

// PreviousPrime returns the largest prime strictly smaller than q.
func PreviousPrime(q uint64) (qPrev uint64, err error) {

	if q <= 2 {
		return 0, fmt.Errorf("there is no prime smaller than %d", q)
	}

	for qPrev = q - 1; !IsPrime(qPrev); qPrev-- {
		if qPrev <= 2 {
			return 0, fmt.Errorf("there is no prime smaller than %d", q)
		}
	}

	return qPrev, nil
}

// GenerateModuli returns count distinct primes strictly smaller than bound,
// starting from the largest one and walking downward. Distinct primes are
// pairwise coprime and can directly be used as a [Basis].
func GenerateModuli(bound uint64, count int) (primes []uint64, err error) {

	if count < 1 {
		return nil, fmt.Errorf("ring.GenerateModuli: count must be positive")
	}

	primes = make([]uint64, 0, count)

	q := bound
	for len(primes) < count {
		if q, err = PreviousPrime(q); err != nil {
			return nil, fmt.Errorf("ring.GenerateModuli: cannot generate %d primes below %d: %w", count, bound, err)
		}
		primes = append(primes, q)
	}

	return
}

// ChannelBound returns the largest modulus q such that the sum of length
// products of two residues modulo q, i.e. length*(q-1)^2, stays strictly
// below exactBound. It returns 0 if no modulus larger than 1 qualifies.
func ChannelBound(exactBound uint64, length int) uint64 {

	if exactBound == 0 || length < 1 {
		return 0
	}

	// (q-1)^2 <= (exactBound-1)/length
	r := new(big.Int).SetUint64((exactBound - 1) / uint64(length))
	r.Sqrt(r)

	if r.Sign() == 0 {
		return 0
	}

	return r.Uint64() + 1
}

// BitLen returns the bit-size of the product of the moduli.
func BitLen(moduli []uint64) (n int) {
	Q := big.NewInt(1)
	for _, qi := range moduli {
		Q.Mul(Q, new(big.Int).SetUint64(qi))
	}
	return Q.BitLen()
}
