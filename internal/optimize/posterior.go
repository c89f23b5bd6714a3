package optimize

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/aristath/quantport/internal/domain"
)

// posteriorReturns computes spec.md §4.4's standard BL closed form:
//
//	μ_bl = [(τΣ)⁻¹ + PᵀΩ⁻¹P]⁻¹ · [(τΣ)⁻¹π + PᵀΩ⁻¹Q]
//
// Grounded on the teacher's BlendViewsWithEquilibrium, kept linear-algebra
// step for step. P is the identity matrix here — one absolute view per
// ticker, in the same order as sigma and pi — so PᵀΩ⁻¹P and PᵀΩ⁻¹Q reduce
// to Ω⁻¹ and Ω⁻¹Q, but the full P-carrying form is kept to stay
// line-for-line adaptable if relative views are ever added.
func posteriorReturns(sigma *mat.Dense, pi *mat.VecDense, views []domain.ViewSpec, omega *mat.Dense, tau float64) (*mat.VecDense, error) {
	n, _ := sigma.Dims()
	m := len(views)

	q := mat.NewVecDense(m, nil)
	p := mat.NewDense(m, n, nil)
	for i, v := range views {
		q.SetVec(i, v.ImpliedExcessReturn)
		p.Set(i, i, 1.0) // view i is the absolute view on ticker i
	}

	tauSigma := mat.NewDense(n, n, nil)
	tauSigma.Scale(tau, sigma)

	var tauSigmaInv mat.Dense
	if err := tauSigmaInv.Inverse(tauSigma); err != nil {
		return nil, fmt.Errorf("%w: invert τΣ: %v", domain.ErrSingularCovariance, err)
	}

	var omegaInv mat.Dense
	if err := omegaInv.Inverse(omega); err != nil {
		return nil, fmt.Errorf("%w: invert Ω: %v", domain.ErrSingularCovariance, err)
	}

	var pTrans mat.Dense
	pTrans.CloneFrom(p.T())
	var pTransOmegaInv mat.Dense
	pTransOmegaInv.Mul(&pTrans, &omegaInv)
	var pTransOmegaInvP mat.Dense
	pTransOmegaInvP.Mul(&pTransOmegaInv, p)

	var mSum mat.Dense
	mSum.Add(&tauSigmaInv, &pTransOmegaInvP)

	var mInv mat.Dense
	if err := mInv.Inverse(&mSum); err != nil {
		return nil, fmt.Errorf("%w: invert BL blend matrix: %v", domain.ErrSingularCovariance, err)
	}

	var tauSigmaInvPi mat.VecDense
	tauSigmaInvPi.MulVec(&tauSigmaInv, pi)

	var pTransOmegaInvQ mat.VecDense
	pTransOmegaInvQ.MulVec(&pTransOmegaInv, q)

	var rhs mat.VecDense
	rhs.AddVec(&tauSigmaInvPi, &pTransOmegaInvQ)

	mu := mat.NewVecDense(n, nil)
	mu.MulVec(&mInv, &rhs)
	return mu, nil
}
