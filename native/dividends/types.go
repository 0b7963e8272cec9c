package dividends

import "math/big"

// Accrual is the per-property cumulative-dividend-per-share accumulator. The
// index is scaled by Scale so integer arithmetic keeps fractional precision;
// Residue carries the sub-share remainder of each deposit forward so rounding
// never overpays and nothing is lost across deposits.
type Accrual struct {
	CumulativePerShare *big.Int
	TotalDeposited     *big.Int
	Residue            *big.Int
}

// Clone returns a deep copy of the accrual record.
func (a *Accrual) Clone() *Accrual {
	if a == nil {
		return nil
	}
	return &Accrual{
		CumulativePerShare: cloneBigInt(a.CumulativePerShare),
		TotalDeposited:     cloneBigInt(a.TotalDeposited),
		Residue:            cloneBigInt(a.Residue),
	}
}

// HolderCheckpoint records how far a single holder has settled against the
// accumulator and how much they have accrued but not yet claimed.
type HolderCheckpoint struct {
	LastCumulative *big.Int
	Unclaimed      *big.Int
}

// Clone returns a deep copy of the checkpoint record.
func (c *HolderCheckpoint) Clone() *HolderCheckpoint {
	if c == nil {
		return nil
	}
	return &HolderCheckpoint{
		LastCumulative: cloneBigInt(c.LastCumulative),
		Unclaimed:      cloneBigInt(c.Unclaimed),
	}
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func newAccrual() *Accrual {
	return &Accrual{
		CumulativePerShare: big.NewInt(0),
		TotalDeposited:     big.NewInt(0),
		Residue:            big.NewInt(0),
	}
}

func newCheckpoint() *HolderCheckpoint {
	return &HolderCheckpoint{
		LastCumulative: big.NewInt(0),
		Unclaimed:      big.NewInt(0),
	}
}
