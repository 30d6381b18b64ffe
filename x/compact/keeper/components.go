package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"compactvault/x/compact/types"
)

func amountOf(c types.Component) *uint256.Int {
	if c.Amount == nil {
		return new(uint256.Int)
	}
	return c.Amount
}

// checkAllocation verifies that no lock pays out more than was allocated.
// Every lock is checked before the first component executes.
func checkAllocation(settlements []types.Settlement) error {
	for _, s := range settlements {
		spent := new(uint256.Int)
		for _, c := range s.Components {
			if _, overflow := spent.AddOverflow(spent, amountOf(c)); overflow {
				return types.ErrArithmeticOverflow.Wrapf("claimant amounts of %s", s.ID)
			}
		}
		if spent.Gt(s.AllocatedAmount) {
			return &types.AllocatedAmountExceededError{
				Allocated: new(uint256.Int).Set(s.AllocatedAmount),
				Spent:     spent,
			}
		}
	}
	return nil
}

// distribute pays every component of the claim out of the sponsor's locks.
func (k Keeper) distribute(ctx sdk.Context, env types.Envelope) error {
	if err := checkAllocation(env.Settlements); err != nil {
		return err
	}
	for _, s := range env.Settlements {
		for _, c := range s.Components {
			if err := k.settleComponent(ctx, env.Arbiter, env.Sponsor, s.ID, c); err != nil {
				return err
			}
		}
	}
	return nil
}

// settleComponent resolves the claimant's lock tag: zero withdraws the
// underlying asset, the source tag moves the balance, any other tag
// re-locks the amount under that tag.
func (k Keeper) settleComponent(ctx sdk.Context, operator, sponsor common.Address, id types.LockID, c types.Component) error {
	tag := c.LockTag()
	recipient := c.Recipient()
	amount := amountOf(c)

	switch {
	case tag.IsZero():
		return k.withdraw(ctx, sponsor, recipient, id, amount)
	case tag == id.Tag:
		return k.move(ctx, operator, sponsor, recipient, id, amount)
	default:
		if _, err := k.allocatorFor(ctx, tag); err != nil {
			return err
		}
		if err := k.burn(ctx, sponsor, id, amount); err != nil {
			return err
		}
		return k.mint(ctx, recipient, id.WithTag(tag), amount)
	}
}
