package keeper

import (
	"encoding/binary"
	"math"
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"

	"compactvault/x/compact/types"
)

// NotScheduled marks an emissary configuration without a pending reassignment.
const NotScheduled uint64 = math.MaxUint64

// EmissaryStatus is the state of a sponsor's emissary for one lock tag.
type EmissaryStatus uint8

const (
	EmissaryDisabled EmissaryStatus = iota
	EmissaryEnabled
	EmissaryScheduled
)

func (s EmissaryStatus) String() string {
	switch s {
	case EmissaryDisabled:
		return "disabled"
	case EmissaryEnabled:
		return "enabled"
	case EmissaryScheduled:
		return "scheduled"
	default:
		return "unknown"
	}
}

type emissaryConfig struct {
	emissary     common.Address
	assignableAt uint64
}

func (k Keeper) getEmissaryConfig(ctx sdk.Context, sponsor common.Address, tag types.LockTag) emissaryConfig {
	bz := ctx.KVStore(k.storeKey).Get(types.EmissaryStoreKey(sponsor, tag))
	if len(bz) != 28 {
		return emissaryConfig{assignableAt: NotScheduled}
	}
	return emissaryConfig{
		emissary:     common.BytesToAddress(bz[:20]),
		assignableAt: binary.BigEndian.Uint64(bz[20:]),
	}
}

func (k Keeper) setEmissaryConfig(ctx sdk.Context, sponsor common.Address, tag types.LockTag, cfg emissaryConfig) {
	store := ctx.KVStore(k.storeKey)
	key := types.EmissaryStoreKey(sponsor, tag)
	if cfg.emissary == (common.Address{}) && cfg.assignableAt == NotScheduled {
		store.Delete(key)
		return
	}
	bz := make([]byte, 28)
	copy(bz[:20], cfg.emissary.Bytes())
	binary.BigEndian.PutUint64(bz[20:], cfg.assignableAt)
	store.Set(key, bz)
}

func (c emissaryConfig) status() EmissaryStatus {
	switch {
	case c.assignableAt != NotScheduled:
		return EmissaryScheduled
	case c.emissary != (common.Address{}):
		return EmissaryEnabled
	default:
		return EmissaryDisabled
	}
}

// GetEmissaryStatus returns the status, pending assignableAt (NotScheduled
// when none) and current emissary of sponsor for tag.
func (k Keeper) GetEmissaryStatus(ctx sdk.Context, sponsor common.Address, tag types.LockTag) (EmissaryStatus, uint64, common.Address) {
	cfg := k.getEmissaryConfig(ctx, sponsor, tag)
	return cfg.status(), cfg.assignableAt, cfg.emissary
}

// ScheduleEmissaryAssignment opens a reassignment window that starts one
// reset period from now and returns its start.
func (k Keeper) ScheduleEmissaryAssignment(ctx sdk.Context, sponsor common.Address, tag types.LockTag) (uint64, error) {
	cfg := k.getEmissaryConfig(ctx, sponsor, tag)
	if cfg.status() == EmissaryScheduled {
		return 0, types.ErrEmissaryAlreadyScheduled.Wrapf("assignable at %d", cfg.assignableAt)
	}
	cfg.assignableAt = blockTimestamp(ctx) + tag.ResetPeriod().Seconds()
	k.setEmissaryConfig(ctx, sponsor, tag, cfg)

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeEmissaryAssignmentSchedule,
		sdk.NewAttribute(types.AttributeKeySponsor, sponsor.Hex()),
		sdk.NewAttribute(types.AttributeKeyLockTag, tag.String()),
		sdk.NewAttribute(types.AttributeKeyAssignableAt, strconv.FormatUint(cfg.assignableAt, 10)),
	))
	k.Logger(ctx).Info("scheduled emissary assignment",
		"sponsor", sponsor.Hex(),
		"lock_tag", tag.String(),
		"assignable_at", cfg.assignableAt,
	)
	return cfg.assignableAt, nil
}

// AssignEmissary sets or, with the zero address, clears sponsor's emissary
// for tag. Replacing an active emissary requires an elapsed scheduled window.
func (k Keeper) AssignEmissary(ctx sdk.Context, sponsor common.Address, tag types.LockTag, emissary common.Address) error {
	if emissary != (common.Address{}) {
		allocator, err := k.allocatorFor(ctx, tag)
		if err != nil {
			return err
		}
		if allocator == emissary {
			return types.ErrInvalidEmissaryAssignment.Wrapf("allocator %s cannot act as emissary", allocator.Hex())
		}
	}

	cfg := k.getEmissaryConfig(ctx, sponsor, tag)
	if cfg.emissary != (common.Address{}) && blockTimestamp(ctx) < cfg.assignableAt {
		return &types.EmissaryAssignmentUnavailableError{AssignableAt: cfg.assignableAt}
	}
	k.setEmissaryConfig(ctx, sponsor, tag, emissaryConfig{emissary: emissary, assignableAt: NotScheduled})

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeEmissaryAssigned,
		sdk.NewAttribute(types.AttributeKeySponsor, sponsor.Hex()),
		sdk.NewAttribute(types.AttributeKeyLockTag, tag.String()),
		sdk.NewAttribute(types.AttributeKeyEmissary, emissary.Hex()),
	))
	k.Logger(ctx).Info("assigned emissary",
		"sponsor", sponsor.Hex(),
		"lock_tag", tag.String(),
		"emissary", emissary.Hex(),
	)
	return nil
}
