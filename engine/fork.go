package engine

// ForkName identifies which execution payload schema applies.
type ForkName int

const (
	ForkMerge ForkName = iota
	ForkShanghai
	ForkCancun
)

// String returns the fork name.
func (f ForkName) String() string {
	switch f {
	case ForkMerge:
		return "merge"
	case ForkShanghai:
		return "shanghai"
	case ForkCancun:
		return "cancun"
	default:
		return "unknown"
	}
}

const (
	secondsPerSlot = 12
	slotsPerEpoch  = 32
)

// ForkConfig holds a network's genesis time and fork activation epochs.
// Nil epochs mean the fork is not scheduled.
type ForkConfig struct {
	GenesisTime       uint64  `yaml:"genesis_time" mapstructure:"genesis_time"`
	ShanghaiForkEpoch *uint64 `yaml:"shanghai_fork_epoch" mapstructure:"shanghai_fork_epoch"`
	CancunForkEpoch   *uint64 `yaml:"cancun_fork_epoch" mapstructure:"cancun_fork_epoch"`
}

// MainnetForkConfig is the Ethereum mainnet schedule.
func MainnetForkConfig() ForkConfig {
	shanghai := uint64(194048)
	cancun := uint64(269568)
	return ForkConfig{
		GenesisTime:       1606824023,
		ShanghaiForkEpoch: &shanghai,
		CancunForkEpoch:   &cancun,
	}
}

// HoleskyForkConfig is the Holesky testnet schedule.
func HoleskyForkConfig() ForkConfig {
	shanghai := uint64(256)
	cancun := uint64(29696)
	return ForkConfig{
		GenesisTime:       1695902400,
		ShanghaiForkEpoch: &shanghai,
		CancunForkEpoch:   &cancun,
	}
}

// ForkAtEpoch returns the active fork for a beacon epoch.
func (c *ForkConfig) ForkAtEpoch(epoch uint64) ForkName {
	if c.CancunForkEpoch != nil && epoch >= *c.CancunForkEpoch {
		return ForkCancun
	}
	if c.ShanghaiForkEpoch != nil && epoch >= *c.ShanghaiForkEpoch {
		return ForkShanghai
	}
	return ForkMerge
}

// ForkAtTimestamp maps an execution payload timestamp to its fork via
// the beacon slot and epoch schedule. Timestamps before genesis are not
// representable.
func (c *ForkConfig) ForkAtTimestamp(timestamp uint64) (ForkName, bool) {
	if timestamp < c.GenesisTime {
		return ForkMerge, false
	}
	slot := (timestamp - c.GenesisTime) / secondsPerSlot
	return c.ForkAtEpoch(slot / slotsPerEpoch), true
}
