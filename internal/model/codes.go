package model

// Channel is the medium through which a transaction was made.
type Channel string

// Channel constants.
const (
	ChannelBranch Channel = "BRANCH"
	ChannelATM    Channel = "ATM"
	ChannelOnline Channel = "ONLINE"
	ChannelMobile Channel = "MOBILE"
)

// channelCodes is a versioned mapping from channel to feature code.
// Codes are stable across runs and across the scoring loop and the
// evaluator; never reassign an existing code, only append.
var channelCodes = map[Channel]int{
	ChannelBranch: 0,
	ChannelATM:    1,
	ChannelOnline: 2,
	ChannelMobile: 3,
}

// Code returns the stable integer feature code for the channel.
// Unknown channels map to -1.
func (c Channel) Code() int {
	if code, ok := channelCodes[c]; ok {
		return code
	}
	return -1
}

// Valid reports whether the channel is one of the known constants.
func (c Channel) Valid() bool {
	_, ok := channelCodes[c]
	return ok
}

// regionCodes is the versioned mapping for the regions the bank
// operates in. Same append-only discipline as channelCodes; regions
// outside this table get run-local codes assigned after it.
var regionCodes = map[string]int{
	"North": 0,
	"South": 1,
	"East":  2,
	"West":  3,
}

// RegionCodeBase is the first code available for regions not present
// in the versioned table.
const RegionCodeBase = 4

// RegionCode returns the stable integer feature code for a region and
// whether the region is in the versioned table.
func RegionCode(region string) (int, bool) {
	code, ok := regionCodes[region]
	return code, ok
}
