package contract

import "crowdfund_dao/sdk"

const (
	// kConfig holds the deployment config, written once.
	kConfig byte = 0x01
	// kTreasury holds the single pool aggregate.
	kTreasury byte = 0x02
	// kTrigger holds the registered automation trigger address.
	kTrigger byte = 0x03
	// kClock holds the logical clock high-water mark.
	kClock byte = 0x04
	// kMember houses encoded Member structs keyed by address.
	kMember byte = 0x05
	// kProposal contains encoded Proposal records.
	kProposal byte = 0x10
	// kVote stores one receipt per proposal+voter.
	kVote byte = 0x20
	// kEvent stores the append-only event log by sequence number.
	kEvent byte = 0x30
)

// packU64LEInline writes x into dst in little-endian order so keys stay compact.
func packU64LEInline(x uint64, dst []byte) {
	dst[0] = byte(x)
	dst[1] = byte(x >> 8)
	dst[2] = byte(x >> 16)
	dst[3] = byte(x >> 24)
	dst[4] = byte(x >> 32)
	dst[5] = byte(x >> 40)
	dst[6] = byte(x >> 48)
	dst[7] = byte(x >> 56)
}

func singletonKey(prefix byte) string {
	return string([]byte{prefix})
}

func idKey(prefix byte, id uint64) string {
	var buf [9]byte
	buf[0] = prefix
	packU64LEInline(id, buf[1:])
	return string(buf[:])
}

func configKey() string   { return singletonKey(kConfig) }
func treasuryKey() string { return singletonKey(kTreasury) }
func triggerKey() string  { return singletonKey(kTrigger) }
func clockKey() string    { return singletonKey(kClock) }

// memberKey appends the raw address bytes to the prefix.
func memberKey(addr sdk.Address) string {
	a := addr.String()
	buf := make([]byte, 0, 1+len(a))
	buf = append(buf, kMember)
	buf = append(buf, a...)
	return string(buf)
}

func proposalKey(id uint64) string { return idKey(kProposal, id) }

// voteKey mixes proposal id plus voter address so each pair has exactly one slot.
func voteKey(id uint64, voter sdk.Address) string {
	a := voter.String()
	buf := make([]byte, 9, 9+len(a))
	buf[0] = kVote
	packU64LEInline(id, buf[1:])
	buf = append(buf, a...)
	return string(buf)
}

func eventKey(seq uint64) string { return idKey(kEvent, seq) }
