package dao

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"crowdfund_dao/sdk"
)

// codecVersion prefixes every record so layouts can evolve without a migration.
const codecVersion byte = 1

var errUnexpectedEOF = errors.New("unexpected EOF")

type binWriter struct {
	buf bytes.Buffer
}

func newWriter() *binWriter {
	w := &binWriter{}
	w.buf.WriteByte(codecVersion)
	return w
}

func (w *binWriter) bytes() []byte { return w.buf.Bytes() }

func (w *binWriter) writeByte(b byte) { w.buf.WriteByte(b) }

func (w *binWriter) writeBool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

func (w *binWriter) writeUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *binWriter) writeInt64(v int64) {
	w.writeUint64(uint64(v))
}

func (w *binWriter) writeVarUint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	w.buf.Write(tmp[:n])
}

func (w *binWriter) writeAmount(v Amount) {
	w.writeInt64(int64(v))
}

func (w *binWriter) writeString(s string) {
	w.writeVarUint(uint64(len(s)))
	w.buf.WriteString(s)
}

func (w *binWriter) writeAddress(a sdk.Address) {
	w.writeString(a.String())
}

// binReader keeps the first error and turns every later read into a no-op,
// so decoders can read a whole record and check once.
type binReader struct {
	data []byte
	pos  int
	err  error
}

func newReader(data []byte) *binReader {
	r := &binReader{data: data}
	v := r.readByte()
	if r.err == nil && v != codecVersion {
		r.err = fmt.Errorf("unsupported record version %d", v)
	}
	return r
}

func (r *binReader) readByte() byte {
	if r.err != nil {
		return 0
	}
	if r.pos >= len(r.data) {
		r.err = errUnexpectedEOF
		return 0
	}
	b := r.data[r.pos]
	r.pos++
	return b
}

func (r *binReader) readBool() bool {
	return r.readByte() == 1
}

func (r *binReader) readUint64() uint64 {
	if r.err != nil {
		return 0
	}
	if r.pos+8 > len(r.data) {
		r.err = errUnexpectedEOF
		return 0
	}
	val := binary.BigEndian.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8
	return val
}

func (r *binReader) readInt64() int64 {
	return int64(r.readUint64())
}

func (r *binReader) readVarUint() uint64 {
	if r.err != nil {
		return 0
	}
	val, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 {
		r.err = errors.New("invalid varuint")
		return 0
	}
	r.pos += n
	return val
}

func (r *binReader) readAmount() Amount {
	return Amount(r.readInt64())
}

func (r *binReader) readString() string {
	l := r.readVarUint()
	if r.err != nil {
		return ""
	}
	if l > uint64(len(r.data)-r.pos) {
		r.err = errUnexpectedEOF
		return ""
	}
	s := string(r.data[r.pos : r.pos+int(l)])
	r.pos += int(l)
	return s
}

func (r *binReader) readAddress() sdk.Address {
	return sdk.Address(r.readString())
}

func (r *binReader) done(what string) error {
	if r.err != nil {
		return fmt.Errorf("decode %s: %w", what, r.err)
	}
	if r.pos != len(r.data) {
		return fmt.Errorf("decode %s: %d trailing bytes", what, len(r.data)-r.pos)
	}
	return nil
}

func EncodeConfig(c *Config) []byte {
	w := newWriter()
	w.writeAddress(c.Owner)
	w.writeVarUint(uint64(c.DaoPercentage))
	w.writeAmount(c.StakeholderThreshold)
	w.writeInt64(c.VotingPeriodSeconds)
	w.writeVarUint(uint64(c.QuorumPercent))
	w.writeByte(byte(c.QuorumMode))
	w.writeByte(byte(c.ContributionRule))
	w.writeBool(c.RestrictActToTrigger)
	w.writeBool(c.CloseVotingAtDeadline)
	w.writeAddress(c.FeeRecipient)
	w.writeString(c.Asset.String())
	return w.bytes()
}

func DecodeConfig(data []byte) (*Config, error) {
	r := newReader(data)
	c := &Config{
		Owner:                 r.readAddress(),
		DaoPercentage:         uint32(r.readVarUint()),
		StakeholderThreshold:  r.readAmount(),
		VotingPeriodSeconds:   r.readInt64(),
		QuorumPercent:         uint32(r.readVarUint()),
		QuorumMode:            QuorumMode(r.readByte()),
		ContributionRule:      ContributionRule(r.readByte()),
		RestrictActToTrigger:  r.readBool(),
		CloseVotingAtDeadline: r.readBool(),
		FeeRecipient:          r.readAddress(),
		Asset:                 sdk.Asset(r.readString()),
	}
	if err := r.done("config"); err != nil {
		return nil, err
	}
	return c, nil
}

func EncodeMember(m *Member) []byte {
	w := newWriter()
	w.writeAddress(m.Address)
	w.writeAmount(m.Contributed)
	w.writeInt64(m.JoinedAt)
	w.writeInt64(m.LastActionAt)
	w.writeBool(m.GrantedOwner)
	w.writeBool(m.GrantedStakeholder)
	return w.bytes()
}

func DecodeMember(data []byte) (*Member, error) {
	r := newReader(data)
	m := &Member{
		Address:            r.readAddress(),
		Contributed:        r.readAmount(),
		JoinedAt:           r.readInt64(),
		LastActionAt:       r.readInt64(),
		GrantedOwner:       r.readBool(),
		GrantedStakeholder: r.readBool(),
	}
	if err := r.done("member"); err != nil {
		return nil, err
	}
	return m, nil
}

func EncodeProposal(p *Proposal) []byte {
	w := newWriter()
	w.writeUint64(p.ID)
	w.writeString(p.Title)
	w.writeString(p.Description)
	w.writeAddress(p.Proposer)
	w.writeAddress(p.Recipient)
	w.writeAmount(p.RequestedAmount)
	w.writeInt64(p.CreatedAt)
	w.writeInt64(p.VotingDeadline)
	w.writeVarUint(p.VotesFor)
	w.writeVarUint(p.VotesAgainst)
	w.writeAmount(p.VotedStake)
	w.writeBool(p.Paid)
	w.writeInt64(p.PaidAt)
	w.writeString(p.Tx)
	return w.bytes()
}

func DecodeProposal(data []byte) (*Proposal, error) {
	r := newReader(data)
	p := &Proposal{
		ID:              r.readUint64(),
		Title:           r.readString(),
		Description:     r.readString(),
		Proposer:        r.readAddress(),
		Recipient:       r.readAddress(),
		RequestedAmount: r.readAmount(),
		CreatedAt:       r.readInt64(),
		VotingDeadline:  r.readInt64(),
		VotesFor:        r.readVarUint(),
		VotesAgainst:    r.readVarUint(),
		VotedStake:      r.readAmount(),
		Paid:            r.readBool(),
		PaidAt:          r.readInt64(),
		Tx:              r.readString(),
	}
	if err := r.done("proposal"); err != nil {
		return nil, err
	}
	return p, nil
}

func EncodeVote(v *Vote) []byte {
	w := newWriter()
	w.writeUint64(v.ProposalID)
	w.writeAddress(v.Voter)
	w.writeBool(v.Support)
	w.writeAmount(v.Weight)
	w.writeInt64(v.VotedAt)
	return w.bytes()
}

func DecodeVote(data []byte) (*Vote, error) {
	r := newReader(data)
	v := &Vote{
		ProposalID: r.readUint64(),
		Voter:      r.readAddress(),
		Support:    r.readBool(),
		Weight:     r.readAmount(),
		VotedAt:    r.readInt64(),
	}
	if err := r.done("vote"); err != nil {
		return nil, err
	}
	return v, nil
}

func EncodeTreasury(t *Treasury) []byte {
	w := newWriter()
	w.writeAmount(t.Balance)
	w.writeAmount(t.Contributed)
	w.writeAmount(t.PaidOut)
	w.writeAmount(t.FeesRetained)
	w.writeVarUint(t.VoterCount)
	return w.bytes()
}

func DecodeTreasury(data []byte) (*Treasury, error) {
	r := newReader(data)
	t := &Treasury{
		Balance:      r.readAmount(),
		Contributed:  r.readAmount(),
		PaidOut:      r.readAmount(),
		FeesRetained: r.readAmount(),
		VoterCount:   r.readVarUint(),
	}
	if err := r.done("treasury"); err != nil {
		return nil, err
	}
	return t, nil
}

func EncodeEvent(e *Event) []byte {
	w := newWriter()
	w.writeUint64(e.Seq)
	w.writeByte(byte(e.Kind))
	w.writeString(e.TxID)
	w.writeInt64(e.Timestamp)
	w.writeUint64(e.ProposalID)
	w.writeAddress(e.Actor)
	w.writeAddress(e.Subject)
	w.writeAmount(e.Amount)
	w.writeAmount(e.Fee)
	w.writeBool(e.Support)
	w.writeByte(byte(e.Role))
	w.writeString(e.Title)
	w.writeString(e.Description)
	return w.bytes()
}

func DecodeEvent(data []byte) (*Event, error) {
	r := newReader(data)
	e := &Event{
		Seq:         r.readUint64(),
		Kind:        EventKind(r.readByte()),
		TxID:        r.readString(),
		Timestamp:   r.readInt64(),
		ProposalID:  r.readUint64(),
		Actor:       r.readAddress(),
		Subject:     r.readAddress(),
		Amount:      r.readAmount(),
		Fee:         r.readAmount(),
		Support:     r.readBool(),
		Role:        Role(r.readByte()),
		Title:       r.readString(),
		Description: r.readString(),
	}
	if err := r.done("event"); err != nil {
		return nil, err
	}
	return e, nil
}
