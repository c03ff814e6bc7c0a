package contract

import (
	"fmt"

	"crowdfund_dao/contract/dao"
	"crowdfund_dao/sdk"
)

// loadMember decodes the member record; ok is false when the address never interacted.
func loadMember(r reader, addr sdk.Address) (*dao.Member, bool, error) {
	ptr, err := r.Get(memberKey(addr))
	if err != nil {
		return nil, false, fmt.Errorf("read member %s: %w", addr, err)
	}
	if ptr == nil || *ptr == "" {
		return nil, false, nil
	}
	m, err := dao.DecodeMember([]byte(*ptr))
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// loadMemberOrEmpty returns a zero member for unknown addresses so callers can mutate it.
func loadMemberOrEmpty(r reader, addr sdk.Address) (*dao.Member, error) {
	m, ok, err := loadMember(r, addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &dao.Member{Address: addr}, nil
	}
	return m, nil
}

func saveMember(b *sdk.Batch, m *dao.Member) {
	b.Set(memberKey(m.Address), string(dao.EncodeMember(m)))
}
