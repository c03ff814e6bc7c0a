package contract

import (
	"context"
	"fmt"

	"crowdfund_dao/contract/dao"
	"crowdfund_dao/sdk"
)

// requireOwner fails with ErrNotAuthorized unless caller holds the owner role.
func requireOwner(r reader, caller sdk.Address) error {
	m, ok, err := loadMember(r, caller)
	if err != nil {
		return err
	}
	if !ok || !m.GrantedOwner {
		return fmt.Errorf("%w: %s is not an owner", ErrNotAuthorized, caller)
	}
	return nil
}

// GrantRole lets an owner hand out the owner or stakeholder role. Granting a role the
// identity already holds is a no-op.
// Example payload: GrantRole(ctx, env, dao.RoleStakeholder, "hive:bob")
func (c *Contract) GrantRole(ctx context.Context, env sdk.Env, role dao.Role, identity sdk.Address) error {
	identity = identity.Normalize()
	if identity.IsZero() {
		return fmt.Errorf("%w: identity is required", ErrInvalidArgument)
	}
	if role != dao.RoleOwner && role != dao.RoleStakeholder {
		return fmt.Errorf("%w: unknown role %d", ErrInvalidArgument, role)
	}
	return c.exec(ctx, env, func(ctx context.Context, u *unit) error {
		if err := requireOwner(u.b, u.env.Caller); err != nil {
			return err
		}
		m, err := loadMemberOrEmpty(u.b, identity)
		if err != nil {
			return err
		}
		switch role {
		case dao.RoleOwner:
			if m.GrantedOwner {
				return nil
			}
			m.GrantedOwner = true
		case dao.RoleStakeholder:
			if m.GrantedStakeholder {
				return nil
			}
			if !m.CanVote() {
				t, err := loadTreasury(u.b)
				if err != nil {
					return err
				}
				t.VoterCount++
				saveTreasury(u.b, t)
			}
			m.GrantedStakeholder = true
		}
		if m.JoinedAt == 0 {
			m.JoinedAt = u.now()
		}
		saveMember(u.b, m)
		return u.emit(dao.Event{
			Kind:    dao.EventRoleGranted,
			Actor:   u.env.Caller,
			Subject: identity,
			Role:    role,
		})
	})
}

// SetAutomationTrigger replaces the single registered trigger identity.
func (c *Contract) SetAutomationTrigger(ctx context.Context, env sdk.Env, identity sdk.Address) error {
	identity = identity.Normalize()
	if identity.IsZero() {
		return fmt.Errorf("%w: identity is required", ErrInvalidArgument)
	}
	return c.exec(ctx, env, func(ctx context.Context, u *unit) error {
		if err := requireOwner(u.b, u.env.Caller); err != nil {
			return err
		}
		current, err := loadTrigger(u.b)
		if err != nil {
			return err
		}
		if current == identity {
			return nil
		}
		if err := saveTrigger(u.b, identity); err != nil {
			return err
		}
		return u.emit(dao.Event{
			Kind:    dao.EventAutomationTriggerSet,
			Actor:   u.env.Caller,
			Subject: identity,
		})
	})
}

// AutomationTrigger returns the registered trigger, empty when none was set.
func (c *Contract) AutomationTrigger(ctx context.Context) (sdk.Address, error) {
	var out sdk.Address
	err := c.view(ctx, func(r reader) error {
		var err error
		out, err = loadTrigger(r)
		return err
	})
	return out, err
}

// GetMember returns the member record; unknown identities come back zeroed.
func (c *Contract) GetMember(ctx context.Context, identity sdk.Address) (dao.Member, error) {
	identity = identity.Normalize()
	var out dao.Member
	err := c.view(ctx, func(r reader) error {
		m, err := loadMemberOrEmpty(r, identity)
		if err != nil {
			return err
		}
		out = *m
		return nil
	})
	return out, err
}

func (c *Contract) IsOwner(ctx context.Context, identity sdk.Address) (bool, error) {
	m, err := c.GetMember(ctx, identity)
	return m.GrantedOwner, err
}

// IsStakeholder is true once cumulative contribution meets the threshold or after a grant.
func (c *Contract) IsStakeholder(ctx context.Context, identity sdk.Address) (bool, error) {
	m, err := c.GetMember(ctx, identity)
	return m.IsStakeholder(c.cfg.StakeholderThreshold), err
}

func (c *Contract) IsContributor(ctx context.Context, identity sdk.Address) (bool, error) {
	m, err := c.GetMember(ctx, identity)
	return m.IsContributor(), err
}
