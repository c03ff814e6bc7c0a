package sdk

import "strings"

// Address is the opaque identity of an authenticated principal. The engine never
// inspects its structure beyond emptiness; the execution environment vouches for it.
type Address string

// String returns the literal representation (like hive:alice) of the address.
// Example payload: sdk.Address("hive:foo").String()
func (a Address) String() string {
	return string(a)
}

// IsZero reports whether the address is empty once whitespace is stripped.
func (a Address) IsZero() bool {
	return strings.TrimSpace(string(a)) == ""
}

// Normalize trims surrounding whitespace so "hive:bob " and "hive:bob" key the same member.
// Example payload: sdk.Address(" hive:bob ").Normalize()
func (a Address) Normalize() Address {
	return Address(strings.TrimSpace(string(a)))
}
