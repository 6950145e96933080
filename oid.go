// PureSNMP-Go - SNMP client library for Go
// License: MIT
package puresnmp

import (
	"fmt"
	"strconv"
	"strings"

	ASNber "github.com/OlegPowerC/asn1modsnmp"
)

// Oid is an SNMP object identifier as a slice of sub-identifiers.
// The zero value is an empty OID.
type Oid []int

// ParseOid parses a dotted-decimal OID string. A single leading dot is
// accepted ("1.3.6.1" and ".1.3.6.1" are equivalent).
func ParseOid(s string) (Oid, error) {
	s = strings.TrimPrefix(s, ".")
	if s == "" {
		return nil, fmt.Errorf("empty OID string")
	}
	parts := strings.Split(s, ".")
	oid := make(Oid, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid OID component %q in %q", p, s)
		}
		oid = append(oid, n)
	}
	return oid, nil
}

// MustParseOid is ParseOid for constant OIDs; it panics on bad input.
func MustParseOid(s string) Oid {
	oid, err := ParseOid(s)
	if err != nil {
		panic(err)
	}
	return oid
}

func (o Oid) String() string {
	if len(o) == 0 {
		return ""
	}
	var b strings.Builder
	for i, n := range o {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

// Equal reports whether two OIDs have identical sub-identifiers.
func (o Oid) Equal(other Oid) bool {
	if len(o) != len(other) {
		return false
	}
	for i := range o {
		if o[i] != other[i] {
			return false
		}
	}
	return true
}

// Compare orders OIDs lexicographically: -1 if o < other, 0 if equal,
// 1 if o > other. A prefix sorts before its extensions.
func (o Oid) Compare(other Oid) int {
	n := len(o)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		if o[i] < other[i] {
			return -1
		}
		if o[i] > other[i] {
			return 1
		}
	}
	switch {
	case len(o) < len(other):
		return -1
	case len(o) > len(other):
		return 1
	}
	return 0
}

// Contains reports whether child lies inside the subtree rooted at o.
// An OID contains itself.
func (o Oid) Contains(child Oid) bool {
	if len(child) < len(o) {
		return false
	}
	for i := range o {
		if o[i] != child[i] {
			return false
		}
	}
	return true
}

// ChildOf is the inverse of Contains, reading better at call sites that
// ask about the child.
func (o Oid) ChildOf(parent Oid) bool {
	return parent.Contains(o)
}

// Tail returns the sub-identifiers of o below parent, or nil when o is
// not inside parent's subtree.
func (o Oid) Tail(parent Oid) Oid {
	if !parent.Contains(o) {
		return nil
	}
	tail := make(Oid, len(o)-len(parent))
	copy(tail, o[len(parent):])
	return tail
}

// Append returns a new OID with the given sub-identifiers appended.
func (o Oid) Append(sub ...int) Oid {
	out := make(Oid, 0, len(o)+len(sub))
	out = append(out, o...)
	out = append(out, sub...)
	return out
}

func (o Oid) clone() Oid {
	out := make(Oid, len(o))
	copy(out, o)
	return out
}

func (o Oid) asn() ASNber.ObjectIdentifier {
	return ASNber.ObjectIdentifier(o)
}

func oidFromASN(a ASNber.ObjectIdentifier) Oid {
	oid := make(Oid, len(a))
	copy(oid, a)
	return oid
}
