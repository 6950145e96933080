// PureSNMP-Go - SNMP client library for Go
// License: MIT
package puresnmp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOid(t *testing.T) {
	got, err := ParseOid("1.3.6.1.2.1.1.1.0")
	require.NoError(t, err)
	assert.Equal(t, Oid{1, 3, 6, 1, 2, 1, 1, 1, 0}, got)

	got, err = ParseOid(".1.3.6.1")
	require.NoError(t, err)
	assert.Equal(t, Oid{1, 3, 6, 1}, got)

	for _, bad := range []string{"", ".", "1..3", "1.x.3", "1.-2"} {
		_, err := ParseOid(bad)
		assert.Error(t, err, bad)
	}
}

func TestOidString(t *testing.T) {
	assert.Equal(t, "1.3.6.1", Oid{1, 3, 6, 1}.String())
	assert.Equal(t, "", Oid{}.String())
}

func TestOidCompare(t *testing.T) {
	tests := []struct {
		a, b Oid
		want int
	}{
		{Oid{1, 2, 3}, Oid{1, 2, 3}, 0},
		{Oid{1, 2, 3}, Oid{1, 2, 4}, -1},
		{Oid{1, 2, 4}, Oid{1, 2, 3}, 1},
		{Oid{1, 2}, Oid{1, 2, 0}, -1},
		{Oid{1, 2, 0}, Oid{1, 2}, 1},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.a.Compare(tc.b), "%s vs %s", tc.a, tc.b)
	}
}

func TestOidContainsAndTail(t *testing.T) {
	root := Oid{1, 3, 6, 1, 2, 1, 2, 2}
	child := Oid{1, 3, 6, 1, 2, 1, 2, 2, 1, 2, 1}

	assert.True(t, root.Contains(child))
	assert.True(t, root.Contains(root))
	assert.False(t, root.Contains(Oid{1, 3, 6, 1, 2, 1, 2, 3}))
	assert.True(t, child.ChildOf(root))

	assert.Equal(t, Oid{1, 2, 1}, child.Tail(root))
	assert.Nil(t, Oid{9, 9}.Tail(root))
}

func TestOidAppendDoesNotAlias(t *testing.T) {
	base := Oid{1, 3, 6}
	a := base.Append(1)
	b := base.Append(2)
	assert.Equal(t, Oid{1, 3, 6, 1}, a)
	assert.Equal(t, Oid{1, 3, 6, 2}, b)
	assert.Equal(t, Oid{1, 3, 6}, base)
}
