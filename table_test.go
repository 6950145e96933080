// PureSNMP-Go - SNMP client library for Go
// License: MIT
package puresnmp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ifTableOid = Oid{1, 3, 6, 1, 2, 1, 2, 2}

func ifCell(column, index int, s string) VarBind {
	return vb(ifTableOid.Append(1, column, index), s)
}

func TestAssembleRows(t *testing.T) {
	// column-major order, the way a walk delivers table cells
	vbs := []VarBind{
		ifCell(1, 1, "1"),
		ifCell(1, 2, "2"),
		ifCell(2, 1, "eth0"),
		ifCell(2, 2, "eth1"),
		ifCell(3, 2, "ethernet"),
	}
	rows := assembleRows(ifTableOid, vbs)
	require.Len(t, rows, 2)

	assert.Equal(t, "1", rows[0].Index)
	assert.Equal(t, "eth0", rows[0].Columns[2].String())
	assert.NotContains(t, rows[0].Columns, 3)

	assert.Equal(t, "2", rows[1].Index)
	assert.Equal(t, "eth1", rows[1].Columns[2].String())
	assert.Equal(t, "ethernet", rows[1].Columns[3].String())
}

func TestAssembleRowsCompositeIndex(t *testing.T) {
	// index spanning several sub-identifiers, as in ipAddrTable
	vbs := []VarBind{
		vb(ifTableOid.Append(1, 1, 192, 0, 2, 1), "a"),
		vb(ifTableOid.Append(1, 1, 192, 0, 2, 2), "b"),
	}
	rows := assembleRows(ifTableOid, vbs)
	require.Len(t, rows, 2)
	assert.Equal(t, "192.0.2.1", rows[0].Index)
	assert.Equal(t, "192.0.2.2", rows[1].Index)
}

func TestAssembleRowsSkipsShortTails(t *testing.T) {
	vbs := []VarBind{
		vb(ifTableOid.Append(1), "entry node itself"),
		vb(ifTableOid.Append(1, 2), "column without index"),
		ifCell(2, 1, "eth0"),
	}
	rows := assembleRows(ifTableOid, vbs)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0].Index)
}

func TestAssembleRowsEmpty(t *testing.T) {
	assert.Empty(t, assembleRows(ifTableOid, nil))
}
