// PureSNMP-Go - SNMP client library for Go
// License: MIT
package puresnmp

import "context"

// TableRow is one conceptual row of an SNMP table: the row index plus
// the values of each column present for that index.
type TableRow struct {
	Index   string
	Columns map[int]Value
}

// Table walks a table OID and regroups the varbinds into rows. root is
// the table OID itself (the node above the Entry); varbinds are
// expected at root.1.<column>.<index...>. Rows come back in order of
// first appearance, which for well-behaved agents is index order.
func (c *Client) Table(ctx context.Context, root Oid) ([]TableRow, error) {
	vbs, err := c.Walk(ctx, root)
	if err != nil {
		return nil, err
	}
	return assembleRows(root, vbs), nil
}

// BulkTable is Table over a GetBulk walk.
func (c *Client) BulkTable(ctx context.Context, root Oid) ([]TableRow, error) {
	vbs, err := c.BulkWalk(ctx, root)
	if err != nil {
		return nil, err
	}
	return assembleRows(root, vbs), nil
}

func assembleRows(root Oid, vbs []VarBind) []TableRow {
	byIndex := make(map[string]int)
	var rows []TableRow
	for _, vb := range vbs {
		tail := vb.Oid.Tail(root)
		// entry node, column, at least one index component
		if len(tail) < 3 {
			logWarnf("table: %s is too short for a cell under %s, dropped", vb.Oid, root)
			continue
		}
		column := tail[1]
		index := Oid(tail[2:]).String()
		pos, ok := byIndex[index]
		if !ok {
			pos = len(rows)
			byIndex[index] = pos
			rows = append(rows, TableRow{Index: index, Columns: make(map[int]Value)})
		}
		rows[pos].Columns[column] = vb.Value
	}
	return rows
}
