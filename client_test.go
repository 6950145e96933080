// PureSNMP-Go - SNMP client library for Go
// License: MIT
package puresnmp

import (
	"context"
	"testing"

	ASNber "github.com/OlegPowerC/asn1modsnmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var oidSysDescr = Oid{1, 3, 6, 1, 2, 1, 1, 1, 0}

// v2cAgent parses each request and answers it through respond,
// providing a scripted in-memory agent for client tests.
func v2cAgent(t *testing.T, community string, respond func(req PDU) PDU) *scriptTransport {
	t.Helper()
	return &scriptTransport{handler: func(payload []byte) ([]byte, error) {
		var seq communityPacket
		_, err := ASNber.Unmarshal(payload, &seq)
		require.NoError(t, err)
		req, err := decodePDU(seq.Payload)
		require.NoError(t, err)

		resp := respond(req)
		raw, err := encodePDU(resp)
		require.NoError(t, err)
		packet, err := ASNber.Marshal(communityPacket{
			Version:   VersionV2C,
			Community: []byte(community),
			Payload:   raw,
		})
		require.NoError(t, err)
		return packet, nil
	}}
}

func v2cClient(t *testing.T, transport Transport) *Client {
	t.Helper()
	c, err := NewClientWithTransport(transport, V2C{Community: "public"}, ClientConfig{})
	require.NoError(t, err)
	return c
}

// echoResponse answers a request with its own varbind OIDs and
// canned string values.
func echoResponse(req PDU) PDU {
	resp := PDU{Type: PDUGetResponse, RequestID: req.RequestID}
	for _, reqVb := range req.VarBinds {
		resp.VarBinds = append(resp.VarBinds, vb(reqVb.Oid, "value-"+reqVb.Oid.String()))
	}
	return resp
}

func TestClientGet(t *testing.T) {
	c := v2cClient(t, v2cAgent(t, "public", echoResponse))
	got, err := c.Get(context.Background(), oidSysDescr)
	require.NoError(t, err)
	assert.Equal(t, oidSysDescr, got.Oid)
	assert.Equal(t, "value-"+oidSysDescr.String(), got.Value.String())
}

func TestClientGetNoSuchOID(t *testing.T) {
	c := v2cClient(t, v2cAgent(t, "public", func(req PDU) PDU {
		return PDU{
			Type:      PDUGetResponse,
			RequestID: req.RequestID,
			VarBinds:  []VarBind{{Oid: req.VarBinds[0].Oid, Value: Value{Kind: KindNoSuchObject}}},
		}
	}))
	_, err := c.Get(context.Background(), oidSysDescr)
	var noSuch NoSuchOID
	require.ErrorAs(t, err, &noSuch)
	assert.Equal(t, oidSysDescr, noSuch.Oid)
}

func TestClientGetErrorStatus(t *testing.T) {
	c := v2cClient(t, v2cAgent(t, "public", func(req PDU) PDU {
		return PDU{
			Type:        PDUGetResponse,
			RequestID:   req.RequestID,
			ErrorStatus: StatusNoAccess,
			ErrorIndex:  1,
			VarBinds:    req.VarBinds,
		}
	}))
	_, err := c.Get(context.Background(), oidSysDescr)
	var errResp ErrorResponse
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, int32(StatusNoAccess), errResp.Status)
	assert.Equal(t, oidSysDescr, errResp.Oid)
}

func TestClientMultiGetCountMismatch(t *testing.T) {
	c := v2cClient(t, v2cAgent(t, "public", func(req PDU) PDU {
		resp := echoResponse(req)
		resp.VarBinds = append(resp.VarBinds, vb(Oid{1, 2, 3}, "extra"))
		return resp
	}))
	_, err := c.MultiGet(context.Background(), []Oid{oidSysDescr})
	var tooMany TooManyVarbinds
	assert.ErrorAs(t, err, &tooMany)
}

func TestClientSkipsStaleResponseID(t *testing.T) {
	calls := 0
	c := v2cClient(t, v2cAgent(t, "public", func(req PDU) PDU {
		calls++
		resp := echoResponse(req)
		if calls == 1 {
			resp.RequestID = req.RequestID - 1000
		}
		return resp
	}))
	got, err := c.Get(context.Background(), oidSysDescr)
	require.NoError(t, err)
	assert.Equal(t, oidSysDescr, got.Oid)
	assert.Equal(t, 2, calls)
}

func TestClientCommunityMismatch(t *testing.T) {
	c := v2cClient(t, v2cAgent(t, "WRONG", echoResponse))
	_, err := c.Get(context.Background(), oidSysDescr)
	var snmpErr SnmpError
	require.ErrorAs(t, err, &snmpErr)
	assert.Contains(t, err.Error(), "community mismatch")
}

func TestClientBulkGet(t *testing.T) {
	scalars := []Oid{{1, 3, 6, 1, 2, 1, 1, 1, 0}, {1, 3, 6, 1, 2, 1, 1, 3, 0}}
	repeating := []Oid{{1, 3, 6, 1, 2, 1, 2, 2, 1, 2}}
	c := v2cClient(t, v2cAgent(t, "public", func(req PDU) PDU {
		resp := PDU{Type: PDUGetResponse, RequestID: req.RequestID}
		resp.VarBinds = append(resp.VarBinds,
			vb(Oid{1, 3, 6, 1, 2, 1, 1, 1, 0}, "descr"),
			vb(Oid{1, 3, 6, 1, 2, 1, 1, 3, 0}, "uptime"),
			vb(Oid{1, 3, 6, 1, 2, 1, 2, 2, 1, 2, 1}, "eth0"),
			vb(Oid{1, 3, 6, 1, 2, 1, 2, 2, 1, 2, 2}, "eth1"),
			VarBind{Oid: Oid{1, 3, 6, 1, 2, 1, 2, 3}, Value: Value{Kind: KindEndOfMibView}},
		)
		return resp
	}))

	res, err := c.BulkGet(context.Background(), scalars, repeating, 5)
	require.NoError(t, err)
	require.Len(t, res.Scalars, 2)
	assert.Equal(t, "descr", res.Scalars[0].Value.String())
	require.Len(t, res.Listing, 2)
	assert.Equal(t, "eth1", res.Listing[1].Value.String())
}

func TestClientBulkGetTooManyVarbinds(t *testing.T) {
	repeating := []Oid{{1, 3}}
	c := v2cClient(t, v2cAgent(t, "public", func(req PDU) PDU {
		resp := PDU{Type: PDUGetResponse, RequestID: req.RequestID}
		for i := 0; i < 6; i++ {
			resp.VarBinds = append(resp.VarBinds, vb(Oid{1, 3, i + 1}, "v"))
		}
		return resp
	}))
	_, err := c.BulkGet(context.Background(), nil, repeating, 5)
	var tooMany TooManyVarbinds
	require.ErrorAs(t, err, &tooMany)
	assert.Equal(t, 6, tooMany.Got)
	assert.Equal(t, 5, tooMany.Max)
}

func TestClientV1RejectsBulk(t *testing.T) {
	c, err := NewClientWithTransport(&scriptTransport{}, V1{Community: "public"}, ClientConfig{})
	require.NoError(t, err)
	_, err = c.BulkGet(context.Background(), nil, []Oid{{1, 3}}, 5)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "SNMPv1")
}

func TestClientWalkOverTransport(t *testing.T) {
	// three-row column under 1.3.6.1.2.1.2.2.1.2, then the agent moves on
	column := Oid{1, 3, 6, 1, 2, 1, 2, 2, 1, 2}
	c := v2cClient(t, v2cAgent(t, "public", func(req PDU) PDU {
		cur := req.VarBinds[0].Oid
		var next VarBind
		switch {
		case cur.Equal(column):
			next = vb(column.Append(1), "eth0")
		case cur.Equal(column.Append(1)):
			next = vb(column.Append(2), "eth1")
		case cur.Equal(column.Append(2)):
			next = vb(column.Append(3), "eth2")
		default:
			next = vb(Oid{1, 3, 6, 1, 2, 1, 2, 2, 1, 3, 1}, "elsewhere")
		}
		return PDU{Type: PDUGetResponse, RequestID: req.RequestID, VarBinds: []VarBind{next}}
	}))

	got, err := c.Walk(context.Background(), column)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "eth0", got[0].Value.String())
	assert.Equal(t, "eth2", got[2].Value.String())
}

func TestClientSet(t *testing.T) {
	c := v2cClient(t, v2cAgent(t, "public", func(req PDU) PDU {
		require.Equal(t, PDUSetRequest, req.Type)
		return PDU{Type: PDUGetResponse, RequestID: req.RequestID, VarBinds: req.VarBinds}
	}))
	target := VarBind{Oid: Oid{1, 3, 6, 1, 2, 1, 1, 5, 0}, Value: StringValue("new-name")}
	got, err := c.Set(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, "new-name", got.Value.String())
}
