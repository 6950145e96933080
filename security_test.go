// PureSNMP-Go - SNMP client library for Go
// License: MIT
package puresnmp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommunityModelRoundTrip(t *testing.T) {
	model := communityModel{id: SecurityModelV2C, version: VersionV2C}
	creds := V2C{Community: "public"}

	msg := Message{
		Version: VersionV2C,
		Scoped: ScopedPDU{PDU: PDU{
			Type:      PDUGetRequest,
			RequestID: 99,
			VarBinds:  nullVarBinds([]Oid{{1, 3, 6, 1, 2, 1, 1, 1, 0}}),
		}},
	}
	packet, err := model.GenerateRequestMessage(msg, nil, creds)
	require.NoError(t, err)

	got, err := model.ProcessIncomingMessage(packet, nil, creds)
	require.NoError(t, err)
	assert.Equal(t, VersionV2C, got.Version)
	assert.Equal(t, int32(99), got.Scoped.PDU.RequestID)
	require.Len(t, got.Scoped.PDU.VarBinds, 1)
	assert.Equal(t, Oid{1, 3, 6, 1, 2, 1, 1, 1, 0}, got.Scoped.PDU.VarBinds[0].Oid)
}

func TestCommunityModelRejectsWrongCommunity(t *testing.T) {
	model := communityModel{id: SecurityModelV2C, version: VersionV2C}
	packet, err := model.GenerateRequestMessage(
		Message{Version: VersionV2C, Scoped: ScopedPDU{PDU: PDU{Type: PDUGetRequest}}},
		nil, V2C{Community: "public"})
	require.NoError(t, err)

	_, err = model.ProcessIncomingMessage(packet, nil, V2C{Community: "private"})
	var snmpErr SnmpError
	assert.ErrorAs(t, err, &snmpErr)
}

func TestCommunityModelRejectsWrongCredentialType(t *testing.T) {
	model := communityModel{id: SecurityModelV1, version: VersionV1}
	_, err := model.GenerateRequestMessage(Message{}, nil, V2C{Community: "public"})
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestCommunityModelRejectsEmptyPacket(t *testing.T) {
	model := communityModel{id: SecurityModelV2C, version: VersionV2C}
	_, err := model.ProcessIncomingMessage(nil, nil, V2C{Community: "public"})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestNewSecurityModel(t *testing.T) {
	for _, id := range []int{SecurityModelV1, SecurityModelV2C, SecurityModelUSM} {
		m, err := newSecurityModel(id)
		require.NoError(t, err)
		assert.Equal(t, id, m.ID())
	}
	_, err := newSecurityModel(42)
	assert.ErrorIs(t, err, ErrUnknownSecurityModel)
}

func TestNewMessageProcessingModelUnknownVersion(t *testing.T) {
	_, err := NewMessageProcessingModel(2)
	assert.ErrorIs(t, err, ErrUnknownMessageProcessingModel)
}

func TestResponseError(t *testing.T) {
	assert.NoError(t, responseError(PDU{ErrorStatus: StatusNoError}))

	pdu := PDU{
		ErrorStatus: StatusNoSuchName,
		ErrorIndex:  2,
		VarBinds: []VarBind{
			vb(Oid{1, 1}, "a"),
			vb(Oid{2, 2}, "b"),
		},
	}
	err := responseError(pdu)
	var errResp ErrorResponse
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, int32(StatusNoSuchName), errResp.Status)
	assert.Equal(t, Oid{2, 2}, errResp.Oid)
	assert.Contains(t, errResp.Error(), "noSuchName")

	// an out-of-range error-index must not panic
	err = responseError(PDU{ErrorStatus: StatusGenErr, ErrorIndex: 7})
	require.ErrorAs(t, err, &errResp)
	assert.Empty(t, errResp.Oid)
}

func TestCommunityMPMRejectsNonResponsePDU(t *testing.T) {
	model := communityModel{id: SecurityModelV2C, version: VersionV2C}
	packet, err := model.GenerateRequestMessage(
		Message{Version: VersionV2C, Scoped: ScopedPDU{PDU: PDU{Type: PDUGetRequest, RequestID: 1}}},
		nil, V2C{Community: "public"})
	require.NoError(t, err)

	mpm, err := NewMessageProcessingModel(VersionV2C)
	require.NoError(t, err)
	_, err = mpm.DecodeResponse(packet, V2C{Community: "public"})
	assert.Error(t, err)
}
