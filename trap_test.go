// PureSNMP-Go - SNMP client library for Go
// License: MIT
package puresnmp

import (
	"testing"

	ASNber "github.com/OlegPowerC/asn1modsnmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var oidColdStart = Oid{1, 3, 6, 1, 6, 3, 1, 1, 5, 1}

func v2cTrapPacket(t *testing.T, community string, pduType PDUType) []byte {
	t.Helper()
	payload, err := encodePDU(PDU{
		Type:      pduType,
		RequestID: 31337,
		VarBinds: []VarBind{
			{Oid: oidSysUpTime, Value: TimeTicksValue(0)},
			vb(oidColdStart, "cold start"),
		},
	})
	require.NoError(t, err)
	packet, err := ASNber.Marshal(communityPacket{
		Version:   VersionV2C,
		Community: []byte(community),
		Payload:   payload,
	})
	require.NoError(t, err)
	return packet
}

func TestParseTrapV2C(t *testing.T) {
	packet := v2cTrapPacket(t, "public", PDUTrapV2)
	trap, err := ParseTrap(packet, V2C{Community: "public"})
	require.NoError(t, err)
	assert.Equal(t, VersionV2C, trap.Version)
	assert.False(t, trap.Inform)
	require.Len(t, trap.PDU.VarBinds, 2)
	assert.Equal(t, oidColdStart, trap.PDU.VarBinds[1].Oid)
}

func TestParseTrapV2CInform(t *testing.T) {
	packet := v2cTrapPacket(t, "public", PDUInformRequest)
	trap, err := ParseTrap(packet, V2C{Community: "public"})
	require.NoError(t, err)
	assert.True(t, trap.Inform)
	assert.Equal(t, int32(31337), trap.PDU.RequestID)
}

func TestParseTrapCommunityMismatch(t *testing.T) {
	packet := v2cTrapPacket(t, "secret", PDUTrapV2)
	_, err := ParseTrap(packet, V2C{Community: "public"})
	var snmpErr SnmpError
	assert.ErrorAs(t, err, &snmpErr)
}

func TestParseTrapRejectsNonNotificationPDU(t *testing.T) {
	packet := v2cTrapPacket(t, "public", PDUGetResponse)
	_, err := ParseTrap(packet, V2C{Community: "public"})
	assert.Error(t, err)
}

func TestParseTrapWrongCredentialType(t *testing.T) {
	packet := v2cTrapPacket(t, "public", PDUTrapV2)
	_, err := ParseTrap(packet, V1{Community: "public"})
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestParseTrapEmpty(t *testing.T) {
	_, err := ParseTrap(nil, V2C{Community: "public"})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestParseTrapV3(t *testing.T) {
	creds := testV3Creds()
	disco := testDisco()
	msg := Message{
		Version: VersionV3,
		Header: HeaderData{
			MessageID:     777,
			MaxSize:       DefaultMaxMsgSize,
			SecurityModel: SecurityModelUSM,
		},
		Scoped: ScopedPDU{PDU: PDU{
			Type:      PDUTrapV2,
			RequestID: 5555,
			VarBinds: []VarBind{
				{Oid: oidSysUpTime, Value: TimeTicksValue(0)},
				vb(oidColdStart, "cold start"),
			},
		}},
	}
	packet, err := NewUSM().GenerateRequestMessage(msg, disco, creds)
	require.NoError(t, err)

	trap, err := ParseTrap(packet, creds)
	require.NoError(t, err)
	assert.Equal(t, VersionV3, trap.Version)
	assert.Equal(t, "pippo", trap.UserName)
	assert.False(t, trap.Inform)
	assert.Equal(t, int32(5555), trap.PDU.RequestID)
	require.Len(t, trap.PDU.VarBinds, 2)
}
