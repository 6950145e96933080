// PureSNMP-Go - SNMP client library for Go
// License: MIT
package puresnmp

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
)

// MessageProcessingModel turns request PDUs into wire packets and
// response packets back into PDUs for one protocol version. The v3
// model runs engine discovery through the transport on first use and
// keeps the LCD entry for the session; v1/v2c are stateless.
type MessageProcessingModel interface {
	EncodeRequest(ctx context.Context, pdu PDU, t Transport, creds Credentials) ([]byte, error)
	DecodeResponse(packet []byte, creds Credentials) (PDU, error)
}

var mpmRegistry = map[int]func() MessageProcessingModel{
	VersionV1: func() MessageProcessingModel {
		return communityMPM{version: VersionV1, model: communityModel{id: SecurityModelV1, version: VersionV1}}
	},
	VersionV2C: func() MessageProcessingModel {
		return communityMPM{version: VersionV2C, model: communityModel{id: SecurityModelV2C, version: VersionV2C}}
	},
	VersionV3: func() MessageProcessingModel {
		return newV3MPM(NewUSM())
	},
}

// NewMessageProcessingModel returns a fresh model for the version.
// Each client owns its own instance.
func NewMessageProcessingModel(version int) (MessageProcessingModel, error) {
	f, ok := mpmRegistry[version]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessageProcessingModel, version)
	}
	return f(), nil
}

// responseError converts a non-zero error-status into an ErrorResponse
// carrying the varbind the error-index points at.
func responseError(p PDU) error {
	if p.ErrorStatus == StatusNoError {
		return nil
	}
	var oid Oid
	if idx := int(p.ErrorIndex); idx >= 1 && idx <= len(p.VarBinds) {
		oid = p.VarBinds[idx-1].Oid
	}
	return ErrorResponse{Status: p.ErrorStatus, Index: p.ErrorIndex, Oid: oid}
}

// communityMPM handles SNMPv1 and SNMPv2c.
type communityMPM struct {
	version int
	model   communityModel
}

func (m communityMPM) EncodeRequest(_ context.Context, pdu PDU, _ Transport, creds Credentials) ([]byte, error) {
	if m.version == VersionV1 && pdu.Type == PDUGetBulkRequest {
		return nil, SnmpError{Message: "GetBulk is not available in SNMPv1"}
	}
	msg := Message{Version: m.version, Scoped: ScopedPDU{PDU: pdu}}
	return m.model.GenerateRequestMessage(msg, nil, creds)
}

func (m communityMPM) DecodeResponse(packet []byte, creds Credentials) (PDU, error) {
	msg, err := m.model.ProcessIncomingMessage(packet, nil, creds)
	if err != nil {
		return PDU{}, err
	}
	pdu := msg.Scoped.PDU
	if pdu.Type != PDUGetResponse {
		return pdu, SnmpError{Message: fmt.Sprintf("unexpected PDU type %d in response", pdu.Type)}
	}
	return pdu, responseError(pdu)
}

// v3MPM handles SNMPv3 over USM. The security model is injected and
// the discovery result cached for the life of the session.
type v3MPM struct {
	usm   *USM
	msgID int32

	mu    sync.Mutex
	disco *DiscoData
}

func newV3MPM(usm *USM) *v3MPM {
	return &v3MPM{usm: usm, msgID: rand.Int31()}
}

func (m *v3MPM) nextMsgID() int32 {
	return atomic.AddInt32(&m.msgID, 1)
}

func (m *v3MPM) lcd() *DiscoData {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disco
}

// ensureDiscovered runs engine discovery once per session.
func (m *v3MPM) ensureDiscovered(ctx context.Context, t Transport) (*DiscoData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disco != nil {
		return m.disco, nil
	}
	disco, err := m.usm.Discover(ctx, t, atomic.AddInt32(&m.msgID, 1))
	if err != nil {
		return nil, err
	}
	m.disco = disco
	return disco, nil
}

func (m *v3MPM) EncodeRequest(ctx context.Context, pdu PDU, t Transport, creds Credentials) ([]byte, error) {
	c, err := usmCredentials(creds)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	disco, err := m.ensureDiscovered(ctx, t)
	if err != nil {
		return nil, err
	}
	msg := Message{
		Version: VersionV3,
		Header: HeaderData{
			MessageID:     m.nextMsgID(),
			MaxSize:       DefaultMaxMsgSize,
			Flags:         V3Flags{Reportable: true},
			SecurityModel: SecurityModelUSM,
		},
		Scoped: ScopedPDU{
			ContextName: []byte(c.ContextName),
			PDU:         pdu,
		},
	}
	return m.usm.GenerateRequestMessage(msg, disco, creds)
}

func (m *v3MPM) DecodeResponse(packet []byte, creds Credentials) (PDU, error) {
	disco := m.lcd()
	msg, err := m.usm.ProcessIncomingMessage(packet, disco, creds)
	if err != nil {
		return PDU{}, err
	}

	// authenticated responses are a trusted clock source for the LCD
	if msg.Header.Flags.Auth && disco != nil {
		disco.setTiming(msg.Security.Boots, msg.Security.Time)
	}

	pdu := msg.Scoped.PDU
	if pdu.Type == PDUReport {
		return pdu, m.reportError(msg, disco, creds)
	}
	if pdu.Type != PDUGetResponse {
		return pdu, SnmpError{Message: fmt.Sprintf("unexpected PDU type %d in response", pdu.Type)}
	}
	return pdu, responseError(pdu)
}

// reportError maps the first varbind of a report PDU onto the error
// taxonomy. NotInTimeWindows additionally resynchronizes the LCD from
// the report, which is how agents hand out their clock when discovery
// returned zeros.
func (m *v3MPM) reportError(msg Message, disco *DiscoData, creds Credentials) error {
	pdu := msg.Scoped.PDU
	if len(pdu.VarBinds) == 0 {
		return SnmpError{Message: "empty report PDU"}
	}
	oid := pdu.VarBinds[0].Oid
	switch {
	case oid.Equal(Oid{1, 3, 6, 1, 6, 3, 15, 1, 1, 2, 0}):
		if disco != nil && (msg.Security.Boots > 0 || msg.Security.Time > 0) {
			disco.setTiming(msg.Security.Boots, msg.Security.Time)
			logDebugf("engine clock resynchronized (boots=%d, time=%d)", msg.Security.Boots, msg.Security.Time)
		}
		return errNotInTimeWindow
	case oid.Equal(Oid{1, 3, 6, 1, 6, 3, 15, 1, 1, 3, 0}):
		name := ""
		if c, ok := creds.(V3); ok {
			name = c.UserName
		}
		return UnknownUser{Name: name}
	case oid.Equal(Oid{1, 3, 6, 1, 6, 3, 15, 1, 1, 5, 0}):
		return AuthenticationError{Message: "agent rejected the message digest"}
	case oid.Equal(Oid{1, 3, 6, 1, 6, 3, 15, 1, 1, 6, 0}):
		return DecryptionError{Cause: fmt.Errorf("agent could not decrypt the message")}
	}
	for _, entry := range usmReportOids {
		if oid.Equal(entry.oid) {
			return SnmpError{Message: entry.message}
		}
	}
	return SnmpError{Message: fmt.Sprintf("unknown report OID %s", oid)}
}
