// PureSNMP-Go - SNMP client library for Go
// License: MIT
package puresnmp

import (
	"bytes"
	"fmt"

	ASNber "github.com/OlegPowerC/asn1modsnmp"
)

// SecurityModel applies and removes the per-version message protections.
// GenerateRequestMessage serializes an outgoing message to wire bytes;
// ProcessIncomingMessage decodes and verifies a received packet back
// into a Message. The LCD entry is passed explicitly; community models
// ignore it.
type SecurityModel interface {
	ID() int
	GenerateRequestMessage(msg Message, disco *DiscoData, creds Credentials) ([]byte, error)
	ProcessIncomingMessage(packet []byte, disco *DiscoData, creds Credentials) (Message, error)
}

var securityRegistry = map[int]func() SecurityModel{
	SecurityModelV1:  func() SecurityModel { return communityModel{id: SecurityModelV1, version: VersionV1} },
	SecurityModelV2C: func() SecurityModel { return communityModel{id: SecurityModelV2C, version: VersionV2C} },
	SecurityModelUSM: func() SecurityModel { return NewUSM() },
}

func newSecurityModel(id int) (SecurityModel, error) {
	f, ok := securityRegistry[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSecurityModel, id)
	}
	return f(), nil
}

// communityModel is the trivial security of SNMPv1/v2c: the community
// string rides in clear next to the PDU and the response must echo it.
type communityModel struct {
	id      int
	version int
}

func (m communityModel) ID() int { return m.id }

func (m communityModel) community(creds Credentials) (string, error) {
	switch c := creds.(type) {
	case V1:
		if m.version == VersionV1 {
			return c.Community, nil
		}
	case V2C:
		if m.version == VersionV2C {
			return c.Community, nil
		}
	}
	return "", fmt.Errorf("%w: need community credentials for version %d", ErrBadCredentials, m.version)
}

func (m communityModel) GenerateRequestMessage(msg Message, _ *DiscoData, creds Credentials) ([]byte, error) {
	community, err := m.community(creds)
	if err != nil {
		return nil, err
	}
	payload, err := encodePDU(msg.Scoped.PDU)
	if err != nil {
		return nil, SnmpError{Message: "cannot encode PDU", Cause: err}
	}
	packet, err := ASNber.Marshal(communityPacket{
		Version:   m.version,
		Community: []byte(community),
		Payload:   payload,
	})
	if err != nil {
		return nil, SnmpError{Message: "cannot encode message", Cause: err}
	}
	return packet, nil
}

func (m communityModel) ProcessIncomingMessage(packet []byte, _ *DiscoData, creds Credentials) (Message, error) {
	community, err := m.community(creds)
	if err != nil {
		return Message{}, err
	}
	if len(packet) == 0 {
		return Message{}, ErrEmptyMessage
	}
	var seq communityPacket
	if _, err := ASNber.Unmarshal(packet, &seq); err != nil {
		return Message{}, SnmpError{Message: "cannot parse message", Cause: err}
	}
	if seq.Version != m.version {
		return Message{}, SnmpError{Message: fmt.Sprintf("unexpected version %d in response", seq.Version)}
	}
	if !bytes.Equal(seq.Community, []byte(community)) {
		return Message{}, SnmpError{Message: "community mismatch in response"}
	}
	pdu, err := decodePDU(seq.Payload)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Version: seq.Version,
		Scoped:  ScopedPDU{PDU: pdu},
	}, nil
}
