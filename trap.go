// PureSNMP-Go - SNMP client library for Go
// License: MIT
package puresnmp

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"time"

	ASNber "github.com/OlegPowerC/asn1modsnmp"
)

// Trap is one received notification: a v2c/v3 TRAP or INFORM.
type Trap struct {
	Version  int
	Source   net.Addr
	Inform   bool
	UserName string
	PDU      PDU

	// v3 sender identity, kept for the inform acknowledgement
	messageID   int32
	engineID    []byte
	engineBoots int32
	engineTime  int32
}

// sysUpTime.0, the varbind an inform acknowledgement carries.
var oidSysUpTime = Oid{1, 3, 6, 1, 2, 1, 1, 3, 0}

// ParseTrap decodes a notification packet with the given credentials.
// v2c packets must match the community; v3 packets go through the full
// USM incoming pipeline, localizing keys against the engine ID the
// notification itself carries (the trap sender is the authoritative
// engine for its own clock).
func ParseTrap(packet []byte, creds Credentials) (Trap, error) {
	return parseTrap(packet, creds, NewUSM())
}

func parseTrap(packet []byte, creds Credentials, usm *USM) (Trap, error) {
	if len(packet) == 0 {
		return Trap{}, ErrEmptyMessage
	}
	var versionProbe struct {
		Version int
		Rest    ASNber.RawValue
	}
	if _, err := ASNber.Unmarshal(packet, &versionProbe); err != nil {
		return Trap{}, SnmpError{Message: "cannot parse notification", Cause: err}
	}

	switch versionProbe.Version {
	case VersionV2C:
		c, ok := creds.(V2C)
		if !ok {
			return Trap{}, fmt.Errorf("%w: version 2c notification needs V2C credentials", ErrBadCredentials)
		}
		var seq communityPacket
		if _, err := ASNber.Unmarshal(packet, &seq); err != nil {
			return Trap{}, SnmpError{Message: "cannot parse notification", Cause: err}
		}
		if !bytes.Equal(seq.Community, []byte(c.Community)) {
			return Trap{}, SnmpError{Message: "community mismatch in notification"}
		}
		pdu, err := decodePDU(seq.Payload)
		if err != nil {
			return Trap{}, err
		}
		if pdu.Type != PDUTrapV2 && pdu.Type != PDUInformRequest {
			return Trap{}, SnmpError{Message: fmt.Sprintf("unexpected PDU type %d in notification", pdu.Type)}
		}
		return Trap{Version: VersionV2C, Inform: pdu.Type == PDUInformRequest, PDU: pdu}, nil

	case VersionV3:
		c, ok := creds.(V3)
		if !ok {
			return Trap{}, fmt.Errorf("%w: version 3 notification needs V3 credentials", ErrBadCredentials)
		}
		msg, err := usm.ProcessIncomingMessage(packet, nil, c)
		if err != nil {
			return Trap{}, err
		}
		pdu := msg.Scoped.PDU
		if pdu.Type != PDUTrapV2 && pdu.Type != PDUInformRequest {
			return Trap{}, SnmpError{Message: fmt.Sprintf("unexpected PDU type %d in notification", pdu.Type)}
		}
		return Trap{
			Version:     VersionV3,
			Inform:      pdu.Type == PDUInformRequest,
			UserName:    string(msg.Security.UserName),
			PDU:         pdu,
			messageID:   msg.Header.MessageID,
			engineID:    msg.Security.AuthoritativeEngineID,
			engineBoots: msg.Security.Boots,
			engineTime:  msg.Security.Time,
		}, nil
	}
	return Trap{}, fmt.Errorf("%w: %d", ErrUnknownMessageProcessingModel, versionProbe.Version)
}

// TrapHandler consumes received notifications. It runs on the listener
// goroutine; long work belongs in the handler's own goroutines.
type TrapHandler func(trap Trap)

// TrapListener receives v2c/v3 traps and informs on a UDP socket and
// acknowledges informs, without which the sender keeps retrying.
type TrapListener struct {
	pc    net.PacketConn
	creds Credentials
	usm   *USM
}

// ListenTraps opens the receiver socket. addr is e.g. ":162".
func ListenTraps(addr string, creds Credentials) (*TrapListener, error) {
	pc, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, err
	}
	return &TrapListener{pc: pc, creds: creds, usm: NewUSM()}, nil
}

// Serve reads notifications until the context is cancelled or the
// socket is closed. Malformed or unverifiable packets are logged and
// dropped; the loop keeps running.
func (l *TrapListener) Serve(ctx context.Context, handler TrapHandler) error {
	buf := make([]byte, recvBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.pc.SetReadDeadline(time.Now().Add(time.Second)); err != nil {
			return err
		}
		n, addr, err := l.pc.ReadFrom(buf)
		if err != nil {
			if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
				continue
			}
			return err
		}
		packet := make([]byte, n)
		copy(packet, buf[:n])

		trap, err := parseTrap(packet, l.creds, l.usm)
		if err != nil {
			logWarnf("dropping notification from %s: %v", addr, err)
			continue
		}
		trap.Source = addr
		if trap.Inform {
			if err := l.acknowledge(trap, addr); err != nil {
				logWarnf("inform acknowledgement to %s failed: %v", addr, err)
			}
		}
		handler(trap)
	}
}

// Close shuts the receiver socket, unblocking Serve.
func (l *TrapListener) Close() error {
	return l.pc.Close()
}

// acknowledge answers an inform with a Response PDU echoing its
// request-id.
func (l *TrapListener) acknowledge(trap Trap, addr net.Addr) error {
	pdu := PDU{
		Type:      PDUGetResponse,
		RequestID: trap.PDU.RequestID,
		VarBinds:  []VarBind{{Oid: oidSysUpTime, Value: NullValue()}},
	}
	var packet []byte
	var err error
	switch c := l.creds.(type) {
	case V2C:
		var payload ASNber.RawValue
		payload, err = encodePDU(pdu)
		if err != nil {
			return err
		}
		packet, err = ASNber.Marshal(communityPacket{
			Version:   VersionV2C,
			Community: []byte(c.Community),
			Payload:   payload,
		})
	case V3:
		// reply under the sender's engine identity; informs are
		// acknowledged with the clock they arrived with
		disco := &DiscoData{engineID: trap.engineID}
		disco.setTiming(trap.engineBoots, trap.engineTime)
		msg := Message{
			Version: VersionV3,
			Header: HeaderData{
				MessageID:     trap.messageID,
				MaxSize:       DefaultMaxMsgSize,
				SecurityModel: SecurityModelUSM,
			},
			Scoped: ScopedPDU{ContextName: []byte(c.ContextName), PDU: pdu},
		}
		packet, err = l.usm.GenerateRequestMessage(msg, disco, c)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	_, err = l.pc.WriteTo(packet, addr)
	return err
}
