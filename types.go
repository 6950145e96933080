// PureSNMP-Go - SNMP client library for Go
// License: MIT
package puresnmp

import (
	"fmt"
	"sync"

	ASNber "github.com/OlegPowerC/asn1modsnmp"
)

// VarBind pairs an OID with its value.
type VarBind struct {
	Oid   Oid
	Value Value
}

func (vb VarBind) String() string {
	return fmt.Sprintf("%s = %s: %s", vb.Oid, vb.Value.TypeName(), vb.Value)
}

// PDU is a protocol data unit. For GetBulk requests NonRepeaters and
// MaxRepetitions travel in the error-status and error-index slots; for
// every other type those fields carry the actual error information.
type PDU struct {
	Type           PDUType
	RequestID      int32
	ErrorStatus    int32
	ErrorIndex     int32
	NonRepeaters   int32
	MaxRepetitions int32
	VarBinds       []VarBind
}

// V3Flags is the decoded msgFlags byte of an SNMPv3 header.
type V3Flags struct {
	Auth       bool
	Priv       bool
	Reportable bool
}

func (f V3Flags) byte() byte {
	var b byte
	if f.Auth {
		b |= 1 << flagAuthBit
	}
	if f.Priv {
		b |= 1 << flagPrivBit
	}
	if f.Reportable {
		b |= 1 << flagReportableBit
	}
	return b
}

func v3FlagsFromByte(b byte) V3Flags {
	return V3Flags{
		Auth:       b&(1<<flagAuthBit) != 0,
		Priv:       b&(1<<flagPrivBit) != 0,
		Reportable: b&(1<<flagReportableBit) != 0,
	}
}

// validate rejects the flag combination RFC 3412 forbids.
func (f V3Flags) validate() error {
	if f.Priv && !f.Auth {
		return SnmpError{Message: "invalid security flags: priv without auth"}
	}
	return nil
}

// HeaderData is the msgGlobalData header of an SNMPv3 message.
type HeaderData struct {
	MessageID     int32
	MaxSize       int
	Flags         V3Flags
	SecurityModel int
}

// USMSecurityParameters is the UsmSecurityParameters sequence carried
// as an OCTET STRING inside the v3 message header.
type USMSecurityParameters struct {
	AuthoritativeEngineID []byte
	Boots                 int32
	Time                  int32
	UserName              []byte
	AuthParams            []byte
	PrivParams            []byte
}

// ScopedPDU wraps a PDU with its context for SNMPv3.
type ScopedPDU struct {
	ContextEngineID []byte
	ContextName     []byte
	PDU             PDU
}

// Message is a decoded SNMPv3 message. Pipeline stages treat it as an
// immutable value: each stage returns a new Message rather than
// mutating its input.
type Message struct {
	Version  int
	Header   HeaderData
	Security USMSecurityParameters
	Scoped   ScopedPDU
}

// DiscoData is the per-agent entry of the local configuration
// datastore: the authoritative engine identity, its last known clock
// and the usmStatsUnknownEngineIDs counter the discovery report
// carried. The clock is refreshed from authenticated responses. Safe
// for concurrent use.
type DiscoData struct {
	mu               sync.Mutex
	engineID         []byte
	boots            int32
	time             int32
	unknownEngineIDs uint32
}

// EngineID returns the discovered authoritative engine ID.
func (d *DiscoData) EngineID() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engineID
}

// UnknownEngineIDs returns the agent's usmStatsUnknownEngineIDs counter
// as reported by the discovery exchange.
func (d *DiscoData) UnknownEngineIDs() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.unknownEngineIDs
}

// Timing returns the last known engine boots and time.
func (d *DiscoData) Timing() (boots, time int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.boots, d.time
}

// setTiming records the engine clock. Zero boots and time are kept as
// zero; some agents withhold timing until the first NotInTimeWindows
// report.
func (d *DiscoData) setTiming(boots, time int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.boots = boots
	d.time = time
}

// Wire sequences. These mirror the BER structure of the packets and
// exist only for the codec; the public value types above are built
// from them on decode.

type v3Packet struct {
	Version    int
	GlobalData ASNber.RawValue
	Security   []byte
	Payload    ASNber.RawValue
}

type v3HeaderSeq struct {
	MsgID            int32
	MsgMaxSize       int
	MsgFlag          []byte
	MsgSecurityModel int
}

type usmSeq struct {
	AuthEng    []byte
	Boots      int32
	Time       int32
	User       []byte
	AuthParams []byte
	PrivParams []byte
}

type scopedPduSeq struct {
	ContextEngineId []byte
	ContextName     []byte
	Data            ASNber.RawValue
}

type pduSeq struct {
	RequestID   int32
	ErrorStatus int32
	ErrorIndex  int32
	VarBinds    []varBindSeq
}

type varBindSeq struct {
	Name  ASNber.ObjectIdentifier
	Value ASNber.RawValue
}

type communityPacket struct {
	Version   int
	Community []byte
	Payload   ASNber.RawValue
}

// encodePDU marshals a PDU into its context-specific constructed
// RawValue. The sequence is marshalled as a plain SEQUENCE first, then
// re-wrapped under the PDU type tag.
func encodePDU(p PDU) (ASNber.RawValue, error) {
	seq := pduSeq{
		RequestID:   p.RequestID,
		ErrorStatus: p.ErrorStatus,
		ErrorIndex:  p.ErrorIndex,
	}
	if p.Type == PDUGetBulkRequest {
		seq.ErrorStatus = p.NonRepeaters
		seq.ErrorIndex = p.MaxRepetitions
	}
	seq.VarBinds = make([]varBindSeq, 0, len(p.VarBinds))
	for _, vb := range p.VarBinds {
		seq.VarBinds = append(seq.VarBinds, varBindSeq{Name: vb.Oid.asn(), Value: vb.Value.raw()})
	}
	encoded, err := ASNber.Marshal(seq)
	if err != nil {
		return ASNber.RawValue{}, err
	}
	content, err := ASNber.ExtractDataWOTagAndLen(encoded)
	if err != nil {
		return ASNber.RawValue{}, err
	}
	return ASNber.RawValue{
		Class:      ASNber.ClassContextSpecific,
		Tag:        int(p.Type),
		IsCompound: true,
		Bytes:      content,
	}, nil
}

// decodePDU parses a context-specific PDU RawValue. The codec only
// unmarshals universal SEQUENCEs, so the tag byte is rewritten to 0x30
// on a copy before decoding; the original tag becomes the PDU type.
func decodePDU(r ASNber.RawValue) (PDU, error) {
	if r.Class != ASNber.ClassContextSpecific || !r.IsCompound {
		return PDU{}, SnmpError{Message: fmt.Sprintf("unexpected PDU envelope (class=%d, tag=%d)", r.Class, r.Tag)}
	}
	if len(r.FullBytes) == 0 {
		return PDU{}, ErrEmptyMessage
	}
	full := make([]byte, len(r.FullBytes))
	copy(full, r.FullBytes)
	full[0] = 0x30
	var seq pduSeq
	if _, err := ASNber.Unmarshal(full, &seq); err != nil {
		return PDU{}, SnmpError{Message: "cannot parse PDU", Cause: err}
	}
	p := PDU{
		Type:        PDUType(r.Tag),
		RequestID:   seq.RequestID,
		ErrorStatus: seq.ErrorStatus,
		ErrorIndex:  seq.ErrorIndex,
	}
	if p.Type == PDUGetBulkRequest {
		p.NonRepeaters = seq.ErrorStatus
		p.MaxRepetitions = seq.ErrorIndex
		p.ErrorStatus = 0
		p.ErrorIndex = 0
	}
	p.VarBinds = make([]VarBind, 0, len(seq.VarBinds))
	for _, vb := range seq.VarBinds {
		p.VarBinds = append(p.VarBinds, VarBind{Oid: oidFromASN(vb.Name), Value: valueFromRaw(vb.Value)})
	}
	return p, nil
}

// encodeScopedPDU marshals a plaintext ScopedPDU sequence.
func encodeScopedPDU(sp ScopedPDU) ([]byte, error) {
	data, err := encodePDU(sp.PDU)
	if err != nil {
		return nil, err
	}
	return ASNber.Marshal(scopedPduSeq{
		ContextEngineId: sp.ContextEngineID,
		ContextName:     sp.ContextName,
		Data:            data,
	})
}

// decodeScopedPDU parses a plaintext ScopedPDU sequence.
func decodeScopedPDU(b []byte) (ScopedPDU, error) {
	var seq scopedPduSeq
	if _, err := ASNber.Unmarshal(b, &seq); err != nil {
		return ScopedPDU{}, SnmpError{Message: "cannot parse scoped PDU", Cause: err}
	}
	pdu, err := decodePDU(seq.Data)
	if err != nil {
		return ScopedPDU{}, err
	}
	return ScopedPDU{
		ContextEngineID: seq.ContextEngineId,
		ContextName:     seq.ContextName,
		PDU:             pdu,
	}, nil
}

func encodeUSMParams(p USMSecurityParameters) ([]byte, error) {
	return ASNber.Marshal(usmSeq{
		AuthEng:    p.AuthoritativeEngineID,
		Boots:      p.Boots,
		Time:       p.Time,
		User:       p.UserName,
		AuthParams: p.AuthParams,
		PrivParams: p.PrivParams,
	})
}

func decodeUSMParams(b []byte) (USMSecurityParameters, error) {
	var seq usmSeq
	if _, err := ASNber.Unmarshal(b, &seq); err != nil {
		return USMSecurityParameters{}, SnmpError{Message: "cannot parse USM security parameters", Cause: err}
	}
	return USMSecurityParameters{
		AuthoritativeEngineID: seq.AuthEng,
		Boots:                 seq.Boots,
		Time:                  seq.Time,
		UserName:              seq.User,
		AuthParams:            seq.AuthParams,
		PrivParams:            seq.PrivParams,
	}, nil
}
