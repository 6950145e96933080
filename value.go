// PureSNMP-Go - SNMP client library for Go
// License: MIT
package puresnmp

import (
	"encoding/hex"
	"fmt"
	"net"
	"time"
	"unicode"

	ASNber "github.com/OlegPowerC/asn1modsnmp"
)

// ASN.1 class numbers as they appear in a BER tag byte.
const (
	classUniversal   = 0
	classApplication = 1
	classContext     = 2
)

// ValueKind discriminates a VarBind value. Besides ordinary values the
// protocol carries three per-varbind exceptions which are not errors:
// a walk continues over NoSuchObject/NoSuchInstance and stops at
// EndOfMibView.
type ValueKind int

const (
	KindNormal ValueKind = iota
	KindNull
	KindNoSuchObject
	KindNoSuchInstance
	KindEndOfMibView
)

func (k ValueKind) String() string {
	switch k {
	case KindNormal:
		return "normal"
	case KindNull:
		return "null"
	case KindNoSuchObject:
		return "noSuchObject"
	case KindNoSuchInstance:
		return "noSuchInstance"
	case KindEndOfMibView:
		return "endOfMibView"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is a decoded SNMP variable. Bytes holds the raw BER content
// octets without the TLV wrapper; Class and Type identify the ASN.1
// tag. Exceptions and null carry no payload, only their Kind.
type Value struct {
	Kind  ValueKind
	Class int
	Type  int
	Bytes []byte
}

var nullValue = Value{Kind: KindNull, Class: classUniversal, Type: TypeNull}

// NullValue returns the ASN.1 NULL placeholder used in request varbinds.
func NullValue() Value { return nullValue }

// IsException reports whether the value is one of the v2c/v3 varbind
// exceptions rather than data.
func (v Value) IsException() bool {
	return v.Kind == KindNoSuchObject || v.Kind == KindNoSuchInstance || v.Kind == KindEndOfMibView
}

// IntegerValue builds an INTEGER value for Set requests.
func IntegerValue(n int64) Value {
	return Value{Kind: KindNormal, Class: classUniversal, Type: TypeInteger, Bytes: encodeBerInt(n)}
}

// OctetStringValue builds an OCTET STRING value for Set requests.
func OctetStringValue(b []byte) Value {
	out := make([]byte, len(b))
	copy(out, b)
	return Value{Kind: KindNormal, Class: classUniversal, Type: TypeOctetString, Bytes: out}
}

// StringValue is OctetStringValue for a Go string.
func StringValue(s string) Value { return OctetStringValue([]byte(s)) }

// OidValue builds an OBJECT IDENTIFIER value for Set requests.
func OidValue(oid Oid) (Value, error) {
	full, err := ASNber.Marshal(oid.asn())
	if err != nil {
		return Value{}, err
	}
	content, err := ASNber.ExtractDataWOTagAndLen(full)
	if err != nil {
		return Value{}, err
	}
	return Value{Kind: KindNormal, Class: classUniversal, Type: TypeOID, Bytes: content}, nil
}

// IPAddressValue builds an IpAddress value for Set requests. Only IPv4
// is representable on the wire.
func IPAddressValue(ip net.IP) (Value, error) {
	v4 := ip.To4()
	if v4 == nil {
		return Value{}, fmt.Errorf("not an IPv4 address: %s", ip)
	}
	return Value{Kind: KindNormal, Class: classApplication, Type: TypeIPAddress, Bytes: []byte(v4)}, nil
}

// Counter32Value builds a Counter32 value.
func Counter32Value(n uint32) Value {
	return Value{Kind: KindNormal, Class: classApplication, Type: TypeCounter32, Bytes: encodeBerUint(uint64(n))}
}

// Gauge32Value builds a Gauge32/Unsigned32 value.
func Gauge32Value(n uint32) Value {
	return Value{Kind: KindNormal, Class: classApplication, Type: TypeGauge32, Bytes: encodeBerUint(uint64(n))}
}

// Counter64Value builds a Counter64 value.
func Counter64Value(n uint64) Value {
	return Value{Kind: KindNormal, Class: classApplication, Type: TypeCounter64, Bytes: encodeBerUint(n)}
}

// TimeTicksValue builds a TimeTicks value from a duration, rounded down
// to centiseconds.
func TimeTicksValue(d time.Duration) Value {
	ticks := uint64(d / (10 * time.Millisecond))
	return Value{Kind: KindNormal, Class: classApplication, Type: TypeTimeTicks, Bytes: encodeBerUint(ticks)}
}

// Int decodes the value as a signed integer (INTEGER, Counter, Gauge,
// TimeTicks).
func (v Value) Int() (int64, error) {
	if v.Kind != KindNormal {
		return 0, fmt.Errorf("cannot decode %s value as integer", v.Kind)
	}
	switch {
	case v.Class == classUniversal && v.Type == TypeInteger:
		return decodeBerInt(v.Bytes), nil
	case v.Class == classApplication:
		switch v.Type {
		case TypeCounter32, TypeGauge32, TypeTimeTicks, TypeCounter64:
			return int64(decodeBerUint(v.Bytes)), nil
		}
	}
	return 0, fmt.Errorf("not an integer type (class=%d, tag=%d)", v.Class, v.Type)
}

// Uint decodes the value as an unsigned integer.
func (v Value) Uint() (uint64, error) {
	n, err := v.Int()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d", n)
	}
	return uint64(n), nil
}

// OctetString returns the raw octets of an OCTET STRING or Opaque value.
func (v Value) OctetString() ([]byte, error) {
	if v.Kind != KindNormal {
		return nil, fmt.Errorf("cannot decode %s value as octets", v.Kind)
	}
	if (v.Class == classUniversal && v.Type == TypeOctetString) ||
		(v.Class == classApplication && v.Type == TypeOpaque) {
		return v.Bytes, nil
	}
	return nil, fmt.Errorf("not an octet-string type (class=%d, tag=%d)", v.Class, v.Type)
}

// IP decodes an IpAddress value.
func (v Value) IP() (net.IP, error) {
	if v.Kind != KindNormal || v.Class != classApplication || v.Type != TypeIPAddress {
		return nil, fmt.Errorf("not an IpAddress value")
	}
	if len(v.Bytes) != 4 {
		return nil, fmt.Errorf("IpAddress with %d octets", len(v.Bytes))
	}
	return net.IPv4(v.Bytes[0], v.Bytes[1], v.Bytes[2], v.Bytes[3]), nil
}

// Duration decodes a TimeTicks value as a duration (1 tick = 10 ms).
func (v Value) Duration() (time.Duration, error) {
	if v.Kind != KindNormal || v.Class != classApplication || v.Type != TypeTimeTicks {
		return 0, fmt.Errorf("not a TimeTicks value")
	}
	return time.Duration(decodeBerUint(v.Bytes)) * 10 * time.Millisecond, nil
}

// Oid decodes an OBJECT IDENTIFIER value.
func (v Value) Oid() (Oid, error) {
	if v.Kind != KindNormal || v.Class != classUniversal || v.Type != TypeOID {
		return nil, fmt.Errorf("not an OID value")
	}
	return decodeOidContent(v.Bytes)
}

// String renders the value for display: strings verbatim when printable,
// binary payloads hex-encoded, numbers in decimal.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindNoSuchObject, KindNoSuchInstance, KindEndOfMibView:
		return v.Kind.String()
	}
	switch v.Class {
	case classUniversal:
		switch v.Type {
		case TypeInteger:
			return fmt.Sprintf("%d", decodeBerInt(v.Bytes))
		case TypeOctetString:
			if isPrintable(v.Bytes) {
				return string(v.Bytes)
			}
			return hex.EncodeToString(v.Bytes)
		case TypeOID:
			if oid, err := decodeOidContent(v.Bytes); err == nil {
				return oid.String()
			}
		}
	case classApplication:
		switch v.Type {
		case TypeIPAddress:
			if ip, err := v.IP(); err == nil {
				return ip.String()
			}
		case TypeCounter32, TypeGauge32, TypeCounter64:
			return fmt.Sprintf("%d", decodeBerUint(v.Bytes))
		case TypeTimeTicks:
			d, _ := v.Duration()
			return fmt.Sprintf("%d (%s)", decodeBerUint(v.Bytes), d)
		}
	}
	return hex.EncodeToString(v.Bytes)
}

// TypeName returns the SNMP type name for display.
func (v Value) TypeName() string {
	switch v.Kind {
	case KindNull:
		return "Null"
	case KindNoSuchObject:
		return "NoSuchObject"
	case KindNoSuchInstance:
		return "NoSuchInstance"
	case KindEndOfMibView:
		return "EndOfMibView"
	}
	switch v.Class {
	case classUniversal:
		switch v.Type {
		case TypeInteger:
			return "Integer"
		case TypeOctetString:
			return "OctetString"
		case TypeOID:
			return "ObjectIdentifier"
		}
	case classApplication:
		switch v.Type {
		case TypeIPAddress:
			return "IpAddress"
		case TypeCounter32:
			return "Counter32"
		case TypeGauge32:
			return "Gauge32"
		case TypeTimeTicks:
			return "TimeTicks"
		case TypeOpaque:
			return "Opaque"
		case TypeCounter64:
			return "Counter64"
		}
	}
	return fmt.Sprintf("Unknown(class=%d, tag=%d)", v.Class, v.Type)
}

// raw converts the value to the codec's RawValue for marshalling.
func (v Value) raw() ASNber.RawValue {
	switch v.Kind {
	case KindNull:
		return ASNber.NullRawValue
	case KindNoSuchObject:
		return ASNber.RawValue{Class: ASNber.ClassContextSpecific, Tag: tagNoSuchObject}
	case KindNoSuchInstance:
		return ASNber.RawValue{Class: ASNber.ClassContextSpecific, Tag: tagNoSuchInstance}
	case KindEndOfMibView:
		return ASNber.RawValue{Class: ASNber.ClassContextSpecific, Tag: tagEndOfMibView}
	}
	return ASNber.RawValue{Class: v.Class, Tag: v.Type, Bytes: v.Bytes}
}

// valueFromRaw converts a decoded RawValue into the tagged variant,
// classifying the context-specific exception tags.
func valueFromRaw(r ASNber.RawValue) Value {
	if r.Class == ASNber.ClassContextSpecific && !r.IsCompound {
		switch r.Tag {
		case tagNoSuchObject:
			return Value{Kind: KindNoSuchObject, Class: classContext, Type: r.Tag}
		case tagNoSuchInstance:
			return Value{Kind: KindNoSuchInstance, Class: classContext, Type: r.Tag}
		case tagEndOfMibView:
			return Value{Kind: KindEndOfMibView, Class: classContext, Type: r.Tag}
		}
	}
	if r.Class == classUniversal && r.Tag == TypeNull {
		return nullValue
	}
	return Value{Kind: KindNormal, Class: r.Class, Type: r.Tag, Bytes: r.Bytes}
}

func encodeBerInt(n int64) []byte {
	out := make([]byte, 8)
	for i := range out {
		out[i] = byte(n >> uint((7-i)*8))
	}
	// strip redundant leading octets, keeping the sign
	i := 0
	for i < 7 {
		if out[i] == 0x00 && out[i+1]&0x80 == 0 {
			i++
			continue
		}
		if out[i] == 0xff && out[i+1]&0x80 != 0 {
			i++
			continue
		}
		break
	}
	return out[i:]
}

func encodeBerUint(n uint64) []byte {
	out := make([]byte, 9)
	for i := 1; i < 9; i++ {
		out[i] = byte(n >> uint((8-i)*8))
	}
	i := 0
	for i < 8 && out[i] == 0x00 && out[i+1]&0x80 == 0 {
		i++
	}
	return out[i:]
}

func decodeBerInt(b []byte) int64 {
	if len(b) == 0 {
		return 0
	}
	var n int64
	if b[0]&0x80 != 0 {
		n = -1
	}
	for _, c := range b {
		n = n<<8 | int64(c)
	}
	return n
}

func decodeBerUint(b []byte) uint64 {
	var n uint64
	for _, c := range b {
		n = n<<8 | uint64(c)
	}
	return n
}

// decodeOidContent parses BER OID content octets (the first octet packs
// the first two sub-identifiers as 40*x+y, the rest are base-128).
func decodeOidContent(b []byte) (Oid, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("empty OID content")
	}
	oid := make(Oid, 0, len(b)+1)
	oid = append(oid, int(b[0])/40, int(b[0])%40)
	var acc int
	for _, c := range b[1:] {
		acc = acc<<7 | int(c&0x7f)
		if c&0x80 == 0 {
			oid = append(oid, acc)
			acc = 0
		}
	}
	if acc != 0 {
		return nil, fmt.Errorf("truncated OID sub-identifier")
	}
	return oid, nil
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if c == '\n' || c == '\r' || c == '\t' {
			continue
		}
		if c > unicode.MaxASCII || !unicode.IsPrint(rune(c)) {
			return false
		}
	}
	return true
}
