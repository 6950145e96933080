// PureSNMP-Go - SNMP client library for Go
// License: MIT
package puresnmp

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	ASNber "github.com/OlegPowerC/asn1modsnmp"
)

// errNotInTimeWindow marks a usmStatsNotInTimeWindows report. It is
// recoverable: the caller refreshes the engine clock from the report
// and resends once.
var errNotInTimeWindow = errors.New("message not in time window")

// discoveryProbeOid is the varbind sent in the discovery request. Any
// OID works since the agent answers with a report before looking at
// the PDU; sysDescr.0 is conventional.
var discoveryProbeOid = Oid{1, 3, 6, 1, 2, 1, 1, 1, 0}

// USM is the user-based security model (RFC 3414). One instance serves
// one session: it owns the session's privacy salt counters and a cache
// of localized keys per engine ID. Key localization hashes a megabyte
// of password stream, so the cache matters.
type USM struct {
	mu       sync.Mutex
	keyCache map[string]localizedKeys
	privProv PrivProvider
	privName string
}

type localizedKeys struct {
	auth []byte
	priv []byte
}

// NewUSM returns a fresh user-based security model.
func NewUSM() *USM {
	return &USM{keyCache: make(map[string]localizedKeys)}
}

func (*USM) ID() int { return SecurityModelUSM }

func usmCredentials(creds Credentials) (V3, error) {
	c, ok := creds.(V3)
	if !ok {
		return V3{}, fmt.Errorf("%w: USM needs V3 credentials", ErrBadCredentials)
	}
	return c, nil
}

// providers resolves the auth and priv providers named by the
// credentials. priv is nil below authPriv.
func (u *USM) providers(c V3) (auth AuthProvider, hasAuth bool, priv PrivProvider, err error) {
	if c.AuthMethod != "" {
		auth, err = authProviderByName(c.AuthMethod)
		if err != nil {
			return AuthProvider{}, false, nil, err
		}
		hasAuth = true
	}
	if c.PrivMethod != "" {
		if !hasAuth {
			return AuthProvider{}, false, nil, fmt.Errorf("%w: privacy requires authentication", ErrUnsupportedSecurityLevel)
		}
		// one provider instance per session keeps its salt counter monotonic
		u.mu.Lock()
		if u.privProv == nil || u.privName != c.PrivMethod {
			u.privProv, err = privProviderByName(c.PrivMethod)
			u.privName = c.PrivMethod
		}
		priv = u.privProv
		u.mu.Unlock()
		if err != nil {
			return AuthProvider{}, false, nil, err
		}
	}
	return auth, hasAuth, priv, nil
}

// keys returns the localized (and, for privacy, extended) keys for the
// engine, computing and caching them on first use.
func (u *USM) keys(c V3, auth AuthProvider, priv PrivProvider, engineID []byte) (localizedKeys, error) {
	cacheKey := c.AuthMethod + "/" + c.PrivMethod + "/" + c.UserName + "@" + hex.EncodeToString(engineID)
	u.mu.Lock()
	k, ok := u.keyCache[cacheKey]
	u.mu.Unlock()
	if ok {
		return k, nil
	}
	k.auth = auth.LocalizeKey([]byte(c.AuthKey), engineID)
	if priv != nil {
		base := auth.LocalizeKey([]byte(c.PrivKey), engineID)
		var err error
		k.priv, err = priv.ExtendKey(base, auth, engineID)
		if err != nil {
			return localizedKeys{}, err
		}
	}
	u.mu.Lock()
	u.keyCache[cacheKey] = k
	u.mu.Unlock()
	return k, nil
}

// GenerateRequestMessage runs the outgoing pipeline: encode the scoped
// PDU, encrypt it when the level asks for privacy, assemble the packet
// with a zero-filled digest field, then compute the digest and splice
// it in by re-encoding the security parameters.
func (u *USM) GenerateRequestMessage(msg Message, disco *DiscoData, creds Credentials) ([]byte, error) {
	c, err := usmCredentials(creds)
	if err != nil {
		return nil, err
	}
	auth, hasAuth, priv, err := u.providers(c)
	if err != nil {
		return nil, err
	}

	var engineID []byte
	var boots, engineTime int32
	if disco != nil {
		engineID = disco.EngineID()
		boots, engineTime = disco.Timing()
	}

	header := msg.Header
	header.Flags.Auth = hasAuth
	header.Flags.Priv = priv != nil
	header.SecurityModel = SecurityModelUSM
	if err := header.Flags.validate(); err != nil {
		return nil, err
	}

	scoped := msg.Scoped
	if len(scoped.ContextEngineID) == 0 {
		scoped.ContextEngineID = engineID
	}
	scopedBytes, err := encodeScopedPDU(scoped)
	if err != nil {
		return nil, err
	}

	sec := USMSecurityParameters{
		AuthoritativeEngineID: engineID,
		Boots:                 boots,
		Time:                  engineTime,
		UserName:              []byte(c.UserName),
	}

	var keys localizedKeys
	if hasAuth {
		keys, err = u.keys(c, auth, priv, engineID)
		if err != nil {
			return nil, err
		}
		sec.AuthParams = make([]byte, auth.DigestLength())
	}

	var payload ASNber.RawValue
	if priv != nil {
		ct, salt, err := priv.Encrypt(scopedBytes, keys.priv, boots, engineTime)
		if err != nil {
			var encErr EncryptionError
			if errors.As(err, &encErr) {
				return nil, err
			}
			return nil, EncryptionError{Cause: err}
		}
		sec.PrivParams = salt
		payload = ASNber.RawValue{Tag: TypeOctetString, Bytes: ct}
	} else {
		payload = ASNber.RawValue{FullBytes: scopedBytes}
	}

	packet, err := encodeV3Packet(header, sec, payload)
	if err != nil {
		return nil, err
	}

	if hasAuth {
		sec.AuthParams = auth.Digest(packet, keys.auth)
		packet, err = encodeV3Packet(header, sec, payload)
		if err != nil {
			return nil, err
		}
	}
	return packet, nil
}

// ProcessIncomingMessage runs the incoming pipeline: parse, match the
// user, verify the digest against the raw packet, then decrypt and
// decode the scoped PDU.
func (u *USM) ProcessIncomingMessage(packet []byte, disco *DiscoData, creds Credentials) (Message, error) {
	c, err := usmCredentials(creds)
	if err != nil {
		return Message{}, err
	}
	auth, hasAuth, priv, err := u.providers(c)
	if err != nil {
		return Message{}, err
	}

	msg, payload, err := decodeV3Packet(packet)
	if err != nil {
		return Message{}, err
	}

	// Reports may come back with an empty user; anything else must be
	// the session's own user.
	if len(msg.Security.UserName) > 0 && !bytes.Equal(msg.Security.UserName, []byte(c.UserName)) {
		return Message{}, UnknownUser{Name: string(msg.Security.UserName)}
	}

	var keys localizedKeys
	if hasAuth && (msg.Header.Flags.Auth || msg.Header.Flags.Priv) {
		keys, err = u.keys(c, auth, priv, msg.Security.AuthoritativeEngineID)
		if err != nil {
			return Message{}, err
		}
	}

	if msg.Header.Flags.Auth {
		if !hasAuth {
			return Message{}, AuthenticationError{Message: "authenticated response for a noAuth session"}
		}
		if err := auth.VerifyPacket(packet, msg.Security.AuthParams, keys.auth); err != nil {
			return Message{}, err
		}
	}

	var scopedBytes []byte
	if msg.Header.Flags.Priv {
		if priv == nil {
			return Message{}, DecryptionError{Cause: fmt.Errorf("encrypted response for a noPriv session")}
		}
		scopedBytes, err = priv.Decrypt(payload.Bytes, keys.priv, msg.Security.PrivParams,
			msg.Security.Boots, msg.Security.Time)
		if err != nil {
			return Message{}, err
		}
	} else {
		scopedBytes = payload.FullBytes
	}

	msg.Scoped, err = decodeScopedPDU(scopedBytes)
	if err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Discover performs the engine discovery exchange (RFC 3414 §4): an
// unauthenticated probe whose usmStatsUnknownEngineIDs report carries
// the authoritative engine ID and, with cooperative agents, its clock.
func (u *USM) Discover(ctx context.Context, t Transport, messageID int32) (*DiscoData, error) {
	msg := Message{
		Version: VersionV3,
		Header: HeaderData{
			MessageID:     messageID,
			MaxSize:       DefaultMaxMsgSize,
			Flags:         V3Flags{Reportable: true},
			SecurityModel: SecurityModelUSM,
		},
		Scoped: ScopedPDU{
			PDU: PDU{
				Type:      PDUGetRequest,
				RequestID: messageID,
				VarBinds:  []VarBind{{Oid: discoveryProbeOid, Value: NullValue()}},
			},
		},
	}

	sec := USMSecurityParameters{}
	scopedBytes, err := encodeScopedPDU(msg.Scoped)
	if err != nil {
		return nil, err
	}
	packet, err := encodeV3Packet(msg.Header, sec, ASNber.RawValue{FullBytes: scopedBytes})
	if err != nil {
		return nil, err
	}

	reply, err := t.Send(ctx, packet)
	if err != nil {
		return nil, SnmpError{Message: "discovery exchange failed", Cause: err}
	}

	rmsg, payload, err := decodeV3Packet(reply)
	if err != nil {
		return nil, err
	}
	rmsg.Scoped, err = decodeScopedPDU(payload.FullBytes)
	if err != nil {
		return nil, err
	}

	pdu := rmsg.Scoped.PDU
	if pdu.Type != PDUReport || len(pdu.VarBinds) == 0 {
		return nil, SnmpError{Message: "discovery expected a report PDU"}
	}
	// a stale or cross-talk report must never seed the engine identity
	if pdu.RequestID != messageID {
		return nil, InvalidResponseID{Expected: messageID, Got: pdu.RequestID}
	}
	if !pdu.VarBinds[0].Oid.Equal(oidUnknownEngineIDs) {
		return nil, SnmpError{Message: fmt.Sprintf("discovery got unexpected report %s", pdu.VarBinds[0].Oid)}
	}
	if len(rmsg.Security.AuthoritativeEngineID) == 0 {
		return nil, SnmpError{Message: "discovery report carries no engine ID"}
	}

	var reportCount uint32
	if n, err := pdu.VarBinds[0].Value.Uint(); err == nil {
		reportCount = uint32(n)
	}

	logInfof("discovered engine %s (boots=%d, time=%d, unknownEngineIDs=%d)",
		hex.EncodeToString(rmsg.Security.AuthoritativeEngineID), rmsg.Security.Boots, rmsg.Security.Time, reportCount)

	disco := &DiscoData{
		engineID:         rmsg.Security.AuthoritativeEngineID,
		unknownEngineIDs: reportCount,
	}
	disco.setTiming(rmsg.Security.Boots, rmsg.Security.Time)
	return disco, nil
}

// encodeV3Packet assembles a complete v3 message from its parts.
func encodeV3Packet(header HeaderData, sec USMSecurityParameters, payload ASNber.RawValue) ([]byte, error) {
	headerBytes, err := ASNber.Marshal(v3HeaderSeq{
		MsgID:            header.MessageID,
		MsgMaxSize:       header.MaxSize,
		MsgFlag:          []byte{header.Flags.byte()},
		MsgSecurityModel: header.SecurityModel,
	})
	if err != nil {
		return nil, SnmpError{Message: "cannot encode message header", Cause: err}
	}
	secBytes, err := encodeUSMParams(sec)
	if err != nil {
		return nil, SnmpError{Message: "cannot encode security parameters", Cause: err}
	}
	packet, err := ASNber.Marshal(v3Packet{
		Version:    VersionV3,
		GlobalData: ASNber.RawValue{FullBytes: headerBytes},
		Security:   secBytes,
		Payload:    payload,
	})
	if err != nil {
		return nil, SnmpError{Message: "cannot encode message", Cause: err}
	}
	return packet, nil
}

// decodeV3Packet parses the outer v3 message. The payload comes back
// raw; the caller decrypts and decodes it according to the flags.
func decodeV3Packet(packet []byte) (Message, ASNber.RawValue, error) {
	if len(packet) == 0 {
		return Message{}, ASNber.RawValue{}, ErrEmptyMessage
	}
	var seq v3Packet
	if _, err := ASNber.Unmarshal(packet, &seq); err != nil {
		return Message{}, ASNber.RawValue{}, SnmpError{Message: "cannot parse message", Cause: err}
	}
	if seq.Version != VersionV3 {
		return Message{}, ASNber.RawValue{}, SnmpError{Message: fmt.Sprintf("unexpected version %d", seq.Version)}
	}
	var hdr v3HeaderSeq
	if _, err := ASNber.Unmarshal(seq.GlobalData.FullBytes, &hdr); err != nil {
		return Message{}, ASNber.RawValue{}, SnmpError{Message: "cannot parse message header", Cause: err}
	}
	if len(hdr.MsgFlag) != 1 {
		return Message{}, ASNber.RawValue{}, SnmpError{Message: "malformed msgFlags"}
	}
	flags := v3FlagsFromByte(hdr.MsgFlag[0])
	if err := flags.validate(); err != nil {
		return Message{}, ASNber.RawValue{}, err
	}
	sec, err := decodeUSMParams(seq.Security)
	if err != nil {
		return Message{}, ASNber.RawValue{}, err
	}
	msg := Message{
		Version: seq.Version,
		Header: HeaderData{
			MessageID:     hdr.MsgID,
			MaxSize:       hdr.MsgMaxSize,
			Flags:         flags,
			SecurityModel: hdr.MsgSecurityModel,
		},
		Security: sec,
	}
	return msg, seq.Payload, nil
}
