// PureSNMP-Go - SNMP client library for Go
// License: MIT
package puresnmp

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"time"
)

// ClientConfig tunes a session. The zero value selects the defaults:
// 300 ms timeout, 3 attempts, 25 bulk repetitions, strict handling of
// faulty agents.
type ClientConfig struct {
	Timeout        time.Duration
	Retries        int
	MaxRepetitions int32
	// OnFaultyAgent selects what a walk does when an agent returns
	// non-increasing OIDs: PolicyStrict aborts with
	// FaultySNMPImplementation, PolicyWarn logs and truncates that
	// subtree.
	OnFaultyAgent ErrorPolicy
}

func (cfg ClientConfig) withDefaults() ClientConfig {
	if cfg.Timeout <= 0 || cfg.Timeout > MaxTimeoutMs*time.Millisecond {
		cfg.Timeout = DefaultTimeoutMs * time.Millisecond
	}
	if cfg.Retries <= 0 || cfg.Retries > MaxRetries {
		cfg.Retries = DefaultRetries
	}
	if cfg.MaxRepetitions <= 0 || cfg.MaxRepetitions > MaxRepetitionsCap {
		cfg.MaxRepetitions = DefaultRepetitions
	}
	return cfg
}

// Client is an SNMP session against one agent. Safe for concurrent
// use; requests are serialized on the transport.
type Client struct {
	transport Transport
	mpm       MessageProcessingModel
	creds     Credentials
	cfg       ClientConfig
	requestID int32
}

// NewClient opens a UDP session. address is "host:port" or a bare host
// (port 161). The SNMP version follows the credential type.
func NewClient(address string, creds Credentials, cfg ClientConfig) (*Client, error) {
	cfg = cfg.withDefaults()
	t, err := DialUDP(address, cfg.Timeout, cfg.Retries)
	if err != nil {
		return nil, err
	}
	c, err := NewClientWithTransport(t, creds, cfg)
	if err != nil {
		t.Close()
		return nil, err
	}
	return c, nil
}

// NewClientWithTransport builds a session on an existing transport.
func NewClientWithTransport(t Transport, creds Credentials, cfg ClientConfig) (*Client, error) {
	mpm, err := NewMessageProcessingModel(creds.Version())
	if err != nil {
		return nil, err
	}
	if c, ok := creds.(V3); ok {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	return &Client{
		transport: t,
		mpm:       mpm,
		creds:     creds,
		cfg:       cfg.withDefaults(),
		requestID: rand.Int31(),
	}, nil
}

// Close releases the transport.
func (c *Client) Close() error {
	return c.transport.Close()
}

// exchange sends one PDU and returns the matching response PDU. It
// resynchronizes and resends once after a NotInTimeWindows report and
// skips responses whose request-id does not match (late answers to an
// earlier retransmission).
func (c *Client) exchange(ctx context.Context, pdu PDU) (PDU, error) {
	pdu.RequestID = atomic.AddInt32(&c.requestID, 1)

	var lastErr error
	resynced := false
	for attempt := 0; attempt < c.cfg.Retries; attempt++ {
		packet, err := c.mpm.EncodeRequest(ctx, pdu, c.transport, c.creds)
		if err != nil {
			return PDU{}, err
		}
		reply, err := c.transport.Send(ctx, packet)
		if err != nil {
			return PDU{}, err
		}
		resp, err := c.mpm.DecodeResponse(reply, c.creds)
		if errors.Is(err, errNotInTimeWindow) {
			if resynced {
				return PDU{}, SnmpError{Message: "request rejected again after clock resync"}
			}
			resynced = true
			logDebugf("resending request %d after engine clock resync", pdu.RequestID)
			continue
		}
		var errResp ErrorResponse
		if err == nil || errors.As(err, &errResp) {
			if resp.RequestID != pdu.RequestID {
				lastErr = InvalidResponseID{Expected: pdu.RequestID, Got: resp.RequestID}
				logDebugf("dropping response with stale request-id %d (want %d)", resp.RequestID, pdu.RequestID)
				continue
			}
		}
		return resp, err
	}
	if lastErr == nil {
		lastErr = SnmpError{Message: "request failed"}
	}
	return PDU{}, lastErr
}

// Get fetches a single value. Missing OIDs surface as NoSuchOID for
// every protocol version.
func (c *Client) Get(ctx context.Context, oid Oid) (VarBind, error) {
	vbs, err := c.MultiGet(ctx, []Oid{oid})
	if err != nil {
		return VarBind{}, err
	}
	return vbs[0], nil
}

// MultiGet fetches several values in one request.
func (c *Client) MultiGet(ctx context.Context, oids []Oid) ([]VarBind, error) {
	pdu, err := c.exchange(ctx, PDU{Type: PDUGetRequest, VarBinds: nullVarBinds(oids)})
	if err != nil {
		var errResp ErrorResponse
		if errors.As(err, &errResp) && errResp.Status == StatusNoSuchName {
			return nil, NoSuchOID{Oid: errResp.Oid}
		}
		return nil, err
	}
	if len(pdu.VarBinds) != len(oids) {
		return nil, TooManyVarbinds{Got: len(pdu.VarBinds), Max: len(oids)}
	}
	for _, vb := range pdu.VarBinds {
		if vb.Value.IsException() {
			return nil, NoSuchOID{Oid: vb.Oid}
		}
	}
	return pdu.VarBinds, nil
}

// GetNext fetches the lexicographically next varbind after oid.
func (c *Client) GetNext(ctx context.Context, oid Oid) (VarBind, error) {
	vbs, err := c.MultiGetNext(ctx, []Oid{oid})
	if err != nil {
		return VarBind{}, err
	}
	return vbs[0], nil
}

// MultiGetNext fetches the next varbind for each OID. Exceptions are
// returned in the varbinds, not converted to errors; walks need them.
func (c *Client) MultiGetNext(ctx context.Context, oids []Oid) ([]VarBind, error) {
	pdu, err := c.exchange(ctx, PDU{Type: PDUGetNextRequest, VarBinds: nullVarBinds(oids)})
	if err != nil {
		return nil, err
	}
	if len(pdu.VarBinds) != len(oids) {
		return nil, TooManyVarbinds{Got: len(pdu.VarBinds), Max: len(oids)}
	}
	return pdu.VarBinds, nil
}

// Set writes a single value and returns the varbind the agent reports
// back.
func (c *Client) Set(ctx context.Context, vb VarBind) (VarBind, error) {
	vbs, err := c.MultiSet(ctx, []VarBind{vb})
	if err != nil {
		return VarBind{}, err
	}
	return vbs[0], nil
}

// MultiSet writes several values atomically (RFC 3416 as-if-simultaneous).
func (c *Client) MultiSet(ctx context.Context, vbs []VarBind) ([]VarBind, error) {
	pdu, err := c.exchange(ctx, PDU{Type: PDUSetRequest, VarBinds: vbs})
	if err != nil {
		return nil, err
	}
	return pdu.VarBinds, nil
}

// BulkResult splits a GetBulk response into the non-repeating scalars
// and the repeating listing.
type BulkResult struct {
	Scalars []VarBind
	Listing []VarBind
}

// BulkGet issues a single GetBulk request: each scalar OID yields its
// GetNext, each repeating OID up to maxRepetitions successors. A zero
// maxRepetitions uses the session default.
func (c *Client) BulkGet(ctx context.Context, scalars, repeating []Oid, maxRepetitions int32) (BulkResult, error) {
	if maxRepetitions <= 0 || maxRepetitions > MaxRepetitionsCap {
		maxRepetitions = c.cfg.MaxRepetitions
	}
	oids := make([]Oid, 0, len(scalars)+len(repeating))
	oids = append(oids, scalars...)
	oids = append(oids, repeating...)
	pdu, err := c.exchange(ctx, PDU{
		Type:           PDUGetBulkRequest,
		NonRepeaters:   int32(len(scalars)),
		MaxRepetitions: maxRepetitions,
		VarBinds:       nullVarBinds(oids),
	})
	if err != nil {
		return BulkResult{}, err
	}
	maxVbs := len(scalars) + int(maxRepetitions)*len(repeating)
	if len(pdu.VarBinds) > maxVbs {
		return BulkResult{}, TooManyVarbinds{Got: len(pdu.VarBinds), Max: maxVbs}
	}
	if len(pdu.VarBinds) < len(scalars) {
		return BulkResult{}, SnmpError{Message: "bulk response shorter than the non-repeater count"}
	}
	out := BulkResult{Scalars: pdu.VarBinds[:len(scalars)]}
	for _, vb := range pdu.VarBinds[len(scalars):] {
		if vb.Value.Kind == KindEndOfMibView {
			break
		}
		out.Listing = append(out.Listing, vb)
	}
	return out, nil
}

func nullVarBinds(oids []Oid) []VarBind {
	vbs := make([]VarBind, 0, len(oids))
	for _, oid := range oids {
		vbs = append(vbs, VarBind{Oid: oid, Value: NullValue()})
	}
	return vbs
}
