// PureSNMP-Go - SNMP client library for Go
// License: MIT
package puresnmp

import (
	"errors"
	"fmt"
)

// SnmpError is the generic protocol-level failure. Every more specific
// error of this package either is one or wraps one, so callers can match
// the whole family with errors.As.
type SnmpError struct {
	Message string
	Cause   error
}

func (e SnmpError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e SnmpError) Unwrap() error { return e.Cause }

// ErrorResponse reports a non-zero error-status in a response PDU,
// carrying the offending OID when the agent identified one.
//
// Returned by all request operations. Check the Status against the
// Status* constants or just print it - the name is resolved via the
// RFC 3416 table.
type ErrorResponse struct {
	Status int32
	Index  int32
	Oid    Oid
}

func (e ErrorResponse) Error() string {
	name, ok := errorStatusNames[e.Status]
	if !ok {
		name = fmt.Sprintf("error-status: %d", e.Status)
	}
	return fmt.Sprintf("%s (status=%d, index=%d): %s", name, e.Status, e.Index, e.Oid)
}

// NoSuchOID signals that the requested OID does not exist on the agent.
// Walk operations treat it as normal end-of-tree.
type NoSuchOID struct {
	Oid Oid
}

func (e NoSuchOID) Error() string {
	return fmt.Sprintf("no such OID: %s", e.Oid)
}

// FaultySNMPImplementation reports an agent that violated the GetNext
// contract by returning an OID not strictly greater than the requested
// one. Without detection such agents would loop a walk forever.
type FaultySNMPImplementation struct {
	Requested Oid
	Received  Oid
}

func (e FaultySNMPImplementation) Error() string {
	return fmt.Sprintf("faulty SNMP implementation: GetNext(%s) returned non-increasing OID %s",
		e.Requested, e.Received)
}

// TooManyVarbinds reports a bulk response exceeding the maximum number of
// varbinds the request allows (non-repeaters + max-repetitions per
// repeating OID).
type TooManyVarbinds struct {
	Got int
	Max int
}

func (e TooManyVarbinds) Error() string {
	return fmt.Sprintf("unexpected varbind count: got %d, request allows at most %d", e.Got, e.Max)
}

// AuthenticationError reports a failed digest computation or verification.
type AuthenticationError struct {
	Message string
	Cause   error
}

func (e AuthenticationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("authentication error: %s: %v", e.Message, e.Cause)
	}
	return "authentication error: " + e.Message
}

func (e AuthenticationError) Unwrap() error { return e.Cause }

// EncryptionError wraps any failure while encrypting an outgoing
// ScopedPDU. Raw cipher errors never escape the security pipeline.
type EncryptionError struct {
	Cause error
}

func (e EncryptionError) Error() string { return fmt.Sprintf("encryption error: %v", e.Cause) }
func (e EncryptionError) Unwrap() error { return e.Cause }

// DecryptionError wraps any failure while decrypting an incoming
// ScopedPDU, including the corruption case of a non-empty ciphertext
// decrypting to an empty plaintext.
type DecryptionError struct {
	Cause error
}

func (e DecryptionError) Error() string { return fmt.Sprintf("decryption error: %v", e.Cause) }
func (e DecryptionError) Unwrap() error { return e.Cause }

// UnknownUser reports a response whose USM user-name does not match the
// credentials of the session. Fatal, never retried.
type UnknownUser struct {
	Name string
}

func (e UnknownUser) Error() string { return fmt.Sprintf("unknown user: %q", e.Name) }

// InvalidResponseID reports a response whose embedded request-id does not
// match the request it is supposed to answer.
type InvalidResponseID struct {
	Expected int32
	Got      int32
}

func (e InvalidResponseID) Error() string {
	return fmt.Sprintf("invalid response id: expected %d, got %d", e.Expected, e.Got)
}

var (
	// ErrUnsupportedSecurityLevel is raised when credentials request
	// authentication or privacy without naming a method for it.
	ErrUnsupportedSecurityLevel = errors.New("unsupported security level")

	// ErrUnknownMessageProcessingModel is raised for a version identifier
	// with no registered message-processing model.
	ErrUnknownMessageProcessingModel = errors.New("unknown message processing model")

	// ErrUnknownSecurityModel is raised for a security-model identifier
	// with no registered implementation.
	ErrUnknownSecurityModel = errors.New("unknown security model")

	// ErrUnknownAuthMethod is raised for an authentication method name
	// missing from the static registry.
	ErrUnknownAuthMethod = errors.New("unknown authentication method")

	// ErrUnknownPrivMethod is raised for a privacy method name missing
	// from the static registry.
	ErrUnknownPrivMethod = errors.New("unknown privacy method")

	// ErrBadCredentials is raised when a message-processing model is
	// handed a credential type of the wrong SNMP version. Fatal,
	// non-retryable: the session is misconfigured.
	ErrBadCredentials = errors.New("wrong credential type for this SNMP version")

	// ErrEmptyMessage is raised when a zero-length datagram is handed to
	// a decoder.
	ErrEmptyMessage = errors.New("empty SNMP message")
)

// usmReportOids maps the USM statistic report OIDs (RFC 3414 §5) to the
// error each one indicates. The incoming pipeline checks the first
// varbind of every Report PDU against this table.
var usmReportOids = []struct {
	oid     Oid
	message string
}{
	{Oid{1, 3, 6, 1, 6, 3, 15, 1, 1, 1, 0}, "unsupported security level (usmStatsUnsupportedSecLevels)"},
	{Oid{1, 3, 6, 1, 6, 3, 15, 1, 1, 2, 0}, "message not in time window (usmStatsNotInTimeWindows)"},
	{Oid{1, 3, 6, 1, 6, 3, 15, 1, 1, 3, 0}, "unknown user name (usmStatsUnknownUserNames)"},
	{Oid{1, 3, 6, 1, 6, 3, 15, 1, 1, 4, 0}, "unknown engine ID (usmStatsUnknownEngineIDs)"},
	{Oid{1, 3, 6, 1, 6, 3, 15, 1, 1, 5, 0}, "wrong message digest (usmStatsWrongDigests)"},
	{Oid{1, 3, 6, 1, 6, 3, 15, 1, 1, 6, 0}, "unable to decrypt message (usmStatsDecryptionErrors)"},
}

// oidUnknownEngineIDs is the report OID expected in a discovery response.
var oidUnknownEngineIDs = Oid{1, 3, 6, 1, 6, 3, 15, 1, 1, 4, 0}
