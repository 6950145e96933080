// PureSNMP-Go - SNMP client library for Go
// License: MIT
package puresnmp

// ASN.1/BER tag encoding constants.
// Bits 7-6: Class (Universal=00, Application=01, Context=10, Private=11)
// Bit 5: Constructed flag (0=primitive, 1=constructed/compound like SEQUENCE)
// Bits 4-0: Tag Number

const (
	// SNMP Application Types (Class=1)
	TypeIPAddress = 0
	TypeCounter32 = 1
	TypeGauge32   = 2
	TypeTimeTicks = 3
	TypeOpaque    = 4
	TypeCounter64 = 6

	// Universal types used directly (Class=0)
	TypeInteger     = 2
	TypeOctetString = 4
	TypeNull        = 5
	TypeOID         = 6

	// Limits & Defaults
	MaxWalkRounds            = 1000000
	recvBufferSize           = 65535
	MaxTimeoutMs             = 1000
	DefaultTimeoutMs         = 300
	MaxRetries               = 10
	DefaultRetries           = 3
	MaxRepetitionsCap  int32 = 80
	DefaultRepetitions int32 = 25
	DefaultMaxMsgSize        = 1360

	// SNMPv2 Exception Tags (ContextSpecific)
	tagNoSuchObject   = 0
	tagNoSuchInstance = 1
	tagEndOfMibView   = 2
)

const (
	// SNMP protocol versions as encoded on the wire
	VersionV1  = 0
	VersionV2C = 1
	VersionV3  = 3
)

const (
	// SNMPv3 Message Flags (msgFlags byte)
	flagAuthBit       = 0
	flagPrivBit       = 1
	flagReportableBit = 2
)

const (
	// Security model identifiers (RFC 3411)
	SecurityModelV1  = 1
	SecurityModelV2C = 2
	SecurityModelUSM = 3
)

// PDUType is the context-specific tag of a PDU inside its envelope.
type PDUType int

const (
	PDUGetRequest     PDUType = 0
	PDUGetNextRequest PDUType = 1
	PDUGetResponse    PDUType = 2
	PDUSetRequest     PDUType = 3
	PDUTrapV1         PDUType = 4
	PDUGetBulkRequest PDUType = 5
	PDUInformRequest  PDUType = 6
	PDUTrapV2         PDUType = 7
	PDUReport         PDUType = 8
)

const (
	// SNMP Error Status Codes (RFC 3416 §4.1.2.1)
	StatusNoError             = 0
	StatusTooBig              = 1
	StatusNoSuchName          = 2
	StatusBadValue            = 3
	StatusReadOnly            = 4
	StatusGenErr              = 5
	StatusNoAccess            = 6
	StatusWrongType           = 7
	StatusWrongLength         = 8
	StatusWrongEncoding       = 9
	StatusWrongValue          = 10
	StatusNoCreation          = 11
	StatusInconsistentValue   = 12
	StatusResourceUnavailable = 13
	StatusCommitFailed        = 14
	StatusUndoFailed          = 15
	StatusAuthorizationError  = 16
	StatusNotWritable         = 17
	StatusInconsistentName    = 18
)

var errorStatusNames = map[int32]string{
	StatusNoError:             "noError",
	StatusTooBig:              "tooBig",
	StatusNoSuchName:          "noSuchName",
	StatusBadValue:            "badValue",
	StatusReadOnly:            "readOnly",
	StatusGenErr:              "genErr",
	StatusNoAccess:            "noAccess",
	StatusWrongType:           "wrongType",
	StatusWrongLength:         "wrongLength",
	StatusWrongEncoding:       "wrongEncoding",
	StatusWrongValue:          "wrongValue",
	StatusNoCreation:          "noCreation",
	StatusInconsistentValue:   "inconsistentValue",
	StatusResourceUnavailable: "resourceUnavailable",
	StatusCommitFailed:        "commitFailed",
	StatusUndoFailed:          "undoFailed",
	StatusAuthorizationError:  "authorizationError",
	StatusNotWritable:         "notWritable",
	StatusInconsistentName:    "inconsistentName",
}
