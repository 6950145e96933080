// PureSNMP-Go - SNMP client library for Go
// License: MIT
package puresnmp

import "fmt"

// SecurityLevel is the USM security level of a V3 session, derived from
// which keys the credentials carry.
type SecurityLevel int

const (
	LevelNoAuthNoPriv SecurityLevel = iota
	LevelAuthNoPriv
	LevelAuthPriv
)

func (l SecurityLevel) String() string {
	switch l {
	case LevelNoAuthNoPriv:
		return "noAuthNoPriv"
	case LevelAuthNoPriv:
		return "authNoPriv"
	case LevelAuthPriv:
		return "authPriv"
	}
	return fmt.Sprintf("securityLevel(%d)", int(l))
}

// Credentials selects the SNMP version and carries its secrets. Exactly
// one of V1, V2C or V3 is passed to NewClient; the message-processing
// model for any other version rejects it with ErrBadCredentials.
type Credentials interface {
	// Version returns the wire version identifier the credentials bind to.
	Version() int
}

// V1 is a community string for SNMPv1.
type V1 struct {
	Community string
}

func (V1) Version() int { return VersionV1 }

// V2C is a community string for SNMPv2c.
type V2C struct {
	Community string
}

func (V2C) Version() int { return VersionV2C }

// V3 is a USM user for SNMPv3.
//
// AuthMethod is one of "md5", "sha1", "sha224", "sha256", "sha384",
// "sha512" (empty for noAuth). PrivMethod is one of "des", "aes",
// "aes192", "aes256" or the Agent++/Huawei key-extension variants
// "aes192a", "aes256a" (empty for noPriv).
type V3 struct {
	UserName    string
	AuthMethod  string
	AuthKey     string
	PrivMethod  string
	PrivKey     string
	ContextName string
}

func (V3) Version() int { return VersionV3 }

// SecurityLevel derives the USM level from which methods are set.
func (c V3) SecurityLevel() SecurityLevel {
	switch {
	case c.PrivMethod != "":
		return LevelAuthPriv
	case c.AuthMethod != "":
		return LevelAuthNoPriv
	}
	return LevelNoAuthNoPriv
}

// Validate checks the credentials for the combinations the protocol
// forbids and for unknown method names, before any packet is built.
func (c V3) Validate() error {
	if c.UserName == "" {
		return SnmpError{Message: "empty user name"}
	}
	if c.PrivMethod != "" && c.AuthMethod == "" {
		return fmt.Errorf("%w: privacy requires authentication", ErrUnsupportedSecurityLevel)
	}
	if c.AuthMethod != "" {
		if _, err := authProviderByName(c.AuthMethod); err != nil {
			return err
		}
		if len(c.AuthKey) < 8 {
			return SnmpError{Message: "authentication key shorter than 8 characters"}
		}
	}
	if c.PrivMethod != "" {
		if _, err := privProviderByName(c.PrivMethod); err != nil {
			return err
		}
		if len(c.PrivKey) < 8 {
			return SnmpError{Message: "privacy key shorter than 8 characters"}
		}
	}
	return nil
}
