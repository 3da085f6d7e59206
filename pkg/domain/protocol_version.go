package domain

import (
	"github.com/Masterminds/semver/v3"

	dErrors "vp-gateway/pkg/domain-errors"
)

// ProtocolVersion is the semantic version marker a holder app sends with a
// presentation. The zero value means the client sent no marker.
type ProtocolVersion struct {
	v *semver.Version
}

// ParseProtocolVersion validates a version marker. An empty string yields the
// zero ProtocolVersion; anything else must be a valid semantic version.
func ParseProtocolVersion(s string) (ProtocolVersion, error) {
	if s == "" {
		return ProtocolVersion{}, nil
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return ProtocolVersion{}, dErrors.New(dErrors.CodeBadRequest, "invalid version marker: "+s)
	}
	return ProtocolVersion{v: v}, nil
}

// MustProtocolVersion parses s and panics on failure. Intended for constants and tests.
func MustProtocolVersion(s string) ProtocolVersion {
	v, err := ParseProtocolVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsNil reports whether no marker was supplied.
func (p ProtocolVersion) IsNil() bool {
	return p.v == nil
}

// Semver returns the parsed version. Absent markers compare as 0.0.0.
func (p ProtocolVersion) Semver() *semver.Version {
	if p.v == nil {
		return semver.New(0, 0, 0, "", "")
	}
	return p.v
}

// String returns the original marker, or "" when absent.
func (p ProtocolVersion) String() string {
	if p.v == nil {
		return ""
	}
	return p.v.Original()
}

// LessThan reports whether p sorts before other. Absent markers are 0.0.0.
func (p ProtocolVersion) LessThan(other ProtocolVersion) bool {
	return p.Semver().LessThan(other.Semver())
}
