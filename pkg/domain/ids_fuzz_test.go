//go:build go1.18

package domain

import "testing"

// FuzzParseRequestUUID checks that parsing never panics and valid IDs round-trip.
func FuzzParseRequestUUID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE presentation_requests;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseRequestUUID(input)
		if err != nil {
			return
		}
		if id.IsNil() {
			t.Error("nil UUID accepted")
		}
		roundTrip, err := ParseRequestUUID(id.String())
		if err != nil {
			t.Errorf("valid ID failed round-trip: %v", err)
		}
		if roundTrip != id {
			t.Error("round-trip changed ID value")
		}
	})
}

// FuzzParseProtocolVersion checks that arbitrary markers never panic.
func FuzzParseProtocolVersion(f *testing.F) {
	f.Add("")
	f.Add("1.0.0")
	f.Add("2.1.0")
	f.Add("v3")
	f.Add("1.0.0-beta.1+build")

	f.Fuzz(func(t *testing.T, input string) {
		v, err := ParseProtocolVersion(input)
		if err != nil {
			return
		}
		if input != "" && v.IsNil() {
			t.Errorf("non-empty marker %q parsed as absent", input)
		}
		if v.String() != input {
			t.Errorf("marker %q changed to %q", input, v.String())
		}
	})
}
