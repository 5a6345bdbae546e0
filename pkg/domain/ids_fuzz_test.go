package domain

import "testing"

// FuzzParseProjectID checks that parsing arbitrary input never panics and
// that any accepted input round-trips through String.
func FuzzParseProjectID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseProjectID(input)
		if err != nil {
			return
		}
		reparsed, err := ParseProjectID(id.String())
		if err != nil {
			t.Fatalf("canonical form %q failed to reparse: %v", id.String(), err)
		}
		if reparsed != id {
			t.Fatalf("round trip changed the id: %v != %v", reparsed, id)
		}
	})
}
