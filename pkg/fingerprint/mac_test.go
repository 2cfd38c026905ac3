package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMACVariants(t *testing.T) {
	// Dash, bare-hex and colon forms all normalize to the same canonical
	// representation.
	want := "AA:BB:CC:DD:EE:FF"

	assert.Equal(t, want, NormalizeMAC("aa-bb-cc-dd-ee-ff"))
	assert.Equal(t, want, NormalizeMAC("AABBCCDDEEFF"))
	assert.Equal(t, want, NormalizeMAC("aa:bb:cc:dd:ee:ff"))
	assert.Equal(t, want, NormalizeMAC("aabb.ccdd.eeff"))
}

func TestNormalizeMACIdempotent(t *testing.T) {
	once := NormalizeMAC("b8-27-eb-01-02-03")
	assert.Equal(t, once, NormalizeMAC(once))
}

func TestNormalizeMACMalformed(t *testing.T) {
	for _, input := range []string{"", "Unknown", "aa:bb:cc", "zz:zz:zz:zz:zz:zz", "aabbccddeeff00"} {
		assert.Empty(t, NormalizeMAC(input), "input %q", input)
	}
}

func TestLookupVendor(t *testing.T) {
	db := NewVendorDB(nil)

	assert.Equal(t, "Raspberry Pi Foundation", db.LookupVendor("b8:27:eb:01:02:03"))
	assert.Equal(t, "Raspberry Pi Foundation", db.LookupVendor("B8-27-EB-AA-BB-CC"))
	assert.Equal(t, UnknownVendor, db.LookupVendor("02:00:00:00:00:01"))
	assert.Equal(t, UnknownVendor, db.LookupVendor("garbage"))
	assert.Equal(t, UnknownVendor, db.LookupVendor(""))
}
