package discovery

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandRange(t *testing.T) {
	tests := []struct {
		name  string
		cidr  string
		count int
		first string
		last  string
	}{
		{name: "slash 24", cidr: "192.168.1.0/24", count: 254, first: "192.168.1.1", last: "192.168.1.254"},
		{name: "slash 30", cidr: "10.0.0.0/30", count: 2, first: "10.0.0.1", last: "10.0.0.2"},
		{name: "slash 31 keeps both addresses", cidr: "10.0.0.0/31", count: 2, first: "10.0.0.0", last: "10.0.0.1"},
		{name: "slash 32 keeps the single address", cidr: "10.0.0.5/32", count: 1, first: "10.0.0.5", last: "10.0.0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ips, err := ExpandRange(tt.cidr)
			require.NoError(t, err)
			require.Len(t, ips, tt.count)
			assert.Equal(t, tt.first, ips[0])
			assert.Equal(t, tt.last, ips[len(ips)-1])
		})
	}
}

func TestExpandRangeInvalid(t *testing.T) {
	for _, cidr := range []string{"", "not-a-range", "192.168.1.0", "192.168.1.0/33"} {
		_, err := ExpandRange(cidr)
		assert.ErrorIs(t, err, ErrInvalidRange, "input %q", cidr)
	}
}

func TestExpandRangeOrdered(t *testing.T) {
	ips, err := ExpandRange("172.16.0.0/28")
	require.NoError(t, err)
	require.Len(t, ips, 14)

	for i, ip := range ips {
		assert.Equal(t, fmt.Sprintf("172.16.0.%d", i+1), ip)
	}
}
