package discovery

import (
	"errors"
	"fmt"
	"net"
)

// ErrInvalidRange is returned when a range specification cannot be parsed
// or describes zero usable hosts.
var ErrInvalidRange = errors.New("invalid IP range")

// ExpandRange parses a CIDR notation IP range into the ordered list of
// usable host addresses. For prefixes of /30 and shorter the network and
// broadcast addresses are excluded; a /31 yields both addresses and a /32
// yields the single address.
func ExpandRange(cidr string) ([]string, error) {
	ip, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}

	var ips []string
	for ip := ip.Mask(ipnet.Mask); ipnet.Contains(ip); inc(ip) {
		ips = append(ips, ip.String())
	}

	// Remove network and broadcast addresses
	if len(ips) > 2 {
		ips = ips[1 : len(ips)-1]
	}

	if len(ips) == 0 {
		return nil, fmt.Errorf("%w: no usable hosts in %s", ErrInvalidRange, cidr)
	}

	return ips, nil
}

// inc increments an IP address
func inc(ip net.IP) {
	for j := len(ip) - 1; j >= 0; j-- {
		ip[j]++
		if ip[j] > 0 {
			break
		}
	}
}
