package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"regexp"
	"runtime"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// errNoARPReply means the broadcast went out but nothing answered within
// the timeout. It is an expected result for empty addresses.
var errNoARPReply = errors.New("no ARP reply")

var macPattern = regexp.MustCompile(`([0-9a-fA-F]{2}[:-]){5}[0-9a-fA-F]{2}`)

// arpProbe broadcasts a link-layer address-resolution request for the target
// and waits for a reply. A reply yields the hardware address and the elapsed
// round-trip time. Requires a capture-capable interface, so callers must be
// prepared to fall back to ping.
func arpProbe(targetIP string, timeout time.Duration) (string, time.Duration, error) {
	dst := net.ParseIP(targetIP)
	if dst = dst.To4(); dst == nil {
		return "", 0, fmt.Errorf("not an IPv4 address: %s", targetIP)
	}

	iface, srcIP, err := outboundInterface(dst)
	if err != nil {
		return "", 0, err
	}

	handle, err := pcap.OpenLive(iface.Name, 65536, true, pcap.BlockForever)
	if err != nil {
		return "", 0, fmt.Errorf("open capture on %s: %w", iface.Name, err)
	}
	defer handle.Close()

	if err := handle.SetBPFFilter("arp"); err != nil {
		return "", 0, err
	}

	eth := layers.Ethernet{
		SrcMAC:       iface.HardwareAddr,
		DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		EthernetType: layers.EthernetTypeARP,
	}
	arp := layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   []byte(iface.HardwareAddr),
		SourceProtAddress: []byte(srcIP),
		DstHwAddress:      []byte{0, 0, 0, 0, 0, 0},
		DstProtAddress:    []byte(dst),
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, &eth, &arp); err != nil {
		return "", 0, err
	}

	start := time.Now()
	if err := handle.WritePacketData(buf.Bytes()); err != nil {
		return "", 0, err
	}

	packets := gopacket.NewPacketSource(handle, handle.LinkType()).Packets()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case <-deadline.C:
			return "", 0, errNoARPReply
		case packet, ok := <-packets:
			if !ok {
				return "", 0, errNoARPReply
			}
			layer := packet.Layer(layers.LayerTypeARP)
			if layer == nil {
				continue
			}
			reply := layer.(*layers.ARP)
			if reply.Operation != layers.ARPReply {
				continue
			}
			if !net.IP(reply.SourceProtAddress).Equal(dst) {
				continue
			}
			mac := net.HardwareAddr(reply.SourceHwAddress).String()
			return mac, time.Since(start), nil
		}
	}
}

// outboundInterface finds the up, non-loopback interface whose subnet
// contains the target. ARP only resolves on-link addresses.
func outboundInterface(dst net.IP) (*net.Interface, net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, nil, err
	}

	for i := range ifaces {
		iface := &ifaces[i]
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if len(iface.HardwareAddr) != 6 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			src := ipnet.IP.To4()
			if src == nil {
				continue
			}
			if ipnet.Contains(dst) {
				return iface, src, nil
			}
		}
	}

	return nil, nil, fmt.Errorf("no interface on the same link as %s", dst)
}

// arpTableLookup consults the local neighbor table for a cached hardware
// address mapping. Used as a backfill when the active probes succeed but
// layer-2 discovery did not run.
func arpTableLookup(ctx context.Context, ip string) (string, error) {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "arp", "-a", ip)
	} else {
		cmd = exec.CommandContext(ctx, "arp", "-n", ip)
	}

	out, err := cmd.Output()
	if err != nil {
		return "", err
	}

	mac := macPattern.FindString(string(out))
	if mac == "" {
		return "", fmt.Errorf("no neighbor entry for %s", ip)
	}
	return mac, nil
}
