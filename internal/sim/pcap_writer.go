package sim

import (
	"io"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"wlan-handoff-sim/internal/node"
	"wlan-handoff-sim/internal/telemetry"
)

const pcapSnapLen = 65536

// PcapWriter captures delivered packets of the flow as Ethernet/IPv4/UDP
// frames, as seen by the receiving node.
type PcapWriter struct {
	w       *pcapgo.Writer
	closer  io.Closer
	limit   int
	written int

	eth *layers.Ethernet
	ip  *layers.IPv4
	udp *layers.UDP
}

// NewPcapWriter writes a pcap header to out. At most limit packets are
// captured; 0 means no limit. If out is an io.Closer it is closed by Close.
func NewPcapWriter(out io.Writer, src, dst *node.Node, port, limit int) (*PcapWriter, error) {
	w := pcapgo.NewWriter(out)
	if err := w.WriteFileHeader(pcapSnapLen, layers.LinkTypeEthernet); err != nil {
		return nil, err
	}
	pw := &PcapWriter{
		w:     w,
		limit: limit,
		eth: &layers.Ethernet{
			SrcMAC:       src.MAC,
			DstMAC:       dst.MAC,
			EthernetType: layers.EthernetTypeIPv4,
		},
		ip: &layers.IPv4{
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolUDP,
			SrcIP:    net.IP(src.IP.AsSlice()),
			DstIP:    net.IP(dst.IP.AsSlice()),
		},
		udp: &layers.UDP{
			SrcPort: layers.UDPPort(49153),
			DstPort: layers.UDPPort(port),
		},
	}
	if c, ok := out.(io.Closer); ok {
		pw.closer = c
	}
	pw.udp.SetNetworkLayerForChecksum(pw.ip)
	return pw, nil
}

// Written returns the number of captured packets.
func (p *PcapWriter) Written() int { return p.written }

// WritePacket captures a delivered packet; dropped packets and packets
// beyond the limit are ignored.
func (p *PcapWriter) WritePacket(row telemetry.PacketRow) error {
	if !row.Delivered || (p.limit > 0 && p.written >= p.limit) {
		return nil
	}
	p.ip.Id = uint16(row.Seq)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	payload := make([]byte, row.Size)
	if err := gopacket.SerializeLayers(buf, opts, p.eth, p.ip, p.udp, gopacket.Payload(payload)); err != nil {
		return err
	}
	data := buf.Bytes()
	ci := gopacket.CaptureInfo{
		Timestamp:     row.Timestamp,
		CaptureLength: len(data),
		Length:        len(data),
	}
	if err := p.w.WritePacket(ci, data); err != nil {
		return err
	}
	p.written++
	return nil
}

// WritePackets captures multiple packets.
func (p *PcapWriter) WritePackets(rows []telemetry.PacketRow) error {
	for _, r := range rows {
		if p.limit > 0 && p.written >= p.limit {
			return nil
		}
		if err := p.WritePacket(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying file, if any.
func (p *PcapWriter) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}
