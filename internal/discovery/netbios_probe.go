package discovery

import (
	"encoding/binary"
	"fmt"
	"net"
	"strings"
	"time"

	"neoagent/internal/pkg/utils"
)

const (
	netbiosPort             = 137
	netbiosHeaderSize       = 12
	netbiosQuestionSize     = 38
	netbiosMinResponseSize  = 57
	netbiosAnswerHeaderSize = 10
	netbiosNameFieldSize    = 15
	netbiosNameEntrySize    = 18
)

// netbiosNameFlagGroup is bit 15 (0x8000) of a NetBIOS name entry's flags
// field: set when the name is a group (workgroup) name, clear for a unique
// (per-host) name.
const netbiosNameFlagGroup = 0x8000

// NetbiosResult carries the attributes extracted from a NetBIOS status query.
type NetbiosResult struct {
	NetbiosName string
	Workgroup   string
	UserSession string
	MAC         string
}

// QueryNetBIOS performs a NetBIOS Name Service status query ("*<00>" node
// status request) against addr and decodes the name table and MAC address
// from the response.
func QueryNetBIOS(addr string, timeout time.Duration) (NetbiosResult, error) {
	conn, err := net.DialTimeout("udp", net.JoinHostPort(addr, fmt.Sprintf("%d", netbiosPort)), timeout)
	if err != nil {
		return NetbiosResult{}, fmt.Errorf("netbios: dial %s: %w", addr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return NetbiosResult{}, fmt.Errorf("netbios: set deadline: %w", err)
	}

	if _, err := conn.Write(netbiosStatusQuery()); err != nil {
		return NetbiosResult{}, fmt.Errorf("netbios: send query: %w", err)
	}

	buf := make([]byte, 2048)
	n, err := conn.Read(buf)
	if err != nil {
		return NetbiosResult{}, fmt.Errorf("netbios: read response: %w", err)
	}

	return parseNetBIOSResponse(buf[:n])
}

// netbiosStatusQuery builds the wire-format NBSTAT request for the wildcard
// name "*" padded to 16 bytes, encoded per RFC 1002 first-level encoding.
func netbiosStatusQuery() []byte {
	buf := make([]byte, netbiosHeaderSize+netbiosQuestionSize)

	binary.BigEndian.PutUint16(buf[0:2], 0x1337) // transaction id
	binary.BigEndian.PutUint16(buf[2:4], 0x0000) // flags: standard query
	binary.BigEndian.PutUint16(buf[4:6], 1)      // qdcount

	encoded := encodeNetBIOSName("*", 0x00)
	pos := netbiosHeaderSize
	copy(buf[pos:], encoded)
	pos += len(encoded)

	binary.BigEndian.PutUint16(buf[pos:pos+2], 0x0021) // qtype NBSTAT
	binary.BigEndian.PutUint16(buf[pos+2:pos+4], 0x0001) // qclass IN

	return buf
}

// encodeNetBIOSName applies RFC 1001 first-level encoding: the 15-char,
// space-padded name plus a one-byte suffix is halved into nibbles and mapped
// onto 'A'..'P', producing a 32-byte label plus length prefix and terminator.
func encodeNetBIOSName(name string, suffix byte) []byte {
	padded := make([]byte, netbiosNameFieldSize+1)
	copy(padded, strings.ToUpper(name))
	for i := len(name); i < netbiosNameFieldSize; i++ {
		padded[i] = ' '
	}
	padded[netbiosNameFieldSize] = suffix

	out := make([]byte, 0, 34)
	out = append(out, 32)
	for _, b := range padded {
		out = append(out, 'A'+(b>>4), 'A'+(b&0x0f))
	}
	out = append(out, 0) // root label terminator
	return out
}

// parseNetBIOSResponse decodes an NBSTAT response: the name table (mapping
// suffix/group-flag pairs to NetbiosName/Workgroup/UserSession per the
// discovery contract) followed by the MAC address block.
func parseNetBIOSResponse(resp []byte) (NetbiosResult, error) {
	if len(resp) < netbiosMinResponseSize {
		return NetbiosResult{}, fmt.Errorf("netbios: response too short (%d bytes)", len(resp))
	}

	// The answer resource record's owner name echoes the encoded query name
	// (a length-prefixed 32-byte label followed by the root terminator),
	// immediately followed by the fixed type/class/ttl/rdlength header.
	pos := netbiosHeaderSize
	if resp[pos] == 32 {
		pos += 1 + 32 + 1
	}
	pos += netbiosAnswerHeaderSize

	if pos >= len(resp) {
		return NetbiosResult{}, fmt.Errorf("netbios: truncated answer record")
	}

	numNames := int(resp[pos])
	pos++

	var result NetbiosResult
	for i := 0; i < numNames && pos+netbiosNameEntrySize <= len(resp); i++ {
		entry := resp[pos : pos+netbiosNameEntrySize]
		pos += netbiosNameEntrySize

		rawName := utils.SanitizeField(strings.TrimRight(string(entry[0:15]), " "))
		suffix := entry[15]
		flags := binary.BigEndian.Uint16(entry[16:18])
		isGroup := flags&netbiosNameFlagGroup != 0

		switch {
		case suffix == 0x00 && isGroup:
			result.Workgroup = rawName
		case suffix == 0x03 && !isGroup:
			result.UserSession = rawName
		case suffix == 0x00 && !isGroup:
			if !strings.HasPrefix(rawName, "IS~") {
				result.NetbiosName = rawName
			}
		}
	}

	if pos+6 <= len(resp) {
		mac := resp[pos : pos+6]
		result.MAC = strings.ToLower(strings.Join([]string{
			fmt.Sprintf("%02x", mac[0]), fmt.Sprintf("%02x", mac[1]), fmt.Sprintf("%02x", mac[2]),
			fmt.Sprintf("%02x", mac[3]), fmt.Sprintf("%02x", mac[4]), fmt.Sprintf("%02x", mac[5]),
		}, ":"))
	}

	return result, nil
}
