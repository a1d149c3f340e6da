package discovery

import "net"

// ExpandRanges converts a list of inclusive IP ranges into a single ordered
// sequence of AddressItems. A Range missing either endpoint is silently
// skipped. Overlapping ranges are not deduplicated; duplicates flow through.
func ExpandRanges(ranges []Range) []AddressItem {
	var out []AddressItem
	for _, r := range ranges {
		if r.Start == "" || r.End == "" {
			continue
		}
		start := net.ParseIP(r.Start).To4()
		end := net.ParseIP(r.End).To4()
		if start == nil || end == nil {
			continue
		}
		if bytesCompare(start, end) > 0 {
			continue
		}

		cur := cloneIP(start)
		for {
			out = append(out, AddressItem{IP: cur.String(), Entity: r.Entity})
			if bytesCompare(cur, end) == 0 {
				break
			}
			incIP(cur)
		}
	}
	return out
}

func cloneIP(ip net.IP) net.IP {
	clone := make(net.IP, len(ip))
	copy(clone, ip)
	return clone
}

// incIP increments a 4-byte IPv4 address in place, carrying from the last octet.
func incIP(ip net.IP) {
	for i := len(ip) - 1; i >= 0; i-- {
		ip[i]++
		if ip[i] != 0 {
			break
		}
	}
}

// bytesCompare performs a lexicographic comparison of two equal-length byte slices.
func bytesCompare(a, b []byte) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
