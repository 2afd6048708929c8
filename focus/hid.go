package focus

// HID framing used by the keyboard's vendor interface.
const (
	HIDReportID    = 5
	HIDMaxSendSize = 200
	// HIDUsagePage is the vendor-defined usage page of the Focus interface.
	HIDUsagePage = 0xFF00
)

// hidChunks splits a command into output reports, each prefixed with the
// report id.
func hidChunks(data []byte) [][]byte {
	var out [][]byte
	for len(data) > 0 {
		n := min(len(data), HIDMaxSendSize)
		report := make([]byte, 0, n+1)
		report = append(report, HIDReportID)
		report = append(report, data[:n]...)
		out = append(out, report)
		data = data[n:]
	}
	return out
}

// hasUsagePage reports whether a HID report descriptor declares page.
// Only short items are interpreted; long items are skipped.
func hasUsagePage(desc []byte, page uint16) bool {
	for i := 0; i < len(desc); {
		prefix := desc[i]
		if prefix == 0xFE {
			if i+1 >= len(desc) {
				return false
			}
			i += 3 + int(desc[i+1])
			continue
		}
		size := int(prefix & 0x03)
		if size == 3 {
			size = 4
		}
		if i+1+size > len(desc) {
			return false
		}
		if prefix&0xFC == 0x04 {
			var v uint32
			for j := size - 1; j >= 0; j-- {
				v = v<<8 | uint32(desc[i+1+j])
			}
			if uint16(v) == page {
				return true
			}
		}
		i += 1 + size
	}
	return false
}
