package fingerprint

import (
	"strings"
)

// NormalizeMAC converts a hardware address to the canonical uppercase
// colon-separated form. It accepts colon, dash, dot and bare-hex inputs and
// is idempotent: normalizing an already-normalized address returns it
// unchanged. Anything that does not look like a MAC yields "".
func NormalizeMAC(mac string) string {
	cleaned := strings.ToUpper(strings.TrimSpace(mac))
	cleaned = strings.ReplaceAll(cleaned, ":", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = strings.ReplaceAll(cleaned, ".", "")

	if len(cleaned) != 12 {
		return ""
	}
	for _, r := range cleaned {
		if (r < '0' || r > '9') && (r < 'A' || r > 'F') {
			return ""
		}
	}

	var b strings.Builder
	for i := 0; i < 12; i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(cleaned[i : i+2])
	}
	return b.String()
}
