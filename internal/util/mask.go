package util

import "strings"

// MaskHex acorta un valor hex largo (firmas, pruebas) para logs: 0x1234…cdef.
func MaskHex(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	body := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(body) <= 8 {
		return "0x***"
	}
	return "0x" + body[:4] + "…" + body[len(body)-4:]
}
