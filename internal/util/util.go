package util

import (
	"regexp"
	"strings"
	"time"
)

var macRe = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}([0-9A-Fa-f]{2})$`)

func IsMACAddress(s string) bool {
	return macRe.MatchString(strings.TrimSpace(s))
}

func NowTimestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func BytesToHex(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 0, len(b)*3-1)
	for i, v := range b {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, hexdigits[v>>4], hexdigits[v&0x0f])
	}
	return string(out)
}
