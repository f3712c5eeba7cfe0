package logger

import "strings"

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" → "jo***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// RedactIP keeps the network part of an address.
// "203.0.113.42" → "203.0.113.x"; IPv6 keeps the first two groups.
func RedactIP(ip string) string {
	if ip == "" {
		return ""
	}
	if strings.Contains(ip, ":") {
		groups := strings.Split(ip, ":")
		if len(groups) > 2 {
			return groups[0] + ":" + groups[1] + ":x"
		}
		return "x"
	}
	idx := strings.LastIndex(ip, ".")
	if idx < 0 {
		return "x"
	}
	return ip[:idx] + ".x"
}

// RedactToken keeps the last four characters of a credential.
func RedactToken(tok string) string {
	if len(tok) <= 4 {
		return "****"
	}
	return "****" + tok[len(tok)-4:]
}
