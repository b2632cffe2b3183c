package utils

import (
	"net"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateStruct validates a struct against its validate tags.
func ValidateStruct(obj interface{}) error {
	return validate.Struct(obj)
}

// IsValidDBHost validates a target database host: localhost, IPv4/IPv6, or a
// plain domain name.
func IsValidDBHost(host string) bool {
	if host == "" {
		return false
	}

	if strings.ToLower(host) == "localhost" {
		return true
	}

	if net.ParseIP(host) != nil {
		return true
	}

	// Basic domain check: letters, digits, dots, hyphens, underscores,
	// not starting or ending with a separator
	if len(host) > 253 {
		return false
	}
	for _, char := range host {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '-' || char == '_') {
			return false
		}
	}
	if strings.HasPrefix(host, ".") || strings.HasSuffix(host, ".") ||
		strings.HasPrefix(host, "-") || strings.HasSuffix(host, "-") {
		return false
	}
	return true
}
