package utils

import (
	"fmt"
	"math"
	"strconv"
)

// ParseUintParam parses a positive id from a URL parameter.
func ParseUintParam(raw string) (uint, error) {
	val, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	if val == 0 {
		return 0, fmt.Errorf("id must be greater than 0")
	}
	return uint(val), nil
}

// SafeIntToUint safely converts int to uint with validation.
// Returns error if value is negative.
func SafeIntToUint(val int) (uint, error) {
	if val < 0 {
		return 0, fmt.Errorf("cannot convert negative int %d to uint", val)
	}
	return uint(val), nil
}

// SafeUintToInt safely converts uint to int with overflow check.
func SafeUintToInt(val uint) (int, error) {
	if val > math.MaxInt {
		return 0, fmt.Errorf("uint value %d exceeds maximum int value", val)
	}
	return int(val), nil
}
