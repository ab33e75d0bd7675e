// Package timecode converts between "m:ss" display times and whole seconds.
package timecode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedTime is returned for input that is neither "s" nor "m:ss"
var ErrMalformedTime = errors.New("malformed time")

// ToSeconds parses "45" or "2:30" into seconds
func ToSeconds(display string) (int, error) {
	parts := strings.Split(strings.TrimSpace(display), ":")
	if len(parts) > 2 {
		return 0, fmt.Errorf("%w: %q has more than one separator", ErrMalformedTime, display)
	}

	values := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q", ErrMalformedTime, display)
		}
		values[i] = n
	}

	if len(values) == 2 {
		return values[0]*60 + values[1], nil
	}
	return values[0], nil
}

// ToDisplay formats seconds as "m:ss". seconds must not be negative.
func ToDisplay(seconds int) string {
	if seconds < 0 {
		panic(fmt.Sprintf("timecode: negative seconds %d", seconds))
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
