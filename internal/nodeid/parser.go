// internal/nodeid/parser.go
package nodeid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// segmentRegex matches a single 1-based position without leading zeros.
var segmentRegex = regexp.MustCompile(`^[1-9][0-9]*$`)

// Parse creates a new Address by parsing its canonical string representation.
func Parse(rawID string) (Address, error) {
	if rawID == "" {
		return Address{}, fmt.Errorf("identifier cannot be empty")
	}
	if rawID == RootID {
		return Root(), nil
	}

	var addr Address
	for _, segmentStr := range strings.Split(rawID, ".") {
		if segmentStr == "" {
			return Address{}, fmt.Errorf("identifier path contains empty segment")
		}
		if !segmentRegex.MatchString(segmentStr) {
			return Address{}, fmt.Errorf("invalid path segment format: %q", segmentStr)
		}

		position, err := strconv.Atoi(segmentStr)
		if err != nil {
			return Address{}, fmt.Errorf("invalid path segment %q: %w", segmentStr, err)
		}
		addr.Path = append(addr.Path, position)
	}

	return addr, nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(rawID string) Address {
	addr, err := Parse(rawID)
	if err != nil {
		panic(err)
	}
	return addr
}
