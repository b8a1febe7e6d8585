package domain

import (
	"bytes"
	"fmt"
	"strconv"
)

// FlexInt64 unmarshals from either a JSON number or a quoted decimal string.
// The game API is inconsistent about which one it emits for large counters.
type FlexInt64 int64

func (n *FlexInt64) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("flex int64: %w", err)
	}
	*n = FlexInt64(v)
	return nil
}
