package main

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// parseInputList parses the --input value: a whitespace-separated list of
// decimal integers, head of the queue first.
func parseInputList(spec string) ([]int64, error) {
	fields := strings.Fields(spec)
	out := make([]int64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad input value %q: must be a decimal integer", f)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseMemorySpec parses the --memory value: "k=v,k=v,…" with register
// numbers as keys.
func parseMemorySpec(spec string) (map[uint32]int64, error) {
	out := make(map[uint32]int64)
	if strings.TrimSpace(spec) == "" {
		return out, nil
	}
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("bad memory entry %q: want register=value", pair)
		}
		k, err := strconv.ParseUint(strings.TrimSpace(key), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad register number %q", key)
		}
		addr, err := safecast.Conv[uint32](k)
		if err != nil {
			return nil, fmt.Errorf("register number %q exceeds the register bank", key)
		}
		v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad memory value %q", value)
		}
		out[addr] = v
	}
	return out, nil
}
