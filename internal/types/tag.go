package types

import (
	"fmt"
	"strconv"
	"strings"
)

// TagName is the struct tag key read by the plan compiler.
const TagName = "binserde"

// Tag holds the parsed options of a binserde struct tag.
type Tag struct {
	Index    int
	HasIndex bool
	Skip     bool
	NoDedup  bool
}

// ParseTag parses a tag value such as "nodedup,index=2". The value "-" is
// shorthand for skip.
func ParseTag(value string) (Tag, error) {
	var tag Tag
	if value == "" {
		return tag, nil
	}
	if value == "-" {
		tag.Skip = true
		return tag, nil
	}

	for _, opt := range strings.Split(value, ",") {
		opt = strings.TrimSpace(opt)
		key, arg, hasArg := strings.Cut(opt, "=")
		switch key {
		case "":
		case "skip":
			tag.Skip = true
		case "nodedup", "no_dedup":
			tag.NoDedup = true
		case "index":
			if !hasArg {
				return tag, fmt.Errorf("index option needs a value")
			}
			n, err := strconv.Atoi(arg)
			if err != nil || n < 0 {
				return tag, fmt.Errorf("invalid index %q", arg)
			}
			tag.Index = n
			tag.HasIndex = true
		default:
			return tag, fmt.Errorf("unknown option %q", key)
		}
	}
	return tag, nil
}
