package binserde

import (
	"slices"

	"github.com/wippyai/binserde/errors"
)

// DedupContext maps strings to dense ids in first-occurrence order. The
// encoder fills it during the prescan pass and freezes it before the
// payload is written. The decoder rebuilds it from the stream.
type DedupContext struct {
	ids     map[string]int
	strings []string
	frozen  bool
}

// NewDedupContext returns an empty, writable table.
func NewDedupContext() *DedupContext {
	return &DedupContext{ids: make(map[string]int)}
}

func emptyTable() *DedupContext {
	return &DedupContext{frozen: true}
}

// Intern returns the id of s, adding it if the table is still writable.
// A frozen table rejects strings it has not seen.
func (c *DedupContext) Intern(s string) (int, error) {
	if id, ok := c.ids[s]; ok {
		return id, nil
	}
	if c.frozen {
		return 0, errors.InvalidData(errors.PhaseEncode, nil,
			"string missing from the frozen dedup table; the value changed between passes")
	}
	id := len(c.strings)
	c.ids[s] = id
	c.strings = append(c.strings, s)
	return id, nil
}

// Lookup returns the string with the given id.
func (c *DedupContext) Lookup(id uint64) (string, error) {
	if id >= uint64(len(c.strings)) {
		return "", errors.StringIndex(id, len(c.strings))
	}
	return c.strings[id], nil
}

// Freeze makes the table read-only.
func (c *DedupContext) Freeze() {
	c.frozen = true
}

func (c *DedupContext) Frozen() bool {
	return c.frozen
}

// Len returns the number of distinct strings.
func (c *DedupContext) Len() int {
	return len(c.strings)
}

// Strings returns a copy of the table entries ordered by id.
func (c *DedupContext) Strings() []string {
	return slices.Clone(c.strings)
}

// WriteTable writes the entry count followed by each string inline.
func (c *DedupContext) WriteTable(s Serializer) error {
	s = DisableDedup(s)
	if err := WriteLen(s, len(c.strings)); err != nil {
		return errors.WithPath(err, "strings")
	}
	for i, str := range c.strings {
		if err := WriteString(s, str); err != nil {
			return errors.WithPath(err, indexSeg(i))
		}
	}
	return nil
}

// ReadTable reads a table written by WriteTable. The result is frozen and
// indexed directly by id.
func ReadTable(d Deserializer) (*DedupContext, error) {
	d = DisableDecodeDedup(d)
	n, err := readCount(d, errors.PhaseTable)
	if err != nil {
		return nil, errors.WithPath(err, "strings")
	}
	c := &DedupContext{strings: make([]string, 0, capHint(n)), frozen: true}
	for i := 0; i < n; i++ {
		str, err := ReadString(d)
		if err != nil {
			return nil, errors.WithPath(err, indexSeg(i))
		}
		c.strings = append(c.strings, str)
	}
	return c, nil
}
