package transcode

import (
	"fmt"
	"strings"
)

// Capabilities declares which compressed format families the host GPU can
// sample directly.
type Capabilities struct {
	ASTC  bool
	BPTC  bool
	DXT   bool
	PVRTC bool
	ETC1  bool
}

// ParseCapabilities parses a comma-separated family list such as
// "astc,dxt". Common extension aliases (s3tc, bc7, etc) are accepted.
// An empty string or "none" yields no capabilities.
func ParseCapabilities(s string) (Capabilities, error) {
	var c Capabilities
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		switch name {
		case "", "none":
		case "astc":
			c.ASTC = true
		case "bptc", "bc7":
			c.BPTC = true
		case "dxt", "s3tc", "bc1", "bc3":
			c.DXT = true
		case "pvrtc":
			c.PVRTC = true
		case "etc1", "etc":
			c.ETC1 = true
		default:
			return Capabilities{}, fmt.Errorf("unknown capability %q (expected astc, bptc, dxt, pvrtc or etc1)", name)
		}
	}
	return c, nil
}

// CapabilitiesOf builds a capability set from a list of family names.
func CapabilitiesOf(names []string) (Capabilities, error) {
	return ParseCapabilities(strings.Join(names, ","))
}

// Has reports whether the set includes family f.
func (c Capabilities) Has(f Family) bool {
	switch f {
	case FamilyASTC:
		return c.ASTC
	case FamilyBPTC:
		return c.BPTC
	case FamilyDXT:
		return c.DXT
	case FamilyPVRTC:
		return c.PVRTC
	case FamilyETC1:
		return c.ETC1
	}
	return false
}

func (c Capabilities) Empty() bool {
	return c == Capabilities{}
}

// String lists the supported families in priority order.
func (c Capabilities) String() string {
	var names []string
	for _, f := range familyPriority {
		if c.Has(f) {
			names = append(names, f.String())
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}
