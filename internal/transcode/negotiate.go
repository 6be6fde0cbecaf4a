package transcode

import "fmt"

// familyPriority is the order in which families are tried. The first family
// the host supports wins regardless of the source model.
var familyPriority = []Family{FamilyASTC, FamilyBPTC, FamilyDXT, FamilyPVRTC, FamilyETC1}

// Negotiate picks the target format for a source with or without alpha.
// It fails with ErrNoSupportedTargetFormat when caps is empty.
func Negotiate(caps Capabilities, hasAlpha bool) (TargetFormat, error) {
	for _, f := range familyPriority {
		if caps.Has(f) {
			return familyFormat(f, hasAlpha), nil
		}
	}
	return 0, fmt.Errorf("%w: capabilities %s", ErrNoSupportedTargetFormat, caps)
}

func familyFormat(f Family, hasAlpha bool) TargetFormat {
	switch f {
	case FamilyASTC:
		return ASTC4x4RGBA
	case FamilyBPTC:
		if hasAlpha {
			return BC7RGBA
		}
		return BC7RGB
	case FamilyDXT:
		if hasAlpha {
			return BC3RGBA
		}
		return BC1RGB
	case FamilyPVRTC:
		if hasAlpha {
			return PVRTC1_4RGBA
		}
		return PVRTC1_4RGB
	default:
		return ETC1RGB
	}
}
