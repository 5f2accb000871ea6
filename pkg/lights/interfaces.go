package lights

// LightType identifies the kind of emitter
type LightType string

const (
	LightTypePoint     LightType = "point"
	LightTypeArea      LightType = "area"
	LightTypeReflected LightType = "reflected"
)

// ParseLightType converts a scene-file light type, defaulting to point
func ParseLightType(s string) (LightType, bool) {
	switch LightType(s) {
	case "", LightTypePoint:
		return LightTypePoint, true
	case LightTypeArea:
		return LightTypeArea, true
	default:
		return "", false
	}
}
