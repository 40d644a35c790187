package styles

// Status glyphs used in doctor and log output.
var (
	IconPass = "✔"
	IconWarn = "●"
	IconFail = "✘"
)

// Icon returns the glyph for an outcome string.
func Icon(status string) string {
	switch status {
	case "success", "pass":
		return IconPass
	case "warn":
		return IconWarn
	default:
		return IconFail
	}
}
