package logger

// MaskSecret hides all but the last four characters of a credential.
// "Atzr|IwEBIA1234" → "***1234"; values of four characters or fewer become "***".
func MaskSecret(s string) string {
	r := []rune(s)
	if len(r) <= 4 {
		return "***"
	}
	return "***" + string(r[len(r)-4:])
}
