package util

func IsNumber(b byte) bool {
	return b >= '0' && b <= '9'
}

func IsUnderScore(b byte) bool {
	return b == '_'
}

func IsLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func IsLetterOrUnderscore(b byte) bool {
	return IsLetter(b) || IsUnderScore(b)
}

// IsSymbolStart reports whether b may open a hack assembler symbol.
func IsSymbolStart(b byte) bool {
	return IsLetterOrUnderscore(b) || b == '.' || b == '$' || b == ':'
}

func IsSymbolPart(b byte) bool {
	return IsSymbolStart(b) || IsNumber(b)
}

// IsSymbol reports whether s is a valid label or variable name: a sequence of letters,
// digits, '_', '.', '$' and ':' not starting with a digit.
func IsSymbol(s string) bool {
	if len(s) == 0 || !IsSymbolStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !IsSymbolPart(s[i]) {
			return false
		}
	}
	return true
}

// IsDecimal reports whether s is a non empty run of digits.
func IsDecimal(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !IsNumber(s[i]) {
			return false
		}
	}
	return true
}
