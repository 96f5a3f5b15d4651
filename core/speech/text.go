package speech

import (
	"strings"
	"unicode"
)

// CleanForSpeech removes emoji and pictographs, which synthesizers read out
// by name, and collapses the whitespace left behind.
func CleanForSpeech(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		if isPictograph(r) {
			return -1
		}
		return r
	}, text)
	return strings.Join(strings.Fields(cleaned), " ")
}

func isPictograph(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF: // emoji, symbols and pictographs
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
		return true
	case r == 0x200D || (r >= 0xFE00 && r <= 0xFE0F): // joiners, variation selectors
		return true
	case r >= 0xE0020 && r <= 0xE007F: // tag sequences
		return true
	}
	return unicode.Is(unicode.So, r) && r > 0x2000
}
