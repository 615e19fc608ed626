package testutils

import "strings"

// GenerateOverBytesUnderRunes строка из count рун по 4 байта каждая. Нужна для проверки ограничений
// длины в байтах, а не в рунах.
func GenerateOverBytesUnderRunes(count int) string {
	return strings.Repeat("😁", count)
}
