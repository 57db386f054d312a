// Package base62 encodes unsigned integers using the URL-safe alphabet
// 0-9, A-Z, a-z. Unlike base64 it contains no characters that need
// escaping inside a URL path, which makes it suitable for short codes.
package base62

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const base = uint64(len(alphabet))

var charIndex [256]int8

func init() {
	for i := range charIndex {
		charIndex[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		charIndex[alphabet[i]] = int8(i)
	}
}

// Encode converts num to its base62 representation by repeated remainder
// extraction.
func Encode(num uint64) string {
	if num == 0 {
		return "0"
	}
	buf := make([]byte, 0, 11) // 64-bit values need at most 11 digits
	for num > 0 {
		buf = append(buf, alphabet[num%base])
		num /= base
	}
	reverse(buf)
	return string(buf)
}

// EncodeFixed encodes num to exactly length characters, extracting one
// remainder per character. High-order bits beyond 62^length are discarded,
// so the result is num mod 62^length, zero-padded on the left.
func EncodeFixed(num uint64, length int) string {
	buf := make([]byte, length)
	for i := length - 1; i >= 0; i-- {
		buf[i] = alphabet[num%base]
		num /= base
	}
	return string(buf)
}

// Decode converts a base62 string back to an unsigned integer.
// The second return value is false if s contains invalid characters.
func Decode(s string) (uint64, bool) {
	var result uint64
	for i := 0; i < len(s); i++ {
		v := charIndex[s[i]]
		if v < 0 {
			return 0, false
		}
		result = result*base + uint64(v)
	}
	return result, true
}

// IsValid reports whether s consists only of base62 characters.
func IsValid(s string) bool {
	for i := 0; i < len(s); i++ {
		if charIndex[s[i]] < 0 {
			return false
		}
	}
	return len(s) > 0
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
