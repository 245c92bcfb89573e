package domain

import (
	"crypto/rand"
	"regexp"
)

// RoomCode identifies a room. Six characters from an alphabet that
// drops the visually confusable 0, O, 1, I and L.
type RoomCode string

const (
	CodeLen      = 6
	codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
)

var codePattern = regexp.MustCompile(`^[A-HJKMNP-Z2-9]{6}$`)

// GenerateCode draws a random code. Uniqueness is the caller's problem.
func GenerateCode() RoomCode {
	buf := make([]byte, CodeLen)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return RoomCode(buf)
}

func ValidCode(code RoomCode) bool {
	return codePattern.MatchString(string(code))
}
