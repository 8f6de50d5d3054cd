package app

import "math/rand"

const (
	idLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	idDigits  = "0123456789"
)

// NewHotelID returns 3 uppercase letters followed by 3 digits, e.g. "SVE349".
// It does not check for collisions; see HotelEditor.allocateID.
func NewHotelID() string {
	b := make([]byte, 0, 6)
	for i := 0; i < 3; i++ {
		b = append(b, idLetters[rand.Intn(len(idLetters))])
	}
	for i := 0; i < 3; i++ {
		b = append(b, idDigits[rand.Intn(len(idDigits))])
	}
	return string(b)
}
