package utils

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// GenerateID returns a short url-safe id of the given length.
func GenerateID(length int) string {
	id, err := gonanoid.Generate(idAlphabet, length)
	if err != nil {
		return gonanoid.Must(length)
	}
	return id
}

func GenerateEventID() string {
	return GenerateID(10)
}

func GenerateItemID() string {
	return GenerateID(8)
}

func GenerateMessageID() string {
	return GenerateID(12)
}
