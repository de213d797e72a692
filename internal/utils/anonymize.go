package utils

import "unicode/utf8"

// AnonymizeUserID masks a user reference for public listings: the first
// three and last two characters survive ("abc***yz"). Short ids are fully
// masked.
func AnonymizeUserID(id string) string {
	if id == "" {
		return "Anonymous"
	}
	r := []rune(id)
	if utf8.RuneCountInString(id) <= 5 {
		return "***"
	}
	return string(r[:3]) + "***" + string(r[len(r)-2:])
}
