package shell

import "strings"

// Tokenize splits a command into whitespace delimited words.
//
// Quotes and backslashes have no special meaning, `echo "a b"` produces the
// words `echo`, `"a` and `b"`.
func Tokenize(command string) []string {
	return strings.Fields(command)
}
