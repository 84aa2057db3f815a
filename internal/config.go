package internal

import (
	"fmt"
)

// Config for the read-only store viewer.
type Config struct {
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	DebugPort      int    `env:"DEBUG_PORT,default=8090"`
}

// CharacterRune validates a single-character env value.
func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
