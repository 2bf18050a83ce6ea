package chunk

import (
	"log"
	"os"
)

// logger receives warnings about block states that could not be resolved while encoding or decoding.
var logger = log.New(os.Stderr, "chunk: ", log.LstdFlags)

// SetLogger sets the logger warnings about unresolved block states are written to.
func SetLogger(l *log.Logger) {
	logger = l
}
