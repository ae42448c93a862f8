// Package logger configures the process-wide standard logger used by the workers.
package logger

import (
	"log"
	"os"
)

const prefix = "[grouporder] "

// Init sets UTC microsecond timestamps and short file names on the default logger.
func Init() {
	log.SetOutput(os.Stdout)
	log.SetPrefix(prefix)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.LUTC | log.Lshortfile | log.Lmsgprefix)
}
