package script

import (
	"log"
)

// logPrintln exists so tests can capture what scripts log.
var logPrintln = func(s string) {
	log.Println(s)
}
