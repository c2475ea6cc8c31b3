// Command guestctl runs batch guest and invitation jobs against the configured database.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := newRootCmd(nil).Execute(); err != nil {
		log.Error().Err(err).Msg("guestctl")
		os.Exit(1)
	}
}
