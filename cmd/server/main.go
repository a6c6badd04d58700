package main

import (
	"github.com/vanishhq/vanish/internal/server"
)

func main() {
	// Create a new server instance with all modules booted.
	s := server.New()

	// Start the server and block until shutdown.
	s.Start(s.Cfg.GetAddr())
}
