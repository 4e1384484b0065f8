// Command contactform accepts contact-form posts and relays them by mail.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/dalemusser/contactform/app"
	"github.com/dalemusser/contactform/internal/bootstrap"
	"github.com/spf13/pflag"
)

func main() {
	err := app.Run(context.Background(), bootstrap.Hooks, os.Args[1:])
	switch {
	case err == nil, errors.Is(err, pflag.ErrHelp):
	default:
		os.Exit(1)
	}
}
