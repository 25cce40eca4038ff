// Command eduvault runs the EduVault API server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dalemusser/eduvault/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		fmt.Fprintln(os.Stderr, "eduvault:", err)
		os.Exit(1)
	}
}
