// Command web runs the cause-list retrieval web service: a form UI,
// a REST API for submitting scrape jobs, and a WebSocket feed that
// streams exported records back to the submitting browser.
package main

import (
	"log/slog"
	"os"

	"causelist/internal/app"
)

func main() {
	application, err := app.NewApplication()
	if err != nil {
		slog.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
