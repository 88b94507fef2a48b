package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pyvec/pythoncz/internal/geo"
	"github.com/pyvec/pythoncz/internal/model"
)

var locateOffline bool

var locateCmd = &cobra.Command{
	Use:   "locate <text>",
	Short: "Classify a single location string",
	Long:  "Runs location classification on the given text, geocoding it when pattern matching is inconclusive.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLocate,
}

func init() {
	locateCmd.Flags().BoolVar(&locateOffline, "offline", false, "only use pattern matching, never call the geocoding API")
	rootCmd.AddCommand(locateCmd)
}

func runLocate(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")

	switch r := geo.Begin(text).(type) {
	case geo.Resolved:
		printLocation(text, r.Location, "pattern")
		return nil
	case geo.NeedsGeocode:
		if locateOffline {
			printLocation(text, model.LocationUnclassified, "pattern")
			return nil
		}
		return locateOnline(r.Query)
	}
	return nil
}

func locateOnline(query string) error {
	logger := setupLogger(debug)
	if !debug {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	geocoder, err := setupGeocoder(cfg, &http.Client{Timeout: cfg.HTTP.Timeout}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up geocoder: %v\n", err)
		os.Exit(1)
	}

	description, err := geocoder.Geocode(context.Background(), query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "geocoding %q failed: %v\n", query, err)
		os.Exit(1)
	}
	fmt.Printf("%-12s %s\n", "Geocoded:", description)
	printLocation(query, geo.Finish(description), "geocoding")
	return nil
}

func printLocation(text string, loc model.Location, via string) {
	fmt.Printf("%-12s %s\n", "Text:", text)
	fmt.Printf("%-12s %s (via %s)\n", "Location:", loc, via)
	if loc != model.LocationOutOfScope {
		label := geo.LabelOf(loc)
		fmt.Printf("%-12s %s / %s\n", "Label:", label.CS, label.EN)
	}
}
