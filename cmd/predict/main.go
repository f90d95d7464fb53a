// Command predict classifies one fire detection from the command line using
// the same artifacts and config as the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"firetype/config"
	"firetype/inference"
	"firetype/logging"
	"firetype/ml"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	defaults := ml.DefaultFeatureVector()
	flags := flag.NewFlagSet("predict", flag.ContinueOnError)
	flags.SetOutput(stderr)
	brightness := flags.Float64("brightness", defaults.Brightness, "brightness temperature (K)")
	brightT31 := flags.Float64("bright_t31", defaults.BrightT31, "channel 31 brightness temperature (K)")
	frp := flags.Float64("frp", defaults.FRP, "fire radiative power (MW)")
	scan := flags.Float64("scan", defaults.Scan, "scan pixel size")
	track := flags.Float64("track", defaults.Track, "track pixel size")
	confidence := flags.String("confidence", defaults.Confidence.String(), "detection confidence: low, nominal or high")
	configPath := flags.String("config", "", "optional YAML config file")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	level, err := ml.ParseConfidenceLevel(*confidence)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	logger, err := logging.New(logging.Options{Level: "warn"})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer logger.Sync()

	adapter, err := inference.Load(inference.Options{
		ScalerPath: cfg.Artifacts.ScalerPath,
		ModelPath:  cfg.Artifacts.ModelPath,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("cannot load artifacts", zap.Error(err))
		fmt.Fprintln(stderr, err)
		return 1
	}

	result, err := adapter.Predict(context.Background(), ml.FeatureVector{
		Brightness: *brightness,
		BrightT31:  *brightT31,
		FRP:        *frp,
		Scan:       *scan,
		Track:      *track,
		Confidence: level,
	})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	printer := message.NewPrinter(language.Make(cfg.UI.Locale))
	printer.Fprintf(stdout, "Predicted Fire Type: %s\n", result.FireType)
	if result.Confidence != nil {
		printer.Fprintf(stdout, "Prediction Confidence: %.2f%%\n", *result.Confidence*100)
	} else {
		fmt.Fprintln(stdout, "Confidence score not available for this model.")
	}
	return 0
}
