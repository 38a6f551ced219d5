package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mikey/form-spam-filter/internal/adapters/filter"
	"github.com/mikey/form-spam-filter/internal/core"
	"github.com/mikey/form-spam-filter/internal/di"
	"github.com/mikey/form-spam-filter/internal/ports"
	"go.uber.org/zap"
)

// exitSpam is returned when the payload is classified as spam
const exitSpam = 2

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	var verdict core.Verdict
	if err := container.Invoke(func(logger *zap.Logger, f ports.SubmissionFilter) error {
		defer logger.Sync()

		v, err := check(logger, f, flags.InputFile)
		verdict = v
		return err
	}); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if verdict.IsSpam {
		os.Exit(exitSpam)
	}
}

func check(logger *zap.Logger, f ports.SubmissionFilter, inputFile string) (core.Verdict, error) {
	var in io.Reader
	if inputFile != "" {
		file, err := os.Open(inputFile)
		if err != nil {
			return core.Verdict{}, fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		in = file
		logger.Debug("Reading payload from file", zap.String("file", inputFile))
	} else {
		in = os.Stdin
		logger.Debug("Reading payload from stdin")
	}

	payload, err := filter.ReadPayload(in)
	if err != nil {
		return core.Verdict{}, fmt.Errorf("failed to parse payload: %w", err)
	}

	result, err := f.ProcessSubmission(context.Background(), &core.SubmissionRequest{Payload: payload})
	if err != nil {
		return core.Verdict{}, err
	}
	return result.Verdict, nil
}
