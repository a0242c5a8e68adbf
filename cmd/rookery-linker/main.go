// Command rookery-linker is the AWS Lambda consuming the environment and
// device table streams and completing parent links left pending by a
// failed write.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/jacentio/rookery/internal/bootstrap"
	"github.com/jacentio/rookery/internal/config"
	"github.com/jacentio/rookery/stream"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "rookery-linker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("ROOKERY_CONFIG"))
	if err != nil {
		return err
	}
	logger := cfg.Logging.NewLogger(os.Stdout)

	svc, err := bootstrap.NewService(context.Background(), cfg, logger)
	if err != nil {
		return err
	}

	handler := stream.NewHandler(svc, logger)
	lambda.Start(handler.HandleLinkStream)
	return nil
}
