package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jacentio/rookery/inventory"
	"github.com/jacentio/rookery/record"
)

func putCmd() *cobra.Command {
	var (
		entID, envID, devID string
		payloadFile         string
	)

	cmd := &cobra.Command{
		Use:       "put (entity|environment|device)",
		Short:     "Create or update a record",
		Long:      "Create or update a record from a JSON payload read from --file or stdin.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"entity", "environment", "device"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			payload, err := readPayload(cmd.InOrStdin(), payloadFile)
			if err != nil {
				return fmt.Errorf("put: %w", err)
			}

			svc, err := newService(ctx, newLogger())
			if err != nil {
				return fmt.Errorf("put: %w", err)
			}

			var res inventory.Result
			switch args[0] {
			case "entity":
				res = svc.PutEntity(ctx, entID, payload)
			case "environment":
				res = svc.PutEnvironment(ctx, entID, envID, payload)
			case "device":
				res = svc.PutDevice(ctx, entID, envID, devID, payload)
			default:
				return fmt.Errorf("put: unknown level %q", args[0])
			}

			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if res.Status != http.StatusOK {
				return fmt.Errorf("put: status %d", res.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&entID, "ent", "", "entity id")
	cmd.Flags().StringVar(&envID, "env", "", "environment id")
	cmd.Flags().StringVar(&devID, "dev", "", "device id")
	cmd.Flags().StringVarP(&payloadFile, "file", "f", "", "JSON payload file (- or empty for stdin)")
	return cmd
}

func readPayload(stdin io.Reader, path string) (record.Record, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	if len(data) == 0 {
		return record.Record{}, nil
	}

	v, err := record.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing payload: %w", err)
	}
	if v.Kind() != record.KindMap {
		return nil, errors.New("payload must be a JSON object")
	}
	return record.Record(v.Entries()), nil
}
