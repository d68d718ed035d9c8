package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"generalize-service/service"
)

func runCalculate(cmd *cobra.Command, args []string) error {
	opts, err := requestOptions(cmd)
	if err != nil {
		return err
	}
	sources, targets, err := loadInputs(args)
	if err != nil {
		return err
	}

	req := &service.CalculateRequest{Session: sessionName, Sources: sources, Options: &opts}
	for _, t := range targets {
		req.Targets = append(req.Targets, service.TargetFeature{Feature: t.Feature, Visible: t.Visible})
	}

	client, err := service.Dial(remoteAddr)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, stop := signalContext()
	defer stop()
	if cfg.Request.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Request.Deadline)
		defer cancel()
	}

	resp, err := client.CalculateRemovableSegments(ctx, req)
	if err != nil {
		if service.IsRetryable(err) {
			return errors.WithHint(err, "the service may be unavailable, retry the request")
		}
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
