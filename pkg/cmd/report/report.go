package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/racecoach/pkg/cmd/util"
	"github.com/mpapenbr/racecoach/pkg/config"
	natspublish "github.com/mpapenbr/racecoach/pkg/publish/nats"
)

var reference bool

func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report SESSION",
		Short: "print the latest stored report of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showReport(cmd, args[0])
		},
	}
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		nats.DefaultURL,
		"NATS server holding the key value bucket")
	cmd.Flags().StringVar(&config.NatsBucket,
		"nats-bucket",
		"rcoach",
		"JetStream key value bucket")
	cmd.Flags().BoolVar(&reference,
		"reference",
		false,
		"print the reference lap instead of the report")
	return cmd
}

func showReport(cmd *cobra.Command, session string) error {
	if _, err := util.SetupLogger(); err != nil {
		return err
	}
	conn, err := nats.Connect(config.NatsURL, nats.Name("rcoach-report"))
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer conn.Close()
	p, err := natspublish.NewPublisher(conn, session,
		natspublish.WithContext(cmd.Context()),
		natspublish.WithBucket(config.NatsBucket))
	if err != nil {
		return err
	}

	var data any
	if reference {
		data, err = p.LoadReference(cmd.Context(), session)
	} else {
		data, err = p.LoadReport(cmd.Context(), session)
	}
	if errors.Is(err, natspublish.ErrNotFound) {
		return fmt.Errorf("session %s: %w", session, err)
	}
	if err != nil {
		return err
	}
	return write(cmd.OutOrStdout(), data)
}

func write(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
