package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zsiec/tomitake/internal/streamcipher"
)

func newKeygenCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:         "keygen",
		Short:       "Generate a random key and nonce",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := streamcipher.Generate()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(map[string]string{"key": p.Key, "nonce": p.Nonce})
			}
			fmt.Fprintf(out, "Key:   %s\nNonce: %s\n", p.Key, p.Nonce)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the pair as JSON")
	return cmd
}
