package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zsiec/tomitake/internal/ebml"
	"github.com/zsiec/tomitake/internal/playback"
	"github.com/zsiec/tomitake/internal/relay"
	"github.com/zsiec/tomitake/internal/streamcipher"
)

// probeReport is the JSON form of a probe result.
type probeReport struct {
	Input      string           `json:"input"`
	Bytes      int              `json:"bytes"`
	MIME       string           `json:"mime"`
	Descriptor *ebml.Descriptor `json:"descriptor"`
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var (
		cipher cipherFlags
		asJSON bool
		http3  bool
	)

	cmd := &cobra.Command{
		Use:   "probe <file|url>",
		Short: "Show the track declaration at the start of a stream",
		Long: `Probe reads the head of a file or piping stream, decrypting it when a
key and nonce are given, and prints the tracks it declares together with
the content type a player would be asked to accept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := strings.TrimSpace(args[0])
			c, err := cipher.params().Cipher()
			if err != nil {
				return err
			}

			runCtx, stop := ctx.signalContext(cmd)
			defer stop()

			var src relay.Source
			if isURL(input) {
				client := ctx.pipingClient(http3)
				defer client.Close()
				rs, err := client.Get(runCtx, input)
				if err != nil {
					return err
				}
				src = rs
			} else {
				f, err := os.Open(input)
				if err != nil {
					return err
				}
				src = relay.NewReaderSource(f, ctx.config.Relay.ChunkSize)
			}
			defer src.Cancel()

			probe := ebml.NewProbe(ctx.probeOptions()...)
			res, err := runProbe(runCtx, src, c, probe, ctx.probeOptions())
			if err != nil {
				return err
			}
			if res.Status != ebml.Found {
				return fmt.Errorf("%w: %w", playback.ErrNoTracks, res.Err)
			}

			out := cmd.OutOrStdout()
			d := res.Descriptor
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(probeReport{Input: input, Bytes: probe.Len(), MIME: d.MIMEType(), Descriptor: d})
			}

			rows := make([][]string, 0, len(d.Tracks))
			for _, t := range d.Tracks {
				rows = append(rows, []string{strconv.FormatUint(t.Number, 10), string(t.Kind), t.CodecID, t.Codec})
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Kind", "Codec ID", "Codec"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}))
			fmt.Fprintf(out, "Doc type:  %s\n", d.DocType)
			fmt.Fprintf(out, "MIME:      %s\n", d.MIMEType())
			fmt.Fprintf(out, "Head size: %d bytes\n", probe.Len())
			if len(d.Unrecognized) > 0 {
				fmt.Fprintf(out, "Unrecognized codecs: %s\n", strings.Join(d.Unrecognized, ", "))
			}
			return nil
		},
	}

	cipher.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&http3, "http3", false, "Use HTTP/3 for piping URLs")

	return cmd
}

// runProbe feeds decrypted chunks from src to p until it decides. When the
// stream ends first, the whole of it is probed at once.
func runProbe(ctx context.Context, src relay.Source, c *streamcipher.Cipher, p *ebml.Probe, opts []ebml.ProbeOption) (ebml.Result, error) {
	for {
		if r, done := p.Result(); done {
			return r, nil
		}
		chunk, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			r := ebml.ProbeBytes(p.Prefix(), opts...)
			if r.Status != ebml.Found {
				r.Err = fmt.Errorf("stream ended after %d bytes: %w", p.Len(), r.Err)
			}
			return r, nil
		}
		if err != nil {
			return ebml.Result{}, &relay.Error{Op: relay.OpRead, Err: err}
		}
		p.Feed(c.Transform(chunk))
	}
}
