package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zsiec/tomitake/internal/playback"
	"github.com/zsiec/tomitake/internal/progress"
	"github.com/zsiec/tomitake/internal/relay"
)

// decryptedSuffix is appended to a recorded file's name to form the default
// output path.
const decryptedSuffix = ".decrypted.mkv"

func newDecryptCommand(ctx *commandContext) *cobra.Command {
	var (
		cipher     cipherFlags
		outPath    string
		force      bool
		http3      bool
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "decrypt <file|url>",
		Short: "Decrypt a recorded or live stream",
		Long: `Decrypt reverses the stream encryption. A local file is written to
<file>.decrypted.mkv by default; a piping URL is written to stdout. The
output is only created once the decrypted bytes are shown to start with a
WebM track declaration.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := strings.TrimSpace(args[0])
			cp := cipher.params()
			if err := cp.Validate(); err != nil {
				return err
			}

			remote := isURL(input)
			dest := outPath
			if dest == "" {
				if remote {
					dest = "-"
				} else {
					dest = input + decryptedSuffix
				}
			}
			if dest != "-" && !force {
				if _, err := os.Stat(dest); err == nil {
					if !confirm(cmd, fmt.Sprintf("%s exists. Overwrite?", dest)) {
						return fmt.Errorf("%s exists (use --force to overwrite)", dest)
					}
				} else if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("check output path: %w", err)
				}
			}

			runCtx, stop := ctx.signalContext(cmd)
			defer stop()

			total := int64(-1)
			var src relay.Source
			if remote {
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
				if fi, err := f.Stat(); err == nil {
					total = fi.Size()
				}
				src = relay.NewReaderSource(f, ctx.config.Relay.ChunkSize)
			}

			sink := playback.NewFileSink(dest, nil)
			bar := progress.New(cmd.ErrOrStderr(), total, "decrypting", !noProgress && progress.IsTerminal(stderrFile(cmd)))
			res, err := ctx.runner(nil, bar.Add).Decrypt(runCtx, input, src, cp, sink)
			bar.Finish()
			if err != nil {
				return err
			}
			if dest != "-" {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes (%s) to %s\n", sink.Written(), res.Descriptor.MIMEType(), dest)
			}
			return nil
		},
	}

	cipher.register(cmd)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", `Output path ("-" for stdout)`)
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite the output without asking")
	cmd.Flags().BoolVar(&http3, "http3", false, "Use HTTP/3 for piping URLs")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Do not draw a progress bar")

	return cmd
}
