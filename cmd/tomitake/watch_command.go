package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zsiec/tomitake/internal/piping"
	"github.com/zsiec/tomitake/internal/playback"
	"github.com/zsiec/tomitake/internal/progress"
	"github.com/zsiec/tomitake/internal/transfer"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var (
		cipher     cipherFlags
		outPath    string
		player     string
		http3      bool
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "watch <url|watch-link>",
		Short: "Receive, decrypt and play a stream",
		Long: `Watch downloads a stream from a piping server, decrypts it and checks
that it starts with a WebM track declaration before handing it to the
player. The argument is a piping URL or a watch link that carries the key
and nonce; --key and --nonce override the link.

With --out the stream is written to a file ("-" for stdout) instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config

			link, err := piping.ParseWatchURL(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			cp := cipher.merge(link.Params)
			p := transfer.Params{URL: link.URL, Key: cp.Key, Nonce: cp.Nonce}
			if err := p.Validate(); err != nil {
				return err
			}

			var (
				sink playback.MediaSink
				file *playback.FileSink
			)
			if outPath != "" {
				file = playback.NewFileSink(outPath, nil)
				sink = file
			} else {
				argv := cfg.PlayerArgs()
				if player != "" {
					argv = strings.Fields(player)
				}
				if len(argv) == 0 {
					return fmt.Errorf("no player command: pass --player or --out, or set [player] command")
				}
				cs := playback.NewCommandSink(argv, cfg.Player.Codecs, ctx.log())
				cs.Stdout = cmd.OutOrStdout()
				sink = cs
			}

			runCtx, stop := ctx.signalContext(cmd)
			defer stop()

			client := ctx.pipingClient(http3)
			defer client.Close()

			bar := progress.New(cmd.ErrOrStderr(), -1, "watching", !noProgress && outPath != "-" && progress.IsTerminal(stderrFile(cmd)))
			res, err := ctx.runner(client, bar.Add).Watch(runCtx, p, sink)
			bar.Finish()
			if err != nil {
				return err
			}
			if res.Descriptor != nil {
				ctx.log().Info("stream finished", "mime", res.Descriptor.MIMEType(), "bytes", res.Bytes)
			}
			if file != nil && outPath != "-" {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", file.Written(), outPath)
			}
			return nil
		},
	}

	cipher.register(cmd)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", `Write the stream to this file instead of playing it ("-" for stdout)`)
	cmd.Flags().StringVar(&player, "player", "", "Player command reading the stream on stdin (default: [player] command)")
	cmd.Flags().BoolVar(&http3, "http3", false, "Use HTTP/3")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Do not draw a progress bar")
	cmd.MarkFlagsMutuallyExclusive("out", "player")

	return cmd
}
