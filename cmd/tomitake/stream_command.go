package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zsiec/tomitake/internal/piping"
	"github.com/zsiec/tomitake/internal/progress"
	"github.com/zsiec/tomitake/internal/streamcipher"
	"github.com/zsiec/tomitake/internal/transfer"
)

func newStreamCommand(ctx *commandContext) *cobra.Command {
	var (
		url        string
		cipher     cipherFlags
		sources    sourceFlags
		plain      bool
		http3      bool
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "stream [file]",
		Short: "Encrypt a media stream and send it to a piping server",
		Long: `Stream reads media from a file, stdin, a capture command or an SRT
connection, encrypts it with ChaCha20 and uploads it to a piping server.

Without --key and --nonce a fresh pair is generated, unless --plain is
given. Without --url a random path on the configured piping server is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config
			out := cmd.OutOrStdout()

			p := transfer.Params{URL: strings.TrimSpace(url), Key: cipher.key, Nonce: cipher.nonce}
			if p.URL == "" {
				u, err := piping.DefaultURL(cfg.Piping.BaseURL)
				if err != nil {
					return err
				}
				p.URL = u
			}
			if !plain && cipher.params().Empty() {
				gen, err := streamcipher.Generate()
				if err != nil {
					return err
				}
				p.Key, p.Nonce = gen.Key, gen.Nonce
			}
			if err := p.Validate(); err != nil {
				return err
			}

			runCtx, stop := ctx.signalContext(cmd)
			defer stop()

			var file string
			if len(args) == 1 {
				file = args[0]
			}
			src, release, err := ctx.openSource(runCtx, &sources, file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer release()

			client := ctx.pipingClient(http3)
			defer client.Close()

			bar := progress.New(cmd.ErrOrStderr(), -1, "streaming", !noProgress && progress.IsTerminal(stderrFile(cmd)))
			runner := ctx.runner(client, bar.Add)

			fmt.Fprintf(out, "URL:   %s\n", p.URL)
			if p.Key != "" {
				fmt.Fprintf(out, "Key:   %s\nNonce: %s\n", p.Key, p.Nonce)
			}
			if link := runner.WatchLink(p); link != "" {
				fmt.Fprintf(out, "Watch: %s\n", link)
			}

			res, err := runner.Stream(runCtx, src, p)
			bar.Finish()
			if res != nil && res.Response != "" {
				fmt.Fprint(out, ensureNewline(res.Response))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Sent %d bytes in %s\n", res.Bytes, res.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVarP(&url, "url", "u", "", "Piping server URL (default: random path on piping.base_url)")
	cipher.register(cmd)
	cmd.Flags().BoolVar(&plain, "plain", false, "Send without encryption")
	cmd.Flags().StringVar(&sources.capture, "capture", "", "Stream the stdout of this command (bare flag: [capture] command)")
	cmd.Flags().StringVar(&sources.srtListen, "srt-listen", "", "Accept an SRT publisher on this address (bare flag: [srt] listen_addr)")
	cmd.Flags().StringVar(&sources.srtPull, "srt-pull", "", "Pull from the SRT listener at host:port")
	cmd.Flags().StringVar(&sources.srtKey, "srt-key", "", "SRT stream key to accept or pull")
	cmd.Flags().BoolVar(&http3, "http3", false, "Use HTTP/3")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Do not draw a progress bar")
	cmd.Flags().Lookup("capture").NoOptDefVal = fromConfig
	cmd.Flags().Lookup("srt-listen").NoOptDefVal = fromConfig
	cmd.MarkFlagsMutuallyExclusive("key", "plain")
	cmd.MarkFlagsMutuallyExclusive("nonce", "plain")

	return cmd
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
