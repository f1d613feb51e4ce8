// piping-server is a minimal local piping server for trying `tomitake
// stream` and `watch` without a public one. A sender's PUT (or POST) and a
// receiver's GET on the same path are paired and the body is relayed from
// one to the other.
//
// By default it serves HTTPS with a fresh self-signed certificate and
// prints the pin to put in `[piping] cert_sha256`. --http3 also serves
// HTTP/3 on the same port.
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/quic-go/quic-go/http3"
	"golang.org/x/sync/errgroup"

	"github.com/zsiec/tomitake/internal/certs"
	"github.com/zsiec/tomitake/internal/logging"
)

func main() {
	addrFlag := flag.String("addr", "127.0.0.1:8443", "Listen address")
	plainFlag := flag.Bool("plain", false, "Serve plain HTTP instead of HTTPS")
	h3Flag := flag.Bool("http3", false, "Also serve HTTP/3 (needs TLS)")
	hostsFlag := flag.String("hosts", "", "Extra certificate host names or IPs, comma separated")
	chunkFlag := flag.Int("chunk-size", 16*1024, "Relay chunk size in bytes")
	flag.Parse()

	log, err := logging.New(logging.Options{Level: "info"})
	if err != nil {
		fatalf("%v", err)
	}
	if *plainFlag && *h3Flag {
		fatalf("--http3 cannot be combined with --plain")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := newPipeServer(*chunkFlag, log)
	srv := &http.Server{Addr: *addrFlag, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	var tlsConf *tls.Config
	if !*plainFlag {
		cert, err := certs.Generate(0, splitHosts(*hostsFlag)...)
		if err != nil {
			fatalf("certificate: %v", err)
		}
		tlsConf = &tls.Config{Certificates: []tls.Certificate{cert.TLSCert}}
		srv.TLSConfig = tlsConf
		fmt.Printf("cert_sha256 = %q\n", cert.FingerprintBase64())
		fmt.Printf("valid until %s\n", cert.NotAfter.Format(time.RFC3339))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("serving", "addr", *addrFlag, "tls", tlsConf != nil)
		var err error
		if tlsConf != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	var h3 *http3.Server
	if *h3Flag {
		h3 = &http3.Server{
			Addr:      *addrFlag,
			Handler:   handler,
			TLSConfig: http3.ConfigureTLSConfig(tlsConf),
		}
		g.Go(func() error {
			log.Info("serving HTTP/3", "addr", *addrFlag)
			if err := h3.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if h3 != nil {
			h3.Close()
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		fatalf("%v", err)
	}
}

func splitHosts(s string) []string {
	var out []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "piping-server: "+format+"\n", args...)
	os.Exit(1)
}
