// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosuri/uilive"
	"github.com/siemens/ipreport/addrset"
	"github.com/siemens/ipreport/pipeline"
	"github.com/siemens/ipreport/scheduler"
	"github.com/siemens/ipreport/types"
	"github.com/spf13/cobra"
	"github.com/thediveo/lxkns/log"
)

func newScanCmd() *cobra.Command {
	var file *string
	scanCmd := &cobra.Command{
		Use:   "scan [flags] [address[,address...]...]",
		Short: "looks up the specified addresses and renders a PDF report",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := addrset.RawInput{Text: strings.Join(args, ",")}
			if *file != "" {
				lines, err := readAddressFile(*file)
				if err != nil {
					return err
				}
				in.FileLines = lines
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			return ScanAndReport(ctx, cmd.OutOrStdout(), in)
		},
	}
	file = scanCmd.Flags().StringP("file", "f", "", "text file with addresses, only .txt files are accepted")
	return scanCmd
}

// readAddressFile returns the lines of an address file; files without a .txt
// suffix are ignored with a warning.
func readAddressFile(name string) ([]string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("cannot open address file: %w", err)
	}
	defer f.Close()
	lines, accepted, err := addrset.ReadUpload(filepath.Base(name), f)
	if !accepted {
		log.Warnf("ignoring address file %s, only .txt files are accepted", name)
	}
	return lines, err
}

// ScanAndReport runs the batch enrichment of the specified input, rendering
// the progress live to the specified writer, and finally a summary of the run.
func ScanAndReport(ctx context.Context, w io.Writer, in addrset.RawInput) error {
	pl, err := pipeline.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer pl.Close()

	// Create an empty (concurrency-safe) progress board and immediately fire
	// off the rendering goroutine. The rendering will only stop after tracking
	// has finished because the news channel has been closed. We then render a
	// final update and end rendering, signalling the end of our activities via
	// renderingDone.
	board := scheduler.NewBoard()
	trackingDone := make(chan struct{})
	renderingDone := make(chan struct{})

	go func() {
		// Avoid uilive's background updating using Start() as it might flush
		// a half-rendered display. Instead, we flush explicitly after each
		// complete rendering.
		term := uilive.New()
		term.Out = w
		renderer := newRenderer(term, *spinnerInterval)
		renderer.MaxLines = int(*maxLines)
		defer func() {
			renderData(term, renderer, board)
			renderer.Stop()
			close(renderingDone)
		}()
		renderData(term, renderer, board)
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				renderData(term, renderer, board)
			case <-trackingDone:
				return
			}
		}
	}()

	news := make(chan types.AddressUpdate)
	go func() {
		_ = board.Track(ctx, news)
		close(trackingDone)
	}()
	outcome, err := pl.Run(ctx, in, news)
	close(news)
	<-renderingDone

	renderSummary(w, outcome, pl.Store().Path())
	if err != nil {
		return fmt.Errorf("cannot create report: %w", err)
	}
	return nil
}

// renderData gets the current address updates and then renders (and flushes)
// them to the terminal.
func renderData(term *uilive.Writer, r *renderer, board *scheduler.Board) {
	r.Render(board.Get())
	_ = term.Flush()
}
