// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/siemens/ipreport/pipeline"
	"github.com/siemens/ipreport/types"
)

// renderer renders the live terminal display of a run, based on the address
// updates passed to its Render method.
type renderer struct {
	Indentation int
	MaxLines    int // maximum number of address lines; 0 means unlimited.
	w           io.Writer
	spinner     *spinner
}

// newRenderer returns a renderer rendering to the specified io.Writer, with
// its spinner advancing at the specified interval.
func newRenderer(w io.Writer, interval time.Duration) *renderer {
	sp := newSpinner()
	sp.Start(interval)
	return &renderer{
		Indentation: 3,
		w:           w,
		spinner:     sp,
	}
}

// Stop the renderer's background ticker.
func (r *renderer) Stop() {
	r.spinner.Stop()
}

// Render the given address updates, which must be in lookup order.
func (r *renderer) Render(updates []types.AddressUpdate) {
	if len(updates) == 0 {
		fmt.Fprintln(r.w, "validating addresses...")
		return
	}
	counts := map[types.AddressStatus]int{}
	for _, update := range updates {
		counts[update.Status]++
	}
	fmt.Fprintf(r.w, "%s %s addresses: %s enriched, %s failed, %s to go\n",
		headingStyle.Styled("looking up"),
		humanize.Comma(int64(len(updates))),
		humanize.Comma(int64(counts[types.Enriched])),
		humanize.Comma(int64(counts[types.Failed])),
		humanize.Comma(int64(counts[types.Pending]+counts[types.LookingUp])))

	// Lookups proceed in order, so the started lookups form a prefix; show
	// only the most recent ones of them.
	started := 0
	for started < len(updates) && updates[started].Status != types.Pending {
		started++
	}
	visible := updates[:started]
	if r.MaxLines > 0 && len(visible) > r.MaxLines {
		fmt.Fprintf(r.w, "%-*s... %s more\n", r.Indentation, "",
			humanize.Comma(int64(len(visible)-r.MaxLines)))
		visible = visible[len(visible)-r.MaxLines:]
	}
	for _, update := range visible {
		r.renderAddress(update)
	}
}

// renderAddress renders the status of a single address.
func (r *renderer) renderAddress(update types.AddressUpdate) {
	fmt.Fprintf(r.w, "%-*s", r.Indentation, "")
	switch update.Status {
	case types.Pending:
		fmt.Fprintf(r.w, " ? %s", update.Address)
	case types.LookingUp:
		fmt.Fprint(r.w, lookingUpStyle.Styled(" "+r.spinner.Frame()+update.Address+" "))
	case types.Enriched:
		fmt.Fprint(r.w, enrichedStyle.Styled(" ✔ "+update.Address+" "))
	case types.Failed:
		fmt.Fprint(r.w, failedStyle.Styled(" × "+update.Address+" "))
		if update.Err != nil {
			fmt.Fprintf(r.w, " %s", update.Err.Error())
		}
	}
	fmt.Fprintln(r.w)
}

// renderSummary renders how a run turned out. The outcome might be nil.
func renderSummary(w io.Writer, outcome *pipeline.Outcome, storageDir string) {
	if outcome == nil {
		return
	}
	if len(outcome.Set.Invalid) > 0 {
		fmt.Fprintf(w, "%s %s\n",
			warningStyle.Styled("invalid IP addresses ignored:"),
			strings.Join(outcome.Set.Invalid, ", "))
	}
	rep := outcome.Report
	if rep.Requested == 0 {
		return
	}
	fmt.Fprintf(w, "enriched %s of %s addresses in %.2fs",
		humanize.Comma(int64(rep.Enriched)),
		humanize.Comma(int64(rep.Requested)),
		rep.ProcessingTime)
	if rep.Pauses > 0 {
		fmt.Fprintf(w, ", with %s cooldown %s",
			humanize.Comma(int64(rep.Pauses)), plural(rep.Pauses, "pause", "pauses"))
	}
	fmt.Fprintln(w)
	if outcome.Artifact != "" {
		fmt.Fprintf(w, "report with %d %s saved to %s\n",
			outcome.Pages, plural(outcome.Pages, "page", "pages"),
			artifactStyle.Styled(filepath.Join(storageDir, outcome.Artifact)))
	}
}

func plural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
