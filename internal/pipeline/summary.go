package pipeline

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var summaryPrinter = message.NewPrinter(language.English)

// Summary renders a one-paragraph description of the result.
func (r *Result) Summary() string {
	var b strings.Builder

	before, after := 0, 0
	if r.Original != nil {
		before = len(r.Original.Bytes())
	}
	if r.Request != nil {
		after = len(r.Request.Bytes())
	}

	summaryPrinter.Fprintf(&b, "Request reduced from %d to %d bytes in %d trials (%d accepted",
		before, after, r.Trials, r.Accepted)
	if r.TransportErrors > 0 {
		summaryPrinter.Fprintf(&b, ", %d transport errors", r.TransportErrors)
	}
	b.WriteString(").")

	summaryPrinter.Fprintf(&b, " Removed %d headers and %d parameters.", len(r.RemovedHeaders), len(r.RemovedParams))
	switch {
	case r.BodySkipped != "" && r.BodyFormat != "":
		summaryPrinter.Fprintf(&b, " %s body left unchanged: %s.", strings.ToUpper(r.BodyFormat), r.BodySkipped)
	case r.BodyFormat != "":
		summaryPrinter.Fprintf(&b, " %s body reduced.", strings.ToUpper(r.BodyFormat))
	}
	summaryPrinter.Fprintf(&b, " %d invariant attributes.", len(r.Invariants))
	return b.String()
}
