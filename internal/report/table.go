package report

import (
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// PeerStat is one rank's contribution to a completed job, gathered by the
// CLI from its Peer's counters once Begin returns.
type PeerStat struct {
	Rank      int
	Processed int
	Bytes     int64
	Requests  int
	Status    string
}

// WriteSummary renders stats as a table to w, with the Status cell green
// for peers that reported "terminated" and red for anything else, matching
// the teacher CLI tooling's pass/fail coloring convention.
func WriteSummary(w io.Writer, stats []PeerStat) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rank", "Items", "Bytes", "Requests Served", "Status"})
	table.SetAutoFormatHeaders(true)

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	var totalItems int
	var totalBytes int64
	for _, s := range stats {
		status := s.Status
		if status == "terminated" {
			status = green(status)
		} else {
			status = red(status)
		}
		table.Append([]string{
			strconv.Itoa(s.Rank), strconv.Itoa(s.Processed), ByteCount(s.Bytes), strconv.Itoa(s.Requests), status,
		})
		totalItems += s.Processed
		totalBytes += s.Bytes
	}
	table.SetFooter([]string{"", strconv.Itoa(totalItems), ByteCount(totalBytes), "", ""})
	table.Render()
}
