package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shunichi-ikebuchi/txledger/pkg/ledger"
)

// SummaryHeader is the header row of the summary output.
var SummaryHeader = []string{"client_id", "available", "held", "total", "locked"}

// WriteSummaries writes one CSV row per account summary, preceded by SummaryHeader.
func WriteSummaries(out io.Writer, summaries []ledger.Summary) error {
	w := csv.NewWriter(out)

	if err := w.Write(SummaryHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, s := range summaries {
		row := []string{
			strconv.FormatUint(uint64(s.ClientID), 10),
			s.Available.String(),
			s.Held.String(),
			s.Total.String(),
			strconv.FormatBool(s.Locked),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write client %d: %w", s.ClientID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
