// Package report renders account summaries in the supported output formats.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/shunichi-ikebuchi/txledger/pkg/csvio"
	"github.com/shunichi-ikebuchi/txledger/pkg/ledger"
)

// Format is an output format name.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name. An empty name selects CSV.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", name)
	}
}

// AccountJSON is the JSON shape of a summary. Amounts are exact decimals.
type AccountJSON struct {
	ClientID  uint16          `json:"client_id"`
	Available decimal.Decimal `json:"available"`
	Held      decimal.Decimal `json:"held"`
	Total     decimal.Decimal `json:"total"`
	Locked    bool            `json:"locked"`
}

// AccountYAML is the YAML shape of a summary. Amounts keep their display form.
type AccountYAML struct {
	ClientID  uint16 `yaml:"client_id"`
	Available string `yaml:"available"`
	Held      string `yaml:"held"`
	Total     string `yaml:"total"`
	Locked    bool   `yaml:"locked"`
}

// Write renders summaries to out in the given format.
func Write(out io.Writer, format Format, summaries []ledger.Summary) error {
	switch format {
	case FormatCSV, "":
		return csvio.WriteSummaries(out, summaries)
	case FormatJSON:
		return writeJSON(out, summaries)
	case FormatYAML:
		return writeYAML(out, summaries)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeJSON(out io.Writer, summaries []ledger.Summary) error {
	accounts := make([]AccountJSON, 0, len(summaries))
	for _, s := range summaries {
		accounts = append(accounts, AccountJSON{
			ClientID:  s.ClientID,
			Available: s.Available.Decimal(),
			Held:      s.Held.Decimal(),
			Total:     s.Total.Decimal(),
			Locked:    s.Locked,
		})
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(accounts); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

func writeYAML(out io.Writer, summaries []ledger.Summary) error {
	accounts := make([]AccountYAML, 0, len(summaries))
	for _, s := range summaries {
		accounts = append(accounts, AccountYAML{
			ClientID:  s.ClientID,
			Available: s.Available.String(),
			Held:      s.Held.String(),
			Total:     s.Total.String(),
			Locked:    s.Locked,
		})
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(accounts); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to close yaml encoder: %w", err)
	}
	return nil
}
