// Command transcriptconv converts a vendor transcript document into the
// canonical conversation JSON, for offline inspection and backfills.
//
// Usage:
//
//	transcriptconv -vendor aws -reference "2024/01/01 00:00:00" < transcript.json
//	transcriptconv -vendor genesys -in transcript.json -out conversation.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"voice-insights-pipeline/internal/models"
	"voice-insights-pipeline/internal/service/format"
)

func main() {
	vendor := flag.String("vendor", "", "vendor format: aws or genesys")
	reference := flag.String("reference", "", "reference datetime for AWS offsets (YYYY/MM/DD HH:MM:SS)")
	in := flag.String("in", "", "input file (default stdin)")
	out := flag.String("out", "", "output file (default stdout)")
	flag.Parse()

	if err := run(*vendor, *reference, *in, *out); err != nil {
		fmt.Fprintf(os.Stderr, "transcriptconv: %v\n", err)
		os.Exit(1)
	}
}

func run(vendor, reference, in, out string) error {
	input := os.Stdin
	if in != "" {
		f, err := os.Open(in)
		if err != nil {
			return err
		}
		defer f.Close()
		input = f
	}
	document, err := io.ReadAll(input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	var conversation *models.Conversation
	switch vendor {
	case "aws":
		conversation, err = format.FromAWS(document, reference)
	case "genesys":
		conversation, err = format.FromGenesysCloud(document)
	default:
		return fmt.Errorf("unknown vendor %q (want aws or genesys)", vendor)
	}
	if err != nil {
		return err
	}

	payload, err := json.MarshalIndent(conversation, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	payload = append(payload, '\n')

	if out == "" {
		_, err = os.Stdout.Write(payload)
		return err
	}
	return os.WriteFile(out, payload, 0o644)
}
