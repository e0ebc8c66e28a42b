package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

func checkOutputFormat() error {
	switch outputFmt {
	case "json", "yaml":
		return nil
	default:
		return fmt.Errorf("unknown output format %q (json or yaml)", outputFmt)
	}
}

// printResult writes v in the selected format. Backend payloads keep their
// key order in both formats.
func printResult(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if outputFmt == "yaml" {
		return writeYAML(w, raw)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(w)
	return err
}

// writeYAML re-encodes JSON as block-style YAML. JSON is valid YAML, so the
// node tree keeps key order and number literals untouched.
func writeYAML(w io.Writer, raw []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	blockStyle(&doc)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	return enc.Close()
}

// blockStyle drops the flow and quoting styles inherited from JSON. The
// encoder still quotes strings that would read back as another type.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
