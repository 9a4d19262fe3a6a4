package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/vk/opmeter/internal/hclgraph"
	"github.com/vk/opmeter/internal/meter"
	"github.com/vk/opmeter/internal/optree"
	"github.com/vk/opmeter/internal/stat"
)

// writeReport renders one line per visible operation followed by the
// diagnostics of the measurement.
func writeReport(w io.Writer, graph *hclgraph.Graph, m *meter.Meter, facets []stat.Kind) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "model %s (%s) input=%s\n", graph.Name, graph.File, graph.Input)

	for _, n := range m.Rows() {
		line, err := row(n, facets)
		if err != nil {
			return err
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	d := m.Diagnostics()
	for _, k := range stat.Kinds {
		if ids := d.NotCalled[k]; len(ids) > 0 {
			fmt.Fprintf(&sb, "  not executed (%s): %s\n", k, strings.Join(ids, ", "))
		}
	}
	if len(d.Unsupported) > 0 {
		fmt.Fprintf(&sb, "  no cost formula: %s\n", strings.Join(d.Unsupported, ", "))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func row(n *optree.Node, facets []stat.Kind) (string, error) {
	var sb strings.Builder
	sb.WriteString(strings.Repeat("  ", n.Depth()))
	sb.WriteString(n.Label())
	fmt.Fprintf(&sb, " [%s]", n.Type)

	if r := n.Repeat; r.IsRun() {
		names := make([]string, len(r.Members))
		for i, mem := range r.Members {
			names[i] = mem.Name
		}
		fmt.Fprintf(&sb, " x%d {%s}", r.RepeatTime, strings.Join(names, ", "))
	}

	for _, k := range facets {
		txt, err := facetText(n, k)
		if err != nil {
			return "", fmt.Errorf("operation %s: %w", n.IDString(), err)
		}
		sb.WriteString(" | ")
		sb.WriteString(txt)
	}
	return sb.String(), nil
}

func facetText(n *optree.Node, k stat.Kind) (string, error) {
	s := n.Stats
	switch k {
	case stat.KindParam:
		v, err := s.Param.Val()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("params %s (trainable %s)", v.Total, v.Trainable), nil
	case stat.KindCal:
		v, err := s.Cal.Val()
		if err != nil {
			return "", err
		}
		if n.Leaf && s.Cal.Unsupported() {
			return "macs N/A flops N/A", nil
		}
		return fmt.Sprintf("macs %s flops %s", v.MACs, v.FLOPs), nil
	case stat.KindMem:
		v, err := s.Mem.Val()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("mem %s", v.Total), nil
	case stat.KindIttp:
		v, err := s.Ittp.Val()
		if err != nil {
			return "", err
		}
		if v.Samples == 0 {
			return "time N/A", nil
		}
		return "time " + v.String(), nil
	}
	return "", fmt.Errorf("%w: '%s'", stat.ErrUnknownFacet, k)
}
