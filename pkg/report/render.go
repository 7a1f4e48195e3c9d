package report

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/srodi/showpagemap/pkg/types"
)

type document struct {
	PageSize int                   `yaml:"page_size"`
	Targets  []types.TargetInfo    `yaml:"targets,omitempty"`
	Files    []types.FileResidency `yaml:"files,omitempty"`
	Summary  types.Summary         `yaml:"summary"`
	Owners   []OwnerRow            `yaml:"owners,omitempty"`
}

// Render writes the end-of-run report. owners is empty unless owner tracking
// was requested.
func (r *Reporter) Render(sum types.Summary, owners []OwnerRow) error {
	switch r.format {
	case FormatText:
		return r.renderText(sum, owners)
	case FormatYAML:
		return r.renderYAML(sum, owners)
	case FormatPrometheus:
		return r.renderPrometheus(sum, owners)
	}
	return errors.Errorf("unknown output format %q", r.format)
}

func (r *Reporter) renderText(sum types.Summary, owners []OwnerRow) error {
	fmt.Fprintln(r.out, "Summary:")
	fmt.Fprintf(r.out, "total pages:       %16d = %s\n", sum.TotalPages, humanize.IBytes(r.bytes(sum.TotalPages)))
	fmt.Fprintf(r.out, "total active(RSS): %16d = %s\n", sum.ResidentPages, humanize.IBytes(r.bytes(sum.ResidentPages)))
	fmt.Fprintf(r.out, "total shared:      %16d = %s\n", sum.SharedPages, humanize.IBytes(r.bytes(sum.SharedPages)))
	if len(owners) == 0 {
		return nil
	}

	fmt.Fprintln(r.out, "cgroup(s) active pages:")
	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"ID", "Path", "Pages", "Size"})
	table.SetAutoWrapText(false)
	table.AppendBulk(lo.Map(owners, func(row OwnerRow, _ int) []string {
		return []string{
			"{" + strconv.FormatUint(row.ID, 10) + "}",
			row.Path,
			strconv.FormatUint(row.Pages, 10),
			humanize.IBytes(row.Bytes),
		}
	}))
	table.Render()
	return nil
}

func (r *Reporter) renderYAML(sum types.Summary, owners []OwnerRow) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	doc := document{
		PageSize: r.pageSize,
		Targets:  r.targets,
		Files:    r.files,
		Summary:  sum,
		Owners:   owners,
	}
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "encoding yaml report")
	}
	return enc.Close()
}

func (r *Reporter) renderPrometheus(sum types.Summary, owners []OwnerRow) error {
	reg := prometheus.NewRegistry()
	gauge := func(name, help string, v uint64) {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
		g.Set(float64(v))
		reg.MustRegister(g)
	}
	gauge("showpagemap_pages_total", "Pages covered by every scanned range.", sum.TotalPages)
	gauge("showpagemap_resident_pages", "Scanned pages present in RAM.", sum.ResidentPages)
	gauge("showpagemap_shared_pages", "Scanned pages whose frame is mapped more than once.", sum.SharedPages)
	gauge("showpagemap_page_size_bytes", "Page size used for the scan.", uint64(r.pageSize))

	if len(owners) > 0 {
		ownerPages := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "showpagemap_owner_resident_pages",
			Help: "Resident pages charged to each memory cgroup.",
		}, []string{"owner_id", "path"})
		reg.MustRegister(ownerPages)
		for _, row := range owners {
			ownerPages.WithLabelValues(strconv.FormatUint(row.ID, 10), row.Path).Set(float64(row.Pages))
		}
	}

	if len(r.files) > 0 {
		filePages := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "showpagemap_file_pages",
			Help: "Pages spanned by each probed file.",
		}, []string{"path"})
		fileResident := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "showpagemap_file_resident_pages",
			Help: "Pages of each probed file found in the page cache.",
		}, []string{"path"})
		reg.MustRegister(filePages, fileResident)
		for _, f := range r.files {
			filePages.WithLabelValues(f.Path).Set(float64(f.Pages))
			fileResident.WithLabelValues(f.Path).Set(float64(f.ResidentPages))
		}
	}

	families, err := reg.Gather()
	if err != nil {
		return errors.Wrap(err, "gathering metrics")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(r.out, mf); err != nil {
			return errors.Wrap(err, "writing metrics")
		}
	}
	return nil
}
