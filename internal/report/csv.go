package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/banshee-data/lockin.report/internal/sweep"
)

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeCSVFile(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Write(header)
	for _, row := range rows {
		w.Write(row)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// digestRows builds one row per frequency: the frequency itself followed by
// one column per drive amplitude, pulled from a [freq][ampl] table.
func digestRows(freqs []float64, table [][]float64) [][]string {
	rows := make([][]string, len(freqs))
	for j, f := range freqs {
		row := make([]string, 0, 1+len(table[j]))
		row = append(row, formatValue(f))
		for _, v := range table[j] {
			row = append(row, formatValue(v))
		}
		rows[j] = row
	}
	return rows
}

func digestHeader(ampls []float64) []string {
	header := make([]string, 0, 1+len(ampls))
	header = append(header, "freq")
	for _, a := range ampls {
		header = append(header, formatValue(a)+" V")
	}
	return header
}

// WriteDigestCSV writes the four per-sweep tables for one digest: in-phase
// and quadrature means, plus their variance companions under a "d" prefix.
// File names carry the role and the digest ID, e.g. sample_3w_<ID>.csv and
// sample_3w_o_<ID>.csv.
func WriteDigestCSV(dir string, role sweep.Role, d *sweep.Digest) error {
	header := digestHeader(d.Ampls)
	tables := []struct {
		name  string
		table [][]float64
	}{
		{fmt.Sprintf("%s_%s.csv", role, d.ID), d.MeanX},
		{fmt.Sprintf("%s_o_%s.csv", role, d.ID), d.MeanY},
		{fmt.Sprintf("d%s_%s.csv", role, d.ID), d.VarX},
		{fmt.Sprintf("d%s_o_%s.csv", role, d.ID), d.VarY},
	}
	for _, t := range tables {
		path := filepath.Join(dir, t.name)
		if err := writeCSVFile(path, header, digestRows(d.Freqs, t.table)); err != nil {
			return err
		}
	}
	return nil
}

func alignedRows(freqs []float64, values [][]float64) [][]string {
	rows := make([][]string, len(freqs))
	for j, f := range freqs {
		row := make([]string, 0, 1+len(values[j]))
		row = append(row, formatValue(f))
		for _, v := range values[j] {
			row = append(row, formatValue(v))
		}
		rows[j] = row
	}
	return rows
}

// WriteAligned writes the merged three-sweep table for one amplitude as
// tc3omega_data_<ampl>_V.csv plus its variance companion under
// tc3omega_variance_<ampl>_V.csv.
func WriteAligned(dir string, a *sweep.Aligned) error {
	ampl := formatValue(a.Ampl)

	dataPath := filepath.Join(dir, fmt.Sprintf("tc3omega_data_%s_V.csv", ampl))
	header := append([]string{"freq"}, a.Columns...)
	if err := writeCSVFile(dataPath, header, alignedRows(a.Freqs, a.Values)); err != nil {
		return err
	}

	varPath := filepath.Join(dir, fmt.Sprintf("tc3omega_variance_%s_V.csv", ampl))
	varHeader := append([]string{"freq"}, a.VarColumns...)
	return writeCSVFile(varPath, varHeader, alignedRows(a.Freqs, a.Variances))
}
