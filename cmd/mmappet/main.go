// Command mmappet inspects mmappet datasets: schema and row counts,
// leading rows, per-column statistics, and quick ASCII plots.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/docopt/docopt.go"
	"go.uber.org/zap"

	"github.com/TFMV/mmappet/dataset"
	"github.com/TFMV/mmappet/stats"
)

const usage = `mmappet dataset inspector.

Usage:
  mmappet info <path>
  mmappet head <path> [--rows=<n>] [--columns=<list>]
  mmappet stats <path>
  mmappet plot <path> [--column=<name>] [--rows=<n>] [--width=<w>]
  mmappet (-h | --help)
  mmappet --version

Options:
  -h --help           Show this screen.
  --version           Show version.
  --rows=<n>          Number of rows to show [default: 10].
  --columns=<list>    Comma-separated column names (all if not given).
  --column=<name>     Column to plot (first column if not given).
  --width=<w>         Plot width in characters [default: 60].
`

func main() {
	arguments, err := docopt.ParseDoc(usage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing arguments: %v\n", err)
		os.Exit(1)
	}
	if v, _ := arguments.Bool("--version"); v {
		fmt.Println("mmappet version 1.0.0")
		os.Exit(0)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	path, _ := arguments.String("<path>")
	ds, err := dataset.Open(path)
	if err != nil {
		logger.Fatal("Failed to open dataset", zap.String("path", path), zap.Error(err))
	}
	defer ds.Close()

	switch {
	case mustBool(arguments, "info"):
		err = cmdInfo(ds)
	case mustBool(arguments, "head"):
		n := intOr(arguments, "--rows", 10)
		cols, _ := arguments.String("--columns")
		err = cmdHead(ds, n, cols)
	case mustBool(arguments, "stats"):
		err = cmdStats(ds)
	case mustBool(arguments, "plot"):
		n := intOr(arguments, "--rows", 30)
		width := intOr(arguments, "--width", 60)
		col, _ := arguments.String("--column")
		err = cmdPlot(ds, col, n, width)
	}
	if err != nil {
		logger.Fatal("Command failed", zap.Error(err))
	}
}

func mustBool(args docopt.Opts, key string) bool {
	v, _ := args.Bool(key)
	return v
}

func intOr(args docopt.Opts, key string, fallback int) int {
	v, err := args.Int(key)
	if err != nil {
		return fallback
	}
	return v
}

func cmdInfo(ds *dataset.Dataset) error {
	fmt.Printf("Dataset: %s\n", ds.Path())
	fmt.Printf("Rows: %d\n", ds.Len())
	fmt.Printf("Columns: %d\n", ds.NumColumns())
	fmt.Println()
	fmt.Println("Schema:")
	for _, def := range ds.Schema().Columns() {
		fmt.Printf("  %2d. %s (%s)\n", def.Index, def.Name, def.DType)
	}
	return nil
}

func cmdHead(ds *dataset.Dataset, n int, columns string) error {
	names := ds.ColumnNames()
	if columns != "" {
		names = strings.Split(columns, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}
	}

	if n > ds.Len() {
		n = ds.Len()
	}

	fmt.Println(strings.Join(names, "\t"))

	row := make([]string, len(names))
	for i := 0; i < n; i++ {
		for j, name := range names {
			col, err := ds.Column(name)
			if err != nil {
				return err
			}
			row[j] = col.Typed().FormatAt(i)
		}
		fmt.Println(strings.Join(row, "\t"))
	}
	return nil
}

func cmdStats(ds *dataset.Dataset) error {
	fmt.Printf("Dataset: %s\n", ds.Path())
	fmt.Printf("Rows: %d\n", ds.Len())
	fmt.Println()

	for _, def := range ds.Schema().Columns() {
		col, err := ds.Column(def.Name)
		if err != nil {
			return err
		}
		summary, err := stats.Describe(col)
		if err != nil {
			fmt.Printf("%s (%s): (stats not available for this type)\n", def.Name, def.DType)
			continue
		}
		fmt.Printf("%s (%s): min=%g, max=%g, mean=%.6f\n",
			def.Name, def.DType, summary.Min, summary.Max, summary.Mean)
	}
	return nil
}

func cmdPlot(ds *dataset.Dataset, name string, n, width int) error {
	if name == "" {
		names := ds.ColumnNames()
		if len(names) == 0 {
			return fmt.Errorf("dataset has no columns")
		}
		name = names[0]
	}

	col, err := ds.Column(name)
	if err != nil {
		return err
	}

	if n > ds.Len() {
		n = ds.Len()
	}
	if n == 0 {
		fmt.Println("No data to plot")
		return nil
	}

	ta := col.Typed()
	values := make([]float64, n)
	for i := range values {
		values[i] = ta.Float64At(i)
	}

	minVal, maxVal := values[0], values[0]
	for _, v := range values {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	valRange := maxVal - minVal

	fmt.Printf("Column: %s (%s)  Rows: 0..%d\n", name, col.DType(), n)
	fmt.Printf("Range: [%.4f, %.4f]\n", minVal, maxVal)
	fmt.Println()

	idxWidth := len(fmt.Sprintf("%d", n-1))
	for i, v := range values {
		barLen := width / 2
		if valRange > 0 {
			barLen = int((v-minVal)/valRange*float64(width) + 0.5)
		}
		fmt.Printf("%*d │ %12.4f │%s\n", idxWidth, i, v, strings.Repeat("█", barLen))
	}
	return nil
}
