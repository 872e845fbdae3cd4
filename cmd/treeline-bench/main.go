// Command treeline-bench runs the training benchmark pipeline against a
// warehouse table, seeding a synthetic vehicle-pricing table first when
// asked.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/treeline-data/treeline"
	"github.com/treeline-data/treeline/internal/version"
)

func customUsage() {
	fmt.Fprintf(os.Stderr, "Treeline training benchmark (version %s)\n\n", version.Version)
	fmt.Fprintf(os.Stderr, "Usage: treeline-bench [options]\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	fmt.Fprintf(os.Stderr, "  --config FILE\n\t\tLoad configuration from a JSON or YAML file\n")
	fmt.Fprintf(os.Stderr, "  --warehouse PATH\n\t\tWarehouse database file (default: treeline.db)\n")
	fmt.Fprintf(os.Stderr, "  --table NAME\n\t\tQualified source table, schema.name (default: bench.vehicles)\n")
	fmt.Fprintf(os.Stderr, "  --seed-rows N\n\t\tSeed a synthetic vehicle table with N rows before running\n")
	fmt.Fprintf(os.Stderr, "  --plot PATH\n\t\tWrite a predicted-vs-actual scatter PNG to PATH\n")
	fmt.Fprintf(os.Stderr, "  --verbose\n\t\tEnable debug logging\n")
	fmt.Fprintf(os.Stderr, "  -v, --version\n\t\tPrint version information and exit\n")
	fmt.Fprintf(os.Stderr, "  -h, --help\n\t\tShow this help message and exit\n")
}

func main() {
	versionFlag := flag.Bool("v", false, "Print version and exit")
	flag.BoolVar(versionFlag, "version", false, "Print version and exit") // alias
	configFlag := flag.String("config", "", "Configuration file (JSON or YAML)")
	warehouseFlag := flag.String("warehouse", "", "Warehouse database file")
	tableFlag := flag.String("table", "", "Qualified source table")
	seedRowsFlag := flag.Int("seed-rows", 0, "Seed a synthetic table with N rows")
	plotFlag := flag.String("plot", "", "Scatter plot output path")
	verboseFlag := flag.Bool("verbose", false, "Enable debug logging")

	//nolint:reassign // Standard Go pattern for customizing flag usage message
	flag.Usage = customUsage
	flag.Parse()

	if *versionFlag {
		fmt.Print(version.Info().String())
		return
	}

	cfg, err := loadConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *warehouseFlag != "" {
		cfg.WarehousePath = *warehouseFlag
	}
	if *tableFlag != "" {
		cfg.SourceTable = *tableFlag
	}
	if *plotFlag != "" {
		cfg.PlotPath = *plotFlag
	}
	if *verboseFlag {
		cfg.VerboseLogging = true
	}
	if cfg.SourceTable == "" {
		cfg.SourceTable = "bench.vehicles"
	}
	if cfg.CategoryColumn == "" {
		cfg.CategoryColumn = "make"
	}
	if len(cfg.DropColumns) == 0 {
		cfg.DropColumns = []string{"vin"}
	}

	logger := newLogger(cfg.VerboseLogging)
	slog.SetDefault(logger)

	if err := run(cfg, *seedRowsFlag, logger); err != nil {
		logger.Error("pipeline failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func loadConfig(path string) (treeline.Config, error) {
	if path != "" {
		return treeline.LoadConfig(path)
	}
	return treeline.LoadConfigFromEnv(), nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func run(cfg treeline.Config, seedRows int, logger *slog.Logger) error {
	wh, err := treeline.OpenWarehouse(cfg.WarehousePath)
	if err != nil {
		return err
	}
	defer wh.Close()

	source := treeline.ParseRef(cfg.SourceTable)
	if seedRows > 0 {
		logger.Info("seeding synthetic table",
			slog.String("table", source.String()),
			slog.Int("rows", seedRows))
		sample := syntheticVehicles(seedRows)
		defer sample.Release()
		if err := wh.Save(source, sample); err != nil {
			return err
		}
	}
	if !wh.HasTable(source) {
		return fmt.Errorf("table %s not found; use --seed-rows to create one", source)
	}

	result, err := wh.RunPipeline(context.Background(), cfg, logger)
	if err != nil {
		return err
	}

	fmt.Println(result.Comparison.Report())
	fmt.Printf("CPU:      R2=%.4f RMSE=%.2f\n", result.CPU.R2, result.CPU.RMSE)
	fmt.Printf("Parallel: R2=%.4f RMSE=%.2f\n", result.Parallel.R2, result.Parallel.RMSE)
	if speedup := result.Comparison.Speedup("fit/cpu", "fit/parallel"); speedup > 0 {
		fmt.Printf("Parallel fit speedup: %.2fx\n", speedup)
	}
	if result.PlotPath != "" {
		fmt.Printf("Scatter plot: %s\n", result.PlotPath)
	}
	return nil
}

// syntheticVehicles builds a vehicle listing table with a long-tail make
// column, a handful of luxury prices above the cleaning cap, and missing
// values in both string and numeric columns.
func syntheticVehicles(rows int) *treeline.Frame {
	const (
		popularMakes  = 12
		rareMakes     = 200
		luxuryEvery   = 97 // roughly 1% of rows priced above the cap
		missingEvery  = 17
		basePrice     = 4000
		priceSpread   = 45000
		luxuryPrice   = 150000
		baseYear      = 1998
		yearRange     = 26
		mileageSpread = 220000
	)

	rng := rand.New(rand.NewSource(7))

	prices := make([]float64, rows)
	makes := make([]string, rows)
	makesValid := make([]bool, rows)
	years := make([]int64, rows)
	mileages := make([]float64, rows)
	mileagesValid := make([]bool, rows)
	vins := make([]string, rows)

	for i := 0; i < rows; i++ {
		if i%luxuryEvery == 0 {
			prices[i] = luxuryPrice + rng.Float64()*priceSpread
		} else {
			prices[i] = basePrice + rng.Float64()*priceSpread
		}

		makesValid[i] = i%missingEvery != 0
		if makesValid[i] {
			if rng.Float64() < 0.85 {
				makes[i] = fmt.Sprintf("make_%02d", rng.Intn(popularMakes))
			} else {
				makes[i] = fmt.Sprintf("rare_%03d", rng.Intn(rareMakes))
			}
		}

		years[i] = baseYear + int64(rng.Intn(yearRange))
		mileagesValid[i] = i%missingEvery != 3
		if mileagesValid[i] {
			mileages[i] = rng.Float64() * mileageSpread
			// Older cars carry more mileage, so the model has a signal
			// beyond noise.
			mileages[i] += float64(int64(baseYear+yearRange)-years[i]) * 4000
			prices[i] -= mileages[i] * 0.05
			if prices[i] < 500 {
				prices[i] = 500
			}
		}

		vins[i] = fmt.Sprintf("VIN%09d", i)
	}

	mem := memory.NewGoAllocator()
	return treeline.NewFrame(
		treeline.NewSeries("price", prices, mem),
		treeline.NewSeriesWithValidity("make", makes, makesValid, mem),
		treeline.NewSeries("year", years, mem),
		treeline.NewSeriesWithValidity("mileage", mileages, mileagesValid, mem),
		treeline.NewSeries("vin", vins, mem),
	)
}
