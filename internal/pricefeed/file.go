package pricefeed

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Alias1177/lpintel/models"
)

// priceFile is the on-disk layout read by FileSource
type priceFile struct {
	Symbol  string          `yaml:"symbol"`
	Candles []models.Candle `yaml:"candles"`
}

// FileSource serves candles recorded in a YAML file. The file is read once;
// a source whose file failed to load reports itself unhealthy.
type FileSource struct {
	path    string
	symbol  string
	candles []models.Candle
	err     error
}

// NewFileSource loads path. Load failures are kept and returned by Err.
func NewFileSource(path string) *FileSource {
	fs := &FileSource{path: path}
	fs.symbol, fs.candles, fs.err = loadPriceFile(path)
	return fs
}

func loadPriceFile(path string) (string, []models.Candle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("reading price file: %w", err)
	}

	var pf priceFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return "", nil, fmt.Errorf("parsing price file %s: %w", path, err)
	}
	if pf.Symbol == "" {
		return "", nil, fmt.Errorf("price file %s: symbol is required", path)
	}

	sort.SliceStable(pf.Candles, func(i, j int) bool {
		return pf.Candles[i].Timestamp.Before(pf.Candles[j].Timestamp)
	})
	return pf.Symbol, pf.Candles, nil
}

// Err returns the load error, if any
func (fs *FileSource) Err() error {
	return fs.err
}

// Name returns the source name
func (fs *FileSource) Name() string {
	return "FilePriceSource"
}

// CurrentPrice returns the last recorded close
func (fs *FileSource) CurrentPrice(_ context.Context, symbol string) (float64, error) {
	if fs.err != nil || len(fs.candles) == 0 || !strings.EqualFold(symbol, fs.symbol) {
		return 0, models.ErrPriceNotFound
	}
	return fs.candles[len(fs.candles)-1].Close, nil
}

// HistoricalPrices returns recorded candles within [start, end]
func (fs *FileSource) HistoricalPrices(_ context.Context, symbol string, start, end time.Time, _ string) ([]models.Candle, error) {
	if fs.err != nil || !strings.EqualFold(symbol, fs.symbol) {
		return nil, nil
	}

	var out []models.Candle
	for _, c := range fs.candles {
		if c.Timestamp.Before(start) || c.Timestamp.After(end) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// HealthCheck is true when the file loaded and holds data
func (fs *FileSource) HealthCheck(_ context.Context) bool {
	return fs.err == nil && len(fs.candles) > 0
}
