package forecast

import (
	"errors"
	"math"
	"testing"

	"StockForecast/internal/calculator"
	"StockForecast/internal/model"
)

var seqColumns = []string{model.ColClose, model.ColVolume}

func TestBuild_ExactLengthKeepsOrder(t *testing.T) {
	bars := barsFromCloses(wave(DefaultSequenceLength))
	fm := model.NewFeatureMatrix(bars)
	b := NewSequenceBuilder(halfRegistry(t, 2, "BBCA"))

	w, res, err := b.Build(fm, "BBCA.JK", seqColumns, DefaultSequenceLength)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.FallbackUsed {
		t.Error("unexpected fallback")
	}
	if w.Len() != DefaultSequenceLength || w.Width() != 2 {
		t.Fatalf("expected %dx2 window, got %dx%d", DefaultSequenceLength, w.Len(), w.Width())
	}
	for i, bar := range bars {
		assertRow(t, "row", w[i], []float64{bar.Close / 2, bar.Volume / 2})
	}
}

func TestBuild_TakesMostRecentRows(t *testing.T) {
	bars := barsFromCloses(wave(100))
	fm := model.NewFeatureMatrix(bars)
	b := NewSequenceBuilder(halfRegistry(t, 2, "BBCA"))

	w, _, err := b.Build(fm, "BBCA", seqColumns, 10)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for i := 0; i < 10; i++ {
		bar := bars[90+i]
		assertRow(t, "row", w[i], []float64{bar.Close / 2, bar.Volume / 2})
	}
}

func TestBuild_PadsShortHistory(t *testing.T) {
	const k = 15
	bars := barsFromCloses(wave(DefaultSequenceLength - k))
	fm := model.NewFeatureMatrix(bars)
	b := NewSequenceBuilder(halfRegistry(t, 2, "BBCA"))

	w, _, err := b.Build(fm, "BBCA", seqColumns, DefaultSequenceLength)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if w.Len() != DefaultSequenceLength {
		t.Fatalf("expected %d rows, got %d", DefaultSequenceLength, w.Len())
	}
	last := bars[len(bars)-1]
	for i := 0; i < k; i++ {
		assertRow(t, "pad", w[i], []float64{last.Close / 2, last.Volume / 2})
	}
	for i, bar := range bars {
		assertRow(t, "data", w[k+i], []float64{bar.Close / 2, bar.Volume / 2})
	}

	// padded rows must not alias each other
	w[0][0] = -1
	if w[1][0] == -1 {
		t.Error("padded rows share backing storage")
	}
}

func TestBuild_EmptyMatrix(t *testing.T) {
	b := NewSequenceBuilder(halfRegistry(t, 2, "BBCA"))
	_, _, err := b.Build(model.NewFeatureMatrix(nil), "BBCA", seqColumns, DefaultSequenceLength)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestBuild_UnknownColumn(t *testing.T) {
	fm := model.NewFeatureMatrix(barsFromCloses(wave(5)))
	b := NewSequenceBuilder(halfRegistry(t, 2, "BBCA"))
	_, _, err := b.Build(fm, "BBCA", []string{model.ColClose, "MA_200"}, 5)

	var uce *UnknownColumnError
	if !errors.As(err, &uce) || uce.Column != "MA_200" {
		t.Fatalf("expected UnknownColumnError for MA_200, got %v", err)
	}
	if !IsConfigFault(err) {
		t.Error("expected unknown column to be a config fault")
	}
}

func TestBuild_FillsUndefinedCells(t *testing.T) {
	fm := model.NewFeatureMatrix(barsFromCloses(wave(6)))
	nan := math.NaN()
	fm.Set("X", []float64{nan, nan, 3, nan, 5, nan})
	b := NewSequenceBuilder(halfRegistry(t, 1, "BBCA"))

	w, _, err := b.Build(fm, "BBCA", []string{"X"}, 6)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []float64{3, 3, 3, 3, 5, 5}
	for i, v := range want {
		if w[i][0] != v/2 {
			t.Errorf("row %d: expected %.2f, got %.2f", i, v/2, w[i][0])
		}
	}
	// the source column is untouched
	if x, _ := fm.Column("X"); !math.IsNaN(x[0]) {
		t.Error("Build modified the feature matrix")
	}
}

func TestBuild_AllUndefinedColumnBecomesZero(t *testing.T) {
	fm := model.NewFeatureMatrix(barsFromCloses(wave(3)))
	nan := math.NaN()
	fm.Set("X", []float64{nan, nan, nan})
	b := NewSequenceBuilder(halfRegistry(t, 2, "BBCA"))

	w, _, err := b.Build(fm, "BBCA", []string{model.ColClose, "X"}, 3)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for i, row := range w {
		if row[1] != 0 {
			t.Errorf("row %d: expected 0 for undefined column, got %v", i, row[1])
		}
		if math.IsNaN(row[0]) || row[0] == 0 {
			t.Errorf("row %d: expected scaled close, got %v", i, row[0])
		}
	}
}

func TestBuild_ShortHistoryIsPadded(t *testing.T) {
	bars := barsFromCloses(wave(15))
	fm := calculator.AddTechnicalIndicators(bars)
	columns := []string{model.ColClose, calculator.ColMA20, calculator.ColRSI}
	b := NewSequenceBuilder(halfRegistry(t, len(columns), "BBCA"))

	w, _, err := b.Build(fm, "BBCA.JK", columns, DefaultSequenceLength)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if w.Len() != DefaultSequenceLength || w.Width() != len(columns) {
		t.Fatalf("expected %dx%d window, got %dx%d", DefaultSequenceLength, len(columns), w.Len(), w.Width())
	}
	last := bars[len(bars)-1].Close / 2
	pad := DefaultSequenceLength - len(bars)
	for i := 0; i < pad; i++ {
		if w[i][0] != last {
			t.Errorf("pad row %d: expected repeated last close %.2f, got %.2f", i, last, w[i][0])
		}
	}
	if w[pad][0] != bars[0].Close/2 {
		t.Errorf("row %d: expected first close %.2f, got %.2f", pad, bars[0].Close/2, w[pad][0])
	}
	for i, row := range w {
		for j, v := range row {
			if math.IsNaN(v) {
				t.Fatalf("row %d col %d is NaN", i, j)
			}
		}
		if row[1] != 0 {
			t.Errorf("row %d: expected MA_20 zero-filled, got %v", i, row[1])
		}
	}
}

func TestBuild_ScalerWidthMismatch(t *testing.T) {
	fm := model.NewFeatureMatrix(barsFromCloses(wave(3)))
	b := NewSequenceBuilder(halfRegistry(t, 3, "BBCA"))
	_, _, err := b.Build(fm, "BBCA", seqColumns, 3)
	if err == nil || !IsConfigFault(err) {
		t.Errorf("expected width config fault, got %v", err)
	}
}

func TestWindowRoll(t *testing.T) {
	w := Window{{0}, {1}, {2}}
	c := w.Clone()
	c.Roll()
	if c[0][0] != 1 || c[1][0] != 2 || c[2][0] != 0 {
		t.Errorf("unexpected rolled window %v", c)
	}
	if w[0][0] != 0 {
		t.Error("Roll on clone changed the original")
	}
}
