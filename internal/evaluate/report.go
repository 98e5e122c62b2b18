package evaluate

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Artifact filenames are a compatibility surface for downstream
// consumers; do not rename.
const (
	ConfusionMatrixFile = "confusion_matrix.csv"
	MetricsFile         = "metrics.json"
	ROCPlotFile         = "roc.png"
	PRPlotFile          = "pr_curve.png"
)

// DefaultExportDir is where report artifacts land unless configured.
const DefaultExportDir = "analytics/exports"

// metricsRecord is the persisted shape of metrics.json.
type metricsRecord struct {
	TN             int     `json:"tn"`
	FP             int     `json:"fp"`
	FN             int     `json:"fn"`
	TP             int     `json:"tp"`
	Accuracy       float64 `json:"accuracy"`
	PrecisionFraud float64 `json:"precision_fraud"`
	RecallFraud    float64 `json:"recall_fraud"`
	F1Fraud        float64 `json:"f1_fraud"`
	PrecisionLegit float64 `json:"precision_legit"`
	RecallLegit    float64 `json:"recall_legit"`
	F1Legit        float64 `json:"f1_legit"`
	ROCAUC         float64 `json:"roc_auc"`
}

// WriteArtifacts writes the report bundle into dir, overwriting any
// previous run's artifacts.
func WriteArtifacts(report *Report, dir string) error {
	if dir == "" {
		dir = DefaultExportDir
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	if err := writeConfusionCSV(report.Confusion, filepath.Join(dir, ConfusionMatrixFile)); err != nil {
		return err
	}
	if err := writeMetricsJSON(report, filepath.Join(dir, MetricsFile)); err != nil {
		return err
	}
	if err := writeROCPlot(report, filepath.Join(dir, ROCPlotFile)); err != nil {
		return err
	}
	if err := writePRPlot(report, filepath.Join(dir, PRPlotFile)); err != nil {
		return err
	}
	return nil
}

func writeConfusionCSV(cm ConfusionMatrix, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	records := [][]string{
		{"", "Pred 0", "Pred 1"},
		{"Actual 0", strconv.Itoa(cm.TN), strconv.Itoa(cm.FP)},
		{"Actual 1", strconv.Itoa(cm.FN), strconv.Itoa(cm.TP)},
	}
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write confusion matrix: %w", err)
	}
	return nil
}

func writeMetricsJSON(report *Report, path string) error {
	record := metricsRecord{
		TN:             report.Confusion.TN,
		FP:             report.Confusion.FP,
		FN:             report.Confusion.FN,
		TP:             report.Confusion.TP,
		Accuracy:       report.Accuracy,
		PrecisionFraud: report.Fraud.Precision,
		RecallFraud:    report.Fraud.Recall,
		F1Fraud:        report.Fraud.F1,
		PrecisionLegit: report.Legit.Precision,
		RecallLegit:    report.Legit.Recall,
		F1Legit:        report.Legit.F1,
		ROCAUC:         report.AUC,
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func curveXYs(c Curve) plotter.XYs {
	pts := make(plotter.XYs, len(c.X))
	for i := range c.X {
		pts[i].X = c.X[i]
		pts[i].Y = c.Y[i]
	}
	return pts
}

func writeROCPlot(report *Report, path string) error {
	p := plot.New()
	p.Title.Text = "ROC Curve - Fraud Detection"
	p.X.Label.Text = "False Positive Rate"
	p.Y.Label.Text = "True Positive Rate (Recall)"

	line, err := plotter.NewLine(curveXYs(report.ROC))
	if err != nil {
		return fmt.Errorf("failed to build ROC line: %w", err)
	}

	diag, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return fmt.Errorf("failed to build chance line: %w", err)
	}
	diag.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}

	p.Add(plotter.NewGrid(), line, diag)
	p.Legend.Add(fmt.Sprintf("AUC = %.3f", report.AUC), line)

	if err := p.Save(6*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save ROC plot: %w", err)
	}
	return nil
}

func writePRPlot(report *Report, path string) error {
	p := plot.New()
	p.Title.Text = "Precision-Recall Curve - Fraud Detection"
	p.X.Label.Text = "Recall"
	p.Y.Label.Text = "Precision"

	line, err := plotter.NewLine(curveXYs(report.PR))
	if err != nil {
		return fmt.Errorf("failed to build PR line: %w", err)
	}

	p.Add(plotter.NewGrid(), line)

	if err := p.Save(6*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save PR plot: %w", err)
	}
	return nil
}
