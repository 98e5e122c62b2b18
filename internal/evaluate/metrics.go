package evaluate

import (
	"sort"

	"gonum.org/v1/gonum/integrate"
)

// ConfusionMatrix holds binary classification counts with fraud as the
// positive class.
type ConfusionMatrix struct {
	TN int `json:"tn"`
	FP int `json:"fp"`
	FN int `json:"fn"`
	TP int `json:"tp"`
}

// Confusion tallies the confusion matrix for binary labels.
func Confusion(yTrue, yPred []bool) ConfusionMatrix {
	var cm ConfusionMatrix
	for i := range yTrue {
		switch {
		case yTrue[i] && yPred[i]:
			cm.TP++
		case yTrue[i] && !yPred[i]:
			cm.FN++
		case !yTrue[i] && yPred[i]:
			cm.FP++
		default:
			cm.TN++
		}
	}
	return cm
}

// Accuracy is the fraction of correct predictions.
func (cm ConfusionMatrix) Accuracy() float64 {
	total := cm.TN + cm.FP + cm.FN + cm.TP
	if total == 0 {
		return 0
	}
	return float64(cm.TN+cm.TP) / float64(total)
}

// ClassMetrics holds precision, recall and F1 for one class.
// Zero denominators follow the standard classification convention of 0.
type ClassMetrics struct {
	Precision float64
	Recall    float64
	F1        float64
}

// FraudMetrics computes precision/recall/F1 for the positive class.
func (cm ConfusionMatrix) FraudMetrics() ClassMetrics {
	return classMetrics(cm.TP, cm.FP, cm.FN)
}

// LegitMetrics computes precision/recall/F1 for the negative class.
func (cm ConfusionMatrix) LegitMetrics() ClassMetrics {
	return classMetrics(cm.TN, cm.FN, cm.FP)
}

func classMetrics(tp, fp, fn int) ClassMetrics {
	var m ClassMetrics
	if tp+fp > 0 {
		m.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		m.Recall = float64(tp) / float64(tp+fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

// Curve is a sequence of plot points.
type Curve struct {
	X []float64
	Y []float64
}

// rankOrder returns the indices of scores sorted descending.
func rankOrder(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	return order
}

// ROC computes the receiver operating characteristic over continuous
// scores, with one point per distinct threshold plus the (0,0) origin.
// Tied scores move together, so a batch of identical scores yields the
// chance diagonal.
func ROC(yTrue []bool, scores []float64) Curve {
	pos, neg := 0, 0
	for _, t := range yTrue {
		if t {
			pos++
		} else {
			neg++
		}
	}

	curve := Curve{X: []float64{0}, Y: []float64{0}}
	order := rankOrder(scores)

	tp, fp := 0, 0
	for i := 0; i < len(order); {
		// consume the whole tie group before emitting a point
		j := i
		for j < len(order) && scores[order[j]] == scores[order[i]] {
			if yTrue[order[j]] {
				tp++
			} else {
				fp++
			}
			j++
		}
		i = j

		fpr, tpr := 0.0, 0.0
		if neg > 0 {
			fpr = float64(fp) / float64(neg)
		}
		if pos > 0 {
			tpr = float64(tp) / float64(pos)
		}
		curve.X = append(curve.X, fpr)
		curve.Y = append(curve.Y, tpr)
	}
	return curve
}

// AUC integrates a curve by the trapezoidal rule. The X values must be
// non-decreasing, which ROC guarantees.
func AUC(c Curve) float64 {
	if len(c.X) < 2 {
		return 0
	}
	return integrate.Trapezoidal(c.X, c.Y)
}

// PrecisionRecall computes the precision-recall curve over continuous
// scores: recall on X, precision on Y, one point per distinct
// threshold, ending at the conventional (0, 1) anchor.
func PrecisionRecall(yTrue []bool, scores []float64) Curve {
	pos := 0
	for _, t := range yTrue {
		if t {
			pos++
		}
	}

	var curve Curve
	order := rankOrder(scores)

	tp, fp := 0, 0
	for i := 0; i < len(order); {
		j := i
		for j < len(order) && scores[order[j]] == scores[order[i]] {
			if yTrue[order[j]] {
				tp++
			} else {
				fp++
			}
			j++
		}
		i = j

		precision, recall := 0.0, 0.0
		if tp+fp > 0 {
			precision = float64(tp) / float64(tp+fp)
		}
		if pos > 0 {
			recall = float64(tp) / float64(pos)
		}
		curve.X = append(curve.X, recall)
		curve.Y = append(curve.Y, precision)
	}

	curve.X = append(curve.X, 0)
	curve.Y = append(curve.Y, 1)
	return curve
}
