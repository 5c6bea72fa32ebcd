package origin

import (
	"context"
	"fmt"
)

// Confidence and prediction bands drawn by LinearFit.Report.
const (
	BandConfidence = 1 << iota
	BandPrediction
)

// LinearFit is a linear regression run by Origin's FitLinear operation.
type LinearFit struct {
	*fitSession
	outputTree string
}

// NewLinearFit creates the operation tree and initializes it.
func NewLinearFit(ctx context.Context, conn *Connection) (*LinearFit, error) {
	sess, err := newFitSession(ctx, conn, "_GO_LR_TREE_")
	if err != nil {
		return nil, err
	}
	lr := &LinearFit{
		fitSession: sess,
		outputTree: fmt.Sprintf("_GO_LR_OUTPUT_%d", fitSeq.Add(1)),
	}
	if err := lr.exec("Tree " + lr.treeName); err != nil {
		conn.Release()
		return nil, err
	}
	if err := lr.exec(fmt.Sprintf("xop execute:=init classname:=FitLinear iotrgui:=%s", lr.treeName)); err != nil {
		lr.Close()
		return nil, err
	}
	return lr, nil
}

func (lr *LinearFit) set(prop, value string) error {
	return lr.exec(fmt.Sprintf("%s.GUI.%s=%s", lr.treeName, prop, value))
}

// SetData sets the X and Y columns with an optional Y error column.
func (lr *LinearFit) SetData(wks *Worksheet, x, y, yerr string) error {
	if err := lr.set("InputData.Range1.X$", wks.ColRange(x)); err != nil {
		return err
	}
	if err := lr.set("InputData.Range1.Y$", wks.ColRange(y)); err != nil {
		return err
	}
	if yerr != "" {
		if err := lr.set("InputData.Range1.ED$", wks.ColRange(yerr)); err != nil {
			return err
		}
	}
	lr.state = fitConfigured
	return nil
}

func (lr *LinearFit) FixSlope(value float64) error {
	if err := lr.set("Fit.FixSlope", "1"); err != nil {
		return err
	}
	return lr.set("Fit.FixSlopeAt", formatNum(value))
}

func (lr *LinearFit) FixIntercept(value float64) error {
	if err := lr.set("Fit.FixIntercept", "1"); err != nil {
		return err
	}
	return lr.set("Fit.FixInterceptAt", formatNum(value))
}

// Result runs the fit and returns its parameters and statistics, e.g.
// result["Parameters"]["Slope"]["Value"]. A session ends once.
func (lr *LinearFit) Result() (map[string]any, error) {
	if err := lr.beginEnd(); err != nil {
		return nil, err
	}
	if err := lr.exec(fmt.Sprintf("xop execute:=run iotrgui:=%s otrresult:=%s", lr.treeName, lr.outputTree)); err != nil {
		return nil, err
	}
	lr.state = fitEnded
	result, err := readTree(lr.host, lr.outputTree)
	if derr := lr.exec("del -vt " + lr.outputTree); derr != nil && err == nil {
		err = derr
	}
	return result, err
}

// Report runs the fit and generates a report sheet. bands is a combination
// of BandConfidence and BandPrediction.
func (lr *LinearFit) Report(bands int) (report, curves string, err error) {
	if err := lr.beginEnd(); err != nil {
		return "", "", err
	}
	if bands&BandConfidence != 0 {
		if err := lr.set("Graph1.ConfBands", "1"); err != nil {
			return "", "", err
		}
	}
	if bands&BandPrediction != 0 {
		if err := lr.set("Graph1.PredBands", "1"); err != nil {
			return "", "", err
		}
	}
	err = lr.withReportSwitchOff(func() error {
		if err := lr.exec("xop execute:=report iotrgui:=" + lr.treeName); err != nil {
			return err
		}
		lr.state = fitEnded
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return lr.reportRanges()
}
