package origin

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// FitMethod selects the iteration algorithm of a non-linear fit.
type FitMethod string

const (
	// MethodAuto uses ODR for implicit functions and Levenberg-Marquardt
	// otherwise.
	MethodAuto FitMethod = "auto"
	MethodODR  FitMethod = "odr"
	MethodLM   FitMethod = "lm"
)

// NLFit is a non-linear curve fit run by Origin's fitting engine with a
// fitting function already defined in Origin.
type NLFit struct {
	*fitSession
	function  string
	implicit  bool
	odr       bool
	numDeps   int
	numIndeps int
}

// DataOptions names the optional columns of NLFit.SetData.
type DataOptions struct {
	YErr string
	XErr string
	// Z makes the data XYZ; it takes the place of YErr.
	Z string
}

// NewNLFit opens a fit session for a fitting function such as "Gauss".
func NewNLFit(ctx context.Context, conn *Connection, function string, method FitMethod) (*NLFit, error) {
	sess, err := newFitSession(ctx, conn, "_GO_NLFIT_TREE_")
	if err != nil {
		return nil, err
	}
	f := &NLFit{fitSession: sess, function: function}
	if err := f.loadFunction(method); err != nil {
		conn.Release()
		return nil, err
	}
	return f, nil
}

func (f *NLFit) loadFunction(method FitMethod) error {
	s, err := f.host.GetStr(fmt.Sprintf("GetFDFAsXML(%q)$", f.function))
	if err != nil {
		return err
	}
	doc := etree.NewDocument()
	if strings.TrimSpace(s) == "" || doc.ReadFromString(s) != nil || doc.Root() == nil {
		return fmt.Errorf("%w: %s", ErrInvalidFunction, f.function)
	}
	info := section(doc.Root(), "GeneralInformation")
	if info == nil {
		return fmt.Errorf("%w: %s has no general information", ErrInvalidFunction, f.function)
	}
	if model := info.SelectElement("FunctionModel"); model != nil {
		f.implicit = strings.TrimSpace(model.Text()) == "Implicit"
	}
	if f.numDeps, err = intElement(info, "NumberOfDependentVariables"); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidFunction, f.function, err)
	}
	if f.numIndeps, err = intElement(info, "NumberOfIndependentVariables"); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidFunction, f.function, err)
	}

	switch method {
	case MethodAuto, "":
		f.odr = f.implicit
	case MethodODR:
		f.odr = true
	case MethodLM:
		if f.implicit {
			return fmt.Errorf("%w: implicit function %s supports odr fitting method only", ErrInvalidMethod, f.function)
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidMethod, method)
	}
	return nil
}

func section(root *etree.Element, name string) *etree.Element {
	if el := root.SelectElement(name); el != nil {
		return el
	}
	return root.SelectElement(strings.ToUpper(name))
}

func intElement(parent *etree.Element, name string) (int, error) {
	el := parent.SelectElement(name)
	if el == nil {
		return 0, fmt.Errorf("missing %s", name)
	}
	return strconv.Atoi(strings.TrimSpace(el.Text()))
}

// Function is the fitting function name.
func (f *NLFit) Function() string { return f.function }

// Implicit reports whether the fitting function is implicit.
func (f *NLFit) Implicit() bool { return f.implicit }

// ODR reports whether orthogonal distance regression is used.
func (f *NLFit) ODR() bool { return f.odr }

func (f *NLFit) set(prop, value string) error {
	return f.exec(fmt.Sprintf("%s.%s=%s", f.treeName, prop, value))
}

func (f *NLFit) begin(cmd, rng string) (bool, error) {
	ok, err := f.host.Execute(fmt.Sprintf("%s %s %s %s", cmd, rng, f.function, f.treeName))
	if err != nil {
		return false, err
	}
	f.state = fitConfigured
	return ok, nil
}

// SetData sets XY data with optional error columns, or XYZ data. Columns
// are short names or ColIndex values.
func (f *NLFit) SetData(wks *Worksheet, x, y string, opt DataOptions) (bool, error) {
	third := opt.YErr
	if opt.Z != "" {
		third = opt.Z
	}
	cmd := "nlbegin"
	switch {
	case opt.Z != "":
		cmd += "z"
	case f.odr:
		cmd += "o"
	}
	return f.begin(cmd, wks.XYRange(x, y, third, opt.XErr))
}

// SetMatrixData fits a matrix object, given by 1-based index or long name.
func (f *NLFit) SetMatrixData(ms *Sheet, z string) (bool, error) {
	if !ms.IsMatrix() {
		return false, fmt.Errorf("%w: %s is not a matrix sheet", ErrInvalidArgument, ms)
	}
	return f.begin("nlbeginm", ms.LTRange(false)+"!"+z)
}

// SetRange sets the data as a range string, e.g. a data plot's range.
func (f *NLFit) SetRange(rng string) (bool, error) {
	cmd := "nlbegin"
	if f.odr {
		cmd += "o"
	}
	simple := (f.implicit && f.numIndeps == 2) || (!f.implicit && f.numDeps == 1 && f.numIndeps == 1)
	if !simple {
		cmd += "r"
	}
	return f.begin(cmd, rng)
}

// SetParam sets the initial value of a parameter.
func (f *NLFit) SetParam(name string, value float64) error {
	return f.set(name, formatNum(value))
}

// FixParamAt fixes a parameter to a value.
func (f *NLFit) FixParamAt(name string, value float64) error {
	if err := f.set(name, formatNum(value)); err != nil {
		return err
	}
	return f.set("f_"+name, "1")
}

// FixParam turns fixing of a parameter on or off at its current value.
func (f *NLFit) FixParam(name string, fixed bool) error {
	return f.set("f_"+name, strconv.Itoa(boolInt(fixed)))
}

// SetLowerBound sets a lower bound; ctrl is ">" or ">=", anything else
// turns the bound off. The value is optional.
func (f *NLFit) SetLowerBound(name, ctrl string, value ...float64) error {
	return f.setBound("l", name, ctrl, ">", ">=", value)
}

// SetUpperBound sets an upper bound; ctrl is "<" or "<=", anything else
// turns the bound off. The value is optional.
func (f *NLFit) SetUpperBound(name, ctrl string, value ...float64) error {
	return f.setBound("u", name, ctrl, "<", "<=", value)
}

func (f *NLFit) setBound(lu, name, ctrl, exclusive, inclusive string, value []float64) error {
	on := 0
	switch ctrl {
	case exclusive:
		on = 1
	case inclusive:
		on = 2
	}
	if err := f.set(fmt.Sprintf("%sbon_%s", lu, name), strconv.Itoa(boolInt(on != 0))); err != nil {
		return err
	}
	if on != 0 {
		if err := f.set(fmt.Sprintf("%sbx_%s", lu, name), strconv.Itoa(boolInt(on == 1))); err != nil {
			return err
		}
	}
	if len(value) > 0 {
		return f.set(fmt.Sprintf("%sb_%s", lu, name), formatNum(value[0]))
	}
	return nil
}

// ParamBox opens Origin's modal parameter dialog. Fit must still be called
// afterwards.
func (f *NLFit) ParamBox() (bool, error) {
	return f.host.Execute("nlpara 1")
}

// Fit iterates the fitting engine, until convergence when iterations <= 0.
// The host's success flag is returned as-is.
func (f *NLFit) Fit(iterations int) (bool, error) {
	cmd := "nlfit"
	if iterations > 0 {
		cmd += " " + strconv.Itoa(iterations)
	}
	ok, err := f.host.Execute(cmd)
	if err != nil {
		return false, err
	}
	f.state = fitFitting
	return ok, nil
}

// Result ends the fit and returns its parameters and statistics. A session
// ends once: use either Result or Report, then Values to read the results
// again.
func (f *NLFit) Result() (map[string]any, error) {
	if err := f.beginEnd(); err != nil {
		return nil, err
	}
	if err := f.exec("nlend"); err != nil {
		return nil, err
	}
	f.state = fitEnded
	return f.Values()
}

// Report ends the fit with a report sheet and returns the range strings of
// the report and of the fitted curves.
func (f *NLFit) Report(autoUpdate bool) (report, curves string, err error) {
	if err := f.beginEnd(); err != nil {
		return "", "", err
	}
	cmd := "nlend 1"
	if autoUpdate {
		cmd += " 1"
	}
	err = f.withReportSwitchOff(func() error {
		if err := f.exec(cmd); err != nil {
			return err
		}
		f.state = fitEnded
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return f.reportRanges()
}

// Values reads the session tree without ending the fit.
func (f *NLFit) Values() (map[string]any, error) {
	return readTree(f.host, f.treeName)
}
