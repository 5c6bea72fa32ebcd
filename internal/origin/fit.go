package origin

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/originlab/originpro/internal/tree"
)

// fitState tracks a fit session: configured -> fitting -> ended.
type fitState int

const (
	fitCreated fitState = iota
	fitConfigured
	fitFitting
	fitEnded
)

func (s fitState) String() string {
	switch s {
	case fitCreated:
		return "created"
	case fitConfigured:
		return "configured"
	case fitFitting:
		return "fitting"
	case fitEnded:
		return "ended"
	}
	return "unknown"
}

var fitSeq atomic.Int64

// fitSession holds what NLFit and LinearFit share: a LabTalk tree owned by
// the session, a connection reference, and the end-of-fit guard.
type fitSession struct {
	conn     *Connection
	host     Host
	treeName string
	state    fitState
	closed   bool
}

func newFitSession(ctx context.Context, conn *Connection, prefix string) (*fitSession, error) {
	if conn == nil {
		return nil, ErrInvalidHandle
	}
	host, err := conn.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &fitSession{
		conn:     conn,
		host:     host,
		treeName: fmt.Sprintf("%s%d", prefix, fitSeq.Add(1)),
	}, nil
}

// TreeName is the LabTalk tree holding the session's settings and results.
func (f *fitSession) TreeName() string {
	return f.treeName
}

// Ended reports whether the result has been finalized.
func (f *fitSession) Ended() bool {
	return f.state == fitEnded
}

func (f *fitSession) exec(labtalk string) error {
	_, err := f.host.Execute(labtalk)
	return err
}

// beginEnd guards the finalize operations: a session is finalized at most
// once.
func (f *fitSession) beginEnd() error {
	if f.closed {
		return fmt.Errorf("%w: session is closed", ErrAlreadyEnded)
	}
	if f.state == fitEnded {
		return ErrAlreadyEnded
	}
	return nil
}

// withReportSwitchOff runs fn with @NLFS set to 0 so Origin neither asks
// about nor switches to the report sheet, then restores it.
func (f *fitSession) withReportSwitchOff(fn func() error) error {
	old, err := f.host.Evaluate("@NLFS")
	if err != nil {
		return err
	}
	if err := f.host.SetVar("@NLFS", 0); err != nil {
		return err
	}
	ferr := fn()
	if err := f.host.SetVar("@NLFS", old); err != nil && ferr == nil {
		ferr = err
	}
	return ferr
}

func (f *fitSession) reportRanges() (report, curves string, err error) {
	if report, err = f.host.GetStr("__REPORT"); err != nil {
		return "", "", err
	}
	if curves, err = f.host.GetStr("__FITCURVE"); err != nil {
		return "", "", err
	}
	return report, curves, nil
}

// readTree returns a LabTalk tree as a nested map.
func readTree(host Host, name string) (map[string]any, error) {
	s, err := host.GetStr(name + ".xml$")
	if err != nil {
		return nil, err
	}
	root, err := tree.Parse(s)
	if err != nil {
		return nil, err
	}
	return tree.ToMap(root), nil
}

// Close deletes the session tree and releases the connection reference.
func (f *fitSession) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	defer f.conn.Release()
	return f.exec("del -vt " + f.treeName)
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
