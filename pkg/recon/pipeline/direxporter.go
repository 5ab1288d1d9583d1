package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glbonus/reconciler/pkg/recon/config"
	"github.com/glbonus/reconciler/pkg/recon/dataset"
	reconerr "github.com/glbonus/reconciler/pkg/recon/errors"
)

// DirExporter serves raw dumps from a directory of pre-exported files named
// "<country>_<kind>[_<account>].txt". The operator runs the export
// transactions with the parameters the pipeline logs and parks the dumps
// there; the export window and validity arguments are informational.
//
// A missing file counts as an empty search, not a failure. The directory
// must not be the pipeline's data directory, which is cleaned up after a
// completed run.
type DirExporter struct {
	Dir string
}

func (e *DirExporter) GLItems(_ context.Context, rule config.Rule, _, _ time.Time) (string, error) {
	return e.read(rule.Country, dataset.KindGLItems, "")
}

func (e *DirExporter) ConditionRecords(_ context.Context, rule config.Rule) (string, error) {
	return e.read(rule.Country, dataset.KindConditionRecords, "")
}

func (e *DirExporter) AgreementMaster(_ context.Context, rule config.Rule, _ []uint32) (string, error) {
	return e.read(rule.Country, dataset.KindAgreementMaster, "")
}

func (e *DirExporter) LocalBonus(_ context.Context, rule config.Rule, _ time.Time) (string, error) {
	return e.read(rule.Country, dataset.KindLocalBonus, "")
}

func (e *DirExporter) HQBonus(_ context.Context, rule config.Rule, _ time.Time) (string, error) {
	return e.read(rule.Country, dataset.KindHQBonus, "")
}

func (e *DirExporter) AccountBalance(_ context.Context, rule config.Rule, account string, _ uint16) (string, error) {
	return e.read(rule.Country, dataset.KindAccountBalance, account)
}

func (e *DirExporter) read(country string, kind dataset.Kind, account string) (string, error) {
	name := country + "_" + string(kind)
	if account != "" {
		name += "_" + account
	}
	data, err := os.ReadFile(filepath.Join(e.Dir, name+".txt"))
	if errors.Is(err, os.ErrNotExist) {
		return "", &reconerr.NoDataError{Source: string(kind), Country: country}
	}
	if err != nil {
		return "", fmt.Errorf("reading export %s: %w", name, err)
	}
	return string(data), nil
}
