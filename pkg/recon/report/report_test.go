package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/glbonus/reconciler/pkg/recon/accum"
	"github.com/glbonus/reconciler/pkg/recon/dataset"
)

func fptr(v float64) *float64 { return &v }

func uptr(v uint32) *uint32 { return &v }

func seededStore(t *testing.T) *accum.Store {
	t.Helper()
	store := accum.New()

	put := func(key accum.Key, data any) {
		require.NoError(t, store.Put(key, data))
	}

	put(accum.Key{Country: "Sweden", Kind: dataset.KindRunInfo}, dataset.RunInfo{
		Country:       "Sweden",
		CompanyCode:   "1075",
		ExchangeRate:  11.5,
		LocalCurrency: "SEK",
		Period:        5,
		FiscalYear:    2027,
		Accounts:      []string{"21100000"},
		SalesOffices:  []string{"SE01", "SE02"},
		SalesOrgHQ:    "0001",
		SalesOrgLocal: "0075",
		Date:          "01.06.2026",
		Time:          "07:15:00",
	})

	put(accum.Key{Country: "Sweden", Kind: dataset.KindConditionRecords}, []dataset.ConditionRecord{
		{
			Client:            "100",
			Application:       "V",
			ConditionType:     "A123",
			SalesOrganization: "0075",
			SalesOffice:       "0000",
			Customer:          "0000010023",
			Agreement:         700123,
			ValidFrom:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			ValidTo:           time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
			RecordNumber:      5501,
		},
	})

	put(accum.Key{Country: "Sweden", Kind: dataset.KindAgreementMaster}, []dataset.AgreementRecord{
		{
			Client:            "100",
			Agreement:         700123,
			SalesOrganization: "0075",
			AgreementType:     "ZBO1",
			RebateRecipient:   "0000010023",
			Currency:          "SEK",
			Description:       "Annual volume bonus",
			ValidFrom:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			ValidTo:           time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		},
	})

	put(accum.Key{Country: "Sweden", Kind: dataset.KindLocalBonus}, []dataset.BonusRecord{
		{
			Agreement:       700123,
			RebateRecipient: "0000010023",
			Name:            "Nordic Retail AB",
			Country:         "SE",
			ConditionRate:   fptr(3),
			OpenAccruals:    fptr(1000),
			Currency:        "SEK",
			SalesOrg:        "0075",
		},
	})

	put(accum.Key{Country: "Sweden", Kind: dataset.KindLocalConditions}, []dataset.BonusRecord{
		{
			Agreement:       700123,
			RebateRecipient: "0000010023",
			Name:            "Nordic Retail AB",
			Country:         "SE",
			ConditionRate:   fptr(3),
			OpenAccruals:    fptr(1000),
			Currency:        "SEK",
			SalesOrg:        "0075",
		},
		{
			// Condition detail line, blank descriptive columns
			Agreement:     700123,
			ConditionRate: fptr(3),
			Currency:      "SEK",
			SalesOrg:      "0075",
		},
	})

	// The headquarters overview exists but found no rows
	put(accum.Key{Country: "Sweden", Kind: dataset.KindHQBonus}, nil)

	put(accum.Key{Country: "Sweden", Kind: dataset.KindFinalSummary}, dataset.Summary{
		Accounts: []string{"21100000"},
		Rows: []dataset.SummaryRow{
			{Label: "Local Entity Bonuses", Values: map[string]*float64{"21100000": fptr(500)}, Difference: fptr(-19.5)},
			{Label: "GL Balance", Values: map[string]*float64{"21100000": fptr(800)}},
		},
	})

	put(accum.Key{Country: "Sweden", Kind: dataset.KindLocalBonusCalc}, []dataset.BonusCalc{
		{
			RebateRecipient: "0000010023",
			Name:            "Nordic Retail AB",
			Country:         "SE",
			Agreement:       700123,
			Currency:        "SEK",
			ValidFrom:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			CorrToLC:        fptr(0),
			LCOpenAccruals:  fptr(1000),
			AccountSums:     map[string]float64{"21100000": 980.5},
			Difference:      fptr(-19.5),
		},
	})

	put(accum.Key{Country: "Sweden", Kind: dataset.KindHQComparison}, []dataset.HQComparison{
		{HQAgreement: uptr(700123), LEAgreement: uptr(700123), Overview: "Is in HQ and Local Agreements. Agreement Nr. 700123"},
	})

	put(accum.Key{Country: "Sweden", Kind: dataset.KindLocalComparison}, []dataset.LocalComparison{
		{LEAgreement: uptr(700123), LEDifference: fptr(-19.5), HQDifference: "-19.5", Overview: "HQ and Local", AmountCompared: "X"},
	})

	put(accum.Key{Country: "Sweden", Kind: dataset.KindPeriodOverview}, dataset.PeriodOverview{
		Accounts: []string{"21100000"},
		Rows: []dataset.PeriodOverviewRow{
			{FiscalYear: 2026, Period: 5, Values: map[string]float64{"21100000": 300}, Total: 300},
			{Values: map[string]float64{"21100000": 300}, Total: 300, GrandTotal: true},
		},
	})

	put(accum.Key{Country: "Sweden", Kind: dataset.KindCheckedSummaries, Account: "21100000"}, []dataset.TextSummary{
		{Agreement: uptr(700123), AmountSum: 980.5, Status: ""},
		{AmountSum: 80, Status: "x"},
	})

	return store
}

func TestWrite(t *testing.T) {
	store := seededStore(t)
	path := filepath.Join(t.TempDir(), "report.xlsx")

	require.NoError(t, NewWriter(nil).Write(path, "Sweden", store))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Contains(t, sheets, "Info")
	assert.Contains(t, sheets, "KOTE890")
	assert.Contains(t, sheets, "KONA")
	assert.Contains(t, sheets, "ZSD25 Local Entity")
	assert.Contains(t, sheets, "ZSD25 Local Entity Conditions")
	assert.Contains(t, sheets, "Summary")
	assert.Contains(t, sheets, "Local Entity Bonuses")
	assert.Contains(t, sheets, "HQ Compare")
	assert.Contains(t, sheets, "Local Compare")
	assert.Contains(t, sheets, "Period overview")
	assert.Contains(t, sheets, "21100000")
	assert.NotContains(t, sheets, "Sheet1")

	// HQ bonuses were never accumulated; the HQ overview is an empty marker
	assert.NotContains(t, sheets, "HQ Bonuses")
	assert.NotContains(t, sheets, "ZSD25 HQ")

	country, err := f.GetCellValue("Info", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Sweden", country)

	offices, err := f.GetCellValue("Info", "B8")
	require.NoError(t, err)
	assert.Equal(t, "SE01, SE02", offices)

	label, err := f.GetCellValue("Summary", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Local Entity Bonuses", label)

	diff, err := f.GetCellValue("Summary", "C2")
	require.NoError(t, err)
	assert.Equal(t, "-19.5", diff)

	// Blank difference cell on the GL Balance row
	blank, err := f.GetCellValue("Summary", "C3")
	require.NoError(t, err)
	assert.Empty(t, blank)

	agreement, err := f.GetCellValue("Local Entity Bonuses", "E2")
	require.NoError(t, err)
	assert.Equal(t, "700123", agreement)

	condAgreement, err := f.GetCellValue("KOTE890", "H2")
	require.NoError(t, err)
	assert.Equal(t, "700123", condAgreement)

	masterRecipient, err := f.GetCellValue("KONA", "O2")
	require.NoError(t, err)
	assert.Equal(t, "0000010023", masterRecipient)

	// Both condition detail rows survive, including the blank-country one
	detailCountry, err := f.GetCellValue("ZSD25 Local Entity Conditions", "E3")
	require.NoError(t, err)
	assert.Empty(t, detailCountry)

	detailAgreement, err := f.GetCellValue("ZSD25 Local Entity Conditions", "A3")
	require.NoError(t, err)
	assert.Equal(t, "700123", detailAgreement)

	status, err := f.GetCellValue("21100000", "G3")
	require.NoError(t, err)
	assert.Equal(t, "x", status)
}

func TestWrite_EmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, NewWriter(nil).Write(path, "Sweden", accum.New()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	// Nothing accumulated leaves only the default sheet
	assert.Equal(t, []string{"Sheet1"}, f.GetSheetList())
}
