package core_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"lotledger/internal/core"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPurchaseFigures(t *testing.T) {
	netWt, amount, totalCost := core.PurchaseFigures(d("50.000"), d("2.000"), d("100"), d("200"))

	if !netWt.Equal(d("48.000")) {
		t.Errorf("netWt = %s, want 48.000", netWt)
	}
	if !amount.Equal(d("4800")) {
		t.Errorf("amount = %s, want 4800", amount)
	}
	if !totalCost.Equal(d("5000")) {
		t.Errorf("totalCost = %s, want 5000", totalCost)
	}
}

func TestPurchaseFigures_ZeroCutting(t *testing.T) {
	netWt, amount, _ := core.PurchaseFigures(d("10"), decimal.Zero, d("55.50"), decimal.Zero)
	if !netWt.Equal(d("10")) {
		t.Errorf("netWt = %s, want 10", netWt)
	}
	if !amount.Equal(d("555")) {
		t.Errorf("amount = %s, want 555", amount)
	}
}

func TestLotNoFor(t *testing.T) {
	if got := core.LotNoFor("AG-42", 120); got != "AG-42/120" {
		t.Errorf("LotNoFor = %q, want AG-42/120", got)
	}
}

func TestNextBillNo(t *testing.T) {
	cases := []struct {
		name     string
		year     int
		existing []string
		want     string
	}{
		{"empty year starts at one", 2024, nil, "2024-1"},
		{"increments max", 2024, []string{"2024-1", "2024-2", "2024-3"}, "2024-4"},
		{"gaps do not matter", 2024, []string{"2024-1", "2024-7"}, "2024-8"},
		{"single legacy bill restarts", 2024, []string{"2024-1001"}, "2024-1"},
		{"two legacy bills continue", 2024, []string{"2024-1001", "2024-1002"}, "2024-1003"},
		{"legacy mixed with normal continues", 2024, []string{"2024-1001", "2024-1"}, "2024-1002"},
		{"unparseable suffixes ignored", 2024, []string{"2024-x", "2024-2"}, "2024-3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := core.NextBillNo(tc.year, tc.existing); got != tc.want {
				t.Errorf("NextBillNo(%d, %v) = %q, want %q", tc.year, tc.existing, got, tc.want)
			}
		})
	}
}

func TestSaleFigures(t *testing.T) {
	amount, totalExp, netResult := core.SaleFigures(
		d("20.000"), d("150"),
		d("10"), d("20"), d("30"), d("5"), d("5"), d("10"), d("20"),
	)
	if !amount.Equal(d("3000")) {
		t.Errorf("amount = %s, want 3000", amount)
	}
	if !totalExp.Equal(d("100")) {
		t.Errorf("totalExp = %s, want 100", totalExp)
	}
	if !netResult.Equal(d("2900")) {
		t.Errorf("netResult = %s, want 2900", netResult)
	}
}

func TestShortagePercent(t *testing.T) {
	cases := []struct {
		name   string
		grWt   string
		soldWt string
		want   string
	}{
		{"half sold", "100", "50", "50"},
		{"all sold", "100", "100", "0"},
		{"oversold goes negative", "100", "110", "-10"},
		{"zero gross weight", "0", "10", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := core.ShortagePercent(d(tc.grWt), d(tc.soldWt))
			if !got.Equal(d(tc.want)) {
				t.Errorf("ShortagePercent(%s, %s) = %s, want %s", tc.grWt, tc.soldWt, got, tc.want)
			}
		})
	}
}

func TestLotProcessingApply_Accumulates(t *testing.T) {
	lp := &core.LotProcessing{PurchaseID: 1}

	lp.Apply(core.ProcessingEntry{
		PurchaseID:     1,
		ProcessingDate: "2024-01-10",
		NikashiPkt:     10,
		PurchaseCost:   d("1000"),
		NikashiLabour:  d("50"),
		Rent:           d("20"),
		TayariPkt:      8,
		TayariWt:       d("4.000"),
	})
	lp.Apply(core.ProcessingEntry{
		PurchaseID:     1,
		ProcessingDate: "2024-01-15",
		NikashiPkt:     5,
		NikashiLabour:  d("25"),
		Sutli:          d("10"),
		CharriPkt:      2,
		CharriWt:       d("1.500"),
	})

	if lp.NikashiPkt != 15 {
		t.Errorf("NikashiPkt = %d, want 15", lp.NikashiPkt)
	}
	if !lp.NikashiLabour.Equal(d("75")) {
		t.Errorf("NikashiLabour = %s, want 75", lp.NikashiLabour)
	}
	// Second entry carried no purchase cost, so the first one stands.
	if !lp.PurchaseCost.Equal(d("1000")) {
		t.Errorf("PurchaseCost = %s, want 1000", lp.PurchaseCost)
	}
	if lp.TayariPkt != 8 || lp.CharriPkt != 2 {
		t.Errorf("TayariPkt/CharriPkt = %d/%d, want 8/2", lp.TayariPkt, lp.CharriPkt)
	}
	if !lp.TotalExps.Equal(d("1105")) {
		t.Errorf("TotalExps = %s, want 1105", lp.TotalExps)
	}
	if lp.ProcessingDate == nil || *lp.ProcessingDate != "2024-01-15" {
		t.Errorf("ProcessingDate = %v, want 2024-01-15", lp.ProcessingDate)
	}
}

func TestLotProcessingApply_PurchaseCostOverwrite(t *testing.T) {
	lp := &core.LotProcessing{PurchaseID: 1}
	lp.Apply(core.ProcessingEntry{PurchaseID: 1, PurchaseCost: d("1000")})
	lp.Apply(core.ProcessingEntry{PurchaseID: 1, PurchaseCost: d("1200")})

	if !lp.PurchaseCost.Equal(d("1200")) {
		t.Errorf("PurchaseCost = %s, want 1200 (overwritten, not summed)", lp.PurchaseCost)
	}
	if !lp.TotalExps.Equal(d("1200")) {
		t.Errorf("TotalExps = %s, want 1200", lp.TotalExps)
	}
}

func TestComponentTotal(t *testing.T) {
	lp := &core.LotProcessing{
		PurchaseCost:  d("100"),
		NikashiLabour: d("10"),
		TayariLabour:  d("20"),
		Rent:          d("30"),
		NewBags:       d("5"),
		Sutli:         d("5"),
		PktCollection: d("15"),
		RaffuChippi:   d("15"),
		// TayariWt and CharriWt are outputs, not costs.
		TayariWt: d("999"),
		CharriWt: d("999"),
	}
	if got := lp.ComponentTotal(); !got.Equal(d("200")) {
		t.Errorf("ComponentTotal = %s, want 200", got)
	}
}

func TestSummarizeRepayments(t *testing.T) {
	kept, payRecd, latest := core.SummarizeRepayments([]core.RepaymentInput{
		{RepaymentType: "BOTH", RepaymentDt: "2024-03-01", Amount: d("500")},
		{RepaymentType: "INTEREST", RepaymentDt: "2024-05-10", Amount: d("100")},
		{RepaymentType: "BOTH", RepaymentDt: "2024-04-01", Amount: d("0")},
		{RepaymentType: "BOTH", RepaymentDt: "2024-06-01", Amount: d("-50")},
	})

	if len(kept) != 2 {
		t.Fatalf("kept %d repayments, want 2", len(kept))
	}
	if !payRecd.Equal(d("600")) {
		t.Errorf("payRecd = %s, want 600", payRecd)
	}
	if latest == nil || *latest != "2024-05-10" {
		t.Errorf("latest = %v, want 2024-05-10", latest)
	}
}

func TestSummarizeRepayments_Empty(t *testing.T) {
	kept, payRecd, latest := core.SummarizeRepayments(nil)
	if kept != nil || !payRecd.IsZero() || latest != nil {
		t.Errorf("empty input should yield nothing, got %v %s %v", kept, payRecd, latest)
	}
}

func TestNetDues(t *testing.T) {
	if got := core.NetDues(d("10000"), d("500"), d("3000")); !got.Equal(d("7500")) {
		t.Errorf("NetDues = %s, want 7500", got)
	}
}
