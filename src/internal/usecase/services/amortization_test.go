package services_test

import (
	"strings"
	"testing"

	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/usecase/services"
	"github.com/shopspring/decimal"
)

func TestCalculateEMIPersonalLoan(t *testing.T) {
	calc, err := services.CalculateEMI(dec("500000"), dec("12.5"), 36)
	if err != nil {
		t.Fatalf("calculate emi: %v", err)
	}

	assertAmount(t, "emi", calc.EMI, "16726.81")
	if len(calc.Schedule) != 36 {
		t.Fatalf("expected 36 schedule rows, got %d", len(calc.Schedule))
	}
	assertAmount(t, "last balance", calc.Schedule[35].Balance, "0.00")
}

func TestCalculateEMIScheduleCloses(t *testing.T) {
	cases := []struct {
		principal string
		rate      string
		tenure    int
	}{
		{"500000", "12.5", 36},
		{"100000", "10", 12},
		{"2500000", "8.5", 240},
		{"12345.67", "9.99", 7},
		{"60000", "0", 6},
	}

	for _, tc := range cases {
		t.Run(tc.principal+"@"+tc.rate, func(t *testing.T) {
			calc, err := services.CalculateEMI(dec(tc.principal), dec(tc.rate), tc.tenure)
			if err != nil {
				t.Fatalf("calculate emi: %v", err)
			}

			principalSum := decimal.Zero
			emiSum := decimal.Zero
			for i, row := range calc.Schedule {
				if row.Month != i+1 {
					t.Fatalf("row %d has month %d", i, row.Month)
				}
				if !row.EMI.Equal(row.Principal.Add(row.Interest)) {
					t.Fatalf("row %d: emi %s != principal %s + interest %s", row.Month, row.EMI, row.Principal, row.Interest)
				}
				if row.Balance.Sign() < 0 {
					t.Fatalf("row %d: negative balance %s", row.Month, row.Balance)
				}
				principalSum = principalSum.Add(row.Principal)
				emiSum = emiSum.Add(row.EMI)
			}

			assertAmount(t, "principal repaid", principalSum, tc.principal)
			assertAmount(t, "last balance", calc.Schedule[len(calc.Schedule)-1].Balance, "0")
			if !emiSum.Equal(calc.TotalPayable) {
				t.Fatalf("total payable %s does not match schedule sum %s", calc.TotalPayable, emiSum)
			}
			if !calc.TotalInterest.Equal(calc.TotalPayable.Sub(dec(tc.principal))) {
				t.Fatalf("total interest %s inconsistent", calc.TotalInterest)
			}
		})
	}
}

func TestCalculateEMIZeroRate(t *testing.T) {
	calc, err := services.CalculateEMI(dec("60000"), decimal.Zero, 6)
	if err != nil {
		t.Fatalf("calculate emi: %v", err)
	}

	assertAmount(t, "emi", calc.EMI, "10000.00")
	assertAmount(t, "total interest", calc.TotalInterest, "0")
	for _, row := range calc.Schedule {
		assertAmount(t, "interest", row.Interest, "0")
	}
}

func TestCalculateEMIRejectsInvalidInput(t *testing.T) {
	cases := map[string]func() error{
		"zero principal": func() error { _, err := services.CalculateEMI(decimal.Zero, dec("10"), 12); return err },
		"negative rate":  func() error { _, err := services.CalculateEMI(dec("1000"), dec("-1"), 12); return err },
		"zero tenure":    func() error { _, err := services.CalculateEMI(dec("1000"), dec("10"), 0); return err },
	}

	for name, run := range cases {
		t.Run(name, func(t *testing.T) {
			assertKind(t, run(), domain.KindValidation)
		})
	}
}

func TestAmortizationCalculatorAppliesLoanTypeTable(t *testing.T) {
	calculator := services.NewAmortizationCalculator(domain.DefaultCatalog())

	calc, err := calculator.Calculate(domain.LoanTypeHome, dec("2500000"), nil, 240)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	assertAmount(t, "default rate", calc.AnnualRate, "8.5")
	if calc.LoanType != domain.LoanTypeHome {
		t.Fatalf("expected loan type home, got %s", calc.LoanType)
	}

	_, err = calculator.Calculate(domain.LoanTypePersonal, dec("9999999"), nil, 36)
	assertKind(t, err, domain.KindValidation)
	if !strings.Contains(err.Error(), "exceeds maximum") {
		t.Fatalf("expected exceeds maximum, got %v", err)
	}

	_, err = calculator.Calculate(domain.LoanTypeAuto, dec("100000"), nil, 6)
	assertKind(t, err, domain.KindValidation)

	_, err = calculator.Calculate(domain.LoanType("boat"), dec("100000"), nil, 12)
	assertKind(t, err, domain.KindValidation)

	_, err = calculator.Calculate(domain.LoanTypePersonal, dec("100000"), decPtr("12.345"), 12)
	assertKind(t, err, domain.KindValidation)

	_, err = calculator.Calculate(domain.LoanTypePersonal, dec("100000"), decPtr("101"), 12)
	assertKind(t, err, domain.KindValidation)
}

func TestAmortizationCalculatorRejectsZeroInstallments(t *testing.T) {
	calculator := services.NewAmortizationCalculator(domain.DefaultCatalog())

	_, err := calculator.Calculate(domain.LoanTypePersonal, dec("0.05"), nil, 6)
	assertKind(t, err, domain.KindValidation)
	if !strings.Contains(err.Error(), "too small") {
		t.Fatalf("expected too small, got %v", err)
	}

	calc, err := calculator.Calculate(domain.LoanTypePersonal, dec("0.06"), decPtr("1"), 6)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	for _, row := range calc.Schedule {
		if row.EMI.Sign() <= 0 {
			t.Fatalf("month %d has a zero installment", row.Month)
		}
	}
}

func TestAmortizationCalculatorZeroRateUsesDefault(t *testing.T) {
	calculator := services.NewAmortizationCalculator(domain.DefaultCatalog())

	calc, err := calculator.Calculate(domain.LoanTypeAuto, dec("100000"), decPtr("0"), 12)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	assertAmount(t, "rate", calc.AnnualRate, "10.5")
}
