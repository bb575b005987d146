package services

import (
	"fmt"
	"strings"

	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

// ratePrecision is the scale kept for the monthly rate and the compound factor.
const ratePrecision = 20

var maxAnnualRate = decimal.NewFromInt(100)

type EMICalculation struct {
	LoanType      domain.LoanType
	Principal     decimal.Decimal
	AnnualRate    decimal.Decimal
	TenureMonths  int
	EMI           decimal.Decimal
	TotalInterest decimal.Decimal
	TotalPayable  decimal.Decimal
	Schedule      []domain.ScheduleEntry
}

// CalculateEMI computes the equated monthly installment and the full amortization
// schedule. The last row absorbs rounding drift so the schedule closes at exactly zero.
func CalculateEMI(principal, annualRate decimal.Decimal, tenureMonths int) (EMICalculation, error) {
	if principal.Sign() <= 0 {
		return EMICalculation{}, domain.NewValidationError("principal", "must be greater than zero")
	}
	if annualRate.Sign() < 0 {
		return EMICalculation{}, domain.NewValidationError("interestRate", "cannot be negative")
	}
	if tenureMonths <= 0 {
		return EMICalculation{}, domain.NewValidationError("tenureMonths", "must be greater than zero")
	}

	monthlyRate := annualRate.DivRound(decimal.NewFromInt(1200), ratePrecision)
	months := decimal.NewFromInt(int64(tenureMonths))

	var emi decimal.Decimal
	if monthlyRate.IsZero() {
		emi = principal.DivRound(months, ratePrecision)
	} else {
		growth := compound(decimal.NewFromInt(1).Add(monthlyRate), tenureMonths)
		emi = principal.Mul(monthlyRate).Mul(growth).DivRound(growth.Sub(decimal.NewFromInt(1)), ratePrecision)
	}
	emi = domain.RoundMoney(emi)

	schedule := buildSchedule(principal, monthlyRate, emi, tenureMonths)

	totalPayable := decimal.Zero
	for _, row := range schedule {
		totalPayable = totalPayable.Add(row.EMI)
	}

	return EMICalculation{
		Principal:     principal,
		AnnualRate:    annualRate,
		TenureMonths:  tenureMonths,
		EMI:           emi,
		TotalInterest: totalPayable.Sub(principal),
		TotalPayable:  totalPayable,
		Schedule:      schedule,
	}, nil
}

func compound(base decimal.Decimal, n int) decimal.Decimal {
	acc := decimal.NewFromInt(1)
	for i := 0; i < n; i++ {
		acc = acc.Mul(base).Round(ratePrecision)
	}
	return acc
}

func buildSchedule(principal, monthlyRate, emi decimal.Decimal, tenureMonths int) []domain.ScheduleEntry {
	schedule := make([]domain.ScheduleEntry, 0, tenureMonths)
	balance := principal

	for month := 1; month <= tenureMonths; month++ {
		interest := domain.RoundMoney(balance.Mul(monthlyRate))
		principalPart := domain.RoundMoney(emi.Sub(interest))
		rowEMI := emi

		// the principal part never takes the balance below zero, and the final month closes it
		if month == tenureMonths || principalPart.GreaterThan(balance) {
			principalPart = balance
			rowEMI = principalPart.Add(interest)
		}
		if principalPart.Sign() < 0 {
			principalPart = decimal.Zero
			rowEMI = interest
		}

		balance = balance.Sub(principalPart)
		schedule = append(schedule, domain.ScheduleEntry{
			Month:     month,
			EMI:       rowEMI,
			Principal: principalPart,
			Interest:  interest,
			Balance:   balance,
		})
	}

	return schedule
}

// AmortizationCalculator applies the loan type table before calculating.
type AmortizationCalculator struct {
	catalog domain.Catalog
}

func NewAmortizationCalculator(catalog domain.Catalog) *AmortizationCalculator {
	return &AmortizationCalculator{catalog: catalog}
}

// Calculate validates the loan parameters against the loan type and calculates the EMI.
// A nil or zero rate means the loan type's default rate. A quote whose schedule would
// carry a zero installment is rejected, since such a loan could never close.
func (c *AmortizationCalculator) Calculate(loanType domain.LoanType, principal decimal.Decimal, rate *decimal.Decimal, tenureMonths int) (EMICalculation, error) {
	cfg, ok := c.catalog.LoanType(loanType)
	if !ok {
		names := make([]string, 0)
		for _, t := range c.catalog.LoanTypes() {
			names = append(names, string(t))
		}
		return EMICalculation{}, domain.NewValidationError("loanType", "must be one of "+strings.Join(names, ", "))
	}

	if err := domain.ValidateAmount("principal", principal); err != nil {
		return EMICalculation{}, err
	}
	if principal.GreaterThan(cfg.MaxAmount) {
		return EMICalculation{}, domain.NewValidationError("principal",
			fmt.Sprintf("exceeds maximum of %s for %s loan", cfg.MaxAmount.StringFixed(2), loanType))
	}
	if tenureMonths < cfg.MinTenure || tenureMonths > cfg.MaxTenure {
		return EMICalculation{}, domain.NewValidationError("tenureMonths",
			fmt.Sprintf("must be between %d and %d months", cfg.MinTenure, cfg.MaxTenure))
	}

	annualRate := cfg.DefaultRate
	if rate != nil && !rate.IsZero() {
		annualRate = *rate
		if annualRate.Sign() < 0 || annualRate.GreaterThan(maxAnnualRate) {
			return EMICalculation{}, domain.NewValidationError("interestRate", "must be between 0 and 100")
		}
		if !domain.HasCurrencyScale(annualRate) {
			return EMICalculation{}, domain.NewValidationError("interestRate", "must have at most 2 fractional digits")
		}
	}

	result, err := CalculateEMI(principal, annualRate, tenureMonths)
	if err != nil {
		return EMICalculation{}, err
	}
	for _, row := range result.Schedule {
		if row.EMI.Sign() <= 0 {
			return EMICalculation{}, domain.NewValidationError("principal",
				fmt.Sprintf("is too small to spread over %d monthly installments", tenureMonths))
		}
	}
	result.LoanType = loanType
	return result, nil
}
