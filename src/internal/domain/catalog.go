package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

type LoanTypeConfig struct {
	MaxAmount   decimal.Decimal
	MinTenure   int
	MaxTenure   int
	DefaultRate decimal.Decimal
}

type AccountTypeConfig struct {
	MinBalance        decimal.Decimal
	DailyLimit        decimal.Decimal
	MinInitialDeposit decimal.Decimal
}

// Catalog holds the loan and account type tables. It is built once and never mutated.
type Catalog struct {
	loanTypes    map[LoanType]LoanTypeConfig
	accountTypes map[AccountType]AccountTypeConfig
}

func NewCatalog(loanTypes map[LoanType]LoanTypeConfig, accountTypes map[AccountType]AccountTypeConfig) Catalog {
	c := Catalog{
		loanTypes:    make(map[LoanType]LoanTypeConfig, len(loanTypes)),
		accountTypes: make(map[AccountType]AccountTypeConfig, len(accountTypes)),
	}
	for k, v := range loanTypes {
		c.loanTypes[k] = v
	}
	for k, v := range accountTypes {
		c.accountTypes[k] = v
	}
	return c
}

func DefaultCatalog() Catalog {
	return NewCatalog(
		map[LoanType]LoanTypeConfig{
			LoanTypePersonal: {
				MaxAmount:   decimal.RequireFromString("500000.00"),
				MinTenure:   6,
				MaxTenure:   60,
				DefaultRate: decimal.RequireFromString("12.5"),
			},
			LoanTypeHome: {
				MaxAmount:   decimal.RequireFromString("5000000.00"),
				MinTenure:   60,
				MaxTenure:   360,
				DefaultRate: decimal.RequireFromString("8.5"),
			},
			LoanTypeAuto: {
				MaxAmount:   decimal.RequireFromString("1000000.00"),
				MinTenure:   12,
				MaxTenure:   84,
				DefaultRate: decimal.RequireFromString("10.5"),
			},
			LoanTypeEducation: {
				MaxAmount:   decimal.RequireFromString("2000000.00"),
				MinTenure:   12,
				MaxTenure:   120,
				DefaultRate: decimal.RequireFromString("9.5"),
			},
		},
		map[AccountType]AccountTypeConfig{
			AccountTypeSavings: {
				MinBalance:        decimal.RequireFromString("1000.00"),
				DailyLimit:        decimal.RequireFromString("100000.00"),
				MinInitialDeposit: decimal.RequireFromString("500.00"),
			},
			AccountTypeCurrent: {
				MinBalance:        decimal.RequireFromString("5000.00"),
				DailyLimit:        decimal.RequireFromString("500000.00"),
				MinInitialDeposit: decimal.RequireFromString("5000.00"),
			},
			AccountTypeFixedDeposit: {
				MinBalance:        decimal.Zero,
				DailyLimit:        decimal.Zero,
				MinInitialDeposit: decimal.RequireFromString("10000.00"),
			},
		},
	)
}

func (c Catalog) LoanType(t LoanType) (LoanTypeConfig, bool) {
	cfg, ok := c.loanTypes[t]
	return cfg, ok
}

func (c Catalog) AccountType(t AccountType) (AccountTypeConfig, bool) {
	cfg, ok := c.accountTypes[t]
	return cfg, ok
}

func (c Catalog) LoanTypes() []LoanType {
	out := make([]LoanType, 0, len(c.loanTypes))
	for k := range c.loanTypes {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (c Catalog) AccountTypes() []AccountType {
	out := make([]AccountType, 0, len(c.accountTypes))
	for k := range c.accountTypes {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
