// Package seed generates synthetic banking data so the scoring
// pipeline has something to chew on in local setups. The generator is
// deterministic for a given seed; realism is not a goal.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/hollisreid/fraudwatch/internal/model"
	"github.com/hollisreid/fraudwatch/internal/service"
)

// Config holds generator knobs.
type Config struct {
	Transactions int
	DaysBack     int
	FraudRate    float64
	Loans        int
	Customers    int
	Seed         int64
}

// DefaultConfig returns the default generator knobs.
func DefaultConfig() Config {
	return Config{
		Transactions: 1500,
		DaysBack:     60,
		FraudRate:    0.20,
		Loans:        180,
		Customers:    25,
		Seed:         42,
	}
}

var regions = []string{"North", "West", "South", "East"}

var citiesByRegion = map[string][]string{
	"North": {"Delhi", "Jaipur", "Chandigarh", "Lucknow"},
	"West":  {"Mumbai", "Pune", "Ahmedabad", "Surat"},
	"South": {"Chennai", "Bengaluru", "Hyderabad", "Kochi"},
	"East":  {"Kolkata", "Patna", "Bhubaneswar", "Guwahati"},
}

var channels = []model.Channel{
	model.ChannelBranch,
	model.ChannelATM,
	model.ChannelOnline,
	model.ChannelMobile,
}

// insertChunkSize bounds a single transaction batch insert.
const insertChunkSize = 200

// Generator writes synthetic customers, accounts, transactions and
// loans into storage.
type Generator struct {
	storage service.Storage
	rng     *rand.Rand
	cfg     Config
}

// New creates a generator.
func New(storage service.Storage, cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.Transactions <= 0 {
		cfg.Transactions = def.Transactions
	}
	if cfg.DaysBack <= 0 {
		cfg.DaysBack = def.DaysBack
	}
	if cfg.FraudRate < 0 || cfg.FraudRate > 1 {
		cfg.FraudRate = def.FraudRate
	}
	if cfg.Customers <= 0 {
		cfg.Customers = def.Customers
	}
	return &Generator{
		storage: storage,
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Run generates and persists the synthetic data set.
func (g *Generator) Run(ctx context.Context) error {
	accounts, err := g.storage.ActiveAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}
	if len(accounts) < 2 {
		accounts, err = g.bootstrap(ctx)
		if err != nil {
			return err
		}
	}

	txns, deltas := g.transactions(accounts)

	bar := progressbar.NewOptions(len(txns),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Inserting transactions..."),
	)
	for start := 0; start < len(txns); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(txns) {
			end = len(txns)
		}
		if err := g.storage.SaveTransactions(ctx, txns[start:end]); err != nil {
			return fmt.Errorf("failed to insert transactions: %w", err)
		}
		if err := bar.Add(end - start); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}

	if err := g.storage.AdjustBalances(ctx, deltas); err != nil {
		return fmt.Errorf("failed to adjust balances: %w", err)
	}

	if g.cfg.Loans > 0 {
		if err := g.loans(ctx, accounts); err != nil {
			return err
		}
	}

	slog.Info("Synthetic data generated",
		"transactions", len(txns),
		"accounts_touched", len(deltas),
		"loans", g.cfg.Loans)
	return nil
}

// bootstrap creates customers and one account each when the store is
// empty.
func (g *Generator) bootstrap(ctx context.Context) ([]model.Account, error) {
	customers := make([]model.Customer, g.cfg.Customers)
	for i := range customers {
		customers[i] = model.Customer{
			Name:   fmt.Sprintf("Customer %03d", i+1),
			Region: regions[g.rng.Intn(len(regions))],
		}
	}
	if err := g.storage.SaveCustomers(ctx, customers); err != nil {
		return nil, fmt.Errorf("failed to insert customers: %w", err)
	}

	accounts := make([]model.Account, len(customers))
	for i := range accounts {
		accounts[i] = model.Account{
			CustomerID: customers[i].ID,
			Balance:    10000 + g.rng.Float64()*90000,
			Status:     model.AccountActive,
			Region:     customers[i].Region,
		}
	}
	if err := g.storage.SaveAccounts(ctx, accounts); err != nil {
		return nil, fmt.Errorf("failed to insert accounts: %w", err)
	}

	slog.Info("Bootstrapped customers and accounts", "count", len(accounts))
	return accounts, nil
}

// transactions generates the synthetic transaction rows and the net
// balance delta per account. Transfers produce two rows.
func (g *Generator) transactions(accounts []model.Account) ([]model.Transaction, map[int64]float64) {
	weights := make([]float64, len(accounts))
	var sum float64
	for i, acc := range accounts {
		weights[i] = math.Max(1, math.Log1p(math.Max(0, acc.Balance)))
		sum += weights[i]
	}

	balances := make(map[int64]float64, len(accounts))
	deltas := make(map[int64]float64)
	for _, acc := range accounts {
		balances[acc.ID] = acc.Balance
	}

	var txns []model.Transaction
	for i := 0; i < g.cfg.Transactions; i++ {
		acc := accounts[g.weightedPick(weights, sum)]

		amount := g.lognormalAmount()
		fraudLike := g.rng.Float64() < g.cfg.FraudRate
		if fraudLike {
			if g.rng.Float64() < 0.7 {
				amount *= 8 + g.rng.Float64()*12 // very large spike
			} else {
				odd := []float64{199, 299, 499, 999}
				amount = odd[g.rng.Intn(len(odd))]
			}
		}

		when := g.timeWithin(g.cfg.DaysBack)
		channel := channels[g.rng.Intn(len(channels))]
		label := fraudLike

		switch g.pickType() {
		case model.TypeDeposit:
			txns = append(txns, model.Transaction{
				AccountID: acc.ID,
				Time:      when,
				Type:      model.TypeDeposit,
				Amount:    round2(amount),
				Channel:   channel,
				Location:  g.location(acc.Region),
				IsFraud:   &label,
			})
			deltas[acc.ID] += amount

		case model.TypeWithdraw:
			amount = capToBalance(amount, balances[acc.ID]+deltas[acc.ID])
			txns = append(txns, model.Transaction{
				AccountID: acc.ID,
				Time:      when,
				Type:      model.TypeWithdraw,
				Amount:    round2(amount),
				Channel:   channel,
				Location:  g.location(acc.Region),
				IsFraud:   &label,
			})
			deltas[acc.ID] -= amount

		default: // transfer: paired rows
			dst := acc
			for dst.ID == acc.ID && len(accounts) > 1 {
				dst = accounts[g.rng.Intn(len(accounts))]
			}
			amount = capToBalance(amount, balances[acc.ID]+deltas[acc.ID])
			txns = append(txns,
				model.Transaction{
					AccountID:           acc.ID,
					Time:                when,
					Type:                model.TypeTransferOut,
					Amount:              round2(amount),
					CounterpartyAccount: dst.ID,
					Channel:             channel,
					Location:            g.location(acc.Region),
					IsFraud:             &label,
				},
				model.Transaction{
					AccountID:           dst.ID,
					Time:                when,
					Type:                model.TypeTransferIn,
					Amount:              round2(amount),
					CounterpartyAccount: acc.ID,
					Channel:             channel,
					Location:            g.location(dst.Region),
					IsFraud:             &label,
				},
			)
			deltas[acc.ID] -= amount
			deltas[dst.ID] += amount
		}
	}
	return txns, deltas
}

// loans inserts synthetic loan applications across all customers.
func (g *Generator) loans(ctx context.Context, accounts []model.Account) error {
	statuses := []model.LoanStatus{
		model.LoanApplied, model.LoanApproved, model.LoanRejected,
		model.LoanDisbursed, model.LoanClosed,
	}
	statusWeights := []float64{0.2, 0.3, 0.2, 0.2, 0.1}
	tenures := []int{12, 24, 36, 48, 60}

	loans := make([]model.Loan, g.cfg.Loans)
	for i := range loans {
		acc := accounts[g.rng.Intn(len(accounts))]
		loans[i] = model.Loan{
			CustomerID:   acc.CustomerID,
			Amount:       round2(50000 + g.rng.Float64()*750000),
			InterestRate: round2(7.5 + g.rng.Float64()*7),
			TenureMonths: tenures[g.rng.Intn(len(tenures))],
			Status:       statuses[g.weightedPick(statusWeights, 1)],
		}
	}
	if err := g.storage.SaveLoans(ctx, loans); err != nil {
		return fmt.Errorf("failed to insert loans: %w", err)
	}
	return nil
}

// lognormalAmount skews around a few thousand to tens of thousands.
func (g *Generator) lognormalAmount() float64 {
	amount := math.Exp(8.5 + 0.7*g.rng.NormFloat64())
	return math.Max(100, amount)
}

// timeWithin biases toward recent days.
func (g *Generator) timeWithin(daysBack int) time.Time {
	frac := g.rng.Float64() * g.rng.Float64() // rough beta-ish, recent-heavy
	days := int(frac * float64(daysBack))
	return time.Now().
		AddDate(0, 0, -days).
		Add(-time.Duration(g.rng.Intn(24)) * time.Hour).
		Add(-time.Duration(g.rng.Intn(60)) * time.Minute).
		Truncate(time.Second)
}

func (g *Generator) pickType() model.TransactionType {
	r := g.rng.Float64()
	switch {
	case r < 0.40:
		return model.TypeDeposit
	case r < 0.75:
		return model.TypeWithdraw
	default:
		return model.TypeTransferOut
	}
}

func (g *Generator) location(region string) string {
	cities, ok := citiesByRegion[region]
	if !ok || len(cities) == 0 {
		return "Metro"
	}
	return cities[g.rng.Intn(len(cities))]
}

func (g *Generator) weightedPick(weights []float64, sum float64) int {
	r := g.rng.Float64() * sum
	for i, w := range weights {
		r -= w
		if r < 0 {
			return i
		}
	}
	return len(weights) - 1
}

func capToBalance(amount, available float64) float64 {
	return math.Min(amount, math.Max(100, available))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
