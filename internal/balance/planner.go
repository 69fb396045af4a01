package balance

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
)

// Strategy selects how net balances are reduced to payment transactions.
type Strategy string

const (
	// StrategyOptimized greedily matches the largest creditor against the
	// largest debtor. It keeps the transaction count low but does not
	// guarantee the provable minimum.
	StrategyOptimized Strategy = "optimized"
	// StrategyAroundMember routes every payment through one chosen member.
	StrategyAroundMember Strategy = "around_member"
	// StrategyAroundResource routes every payment through one chosen resource.
	StrategyAroundResource Strategy = "around_resource"
)

// Deadband is the magnitude below which a balance is treated as settled.
// It keeps floating residue from producing noise transactions.
var Deadband = decimal.New(1, -2)

var (
	ErrUnknownStrategy = errors.New("unknown settlement strategy")
	ErrMissingCenter   = errors.New("center entity required for this strategy")
	ErrUnknownCenter   = errors.New("center entity not present in balances")
)

// Transaction is a single planned payment from one entity to another.
type Transaction struct {
	From   EntityKey       `json:"from"`
	To     EntityKey       `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type stake struct {
	key    EntityKey
	amount decimal.Decimal // positive magnitude
}

// Plan reduces a set of net balances to payment transactions under the given
// strategy. The star strategies require a center entity of the matching kind;
// requesting one without a center, or with a center absent from the balances,
// fails fast rather than falling back to the optimized strategy.
//
// An empty result means there is nothing to settle; it is not an error.
// Planning is deterministic: the same balances yield the same transaction
// list, in the same order.
func Plan(balances map[EntityKey]decimal.Decimal, strategy Strategy, center *EntityKey) ([]Transaction, error) {
	creditors, debtors := partition(balances)

	switch strategy {
	case StrategyOptimized:
		return planOptimized(creditors, debtors), nil
	case StrategyAroundMember, StrategyAroundResource:
		if center == nil {
			return nil, ErrMissingCenter
		}
		centerBalance, ok := balances[*center]
		if !ok {
			return nil, ErrUnknownCenter
		}
		return planAround(*center, centerBalance, creditors, debtors), nil
	default:
		return nil, ErrUnknownStrategy
	}
}

// partition splits balances into creditors and debtors (as positive
// magnitudes), dropping entities within the deadband. Both lists come out
// sorted by magnitude descending with the entity key as tiebreak, which
// fixes the plan order.
func partition(balances map[EntityKey]decimal.Decimal) (creditors, debtors []stake) {
	for key, bal := range balances {
		switch {
		case bal.GreaterThan(Deadband):
			creditors = append(creditors, stake{key: key, amount: bal})
		case bal.LessThan(Deadband.Neg()):
			debtors = append(debtors, stake{key: key, amount: bal.Neg()})
		}
	}
	sortStakes(creditors)
	sortStakes(debtors)
	return creditors, debtors
}

func sortStakes(s []stake) {
	sort.Slice(s, func(i, j int) bool {
		if c := s[i].amount.Cmp(s[j].amount); c != 0 {
			return c > 0
		}
		return s[i].key.Less(s[j].key)
	})
}

// planOptimized repeatedly settles the largest remaining creditor against
// the largest remaining debtor for the smaller of the two magnitudes,
// advancing whichever side drops below the deadband.
func planOptimized(creditors, debtors []stake) []Transaction {
	txs := []Transaction{}
	ci, di := 0, 0
	for ci < len(creditors) && di < len(debtors) {
		c, d := &creditors[ci], &debtors[di]
		amount := decimal.Min(c.amount, d.amount)
		txs = append(txs, Transaction{From: d.key, To: c.key, Amount: amount})
		c.amount = c.amount.Sub(amount)
		d.amount = d.amount.Sub(amount)
		if c.amount.LessThan(Deadband) {
			ci++
		}
		if d.amount.LessThan(Deadband) {
			di++
		}
	}
	return txs
}

// planAround builds a star topology around the center. A center that is owed
// collects from every debtor; a center that owes pays every creditor. A
// center within the deadband produces no transactions at all.
func planAround(center EntityKey, centerBalance decimal.Decimal, creditors, debtors []stake) []Transaction {
	txs := []Transaction{}
	switch {
	case centerBalance.GreaterThan(Deadband):
		for _, d := range debtors {
			if d.key == center {
				continue
			}
			txs = append(txs, Transaction{From: d.key, To: center, Amount: d.amount})
		}
	case centerBalance.LessThan(Deadband.Neg()):
		for _, c := range creditors {
			if c.key == center {
				continue
			}
			txs = append(txs, Transaction{From: center, To: c.key, Amount: c.amount})
		}
	}
	return txs
}
