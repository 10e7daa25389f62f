package sleeper

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"leaguelink/internal/platform"
)

type sleeperTransaction struct {
	TransactionID string         `json:"transaction_id"`
	Type          string         `json:"type"`
	Status        string         `json:"status"`
	StatusUpdated int64          `json:"status_updated"`
	RosterIDs     []int          `json:"roster_ids"`
	Adds          map[string]int `json:"adds"`
	Drops         map[string]int `json:"drops"`
	Settings      struct {
		// Two upstream spellings exist for the same bid amount; the
		// first non-null one wins.
		FAABBid   *int `json:"faab_bid"`
		WaiverBid *int `json:"waiver_bid"`
	} `json:"settings"`
	DraftPicks []struct {
		Season string `json:"season"`
		Round  int    `json:"round"`
	} `json:"draft_picks"`
}

var transactionTypes = map[string]platform.TransactionType{
	"free_agent": platform.TransactionAdd,
	"waiver":     platform.TransactionWaiver,
	"trade":      platform.TransactionTrade,
}

var transactionStatuses = map[string]platform.TransactionStatus{
	"complete": platform.TransactionComplete,
	"failed":   platform.TransactionFailed,
	"pending":  platform.TransactionPending,
}

// Transactions implements platform.Adapter. Sleeper reports transactions
// per week; a zero week resolves to the current one first.
func (a *Adapter) Transactions(ctx context.Context, req platform.Request) ([]platform.Transaction, error) {
	if _, err := a.username(ctx, req.UserID); err != nil {
		return nil, err
	}
	sport, err := sportKey(req.Sport)
	if err != nil {
		return nil, err
	}

	week := req.Week
	if week == 0 {
		current, err := a.currentWeek(ctx, sport)
		if err != nil {
			return nil, err
		}
		week = current
	}

	var rows []sleeperTransaction
	path := fmt.Sprintf("/league/%s/transactions/%d", url.PathEscape(req.LeagueID), week)
	if err := a.get(ctx, path, &rows); err != nil {
		return nil, err
	}

	count := platform.ClampTransactionCount(req.Count)
	out := make([]platform.Transaction, 0, count)
	for _, row := range rows {
		tx, ok := flattenTransaction(row)
		if !ok {
			continue
		}
		out = append(out, tx)
		if len(out) == count {
			break
		}
	}

	return out, nil
}

func flattenTransaction(row sleeperTransaction) (platform.Transaction, bool) {
	txType, ok := transactionTypes[row.Type]
	if !ok {
		return platform.Transaction{}, false
	}

	// A free-agent move with only drops is a drop, not an add.
	if txType == platform.TransactionAdd && len(row.Adds) == 0 && len(row.Drops) > 0 {
		txType = platform.TransactionDrop
	}

	status, ok := transactionStatuses[row.Status]
	if !ok {
		status = platform.TransactionUnknown
	}

	tx := platform.Transaction{
		TransactionID:  row.TransactionID,
		Type:           txType,
		Status:         status,
		TimestampMs:    row.StatusUpdated,
		Date:           platform.FormatTransactionDate(row.StatusUpdated),
		TeamIDs:        make([]string, 0, len(row.RosterIDs)),
		PlayersAdded:   sortedKeys(row.Adds),
		PlayersDropped: sortedKeys(row.Drops),
	}
	for _, id := range row.RosterIDs {
		tx.TeamIDs = append(tx.TeamIDs, strconv.Itoa(id))
	}

	if bid := firstBid(row.Settings.FAABBid, row.Settings.WaiverBid); bid != nil {
		tx.FAABBid = bid
	}

	for _, pick := range row.DraftPicks {
		tx.DraftPicks = append(tx.DraftPicks, fmt.Sprintf("%s round %d", pick.Season, pick.Round))
	}

	return tx, true
}

func firstBid(candidates ...*int) *int {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
