package espn

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"leaguelink/internal/platform"
)

// transactionsResponse is the mTransactions2 view payload.
type transactionsResponse struct {
	Transactions []espnTransaction `json:"transactions"`
}

type espnTransaction struct {
	ID           string                `json:"id"`
	Type         string                `json:"type"`
	Status       string                `json:"status"`
	ProposedDate int64                 `json:"proposedDate"`
	TeamID       int                   `json:"teamId"`
	BidAmount    int                   `json:"bidAmount"`
	Items        []espnTransactionItem `json:"items"`
}

type espnTransactionItem struct {
	PlayerID   int    `json:"playerId"`
	Type       string `json:"type"`
	FromTeamID int    `json:"fromTeamId"`
	ToTeamID   int    `json:"toTeamId"`
}

// Transactions implements platform.Adapter. ESPN nests player moves inside
// per-transaction item lists; each transaction is flattened into the
// canonical record and entries without a recognizable type are dropped.
func (a *Adapter) Transactions(ctx context.Context, req platform.Request) ([]platform.Transaction, error) {
	var resp transactionsResponse
	if err := a.get(ctx, req, []string{"mTransactions2"}, nil, &resp); err != nil {
		return nil, err
	}

	count := platform.ClampTransactionCount(req.Count)
	out := make([]platform.Transaction, 0, count)
	for _, t := range resp.Transactions {
		tx, ok := flattenTransaction(t)
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

func flattenTransaction(t espnTransaction) (platform.Transaction, bool) {
	txType, ok := transactionType(t)
	if !ok {
		return platform.Transaction{}, false
	}

	tx := platform.Transaction{
		TransactionID:  t.ID,
		Type:           txType,
		Status:         transactionStatus(t.Status),
		TimestampMs:    t.ProposedDate,
		Date:           platform.FormatTransactionDate(t.ProposedDate),
		TeamIDs:        []string{},
		PlayersAdded:   []string{},
		PlayersDropped: []string{},
	}

	teams := map[int]struct{}{}
	if t.TeamID != 0 {
		teams[t.TeamID] = struct{}{}
	}
	for _, item := range t.Items {
		player := strconv.Itoa(item.PlayerID)
		switch item.Type {
		case "ADD":
			tx.PlayersAdded = append(tx.PlayersAdded, player)
			if item.ToTeamID != 0 {
				teams[item.ToTeamID] = struct{}{}
			}
		case "DROP":
			tx.PlayersDropped = append(tx.PlayersDropped, player)
			if item.FromTeamID != 0 {
				teams[item.FromTeamID] = struct{}{}
			}
		}
	}
	for id := range teams {
		tx.TeamIDs = append(tx.TeamIDs, strconv.Itoa(id))
	}
	sort.Strings(tx.TeamIDs)

	if txType == platform.TransactionWaiver && t.BidAmount > 0 {
		bid := t.BidAmount
		tx.FAABBid = &bid
	}

	return tx, true
}

// transactionType maps ESPN's transaction type strings. An ADD-only or
// DROP-only free-agent move is classified by its items.
func transactionType(t espnTransaction) (platform.TransactionType, bool) {
	switch {
	case strings.Contains(t.Type, "TRADE"):
		return platform.TransactionTrade, true
	case t.Type == "WAIVER":
		return platform.TransactionWaiver, true
	case t.Type == "FREEAGENT" || t.Type == "ROSTER":
		hasAdd, hasDrop := false, false
		for _, item := range t.Items {
			switch item.Type {
			case "ADD":
				hasAdd = true
			case "DROP":
				hasDrop = true
			}
		}
		switch {
		case hasAdd:
			return platform.TransactionAdd, true
		case hasDrop:
			return platform.TransactionDrop, true
		}
	}
	return "", false
}

func transactionStatus(status string) platform.TransactionStatus {
	switch {
	case status == "EXECUTED":
		return platform.TransactionComplete
	case strings.HasPrefix(status, "FAILED"):
		return platform.TransactionFailed
	case status == "PENDING":
		return platform.TransactionPending
	default:
		return platform.TransactionUnknown
	}
}
