package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"leaguelink/internal/platform"
)

type transactionsEnvelope struct {
	FantasyContent struct {
		League       yahooLeague     `json:"league"`
		Transactions json.RawMessage `json:"transactions"`
	} `json:"fantasy_content"`
}

type yahooTransaction struct {
	TransactionID flexInt         `json:"transaction_id"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	Timestamp     flexInt         `json:"timestamp"`
	Players       json.RawMessage `json:"players"`

	// Two upstream spellings exist for the same bid amount; the first
	// non-null one wins.
	FAABBid   *flexInt `json:"faab_bid"`
	WaiverBid *flexInt `json:"waiver_bid"`
}

type yahooTransactionPlayer struct {
	PlayerID        flexInt `json:"player_id"`
	TransactionData struct {
		Type               string `json:"type"`
		SourceTeamKey      string `json:"source_team_key"`
		DestinationTeamKey string `json:"destination_team_key"`
	} `json:"transaction_data"`
}

var transactionTypes = map[string]platform.TransactionType{
	"add":      platform.TransactionAdd,
	"drop":     platform.TransactionDrop,
	"add/drop": platform.TransactionAdd,
	"trade":    platform.TransactionTrade,
	"waiver":   platform.TransactionWaiver,
}

var transactionStatuses = map[string]platform.TransactionStatus{
	"successful": platform.TransactionComplete,
	"failed":     platform.TransactionFailed,
	"pending":    platform.TransactionPending,
}

// Transactions implements platform.Adapter. The transaction list and each
// transaction's player list are both numeric-keyed collections.
func (a *Adapter) Transactions(ctx context.Context, req platform.Request) ([]platform.Transaction, error) {
	key, err := leagueKey(req)
	if err != nil {
		return nil, err
	}

	count := platform.ClampTransactionCount(req.Count)
	path := fmt.Sprintf("/league/%s/transactions;count=%d", key, count)

	var env transactionsEnvelope
	if err := a.get(ctx, req.UserID, path, &env); err != nil {
		return nil, err
	}

	entries, err := collection(env.FantasyContent.Transactions)
	if err != nil {
		return nil, fmt.Errorf("decoding yahoo transactions: %w", err)
	}

	out := make([]platform.Transaction, 0, len(entries))
	for _, entry := range entries {
		var raw yahooTransaction
		if err := wrapped(entry, "transaction", &raw); err != nil {
			return nil, fmt.Errorf("decoding yahoo transactions: %w", err)
		}

		tx, ok, err := flattenTransaction(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding yahoo transactions: %w", err)
		}
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

func flattenTransaction(raw yahooTransaction) (platform.Transaction, bool, error) {
	txType, ok := transactionTypes[raw.Type]
	if !ok {
		return platform.Transaction{}, false, nil
	}

	status, ok := transactionStatuses[raw.Status]
	if !ok {
		status = platform.TransactionUnknown
	}

	timestampMs := int64(raw.Timestamp) * 1000
	tx := platform.Transaction{
		TransactionID:  strconv.Itoa(int(raw.TransactionID)),
		Type:           txType,
		Status:         status,
		TimestampMs:    timestampMs,
		Date:           platform.FormatTransactionDate(timestampMs),
		TeamIDs:        []string{},
		PlayersAdded:   []string{},
		PlayersDropped: []string{},
	}

	playerEntries, err := collection(raw.Players)
	if err != nil {
		return platform.Transaction{}, false, err
	}

	teams := map[string]struct{}{}
	for _, entry := range playerEntries {
		var p yahooTransactionPlayer
		if err := wrapped(entry, "player", &p); err != nil {
			return platform.Transaction{}, false, err
		}

		player := strconv.Itoa(int(p.PlayerID))
		switch p.TransactionData.Type {
		case "add":
			tx.PlayersAdded = append(tx.PlayersAdded, player)
			if k := p.TransactionData.DestinationTeamKey; k != "" {
				teams[k] = struct{}{}
			}
		case "drop":
			tx.PlayersDropped = append(tx.PlayersDropped, player)
			if k := p.TransactionData.SourceTeamKey; k != "" {
				teams[k] = struct{}{}
			}
		}
	}
	for k := range teams {
		tx.TeamIDs = append(tx.TeamIDs, k)
	}
	sort.Strings(tx.TeamIDs)

	if bid := firstBid(raw.FAABBid, raw.WaiverBid); bid != nil {
		v := int(*bid)
		tx.FAABBid = &v
	}

	return tx, true, nil
}

func firstBid(candidates ...*flexInt) *flexInt {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}
