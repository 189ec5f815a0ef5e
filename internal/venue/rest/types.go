package rest

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tradeaudit/internal/models"
)

type wireFill struct {
	TradeID    string  `json:"tid"`
	Coin       string  `json:"coin"`
	Side       string  `json:"side"`
	Price      string  `json:"px"`
	Size       string  `json:"sz"`
	Fee        string  `json:"fee"`
	ClosedPnL  *string `json:"closedPnl,omitempty"`
	BuilderFee *string `json:"builderFee,omitempty"`
	Time       int64   `json:"time"`
}

type fillsPage struct {
	Fills      []wireFill `json:"fills"`
	NextCursor *string    `json:"nextCursor,omitempty"`
}

type wireDeposit struct {
	ID     string `json:"id"`
	Amount string `json:"amount"`
	Time   int64  `json:"time"`
}

type depositsPage struct {
	Deposits []wireDeposit `json:"deposits"`
}

type equityResponse struct {
	Equity string `json:"equity"`
	Time   int64  `json:"time"`
}

func normalizeSide(side string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(side)) {
	case "b", "buy":
		return models.DirectionBuy, nil
	case "a", "s", "sell":
		return models.DirectionSell, nil
	default:
		return "", fmt.Errorf("unknown fill side %q", side)
	}
}

func parseFill(account string, w wireFill) (models.Fill, error) {
	direction, err := normalizeSide(w.Side)
	if err != nil {
		return models.Fill{}, err
	}
	price, err := decimal.NewFromString(w.Price)
	if err != nil {
		return models.Fill{}, fmt.Errorf("parse fill price %q: %w", w.Price, err)
	}
	size, err := decimal.NewFromString(w.Size)
	if err != nil {
		return models.Fill{}, fmt.Errorf("parse fill size %q: %w", w.Size, err)
	}
	fee := decimal.Zero
	if strings.TrimSpace(w.Fee) != "" {
		fee, err = decimal.NewFromString(w.Fee)
		if err != nil {
			return models.Fill{}, fmt.Errorf("parse fill fee %q: %w", w.Fee, err)
		}
	}
	fill := models.Fill{
		Account:    account,
		Coin:       strings.TrimSpace(w.Coin),
		Direction:  direction,
		Price:      price,
		Size:       size,
		Fee:        fee,
		ExternalID: strings.TrimSpace(w.TradeID),
		FilledAt:   time.UnixMilli(w.Time).UTC(),
	}
	if w.ClosedPnL != nil {
		pnl, err := decimal.NewFromString(*w.ClosedPnL)
		if err != nil {
			return models.Fill{}, fmt.Errorf("parse closed pnl %q: %w", *w.ClosedPnL, err)
		}
		fill.ClosedPnL = &pnl
	}
	if w.BuilderFee != nil {
		bf, err := decimal.NewFromString(*w.BuilderFee)
		if err != nil {
			return models.Fill{}, fmt.Errorf("parse builder fee %q: %w", *w.BuilderFee, err)
		}
		fill.BuilderFee = &bf
	}
	return fill, nil
}

func parseDeposit(account string, w wireDeposit) (models.Deposit, error) {
	amount, err := decimal.NewFromString(w.Amount)
	if err != nil {
		return models.Deposit{}, fmt.Errorf("parse deposit amount %q: %w", w.Amount, err)
	}
	return models.Deposit{
		Account:     account,
		Amount:      amount,
		ExternalID:  strings.TrimSpace(w.ID),
		DepositedAt: time.UnixMilli(w.Time).UTC(),
	}, nil
}
