package models

import (
	"strings"
	"time"
)

// MarketType is the asset class an analysis runs against.
type MarketType string

const (
	MarketCrypto    MarketType = "crypto"
	MarketSolana    MarketType = "solana"
	MarketMeme      MarketType = "meme"
	MarketStock     MarketType = "stock"
	MarketPenny     MarketType = "penny"
	MarketCommodity MarketType = "commodity"
	MarketForex     MarketType = "forex"
)

// RiskProfile folds the narrower market types onto the five classes that
// carry their own return and half-life bases.
func (m MarketType) RiskProfile() MarketType {
	switch m {
	case MarketSolana:
		return MarketCrypto
	case MarketMeme:
		return MarketPenny
	case MarketCrypto, MarketStock, MarketPenny, MarketCommodity, MarketForex:
		return m
	default:
		return MarketCrypto
	}
}

func (m MarketType) Valid() bool {
	switch m {
	case MarketCrypto, MarketSolana, MarketMeme, MarketStock, MarketPenny, MarketCommodity, MarketForex:
		return true
	}
	return false
}

// SensorData is one assembled snapshot of everything known about an asset.
// Every sub-record is optional; nil means the provider had nothing.
type SensorData struct {
	Asset      string       `json:"asset" validate:"required"`
	MarketType MarketType   `json:"marketType"`
	Timestamp  time.Time    `json:"timestamp"`
	Price      *PriceData   `json:"price,omitempty"`
	OnChain    *OnChainData `json:"onchain,omitempty"`
	Social     *SocialData  `json:"social,omitempty"`
	Whale      *WhaleData   `json:"whale,omitempty"`
	News       *NewsData    `json:"news,omitempty"`
	Macro      *MacroData   `json:"macro,omitempty"`
}

type PriceData struct {
	Current      float64   `json:"current"`
	Change1h     float64   `json:"change1h"`
	Change24h    float64   `json:"change24h"`
	Change7d     float64   `json:"change7d"`
	Volume24h    float64   `json:"volume24h"`
	VolumeChange float64   `json:"volumeChange"`
	Liquidity    float64   `json:"liquidity"`
	MarketCap    float64   `json:"marketCap"`
	High24h      float64   `json:"high24h"`
	Low24h       float64   `json:"low24h"`
	History      []float64 `json:"history,omitempty"` // closes, oldest first
}

type OnChainData struct {
	HolderCount         float64 `json:"holderCount"`
	HolderConcentration float64 `json:"holderConcentration"` // top-10 share, 0..1
	DevWalletPercent    float64 `json:"devWalletPercent"`
	LiquidityLocked     bool    `json:"liquidityLocked"`
	ContractVerified    bool    `json:"contractVerified"`
	MintAuthority       bool    `json:"mintAuthority"`
	TxCount24h          float64 `json:"txCount24h"`
}

type SocialData struct {
	SentimentScore float64 `json:"sentimentScore"` // -1..1
	Mentions24h    float64 `json:"mentions24h"`
	MentionsChange float64 `json:"mentionsChange"` // percent
	Trending       bool    `json:"trending"`
	InfluencerBuzz float64 `json:"influencerBuzz"`
}

type WhaleData struct {
	NetFlow24h        float64 `json:"netFlow24h"` // USD, positive is inflow
	LargeTransactions float64 `json:"largeTransactions"`
	Accumulating      bool    `json:"accumulating"`
	TopHolderChange   float64 `json:"topHolderChange"`
}

type NewsData struct {
	SentimentScore float64  `json:"sentimentScore"` // -1..1
	ArticleCount   float64  `json:"articleCount"`
	HasCatalyst    bool     `json:"hasCatalyst"`
	Headlines      []string `json:"headlines,omitempty"`
}

type MacroData struct {
	RiskOn        bool    `json:"riskOn"`
	DXYChange     float64 `json:"dxyChange"`
	VIX           float64 `json:"vix"`
	RateDirection string  `json:"rateDirection"` // up, down, flat
	SPXChange     float64 `json:"spxChange"`
}

// Lookup resolves a dotted path such as "price.change24h" to a number.
// Booleans resolve to 1 or 0. Unknown paths and absent sub-records
// report ok=false.
func (d *SensorData) Lookup(path string) (float64, bool) {
	if d == nil {
		return 0, false
	}
	ns, field, found := strings.Cut(path, ".")
	if !found {
		return 0, false
	}
	switch strings.ToLower(ns) {
	case "price":
		if d.Price == nil {
			return 0, false
		}
		return d.Price.field(field)
	case "onchain":
		if d.OnChain == nil {
			return 0, false
		}
		return d.OnChain.field(field)
	case "social":
		if d.Social == nil {
			return 0, false
		}
		return d.Social.field(field)
	case "whale":
		if d.Whale == nil {
			return 0, false
		}
		return d.Whale.field(field)
	case "news":
		if d.News == nil {
			return 0, false
		}
		return d.News.field(field)
	case "macro":
		if d.Macro == nil {
			return 0, false
		}
		return d.Macro.field(field)
	}
	return 0, false
}

// Sources lists the namespaces present in the snapshot.
func (d *SensorData) Sources() []string {
	if d == nil {
		return nil
	}
	out := make([]string, 0, 6)
	if d.Price != nil {
		out = append(out, "price")
	}
	if d.OnChain != nil {
		out = append(out, "onchain")
	}
	if d.Social != nil {
		out = append(out, "social")
	}
	if d.Whale != nil {
		out = append(out, "whale")
	}
	if d.News != nil {
		out = append(out, "news")
	}
	if d.Macro != nil {
		out = append(out, "macro")
	}
	return out
}

// CurrentPrice returns the last price, or 0 when no price record exists.
func (d *SensorData) CurrentPrice() float64 {
	if d == nil || d.Price == nil {
		return 0
	}
	return d.Price.Current
}

func (p *PriceData) field(name string) (float64, bool) {
	switch name {
	case "current":
		return p.Current, true
	case "change1h":
		return p.Change1h, true
	case "change24h":
		return p.Change24h, true
	case "change7d":
		return p.Change7d, true
	case "volume24h":
		return p.Volume24h, true
	case "volumeChange":
		return p.VolumeChange, true
	case "liquidity":
		return p.Liquidity, true
	case "marketCap":
		return p.MarketCap, true
	case "high24h":
		return p.High24h, true
	case "low24h":
		return p.Low24h, true
	}
	return 0, false
}

func (o *OnChainData) field(name string) (float64, bool) {
	switch name {
	case "holderCount":
		return o.HolderCount, true
	case "holderConcentration":
		return o.HolderConcentration, true
	case "devWalletPercent":
		return o.DevWalletPercent, true
	case "liquidityLocked":
		return boolf(o.LiquidityLocked), true
	case "contractVerified":
		return boolf(o.ContractVerified), true
	case "mintAuthority":
		return boolf(o.MintAuthority), true
	case "txCount24h":
		return o.TxCount24h, true
	}
	return 0, false
}

func (s *SocialData) field(name string) (float64, bool) {
	switch name {
	case "sentimentScore":
		return s.SentimentScore, true
	case "mentions24h":
		return s.Mentions24h, true
	case "mentionsChange":
		return s.MentionsChange, true
	case "trending":
		return boolf(s.Trending), true
	case "influencerBuzz":
		return s.InfluencerBuzz, true
	}
	return 0, false
}

func (w *WhaleData) field(name string) (float64, bool) {
	switch name {
	case "netFlow24h":
		return w.NetFlow24h, true
	case "largeTransactions":
		return w.LargeTransactions, true
	case "accumulating":
		return boolf(w.Accumulating), true
	case "topHolderChange":
		return w.TopHolderChange, true
	}
	return 0, false
}

func (n *NewsData) field(name string) (float64, bool) {
	switch name {
	case "sentimentScore":
		return n.SentimentScore, true
	case "articleCount":
		return n.ArticleCount, true
	case "hasCatalyst":
		return boolf(n.HasCatalyst), true
	}
	return 0, false
}

func (m *MacroData) field(name string) (float64, bool) {
	switch name {
	case "riskOn":
		return boolf(m.RiskOn), true
	case "dxyChange":
		return m.DXYChange, true
	case "vix":
		return m.VIX, true
	case "spxChange":
		return m.SPXChange, true
	}
	return 0, false
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
