// Package models defines data structures for stock-compare.
package models

import (
	"time"
)

// PriceBar represents a single trading day's price data
type PriceBar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adjusted_close"`
	Volume   int64     `json:"volume"`
}

// PriceSeries is the daily history of one ticker over a date range, oldest first.
type PriceSeries struct {
	Ticker    string     `json:"ticker"`
	Provider  string     `json:"provider"`
	From      time.Time  `json:"from"`
	To        time.Time  `json:"to"`
	Bars      []PriceBar `json:"bars"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Closes returns the closing prices in bar order.
func (s *PriceSeries) Closes() []float64 {
	out := make([]float64, s.Len())
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Dates returns the bar dates in order.
func (s *PriceSeries) Dates() []time.Time {
	out := make([]time.Time, s.Len())
	for i, b := range s.Bars {
		out[i] = b.Date
	}
	return out
}

// First returns the earliest bar, or nil for an empty series.
func (s *PriceSeries) First() *PriceBar {
	if s.Len() == 0 {
		return nil
	}
	return &s.Bars[0]
}

// Last returns the latest bar, or nil for an empty series.
func (s *PriceSeries) Last() *PriceBar {
	if s.Len() == 0 {
		return nil
	}
	return &s.Bars[len(s.Bars)-1]
}
