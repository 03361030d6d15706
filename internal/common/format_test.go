package common

import (
	"math"
	"testing"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{1234.56, "1,234.56"},
		{0, "0.00"},
		{-500.00, "-500.00"},
		{1000000.999, "1,000,001.00"},
		{189.8449, "189.84"},
		{2.005, "2.01"},
		{-0.001, "0.00"},
		{123456.7, "123,456.70"},
		{math.NaN(), ""},
		{math.Inf(1), ""},
	}

	for _, tt := range tests {
		got := FormatPrice(tt.value)
		if got != tt.want {
			t.Errorf("FormatPrice(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestFormatVolume(t *testing.T) {
	tests := []struct {
		value int64
		want  string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{52164500, "52,164,500"},
		{-1200, "-1,200"},
		{123456, "123,456"},
		{1234567890, "1,234,567,890"},
	}

	for _, tt := range tests {
		got := FormatVolume(tt.value)
		if got != tt.want {
			t.Errorf("FormatVolume(%d) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
