package spoof

import "testing"

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name         string
		host         string
		wantNonLatin bool
		wantMixed    bool
	}{
		{"PureLatin", "example.com", false, false},
		{"LatinWithDigitsAndHyphens", "pay-24.example.com", false, false},
		{"Empty", "", false, false},
		{"DigitsOnly", "1234.56", false, false},
		// Cyrillic "а" (U+0430) inside a Latin brand name: the classic
		// homoglyph shape.
		{"MixedLatinCyrillic", "pаypal.com", true, true},
		{"CyrillicWithLatinTail", "раураl.com", true, true},
		{"CyrillicOnlyLabels", "почта.рф", true, false},
		// Greek omicron: non-Latin but not Cyrillic, so no mixed signal.
		{"GreekLookalike", "gοοgle.com", true, false},
		{"HanScript", "例え.jp", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Analyze(tt.host)
			if got.HasNonLatinLetters != tt.wantNonLatin {
				t.Errorf("Analyze(%q).HasNonLatinLetters = %v, want %v",
					tt.host, got.HasNonLatinLetters, tt.wantNonLatin)
			}
			if got.HasMixedLatinCyrillic != tt.wantMixed {
				t.Errorf("Analyze(%q).HasMixedLatinCyrillic = %v, want %v",
					tt.host, got.HasMixedLatinCyrillic, tt.wantMixed)
			}
		})
	}
}
