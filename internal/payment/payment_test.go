package payment

import "testing"

// Inputs mirror what the pipeline hands Detect: already normalized text
// (diacritic-free, lower-cased).

func TestDetectLabeled(t *testing.T) {
	t.Run("EntityReferenceAndAmount", func(t *testing.T) {
		ref := Detect("pagamento pendente. entidade: 21312 referencia: 123456789 valor 49,90 eur")
		if ref == nil {
			t.Fatal("expected a payment reference")
		}
		if ref.EntityCode != "21312" {
			t.Errorf("entity = %q, want 21312", ref.EntityCode)
		}
		if ref.ReferenceCode != "123456789" {
			t.Errorf("reference = %q, want 123456789", ref.ReferenceCode)
		}
		if ref.Amount != "49,90" {
			t.Errorf("amount = %q, want 49,90", ref.Amount)
		}
		if !ref.EntityDetected || !ref.ReferenceDetected || !ref.AmountDetected {
			t.Errorf("detection flags = %v/%v/%v, want all true",
				ref.EntityDetected, ref.ReferenceDetected, ref.AmountDetected)
		}
	})

	t.Run("ShortRefLabel", func(t *testing.T) {
		ref := Detect("entidade 10611 ref 987654321")
		if ref == nil {
			t.Fatal("expected a payment reference")
		}
		if ref.EntityCode != "10611" || ref.ReferenceCode != "987654321" {
			t.Errorf("got %s/%s, want 10611/987654321", ref.EntityCode, ref.ReferenceCode)
		}
		if ref.AmountDetected {
			t.Error("no amount in text, AmountDetected should be false")
		}
	})

	t.Run("EuroSignAmount", func(t *testing.T) {
		ref := Detect("entidade: 99999 referencia: 111222333 valor: 20,00€")
		if ref == nil {
			t.Fatal("expected a payment reference")
		}
		if ref.Amount != "20,00" {
			t.Errorf("amount = %q, want 20,00", ref.Amount)
		}
	})

	t.Run("DotDecimalSeparator", func(t *testing.T) {
		ref := Detect("entidade: 12345 referencia: 123456789 12.50 eur")
		if ref == nil {
			t.Fatal("expected a payment reference")
		}
		if ref.Amount != "12.50" {
			t.Errorf("amount = %q, want 12.50", ref.Amount)
		}
	})
}

func TestDetectLenient(t *testing.T) {
	t.Run("UnlabeledDigitRuns", func(t *testing.T) {
		// No colon-adjacent labels, but both keywords appear somewhere.
		ref := Detect("use a entidade e a ref seguintes para pagar: 20117 123456789")
		if ref == nil {
			t.Fatal("expected a payment reference from the lenient pass")
		}
		if ref.EntityCode != "20117" {
			t.Errorf("entity = %q, want 20117", ref.EntityCode)
		}
		if ref.ReferenceCode != "123456789" {
			t.Errorf("reference = %q, want 123456789", ref.ReferenceCode)
		}
	})

	t.Run("BareAmountWithoutCurrencyMarker", func(t *testing.T) {
		ref := Detect("entidade e ref para pagamento: 20117 123456789 total 33,70")
		if ref == nil {
			t.Fatal("expected a payment reference")
		}
		if ref.Amount != "" {
			t.Errorf("bare amount must not populate Amount, got %q", ref.Amount)
		}
		if !ref.AmountDetected {
			t.Error("bare NN,NN should still set AmountDetected in the lenient pass")
		}
	})

	t.Run("ReferenceMustDifferFromEntity", func(t *testing.T) {
		// The only 9+-digit run is not distinct from the entity, so no match.
		if ref := Detect("entidade ref 12345"); ref != nil {
			t.Errorf("expected no match, got %+v", ref)
		}
	})

	t.Run("MissingEntidadeKeyword", func(t *testing.T) {
		if ref := Detect("ref 123456789 conta 12345"); ref != nil {
			t.Errorf("expected no match without the entidade keyword, got %+v", ref)
		}
	})
}

func TestDetectNoMatch(t *testing.T) {
	texts := []string{
		"",
		"ola mae, chego as 19h",
		"a sua encomenda chega amanha",
		"entidade 12345",                 // entity but no reference keyword digits
		"referencia: 123456789",          // reference but no entity
		"entidade: 123 referencia: 4567", // digit runs too short
	}

	for _, text := range texts {
		if ref := Detect(text); ref != nil {
			t.Errorf("Detect(%q) = %+v, want nil", text, ref)
		}
	}
}
