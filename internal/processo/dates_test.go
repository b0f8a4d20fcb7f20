package processo

import (
	"testing"
	"time"
)

func TestParseDocgoDate(t *testing.T) {
	cases := []struct {
		numero string
		want   string
	}{
		{"2024.0101", "2024-01-01"},
		{"  2023.1512/0001", "2023-12-15"},
		{"2024.2902", "2024-02-29"},
		{"2023.2902", ""},
		{"2024.3104", ""},
		{"2024.0013", ""},
		{"2024.0001", ""},
		{"2024-0101", ""},
		{"24.0101", ""},
		{"PROC-123", ""},
	}
	for _, tc := range cases {
		got := ParseDocgoDate(tc.numero)
		if tc.want == "" {
			if got != nil {
				t.Errorf("ParseDocgoDate(%q) = %v, want nil", tc.numero, got)
			}
			continue
		}
		if got == nil || got.Format(DateLayout) != tc.want {
			t.Errorf("ParseDocgoDate(%q) = %v, want %s", tc.numero, got, tc.want)
		}
	}
}

func TestDiasNoSetorTruncatesToMidnight(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2024, 3, 15, 0, 5, 0, 0, loc)

	p := &Processo{Status: StatusEmAndamento, DataEntrada: time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)}
	if got := DiasNoSetor(p, now, loc); got == nil || *got != 1 {
		t.Fatalf("expected 1 day, got %v", got)
	}

	p.DataEntrada = time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	if got := DiasNoSetor(p, now, loc); got == nil || *got != 0 {
		t.Fatalf("future entry date should read 0, got %v", got)
	}
}

func TestDiasNoSetorFallbackOrder(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, loc)
	moved := time.Date(2024, 3, 13, 23, 59, 0, 0, loc)

	p := &Processo{Status: StatusEmAndamento, DataUltimaMovimentacao: &moved, CreatedAt: time.Date(2024, 3, 1, 8, 0, 0, 0, loc)}
	if got := DiasNoSetor(p, now, loc); got == nil || *got != 2 {
		t.Fatalf("expected fallback to last movement (2), got %v", got)
	}

	p.DataUltimaMovimentacao = nil
	if got := DiasNoSetor(p, now, loc); got == nil || *got != 14 {
		t.Fatalf("expected fallback to created_at (14), got %v", got)
	}

	p.DataEntrada = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	if got := DiasNoSetor(p, now, loc); got == nil || *got != 5 {
		t.Fatalf("expected data_entrada to win (5), got %v", got)
	}
}

func TestDiasNoSetorStopsForConcludedRecords(t *testing.T) {
	p := &Processo{Status: StatusConcluido, DataEntrada: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	if got := DiasNoSetor(p, time.Now(), time.UTC); got != nil {
		t.Fatalf("expected nil for concluded record, got %d", *got)
	}

	p.Status = StatusCancelado
	if got := DiasNoSetor(p, time.Now(), time.UTC); got == nil {
		t.Fatal("legacy cancelled records still count days")
	}
}

func TestParseDateAcceptsTimestamps(t *testing.T) {
	d, err := ParseDate("2024-05-02T18:30:00-03:00")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.Format(DateLayout) != "2024-05-02" {
		t.Fatalf("unexpected date %s", d.Format(DateLayout))
	}
	if _, err := ParseDate("02/05/2024"); err == nil {
		t.Fatal("expected error for unsupported layout")
	}
}

func TestDateUnmarshalBlankIsUnset(t *testing.T) {
	var d Date
	if err := d.UnmarshalJSON([]byte(`""`)); err != nil {
		t.Fatalf("blank date: %v", err)
	}
	if d.IsSet() {
		t.Fatal("blank date should be unset")
	}
	var nilDate *Date
	if nilDate.IsSet() {
		t.Fatal("nil date should be unset")
	}
	if err := d.UnmarshalJSON([]byte(`"31/12/2024"`)); err == nil {
		t.Fatal("expected error for unsupported layout")
	}
}
