package util

import "time"

// Now devolve o instante atual em UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// Midnight trunca o instante para 00:00 no fuso informado.
func Midnight(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DaysBetween conta dias inteiros entre duas datas, ignorando a hora do dia.
func DaysBetween(from, to time.Time, loc *time.Location) int {
	a := Midnight(from, loc)
	b := Midnight(to, loc)
	// Arredonda para absorver dias de 23h/25h em fusos com horário de verão.
	return int((b.Sub(a) + 12*time.Hour) / (24 * time.Hour))
}
