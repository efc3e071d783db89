package db

import "testing"

func TestFilter_Empty(t *testing.T) {
	var nilFilter *Filter
	if !nilFilter.IsEmpty() {
		t.Error("nil filter should be empty")
	}
	f := NewFilter().AnyTag("segment").AnyRange("date")
	if !f.IsEmpty() {
		t.Error("filter without values should be empty")
	}
	if f.String() != "*" {
		t.Errorf("got %q, want *", f.String())
	}
}

func TestFilter_Tags(t *testing.T) {
	f := NewFilter().AnyTag("segment", "0", "1")
	if got, want := f.String(), "@segment:{0|1}"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFilter_TagEscaping(t *testing.T) {
	f := NewFilter().AnyTag("segment", "a-b c")
	if got, want := f.String(), `@segment:{a\-b\ c}`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFilter_Ranges(t *testing.T) {
	f := NewFilter().AnyRange("date",
		NumericRange{Min: 20240101, Max: 20240105},
		NumericRange{Min: 20240110, Max: 20240111, InclusiveMax: true},
	)
	want := "(@date:[20240101 (20240105] | @date:[20240110 20240111])"
	if got := f.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFilter_Conjunction(t *testing.T) {
	f := NewFilter().
		AnyRange("date", NumericRange{Min: 1, Max: 2}).
		AnyTag("segment", "3")
	want := "@date:[1 (2] @segment:{3}"
	if got := f.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
