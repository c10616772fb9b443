package nankill

import (
	"errors"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.DefaultValue != 1 {
		t.Errorf("DefaultValue = %v, want 1", cfg.DefaultValue)
	}
	if got := cfg.Enabled(); got != 8 {
		t.Errorf("Enabled() = %d, want 8", got)
	}
	if cfg.Grid[gridCenter] != 0 {
		t.Errorf("centre = %v, want 0", cfg.Grid[gridCenter])
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestParseGrid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    SampleGrid
		wantErr bool
	}{
		{
			name:  "single line",
			input: "1 1 1 1 0 1 1 1 1",
			want:  SampleGrid{1, 1, 1, 1, 0, 1, 1, 1, 1},
		},
		{
			name:  "three lines",
			input: "0 2 0\n3 0 3\n0 -1 0\n",
			want:  SampleGrid{0, 2, 0, 3, 0, 3, 0, -1, 0},
		},
		{
			name:  "commas",
			input: "1,0,0, 0,0,0, 0,0,1.5",
			want:  SampleGrid{1, 0, 0, 0, 0, 0, 0, 0, 1.5},
		},
		{
			name:    "too few",
			input:   "1 1 1",
			wantErr: true,
		},
		{
			name:    "not a number",
			input:   "1 1 1 1 x 1 1 1 1",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGrid(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseGrid(%q) succeeded, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseGrid(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseGrid(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseGrid_WrongCount(t *testing.T) {
	_, err := ParseGrid("1 2 3 4 5 6 7 8 9 10")
	if !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("err = %v, want ErrInvalidGrid", err)
	}
}

func TestSampleGrid_TextRoundTrip(t *testing.T) {
	g := SampleGrid{1, 2, 3, 4, 0, -6, 0.5, 8, 9}
	text, err := g.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(text) != "1 2 3\n4 0 -6\n0.5 8 9" {
		t.Errorf("MarshalText = %q", text)
	}
	var back SampleGrid
	if err := back.UnmarshalText(text); err != nil {
		t.Fatal(err)
	}
	if back != g {
		t.Errorf("round trip = %v, want %v", back, g)
	}
}

func TestSampleGrid_Offset(t *testing.T) {
	g := SampleGrid{2.7, 0, -1, 0.4, 5, 1, 0, 0, 3}
	tests := []struct {
		i    int
		want int
		ok   bool
	}{
		{0, 2, true},
		{1, 0, false},
		{2, -1, true},
		{3, 0, false},
		{4, 0, false}, // centre
		{5, 1, true},
		{8, 3, true},
		{-1, 0, false},
		{9, 0, false},
	}
	for _, tt := range tests {
		d, ok := g.Offset(tt.i)
		if d != tt.want || ok != tt.ok {
			t.Errorf("Offset(%d) = (%d, %v), want (%d, %v)", tt.i, d, ok, tt.want, tt.ok)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"nan default", Config{DefaultValue: nan32}, ErrNonFiniteDefault},
		{"inf default", Config{DefaultValue: ninf32}, ErrNonFiniteDefault},
		{"nan grid", Config{Grid: SampleGrid{0, nan32}}, ErrNonFiniteGrid},
		{"inf grid", Config{Grid: SampleGrid{8: pinf32}}, ErrNonFiniteGrid},
		{"ok", Config{DefaultValue: 3, Grid: SampleGrid{1, 1}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}

	if err := (Config{North: NorthMapping(9)}).Validate(); err == nil {
		t.Error("Validate accepted an unknown north mapping")
	}
}

func TestParseNorthMapping(t *testing.T) {
	for _, n := range []NorthMapping{NorthVertical, NorthAsWest} {
		got, err := ParseNorthMapping(n.String())
		if err != nil || got != n {
			t.Errorf("ParseNorthMapping(%q) = (%v, %v)", n.String(), got, err)
		}
	}
	if got, err := ParseNorthMapping(""); err != nil || got != NorthVertical {
		t.Errorf("empty mapping = (%v, %v), want vertical", got, err)
	}
	if _, err := ParseNorthMapping("sideways"); err == nil {
		t.Error("ParseNorthMapping accepted an unknown name")
	}
}

func TestDirection_Step(t *testing.T) {
	dx, dy := North.Step(NorthVertical)
	if dx != 0 || dy != -1 {
		t.Errorf("North vertical = (%d, %d), want (0, -1)", dx, dy)
	}
	dx, dy = North.Step(NorthAsWest)
	if dx != -1 || dy != 0 {
		t.Errorf("North as west = (%d, %d), want (-1, 0)", dx, dy)
	}
	if Direction(4).String() != "unknown" {
		t.Errorf("centre direction name = %q", Direction(4).String())
	}
}
