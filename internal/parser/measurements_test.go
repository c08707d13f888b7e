package parser_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"labnote/internal/labnote"
)

func TestExtractMeasurementsKeepsRuleOrder(t *testing.T) {
	got := newParser().ExtractMeasurements("Heated to 50°C for 30min at pH 7.4")

	want := []labnote.Measurement{
		{Type: labnote.TypeTemperature, Value: 50, Unit: "°C", RawText: "50°C"},
		{Type: labnote.TypePH, Value: 7.4, Unit: "", RawText: "pH 7.4"},
		{Type: labnote.TypeTime, Value: 30, Unit: "min", RawText: "30min"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("measurements mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractMeasurementsUnits(t *testing.T) {
	cases := []struct {
		text string
		want labnote.Measurement
	}{
		{"kept at 37 degrees Celsius", labnote.Measurement{Type: labnote.TypeTemperature, Value: 37, Unit: "°C", RawText: "37 degrees Celsius"}},
		{"Incubated at 37 Celsius", labnote.Measurement{Type: labnote.TypeTemperature, Value: 37, Unit: "°C", RawText: "37 Celsius"}},
		{"cooled to 4C overnight", labnote.Measurement{Type: labnote.TypeTemperature, Value: 4, Unit: "°C", RawText: "4C"}},
		{"pH: 6", labnote.Measurement{Type: labnote.TypePH, Value: 6, Unit: "", RawText: "pH: 6"}},
		{"add 2.5 mL water", labnote.Measurement{Type: labnote.TypeVolume, Value: 2.5, Unit: "mL", RawText: "2.5 mL"}},
		{"weigh 12 grams", labnote.Measurement{Type: labnote.TypeMass, Value: 12, Unit: "g", RawText: "12 grams"}},
		{"wait 2 hours", labnote.Measurement{Type: labnote.TypeTime, Value: 2, Unit: "hr", RawText: "2 hours"}},
		{"0.5 M Tris", labnote.Measurement{Type: labnote.TypeConcentration, Value: 0.5, Unit: "M", RawText: "0.5 M"}},
		{"yield 85 percent", labnote.Measurement{Type: labnote.TypePercentage, Value: 85, Unit: "%", RawText: "85 percent"}},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			got := newParser().ExtractMeasurements(tc.text)
			if diff := cmp.Diff([]labnote.Measurement{tc.want}, got); diff != "" {
				t.Fatalf("measurements mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractMeasurementsGroupsByRule(t *testing.T) {
	got := newParser().ExtractMeasurements("5ml then 10%, then 20 mL and 3g")

	var kinds []string
	for _, m := range got {
		kinds = append(kinds, m.Type)
	}
	want := []string{labnote.TypeVolume, labnote.TypeVolume, labnote.TypeMass, labnote.TypePercentage}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractMeasurementsNoMatches(t *testing.T) {
	got := newParser().ExtractMeasurements("no numbers worth keeping; 5 cells, 3 mice")
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}
