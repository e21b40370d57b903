package validation

import "testing"

type point struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
	Radius    float64  `json:"radius" validate:"gt=0"`
	Name      string   `json:"name,omitempty" validate:"omitempty,min=3"`
}

func ptr(f float64) *float64 { return &f }

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name       string
		in         point
		wantFields []string
	}{
		{"valid", point{Latitude: ptr(48.85), Longitude: ptr(2.35), Radius: 5}, nil},
		{"missing latitude", point{Longitude: ptr(2.35), Radius: 5}, []string{"latitude"}},
		{"out of range", point{Latitude: ptr(91), Longitude: ptr(-181), Radius: 5}, []string{"latitude", "longitude"}},
		{"zero radius", point{Latitude: ptr(0), Longitude: ptr(0)}, []string{"radius"}},
		{"short name", point{Latitude: ptr(0), Longitude: ptr(0), Radius: 1, Name: "ab"}, []string{"name"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.in)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected errors on %v", tt.wantFields)
			}
			if len(err.Fields) != len(tt.wantFields) {
				t.Fatalf("got fields %+v, want %v", err.Fields, tt.wantFields)
			}
			for _, f := range tt.wantFields {
				if !err.HasField(f) {
					t.Errorf("missing error for %q in %+v", f, err.Fields)
				}
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := ValidateStruct(&point{Longitude: ptr(0), Radius: 1})
	if err == nil {
		t.Fatal("expected error")
	}
	if got, want := err.Error(), "latitude is required"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
