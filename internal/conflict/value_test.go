package conflict

import (
	"encoding/json"
	"testing"
)

func TestValue_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nulls", Null(), Null(), true},
		{"equal numbers", Number(1.5), Number(1.5), true},
		{"different numbers", Number(1), Number(2), false},
		{"equal strings", String("x"), String("x"), true},
		{"different strings", String("x"), String("y"), false},
		{"equal bools", Bool(true), Bool(true), true},
		{"kind mismatch", Number(1), String("1"), false},
		{"null vs string", Null(), String(""), false},
		{
			"equal lists",
			List(Number(1), String("a")),
			List(Number(1), String("a")),
			true,
		},
		{
			"lists differ in order",
			List(Number(1), Number(2)),
			List(Number(2), Number(1)),
			false,
		},
		{
			"lists differ in length",
			List(Number(1)),
			List(Number(1), Number(2)),
			false,
		},
		{
			"equal nested maps",
			Map(map[string]Value{"a": List(Number(1)), "b": Null()}),
			Map(map[string]Value{"b": Null(), "a": List(Number(1))}),
			true,
		},
		{
			"maps differ in value",
			Map(map[string]Value{"a": Number(1)}),
			Map(map[string]Value{"a": Number(2)}),
			false,
		},
		{
			"maps differ in keys",
			Map(map[string]Value{"a": Number(1)}),
			Map(map[string]Value{"b": Number(1)}),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
			// Equality is symmetric.
			if got := tt.b.Equal(tt.a); got != tt.want {
				t.Errorf("Equal() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValue_JSONRoundTrip(t *testing.T) {
	original := Map(map[string]Value{
		"name":   String("Acme"),
		"seats":  Number(12),
		"active": Bool(true),
		"tags":   List(String("a"), String("b")),
		"parent": Null(),
		"nested": Map(map[string]Value{"k": Number(1.25)}),
	})

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded Value
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if !decoded.Equal(original) {
		t.Errorf("round trip changed value: got %v, want %v", decoded, original)
	}
	if decoded.Kind() != KindMap {
		t.Errorf("Kind = %v, want map", decoded.Kind())
	}
}

func TestValue_UnmarshalScalars(t *testing.T) {
	tests := []struct {
		name string
		json string
		want Value
	}{
		{"null", `null`, Null()},
		{"bool", `true`, Bool(true)},
		{"number", `3.5`, Number(3.5)},
		{"string", `"hi"`, String("hi")},
		{"list", `[1,2]`, List(Number(1), Number(2))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v Value
			if err := json.Unmarshal([]byte(tt.json), &v); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if !v.Equal(tt.want) {
				t.Errorf("got %v, want %v", v, tt.want)
			}
		})
	}
}

func TestFromGo(t *testing.T) {
	t.Run("supported types", func(t *testing.T) {
		v, err := FromGo(map[string]interface{}{
			"n": 1.5,
			"s": "x",
			"l": []interface{}{true, nil},
		})
		if err != nil {
			t.Fatalf("FromGo failed: %v", err)
		}
		want := Map(map[string]Value{
			"n": Number(1.5),
			"s": String("x"),
			"l": List(Bool(true), Null()),
		})
		if !v.Equal(want) {
			t.Errorf("got %v, want %v", v, want)
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		if _, err := FromGo(struct{}{}); err == nil {
			t.Error("FromGo should reject unsupported types")
		}
	})
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		value Value
		want  string
	}{
		{Null(), "null"},
		{Bool(false), "false"},
		{Number(42), "42"},
		{Number(1.5), "1.5"},
		{String("hi"), "hi"},
		{List(Number(1), String("a")), "[1, a]"},
		{Map(map[string]Value{"b": Number(2), "a": Number(1)}), "{a: 1, b: 2}"},
	}

	for _, tt := range tests {
		if got := tt.value.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestChangeset_Copy(t *testing.T) {
	original := Changeset{"a": Number(1)}
	copied := original.Copy()

	copied["a"] = Number(2)
	copied["b"] = Number(3)

	if !original["a"].Equal(Number(1)) {
		t.Error("Copy should not share mutations with the original")
	}
	if _, ok := original["b"]; ok {
		t.Error("Copy should not add fields to the original")
	}
}
