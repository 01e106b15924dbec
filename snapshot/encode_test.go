package snapshot

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty snapshot",
			input:    `{}`,
			expected: "{}\n",
		},
		{
			name:  "nested values",
			input: `{"東京1区":[{"name":"山田 太郎","party":"無所属","age":45}],"empty":{"list":[],"obj":{}}}`,
			expected: `{
    "東京1区": [
        {
            "name": "山田 太郎",
            "party": "無所属",
            "age": 45
        }
    ],
    "empty": {
        "list": [],
        "obj": {}
    }
}
`,
		},
		{
			name:     "escaped non-ASCII written literally",
			input:    `{"k":"\u5c71\u7530"}`,
			expected: "{\n    \"k\": \"山田\"\n}\n",
		},
		{
			name:     "html characters not escaped",
			input:    `{"url":"https://example.com/?a=1&b=<2>"}`,
			expected: "{\n    \"url\": \"https://example.com/?a=1&b=<2>\"\n}\n",
		},
		{
			name:     "number literals kept",
			input:    `{"n":[1.50,1e3,-0,12345678901234567890]}`,
			expected: "{\n    \"n\": [\n        1.50,\n        1e3,\n        -0,\n        12345678901234567890\n    ]\n}\n",
		},
		{
			name:     "literals",
			input:    `{"t":true,"f":false,"z":null,"q":"say \"hi\"\n"}`,
			expected: "{\n    \"t\": true,\n    \"f\": false,\n    \"z\": null,\n    \"q\": \"say \\\"hi\\\"\\n\"\n}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			got, err := Encode(s)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if string(got) != tt.expected {
				t.Errorf("Encode() =\n%s\nwant\n%s", got, tt.expected)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	input := `{"B":{"x":[1,"two",{"three":3.0}],"y":null},"A":"エー","C":[]}`
	s, err := Parse([]byte(input))
	if err != nil {
		t.Fatal(err)
	}
	out, err := Encode(s)
	if err != nil {
		t.Fatal(err)
	}

	var want, got any
	if err := json.Unmarshal([]byte(input), &want); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("Encoded output is not valid JSON: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Round trip mismatch: got %v, want %v", got, want)
	}

	again, err := Parse(out)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(again.Keys(), []string{"B", "A", "C"}) {
		t.Errorf("Key order lost: %v", again.Keys())
	}
}
