package marker

import (
	"errors"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		ctx  Context
		want string
	}{
		{
			name: "workflow and job",
			ctx:  Strings("workflow", "CI", "jobid", "42"),
			want: "<!-- werkschrift workflow='CI', jobid='42' -->",
		},
		{
			name: "custom tag",
			tag:  "pyright-analysis-action",
			ctx:  Strings("workflow", "CI"),
			want: "<!-- pyright-analysis-action workflow='CI' -->",
		},
		{
			name: "non-string values skipped",
			ctx: Context{
				{Name: "workflow", Value: "CI"},
				{Name: "attempt", Value: 3},
				{Name: "nested", Value: map[string]any{"a": "b"}},
				{Name: "jobid", Value: "42"},
			},
			want: "<!-- werkschrift workflow='CI', jobid='42' -->",
		},
		{
			name: "empty string value kept",
			ctx:  Strings("workflow", ""),
			want: "<!-- werkschrift workflow='' -->",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.tag).Encode(tt.ctx)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeDeterministic(t *testing.T) {
	codec := New("")
	ctx := Strings("workflow", "CI", "jobid", "42")
	first, err := codec.Encode(ctx)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := codec.Encode(ctx)
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		if again != first {
			t.Fatalf("Encode() run %d = %q, want %q", i, again, first)
		}
	}
}

func TestEncodeDistinct(t *testing.T) {
	codec := New("")
	base := Strings("workflow", "CI", "jobid", "42")
	variants := []Context{
		Strings("workflow", "CI", "jobid", "43"),
		Strings("workflow", "ci", "jobid", "42"),
		Strings("workflow", "CI", "job", "42"),
		Strings("workflow", "CI"),
		Strings("workflow", "CI", "jobid", "42", "matrix", "linux"),
	}

	want, err := codec.Encode(base)
	if err != nil {
		t.Fatalf("Encode(base) error = %v", err)
	}
	for _, v := range variants {
		got, err := codec.Encode(v)
		if err != nil {
			t.Fatalf("Encode(%v) error = %v", v, err)
		}
		if got == want {
			t.Fatalf("Encode(%v) collides with base fingerprint %q", v, want)
		}
		if Matches(want, got) {
			t.Fatalf("fingerprint %q unexpectedly contains %q", want, got)
		}
	}
}

func TestEncodeErrors(t *testing.T) {
	codec := New("")

	if _, err := codec.Encode(nil); !errors.Is(err, ErrEmptyContext) {
		t.Fatalf("Encode(nil) error = %v, want ErrEmptyContext", err)
	}
	onlyInts := Context{{Name: "run", Value: 7}, {Name: "ok", Value: true}}
	if _, err := codec.Encode(onlyInts); !errors.Is(err, ErrEmptyContext) {
		t.Fatalf("Encode(non-string) error = %v, want ErrEmptyContext", err)
	}
	if _, err := codec.Encode(Strings("workflow", "x --> y")); !errors.Is(err, ErrUnsafeValue) {
		t.Fatalf("Encode(unsafe value) error = %v, want ErrUnsafeValue", err)
	}
	if _, err := codec.Encode(Strings("a-->", "x")); !errors.Is(err, ErrUnsafeValue) {
		t.Fatalf("Encode(unsafe name) error = %v, want ErrUnsafeValue", err)
	}
	if fp, err := New("x -->").Encode(Strings("workflow", "CI")); !errors.Is(err, ErrUnsafeValue) {
		t.Fatalf("Encode(unsafe tag) = %q, %v, want ErrUnsafeValue", fp, err)
	}
}

func TestSkipped(t *testing.T) {
	ctx := Context{
		{Name: "workflow", Value: "CI"},
		{Name: "attempt", Value: 3},
		{Name: "debug", Value: false},
	}
	got := New("").Skipped(ctx)
	if len(got) != 2 || got[0] != "attempt" || got[1] != "debug" {
		t.Fatalf("Skipped() = %v, want [attempt debug]", got)
	}
}

func TestMatches(t *testing.T) {
	fp, err := New("").Encode(Strings("workflow", "CI", "jobid", "42"))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	tests := []struct {
		name string
		body string
		want bool
	}{
		{name: "suffix", body: "## Summary\n\nall good\n\n" + fp, want: true},
		{name: "prefix", body: fp + "\ntrailing text", want: true},
		{name: "middle", body: "a " + fp + " b", want: true},
		{name: "absent", body: "## Summary", want: false},
		{name: "other job", body: "<!-- werkschrift workflow='CI', jobid='43' -->", want: false},
		{name: "truncated", body: fp[:len(fp)-4], want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.body, fp); got != tt.want {
				t.Fatalf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
