package giturl

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"github plain", "https://github.com/serde-rs/serde", "https://github.com/serde-rs/serde.git"},
		{"github trailing git", "https://github.com/serde-rs/serde.git", "https://github.com/serde-rs/serde.git"},
		{"github trailing slash", "https://github.com/serde-rs/serde/", "https://github.com/serde-rs/serde.git"},
		{"github extra segments", "https://github.com/rust-lang/cargo/tree/master/crates/cargo-util", "https://github.com/rust-lang/cargo.git"},
		{"gitlab host", "https://gitlab.com/gitlab-org/gitlab-runner", "https://gitlab.com/gitlab-org/gitlab-runner.git"},
		{"gitlab tenant prefix", "https://gitlab.freedesktop.org/wayland/wayland/-/tree/main", "https://gitlab.freedesktop.org/wayland/wayland.git"},
		{"other host passthrough", "https://sr.ht/~someone/project/deep/path", "https://sr.ht/~someone/project/deep/path"},
		{"http accepted", "http://github.com/foo/bar", "http://github.com/foo/bar.git"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			if err != nil {
				t.Fatalf("Normalize(%q) failed: %v", tt.raw, err)
			}
			if got.String() != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got.String(), tt.want)
			}
		})
	}
}

func TestNormalizeRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"ssh scheme", "ssh://git@github.com/foo/bar.git"},
		{"git scheme", "git://github.com/foo/bar.git"},
		{"no host", "https:///foo/bar"},
		{"forge missing repo", "https://github.com/onlyowner"},
		{"forge empty path", "https://github.com/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Normalize(tt.raw); err == nil {
				t.Errorf("Normalize(%q) succeeded, want error", tt.raw)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"https://github.com/serde-rs/serde",
		"https://github.com/rust-lang/cargo/tree/master/crates/cargo-util",
		"https://gitlab.com/gitlab-org/gitlab-runner.git",
		"https://example.org/some/deep/repo/path",
	}

	for _, raw := range inputs {
		once, err := Normalize(raw)
		if err != nil {
			t.Fatalf("Normalize(%q) failed: %v", raw, err)
		}
		twice, err := Normalize(once.String())
		if err != nil {
			t.Fatalf("re-Normalize(%q) failed: %v", once.String(), err)
		}
		if once.String() != twice.String() {
			t.Errorf("normalize not idempotent: %q → %q → %q", raw, once.String(), twice.String())
		}
	}
}

func TestSameRepositorySameKey(t *testing.T) {
	variants := []string{
		"https://github.com/serde-rs/serde",
		"https://github.com/serde-rs/serde.git",
		"https://github.com/serde-rs/serde/",
		"https://github.com/serde-rs/serde/tree/master/serde_derive",
	}

	want := "https://github.com/serde-rs/serde.git"
	for _, raw := range variants {
		got, err := Normalize(raw)
		if err != nil {
			t.Fatalf("Normalize(%q) failed: %v", raw, err)
		}
		if got.String() != want {
			t.Errorf("Normalize(%q) = %q, want %q", raw, got.String(), want)
		}
	}
}

func TestDirName(t *testing.T) {
	r, err := Normalize("https://github.com/serde-rs/serde")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := r.DirName(), "github.com-serde-rs-serde.git"; got != want {
		t.Errorf("DirName = %q, want %q", got, want)
	}
}
