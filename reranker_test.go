package raglite

import "testing"

func TestRerankerSpec_IsZero(t *testing.T) {
	if !NoReranker().IsZero() {
		t.Error("NoReranker() must be zero")
	}
	if SingleReranker(stubReranker{name: "r"}).IsZero() {
		t.Error("single spec must not be zero")
	}
	if LanguageTaggedRerankers(TaggedReranker{Tag: "en", Reranker: stubReranker{name: "r"}}).IsZero() {
		t.Error("tagged spec must not be zero")
	}
}

func TestRerankerSpec_Select(t *testing.T) {
	en := stubReranker{name: "en"}
	de := stubReranker{name: "de"}
	other := stubReranker{name: "other"}

	cases := []struct {
		name string
		spec RerankerSpec
		lang string
		want string
		ok   bool
	}{
		{"single ignores language", SingleReranker(en), "ja", "en", true},
		{"exact tag wins", LanguageTaggedRerankers(
			TaggedReranker{Tag: "en", Reranker: en},
			TaggedReranker{Tag: "de", Reranker: de},
		), "de", "de", true},
		{"falls back to other entry", LanguageTaggedRerankers(
			TaggedReranker{Tag: "en", Reranker: en},
			TaggedReranker{Tag: TagOther, Reranker: other},
		), "ja", "other", true},
		{"falls back to first entry", LanguageTaggedRerankers(
			TaggedReranker{Tag: "en", Reranker: en},
			TaggedReranker{Tag: "de", Reranker: de},
		), "ja", "en", true},
		{"absent spec", NoReranker(), "en", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, ok := tc.spec.Select(tc.lang)
			if ok != tc.ok {
				t.Fatalf("Select(%q) ok = %v, want %v", tc.lang, ok, tc.ok)
			}
			if !ok {
				return
			}
			if got := r.(stubReranker).name; got != tc.want {
				t.Errorf("Select(%q) = %q, want %q", tc.lang, got, tc.want)
			}
		})
	}
}

func TestRerankerSpec_Accessors(t *testing.T) {
	single := SingleReranker(stubReranker{name: "s"})
	if _, ok := single.Single(); !ok {
		t.Error("Single() should report the wrapped reranker")
	}
	if _, ok := single.Tagged(); ok {
		t.Error("Tagged() should be empty for a single spec")
	}

	tagged := LanguageTaggedRerankers(TaggedReranker{Tag: "en", Reranker: stubReranker{name: "e"}})
	if _, ok := tagged.Single(); ok {
		t.Error("Single() should be empty for a tagged spec")
	}
	if pairs, ok := tagged.Tagged(); !ok || len(pairs) != 1 {
		t.Errorf("Tagged() = %v, %v", pairs, ok)
	}
}
