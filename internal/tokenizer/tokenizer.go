package tokenizer

import (
	"fmt"

	"github.com/ikawaha/kagome-dict/ipa"
	kagome "github.com/ikawaha/kagome/v2/tokenizer"
)

// Tokenizer splits free text into surface-form tokens. Implementations are
// injected into the indexing service so the segmenter can be swapped out.
type Tokenizer interface {
	Tokenize(text string) ([]string, error)
}

// Kagome is a morphological tokenizer backed by the IPA dictionary. The
// dictionary is loaded once at construction; the resulting value is safe for
// concurrent use and meant to live for the whole process.
type Kagome struct {
	t *kagome.Tokenizer
}

// New loads the dictionary and builds the tokenizer. Failure here means the
// backing resources are unusable and indexing cannot run at all.
func New() (*Kagome, error) {
	t, err := kagome.New(ipa.Dict(), kagome.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("load tokenizer dictionary: %w", err)
	}
	return &Kagome{t: t}, nil
}

// Tokenize returns the surface forms of text in document order.
func (k *Kagome) Tokenize(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}

	tokens := k.t.Tokenize(text)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Surface == "" {
			continue
		}
		out = append(out, tok.Surface)
	}
	return out, nil
}
