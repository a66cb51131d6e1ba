package race

import (
	"math/rand"
	"sync"
)

// defaultTexts is the built-in passage corpus. Deployments can replace it
// through the server's texts config file.
var defaultTexts = []string{
	"Typing fast is useful, but typing accurately is what actually makes you productive. Stay calm, keep a steady rhythm, and focus on every character.",
	"Build speed by reducing hesitation between words. Keep your eyes ahead, trust your fingers, and let your rhythm stay consistent.",
	"Great typing comes from smooth movement, not force. Press gently, recover quickly from mistakes, and stay relaxed through every line.",
	"Consistency beats short bursts. Keep a stable pace, breathe normally, and focus on finishing each sentence with clean accuracy.",
}

// TextPool hands out a pseudo-random passage for each race.
type TextPool struct {
	mu    sync.Mutex
	texts []string
	rng   *rand.Rand
}

// NewTextPool builds a pool from the given corpus, falling back to the
// built-in passages when the corpus is empty.
func NewTextPool(texts []string) *TextPool {
	if len(texts) == 0 {
		texts = defaultTexts
	}
	return &TextPool{texts: texts, rng: newRand()}
}

// Pick returns a random passage from the corpus.
func (p *TextPool) Pick() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.texts[p.rng.Intn(len(p.texts))]
}
