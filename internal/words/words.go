// Package words holds the embedded word bank for the drawing-and-guess game
// and best-effort definition glosses for the word-chain game.
package words

import (
	"math/rand"
	"strings"
	"sync"
)

// Word is one drawable entry: the prompt shown to the drawer and the English
// answer guesses are matched against.
type Word struct {
	ID      string
	Korean  string
	English string
}

var bank = []Word{
	{ID: "w001", Korean: "고양이", English: "cat"},
	{ID: "w002", Korean: "강아지", English: "dog"},
	{ID: "w003", Korean: "코끼리", English: "elephant"},
	{ID: "w004", Korean: "무지개", English: "rainbow"},
	{ID: "w005", Korean: "자전거", English: "bicycle"},
	{ID: "w006", Korean: "비행기", English: "airplane"},
	{ID: "w007", Korean: "수박", English: "watermelon"},
	{ID: "w008", Korean: "안경", English: "glasses"},
	{ID: "w009", Korean: "우산", English: "umbrella"},
	{ID: "w010", Korean: "기타", English: "guitar"},
	{ID: "w011", Korean: "눈사람", English: "snowman"},
	{ID: "w012", Korean: "나비", English: "butterfly"},
	{ID: "w013", Korean: "등대", English: "lighthouse"},
	{ID: "w014", Korean: "풍선", English: "balloon"},
	{ID: "w015", Korean: "거북이", English: "turtle"},
	{ID: "w016", Korean: "로봇", English: "robot"},
	{ID: "w017", Korean: "피자", English: "pizza"},
	{ID: "w018", Korean: "카메라", English: "camera"},
	{ID: "w019", Korean: "열기구", English: "hot air balloon"},
	{ID: "w020", Korean: "해바라기", English: "sunflower"},
	{ID: "w021", Korean: "펭귄", English: "penguin"},
	{ID: "w022", Korean: "성", English: "castle"},
	{ID: "w023", Korean: "톱니바퀴", English: "gear"},
	{ID: "w024", Korean: "망원경", English: "telescope"},
}

// glosses carries best-effort definitions for word-chain words; lookups on
// missing entries simply return nothing.
var glosses = map[string]string{
	"apple":  "the round fruit of the apple tree",
	"elbow":  "the joint between the forearm and the upper arm",
	"window": "an opening in a wall fitted with glass",
	"wolf":   "a wild carnivorous mammal related to the dog",
	"flame":  "the visible, gaseous part of a fire",
	"energy": "the capacity for doing work",
	"yellow": "the color between green and orange in the spectrum",
	"walnut": "an edible wrinkled nut",
	"tiger":  "a large striped wild cat",
	"rabbit": "a burrowing mammal with long ears",
}

// Picker selects words for new rounds. The interface exists so machines can
// be tested with a fixed sequence instead of the process RNG.
type Picker interface {
	Pick(exclude string) Word
}

// RandomPicker draws uniformly from the embedded bank, avoiding an immediate
// repeat of the excluded word id. One instance serves every room, so the
// generator is guarded: rand.Rand is not safe for concurrent use.
type RandomPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPicker creates a picker seeded by the caller.
func NewRandomPicker(seed int64) *RandomPicker {
	return &RandomPicker{rng: rand.New(rand.NewSource(seed))}
}

// Pick returns a random word, never the one identified by exclude.
func (p *RandomPicker) Pick(exclude string) Word {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		w := bank[p.rng.Intn(len(bank))]
		if w.ID != exclude || len(bank) == 1 {
			return w
		}
	}
}

// Define returns the gloss for a word, if the bank knows one.
func Define(word string) (string, bool) {
	gloss, ok := glosses[strings.ToLower(word)]
	return gloss, ok
}
