// Package wordtoken builds human-memorable view tokens for ordinary (non
// encrypted) messages. Tokens are meant to be read aloud and typed, not to be
// secrets: the caller provides a plain PRNG and the store enforces uniqueness.
package wordtoken

import (
	"math/rand"
	"strings"
)

// Vocabularies are fixed and lowercase. None of the entries begins with the
// secret-token marker letter, so a generated token can never be mistaken for
// an encrypted-message token by prefix inspection.
var adjectives = []string{
	"amber", "bold", "brave", "bright", "calm", "cosy", "crisp", "dapper",
	"dusty", "fancy", "fuzzy", "gentle", "glad", "golden", "happy", "humble",
	"jolly", "kind", "lucky", "mellow", "mighty", "misty", "nimble", "plucky",
	"proud", "quiet", "rapid", "rosy", "shiny", "silky", "snug", "spry",
	"sunny", "swift", "tidy", "witty",
}

var nouns = []string{
	"acorn", "badger", "bamboo", "beacon", "breeze", "brook", "cabin",
	"canyon", "cedar", "clover", "comet", "coral", "crane", "dune", "falcon",
	"fern", "garnet", "harbor", "heron", "lagoon", "lantern", "maple",
	"meadow", "nutmeg", "otter", "pebble", "pine", "plum", "poppy", "quartz",
	"raven", "ridge", "sparrow", "thistle", "tulip", "walnut", "willow",
	"wren",
}

const (
	groupSeparator = '-'
	innerSeparator = '.'
)

// groupCycle is the fixed ascending sequence the grouping cursor rotates
// over; the value at each position decides how the corresponding word group
// is shaped, so longer tokens do not repeat a single structural rule.
var groupCycle = []int{2, 3, 5, 7, 11, 13}

// MinLength is the shortest token the allocator will accept. The smallest
// vocabulary entries are four characters, so any generated token passes.
const MinLength = 4

// Generate builds a token out of complexity word groups drawn from the fixed
// vocabularies. Structure is deterministic in complexity, output is not: word
// choice comes from rng. Runs in O(complexity) and never panics for
// complexity >= 1; smaller values are treated as 1.
func Generate(rng *rand.Rand, complexity int) string {
	if complexity < 1 {
		complexity = 1
	}

	parts := make([]string, 0, complexity)
	for i := 0; i < complexity; i++ {
		cursor := groupCycle[i%len(groupCycle)]
		adj := adjectives[rng.Intn(len(adjectives))]
		noun := nouns[rng.Intn(len(nouns))]

		var group string
		switch cursor % 3 {
		case 0:
			group = noun
		case 1:
			group = adj + noun
		default:
			group = adj + string(innerSeparator) + noun
		}
		parts = append(parts, group)
	}

	return strings.Join(parts, string(groupSeparator))
}
